package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/emplacamentos/pkg/analytics"
	"github.com/hazyhaar/emplacamentos/pkg/api"
	"github.com/hazyhaar/emplacamentos/pkg/catalog"
	"github.com/hazyhaar/emplacamentos/pkg/client"
	"github.com/hazyhaar/emplacamentos/pkg/dataset"
	"github.com/hazyhaar/emplacamentos/pkg/predict"
	"github.com/hazyhaar/emplacamentos/pkg/record"
	"github.com/hazyhaar/emplacamentos/pkg/search"
	"github.com/hazyhaar/emplacamentos/pkg/sheet"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = cmdServe(os.Args[2:])
	case "mcp":
		err = cmdMCP(os.Args[2:])
	case "lookup":
		err = cmdLookup(os.Args[2:])
	case "export-inactive":
		err = cmdExportInactive(os.Args[2:])
	case "sources":
		err = cmdSources(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "emplacamentos %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: emplacamentos <command> [flags]

Commands:
  serve             Start the HTTP server
  mcp               Serve the MCP tools over stdio
  lookup <query>    Find a client and print the sales pitch
  export-inactive   Write the inactive-client report (xlsx or csv)
  sources           List the catalogued source files
`)
}

// env bundles what every command needs.
type env struct {
	cfg     *config
	logger  *slog.Logger
	catalog *catalog.Catalog
	store   *dataset.Store
}

func setup(cfgPath string, logOut io.Writer) (*env, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(logOut, cfg.Log)
	if err != nil {
		return nil, err
	}

	schema := record.DefaultSchema()
	if cfg.SchemaFile != "" {
		if schema, err = record.LoadSchema(cfg.SchemaFile); err != nil {
			return nil, err
		}
	}

	cat, err := catalog.Open(cfg.CatalogDB)
	if err != nil {
		return nil, err
	}
	store := dataset.NewStore(schema, logger, dataset.WithRecorder(cat))
	return &env{cfg: cfg, logger: logger, catalog: cat, store: store}, nil
}

// sourcePath is the file to serve: the configured data file, or else the
// last file that loaded cleanly.
func (e *env) sourcePath() string {
	if e.cfg.DataFile != "" {
		return e.cfg.DataFile
	}
	entry, err := e.catalog.LastGood()
	if err != nil || strings.HasPrefix(entry.Path, "upload:") {
		return ""
	}
	return entry.Path
}

// loadOnce loads the source file for the one-shot commands.
func (e *env) loadOnce(override string) (*dataset.Snapshot, error) {
	path := override
	if path == "" {
		path = e.sourcePath()
	}
	if path == "" {
		return nil, errors.New("no data file configured (set data_file or pass -file)")
	}
	snap, _, err := e.store.LoadFile(path, true)
	return snap, err
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	e, err := setup(*cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.catalog.Close()
	logger := e.logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The watcher does the initial load and picks up later edits of the file.
	path := e.sourcePath()
	if path != "" {
		go dataset.NewWatcher(e.store, path, logger, e.cfg.WatchInterval).Start(ctx)
	} else {
		logger.Info("no data file configured, waiting for an upload")
	}

	// SIGHUP: force a reload of the source file.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for range sighup {
			if path == "" {
				logger.Warn("SIGHUP received but no data file is configured")
				continue
			}
			logger.Info("SIGHUP received, reloading dataset", "path", path)
			e.store.LoadFile(path, true)
		}
	}()

	eps := api.NewEndpoints(e.store, api.Options{TopCities: e.cfg.TopCities, Logger: logger})
	srv := &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           api.NewRouter(eps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("emplacamentos listening", "addr", e.cfg.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	// stdout carries the protocol; logs go to stderr.
	e, err := setup(*cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.catalog.Close()

	if _, err := e.loadOnce(""); err != nil {
		e.logger.Warn("starting without a dataset", "error", err)
	}

	srv := server.NewMCPServer("emplacamentos", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, api.NewEndpoints(e.store, api.Options{TopCities: e.cfg.TopCities, Logger: e.logger}))
	return server.ServeStdio(srv)
}

func cmdLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	file := fs.String("file", "", "spreadsheet to search (default: data_file)")
	brands := fs.String("brands", "", "comma-separated brand filter")
	segments := fs.String("segments", "", "comma-separated segment filter")
	fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("usage: emplacamentos lookup [flags] <plate | CNPJ | name>")
	}

	e, err := setup(*cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.catalog.Close()

	snap, err := e.loadOnce(*file)
	if err != nil {
		return err
	}
	records := snap.Filtered(record.Filter{Brands: splitFlag(*brands), Segments: splitFlag(*segments)})

	m := search.Resolve(query, records)
	switch m.Kind {
	case search.KindNotFound:
		fmt.Printf("Nenhum cliente encontrado para %q.\n", query)
	case search.KindAmbiguous:
		fmt.Printf("%d clientes encontrados para %q:\n\n", len(m.Candidates), query)
		for _, c := range m.Candidates {
			fmt.Printf("  %-20s  %-40s  %d registro(s)\n", c.TaxIDFormatted, c.Name, c.Matches)
		}
	case search.KindFound:
		recs, _ := search.Select(m.TaxID, records)
		printClient(os.Stdout, api.NewClientView(recs, time.Now()))
	}
	return nil
}

func printClient(w io.Writer, v *api.ClientView) {
	valid := "válido"
	if !v.TaxIDValid {
		valid = "inválido"
	}
	fmt.Fprintf(w, "Cliente:           %s\n", v.Name)
	fmt.Fprintf(w, "CNPJ/CPF:          %s (%s)\n", v.TaxIDFormatted, valid)
	fmt.Fprintf(w, "Cidade:            %s\n", v.City)
	if v.Address != record.Unknown {
		fmt.Fprintf(w, "Endereço:          %s\n", v.Address)
	}
	if v.Phone != record.Unknown {
		fmt.Fprintf(w, "Telefone:          %s\n", v.Phone)
	}
	fmt.Fprintf(w, "Total de compras:  %d\n", v.Total)
	fmt.Fprintf(w, "Última compra:     %s\n", v.LastPurchase().Format("02/01/2006"))
	fmt.Fprintf(w, "Marcas:            %s\n", client.FormatList(v.Preferences.Brands))
	fmt.Fprintf(w, "Modelos:           %s\n", client.FormatList(v.Preferences.Models))
	fmt.Fprintf(w, "Segmentos:         %s\n", client.FormatList(v.Preferences.Segments))
	fmt.Fprintf(w, "Concessionárias:   %s\n", client.FormatList(v.Preferences.Dealers))
	fmt.Fprintf(w, "\nPrevisão: %s\n", v.Prediction.Text)
	if v.Prediction.NextPurchase != nil {
		fmt.Fprintf(w, "Próxima compra:    %s\n", predict.MonthYear(*v.Prediction.NextPurchase))
	}
	fmt.Fprintf(w, "\n%s\n", v.Pitch.Message)
}

func cmdExportInactive(args []string) error {
	fs := flag.NewFlagSet("export-inactive", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	file := fs.String("file", "", "spreadsheet to read (default: data_file)")
	out := fs.String("o", "clientes_inativos.xlsx", "output file (.xlsx or .csv)")
	fs.Parse(args)

	e, err := setup(*cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer e.catalog.Close()

	snap, err := e.loadOnce(*file)
	if err != nil {
		return err
	}
	rows := analytics.InactiveClients(snap.Records, time.Now())

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(*out), ".csv") {
		err = sheet.WriteInactiveCSV(f, rows)
	} else {
		err = sheet.WriteInactiveReport(f, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Printf("%d clientes inativos exportados para %s\n", len(rows), *out)
	return nil
}

func cmdSources(args []string) error {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	e, err := setup(*cfgPath, io.Discard)
	if err != nil {
		return err
	}
	defer e.catalog.Close()

	entries, err := e.catalog.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Nenhuma planilha catalogada.")
		return nil
	}
	for _, s := range entries {
		loaded := "-"
		if s.LoadedAt != nil {
			loaded = time.Unix(*s.LoadedAt, 0).Format("02/01/2006 15:04")
		}
		status := "ok"
		if s.LastError != nil {
			status = "erro: " + *s.LastError
		}
		fmt.Printf("  %-40s  %6d válidos  %5d descartados  %s  %s\n", s.Path, s.ValidRows, s.DroppedRows, loaded, status)
	}
	return nil
}

func splitFlag(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
