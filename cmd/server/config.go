package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// config holds the server settings. Values come from the YAML file when it
// exists; environment variables override them either way.
type config struct {
	Addr          string        `yaml:"addr" env:"EMPLACAMENTOS_ADDR" env-default:":8420"`
	DataFile      string        `yaml:"data_file" env:"EMPLACAMENTOS_DATA_FILE" env-default:""`
	SchemaFile    string        `yaml:"schema_file" env:"EMPLACAMENTOS_SCHEMA_FILE" env-default:""`
	CatalogDB     string        `yaml:"catalog_db" env:"EMPLACAMENTOS_CATALOG_DB" env-default:"emplacamentos.db"`
	WatchInterval time.Duration `yaml:"watch_interval" env:"EMPLACAMENTOS_WATCH_INTERVAL" env-default:"1m"`
	TopCities     int           `yaml:"top_cities" env:"EMPLACAMENTOS_TOP_CITIES" env-default:"15"`

	Log logConfig `yaml:"log"`
}

type logConfig struct {
	Level  string `yaml:"level" env:"EMPLACAMENTOS_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"EMPLACAMENTOS_LOG_FORMAT" env-default:"text"`
}

func loadConfig(path string) (*config, error) {
	cfg := &config{}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if cfg.WatchInterval <= 0 {
		return nil, fmt.Errorf("watch_interval must be positive, got %s", cfg.WatchInterval)
	}
	return cfg, nil
}

func newLogger(w io.Writer, lc logConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(lc.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", lc.Format)
	}
}
