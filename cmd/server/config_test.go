package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":8420" || cfg.CatalogDB != "emplacamentos.db" || cfg.WatchInterval != time.Minute || cfg.TopCities != 15 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "addr: \":9000\"\ndata_file: vendas.xlsx\nwatch_interval: 30s\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EMPLACAMENTOS_TOP_CITIES", "5")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.DataFile != "vendas.xlsx" || cfg.WatchInterval != 30*time.Second {
		t.Errorf("file values = %+v", cfg)
	}
	if cfg.TopCities != 5 {
		t.Errorf("TopCities = %d, want env override 5", cfg.TopCities)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadConfig_BadInterval(t *testing.T) {
	t.Setenv("EMPLACAMENTOS_WATCH_INTERVAL", "0s")
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("zero watch interval should be rejected")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, logConfig{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("output = %s", out)
	}

	if _, err := newLogger(&buf, logConfig{Level: "loud"}); err == nil {
		t.Error("unknown level should fail")
	}
	if _, err := newLogger(&buf, logConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("unknown format should fail")
	}
}
