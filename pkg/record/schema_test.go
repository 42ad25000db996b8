package record

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSchema_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	os.WriteFile(path, []byte(`version: "2"
columns:
  tax_id: "CPF/CNPJ"
  plate: "Placa"
format:
  sheet: "Vans"
  delimiter: ";"
  encoding: windows-1252
`), 0o644)

	s, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if s.Columns.TaxID != "CPF/CNPJ" || s.Columns.Plate != "Placa" {
		t.Errorf("overrides not applied: %+v", s.Columns)
	}
	if s.Columns.Name != "NOME DO CLIENTE" {
		t.Errorf("default lost: Name = %q", s.Columns.Name)
	}
	if s.Format.Sheet != "Vans" || s.Format.Delimiter != ";" || s.Format.Encoding != "windows-1252" {
		t.Errorf("format = %+v", s.Format)
	}
}

func TestLoadSchema_EmptyRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	os.WriteFile(path, []byte("columns:\n  name: \"\"\n"), 0o644)
	if _, err := LoadSchema(path); err == nil {
		t.Fatal("expected error for blank required column")
	}
}

func TestSchemaSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := DefaultSchema().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if s.Columns != DefaultSchema().Columns {
		t.Errorf("columns changed: %+v", s.Columns)
	}
}

func TestValidTaxID(t *testing.T) {
	tests := []struct {
		digits string
		want   bool
	}{
		{"11222333000181", true},
		{"11222333000182", false},
		{"52998224725", true},
		{"52998224726", false},
		{"00000000000000", false},
		{"11111111111", false},
		{"1234", false},
	}
	for _, tt := range tests {
		if got := ValidTaxID(tt.digits); got != tt.want {
			t.Errorf("ValidTaxID(%q) = %v, want %v", tt.digits, got, tt.want)
		}
	}
}
