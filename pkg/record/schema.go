package record

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema maps canonical record fields to the column names used by a source
// spreadsheet, plus how the file itself is laid out.
type Schema struct {
	Version string     `yaml:"version" json:"version"`
	Columns ColumnMap  `yaml:"columns" json:"columns"`
	Format  FormatSpec `yaml:"format" json:"format"`
}

// ColumnMap holds one source column name per canonical field. The first six
// are required; the rest may be absent from the source.
type ColumnMap struct {
	PurchaseDate string `yaml:"purchase_date" json:"purchase_date"`
	TaxID        string `yaml:"tax_id" json:"tax_id"`
	Name         string `yaml:"name" json:"name"`
	Brand        string `yaml:"brand" json:"brand"`
	Segment      string `yaml:"segment" json:"segment"`
	City         string `yaml:"city" json:"city"`

	Address string `yaml:"address" json:"address"`
	Phone   string `yaml:"phone" json:"phone"`
	Plate   string `yaml:"plate" json:"plate"`
	Model   string `yaml:"model" json:"model"`
	Dealer  string `yaml:"dealer" json:"dealer"`
	Chassis string `yaml:"chassis" json:"chassis"`
}

// FormatSpec describes the physical layout of the source file.
type FormatSpec struct {
	Sheet     string `yaml:"sheet" json:"sheet,omitempty"`
	Delimiter string `yaml:"delimiter" json:"delimiter,omitempty"`
	Encoding  string `yaml:"encoding" json:"encoding,omitempty"`
}

// SchemaError reports required columns absent from a source table.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrMissingColumn }

// DefaultSchema returns the column layout of the regional registration export.
func DefaultSchema() *Schema {
	return &Schema{
		Version: "1",
		Columns: ColumnMap{
			PurchaseDate: "Data emplacamento",
			TaxID:        "CNPJ CLIENTE",
			Name:         "NOME DO CLIENTE",
			Brand:        "Marca",
			Segment:      "Segmento",
			City:         "NO_CIDADE",
			Address:      "ENDEREÇO COMPLETO",
			Phone:        "TELEFONE1",
			Plate:        "PLACA",
			Model:        "Modelo",
			Dealer:       "CONCESSIONÁRIO",
			Chassis:      "Chassi",
		},
		Format: FormatSpec{Delimiter: ","},
	}
}

// LoadSchema reads a schema manifest. Fields left blank in the file keep the
// default column names.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	s := DefaultSchema()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	for _, c := range s.required() {
		if c == "" {
			return nil, fmt.Errorf("schema %s: required column mapped to empty name", path)
		}
	}
	return s, nil
}

// Save writes the schema as YAML.
func (s *Schema) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schema %s: %w", path, err)
	}
	return nil
}

func (s *Schema) required() []string {
	c := s.Columns
	return []string{c.PurchaseDate, c.TaxID, c.Name, c.Brand, c.Segment, c.City}
}

// Check verifies that every required column is present in header.
func (s *Schema) Check(source string, header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, c := range s.required() {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Source: source, Missing: missing}
	}
	return nil
}
