// Package record turns raw registration rows into canonical purchase records.
package record

import (
	"errors"
	"sort"
	"time"
)

// Unknown is the placeholder for any optional attribute the source left empty.
const Unknown = "N/A"

var (
	ErrMissingColumn  = errors.New("required column missing")
	ErrEmptyTable     = errors.New("source table is empty")
	ErrNoValidRecords = errors.New("no valid records after cleaning")
)

// Record is one vehicle registration event.
type Record struct {
	TaxIDRaw       string    `json:"tax_id_raw"`
	TaxID          string    `json:"tax_id"`
	Name           string    `json:"name"`
	PurchaseDate   time.Time `json:"purchase_date"`
	Brand          string    `json:"brand"`
	Segment        string    `json:"segment"`
	Model          string    `json:"model"`
	City           string    `json:"city"`
	Dealer         string    `json:"dealer"`
	PlateRaw       string    `json:"plate_raw"`
	Plate          string    `json:"plate"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	Chassis        string    `json:"chassis"`
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	YearMonth      int       `json:"year_month"`
	YearMonthLabel string    `json:"year_month_label"`
}

// Table is a raw source table: a header row and the data rows aligned to it.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Stats counts rows seen and rows dropped per reason during normalization.
type Stats struct {
	Total        int `json:"total"`
	Valid        int `json:"valid"`
	DroppedDate  int `json:"dropped_date"`
	DroppedTaxID int `json:"dropped_tax_id"`
	DroppedName  int `json:"dropped_name"`
}

// Dropped returns the number of rows excluded from the valid set.
func (s Stats) Dropped() int {
	return s.DroppedDate + s.DroppedTaxID + s.DroppedName
}

// Result is the output of Normalize.
type Result struct {
	Records []Record
	Stats   Stats
}

// Filter restricts a record set to the selected brands and segments.
// An empty list means no restriction on that field.
type Filter struct {
	Brands   []string `json:"brands,omitempty"`
	Segments []string `json:"segments,omitempty"`
}

// Empty reports whether the filter lets every record through.
func (f Filter) Empty() bool {
	return len(f.Brands) == 0 && len(f.Segments) == 0
}

// Apply returns the records matching the filter. The input is not modified.
func (f Filter) Apply(records []Record) []Record {
	if f.Empty() {
		return records
	}
	brands := toSet(f.Brands)
	segments := toSet(f.Segments)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if len(brands) > 0 && !brands[r.Brand] {
			continue
		}
		if len(segments) > 0 && !segments[r.Segment] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Distinct returns the sorted set of values a field takes across records.
func Distinct(records []Record, field func(Record) string) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[field(r)] = true
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
