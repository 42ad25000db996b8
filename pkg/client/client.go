// Package client groups purchase records by tax ID and derives per-client views.
package client

import (
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/emplacamentos/pkg/record"
)

// Index holds the records of each client, keyed by normalized tax ID.
// It is built from a record snapshot and never mutated afterwards.
type Index struct {
	byTaxID map[string][]record.Record
}

// NewIndex groups records by tax ID.
func NewIndex(records []record.Record) *Index {
	idx := &Index{byTaxID: make(map[string][]record.Record)}
	for _, r := range records {
		idx.byTaxID[r.TaxID] = append(idx.byTaxID[r.TaxID], r)
	}
	return idx
}

// Len returns the number of distinct clients.
func (idx *Index) Len() int {
	return len(idx.byTaxID)
}

// Records returns the records of one client in source order.
func (idx *Index) Records(taxID string) []record.Record {
	return idx.byTaxID[taxID]
}

// Profile builds the client view for taxID. ok is false when the index
// holds no record for it.
func (idx *Index) Profile(taxID string) (*Profile, bool) {
	recs := idx.byTaxID[taxID]
	if len(recs) == 0 {
		return nil, false
	}
	return NewProfile(recs), true
}

// Profile is the derived view of one client.
type Profile struct {
	TaxID          string          `json:"tax_id"`
	TaxIDFormatted string          `json:"tax_id_formatted"`
	TaxIDValid     bool            `json:"tax_id_valid"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone"`
	City           string          `json:"city"`
	Total          int             `json:"total"`
	Records        []record.Record `json:"records"`
	Dates          []time.Time     `json:"-"`
}

// NewProfile builds a profile from records that all share one tax ID.
// Records are ordered newest first; Dates oldest first. Contact details come
// from the most recent record.
func NewProfile(recs []record.Record) *Profile {
	sorted := make([]record.Record, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PurchaseDate.After(sorted[j].PurchaseDate)
	})

	dates := make([]time.Time, len(sorted))
	for i, r := range sorted {
		dates[len(sorted)-1-i] = r.PurchaseDate
	}

	latest := sorted[0]
	return &Profile{
		TaxID:          latest.TaxID,
		TaxIDFormatted: record.FormatTaxID(latest.TaxID),
		TaxIDValid:     record.ValidTaxID(latest.TaxID),
		Name:           latest.Name,
		Address:        latest.Address,
		Phone:          latest.Phone,
		City:           latest.City,
		Total:          len(sorted),
		Records:        sorted,
		Dates:          dates,
	}
}

// Latest returns the most recent record.
func (p *Profile) Latest() record.Record {
	return p.Records[0]
}

// LastPurchase returns the most recent purchase date.
func (p *Profile) LastPurchase() time.Time {
	return p.Records[0].PurchaseDate
}

// Field selectors for Modes.
var (
	Brand   = func(r record.Record) string { return r.Brand }
	Model   = func(r record.Record) string { return r.Model }
	Segment = func(r record.Record) string { return r.Segment }
	Dealer  = func(r record.Record) string { return r.Dealer }
)

// Modes returns the most frequent values of field across the client's records.
func (p *Profile) Modes(field func(record.Record) string) []string {
	values := make([]string, len(p.Records))
	for i, r := range p.Records {
		values[i] = field(r)
	}
	return Modes(values)
}

// Preferences is the set of favourite brand, model, segment and dealer.
type Preferences struct {
	Brands   []string `json:"brands"`
	Models   []string `json:"models"`
	Segments []string `json:"segments"`
	Dealers  []string `json:"dealers"`
}

// Preferences computes the modes of the four categorical fields.
func (p *Profile) Preferences() Preferences {
	return Preferences{
		Brands:   p.Modes(Brand),
		Models:   p.Modes(Model),
		Segments: p.Modes(Segment),
		Dealers:  p.Modes(Dealer),
	}
}

// MonthCount is the number of purchases in one YYYY-MM period.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthlyHistory counts the client's purchases per month, oldest first.
func (p *Profile) MonthlyHistory() []MonthCount {
	counts := make(map[string]int)
	for _, r := range p.Records {
		counts[r.YearMonthLabel]++
	}
	out := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, MonthCount{Month: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Modes returns every value tied at the highest count, sorted. Empty and
// unknown values are not counted. The result is nil when nothing remains.
func Modes(values []string) []string {
	counts := make(map[string]int)
	best := 0
	for _, v := range values {
		if v == "" || v == record.Unknown {
			continue
		}
		counts[v]++
		if counts[v] > best {
			best = counts[v]
		}
	}
	var out []string
	for v, n := range counts {
		if n == best {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// FormatList joins values for display, or returns the unknown marker when empty.
func FormatList(values []string) string {
	if len(values) == 0 {
		return record.Unknown
	}
	return strings.Join(values, ", ")
}
