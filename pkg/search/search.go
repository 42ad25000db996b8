// Package search resolves a free-text query to a single client or a list of
// candidates.
package search

import (
	"sort"
	"strings"

	"github.com/hazyhaar/emplacamentos/pkg/record"
)

// Kind is the outcome of a resolution.
type Kind string

const (
	KindFound      Kind = "found"
	KindAmbiguous  Kind = "ambiguous"
	KindNotFound   Kind = "not_found"
	KindEmptyQuery Kind = "empty_query"
)

// Field names which stage of the matching policy produced the hit.
type Field string

const (
	FieldPlate Field = "plate"
	FieldTaxID Field = "tax_id"
	FieldName  Field = "name"
)

// MinTaxIDDigits is the shortest digit query treated as a tax ID (a CPF).
const MinTaxIDDigits = 11

// Candidate is one client among several that matched a query.
type Candidate struct {
	TaxID          string `json:"tax_id"`
	TaxIDFormatted string `json:"tax_id_formatted"`
	Name           string `json:"name"`
	Matches        int    `json:"matches"`
}

// Match is the result of Resolve.
type Match struct {
	Query      string      `json:"query"`
	Kind       Kind        `json:"kind"`
	Field      Field       `json:"field,omitempty"`
	TaxID      string      `json:"tax_id,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Resolve applies the matching policy in order: exact plate, exact tax ID
// (only for queries with at least MinTaxIDDigits digits), then name substring
// ignoring case and accents. The first stage that matches anything wins.
func Resolve(query string, records []record.Record) Match {
	q := strings.TrimSpace(query)
	m := Match{Query: q}
	if q == "" {
		m.Kind = KindEmptyQuery
		return m
	}

	field, hits := match(q, records)
	if len(hits) == 0 {
		m.Kind = KindNotFound
		return m
	}
	m.Field = field

	cands := candidates(hits)
	if len(cands) == 1 {
		m.Kind = KindFound
		m.TaxID = cands[0].TaxID
		return m
	}
	m.Kind = KindAmbiguous
	m.Candidates = cands
	return m
}

func match(q string, records []record.Record) (Field, []record.Record) {
	if plate := record.NormalizePlate(q); plate != "" {
		if hits := filter(records, func(r record.Record) bool { return r.Plate == plate }); len(hits) > 0 {
			return FieldPlate, hits
		}
	}
	if digits := record.TaxIDDigits(q); len(digits) >= MinTaxIDDigits {
		if hits := filter(records, func(r record.Record) bool { return r.TaxID == digits }); len(hits) > 0 {
			return FieldTaxID, hits
		}
	}
	folded := record.FoldName(q)
	return FieldName, filter(records, func(r record.Record) bool {
		return strings.Contains(record.FoldName(r.Name), folded)
	})
}

func filter(records []record.Record, keep func(record.Record) bool) []record.Record {
	var out []record.Record
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// candidates collapses hits to one entry per tax ID, sorted by name then tax ID.
// The name shown is the one on the client's latest matched record.
func candidates(hits []record.Record) []Candidate {
	type agg struct {
		c    Candidate
		last record.Record
	}
	byID := make(map[string]*agg)
	for _, r := range hits {
		a, ok := byID[r.TaxID]
		if !ok {
			a = &agg{c: Candidate{TaxID: r.TaxID, TaxIDFormatted: record.FormatTaxID(r.TaxID)}, last: r}
			byID[r.TaxID] = a
		}
		a.c.Matches++
		if r.PurchaseDate.After(a.last.PurchaseDate) {
			a.last = r
		}
	}
	out := make([]Candidate, 0, len(byID))
	for _, a := range byID {
		a.c.Name = a.last.Name
		out = append(out, a.c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].TaxID < out[j].TaxID
	})
	return out
}

// Select returns every record of the chosen client within records, the
// filter-scoped set the search ran against. ok is false when none exist.
func Select(taxID string, records []record.Record) ([]record.Record, bool) {
	digits := record.TaxIDDigits(taxID)
	if digits == "" {
		return nil, false
	}
	hits := filter(records, func(r record.Record) bool { return r.TaxID == digits })
	return hits, len(hits) > 0
}
