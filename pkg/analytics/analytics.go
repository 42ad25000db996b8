// Package analytics computes dataset-wide aggregates over purchase records.
package analytics

import (
	"sort"

	"github.com/hazyhaar/emplacamentos/pkg/record"
)

// Summary holds the headline numbers of a record set.
type Summary struct {
	Registrations int `json:"registrations"`
	Clients       int `json:"clients"`
	FirstYear     int `json:"first_year,omitempty"`
	LastYear      int `json:"last_year,omitempty"`
}

// Summarize counts registrations and distinct clients and finds the year span.
func Summarize(records []record.Record) Summary {
	s := Summary{Registrations: len(records)}
	clients := make(map[string]bool)
	for _, r := range records {
		clients[r.TaxID] = true
		if s.FirstYear == 0 || r.Year < s.FirstYear {
			s.FirstYear = r.Year
		}
		if r.Year > s.LastYear {
			s.LastYear = r.Year
		}
	}
	s.Clients = len(clients)
	return s
}

// YearCount is the number of registrations in one year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// CountByYear counts registrations per year, oldest first.
func CountByYear(records []record.Record) []YearCount {
	counts := make(map[int]int)
	for _, r := range records {
		counts[r.Year]++
	}
	out := make([]YearCount, 0, len(counts))
	for y, n := range counts {
		out = append(out, YearCount{Year: y, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Count is a value with its number of registrations and its share of the total.
type Count struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// CountByBrand counts registrations per brand with each brand's share of the
// total, largest first.
func CountByBrand(records []record.Record) []Count {
	return countBy(records, func(r record.Record) string { return r.Brand })
}

// CountBySegment counts registrations per segment, largest first.
func CountBySegment(records []record.Record) []Count {
	return countBy(records, func(r record.Record) string { return r.Segment })
}

// TopCities returns the n cities with the most registrations. n <= 0 returns all.
func TopCities(records []record.Record, n int) []Count {
	out := countBy(records, func(r record.Record) string { return r.City })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func countBy(records []record.Record, field func(record.Record) string) []Count {
	counts := make(map[string]int)
	for _, r := range records {
		counts[field(r)]++
	}
	out := make([]Count, 0, len(counts))
	for v, n := range counts {
		c := Count{Value: v, Count: n}
		if len(records) > 0 {
			c.Share = float64(n) / float64(len(records))
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// BrandRow is one brand's registrations per year.
type BrandRow struct {
	Brand  string      `json:"brand"`
	ByYear map[int]int `json:"by_year"`
	Total  int         `json:"total"`
}

// BrandPivot is the brand x year table.
type BrandPivot struct {
	Years []int      `json:"years"`
	Rows  []BrandRow `json:"rows"`
}

// BrandByYear pivots registrations into one row per brand and one column per
// year. Rows are sorted by their total, largest first.
func BrandByYear(records []record.Record) BrandPivot {
	rows := make(map[string]*BrandRow)
	years := make(map[int]bool)
	for _, r := range records {
		row, ok := rows[r.Brand]
		if !ok {
			row = &BrandRow{Brand: r.Brand, ByYear: make(map[int]int)}
			rows[r.Brand] = row
		}
		row.ByYear[r.Year]++
		row.Total++
		years[r.Year] = true
	}

	var p BrandPivot
	for y := range years {
		p.Years = append(p.Years, y)
	}
	sort.Ints(p.Years)
	for _, row := range rows {
		p.Rows = append(p.Rows, *row)
	}
	sort.Slice(p.Rows, func(i, j int) bool {
		if p.Rows[i].Total != p.Rows[j].Total {
			return p.Rows[i].Total > p.Rows[j].Total
		}
		return p.Rows[i].Brand < p.Rows[j].Brand
	})
	return p
}

// MonthCount is the number of registrations in one YYYY-MM period.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthlyTrend counts registrations per month, oldest first.
func MonthlyTrend(records []record.Record) []MonthCount {
	counts := make(map[int]int)
	labels := make(map[int]string)
	for _, r := range records {
		counts[r.YearMonth]++
		labels[r.YearMonth] = r.YearMonthLabel
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]MonthCount, len(keys))
	for i, k := range keys {
		out[i] = MonthCount{Month: labels[k], Count: counts[k]}
	}
	return out
}
