package analytics

import (
	"sort"
	"time"

	"github.com/hazyhaar/emplacamentos/pkg/record"
)

// InactiveMonths is the recency threshold of the inactive report.
const InactiveMonths = 12

// InactiveClient is one row of the inactive report.
type InactiveClient struct {
	Name           string    `json:"name"`
	TaxID          string    `json:"tax_id"`
	TaxIDFormatted string    `json:"tax_id_formatted"`
	City           string    `json:"city"`
	LastPurchase   time.Time `json:"last_purchase"`
	TotalPurchases int       `json:"total_purchases"`
	MonthsInactive int       `json:"months_inactive"`
}

// InactiveClients lists the clients whose last purchase falls in an earlier
// calendar year than now and more than InactiveMonths ago. Months here are
// 30-day blocks, which is coarser than the calendar arithmetic used for
// predictions. Rows are sorted by months inactive, longest first.
func InactiveClients(records []record.Record, now time.Time) []InactiveClient {
	type agg struct {
		latest record.Record
		total  int
	}
	byID := make(map[string]*agg)
	for _, r := range records {
		a, ok := byID[r.TaxID]
		if !ok {
			byID[r.TaxID] = &agg{latest: r, total: 1}
			continue
		}
		a.total++
		if r.PurchaseDate.After(a.latest.PurchaseDate) {
			a.latest = r
		}
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var out []InactiveClient
	for _, a := range byID {
		last := a.latest.PurchaseDate
		days := int(today.Sub(last) / (24 * time.Hour))
		months := days / 30
		if last.Year() >= today.Year() || months <= InactiveMonths {
			continue
		}
		out = append(out, InactiveClient{
			Name:           a.latest.Name,
			TaxID:          a.latest.TaxID,
			TaxIDFormatted: record.FormatTaxID(a.latest.TaxID),
			City:           a.latest.City,
			LastPurchase:   last,
			TotalPurchases: a.total,
			MonthsInactive: months,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthsInactive != out[j].MonthsInactive {
			return out[i].MonthsInactive > out[j].MonthsInactive
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].TaxID < out[j].TaxID
	})
	return out
}
