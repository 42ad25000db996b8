package analytics

import (
	"reflect"
	"testing"
	"time"

	"github.com/hazyhaar/emplacamentos/pkg/record"
)

func rec(taxID, name, brand, segment, city string, d time.Time) record.Record {
	return record.Record{
		TaxID: taxID, Name: name, Brand: brand, Segment: segment, City: city,
		PurchaseDate: d, Year: d.Year(), Month: int(d.Month()),
		YearMonth: d.Year()*100 + int(d.Month()), YearMonthLabel: d.Format("2006-01"),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() []record.Record {
	return []record.Record{
		rec("1", "Alfa", "FIAT", "VAN", "Recife", day(2022, 3, 1)),
		rec("1", "Alfa", "FIAT", "VAN", "Recife", day(2023, 3, 1)),
		rec("2", "Beta", "IVECO", "VAN", "Olinda", day(2023, 7, 9)),
		rec("3", "Gama", "FIAT", "MICRO", "Recife", day(2024, 1, 2)),
		rec("3", "Gama", "RENAULT", "VAN", "Paulista", day(2024, 1, 20)),
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixture())
	want := Summary{Registrations: 5, Clients: 3, FirstYear: 2022, LastYear: 2024}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
	if (Summarize(nil) != Summary{}) {
		t.Error("empty summary should be zero")
	}
}

func TestCountByYear(t *testing.T) {
	got := CountByYear(fixture())
	want := []YearCount{{2022, 1}, {2023, 2}, {2024, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CountByYear = %v, want %v", got, want)
	}
}

func TestCountByBrand(t *testing.T) {
	got := CountByBrand(fixture())
	if len(got) != 3 {
		t.Fatalf("brands = %d, want 3", len(got))
	}
	if got[0].Value != "FIAT" || got[0].Count != 3 || got[0].Share != 0.6 {
		t.Errorf("top brand = %+v", got[0])
	}
	if got[1].Value != "IVECO" || got[2].Value != "RENAULT" {
		t.Errorf("ties not sorted by name: %v", got)
	}
}

func TestTopCities(t *testing.T) {
	got := TopCities(fixture(), 2)
	if len(got) != 2 || got[0].Value != "Recife" || got[0].Count != 3 || got[1].Value != "Olinda" {
		t.Errorf("TopCities = %v", got)
	}
	if len(TopCities(fixture(), 0)) != 3 {
		t.Error("n <= 0 should return every city")
	}
}

func TestCountBySegment(t *testing.T) {
	got := CountBySegment(fixture())
	if got[0].Value != "VAN" || got[0].Count != 4 || got[1].Value != "MICRO" {
		t.Errorf("CountBySegment = %v", got)
	}
}

func TestBrandByYear(t *testing.T) {
	p := BrandByYear(fixture())
	if !reflect.DeepEqual(p.Years, []int{2022, 2023, 2024}) {
		t.Errorf("Years = %v", p.Years)
	}
	if p.Rows[0].Brand != "FIAT" || p.Rows[0].Total != 3 {
		t.Errorf("first row = %+v", p.Rows[0])
	}
	if p.Rows[0].ByYear[2022] != 1 || p.Rows[0].ByYear[2023] != 1 || p.Rows[0].ByYear[2024] != 1 {
		t.Errorf("FIAT by year = %v", p.Rows[0].ByYear)
	}
	for i := 1; i < len(p.Rows); i++ {
		if p.Rows[i].Total > p.Rows[i-1].Total {
			t.Errorf("rows not sorted by total: %v", p.Rows)
		}
	}
}

func TestMonthlyTrend(t *testing.T) {
	got := MonthlyTrend(fixture())
	want := []MonthCount{{"2022-03", 1}, {"2023-03", 1}, {"2023-07", 1}, {"2024-01", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MonthlyTrend = %v, want %v", got, want)
	}
}

func TestInactiveClients(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	got := InactiveClients(fixture(), now)

	// Alfa: last 2023-03-01, 712 days -> 23 months.
	// Beta: last 2023-07-09, 582 days -> 19 months.
	// Gama: last 2024-01-20, 387 days -> 12 months, not above the threshold.
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2: %+v", len(got), got)
	}
	if got[0].Name != "Alfa" || got[0].MonthsInactive != 23 || got[0].TotalPurchases != 2 {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].Name != "Beta" || got[1].MonthsInactive != 19 || got[1].City != "Olinda" {
		t.Errorf("second row = %+v", got[1])
	}
	if !got[0].LastPurchase.Equal(day(2023, 3, 1)) {
		t.Errorf("LastPurchase = %v", got[0].LastPurchase)
	}
}

func TestInactiveClients_PriorYearButRecent(t *testing.T) {
	records := []record.Record{
		rec("9", "Delta", "FIAT", "VAN", "Recife", day(2024, 6, 1)),
		rec("8", "Epsilon", "FIAT", "VAN", "Recife", day(2025, 1, 5)),
	}
	if got := InactiveClients(records, day(2025, 2, 10)); len(got) != 0 {
		t.Errorf("recent clients listed: %+v", got)
	}
}
