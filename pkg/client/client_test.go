package client

import (
	"reflect"
	"testing"
	"time"

	"github.com/hazyhaar/emplacamentos/pkg/record"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() []record.Record {
	return []record.Record{
		{TaxID: "11222333000181", Name: "Alfa Transportes", PurchaseDate: day(2023, 5, 2), Brand: "FIAT", Model: "DUCATO", Segment: "VAN", Dealer: "D1", City: "Recife", Address: "Rua velha", Phone: "1", YearMonthLabel: "2023-05"},
		{TaxID: "99888777000166", Name: "Beta Locadora", PurchaseDate: day(2024, 1, 3), Brand: "IVECO", Model: "DAILY", Segment: "VAN", Dealer: "D2", City: "Olinda", YearMonthLabel: "2024-01"},
		{TaxID: "11222333000181", Name: "Alfa Transportes", PurchaseDate: day(2024, 2, 10), Brand: "IVECO", Model: "DAILY", Segment: "VAN", Dealer: record.Unknown, City: "Jaboatão", Address: "Rua nova", Phone: "2", YearMonthLabel: "2024-02"},
		{TaxID: "11222333000181", Name: "Alfa Transportes", PurchaseDate: day(2023, 5, 20), Brand: "FIAT", Model: "DAILY", Segment: "VAN", Dealer: record.Unknown, City: "Recife", YearMonthLabel: "2023-05"},
	}
}

func TestIndex_NoLeakAcrossTaxIDs(t *testing.T) {
	idx := NewIndex(fixture())
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}
	for _, id := range []string{"11222333000181", "99888777000166"} {
		p, ok := idx.Profile(id)
		if !ok {
			t.Fatalf("Profile(%s) not found", id)
		}
		for _, r := range p.Records {
			if r.TaxID != id {
				t.Errorf("profile %s contains record of %s", id, r.TaxID)
			}
		}
	}
	if _, ok := idx.Profile("00000000000000"); ok {
		t.Error("unknown tax ID should not resolve")
	}
}

func TestProfile_Ordering(t *testing.T) {
	p, _ := NewIndex(fixture()).Profile("11222333000181")

	if p.Total != 3 {
		t.Fatalf("Total = %d, want 3", p.Total)
	}
	if !p.Records[0].PurchaseDate.Equal(day(2024, 2, 10)) || !p.Records[2].PurchaseDate.Equal(day(2023, 5, 2)) {
		t.Errorf("records not newest first: %v, %v", p.Records[0].PurchaseDate, p.Records[2].PurchaseDate)
	}
	want := []time.Time{day(2023, 5, 2), day(2023, 5, 20), day(2024, 2, 10)}
	if !reflect.DeepEqual(p.Dates, want) {
		t.Errorf("Dates = %v, want %v", p.Dates, want)
	}
	if p.Address != "Rua nova" || p.Phone != "2" || p.City != "Jaboatão" {
		t.Errorf("contact not taken from latest record: %q %q %q", p.Address, p.Phone, p.City)
	}
	if p.TaxIDFormatted != "11.222.333/0001-81" || !p.TaxIDValid {
		t.Errorf("tax id = %q valid %v", p.TaxIDFormatted, p.TaxIDValid)
	}
	if !p.LastPurchase().Equal(day(2024, 2, 10)) {
		t.Errorf("LastPurchase = %v", p.LastPurchase())
	}
}

func TestModes(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{"ties kept and sorted", []string{"B", "A", "C", "A", "B", "B", "A"}, []string{"A", "B"}},
		{"single winner", []string{"X", "Y", "X"}, []string{"X"}},
		{"unknown ignored", []string{record.Unknown, record.Unknown, "Z", ""}, []string{"Z"}},
		{"nothing left", []string{record.Unknown, ""}, nil},
	}
	for _, tt := range tests {
		if got := Modes(tt.values); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: Modes = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPreferences(t *testing.T) {
	p, _ := NewIndex(fixture()).Profile("11222333000181")
	prefs := p.Preferences()

	if !reflect.DeepEqual(prefs.Brands, []string{"FIAT"}) {
		t.Errorf("Brands = %v", prefs.Brands)
	}
	if !reflect.DeepEqual(prefs.Models, []string{"DAILY"}) {
		t.Errorf("Models = %v", prefs.Models)
	}
	if !reflect.DeepEqual(prefs.Dealers, []string{"D1"}) {
		t.Errorf("Dealers = %v", prefs.Dealers)
	}
	if FormatList(prefs.Brands) != "FIAT" || FormatList(nil) != record.Unknown {
		t.Errorf("FormatList mismatch")
	}
	if FormatList([]string{"A", "B"}) != "A, B" {
		t.Errorf("FormatList join = %q", FormatList([]string{"A", "B"}))
	}
}

func TestMonthlyHistory(t *testing.T) {
	p, _ := NewIndex(fixture()).Profile("11222333000181")
	got := p.MonthlyHistory()
	want := []MonthCount{{"2023-05", 2}, {"2024-02", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MonthlyHistory = %v, want %v", got, want)
	}
}
