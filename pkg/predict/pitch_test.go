package predict

import (
	"strings"
	"testing"
	"time"
)

func ptr(t time.Time) *time.Time { return &t }

func TestClassify_WithPrediction(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	last := day(2025, 1, 15)
	tests := []struct {
		name string
		next time.Time
		want Class
	}{
		{"8 days past", day(2025, 6, 7), ClassUrgent},
		{"7 days past", day(2025, 6, 8), ClassHot},
		{"6 days past", day(2025, 6, 9), ClassHot},
		{"today", day(2025, 6, 15), ClassHot},
		{"one month ahead", day(2025, 7, 15), ClassHot},
		{"just over a month", day(2025, 7, 16), ClassPlanAhead},
		{"three months ahead", day(2025, 9, 15), ClassPlanAhead},
		{"beyond three months", day(2025, 9, 16), ClassKeepWarm},
	}
	for _, tt := range tests {
		if got := Classify(last, ptr(tt.next), 2, now); got != tt.want {
			t.Errorf("%s: Classify = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestClassify_WithoutPrediction(t *testing.T) {
	now := day(2025, 6, 15)
	tests := []struct {
		name  string
		last  time.Time
		total int
		want  Class
	}{
		{"18 months", day(2023, 12, 15), 1, ClassDormant},
		{"17 months", day(2023, 12, 16), 1, ClassCheckIn},
		{"12 months", day(2024, 6, 15), 9, ClassCheckIn},
		{"6 months", day(2024, 12, 15), 9, ClassFollowUp},
		{"recent loyal", day(2025, 1, 16), 4, ClassLoyal},
		{"recent few purchases", day(2025, 1, 16), 3, ClassRecent},
		{"no history", time.Time{}, 0, ClassNoHistory},
	}
	for _, tt := range tests {
		if got := Classify(tt.last, nil, tt.total, now); got != tt.want {
			t.Errorf("%s: Classify = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestNewPitch_Messages(t *testing.T) {
	now := day(2025, 6, 15)

	p := NewPitch(day(2025, 3, 1), ptr(day(2025, 7, 1)), 3, now)
	if p.Class != ClassHot || !strings.Contains(p.Message, "Julho de 2025") || !strings.Contains(p.Message, "01/03/2025") {
		t.Errorf("hot pitch = %+v", p)
	}

	p = NewPitch(day(2023, 6, 1), nil, 1, now)
	if p.Class != ClassDormant || !strings.Contains(p.Message, "24 meses") {
		t.Errorf("dormant pitch = %+v", p)
	}

	p = NewPitch(day(2025, 5, 1), nil, 5, now)
	if p.Class != ClassLoyal || !strings.Contains(p.Message, "5 compras") {
		t.Errorf("loyal pitch = %+v", p)
	}

	p = NewPitch(time.Time{}, nil, 0, now)
	if p.Class != ClassNoHistory || !strings.Contains(p.Message, "Sem histórico") {
		t.Errorf("no-history pitch = %+v", p)
	}
}
