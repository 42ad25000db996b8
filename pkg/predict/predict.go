// Package predict estimates when a client will buy again and turns that
// estimate into a sales-approach classification.
package predict

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Status describes whether a prediction could be made.
type Status string

const (
	StatusPredicted           Status = "predicted"
	StatusInsufficientHistory Status = "insufficient_history"
	StatusTooClose            Status = "too_close"
)

// HalfMonthDays is the minimum same-month gap counted as a half-month interval.
// Shorter gaps are treated as duplicate entries.
const HalfMonthDays = 15

// MinIntervalMonths is the floor applied to the average interval.
const MinIntervalMonths = 1.0

// Prediction is the next-purchase estimate for one client.
type Prediction struct {
	Status            Status     `json:"status"`
	LastPurchase      *time.Time `json:"last_purchase,omitempty"`
	NextPurchase      *time.Time `json:"next_purchase,omitempty"`
	AvgIntervalMonths float64    `json:"avg_interval_months,omitempty"`
	Samples           []float64  `json:"samples,omitempty"`
	Text              string     `json:"text"`
}

// Predict projects the next purchase from a client's purchase dates. Order
// does not matter and zero dates are ignored.
//
// Each consecutive pair contributes its whole-month distance when positive,
// 0.5 when it falls in the same month but more than HalfMonthDays apart, and
// nothing otherwise. The mean of the samples, floored at MinIntervalMonths and
// rounded half to even, is added to the last purchase in calendar months.
func Predict(dates []time.Time) Prediction {
	sorted := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if !d.IsZero() {
			sorted = append(sorted, dateOf(d))
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var p Prediction
	if len(sorted) > 0 {
		last := sorted[len(sorted)-1]
		p.LastPurchase = &last
	}
	if len(sorted) < 2 {
		p.Status = StatusInsufficientHistory
		p.Text = "Previsão não disponível (histórico insuficiente)."
		return p
	}

	for i := 1; i < len(sorted); i++ {
		months, days := MonthsBetween(sorted[i-1], sorted[i])
		switch {
		case months > 0:
			p.Samples = append(p.Samples, float64(months))
		case months == 0 && days > HalfMonthDays:
			p.Samples = append(p.Samples, 0.5)
		}
	}
	if len(p.Samples) == 0 {
		p.Status = StatusTooClose
		p.Text = "Previsão não disponível (compras muito próximas ou única)."
		return p
	}

	var sum float64
	for _, s := range p.Samples {
		sum += s
	}
	avg := sum / float64(len(p.Samples))
	if avg < MinIntervalMonths {
		avg = MinIntervalMonths
	}
	next := AddMonths(*p.LastPurchase, int(math.RoundToEven(avg)))

	p.Status = StatusPredicted
	p.AvgIntervalMonths = avg
	p.NextPurchase = &next
	p.Text = fmt.Sprintf("Próxima compra provável em: %s", MonthYear(next))
	return p
}

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthYear formats a date as "Outubro de 2024".
func MonthYear(t time.Time) string {
	return fmt.Sprintf("%s de %d", monthNames[t.Month()-1], t.Year())
}
