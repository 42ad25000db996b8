package predict

import "time"

// MonthsBetween returns the calendar distance from one date to a later one as
// whole months plus leftover days. Month arithmetic clips to the end of
// shorter months, so Jan 31 -> Feb 29 (leap year) is 1 month 0 days and
// Jan 31 -> Mar 1 is 1 month 1 day. If to is before from, both values are
// negative.
func MonthsBetween(from, to time.Time) (months, days int) {
	from, to = dateOf(from), dateOf(to)
	if to.Before(from) {
		m, d := MonthsBetween(to, from)
		return -m, -d
	}
	months = (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	anchor := AddMonths(from, months)
	for anchor.After(to) {
		months--
		anchor = AddMonths(from, months)
	}
	days = int(to.Sub(anchor) / (24 * time.Hour))
	return months, days
}

// AddMonths shifts t by n calendar months, clipping the day to the length of
// the target month. Unlike time.AddDate, Jan 31 + 1 month is Feb 28/29.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	y += floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := daysIn(y, month); d > last {
		d = last
	}
	return time.Date(y, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
