package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldName lowercases and strips accents (e.g. "JOÃO Transportes" -> "joao transportes").
func FoldName(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}

var floatZeroSuffix = regexp.MustCompile(`^\d+\.0+$`)

// TaxIDDigits reduces a raw tax ID to its digits. Spreadsheet cells that held
// the ID as a number ("1.2345678000190E13", "12345678000190.0") are expanded first.
func TaxIDDigits(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.ContainsAny(s, "eE"):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			s = strconv.FormatFloat(f, 'f', 0, 64)
		}
	case floatZeroSuffix.MatchString(s):
		s = s[:strings.IndexByte(s, '.')]
	}
	return digitsOnly(s)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// NormalizePlate uppercases a plate and removes dashes and spaces.
func NormalizePlate(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

// FormatTaxID renders digits as a CNPJ (14 digits) or CPF (11 digits).
// Any other length is returned unchanged.
func FormatTaxID(digits string) string {
	switch len(digits) {
	case 14:
		return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
	case 11:
		return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
	default:
		return digits
	}
}

// Day-first layouts, tried in order.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/06",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate reads a purchase date, day first. Plain numbers are taken as
// spreadsheet serial dates. The result is a calendar date at UTC midnight.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 1 || f > 2958465 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return dateOf(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOf(t), true
		}
	}
	return time.Time{}, false
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize validates the table against the schema and converts every usable
// row into a Record. Rows without a parsable date, tax ID digits or client
// name are dropped and counted in Stats.
func Normalize(t Table, s *Schema) (*Result, error) {
	if s == nil {
		s = DefaultSchema()
	}
	if len(t.Columns) == 0 {
		return nil, sourceErr(t.Name, ErrEmptyTable)
	}
	if err := s.Check(t.Name, t.Columns); err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(t.Columns))
	for i, h := range t.Columns {
		h = strings.TrimSpace(h)
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	c := s.Columns

	res := &Result{Records: make([]Record, 0, len(t.Rows))}
	for _, row := range t.Rows {
		if blank(row) {
			continue
		}
		res.Stats.Total++
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || col == "" || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		date, ok := ParseDate(get(c.PurchaseDate))
		if !ok {
			res.Stats.DroppedDate++
			continue
		}
		taxRaw := get(c.TaxID)
		taxID := TaxIDDigits(taxRaw)
		if taxID == "" {
			res.Stats.DroppedTaxID++
			continue
		}
		name := get(c.Name)
		if name == "" {
			res.Stats.DroppedName++
			continue
		}

		plateRaw := get(c.Plate)
		r := Record{
			TaxIDRaw:       taxRaw,
			TaxID:          taxID,
			Name:           name,
			PurchaseDate:   date,
			Brand:          orUnknown(get(c.Brand)),
			Segment:        orUnknown(get(c.Segment)),
			Model:          orUnknown(get(c.Model)),
			City:           orUnknown(get(c.City)),
			Dealer:         orUnknown(get(c.Dealer)),
			PlateRaw:       orUnknown(plateRaw),
			Plate:          NormalizePlate(plateRaw),
			Address:        orUnknown(get(c.Address)),
			Phone:          orUnknown(get(c.Phone)),
			Chassis:        orUnknown(get(c.Chassis)),
			Year:           date.Year(),
			Month:          int(date.Month()),
			YearMonth:      date.Year()*100 + int(date.Month()),
			YearMonthLabel: date.Format("2006-01"),
		}
		res.Records = append(res.Records, r)
		res.Stats.Valid++
	}

	if res.Stats.Total == 0 {
		return nil, sourceErr(t.Name, ErrEmptyTable)
	}
	if res.Stats.Valid == 0 {
		return nil, sourceErr(t.Name, ErrNoValidRecords)
	}
	return res, nil
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sourceErr(source string, err error) error {
	if source == "" {
		return err
	}
	return fmt.Errorf("%s: %w", source, err)
}
