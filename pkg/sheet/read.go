// Package sheet reads registration spreadsheets into raw tables and writes the
// inactive-client report.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/hazyhaar/emplacamentos/pkg/record"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadFile opens path and reads it according to its extension.
func ReadFile(path string, format record.FormatSpec) (record.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return record.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(filepath.Base(path), f, format)
}

// Read parses r as a spreadsheet. The file name picks the parser: .xlsx and
// .xlsm go through excelize, .csv and .txt through encoding/csv.
func Read(name string, r io.Reader, format record.FormatSpec) (record.Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r, format.Sheet)
	case ".csv", ".txt":
		rows, err = readCSV(r, format)
	default:
		return record.Table{}, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return record.Table{}, fmt.Errorf("%s: %w", name, err)
	}
	return toTable(name, rows), nil
}

// toTable uses the first non-blank row as the header.
func toTable(name string, rows [][]string) record.Table {
	t := record.Table{Name: name}
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		t.Columns = make([]string, len(row))
		for j, h := range row {
			t.Columns[j] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		}
		t.Rows = rows[i+1:]
		break
	}
	return t
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets found")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader, format record.FormatSpec) ([][]string, error) {
	// Transcode non-UTF-8 encodings declared in the schema.
	if enc := format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	cr := csv.NewReader(r)
	if delim := format.Delimiter; delim != "" {
		cr.Comma = []rune(delim)[0]
	}
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func isUTF8(enc string) bool {
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "")) {
	case "utf8", "":
		return true
	}
	return false
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
