package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hazyhaar/emplacamentos/pkg/analytics"
	"github.com/hazyhaar/emplacamentos/pkg/record"
)

// ReportSheet is the worksheet name of the exported inactive report.
const ReportSheet = "Clientes Inativos"

const reportDateLayout = "02/01/2006"

// ReportColumns are the header cells of the inactive report, in order.
var ReportColumns = []string{"Cliente", "CNPJ", "Cidade", "Última Compra", "Total de Compras", "Meses sem Comprar"}

func reportRow(c analytics.InactiveClient) []any {
	return []any{
		c.Name,
		c.TaxIDFormatted,
		c.City,
		c.LastPurchase.Format(reportDateLayout),
		c.TotalPurchases,
		c.MonthsInactive,
	}
}

// WriteInactiveReport writes rows as a single-sheet xlsx workbook.
func WriteInactiveReport(w io.Writer, rows []analytics.InactiveClient) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, len(ReportColumns))
	for i, c := range ReportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(ReportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, c := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := reportRow(c)
		if err := f.SetSheetRow(ReportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteInactiveCSV writes rows as CSV with the same columns as the workbook.
func WriteInactiveCSV(w io.Writer, rows []analytics.InactiveClient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportColumns); err != nil {
		return err
	}
	for _, c := range rows {
		if err := cw.Write([]string{
			c.Name,
			c.TaxIDFormatted,
			c.City,
			c.LastPurchase.Format(reportDateLayout),
			strconv.Itoa(c.TotalPurchases),
			strconv.Itoa(c.MonthsInactive),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadInactiveReport parses a workbook produced by WriteInactiveReport.
func ReadInactiveReport(r io.Reader) ([]analytics.InactiveClient, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(ReportSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", ReportSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", ReportSheet)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	out := make([]analytics.InactiveClient, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < len(ReportColumns) {
			return nil, fmt.Errorf("row %d: %d cells, want %d", i+2, len(row), len(ReportColumns))
		}
		last, err := time.Parse(reportDateLayout, row[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: last purchase: %w", i+2, err)
		}
		total, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("row %d: total purchases: %w", i+2, err)
		}
		months, err := strconv.Atoi(row[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: months inactive: %w", i+2, err)
		}
		out = append(out, analytics.InactiveClient{
			Name:           row[0],
			TaxID:          record.TaxIDDigits(row[1]),
			TaxIDFormatted: row[1],
			City:           row[2],
			LastPurchase:   last,
			TotalPurchases: total,
			MonthsInactive: months,
		})
	}
	return out, nil
}

func checkHeader(header []string) error {
	if len(header) != len(ReportColumns) {
		return fmt.Errorf("report header has %d columns, want %d", len(header), len(ReportColumns))
	}
	for i, c := range ReportColumns {
		if header[i] != c {
			return fmt.Errorf("report column %d = %q, want %q", i+1, header[i], c)
		}
	}
	return nil
}
