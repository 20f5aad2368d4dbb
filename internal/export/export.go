// Package export renders a filtered ledger as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"buraq/internal/core"
)

const (
	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	byteOrderMark = "\ufeff"
	dataSheet     = "تبرعات"
	summarySheet  = "ملخص"
)

// WriteCSV writes the ledger's retained columns with a header row and no
// index column. The output starts with a UTF-8 byte order mark so
// spreadsheet tools detect the encoding of the Arabic text.
func WriteCSV(w io.Writer, l core.Ledger) error {
	if _, err := io.WriteString(w, byteOrderMark); err != nil {
		return fmt.Errorf("write byte order mark: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(l.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(l.Columns))
	for _, d := range l.Records {
		for i := range record {
			record[i] = ""
			if i < len(d.Values) && d.Values[i].Valid {
				record[i] = d.Values[i].Value
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSXFilename derives the workbook name from the configured CSV name.
func XLSXFilename(csvName string) string {
	base := strings.TrimSuffix(csvName, ".csv")
	return base + ".xlsx"
}

// WriteXLSX writes a right-to-left workbook with the filtered rows on one
// sheet and per-primary-activity totals on another. Amount, month and year
// are stored as numbers.
func WriteXLSX(w io.Writer, l core.Ledger, schema core.Schema) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F6F50"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	if err := writeRows(f, l, schema, headerStyle, amountStyle); err != nil {
		return err
	}
	if err := writeSummary(f, l, schema, headerStyle, amountStyle); err != nil {
		return err
	}

	rtl := true
	for _, sheet := range []string{dataSheet, summarySheet} {
		if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
			return fmt.Errorf("sheet view: %w", err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, l core.Ledger, schema core.Schema, headerStyle, amountStyle int) error {
	header := make([]any, len(l.Columns))
	numeric := make(map[int]bool)
	amountCol := -1
	for i, c := range l.Columns {
		header[i] = c
		switch c {
		case schema.AmountColumn:
			amountCol = i
			numeric[i] = true
		case schema.MonthColumn, schema.YearColumn:
			numeric[i] = true
		}
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(l.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(l.Columns), 1)
		if err := f.SetCellStyle(dataSheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for r, d := range l.Records {
		row := make([]any, len(l.Columns))
		for i := range l.Columns {
			if i >= len(d.Values) || !d.Values[i].Valid {
				row[i] = nil
				continue
			}
			v := d.Values[i].Value
			if numeric[i] {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					row[i] = n
					continue
				}
			}
			row[i] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if amountCol >= 0 && len(l.Records) > 0 {
		top, _ := excelize.CoordinatesToCellName(amountCol+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(amountCol+1, len(l.Records)+1)
		if err := f.SetCellStyle(dataSheet, top, bottom, amountStyle); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}
	return f.SetPanes(dataSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, l core.Ledger, schema core.Schema, headerStyle, amountStyle int) error {
	header := []any{schema.PrimaryColumn, "عدد التبرعات", "إجمالي التبرعات"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, "A1", "C1", headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}

	groups := core.GroupBy(l, core.DimensionPrimary)
	for i, g := range groups {
		row := []any{g.Name, g.Count, g.Total}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	sum := core.Summarize(l)
	totalRow := len(groups) + 2
	total := []any{"الإجمالي", sum.Count, sum.Total}
	if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", totalRow), &total); err != nil {
		return fmt.Errorf("write summary total: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, "C2", fmt.Sprintf("C%d", totalRow), amountStyle); err != nil {
		return fmt.Errorf("style summary amounts: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "C", 22)
}
