package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"buraq/internal/core"
)

func ledgerFixture(t *testing.T) core.Ledger {
	t.Helper()
	s := core.DefaultSchema()
	raw := core.RawTable{
		Headers: []string{"التاريخ", s.AmountColumn, s.MonthColumn, s.YearColumn, s.PrimaryColumn, s.SecondaryColumn, "ملاحظات"},
		Rows: [][]core.Cell{
			{core.Text("2026-01-03"), core.Text("1,500 جنيه"), core.Text("1"), core.Text("2026"), core.Text("كفالة أيتام"), core.Text("شهري"), core.Text("دفعة, أولى")},
			{core.Text("2026-01-09"), core.Text("250.5"), core.Text("1"), core.Text("2026"), core.Text("زكاة"), core.Text("نقدي")},
		},
	}
	l, err := core.Normalize(raw, s)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return l
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ledgerFixture(t)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\ufeff") {
		t.Fatal("missing byte order mark")
	}

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and two rows, got %d", len(records))
	}
	if records[0][0] != "التاريخ" || len(records[0]) != 7 {
		t.Fatalf("header = %q", records[0])
	}
	first := records[1]
	if first[1] != "1500" || first[2] != "1" || first[3] != "2026" {
		t.Fatalf("numeric columns should hold cleaned values: %q", first)
	}
	if first[6] != "دفعة, أولى" {
		t.Fatalf("quoted field mangled: %q", first[6])
	}
	if records[2][1] != "250.5" || records[2][6] != "" {
		t.Fatalf("second row = %q", records[2])
	}
}

func TestWriteCSVEmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	l := core.Ledger{Columns: []string{"a", "b"}}
	if err := WriteCSV(&buf, l); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "\ufeffa,b\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, ledgerFixture(t), core.DefaultSchema()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(dataSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[0][1] != core.DefaultSchema().AmountColumn {
		t.Fatalf("data rows = %q", rows)
	}
	raw, err := f.GetCellValue(dataSheet, "B2", excelize.Options{RawCellValue: true})
	if err != nil || raw != "1500" {
		t.Fatalf("amount cell = %q, %v", raw, err)
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("GetRows summary: %v", err)
	}
	if len(summary) != 4 || summary[1][0] != "كفالة أيتام" || summary[3][0] != "الإجمالي" {
		t.Fatalf("summary rows = %q", summary)
	}
}

func TestXLSXFilename(t *testing.T) {
	if got := XLSXFilename("تبرعات_الجمعية.csv"); got != "تبرعات_الجمعية.xlsx" {
		t.Fatalf("got %q", got)
	}
	if got := XLSXFilename("ledger"); got != "ledger.xlsx" {
		t.Fatalf("got %q", got)
	}
}
