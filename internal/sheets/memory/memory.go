package memory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"buraq/internal/core"
	ports "buraq/internal/sheets"
)

// LedgerFile is the seed worksheet looked up in the data directory.
const LedgerFile = "ledger.csv"

const byteOrderMark = "\ufeff"

// Store serves a worksheet snapshot held in memory, for local development
// and tests.
type Store struct {
	mu     sync.Mutex
	table  core.RawTable
	source string
}

var (
	_ ports.TableFetcher = (*Store)(nil)
	_ ports.SourceNamer  = (*Store)(nil)
)

func New(table core.RawTable) *Store {
	return &Store{table: cloneTable(table), source: "memory"}
}

// NewFromFiles loads base/ledger.csv. A missing file falls back to a small
// built-in sample; an unreadable one is an error.
func NewFromFiles(base string) (*Store, error) {
	path := filepath.Join(base, LedgerFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Seed ledger not found, using sample data", "path", path)
		return New(SampleTable()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed ledger: %w", err)
	}
	table, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse seed ledger %s: %w", path, err)
	}
	s := New(table)
	s.source = "csv:" + path
	return s, nil
}

// FetchTable returns a copy of the stored worksheet.
func (s *Store) FetchTable(_ context.Context) (core.RawTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTable(s.table), nil
}

// Replace swaps the stored worksheet.
func (s *Store) Replace(table core.RawTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = cloneTable(table)
}

func (s *Store) SourceName() string {
	return s.source
}

// ReadCSV parses a worksheet export. Rows may have differing lengths; a
// UTF-8 byte order mark before the header is ignored.
func ReadCSV(r io.Reader) (core.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var table core.RawTable
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.RawTable{}, err
		}
		if first {
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], byteOrderMark)
			}
			table.Headers = rec
			first = false
			continue
		}
		row := make([]core.Cell, len(rec))
		for i, v := range rec {
			row[i] = core.Text(v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// SampleTable is a handful of rows in the association's layout, including
// an administrative fee row and a row with an unreadable amount.
func SampleTable() core.RawTable {
	s := core.DefaultSchema()
	headers := []string{"التاريخ", s.AmountColumn, "", s.MonthColumn, s.YearColumn, s.PrimaryColumn, s.SecondaryColumn, "ملاحظات"}
	rows := [][]string{
		{"2026-01-03", "1,500 جنيه", "", "1", "2026", "كفالة أيتام", "كفالة شهرية", ""},
		{"2026-01-10", "2,000", "", "1", "2026", "صدقة عامة", "تبرع نقدي", ""},
		{"2026-01-10", "150", "", "1", "2026", "صدقة عامة", "اداريات نسبه من التبرع", "نسبة ادارية"},
		{"2026-02-01", "750 جنيه", "", "2", "2026", "زكاة مال", "توزيع نقدي", ""},
		{"2026-02-14", "3,250", "", "2", "2026", "كفالة أيتام", "كسوة", ""},
		{"2026-02-20", "لم يحدد", "", "2", "2026", "زكاة مال", "توزيع نقدي", "مبلغ غير مقروء"},
		{"2025-12-28", "5,000 جنيه", "", "12", "2025", "إطعام", "شنط رمضان", ""},
		{"2025-12-30", "1,200", "", "12", "2025", "صدقة عامة", "تبرع نقدي"},
	}
	table := core.RawTable{Headers: headers}
	for _, r := range rows {
		cells := make([]core.Cell, len(r))
		for i, v := range r {
			cells[i] = core.Text(v)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func cloneTable(t core.RawTable) core.RawTable {
	out := core.RawTable{Headers: append([]string(nil), t.Headers...)}
	if t.Rows != nil {
		out.Rows = make([][]core.Cell, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = append([]core.Cell(nil), r...)
		}
	}
	return out
}
