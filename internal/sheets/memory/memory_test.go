package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"buraq/internal/core"
)

func TestStoreFetchReturnsCopy(t *testing.T) {
	s := New(core.RawTable{
		Headers: []string{"A"},
		Rows:    [][]core.Cell{{core.Text("1")}},
	})
	first, err := s.FetchTable(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	first.Rows[0][0] = core.Text("changed")
	first.Headers[0] = "changed"

	second, _ := s.FetchTable(context.Background())
	if second.Rows[0][0].Value != "1" || second.Headers[0] != "A" {
		t.Fatalf("store mutated through fetched table: %+v", second)
	}

	s.Replace(core.RawTable{Headers: []string{"B"}})
	third, _ := s.FetchTable(context.Background())
	if third.Headers[0] != "B" || len(third.Rows) != 0 {
		t.Fatalf("replace: %+v", third)
	}
}

func TestNewFromFilesFallsBackToSample(t *testing.T) {
	s, err := NewFromFiles(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	raw, _ := s.FetchTable(context.Background())
	l, err := core.Normalize(raw, core.DefaultSchema())
	if err != nil {
		t.Fatalf("sample does not normalize: %v", err)
	}
	if l.Stats.Excluded != 1 || l.Stats.InvalidAmount != 1 {
		t.Fatalf("sample should exercise exclusion and invalid amounts: %+v", l.Stats)
	}
	if s.SourceName() != "memory" {
		t.Fatalf("source: %q", s.SourceName())
	}
}

func TestNewFromFilesReadsCSV(t *testing.T) {
	dir := t.TempDir()
	content := "\ufeffالتبرع قبل خصم المصاريف الادارية,الشهر,السنة,النشاط الأساسي,النشاط الفرعي\n" +
		"\"1,000 جنيه\",3,2026,زكاة,نقدي\n" +
		"500,3\n"
	if err := os.WriteFile(filepath.Join(dir, LedgerFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !strings.HasPrefix(s.SourceName(), "csv:") {
		t.Fatalf("source: %q", s.SourceName())
	}
	raw, _ := s.FetchTable(context.Background())
	if raw.Headers[0] != "التبرع قبل خصم المصاريف الادارية" {
		t.Fatalf("BOM not stripped: %q", raw.Headers[0])
	}
	if len(raw.Rows) != 2 || len(raw.Rows[1]) != 2 {
		t.Fatalf("rows: %+v", raw.Rows)
	}
	l, err := core.Normalize(raw, core.DefaultSchema())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if l.Len() != 2 || l.Records[0].Amount != 1000 {
		t.Fatalf("ledger: %+v", l.Records)
	}
}

func TestNewFromFilesUnreadable(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, LedgerFile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatal("expected read error")
	}
}
