package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"buraq/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "audit", "buraq.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRecordAndListLoads(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	reports := []core.LoadReport{
		{RunID: "a", Source: "memory", StartedAt: base, Duration: 120 * time.Millisecond,
			Stats: core.NormalizeStats{RawRows: 8, InvalidAmount: 1, Excluded: 1, Kept: 6}, Total: 13700},
		{RunID: "b", Source: "memory", StartedAt: base.Add(time.Minute), Error: "fetch worksheet: timeout"},
		{RunID: "c", Source: "memory", StartedAt: base.Add(2 * time.Minute), Stats: core.NormalizeStats{Kept: 2}},
	}
	for _, r := range reports {
		if err := repo.RecordLoad(ctx, r); err != nil {
			t.Fatalf("RecordLoad(%s): %v", r.RunID, err)
		}
	}
	// Redelivery of the same run is ignored.
	if err := repo.RecordLoad(ctx, reports[0]); err != nil {
		t.Fatalf("duplicate RecordLoad: %v", err)
	}

	got, err := repo.RecentLoads(ctx, 2)
	if err != nil {
		t.Fatalf("RecentLoads: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "c" || got[1].RunID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[1].Failed() || got[1].Error != "fetch worksheet: timeout" {
		t.Fatalf("failed run not preserved: %+v", got[1])
	}

	all, err := repo.RecentLoads(ctx, 0)
	if err != nil {
		t.Fatalf("RecentLoads: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}
	first := all[2]
	if first.Stats != reports[0].Stats || first.Total != 13700 || first.Duration != 120*time.Millisecond {
		t.Fatalf("round trip mismatch: %+v", first)
	}
	if !first.StartedAt.Equal(base) {
		t.Fatalf("started_at = %v, want %v", first.StartedAt, base)
	}
}

func TestRecordLoadRequiresRunID(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.RecordLoad(context.Background(), core.LoadReport{Source: "memory"}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buraq.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := repo.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
		repo.Close()
	}
}
