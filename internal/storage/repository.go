package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"buraq/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores load reports for the audit trail.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// timeLayout is fixed width so started_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const insertLoadReport = `
INSERT INTO load_reports (run_id, source, started_at, duration_ms, raw_rows, invalid_amount, excluded, kept, total, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO NOTHING`

// RecordLoad stores a report. Recording the same run twice is a no-op, so
// redelivered messages are harmless.
func (r *SQLiteRepository) RecordLoad(ctx context.Context, report core.LoadReport) error {
	if report.RunID == "" {
		return fmt.Errorf("record load: empty run id")
	}
	_, err := r.db.ExecContext(ctx, insertLoadReport,
		report.RunID,
		report.Source,
		report.StartedAt.UTC().Format(timeLayout),
		report.Duration.Milliseconds(),
		report.Stats.RawRows,
		report.Stats.InvalidAmount,
		report.Stats.Excluded,
		report.Stats.Kept,
		report.Total,
		report.Error,
	)
	if err != nil {
		return fmt.Errorf("insert load report: %w", err)
	}
	slog.DebugContext(ctx, "Load report stored", "run_id", report.RunID, "source", report.Source)
	return nil
}

const selectRecentLoads = `
SELECT run_id, source, started_at, duration_ms, raw_rows, invalid_amount, excluded, kept, total, error
FROM load_reports
ORDER BY started_at DESC, id DESC
LIMIT ?`

// RecentLoads returns up to limit reports, newest first.
func (r *SQLiteRepository) RecentLoads(ctx context.Context, limit int) ([]core.LoadReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectRecentLoads, limit)
	if err != nil {
		return nil, fmt.Errorf("query load reports: %w", err)
	}
	defer rows.Close()

	var reports []core.LoadReport
	for rows.Next() {
		var (
			rep        core.LoadReport
			startedAt  string
			durationMs int64
		)
		if err := rows.Scan(&rep.RunID, &rep.Source, &startedAt, &durationMs,
			&rep.Stats.RawRows, &rep.Stats.InvalidAmount, &rep.Stats.Excluded, &rep.Stats.Kept,
			&rep.Total, &rep.Error); err != nil {
			return nil, fmt.Errorf("scan load report: %w", err)
		}
		rep.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		rep.Duration = time.Duration(durationMs) * time.Millisecond
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate load reports: %w", err)
	}
	return reports, nil
}
