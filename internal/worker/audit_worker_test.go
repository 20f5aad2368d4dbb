package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"buraq/internal/amqp"
	"buraq/internal/core"
	"buraq/internal/log"
)

type fakeStore struct {
	reports []core.LoadReport
	err     error
}

func (f *fakeStore) RecordLoad(_ context.Context, r core.LoadReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, r)
	return nil
}

func message() *amqp.LoadReportMessage {
	return amqp.NewLoadReportMessage(core.LoadReport{
		RunID:     "run-7",
		Source:    "sheets:abc/تجميع مدخلات",
		StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Duration:  800 * time.Millisecond,
		Stats:     core.NormalizeStats{RawRows: 10, InvalidAmount: 2, Excluded: 1, Kept: 7},
		Total:     9100,
	})
}

func quiet() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestHandleLoadReportStores(t *testing.T) {
	store := &fakeStore{}
	w := NewAuditWorker(store, quiet())

	if err := w.HandleLoadReport(context.Background(), message()); err != nil {
		t.Fatalf("HandleLoadReport: %v", err)
	}
	if len(store.reports) != 1 {
		t.Fatalf("stored %d reports", len(store.reports))
	}
	got := store.reports[0]
	if got.RunID != "run-7" || got.Stats.InvalidAmount != 2 || got.Duration != 800*time.Millisecond || got.Total != 9100 {
		t.Errorf("stored report = %+v", got)
	}
	if stored, failed := w.Counts(); stored != 1 || failed != 0 {
		t.Errorf("counts = %d/%d", stored, failed)
	}
}

func TestHandleLoadReportFailedRun(t *testing.T) {
	store := &fakeStore{}
	w := NewAuditWorker(store, quiet())
	msg := message()
	msg.Error = "fetch worksheet: 403"

	if err := w.HandleLoadReport(context.Background(), msg); err != nil {
		t.Fatalf("HandleLoadReport: %v", err)
	}
	if !store.reports[0].Failed() {
		t.Error("failed run stored as success")
	}
}

func TestHandleLoadReportStoreError(t *testing.T) {
	storeErr := errors.New("database is locked")
	w := NewAuditWorker(&fakeStore{err: storeErr}, quiet())

	err := w.HandleLoadReport(context.Background(), message())
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if _, failed := w.Counts(); failed != 1 {
		t.Errorf("failed = %d", failed)
	}
}
