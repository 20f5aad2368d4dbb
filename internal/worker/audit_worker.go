package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"buraq/internal/amqp"
	"buraq/internal/log"
	"buraq/internal/services"
)

// AuditWorker stores load reports published by dashboard instances.
type AuditWorker struct {
	store  services.Recorder
	logger *log.Logger

	stored atomic.Int64
	failed atomic.Int64
}

func NewAuditWorker(store services.Recorder, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuditWorker{store: store, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleLoadReport persists one message. A returned error makes the
// consumer requeue it; storing the same run twice is harmless.
func (w *AuditWorker) HandleLoadReport(ctx context.Context, msg *amqp.LoadReportMessage) error {
	report := msg.Report()
	if err := w.store.RecordLoad(ctx, report); err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Failed to store load report", log.FieldRunID, report.RunID, log.FieldOperation, log.OpRecord, log.FieldError, err)
		return fmt.Errorf("store load report %s: %w", report.RunID, err)
	}
	w.stored.Add(1)

	fields := log.NewFields().WithLoad(report.RunID, report.Source, report.Stats.RawRows, report.Stats.Kept, report.Stats.InvalidAmount, report.Stats.Excluded)
	if report.Failed() {
		w.logger.WarnContext(ctx, "Stored failed load report", append(fields.ToSlice(), log.FieldError, report.Error)...)
		return nil
	}
	w.logger.InfoContext(ctx, "Stored load report", fields.ToSlice()...)
	return nil
}

// Counts returns how many reports were stored and how many failed.
func (w *AuditWorker) Counts() (stored, failed int64) {
	return w.stored.Load(), w.failed.Load()
}
