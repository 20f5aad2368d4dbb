package services

import (
	"context"
	"errors"

	"buraq/internal/core"
)

// Recorder persists or forwards load reports.
type Recorder interface {
	RecordLoad(ctx context.Context, report core.LoadReport) error
}

// LoadLister reads back recorded load reports, newest first.
type LoadLister interface {
	RecentLoads(ctx context.Context, limit int) ([]core.LoadReport, error)
}

// MultiRecorder fans a report out to every recorder and joins their errors.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordLoad(ctx context.Context, report core.LoadReport) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordLoad(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopRecorder discards reports.
type NopRecorder struct{}

func (NopRecorder) RecordLoad(context.Context, core.LoadReport) error { return nil }
