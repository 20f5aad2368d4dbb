package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"buraq/internal/cache"
	"buraq/internal/core"
	"buraq/internal/log"
	"buraq/internal/sheets"
)

const (
	ledgerKey          = "ledger"
	readyKey           = "ready"
	recordTimeout      = 5 * time.Second
	defaultTimeout     = 30 * time.Second
	defaultReadyWindow = time.Minute
)

// LedgerService loads the worksheet and derives dashboard views from it.
// Concurrent loads share one fetch; with a positive cache TTL the last
// ledger is reused until it expires.
type LedgerService struct {
	fetcher  sheets.TableFetcher
	schema   core.Schema
	source   string
	group    singleflight.Group
	cache    *cache.LRUCache[core.Ledger]
	recorder Recorder
	timeout  time.Duration
	logger   *log.Logger
	newRunID func() string
	now      func() time.Time

	// readyWindow is how long a successful load keeps Ready from fetching.
	readyWindow time.Duration
	lastLoaded  atomic.Int64
}

type Option func(*LedgerService)

// WithCacheTTL keeps the normalized ledger for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *LedgerService) {
		if ttl > 0 {
			s.cache = cache.NewLRUCache[core.Ledger](1, ttl)
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *LedgerService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithFetchTimeout bounds each worksheet fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *LedgerService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithReadyWindow sets how long a successful load answers Ready without a
// new fetch.
func WithReadyWindow(d time.Duration) Option {
	return func(s *LedgerService) {
		if d > 0 {
			s.readyWindow = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func NewLedgerService(fetcher sheets.TableFetcher, schema core.Schema, opts ...Option) *LedgerService {
	s := &LedgerService{
		fetcher:     fetcher,
		schema:      schema,
		source:      sheets.Describe(fetcher),
		recorder:    NopRecorder{},
		timeout:     defaultTimeout,
		readyWindow: defaultReadyWindow,
		logger:      log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) Schema() core.Schema { return s.schema }

func (s *LedgerService) Source() string { return s.source }

// Load returns the normalized ledger. The caller's context bounds how long
// it waits; the shared fetch itself is bounded by the fetch timeout so one
// cancelled request cannot fail the others waiting on it.
func (s *LedgerService) Load(ctx context.Context) (core.Ledger, error) {
	if s.cache != nil {
		if l, ok := s.cache.Get(ledgerKey); ok {
			s.logger.WithComponent(log.ComponentCache).DebugContext(ctx, "Ledger served from cache", log.FieldKept, l.Len())
			return l, nil
		}
	}

	ch := s.group.DoChan(ledgerKey, func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return core.Ledger{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.Ledger{}, res.Err
		}
		return res.Val.(core.Ledger), nil
	}
}

func (s *LedgerService) load(ctx context.Context) (core.Ledger, error) {
	report := core.LoadReport{
		RunID:     s.newRunID(),
		Source:    s.source,
		StartedAt: s.now(),
	}
	logger := s.logger.With(log.FieldRunID, report.RunID)

	ledger, err := s.fetchAndNormalize(ctx)
	report.Duration = s.now().Sub(report.StartedAt)
	if err != nil {
		report.Error = err.Error()
		logger.ErrorContext(ctx, "Ledger load failed", log.FieldSource, s.source, log.FieldError, err)
		s.record(ctx, logger, report)
		return core.Ledger{}, err
	}

	report.Stats = ledger.Stats
	report.Total = core.Summarize(ledger).Total
	fields := log.NewFields().WithLoad(report.RunID, s.source, ledger.Stats.RawRows, ledger.Stats.Kept, ledger.Stats.InvalidAmount, ledger.Stats.Excluded)
	if ledger.Stats.InvalidAmount > 0 {
		logger.WarnContext(ctx, "Rows dropped for unreadable amounts", fields.ToSlice()...)
	}
	logger.InfoContext(ctx, "Ledger loaded", fields.ToSlice()...)

	s.record(ctx, logger, report)
	s.lastLoaded.Store(s.now().UnixNano())
	if s.cache != nil {
		s.cache.Set(ledgerKey, ledger)
	}
	return ledger, nil
}

func (s *LedgerService) fetchAndNormalize(ctx context.Context) (core.Ledger, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.fetcher.FetchTable(fetchCtx)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("fetch worksheet: %w", err)
	}
	ledger, err := core.Normalize(raw, s.schema)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("normalize worksheet: %w", err)
	}
	return ledger, nil
}

// record never fails the load; audit problems are only logged.
func (s *LedgerService) record(ctx context.Context, logger *log.Logger, report core.LoadReport) {
	rctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	if err := s.recorder.RecordLoad(rctx, report); err != nil {
		logger.WithComponent(log.ComponentAudit).WarnContext(ctx, "Failed to record load report", log.FieldError, err)
	}
}

// Dashboard is everything one render of the dashboard needs.
type Dashboard struct {
	Selection core.Selection
	Options   core.Options
	Dimension core.Dimension
	Filtered  core.Ledger
	Summary   core.Summary
	Chart     []core.CategoryAmount
	Stats     core.NormalizeStats
}

// Dashboard loads the ledger, reconciles sel against it and computes the
// metrics, chart and detail rows for the selection.
func (s *LedgerService) Dashboard(ctx context.Context, sel core.Selection, dim core.Dimension) (Dashboard, error) {
	ledger, err := s.Load(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	sel, opts := sel.Reconcile(ledger)
	filtered := core.Filter(ledger, sel)
	return Dashboard{
		Selection: sel,
		Options:   opts,
		Dimension: dim,
		Filtered:  filtered,
		Summary:   core.Summarize(filtered),
		Chart:     core.GroupBy(filtered, dim),
		Stats:     ledger.Stats,
	}, nil
}

// Filtered returns the rows matching sel after reconciliation.
func (s *LedgerService) Filtered(ctx context.Context, sel core.Selection) (core.Ledger, error) {
	ledger, err := s.Load(ctx)
	if err != nil {
		return core.Ledger{}, err
	}
	sel, _ = sel.Reconcile(ledger)
	return core.Filter(ledger, sel), nil
}

// SecondaryOptions lists the secondary activities available under primary.
func (s *LedgerService) SecondaryOptions(ctx context.Context, primary core.Choice) ([]string, error) {
	ledger, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return core.SecondaryCandidates(ledger, primary), nil
}

// Ready reports whether the ledger can currently be loaded. A load that
// succeeded within the ready window answers without touching the worksheet;
// otherwise the worksheet is fetched and normalized but no load report is
// recorded, so frequent probes leave no trace in the audit trail.
func (s *LedgerService) Ready(ctx context.Context) error {
	if last := s.lastLoaded.Load(); last != 0 && s.now().Sub(time.Unix(0, last)) < s.readyWindow {
		return nil
	}
	ch := s.group.DoChan(readyKey, func() (any, error) {
		_, err := s.fetchAndNormalize(context.WithoutCancel(ctx))
		if err == nil {
			s.lastLoaded.Store(s.now().UnixNano())
		}
		return nil, err
	})
	var err error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		err = res.Err
	}
	if errors.Is(err, core.ErrMissingColumn) {
		return fmt.Errorf("worksheet layout changed: %w", err)
	}
	return err
}
