// Package http serves the donations dashboard, its htmx partials, the JSON
// API and the ledger exports.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"buraq/internal/core"
	"buraq/internal/log"
	"buraq/internal/middleware/ratelimit"
	"buraq/internal/middleware/security"
	"buraq/internal/middleware/trace"
	"buraq/internal/services"
	appweb "buraq/web"
)

// Dashboards is what the handlers need from the ledger service.
type Dashboards interface {
	Dashboard(ctx context.Context, sel core.Selection, dim core.Dimension) (services.Dashboard, error)
	Filtered(ctx context.Context, sel core.Selection) (core.Ledger, error)
	SecondaryOptions(ctx context.Context, primary core.Choice) ([]string, error)
	Ready(ctx context.Context) error
	Schema() core.Schema
}

type Options struct {
	Addr   string
	Ledger Dashboards
	// Loads serves /api/loads; nil answers 503.
	Loads          services.LoadLister
	ExportFilename string
	Logger         *log.Logger
	RateLimit      ratelimit.Config
}

const (
	pageTitle      = "Association donations"
	readyTimeout   = 10 * time.Second
	staticMaxAge   = 3600
	defaultCSVName = "تبرعات_الجمعية.csv"
)

type Server struct {
	http.Server
	templates  *template.Template
	ledger     Dashboards
	loads      services.LoadLister
	exportName string
	logger     *log.Logger
	detector   *security.Detector
	limiter    *ratelimit.Limiter
	trace      *trace.Middleware
	started    time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Ledger == nil {
		return nil, errors.New("http: ledger service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	tmpl, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	exportName := opts.ExportFilename
	if exportName == "" {
		exportName = defaultCSVName
	}

	detector := security.NewDetector()
	s := &Server{
		templates:  tmpl,
		ledger:     opts.Ledger,
		loads:      opts.Loads,
		exportName: exportName,
		logger:     logger,
		detector:   detector,
		limiter:    ratelimit.NewLimiter(opts.RateLimit),
		trace:      trace.NewMiddleware(logger, detector.ClientIP),
		started:    time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux, static)

	var handler http.Handler = mux
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.trace.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, static fs.FS) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("GET /ui/secondary-options", s.handleSecondaryOptions)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("GET /api/loads", s.handleLoads)

	limited := s.limiter.Middleware(s.detector.ClientIP)
	mux.Handle("GET /export.csv", limited(http.HandlerFunc(s.handleExportCSV)))
	mux.Handle("GET /export.xlsx", limited(http.HandlerFunc(s.handleExportXLSX)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	files := http.StripPrefix("/static/", http.FileServerFS(static))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(files))
}

// Metrics reports request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.Metrics()
}

// Shutdown stops the rate limiter janitor and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
