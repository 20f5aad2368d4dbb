package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"buraq/internal/core"
	"buraq/internal/log"
	"buraq/internal/middleware/ratelimit"
	"buraq/internal/services"
	"buraq/internal/sheets/memory"
)

type failingFetcher struct{ err error }

func (f failingFetcher) FetchTable(context.Context) (core.RawTable, error) {
	return core.RawTable{}, f.err
}

type fakeLoads struct {
	reports []core.LoadReport
	err     error
	limit   int
}

func (f *fakeLoads) RecentLoads(_ context.Context, limit int) ([]core.LoadReport, error) {
	f.limit = limit
	return f.reports, f.err
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Ledger == nil {
		opts.Ledger = services.NewLedgerService(memory.New(memory.SampleTable()), core.DefaultSchema(),
			services.WithLogger(quietLogger()))
	}
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	srv, err := NewServer(opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func failingServer(t *testing.T, err error) *Server {
	t.Helper()
	ledger := services.NewLedgerService(failingFetcher{err: err}, core.DefaultSchema(),
		services.WithLogger(quietLogger()))
	return newTestServer(t, Options{Ledger: ledger})
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func query(kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q.Encode()
}

func TestIndexRendersDashboard(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := get(t, srv, "/")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		LabelTotal, LabelCount, LabelAverage,
		"13,700 جنيه", "2,283 جنيه", AllLabel,
		"by secondary activity", "1 rows dropped", "1 administrative fee rows excluded",
		`href="/export.csv"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id not set")
	}
}

func TestDashboardPartialFilters(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := get(t, srv, "/ui/dashboard?"+query("year", "2026", "primary", "كفالة أيتام"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("partial rendered the full page")
	}
	for _, want := range []string{"4,750 جنيه", "2,375 جنيه", "كسوة", "year=2026"} {
		if !strings.Contains(body, want) {
			t.Errorf("partial missing %q", want)
		}
	}
	if strings.Contains(body, "شنط رمضان") {
		t.Error("row outside the selection rendered")
	}
}

func TestDashboardEmptySelection(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := get(t, srv, "/ui/dashboard?"+query("year", "2025", "month", "1"))

	body := rr.Body.String()
	for _, want := range []string{"0 جنيه", core.NoData, "No donations match"} {
		if !strings.Contains(body, want) {
			t.Errorf("empty view missing %q", want)
		}
	}
}

func TestSecondaryOptions(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(t, srv, "/ui/secondary-options?"+query("primary", "كفالة أيتام", "secondary", "كسوة"))
	body := rr.Body.String()
	if !strings.Contains(body, "كفالة شهرية") || !strings.Contains(body, `value="كسوة" selected`) {
		t.Fatalf("unexpected options: %s", body)
	}
	if strings.Contains(body, "تبرع نقدي") {
		t.Error("secondary from another primary offered")
	}

	rr = get(t, srv, "/ui/secondary-options?"+query("primary", "كفالة أيتام", "secondary", "تبرع نقدي"))
	if !strings.Contains(rr.Body.String(), `<option value="" selected>`) {
		t.Errorf("stale secondary not reset: %s", rr.Body.String())
	}
}

func TestSummaryAPI(t *testing.T) {
	srv := newTestServer(t, Options{})

	var got summaryJSON
	decode(t, get(t, srv, "/api/summary"), &got)
	if got.Total != 13700 || got.Count != 6 {
		t.Fatalf("total=%v count=%d", got.Total, got.Count)
	}
	if got.Average == nil || math.Abs(*got.Average-13700.0/6) > 1e-9 {
		t.Fatalf("average = %v", got.Average)
	}
	if got.Stats != (statsJSON{RawRows: 8, InvalidAmount: 1, Excluded: 1, Kept: 6}) {
		t.Errorf("stats = %+v", got.Stats)
	}

	var empty summaryJSON
	decode(t, get(t, srv, "/api/summary?"+query("year", "2025", "month", "2")), &empty)
	if empty.Count != 0 || empty.Average != nil || empty.Display.Average != core.NoData {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestSummaryAPIReconcilesUnknownValues(t *testing.T) {
	srv := newTestServer(t, Options{})

	var got summaryJSON
	decode(t, get(t, srv, "/api/summary?"+query("year", "1999", "primary", "غير موجود")), &got)
	if got.Selection.Year != nil || got.Selection.Primary != nil {
		t.Errorf("stale selection kept: %+v", got.Selection)
	}
	if got.Count != 6 {
		t.Errorf("count = %d", got.Count)
	}
}

func TestChartAPI(t *testing.T) {
	srv := newTestServer(t, Options{})

	var got chartJSON
	decode(t, get(t, srv, "/api/chart?dimension=primary"), &got)
	want := []barJSON{
		{Name: "كفالة أيتام", Total: 4750, Count: 2},
		{Name: "صدقة عامة", Total: 3200, Count: 2},
		{Name: "زكاة مال", Total: 750, Count: 1},
		{Name: "إطعام", Total: 5000, Count: 1},
	}
	if got.Dimension != "primary" || len(got.Bars) != len(want) {
		t.Fatalf("chart = %+v", got)
	}
	for i := range want {
		if got.Bars[i] != want[i] {
			t.Errorf("bar %d = %+v, want %+v", i, got.Bars[i], want[i])
		}
	}

	decode(t, get(t, srv, "/api/chart"), &got)
	if got.Dimension != "secondary" {
		t.Errorf("default dimension = %q", got.Dimension)
	}
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t, Options{ExportFilename: "تبرعات_الجمعية.csv"})
	rr := get(t, srv, "/export.csv?year=2026")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rr.Body.Bytes()
	if !bytes.HasPrefix(body, []byte("\xef\xbb\xbf")) {
		t.Fatal("missing UTF-8 BOM")
	}
	records, err := csv.NewReader(bytes.NewReader(body[3:])).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("rows = %d, want header plus 4", len(records))
	}
	if records[0][1] != core.DefaultSchema().AmountColumn {
		t.Errorf("header = %v", records[0])
	}
}

func TestExportXLSX(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := get(t, srv, "/export.xlsx")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
}

func TestExportRateLimited(t *testing.T) {
	srv := newTestServer(t, Options{RateLimit: ratelimit.Config{Requests: 1, Window: time.Minute}})

	if rr := get(t, srv, "/export.csv"); rr.Code != http.StatusOK {
		t.Fatalf("first export status = %d", rr.Code)
	}
	rr := get(t, srv, "/export.csv")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("second export status = %d", rr.Code)
	}
	if rr := get(t, srv, "/api/summary"); rr.Code != http.StatusOK {
		t.Errorf("summary limited too: %d", rr.Code)
	}
}

func TestLoadFailure(t *testing.T) {
	srv := failingServer(t, errors.New("sheets: 403 forbidden"))

	for _, target := range []string{"/", "/ui/dashboard", "/ui/secondary-options", "/api/summary", "/api/chart", "/export.csv"} {
		if rr := get(t, srv, target); rr.Code != http.StatusBadGateway {
			t.Errorf("%s status = %d, want 502", target, rr.Code)
		}
	}

	rr := get(t, srv, "/")
	if !strings.Contains(rr.Body.String(), "could not be loaded") {
		t.Errorf("error page body: %s", rr.Body.String())
	}
	var body errorJSON
	decode(t, get(t, srv, "/api/summary"), &body)
	if body.Error == "" {
		t.Error("JSON error missing message")
	}
}

func TestLoadFailureTimeout(t *testing.T) {
	srv := failingServer(t, context.DeadlineExceeded)
	if rr := get(t, srv, "/api/summary"); rr.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rr.Code)
	}
}

func TestLoads(t *testing.T) {
	srv := newTestServer(t, Options{})
	if rr := get(t, srv, "/api/loads"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status without store = %d", rr.Code)
	}

	loads := &fakeLoads{reports: []core.LoadReport{{
		RunID:     "run-1",
		Source:    "memory",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Stats:     core.NormalizeStats{RawRows: 8, InvalidAmount: 1, Excluded: 1, Kept: 6},
		Total:     13700,
	}}}
	srv = newTestServer(t, Options{Loads: loads})

	var got struct {
		Loads []loadJSON `json:"loads"`
	}
	decode(t, get(t, srv, "/api/loads?limit=5000"), &got)
	if loads.limit != maxLoadsLimit {
		t.Errorf("limit = %d", loads.limit)
	}
	if len(got.Loads) != 1 || got.Loads[0].RunID != "run-1" || got.Loads[0].DurationMs != 1500 || got.Loads[0].InvalidAmount != 1 {
		t.Errorf("loads = %+v", got.Loads)
	}

	loads.err = errors.New("disk full")
	if rr := get(t, srv, "/api/loads"); rr.Code != http.StatusInternalServerError {
		t.Errorf("status on store error = %d", rr.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(t, srv, path); rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}

	srv = failingServer(t, errors.New("unreachable"))
	if rr := get(t, srv, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz on failing source = %d", rr.Code)
	}
	if rr := get(t, srv, "/healthz"); rr.Code != http.StatusOK {
		t.Errorf("healthz must not depend on the source: %d", rr.Code)
	}
}

func TestStaticAndRouting(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(t, srv, "/static/style.css")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Header().Get("Cache-Control"), "max-age") {
		t.Errorf("static status=%d cache=%q", rr.Code, rr.Header().Get("Cache-Control"))
	}
	if rr := get(t, srv, "/missing"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rr.Code)
	}
	if rr := get(t, srv, "/.env"); rr.Code != http.StatusBadRequest {
		t.Errorf("scan path status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/export.csv", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST export status = %d", rr.Code)
	}
}

func TestNewServerRequiresLedger(t *testing.T) {
	if _, err := NewServer(Options{}); err == nil {
		t.Fatal("expected error without a ledger service")
	}
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q (status %d)", ct, rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
