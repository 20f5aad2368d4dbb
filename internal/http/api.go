package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"buraq/internal/core"
	"buraq/internal/log"
)

type (
	selectionJSON struct {
		Year      *float64 `json:"year"`
		Month     *float64 `json:"month"`
		Primary   *string  `json:"primary"`
		Secondary *string  `json:"secondary"`
	}

	statsJSON struct {
		RawRows       int `json:"raw_rows"`
		InvalidAmount int `json:"invalid_amount"`
		Excluded      int `json:"excluded"`
		Kept          int `json:"kept"`
	}

	displayJSON struct {
		Total   string `json:"total"`
		Count   string `json:"count"`
		Average string `json:"average"`
	}

	summaryJSON struct {
		Selection selectionJSON `json:"selection"`
		Total     float64       `json:"total"`
		Count     int           `json:"count"`
		// Average is null for an empty selection.
		Average *float64    `json:"average"`
		Display displayJSON `json:"display"`
		Stats   statsJSON   `json:"stats"`
	}

	barJSON struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
		Count int     `json:"count"`
	}

	chartJSON struct {
		Selection selectionJSON `json:"selection"`
		Dimension string        `json:"dimension"`
		Label     string        `json:"label"`
		Bars      []barJSON     `json:"bars"`
	}

	loadJSON struct {
		RunID         string    `json:"run_id"`
		Source        string    `json:"source"`
		StartedAt     time.Time `json:"started_at"`
		DurationMs    int64     `json:"duration_ms"`
		RawRows       int       `json:"raw_rows"`
		InvalidAmount int       `json:"invalid_amount"`
		Excluded      int       `json:"excluded"`
		Kept          int       `json:"kept"`
		Total         float64   `json:"total"`
		Error         string    `json:"error,omitempty"`
	}

	errorJSON struct {
		Error string `json:"error"`
	}
)

func newSelectionJSON(sel core.Selection) selectionJSON {
	var out selectionJSON
	if sel.Year.Valid {
		out.Year = &sel.Year.Value
	}
	if sel.Month.Valid {
		out.Month = &sel.Month.Value
	}
	if sel.Primary.Set {
		out.Primary = &sel.Primary.Value
	}
	if sel.Secondary.Set {
		out.Secondary = &sel.Secondary.Value
	}
	return out
}

func newStatsJSON(st core.NormalizeStats) statsJSON {
	return statsJSON{RawRows: st.RawRows, InvalidAmount: st.InvalidAmount, Excluded: st.Excluded, Kept: st.Kept}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.ledger.Dashboard(r.Context(), ParseSelection(q), core.ParseDimension(q.Get(paramDimension)))
	if err != nil {
		s.loadFailed(w, r, err, s.jsonError(w, r))
		return
	}
	schema := s.ledger.Schema()
	resp := summaryJSON{
		Selection: newSelectionJSON(d.Selection),
		Total:     d.Summary.Total,
		Count:     d.Summary.Count,
		Display: displayJSON{
			Total:   schema.FormatAmount(d.Summary.Total),
			Count:   core.FormatInteger(float64(d.Summary.Count)),
			Average: schema.FormatAverage(d.Summary),
		},
		Stats: newStatsJSON(d.Stats),
	}
	if d.Summary.HasAverage() {
		avg := d.Summary.Average
		resp.Average = &avg
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.ledger.Dashboard(r.Context(), ParseSelection(q), core.ParseDimension(q.Get(paramDimension)))
	if err != nil {
		s.loadFailed(w, r, err, s.jsonError(w, r))
		return
	}
	bars := make([]barJSON, 0, len(d.Chart))
	for _, c := range d.Chart {
		bars = append(bars, barJSON{Name: c.Name, Total: c.Total, Count: c.Count})
	}
	s.writeJSON(w, r, http.StatusOK, chartJSON{
		Selection: newSelectionJSON(d.Selection),
		Dimension: string(d.Dimension),
		Label:     d.Dimension.Label(),
		Bars:      bars,
	})
}

// handleLoads lists the most recent load reports from the audit store.
func (s *Server) handleLoads(w http.ResponseWriter, r *http.Request) {
	if s.loads == nil {
		s.writeJSON(w, r, http.StatusServiceUnavailable, errorJSON{Error: "audit store not configured"})
		return
	}
	reports, err := s.loads.RecentLoads(r.Context(), parseLimit(r.URL.Query().Get(paramLimit)))
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentAudit).ErrorContext(r.Context(),
			"Failed to list load reports", log.FieldError, err)
		s.writeJSON(w, r, http.StatusInternalServerError, errorJSON{Error: "could not read load reports"})
		return
	}
	out := make([]loadJSON, 0, len(reports))
	for _, rep := range reports {
		out = append(out, loadJSON{
			RunID:         rep.RunID,
			Source:        rep.Source,
			StartedAt:     rep.StartedAt.UTC(),
			DurationMs:    rep.Duration.Milliseconds(),
			RawRows:       rep.Stats.RawRows,
			InvalidAmount: rep.Stats.InvalidAmount,
			Excluded:      rep.Stats.Excluded,
			Kept:          rep.Stats.Kept,
			Total:         rep.Total,
			Error:         rep.Error,
		})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"loads": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	m := s.Metrics()
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":          "ok",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"uptime":          time.Since(s.started).Round(time.Second).String(),
		"requests":        m.TotalRequests,
		"avg_response_ms": m.AverageResponseTime.Milliseconds(),
	})
}

// handleReady checks that the worksheet can be fetched and normalized.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.ledger.Ready(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentHTTP).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "error": err.Error()})
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) jsonError(w http.ResponseWriter, r *http.Request) func(int, string) {
	return func(status int, msg string) {
		s.writeJSON(w, r, status, errorJSON{Error: msg})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).WarnContext(r.Context(),
			"Failed to write JSON response", log.FieldError, err)
	}
}
