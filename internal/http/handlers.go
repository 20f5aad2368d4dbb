package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"slices"

	"buraq/internal/core"
	"buraq/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.ledger.Dashboard(r.Context(), ParseSelection(q), core.ParseDimension(q.Get(paramDimension)))
	if err != nil {
		s.loadFailed(w, r, err, func(status int, msg string) {
			w.Header().Set("Cache-Control", "no-store")
			s.render(w, r, status, "error.html", errorView{Title: pageTitle, Status: status, Message: msg})
		})
		return
	}
	s.render(w, r, http.StatusOK, "index.html", pageView{
		Title:     pageTitle,
		AllLabel:  AllLabel,
		Filters:   newFiltersView(d),
		Dashboard: newDashboardView(d, s.ledger.Schema()),
	})
}

// handleDashboardPartial re-renders metrics, chart and table for the
// sidebar selection.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.ledger.Dashboard(r.Context(), ParseSelection(q), core.ParseDimension(q.Get(paramDimension)))
	if err != nil {
		s.loadFailed(w, r, err, s.plainError(w))
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentLedger).DebugContext(r.Context(), "Dashboard filtered",
		append(selectionLogArgs(d.Selection, d.Dimension), log.FieldKept, d.Filtered.Len())...)
	s.render(w, r, http.StatusOK, "dashboard", newDashboardView(d, s.ledger.Schema()))
}

// selectionLogArgs lists the reconciled filters; unconstrained ones log as AllLabel.
func selectionLogArgs(sel core.Selection, dim core.Dimension) []any {
	num := func(n core.Number) string {
		if !n.Valid {
			return AllLabel
		}
		return n.String()
	}
	choice := func(c core.Choice) string {
		if !c.Set {
			return AllLabel
		}
		return c.Value
	}
	return []any{
		log.FieldYear, num(sel.Year),
		log.FieldMonth, num(sel.Month),
		log.FieldPrimary, choice(sel.Primary),
		log.FieldSecondary, choice(sel.Secondary),
		log.FieldDimension, string(dim),
	}
}

// handleSecondaryOptions renders the secondary select for a new primary
// choice, keeping the current secondary value when it is still offered.
func (s *Server) handleSecondaryOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	values, err := s.ledger.SecondaryOptions(r.Context(), parseChoice(q.Get(paramPrimary)))
	if err != nil {
		s.loadFailed(w, r, err, s.plainError(w))
		return
	}
	current := parseChoice(q.Get(paramSecondary))
	if current.Set && !slices.Contains(values, current.Value) {
		current = core.Choice{}
	}
	s.render(w, r, http.StatusOK, "secondary-select", secondarySelect(values, current))
}

// loadFailed maps a ledger error to a status and hands it to respond.
// Requests abandoned by the client get no body.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, err error, respond func(status int, msg string)) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentHTTP)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.DebugContext(ctx, "Client went away during ledger load", log.FieldPath, r.URL.Path)
		return
	}
	status, msg := http.StatusBadGateway, "The donations worksheet could not be loaded."
	if errors.Is(err, context.DeadlineExceeded) {
		status, msg = http.StatusGatewayTimeout, "The donations worksheet took too long to respond."
	}
	if errors.Is(err, core.ErrMissingColumn) || errors.Is(err, core.ErrEmptyTable) {
		msg = "The donations worksheet layout is not recognised."
	}
	logger.ErrorContext(ctx, "Ledger load failed",
		log.FieldOperation, log.OpLoad,
		log.FieldPath, r.URL.Path,
		log.FieldStatusCode, status,
		log.FieldError, err)
	respond(status, msg)
}

func (s *Server) plainError(w http.ResponseWriter) func(int, string) {
	return func(status int, msg string) {
		http.Error(w, msg, status)
	}
}

// render executes into a buffer so template failures become a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template render failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
