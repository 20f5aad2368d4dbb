package http

import (
	"bytes"
	"mime"
	"net/http"

	"buraq/internal/export"
	"buraq/internal/log"
)

// handleExportCSV sends the filtered ledger as a UTF-8 CSV with BOM.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.ledger.Filtered(r.Context(), ParseSelection(r.URL.Query()))
	if err != nil {
		s.loadFailed(w, r, err, s.plainError(w))
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, ledger); err != nil {
		s.exportFailed(w, r, "csv", err)
		return
	}
	s.sendAttachment(w, r, export.CSVContentType, s.exportName, buf.Bytes(), ledger.Len(), "csv")
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.ledger.Filtered(r.Context(), ParseSelection(r.URL.Query()))
	if err != nil {
		s.loadFailed(w, r, err, s.plainError(w))
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, ledger, s.ledger.Schema()); err != nil {
		s.exportFailed(w, r, "xlsx", err)
		return
	}
	s.sendAttachment(w, r, export.XLSXContentType, export.XLSXFilename(s.exportName), buf.Bytes(), ledger.Len(), "xlsx")
}

func (s *Server) sendAttachment(w http.ResponseWriter, r *http.Request, contentType, filename string, body []byte, rows int, format string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.exportFailed(w, r, format, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldFormat, format,
		log.FieldKept, rows)
}

// exportFailed logs the failure and, if nothing was sent yet, answers 500.
func (s *Server) exportFailed(w http.ResponseWriter, r *http.Request, format string, err error) {
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).ErrorContext(r.Context(), "Ledger export failed",
		log.FieldOperation, log.OpExport,
		log.FieldFormat, format,
		log.FieldError, err)
	if w.Header().Get("Content-Disposition") == "" {
		http.Error(w, "Export failed", http.StatusInternalServerError)
	}
}
