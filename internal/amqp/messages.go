package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"buraq/internal/core"
)

// LoadReportMessage carries one load report to the audit worker.
type LoadReportMessage struct {
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
	Timestamp     time.Time `json:"timestamp"`
}

func NewLoadReportMessage(r core.LoadReport) *LoadReportMessage {
	return &LoadReportMessage{
		RunID:         r.RunID,
		Source:        r.Source,
		StartedAt:     r.StartedAt,
		DurationMs:    r.Duration.Milliseconds(),
		RawRows:       r.Stats.RawRows,
		InvalidAmount: r.Stats.InvalidAmount,
		Excluded:      r.Stats.Excluded,
		Kept:          r.Stats.Kept,
		Total:         r.Total,
		Error:         r.Error,
		Timestamp:     time.Now(),
	}
}

// Report converts the message back into the domain type.
func (m *LoadReportMessage) Report() core.LoadReport {
	return core.LoadReport{
		RunID:     m.RunID,
		Source:    m.Source,
		StartedAt: m.StartedAt,
		Duration:  time.Duration(m.DurationMs) * time.Millisecond,
		Stats: core.NormalizeStats{
			RawRows:       m.RawRows,
			InvalidAmount: m.InvalidAmount,
			Excluded:      m.Excluded,
			Kept:          m.Kept,
		},
		Total: m.Total,
		Error: m.Error,
	}
}

func (m *LoadReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LoadReportMessageFromJSON decodes a message; a missing run ID is an error.
func LoadReportMessageFromJSON(data []byte) (*LoadReportMessage, error) {
	var msg LoadReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RunID == "" {
		return nil, fmt.Errorf("load report message without run_id")
	}
	return &msg, nil
}
