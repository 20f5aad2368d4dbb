package core

import "time"

// LoadReport is the audit entry for one fetch and normalize run. Failed
// runs carry Error and zero counts.
type LoadReport struct {
	RunID     string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Stats     NormalizeStats
	Total     float64
	Error     string
}

func (r LoadReport) Failed() bool {
	return r.Error != ""
}
