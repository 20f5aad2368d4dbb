package sheets

import (
	"context"

	"buraq/internal/core"
)

// Ports for outbound adapters.
type (
	// TableFetcher returns a fresh snapshot of the donation worksheet.
	TableFetcher interface {
		FetchTable(ctx context.Context) (core.RawTable, error)
	}

	// SourceNamer is implemented by fetchers that can describe where they
	// read from, used in logs and load reports.
	SourceNamer interface {
		SourceName() string
	}
)

// Describe returns the fetcher's source name, or "unknown".
func Describe(f TableFetcher) string {
	if n, ok := f.(SourceNamer); ok {
		return n.SourceName()
	}
	return "unknown"
}
