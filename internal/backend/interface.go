package backend

import (
	"context"

	"buraq/internal/services"
	"buraq/internal/sheets"
)

// CleanupFunc releases what a backend opened.
type CleanupFunc func() error

// Result is a ready data source plus the audit sinks that go with it.
type Result struct {
	Fetcher  sheets.TableFetcher
	Recorder services.Recorder
	// Loads is nil when no audit store is configured.
	Loads   services.LoadLister
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds what the factory needs from the application config.
type Config struct {
	Type Type

	// Google Sheets
	SpreadsheetID      string
	SpreadsheetTitle   string
	WorksheetName      string
	ServiceAccountJSON string
	ServiceAccountFile string

	// Memory
	DataDirectory string

	// Audit trail; empty values disable the sink.
	AuditDBPath  string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type Type string

const (
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
