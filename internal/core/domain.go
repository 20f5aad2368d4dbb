package core

import (
	"errors"
	"strconv"
)

type (
	// Cell is a raw spreadsheet value. Valid is false for cells the source
	// did not return at all (e.g. trailing cells of a short row).
	Cell struct {
		Value string
		Valid bool
	}

	// Number is a coerced numeric value; Valid is false for null.
	Number struct {
		Value float64
		Valid bool
	}

	// RawTable is a worksheet snapshot exactly as fetched: one header row
	// followed by data rows of possibly differing length.
	RawTable struct {
		Headers []string
		Rows    [][]Cell
	}

	// Donation is one cleaned ledger row.
	Donation struct {
		Amount    float64
		Month     Number
		Year      Number
		Primary   string // Primary activity
		Secondary string // Secondary activity
		// Values holds every retained column, aligned with Ledger.Columns.
		// Numeric columns carry their cleaned representation.
		Values []Cell
	}

	// NormalizeStats counts what happened to the raw rows during cleaning.
	NormalizeStats struct {
		RawRows       int
		InvalidAmount int
		Excluded      int
		Kept          int
	}

	// Ledger is an immutable view over cleaned donations.
	Ledger struct {
		Columns []string
		Records []Donation
		Stats   NormalizeStats
	}
)

var (
	ErrEmptyTable    = errors.New("empty table")
	ErrMissingColumn = errors.New("missing column")
)

// Text returns a present cell holding s.
func Text(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Null is the absent cell.
var Null = Cell{}

// Num returns a valid Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// String renders the number without a trailing ".0" and null as "".
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return FormatNumber(n.Value)
}

// FormatNumber formats v with the shortest representation that round-trips.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Len returns the number of records.
func (l Ledger) Len() int {
	return len(l.Records)
}

// with returns a ledger sharing columns and stats but owning records.
func (l Ledger) with(records []Donation) Ledger {
	cols := make([]string, len(l.Columns))
	copy(cols, l.Columns)
	return Ledger{Columns: cols, Records: records, Stats: l.Stats}
}
