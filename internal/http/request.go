package http

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"buraq/internal/core"
)

// AllLabel is the caption of the unconstrained choice in every select.
const AllLabel = "الكل"

// Query parameter names shared by the pages, partials, API and exports.
const (
	paramYear      = "year"
	paramMonth     = "month"
	paramPrimary   = "primary"
	paramSecondary = "secondary"
	paramDimension = "dimension"
	paramLimit     = "limit"
)

const (
	defaultLoadsLimit = 20
	maxLoadsLimit     = 200
)

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == AllLabel
}

// parseNumber reads a year or month; anything unreadable means "all".
func parseNumber(v string) core.Number {
	if isAll(v) {
		return core.Number{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return core.Number{}
	}
	return core.Num(f)
}

// parseChoice keeps the value verbatim since activities match exactly.
func parseChoice(v string) core.Choice {
	if isAll(v) {
		return core.Choice{}
	}
	return core.Only(v)
}

// ParseSelection reads the four sidebar filters from a query string.
func ParseSelection(q url.Values) core.Selection {
	return core.Selection{
		Year:      parseNumber(q.Get(paramYear)),
		Month:     parseNumber(q.Get(paramMonth)),
		Primary:   parseChoice(q.Get(paramPrimary)),
		Secondary: parseChoice(q.Get(paramSecondary)),
	}
}

// SelectionQuery is the inverse of ParseSelection. Unconstrained filters
// are omitted.
func SelectionQuery(sel core.Selection) url.Values {
	q := url.Values{}
	if sel.Year.Valid {
		q.Set(paramYear, sel.Year.String())
	}
	if sel.Month.Valid {
		q.Set(paramMonth, sel.Month.String())
	}
	if sel.Primary.Set {
		q.Set(paramPrimary, sel.Primary.Value)
	}
	if sel.Secondary.Set {
		q.Set(paramSecondary, sel.Secondary.Value)
	}
	return q
}

func parseLimit(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	switch {
	case err != nil || n <= 0:
		return defaultLoadsLimit
	case n > maxLoadsLimit:
		return maxLoadsLimit
	default:
		return n
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
