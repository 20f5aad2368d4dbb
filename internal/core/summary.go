package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// Dimension is the activity level a chart groups by.
type Dimension string

const (
	DimensionSecondary Dimension = "secondary"
	DimensionPrimary   Dimension = "primary"
)

// ParseDimension maps a request value to a Dimension, defaulting to
// secondary activity.
func ParseDimension(s string) Dimension {
	if Dimension(s) == DimensionPrimary {
		return DimensionPrimary
	}
	return DimensionSecondary
}

// Label is the radio button caption for the dimension.
func (d Dimension) Label() string {
	if d == DimensionPrimary {
		return "by primary activity"
	}
	return "by secondary activity"
}

// Summary holds the headline metrics of a ledger view.
type Summary struct {
	Total   float64
	Count   int
	Average float64 // NaN when Count is 0
}

// HasAverage reports whether Average is defined.
func (s Summary) HasAverage() bool {
	return s.Count > 0 && !math.IsNaN(s.Average)
}

// CategoryAmount is the donation total for one activity.
type CategoryAmount struct {
	Name  string
	Total float64
	Count int
}

// Summarize computes total, count and mean of the donation amounts.
// Amounts are summed as decimals so the result does not depend on order.
func Summarize(l Ledger) Summary {
	if len(l.Records) == 0 {
		return Summary{Average: math.NaN()}
	}
	sum := decimal.Zero
	for _, d := range l.Records {
		sum = sum.Add(decimal.NewFromFloat(d.Amount))
	}
	count := len(l.Records)
	total, _ := sum.Float64()
	avg, _ := sum.Div(decimal.NewFromInt(int64(count))).Float64()
	return Summary{Total: total, Count: count, Average: avg}
}

// GroupBy sums donations per activity of the given dimension, in the order
// activities first appear. Blank activities are grouped under "".
func GroupBy(l Ledger, dim Dimension) []CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, d := range l.Records {
		key := d.Secondary
		if dim == DimensionPrimary {
			key = d.Primary
		}
		if _, ok := sums[key]; !ok {
			order = append(order, key)
			sums[key] = decimal.Zero
		}
		sums[key] = sums[key].Add(decimal.NewFromFloat(d.Amount))
		counts[key]++
	}
	out := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		total, _ := sums[name].Float64()
		out = append(out, CategoryAmount{Name: name, Total: total, Count: counts[name]})
	}
	return out
}
