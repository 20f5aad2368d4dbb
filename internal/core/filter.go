package core

import (
	"slices"
	"sort"
)

type (
	// Choice is an optional equality constraint on a text field.
	Choice struct {
		Value string
		Set   bool
	}

	// Selection holds the four sidebar filters. Zero value selects everything.
	Selection struct {
		Year      Number
		Month     Number
		Primary   Choice
		Secondary Choice
	}

	// Options lists the values each sidebar control may offer.
	Options struct {
		Years     []float64
		Months    []float64
		Primary   []string
		Secondary []string
	}
)

// Only returns a constraint on v.
func Only(v string) Choice {
	return Choice{Value: v, Set: true}
}

// Filter returns the donations matching every constrained field. Year and
// month compare numerically, activities compare as exact strings. The input
// ledger is left untouched.
func Filter(l Ledger, sel Selection) Ledger {
	out := make([]Donation, 0, len(l.Records))
	for _, d := range l.Records {
		if sel.matches(d) {
			out = append(out, d)
		}
	}
	return l.with(out)
}

func (sel Selection) matches(d Donation) bool {
	if sel.Year.Valid && (!d.Year.Valid || d.Year.Value != sel.Year.Value) {
		return false
	}
	if sel.Month.Valid && (!d.Month.Valid || d.Month.Value != sel.Month.Value) {
		return false
	}
	if sel.Primary.Set && d.Primary != sel.Primary.Value {
		return false
	}
	if sel.Secondary.Set && d.Secondary != sel.Secondary.Value {
		return false
	}
	return true
}

// Years returns the distinct non-null years in ascending order.
func Years(l Ledger) []float64 {
	return distinctNumbers(l, func(d Donation) Number { return d.Year })
}

// Months returns the distinct non-null months in ascending order.
func Months(l Ledger) []float64 {
	return distinctNumbers(l, func(d Donation) Number { return d.Month })
}

// PrimaryActivities returns the distinct primary activities in the order
// they first appear. Blank activities are not offered.
func PrimaryActivities(l Ledger) []string {
	return distinctStrings(l.Records, func(d Donation) string { return d.Primary })
}

// SecondaryCandidates returns the secondary activities selectable once
// primary is chosen: only those occurring under that primary activity, or
// all of them when primary is unconstrained.
func SecondaryCandidates(l Ledger, primary Choice) []string {
	records := l.Records
	if primary.Set {
		records = make([]Donation, 0, len(l.Records))
		for _, d := range l.Records {
			if d.Primary == primary.Value {
				records = append(records, d)
			}
		}
	}
	return distinctStrings(records, func(d Donation) string { return d.Secondary })
}

// BuildOptions computes every candidate list from the full ledger for the
// given selection.
func BuildOptions(l Ledger, sel Selection) Options {
	return Options{
		Years:     Years(l),
		Months:    Months(l),
		Primary:   PrimaryActivities(l),
		Secondary: SecondaryCandidates(l, sel.Primary),
	}
}

// Reconcile drops constraints whose value is no longer offered, the way a
// select box falls back to "all" when its options change underneath it.
// Secondary is checked against candidates of the reconciled primary.
func (sel Selection) Reconcile(l Ledger) (Selection, Options) {
	opts := BuildOptions(l, Selection{})
	if sel.Year.Valid && !slices.Contains(opts.Years, sel.Year.Value) {
		sel.Year = Number{}
	}
	if sel.Month.Valid && !slices.Contains(opts.Months, sel.Month.Value) {
		sel.Month = Number{}
	}
	if sel.Primary.Set && !slices.Contains(opts.Primary, sel.Primary.Value) {
		sel.Primary = Choice{}
	}
	opts.Secondary = SecondaryCandidates(l, sel.Primary)
	if sel.Secondary.Set && !slices.Contains(opts.Secondary, sel.Secondary.Value) {
		sel.Secondary = Choice{}
	}
	return sel, opts
}

func distinctNumbers(l Ledger, field func(Donation) Number) []float64 {
	seen := make(map[float64]struct{})
	out := make([]float64, 0)
	for _, d := range l.Records {
		n := field(d)
		if !n.Valid {
			continue
		}
		if _, ok := seen[n.Value]; ok {
			continue
		}
		seen[n.Value] = struct{}{}
		out = append(out, n.Value)
	}
	sort.Float64s(out)
	return out
}

func distinctStrings(records []Donation, field func(Donation) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, d := range records {
		v := field(d)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
