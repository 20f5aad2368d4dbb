package http

import (
	"math"

	"buraq/internal/core"
	"buraq/internal/services"
)

// Metric card captions.
const (
	LabelTotal   = "Total Donations"
	LabelCount   = "Transaction Count"
	LabelAverage = "Average Donation"
)

const minBarWidth = 2

type (
	option struct {
		Value    string
		Label    string
		Selected bool
	}

	selectView struct {
		Name    string
		Label   string
		Options []option
	}

	metricView struct {
		Label string
		Value string
	}

	barView struct {
		Name   string
		Amount string
		Count  int
		Width  int
	}

	filtersView struct {
		Year       selectView
		Month      selectView
		Primary    selectView
		Secondary  selectView
		Dimensions []option
	}

	dashboardView struct {
		Metrics    []metricView
		ChartTitle string
		Bars       []barView
		Columns    []string
		Rows       [][]string
		Stats      core.NormalizeStats
		ExportCSV  string
		ExportXLSX string
	}

	pageView struct {
		Title     string
		AllLabel  string
		Filters   filtersView
		Dashboard dashboardView
	}

	errorView struct {
		Title   string
		Status  int
		Message string
	}
)

func numberSelect(name, label string, values []float64, selected core.Number) selectView {
	sv := selectView{Name: name, Label: label, Options: []option{allOption(!selected.Valid)}}
	for _, v := range values {
		s := core.FormatNumber(v)
		sv.Options = append(sv.Options, option{Value: s, Label: s, Selected: selected.Valid && selected.Value == v})
	}
	return sv
}

func choiceSelect(name, label string, values []string, selected core.Choice) selectView {
	sv := selectView{Name: name, Label: label, Options: []option{allOption(!selected.Set)}}
	for _, v := range values {
		sv.Options = append(sv.Options, option{Value: v, Label: v, Selected: selected.Set && selected.Value == v})
	}
	return sv
}

func allOption(selected bool) option {
	return option{Value: "", Label: AllLabel, Selected: selected}
}

func secondarySelect(values []string, selected core.Choice) selectView {
	return choiceSelect(paramSecondary, "Secondary activity", values, selected)
}

func newFiltersView(d services.Dashboard) filtersView {
	return filtersView{
		Year:      numberSelect(paramYear, "Year", d.Options.Years, d.Selection.Year),
		Month:     numberSelect(paramMonth, "Month", d.Options.Months, d.Selection.Month),
		Primary:   choiceSelect(paramPrimary, "Primary activity", d.Options.Primary, d.Selection.Primary),
		Secondary: secondarySelect(d.Options.Secondary, d.Selection.Secondary),
		Dimensions: []option{
			{Value: string(core.DimensionSecondary), Label: core.DimensionSecondary.Label(), Selected: d.Dimension != core.DimensionPrimary},
			{Value: string(core.DimensionPrimary), Label: core.DimensionPrimary.Label(), Selected: d.Dimension == core.DimensionPrimary},
		},
	}
}

func newDashboardView(d services.Dashboard, schema core.Schema) dashboardView {
	q := SelectionQuery(d.Selection)
	return dashboardView{
		Metrics: []metricView{
			{Label: LabelTotal, Value: schema.FormatAmount(d.Summary.Total)},
			{Label: LabelCount, Value: core.FormatInteger(float64(d.Summary.Count))},
			{Label: LabelAverage, Value: schema.FormatAverage(d.Summary)},
		},
		ChartTitle: d.Dimension.Label(),
		Bars:       newBars(d.Chart, schema),
		Columns:    d.Filtered.Columns,
		Rows:       tableRows(d.Filtered),
		Stats:      d.Stats,
		ExportCSV:  withQuery("/export.csv", q),
		ExportXLSX: withQuery("/export.xlsx", q),
	}
}

// newBars scales each bar against the largest absolute total.
func newBars(chart []core.CategoryAmount, schema core.Schema) []barView {
	peak := 0.0
	for _, c := range chart {
		peak = math.Max(peak, math.Abs(c.Total))
	}
	bars := make([]barView, 0, len(chart))
	for _, c := range chart {
		name := c.Name
		if name == "" {
			name = core.NoData
		}
		bars = append(bars, barView{
			Name:   name,
			Amount: schema.FormatAmount(c.Total),
			Count:  c.Count,
			Width:  barWidth(c.Total, peak),
		})
	}
	return bars
}

func barWidth(total, peak float64) int {
	if peak <= 0 {
		return minBarWidth
	}
	w := int(math.Round(math.Abs(total) / peak * 100))
	return max(w, minBarWidth)
}

func tableRows(l core.Ledger) [][]string {
	rows := make([][]string, 0, len(l.Records))
	for _, d := range l.Records {
		row := make([]string, len(d.Values))
		for i, c := range d.Values {
			if c.Valid {
				row[i] = c.Value
			}
		}
		rows = append(rows, row)
	}
	return rows
}
