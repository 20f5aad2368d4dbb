package core

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoData is shown in place of metrics that are undefined for an empty view.
const NoData = "—"

// Beyond 2^63 a rounded value no longer fits in an int64.
const maxExactInt = 1 << 63

// FormatInteger rounds v half-to-even and groups thousands: 1234567.5 -> "1,234,568".
func FormatInteger(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NoData
	}
	p := message.NewPrinter(language.English)
	r := math.RoundToEven(v)
	if math.Abs(r) >= maxExactInt {
		return p.Sprintf("%.0f", r)
	}
	return p.Sprintf("%d", int64(r))
}

// FormatAmount renders v as a whole amount followed by the currency token.
func (s Schema) FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NoData
	}
	if s.CurrencyToken == "" {
		return FormatInteger(v)
	}
	return FormatInteger(v) + " " + s.CurrencyToken
}

// FormatAverage renders the mean, or NoData for an empty view.
func (s Schema) FormatAverage(sum Summary) string {
	if !sum.HasAverage() {
		return NoData
	}
	return s.FormatAmount(sum.Average)
}
