// Package core holds the donation ledger model and the pure pipeline that
// turns a raw worksheet into filtered, aggregated views.
//
// This file contains the tolerant numeric coercion applied to amount, month
// and year cells.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanNumber coerces a spreadsheet cell to a number.
//
// Thousands-separator commas and every occurrence of currencyToken are
// removed before parsing, and decimal digits from any script (Arabic-Indic,
// Extended Arabic-Indic, full-width and so on) are read as their ASCII
// equivalents. Null cells, empty strings, unparseable text, NaN
// and infinities all yield an invalid Number; malformed input is data, so
// this never fails.
//
// Examples:
//
//	CleanNumber(Text("1,234 جنيه"), "جنيه") -> 1234
//	CleanNumber(Text("١٢٣٤ جنيه"), "جنيه")  -> 1234
//	CleanNumber(Text("abc"), "جنيه")        -> null
//	CleanNumber(Null, "جنيه")               -> null
func CleanNumber(c Cell, currencyToken string) Number {
	if !c.Valid || c.Value == "" {
		return Number{}
	}
	s := strings.ReplaceAll(c.Value, ",", "")
	if currencyToken != "" {
		s = strings.ReplaceAll(s, currencyToken, "")
	}
	s = strings.TrimSpace(strings.Map(asciiDigit, s))
	if s == "" {
		return Number{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Num(v)
}

// asciiDigit maps a Unicode decimal digit (category Nd) to '0'..'9' and
// leaves every other rune alone.
func asciiDigit(r rune) rune {
	if r < utf8.RuneSelf || !unicode.IsDigit(r) {
		return r
	}
	if v, ok := digitValue(r); ok {
		return '0' + rune(v)
	}
	return r
}

// digitValue relies on every Nd run in the Unicode tables starting at a
// zero and spanning whole blocks of ten.
func digitValue(r rune) (int, bool) {
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return int(r-lo) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return int(r-lo) % 10, true
		}
	}
	return 0, false
}
