package core

import "testing"

func TestCleanNumber(t *testing.T) {
	const egp = "جنيه"
	cases := []struct {
		in  Cell
		out float64
		ok  bool
	}{
		{Null, 0, false},
		{Text(""), 0, false},
		{Text("   "), 0, false},
		{Text("1,234 جنيه"), 1234, true},
		{Text("جنيه 50"), 50, true},
		{Text("  2500.5 "), 2500.5, true},
		{Text("12,000,000"), 12000000, true},
		{Text("-75"), -75, true},
		{Text("2025"), 2025, true},
		{Text("abc"), 0, false},
		{Text("جنيه"), 0, false},
		{Text("1.2.3"), 0, false},
		{Text("NaN"), 0, false},
		{Text("inf"), 0, false},
		{Text("٢٥٠"), 250, true},
		{Text("١٢٣٤ جنيه"), 1234, true},
		{Text("١٬٢٣٤"), 0, false},
		{Text("۱,۵۰۰"), 1500, true},
		{Text("１２３"), 123, true},
		{Text("٢٠٢٦"), 2026, true},
	}
	for _, tc := range cases {
		got := CleanNumber(tc.in, egp)
		if got.Valid != tc.ok {
			t.Fatalf("%+v: expected valid=%v, got %+v", tc.in, tc.ok, got)
		}
		if tc.ok && got.Value != tc.out {
			t.Fatalf("%+v: expected %v, got %v", tc.in, tc.out, got.Value)
		}
	}
}

func TestCleanNumberWithoutCurrencyToken(t *testing.T) {
	if got := CleanNumber(Text("1,234 جنيه"), ""); got.Valid {
		t.Fatalf("expected null when the token is not configured, got %v", got.Value)
	}
	if got := CleanNumber(Text("1,234"), ""); !got.Valid || got.Value != 1234 {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestNumberString(t *testing.T) {
	if s := Num(2025).String(); s != "2025" {
		t.Fatalf("got %q", s)
	}
	if s := Num(12.5).String(); s != "12.5" {
		t.Fatalf("got %q", s)
	}
	if s := (Number{}).String(); s != "" {
		t.Fatalf("got %q", s)
	}
}
