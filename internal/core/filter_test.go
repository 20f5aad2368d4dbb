package core

import (
	"reflect"
	"testing"
)

func donation(amount, month, year float64, primary, secondary string) Donation {
	return Donation{Amount: amount, Month: Num(month), Year: Num(year), Primary: primary, Secondary: secondary}
}

func sampleLedger() Ledger {
	return Ledger{
		Columns: []string{"amount"},
		Records: []Donation{
			donation(100, 3, 2025, "X", "x1"),
			donation(200, 1, 2024, "X", "x2"),
			donation(300, 3, 2025, "Y", "y1"),
			donation(400, 2, 2025, "X", "x1"),
			donation(500, 3, 2025, "Y", "x1"),
			{Amount: 50, Primary: "Z", Secondary: "z1"},
		},
	}
}

func TestFilterComposition(t *testing.T) {
	l := sampleLedger()
	sel := Selection{Year: Num(2025), Primary: Only("X")}
	got := Filter(l, sel)

	byYear := Filter(l, Selection{Year: Num(2025)})
	byPrimary := Filter(l, Selection{Primary: Only("X")})
	var want []Donation
	for _, a := range byYear.Records {
		for _, b := range byPrimary.Records {
			if reflect.DeepEqual(a, b) {
				want = append(want, a)
			}
		}
	}
	if !reflect.DeepEqual(got.Records, want) {
		t.Fatalf("filter is not the intersection: got %+v want %+v", got.Records, want)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", got.Len())
	}
}

func TestFilterAllFields(t *testing.T) {
	l := sampleLedger()
	got := Filter(l, Selection{Year: Num(2025), Month: Num(3), Primary: Only("Y"), Secondary: Only("x1")})
	if got.Len() != 1 || got.Records[0].Amount != 500 {
		t.Fatalf("unexpected %+v", got.Records)
	}
}

func TestFilterUnconstrainedKeepsEverything(t *testing.T) {
	l := sampleLedger()
	got := Filter(l, Selection{})
	if got.Len() != l.Len() {
		t.Fatalf("expected %d, got %d", l.Len(), got.Len())
	}
	// Null years never match a year constraint.
	for _, d := range Filter(l, Selection{Year: Num(2025)}).Records {
		if !d.Year.Valid {
			t.Fatalf("null year matched: %+v", d)
		}
	}
}

func TestFilterReturnsIndependentView(t *testing.T) {
	l := sampleLedger()
	got := Filter(l, Selection{})
	got.Records[0].Amount = -1
	got.Columns[0] = "changed"
	if l.Records[0].Amount != 100 || l.Columns[0] != "amount" {
		t.Fatal("filtered view shares storage with its source")
	}
}

func TestCandidateLists(t *testing.T) {
	l := sampleLedger()
	if got := Years(l); !reflect.DeepEqual(got, []float64{2024, 2025}) {
		t.Fatalf("years: %v", got)
	}
	if got := Months(l); !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Fatalf("months: %v", got)
	}
	if got := PrimaryActivities(l); !reflect.DeepEqual(got, []string{"X", "Y", "Z"}) {
		t.Fatalf("primary: %v", got)
	}
}

func TestSecondaryCandidatesFollowPrimary(t *testing.T) {
	l := sampleLedger()
	all := SecondaryCandidates(l, Choice{})
	if !reflect.DeepEqual(all, []string{"x1", "x2", "y1", "z1"}) {
		t.Fatalf("all: %v", all)
	}
	x := SecondaryCandidates(l, Only("X"))
	if !reflect.DeepEqual(x, []string{"x1", "x2"}) {
		t.Fatalf("X: %v", x)
	}
	y := SecondaryCandidates(l, Only("Y"))
	if !reflect.DeepEqual(y, []string{"y1", "x1"}) {
		t.Fatalf("Y: %v", y)
	}
	for _, v := range y {
		if v == "x2" {
			t.Fatal("x2 only occurs under X and must not be offered for Y")
		}
	}
}

func TestReconcileClearsStaleChoices(t *testing.T) {
	l := sampleLedger()
	sel := Selection{Year: Num(1999), Primary: Only("Y"), Secondary: Only("x2")}
	got, opts := sel.Reconcile(l)
	if got.Year.Valid {
		t.Fatalf("unknown year kept: %+v", got.Year)
	}
	if !got.Primary.Set || got.Primary.Value != "Y" {
		t.Fatalf("valid primary dropped: %+v", got.Primary)
	}
	if got.Secondary.Set {
		t.Fatalf("secondary not offered under Y was kept: %+v", got.Secondary)
	}
	if !reflect.DeepEqual(opts.Secondary, []string{"y1", "x1"}) {
		t.Fatalf("options: %+v", opts.Secondary)
	}
}
