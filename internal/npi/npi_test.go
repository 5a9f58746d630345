package npi

import (
	"testing"

	"github.com/epimodels/seatird-core/pkg/stochastic"
)

func TestMatchesDayWindow(t *testing.T) {
	n := NPI{Name: "closure", DayStart: 10, DayEnd: 20, Effectiveness: 0.5}

	if n.Matches(1, 9, 0, 0) {
		t.Error("day before window should not match")
	}
	if !n.Matches(1, 10, 0, 0) {
		t.Error("first day of window should match")
	}
	if !n.Matches(1, 19, 0, 0) {
		t.Error("last day inside window should match")
	}
	if n.Matches(1, 20, 0, 0) {
		t.Error("DayEnd is exclusive and should not match")
	}
}

func TestMatchesWildcardsAndFilters(t *testing.T) {
	n := NPI{
		Name:          "school closure",
		Nodes:         []int{453},
		DayStart:      0,
		DayEnd:        100,
		FromAges:      []int{0, 1},
		ToAges:        []int{0, 1},
		Effectiveness: 0.9,
	}

	if !n.Matches(453, 5, 0, 1) {
		t.Error("matching node and ages should match")
	}
	if n.Matches(999, 5, 0, 1) {
		t.Error("other node should not match")
	}
	if n.Matches(453, 5, 2, 1) {
		t.Error("fromAge outside filter should not match")
	}
	if n.Matches(453, 5, 0, 3) {
		t.Error("toAge outside filter should not match")
	}

	wildcard := NPI{Name: "distancing", DayStart: 0, DayEnd: 100, Effectiveness: 0.3}
	if !wildcard.Matches(999, 50, 4, 4) {
		t.Error("empty node/age lists should match everything")
	}
}

func TestMaxEffectiveness(t *testing.T) {
	npis := []NPI{
		{Name: "a", DayStart: 0, DayEnd: 10, Effectiveness: 0.3},
		{Name: "b", DayStart: 0, DayEnd: 10, Effectiveness: 0.7},
		{Name: "c", DayStart: 50, DayEnd: 60, Effectiveness: 0.95},
	}

	if got := MaxEffectiveness(npis, 1, 5, 0, 0); got != 0.7 {
		t.Errorf("MaxEffectiveness = %f, want 0.7 (max of overlapping)", got)
	}
	if got := MaxEffectiveness(npis, 1, 55, 0, 0); got != 0.95 {
		t.Errorf("MaxEffectiveness = %f, want 0.95", got)
	}
	if got := MaxEffectiveness(npis, 1, 30, 0, 0); got != 0 {
		t.Errorf("MaxEffectiveness = %f, want 0 when nothing matches", got)
	}
	if got := MaxEffectiveness(nil, 1, 30, 0, 0); got != 0 {
		t.Errorf("MaxEffectiveness = %f, want 0 for empty list", got)
	}
}

func TestIsEffectiveExtremes(t *testing.T) {
	rng := stochastic.New(1)
	always := []NPI{{Name: "total", DayStart: 0, DayEnd: 100, Effectiveness: 1.0}}
	for i := 0; i < 50; i++ {
		if !IsEffective(always, 1, 5, 0, 0, rng) {
			t.Fatal("effectiveness 1.0 must always block")
		}
	}

	never := []NPI{{Name: "noop", DayStart: 0, DayEnd: 100, Effectiveness: 0.0}}
	for i := 0; i < 50; i++ {
		if IsEffective(never, 1, 5, 0, 0, rng) {
			t.Fatal("effectiveness 0.0 must never block")
		}
	}
}

func TestIsEffectiveConsumesNoDrawWhenNothingMatches(t *testing.T) {
	a := stochastic.New(42)
	b := stochastic.New(42)

	out := []NPI{{Name: "later", DayStart: 50, DayEnd: 60, Effectiveness: 0.8}}
	if IsEffective(out, 1, 5, 0, 0, a) {
		t.Fatal("inactive intervention should not block")
	}

	// The two streams must still be aligned.
	if a.Float64() != b.Float64() {
		t.Error("IsEffective consumed a draw although no intervention matched")
	}
}
