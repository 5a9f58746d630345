// Package npi models non-pharmaceutical interventions: time-windowed,
// per-node contact reductions between age groups (school closures, social
// distancing orders). An intervention attenuates contact events and inbound
// travel while its day window is active.
package npi

import (
	"github.com/epimodels/seatird-core/pkg/stochastic"
)

// NPI describes one intervention. Empty Nodes, FromAges, or ToAges lists
// match everything on that axis. The intervention is active on days
// [DayStart, DayEnd).
type NPI struct {
	Name          string
	Nodes         []int
	DayStart      int
	DayEnd        int
	FromAges      []int
	ToAges        []int
	Effectiveness float64
}

// Matches reports whether the intervention applies to a contact from
// fromAge to toAge at the node on the given day.
func (n *NPI) Matches(nodeID, day, fromAge, toAge int) bool {
	if day < n.DayStart || day >= n.DayEnd {
		return false
	}
	return containsOrEmpty(n.Nodes, nodeID) &&
		containsOrEmpty(n.FromAges, fromAge) &&
		containsOrEmpty(n.ToAges, toAge)
}

func containsOrEmpty(vals []int, v int) bool {
	if len(vals) == 0 {
		return true
	}
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

// MaxEffectiveness returns the largest effectiveness among the interventions
// matching the contact, or 0 when none match.
func MaxEffectiveness(npis []NPI, nodeID, day, fromAge, toAge int) float64 {
	max := 0.0
	for i := range npis {
		if npis[i].Matches(nodeID, day, fromAge, toAge) && npis[i].Effectiveness > max {
			max = npis[i].Effectiveness
		}
	}
	return max
}

// IsEffective samples whether an active intervention blocks this contact:
// a Bernoulli draw at the maximum matching effectiveness. No draw is
// consumed when nothing matches, so intervention-free runs keep the same
// draw sequence regardless of the NPI list.
func IsEffective(npis []NPI, nodeID, day, fromAge, toAge int, rng *stochastic.Source) bool {
	eff := MaxEffectiveness(npis, nodeID, day, fromAge, toAge)
	if eff <= 0 {
		return false
	}
	return rng.Bernoulli(eff)
}
