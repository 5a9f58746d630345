// Package priority expresses which population strata an intervention pass
// targets. A group names value lists per stratification axis (empty list =
// every value); a Selections is an ordered list of groups whose expansion
// into concrete strata preserves registration order and drops duplicates,
// so earlier groups take precedence in pro-rata allocations.
package priority

import "github.com/epimodels/seatird-core/pkg/strat"

// Group selects strata by per-axis value lists. A nil or empty list selects
// every value on that axis.
type Group struct {
	Name       string
	Ages       []int
	Risks      []int
	Vaccinated []int
}

// Selections is an ordered collection of priority groups
type Selections struct {
	groups []Group
}

// NewSelections creates a selection over the given groups in order
func NewSelections(groups ...Group) *Selections {
	return &Selections{groups: append([]Group(nil), groups...)}
}

// Everyone returns a selection covering the entire population
func Everyone() *Selections {
	return NewSelections(Group{Name: "everyone"})
}

// Empty reports whether the selection contains no groups
func (s *Selections) Empty() bool {
	return s == nil || len(s.groups) == 0
}

// Groups returns the groups in registration order
func (s *Selections) Groups() []Group {
	if s == nil {
		return nil
	}
	return append([]Group(nil), s.groups...)
}

// StratificationSet expands the selection into concrete (age, risk,
// vaccinated) strata: group by group, axis values in list order (full axis
// order for empty lists), duplicates dropped on later appearances.
func (s *Selections) StratificationSet() [][3]int {
	if s == nil {
		return nil
	}
	var set [][3]int
	seen := make(map[[3]int]bool)
	for _, g := range s.groups {
		for _, a := range axisValues(g.Ages, strat.NumAgeGroups) {
			for _, r := range axisValues(g.Risks, strat.NumRiskGroups) {
				for _, v := range axisValues(g.Vaccinated, strat.NumVaccinatedGroups) {
					e := [3]int{a, r, v}
					if !seen[e] {
						seen[e] = true
						set = append(set, e)
					}
				}
			}
		}
	}
	return set
}

// StratificationPairs expands the selection into concrete (age, risk) pairs,
// ignoring the vaccinated axis. Vaccination passes use the pairs and handle
// the vaccinated axis themselves.
func (s *Selections) StratificationPairs() [][2]int {
	if s == nil {
		return nil
	}
	var pairs [][2]int
	seen := make(map[[2]int]bool)
	for _, g := range s.groups {
		for _, a := range axisValues(g.Ages, strat.NumAgeGroups) {
			for _, r := range axisValues(g.Risks, strat.NumRiskGroups) {
				e := [2]int{a, r}
				if !seen[e] {
					seen[e] = true
					pairs = append(pairs, e)
				}
			}
		}
	}
	return pairs
}

func axisValues(vals []int, size int) []int {
	if len(vals) > 0 {
		return vals
	}
	all := make([]int, size)
	for i := range all {
		all[i] = i
	}
	return all
}
