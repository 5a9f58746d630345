// Package compartment stores the stratified population counts of a
// simulation as dense per-day slabs. Every variable is a float64 grid over
// [day][node][age][risk][vaccinated]; queries may leave trailing axes
// unspecified or pass the All sentinel to fold (sum) across an axis.
package compartment

import (
	"fmt"

	"github.com/epimodels/seatird-core/pkg/strat"
)

// Names of the stored epidemic variables, in registration order.
const (
	Susceptible             = "susceptible"
	Exposed                 = "exposed"
	Asymptomatic            = "asymptomatic"
	Treatable               = "treatable"
	Infectious              = "infectious"
	Recovered               = "recovered"
	Deceased                = "deceased"
	Population              = "population"
	Treated                 = "treated"
	TreatedDaily            = "treated (daily)"
	TreatedIneffectiveDaily = "treated (ineffective daily)"
	VaccinatedDaily         = "vaccinated (daily)"
)

// Variables returns the standard epidemic variable names in registration order
func Variables() []string {
	return []string{
		Susceptible,
		Exposed,
		Asymptomatic,
		Treatable,
		Infectious,
		Recovered,
		Deceased,
		Population,
		Treated,
		TreatedDaily,
		TreatedIneffectiveDaily,
		VaccinatedDaily,
	}
}

// Store holds per-variable time series of stratified counts for a fixed set
// of nodes. It starts with a single day (day 0) and grows one day at a time
// via CopyForward. The store is not safe for concurrent use.
type Store struct {
	nodeIDs []int
	nodeIdx map[int]int
	names   []string
	data    map[string][]float64
	times   int
}

// New creates a store for the given nodes with the given variables, all
// values zeroed at day 0.
func New(nodeIDs []int, variables []string) (*Store, error) {
	if len(nodeIDs) == 0 {
		return nil, fmt.Errorf("at least one node must be defined")
	}
	if len(variables) == 0 {
		return nil, fmt.Errorf("at least one variable must be defined")
	}

	s := &Store{
		nodeIDs: append([]int(nil), nodeIDs...),
		nodeIdx: make(map[int]int, len(nodeIDs)),
		data:    make(map[string][]float64, len(variables)),
		times:   1,
	}
	for i, id := range nodeIDs {
		if _, dup := s.nodeIdx[id]; dup {
			return nil, fmt.Errorf("duplicate node id: %d", id)
		}
		s.nodeIdx[id] = i
	}
	for _, name := range variables {
		if name == "" {
			return nil, fmt.Errorf("variable name cannot be empty")
		}
		if _, dup := s.data[name]; dup {
			return nil, fmt.Errorf("duplicate variable name: %s", name)
		}
		s.names = append(s.names, name)
		s.data[name] = make([]float64, s.slabSize())
	}
	return s, nil
}

func (s *Store) slabSize() int {
	return len(s.nodeIDs) * strat.NumStrata
}

func (s *Store) index(t, node, a, r, v int) int {
	return ((((t*len(s.nodeIDs)+node)*strat.NumAgeGroups+a)*strat.NumRiskGroups + r) * strat.NumVaccinatedGroups) + v
}

// NumTimes returns the number of stored days (day indexes 0..NumTimes-1)
func (s *Store) NumTimes() int {
	return s.times
}

// NumNodes returns the number of nodes
func (s *Store) NumNodes() int {
	return len(s.nodeIDs)
}

// NodeIDs returns the node identifiers in storage order
func (s *Store) NodeIDs() []int {
	return append([]int(nil), s.nodeIDs...)
}

// HasNode reports whether the node id is part of the store
func (s *Store) HasNode(nodeID int) bool {
	_, ok := s.nodeIdx[nodeID]
	return ok
}

// HasVariable reports whether the named variable is stored
func (s *Store) HasVariable(name string) bool {
	_, ok := s.data[name]
	return ok
}

// VariableNames returns the stored variable names in registration order
func (s *Store) VariableNames() []string {
	return append([]string(nil), s.names...)
}

// CopyForward appends a new day to every variable, initialized as a copy of
// the latest day, and returns the new day index.
func (s *Store) CopyForward() int {
	size := s.slabSize()
	for _, name := range s.names {
		data := s.data[name]
		last := data[len(data)-size:]
		s.data[name] = append(data, last...)
	}
	s.times++
	return s.times - 1
}

// ZeroDay resets every value of the named variable at the given day to zero
func (s *Store) ZeroDay(name string, t int) {
	data, ok := s.data[name]
	if !ok || t < 0 || t >= s.times {
		return
	}
	size := s.slabSize()
	slab := data[t*size : (t+1)*size]
	for i := range slab {
		slab[i] = 0
	}
}

// Value returns the value of the named variable at day t for the node,
// summed across every axis left unspecified or set to All. Unknown names,
// nodes, days, or axis values yield 0.
func (s *Store) Value(name string, t, nodeID int, vals ...int) float64 {
	data, ok := s.data[name]
	if !ok {
		return 0
	}
	node, ok := s.nodeIdx[nodeID]
	if !ok || t < 0 || t >= s.times {
		return 0
	}

	query := [3]int{strat.All, strat.All, strat.All}
	for i := 0; i < len(vals) && i < 3; i++ {
		query[i] = vals[i]
	}
	sizes := strat.AxisSizes()
	for i := range query {
		if !strat.ValidAxisValue(query[i], sizes[i]) {
			return 0
		}
	}

	a0, a1 := axisBounds(query[0], strat.NumAgeGroups)
	r0, r1 := axisBounds(query[1], strat.NumRiskGroups)
	v0, v1 := axisBounds(query[2], strat.NumVaccinatedGroups)

	sum := 0.0
	for a := a0; a <= a1; a++ {
		for r := r0; r <= r1; r++ {
			for v := v0; v <= v1; v++ {
				sum += data[s.index(t, node, a, r, v)]
			}
		}
	}
	return sum
}

// ValueSet sums the named variable over a set of strata. Entries may carry
// All on individual axes.
func (s *Store) ValueSet(name string, t, nodeID int, set [][3]int) float64 {
	sum := 0.0
	for _, e := range set {
		sum += s.Value(name, t, nodeID, e[0], e[1], e[2])
	}
	return sum
}

// Set assigns the value at a complete stratum. Calls with unknown names or
// out-of-range coordinates are ignored; callers address cells they created.
func (s *Store) Set(name string, t, nodeID int, st strat.Stratum, val float64) {
	data, ok := s.data[name]
	if !ok {
		return
	}
	node, ok := s.nodeIdx[nodeID]
	if !ok || t < 0 || t >= s.times || !st.Complete() {
		return
	}
	data[s.index(t, node, st[0], st[1], st[2])] = val
}

// Add adds delta to the value at a complete stratum
func (s *Store) Add(name string, t, nodeID int, st strat.Stratum, delta float64) {
	data, ok := s.data[name]
	if !ok {
		return
	}
	node, ok := s.nodeIdx[nodeID]
	if !ok || t < 0 || t >= s.times || !st.Complete() {
		return
	}
	data[s.index(t, node, st[0], st[1], st[2])] += delta
}

func axisBounds(v, size int) (int, int) {
	if v == strat.All {
		return 0, size - 1
	}
	return v, v
}
