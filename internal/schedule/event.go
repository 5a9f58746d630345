// Package schedule implements the per-individual event schedules of the
// simulation and the per-node priority queue that drains them. Each exposed
// individual owns a Schedule: a min-heap of timed events covering the whole
// disease course drawn up-front at exposure time. A node's Queue orders its
// live schedules by the time of their next event.
package schedule

import (
	"github.com/epimodels/seatird-core/pkg/strat"
)

// State is the disease state an individual is in between events
type State uint8

const (
	StateExposed State = iota
	StateAsymptomatic
	StateTreatable
	StateInfectious
	StateRecovered
	StateDeceased
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateExposed:
		return "exposed"
	case StateAsymptomatic:
		return "asymptomatic"
	case StateTreatable:
		return "treatable"
	case StateInfectious:
		return "infectious"
	case StateRecovered:
		return "recovered"
	case StateDeceased:
		return "deceased"
	default:
		return "unknown"
	}
}

// Kind identifies what an event does when it fires: a disease state
// transition, or a contact with another individual.
type Kind uint8

const (
	KindEtoA Kind = iota
	KindAtoT
	KindAtoR
	KindAtoD
	KindTtoI
	KindTtoR
	KindTtoD
	KindItoR
	KindItoD
	KindContact
)

// String returns the event kind name
func (k Kind) String() string {
	switch k {
	case KindEtoA:
		return "exposed->asymptomatic"
	case KindAtoT:
		return "asymptomatic->treatable"
	case KindAtoR:
		return "asymptomatic->recovered"
	case KindAtoD:
		return "asymptomatic->deceased"
	case KindTtoI:
		return "treatable->infectious"
	case KindTtoR:
		return "treatable->recovered"
	case KindTtoD:
		return "treatable->deceased"
	case KindItoR:
		return "infectious->recovered"
	case KindItoD:
		return "infectious->deceased"
	case KindContact:
		return "contact"
	default:
		return "unknown"
	}
}

// Transition reports whether the kind changes the disease state
func (k Kind) Transition() bool {
	return k != KindContact
}

// Event is one timed occurrence in an individual's schedule.
//
// From holds the individual's stratum as of the event; restratification
// rewrites it in place for pending events. TargetAge and TargetRisk are only
// meaningful for contact events and name the group the contact lands in.
type Event struct {
	Init       float64
	Time       float64
	Kind       Kind
	From       strat.Stratum
	TargetAge  int
	TargetRisk int

	seq int
}
