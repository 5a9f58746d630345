package schedule

import (
	"container/heap"
	"math"

	"github.com/epimodels/seatird-core/pkg/stochastic"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// Rates are the per-day transition rates a disease course is drawn from
type Rates struct {
	Tau   float64 // exposed -> asymptomatic
	Kappa float64 // asymptomatic -> treatable
	Chi   float64 // treatable -> infectious
	Gamma float64 // recovery
	Nu    float64 // death
}

// Schedule is one individual's planned disease course: a min-heap of events
// ordered by time, with insertion order breaking ties. The state tag tracks
// the transitions popped so far; the cancelled flag marks individuals whose
// course was rewritten away (treated) so the driver drops them at dequeue.
type Schedule struct {
	stratum   strat.Stratum
	state     State
	cancelled bool
	events    []Event
	nextSeq   int

	infectedTMin float64
	infectedTMax float64

	seq uint64 // assigned by Queue on insert
}

// New draws a complete disease course for one individual exposed at time
// now. At each branching state the competing transitions are sampled as
// independent exponential waiting times, drawn in a fixed order (progress,
// recover, die); the earliest wins. A zero rate yields an infinite waiting
// time but still consumes a draw, so the draw sequence is identical across
// parameterizations.
func New(now float64, rng *stochastic.Source, rates Rates, st strat.Stratum) *Schedule {
	s := &Schedule{
		stratum: st,
		state:   StateExposed,
	}

	tAsymptomatic := now + rng.Exp(rates.Tau)
	s.Insert(Event{Init: now, Time: tAsymptomatic, Kind: KindEtoA, From: st})
	s.infectedTMin = tAsymptomatic

	var tEnd float64
	dProgress := rng.Exp(rates.Kappa)
	dRecover := rng.Exp(rates.Gamma)
	dDie := rng.Exp(rates.Nu)
	switch {
	case dProgress <= dRecover && dProgress <= dDie:
		tTreatable := tAsymptomatic + dProgress
		s.Insert(Event{Init: tAsymptomatic, Time: tTreatable, Kind: KindAtoT, From: st})
		tEnd = s.drawTreatableCourse(tTreatable, rng, rates)
	case dRecover <= dDie:
		tEnd = tAsymptomatic + dRecover
		s.Insert(Event{Init: tAsymptomatic, Time: tEnd, Kind: KindAtoR, From: st})
	default:
		tEnd = tAsymptomatic + dDie
		s.Insert(Event{Init: tAsymptomatic, Time: tEnd, Kind: KindAtoD, From: st})
	}
	s.infectedTMax = tEnd
	return s
}

func (s *Schedule) drawTreatableCourse(tTreatable float64, rng *stochastic.Source, rates Rates) float64 {
	dProgress := rng.Exp(rates.Chi)
	dRecover := rng.Exp(rates.Gamma)
	dDie := rng.Exp(rates.Nu)
	switch {
	case dProgress <= dRecover && dProgress <= dDie:
		tInfectious := tTreatable + dProgress
		s.Insert(Event{Init: tTreatable, Time: tInfectious, Kind: KindTtoI, From: s.stratum})

		dRecover = rng.Exp(rates.Gamma)
		dDie = rng.Exp(rates.Nu)
		if dRecover <= dDie {
			tEnd := tInfectious + dRecover
			s.Insert(Event{Init: tInfectious, Time: tEnd, Kind: KindItoR, From: s.stratum})
			return tEnd
		}
		tEnd := tInfectious + dDie
		s.Insert(Event{Init: tInfectious, Time: tEnd, Kind: KindItoD, From: s.stratum})
		return tEnd
	case dRecover <= dDie:
		tEnd := tTreatable + dRecover
		s.Insert(Event{Init: tTreatable, Time: tEnd, Kind: KindTtoR, From: s.stratum})
		return tEnd
	default:
		tEnd := tTreatable + dDie
		s.Insert(Event{Init: tTreatable, Time: tEnd, Kind: KindTtoD, From: s.stratum})
		return tEnd
	}
}

// Stratum returns the individual's current stratum
func (s *Schedule) Stratum() strat.Stratum {
	return s.stratum
}

// State returns the disease state as of the transitions popped so far
func (s *Schedule) State() State {
	return s.state
}

// Cancelled reports whether the schedule has been cancelled
func (s *Schedule) Cancelled() bool {
	return s.cancelled
}

// Cancel marks the schedule cancelled. The driver destroys cancelled
// schedules when they reach the front of their node queue.
func (s *Schedule) Cancel() {
	s.cancelled = true
}

// Empty reports whether any events remain
func (s *Schedule) Empty() bool {
	return len(s.events) == 0
}

// NumEvents returns the number of pending events
func (s *Schedule) NumEvents() int {
	return len(s.events)
}

// InfectedTMin returns the time the individual becomes infectious to others
func (s *Schedule) InfectedTMin() float64 {
	return s.infectedTMin
}

// InfectedTMax returns the time the disease course ends
func (s *Schedule) InfectedTMax() float64 {
	return s.infectedTMax
}

// TopTime returns the time of the next pending event, or +Inf when empty
func (s *Schedule) TopTime() float64 {
	if len(s.events) == 0 {
		return math.Inf(1)
	}
	return s.events[0].Time
}

// Top returns the next pending event without removing it
func (s *Schedule) Top() Event {
	return s.events[0]
}

// PopTop removes and returns the next pending event and applies its state
// transition to the schedule's state tag.
func (s *Schedule) PopTop() Event {
	ev := heap.Pop(s).(Event)
	switch ev.Kind {
	case KindEtoA:
		s.state = StateAsymptomatic
	case KindAtoT:
		s.state = StateTreatable
	case KindTtoI:
		s.state = StateInfectious
	case KindAtoR, KindTtoR, KindItoR:
		s.state = StateRecovered
	case KindAtoD, KindTtoD, KindItoD:
		s.state = StateDeceased
	}
	return ev
}

// Insert adds an event, assigning its tie-break sequence number
func (s *Schedule) Insert(ev Event) {
	ev.seq = s.nextSeq
	s.nextSeq++
	heap.Push(s, ev)
}

// Restratify moves the individual to a new stratum, rewriting the From
// field of every pending event so later processing sees the new grouping.
func (s *Schedule) Restratify(st strat.Stratum) {
	s.stratum = st
	for i := range s.events {
		s.events[i].From = st
	}
}

// Len returns the number of pending events
func (s *Schedule) Len() int { return len(s.events) }

// Less orders events by time, then by insertion order
func (s *Schedule) Less(i, j int) bool {
	if s.events[i].Time != s.events[j].Time {
		return s.events[i].Time < s.events[j].Time
	}
	return s.events[i].seq < s.events[j].seq
}

// Swap swaps two events
func (s *Schedule) Swap(i, j int) {
	s.events[i], s.events[j] = s.events[j], s.events[i]
}

// Push adds an event (heap.Interface; use Insert)
func (s *Schedule) Push(x interface{}) {
	s.events = append(s.events, x.(Event))
}

// Pop removes the last event (heap.Interface; use PopTop)
func (s *Schedule) Pop() interface{} {
	old := s.events
	n := len(old)
	ev := old[n-1]
	s.events = old[:n-1]
	return ev
}
