package seatird

import (
	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/ili"
	"github.com/epimodels/seatird-core/internal/npi"
	"github.com/epimodels/seatird-core/internal/schedule"
	"github.com/epimodels/seatird-core/internal/stockpile"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// Simulate advances the simulation by one day. The step copies every
// compartment forward, evolves the stockpiles, applies antiviral then
// vaccine passes, rebuilds the population caches, drains all events due
// within the day, runs inter-node travel, and appends the day's ILI rates.
// Errors never surface from a day step; accounting mismatches are logged
// and the clock always advances.
func (s *Simulation) Simulate() {
	s.now = float64(s.day)

	s.store.CopyForward()
	s.stockpiles.Evolve(s.day)

	if s.selfCheck {
		if !s.VerifySchedules() {
			s.log.Warn("failed verification of schedule counts", "day", s.day)
		}
	}

	// zero the per-day counters; multiple passes may run within one day
	next := s.day + 1
	s.store.ZeroDay(compartment.TreatedDaily, next)
	s.store.ZeroDay(compartment.TreatedIneffectiveDaily, next)
	s.store.ZeroDay(compartment.VaccinatedDaily, next)

	// apply treatments to the configured priority groups, then the
	// remainder pro-rata to the entire population
	s.applyAntivirals(s.params.AntiviralPriorityGroups)
	s.applyAntivirals(everyone)
	s.applyVaccines(s.params.VaccinePriorityGroups)
	s.applyVaccines(everyone)

	// vaccination moves individuals across the vaccinated axis, so the
	// caches must be rebuilt on the new day before events are processed
	s.precompute(next)

	for _, nodeID := range s.nodeIDs {
		q := s.queues[nodeID]
		for q.Len() > 0 && q.Peek().TopTime() < float64(next) {
			sched := q.PopMin()
			// cancelled schedules are destroyed at dequeue
			if sched.Empty() || sched.Cancelled() {
				continue
			}
			ev := sched.PopTop()
			s.now = ev.Time
			s.processEvent(nodeID, ev)
			if !sched.Empty() {
				q.Insert(sched)
			}
		}
	}

	s.now = float64(next)
	s.applyTravel()

	s.appendILI()

	s.day++
}

// appendILI records the surveillance rates for the completed day
func (s *Simulation) appendILI() {
	infectious := make([]float64, len(s.nodeIDs))
	population := make([]float64, len(s.nodeIDs))
	for i, id := range s.nodeIDs {
		infectious[i] = s.Value(AllInfected, s.day, id)
		population[i] = s.store.Value(compartment.Population, s.day, id)
	}
	s.iliValues = append(s.iliValues, ili.View(infectious, population, s.nodeIDs, s.providers))
}

// processEvent applies one scheduled event. Transition events are atomic
// compartment moves; contact events run the three-stage probabilistic
// filter identifying the contactee and may expose one more individual.
func (s *Simulation) processEvent(nodeID int, ev schedule.Event) {
	switch ev.Kind {
	case schedule.KindEtoA:
		s.transition(1, compartment.Exposed, compartment.Asymptomatic, nodeID, ev.From)
	case schedule.KindAtoT:
		s.transition(1, compartment.Asymptomatic, compartment.Treatable, nodeID, ev.From)
	case schedule.KindAtoR:
		s.transition(1, compartment.Asymptomatic, compartment.Recovered, nodeID, ev.From)
	case schedule.KindAtoD:
		s.transition(1, compartment.Asymptomatic, compartment.Deceased, nodeID, ev.From)
	case schedule.KindTtoI:
		s.transition(1, compartment.Treatable, compartment.Infectious, nodeID, ev.From)
	case schedule.KindTtoR:
		s.transition(1, compartment.Treatable, compartment.Recovered, nodeID, ev.From)
	case schedule.KindTtoD:
		s.transition(1, compartment.Treatable, compartment.Deceased, nodeID, ev.From)
	case schedule.KindItoR:
		s.transition(1, compartment.Infectious, compartment.Recovered, nodeID, ev.From)
	case schedule.KindItoD:
		s.transition(1, compartment.Infectious, compartment.Deceased, nodeID, ev.From)
	case schedule.KindContact:
		s.processContact(nodeID, ev)
	}
}

func (s *Simulation) processContact(nodeID int, ev schedule.Event) {
	// an active NPI may stop the contact outright
	if npi.IsEffective(s.params.NPIs, nodeID, int(s.now), ev.From.Age(), ev.TargetAge, s.rng) {
		return
	}

	ni := s.nodeIdx[nodeID]
	a, r := ev.TargetAge, ev.TargetRisk

	// stage one: is the contactee vaccinated? Draw a position within the
	// whole (age, risk) group; the vaccinated occupy the low positions.
	groupSize := int(s.pops[ni][a][r][0] + s.pops[ni][a][r][1])
	if groupSize <= 0 {
		return
	}
	vaccinatedSize := int(s.pops[ni][a][r][1])

	contact := s.rng.UniformInt(1, groupSize)

	v := 0
	if vaccinatedSize >= contact {
		v = 1

		// stage two: a contactee past the latency window may be protected
		latencySize := s.populationInVaccineLatency(nodeID, a, r)
		if latencySize < contact {
			if s.rng.Bernoulli(s.params.VaccineEffectiveness) {
				// the vaccine absorbed the contact
				return
			}
		}
	}

	// stage three: is the contactee susceptible? Draw within the concrete
	// stratum, excluding the source individual when it shares the stratum.
	to := strat.Stratum{a, r, v}
	targetSize := int(s.pops[ni][a][r][v])
	if ev.From == to {
		targetSize--
	}
	if targetSize <= 0 {
		return
	}
	contact = s.rng.UniformInt(1, targetSize)

	t := s.store.NumTimes() - 1
	if int(s.store.Value(compartment.Susceptible, t, nodeID, a, r, v)) >= contact {
		s.Expose(1, nodeID, to)
	}
}

// nodeStock returns the node's stockpile and its inventory of the kind on
// the given day; a nil stockpile means the node keeps no inventories.
func (s *Simulation) nodeStock(nodeID, day int, kind stockpile.Kind) (*stockpile.Stockpile, int) {
	sp := s.stockpiles.NodeStockpile(nodeID)
	if sp == nil {
		return nil, 0
	}
	return sp, sp.Num(day, kind)
}
