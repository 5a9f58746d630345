package seatird

import (
	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/priority"
	"github.com/epimodels/seatird-core/internal/schedule"
	"github.com/epimodels/seatird-core/internal/stockpile"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// everyone covers the entire population: after the configured priority
// groups are served, the remaining stockpile goes out pro-rata to all.
var everyone = priority.Everyone()

// applyAntivirals distributes the day's antiviral stockpile to the treatable
// population of the selected strata, pro-rata by each stratum's adherent
// treatable count. Effectively treated individuals move to recovered and
// their schedules are cancelled by a probabilistic walk over the node queue,
// keeping the scheduled events a faithful sample of the surviving
// population.
func (s *Simulation) applyAntivirals(sel *priority.Selections) {
	if sel.Empty() {
		s.log.Debug("no priority groups in selection")
		return
	}

	effectiveness := s.params.AntiviralEffectiveness
	adherence := s.params.AntiviralAdherence
	capacity := s.params.AntiviralCapacity

	next := s.day + 1
	set := sel.StratificationSet()

	for _, nodeID := range s.nodeIDs {
		sp, stock := s.nodeStock(nodeID, next, stockpile.Antivirals)
		if sp == nil || stock == 0 {
			continue
		}

		// adherent treatable population of the whole selection; those
		// already treated ineffectively today are not re-treated
		totalTreatable := s.store.ValueSet(compartment.Treatable, next, nodeID, set) -
			s.store.ValueSet(compartment.TreatedIneffectiveDaily, next, nodeID, set)
		if totalTreatable <= 0 {
			continue
		}
		totalAdherent := adherence * totalTreatable

		used := stock
		if used > int(totalAdherent) {
			used = int(totalAdherent)
		}

		// daily capacity is a fraction of the whole node population,
		// shared across every pass run today
		capacityPopulation := s.store.Value(compartment.Population, next, nodeID)
		usedToday := s.store.Value(compartment.TreatedDaily, next, nodeID)
		if limit := int(capacity*capacityPopulation - usedToday); used > limit {
			used = limit
		}
		if used <= 0 {
			continue
		}

		sp.SetNum(next, stockpile.Antivirals, stock-used)

		var treated, effective [strat.NumAgeGroups][strat.NumRiskGroups][strat.NumVaccinatedGroups]int
		var treatable [strat.NumAgeGroups][strat.NumRiskGroups][strat.NumVaccinatedGroups]float64
		totalTreated := 0
		totalEffective := 0

		for _, e := range set {
			a, r, v := e[0], e[1], e[2]
			st := strat.Stratum{a, r, v}

			stratumTreatable := s.store.Value(compartment.Treatable, next, nodeID, a, r, v) -
				s.store.Value(compartment.TreatedIneffectiveDaily, next, nodeID, a, r, v)
			if stratumTreatable <= 0 {
				continue
			}

			adherent := adherence * stratumTreatable
			treated[a][r][v] = int(adherent / totalAdherent * float64(used))
			effective[a][r][v] = int(effectiveness * float64(treated[a][r][v]))
			treatable[a][r][v] = stratumTreatable
			totalTreated += treated[a][r][v]
			totalEffective += effective[a][r][v]

			if treated[a][r][v] <= 0 {
				continue
			}

			s.transition(effective[a][r][v], compartment.Treatable, compartment.Recovered, nodeID, st)
			s.store.Add(compartment.TreatedDaily, next, nodeID, st, float64(treated[a][r][v]))
			s.store.Add(compartment.TreatedIneffectiveDaily, next, nodeID, st, float64(treated[a][r][v]-effective[a][r][v]))
			s.store.Add(compartment.Treated, next, nodeID, st, float64(treated[a][r][v]))
		}

		// integer division residue of the pro-rata split
		if totalTreated != used {
			s.log.Warn("treated count does not match stockpile used",
				"node", nodeID, "treated", totalTreated, "used", used)
		}

		// cancel the schedules of the effectively treated: an unbiased
		// random subset of the matching treatable schedules
		for _, sched := range s.queues[nodeID].Items() {
			if totalEffective <= 0 {
				break
			}
			if sched.State() != schedule.StateTreatable {
				continue
			}
			st := sched.Stratum()
			a, r, v := st.Age(), st.Risk(), st.Vaccinated()
			if effective[a][r][v] <= 0 {
				continue
			}
			if !sched.Cancelled() && s.rng.Bernoulli(float64(effective[a][r][v])/treatable[a][r][v]) {
				sched.Cancel()
				effective[a][r][v]--
				totalEffective--
			}
			treatable[a][r][v]--
		}

		if totalEffective != 0 {
			s.log.Warn("effectively treated schedules not fully cancelled",
				"node", nodeID, "remaining", totalEffective)
		}
	}
}
