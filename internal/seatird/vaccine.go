package seatird

import (
	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/priority"
	"github.com/epimodels/seatird-core/internal/schedule"
	"github.com/epimodels/seatird-core/internal/stockpile"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// vaccineCompartments are the living compartments a vaccine pass treats;
// the deceased are excluded. The order fixes the compartment indexes used
// by the schedule rewrite below.
var vaccineCompartments = [6]string{
	compartment.Susceptible,
	compartment.Exposed,
	compartment.Asymptomatic,
	compartment.Treatable,
	compartment.Infectious,
	compartment.Recovered,
}

// stateCompartmentIndex maps a schedule state to its index in
// vaccineCompartments. Only unvaccinated individuals with live schedules
// need restratification, so susceptible has no entry.
var stateCompartmentIndex = map[schedule.State]int{
	schedule.StateExposed:      1,
	schedule.StateAsymptomatic: 2,
	schedule.StateTreatable:    3,
	schedule.StateInfectious:   4,
	schedule.StateRecovered:    5,
}

// applyVaccines distributes the day's vaccine stockpile across the
// unvaccinated of the selected strata, pro-rata by each (compartment, age,
// risk) bucket's adherent unvaccinated count. Vaccinated individuals move
// to the vaccinated stratum in their compartment and in the population;
// their schedules are restratified, not cancelled, by a probabilistic walk
// over the node queue.
func (s *Simulation) applyVaccines(sel *priority.Selections) {
	if sel.Empty() {
		s.log.Debug("no priority groups in selection")
		return
	}

	adherence := s.params.VaccineAdherence
	capacity := s.params.VaccineCapacity

	next := s.day + 1
	pairs := sel.StratificationPairs()

	for _, nodeID := range s.nodeIDs {
		sp, stock := s.nodeStock(nodeID, next, stockpile.Vaccines)
		if sp == nil || stock == 0 {
			continue
		}

		totalPopulation := s.store.ValueSet(compartment.Population, next, nodeID, pairsWithV(pairs, strat.All))
		totalVaccinated := s.store.ValueSet(compartment.Population, next, nodeID, pairsWithV(pairs, 1))
		totalUnvaccinated := s.store.ValueSet(compartment.Population, next, nodeID, pairsWithV(pairs, 0))
		if totalUnvaccinated <= 0 {
			continue
		}

		// the adherent pool shrinks as the vaccinated accumulate
		totalAdherent := adherence*totalPopulation - totalVaccinated

		used := stock
		if used > int(totalAdherent) {
			used = int(totalAdherent)
		}

		capacityPopulation := s.store.Value(compartment.Population, next, nodeID)
		usedToday := s.store.Value(compartment.VaccinatedDaily, next, nodeID, strat.All, strat.All, 1)
		if limit := int(capacity*capacityPopulation - usedToday); used > limit {
			used = limit
		}
		if used <= 0 {
			continue
		}

		sp.SetNum(next, stockpile.Vaccines, stock-used)

		// counts per (compartment, age, risk); everyone vaccinated today
		// lands in the vaccinated stratum of the same compartment
		var vaccinated, vaccinatable [len(vaccineCompartments)][strat.NumAgeGroups][strat.NumRiskGroups]int
		totalMoved := 0

		for c, comp := range vaccineCompartments {
			for _, pair := range pairs {
				a, r := pair[0], pair[1]

				population := s.store.Value(compartment.Population, next, nodeID, a, r, strat.All)
				vaccinatedPopulation := s.store.Value(compartment.Population, next, nodeID, a, r, 1)
				unvaccinatedPopulation := s.store.Value(compartment.Population, next, nodeID, a, r, 0)
				compartmentUnvaccinated := s.store.Value(comp, next, nodeID, a, r, 0)

				// for probabilistically choosing which schedules change stratum
				vaccinatable[c][a][r] = int(compartmentUnvaccinated)

				if unvaccinatedPopulation <= 0 {
					continue
				}

				// adherent unvaccinated population, weighted by the share
				// of the unvaccinated that sit in this compartment
				adherent := (adherence*population - vaccinatedPopulation) * compartmentUnvaccinated / unvaccinatedPopulation

				vaccinated[c][a][r] = int(adherent / totalAdherent * float64(used))
				totalMoved += vaccinated[c][a][r]
				if vaccinated[c][a][r] <= 0 {
					continue
				}

				n := float64(vaccinated[c][a][r])
				s.store.Add(comp, next, nodeID, strat.Stratum{a, r, 0}, -n)
				s.store.Add(comp, next, nodeID, strat.Stratum{a, r, 1}, n)
				s.store.Add(compartment.Population, next, nodeID, strat.Stratum{a, r, 0}, -n)
				s.store.Add(compartment.Population, next, nodeID, strat.Stratum{a, r, 1}, n)
				s.store.Add(compartment.VaccinatedDaily, next, nodeID, strat.Stratum{a, r, 1}, n)
			}
		}

		// integer division residue of the pro-rata split
		if totalMoved != used {
			s.log.Warn("vaccinated count does not match stockpile used",
				"node", nodeID, "vaccinated", totalMoved, "used", used)
		}

		// restratify a matching random subset of the unvaccinated
		// schedules; susceptibles carry no schedules, so the remainder is
		// expected to be non-zero here
		remaining := totalMoved
		for _, sched := range s.queues[nodeID].Items() {
			if remaining <= 0 {
				break
			}
			c, ok := stateCompartmentIndex[sched.State()]
			if !ok {
				continue
			}
			st := sched.Stratum()
			if st.Vaccinated() == 1 {
				continue
			}
			a, r := st.Age(), st.Risk()
			if vaccinated[c][a][r] <= 0 {
				continue
			}
			if !sched.Cancelled() && s.rng.Bernoulli(float64(vaccinated[c][a][r])/float64(vaccinatable[c][a][r])) {
				sched.Restratify(st.WithVaccinated(1))
				vaccinated[c][a][r]--
				remaining--
			}
			vaccinatable[c][a][r]--
		}
	}
}

// pairsWithV expands (age, risk) pairs into stratum triples with the
// vaccinated axis forced to v (or All).
func pairsWithV(pairs [][2]int, v int) [][3]int {
	out := make([][3]int, len(pairs))
	for i, p := range pairs {
		out[i] = [3]int{p[0], p[1], v}
	}
	return out
}
