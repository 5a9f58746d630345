package seatird

import (
	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/npi"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// applyTravel exposes susceptibles at each node to the infectious populations
// of every connected node. For each sink the per-age exposure probability
// accumulates contributions from residents visiting infectious nodes and
// from infectious visitors; the realized exposures per stratum are a
// binomial draw over the sink's susceptibles.
func (s *Simulation) applyTravel() {
	next := s.day + 1
	beta := s.params.beta()
	vaccineEffectiveness := s.params.VaccineEffectiveness

	for si, sinkID := range s.nodeIDs {
		populationSink := s.popNodes[si]

		var probabilities [strat.NumAgeGroups]float64

		for sj, sourceID := range s.nodeIDs {
			if sourceID == sinkID {
				continue
			}
			fractionIJ := s.travel.Fraction(sinkID, sourceID)
			fractionJI := s.travel.Fraction(sourceID, sinkID)
			if fractionIJ <= 0 && fractionJI <= 0 {
				continue
			}
			populationSource := s.popNodes[sj]

			var asymptomatics, transmittings [strat.NumAgeGroups]float64
			for b := 0; b < strat.NumAgeGroups; b++ {
				asymptomatics[b] = s.store.Value(compartment.Asymptomatic, next, sourceID, b)
				transmittings[b] = asymptomatics[b] +
					s.store.Value(compartment.Treatable, next, sourceID, b) +
					s.store.Value(compartment.Infectious, next, sourceID, b)
			}

			for a := 0; a < strat.NumAgeGroups; a++ {
				contactsIJ := 0.0 // sink residents contacting the infectious while visiting the source
				contactsJI := 0.0 // asymptomatic source residents visiting the sink

				for b := 0; b < strat.NumAgeGroups; b++ {
					npiAtSink := npi.MaxEffectiveness(s.params.NPIs, sinkID, int(s.now), a, b)
					npiAtSource := npi.MaxEffectiveness(s.params.NPIs, sourceID, int(s.now), a, b)

					contactsIJ += (1 - npiAtSource) * transmittings[b] * beta * rho * contactMatrix[a][b] * sigma[a] / ageFlowReductions[a]
					contactsJI += (1 - npiAtSink) * asymptomatics[b] * beta * rho * contactMatrix[a][b] * sigma[a] / ageFlowReductions[b]
				}

				if populationSource > 0 {
					probabilities[a] += fractionIJ * contactsIJ / populationSource
				}
				if populationSink > 0 {
					probabilities[a] += fractionJI * contactsJI / populationSink
				}
			}
		}

		for a := 0; a < strat.NumAgeGroups; a++ {
			for r := 0; r < strat.NumRiskGroups; r++ {
				for v := 0; v < strat.NumVaccinatedGroups; v++ {
					probability := probabilities[a]

					if v == 1 {
						// attenuate by the vaccine, weighted by the share
						// of the vaccinated past the latency window
						vaccinatedPopulation := s.pops[si][a][r][1]
						if vaccinatedPopulation > 0 {
							latency := float64(s.populationInVaccineLatency(sinkID, a, r))
							effective := vaccineEffectiveness * (vaccinatedPopulation - latency) / vaccinatedPopulation
							probability *= 1 - effective
						}
					}
					if probability < 0 {
						probability = 0
					} else if probability > 1 {
						probability = 1
					}

					susceptible := int(s.store.Value(compartment.Susceptible, next, sinkID, a, r, v) + 0.5)
					if susceptible > 0 {
						exposures := s.rng.Binomial(susceptible, probability)
						s.Expose(exposures, sinkID, strat.Stratum{a, r, v})
					}
				}
			}
		}
	}
}
