// Package seatirdd hosts the simulation daemon: an HTTP control surface
// over a store of runs, an executor stepping simulations day by day in the
// background, and the optional archive of completed runs.
package seatirdd

import (
	"fmt"
	"log/slog"

	"github.com/epimodels/seatird-core/internal/ili"
	"github.com/epimodels/seatird-core/internal/npi"
	"github.com/epimodels/seatird-core/internal/priority"
	"github.com/epimodels/seatird-core/internal/seatird"
	"github.com/epimodels/seatird-core/internal/stockpile"
	"github.com/epimodels/seatird-core/pkg/config"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// BuildSimulation assembles a simulation from a parsed scenario and seeds
// its initial exposures.
func BuildSimulation(scn *config.Scenario, log *slog.Logger) (*seatird.Simulation, error) {
	ps := scn.Parameters.Resolve()

	params := seatird.Parameters{
		R0:                      ps.R0,
		BetaScale:               ps.BetaScale,
		Tau:                     ps.Tau,
		Kappa:                   ps.Kappa,
		Chi:                     ps.Chi,
		Gamma:                   ps.Gamma,
		Nu:                      ps.Nu,
		AntiviralEffectiveness:  ps.AntiviralEffectiveness,
		AntiviralAdherence:      ps.AntiviralAdherence,
		AntiviralCapacity:       ps.AntiviralCapacity,
		VaccineEffectiveness:    ps.VaccineEffectiveness,
		VaccineAdherence:        ps.VaccineAdherence,
		VaccineCapacity:         ps.VaccineCapacity,
		VaccineLatencyDays:      ps.VaccineLatencyDays,
		AntiviralPriorityGroups: buildSelections(scn.AntiviralPriorityGroups),
		VaccinePriorityGroups:   buildSelections(scn.VaccinePriorityGroups),
	}
	for _, n := range scn.NPIs {
		params.NPIs = append(params.NPIs, npi.NPI{
			Name:          n.Name,
			Nodes:         n.Nodes,
			DayStart:      n.DayStart,
			DayEnd:        n.DayEnd,
			FromAges:      n.FromAges,
			ToAges:        n.ToAges,
			Effectiveness: n.Effectiveness,
		})
	}

	nodes := make([]seatird.Node, 0, len(scn.Nodes))
	stockpiles := stockpile.NewNetwork()
	for _, n := range scn.Nodes {
		node := seatird.Node{ID: n.ID, Name: n.Name}
		for _, g := range n.Population {
			node.Population = append(node.Population, seatird.PopulationCount{Age: g.Age, Risk: g.Risk, Count: g.Count})
		}
		nodes = append(nodes, node)

		if n.Antivirals > 0 || n.Vaccines > 0 || len(n.Deliveries) > 0 {
			stockpiles.AddNode(n.ID, n.Antivirals, n.Vaccines)
			for _, d := range n.Deliveries {
				kind, err := deliveryKind(d.Kind)
				if err != nil {
					return nil, fmt.Errorf("node %d: %w", n.ID, err)
				}
				stockpiles.AddDelivery(n.ID, stockpile.Delivery{Day: d.Day, Kind: kind, Amount: d.Amount})
			}
		}
	}

	travel := seatird.TravelMatrix{}
	for _, e := range scn.Travel {
		travel[[2]int{e.To, e.From}] = e.Fraction
	}

	var providers []ili.Provider
	for _, p := range scn.ILIProviders {
		providers = append(providers, ili.Provider{NodeID: p.Node, Weight: p.Weight})
	}

	sim, err := seatird.New(seatird.Config{
		Nodes:      nodes,
		Travel:     travel,
		Stockpiles: stockpiles,
		Parameters: params,
		Seed:       scn.Seed,
		Providers:  providers,
		SelfCheck:  scn.SelfCheck,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	for _, e := range scn.InitialExposures {
		st := strat.Stratum{e.Age, e.Risk, e.Vaccinated}
		if got := sim.Expose(e.Count, e.Node, st); got != e.Count {
			log.Warn("initial exposure clamped by available susceptibles",
				"node", e.Node, "requested", e.Count, "exposed", got)
		}
	}
	return sim, nil
}

func buildSelections(groups []config.PriorityGroup) *priority.Selections {
	if len(groups) == 0 {
		return nil
	}
	converted := make([]priority.Group, 0, len(groups))
	for _, g := range groups {
		converted = append(converted, priority.Group{
			Name:       g.Name,
			Ages:       g.Ages,
			Risks:      g.Risks,
			Vaccinated: g.Vaccinated,
		})
	}
	return priority.NewSelections(converted...)
}

func deliveryKind(s string) (stockpile.Kind, error) {
	switch s {
	case "antivirals":
		return stockpile.Antivirals, nil
	case "vaccines":
		return stockpile.Vaccines, nil
	default:
		return 0, fmt.Errorf("unknown delivery kind %q", s)
	}
}
