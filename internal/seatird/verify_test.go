package seatird

import (
	"testing"

	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/priority"
	"github.com/epimodels/seatird-core/internal/schedule"
	"github.com/epimodels/seatird-core/internal/stockpile"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// TestFullPipelineConservation runs every mechanism at once for ten days and
// checks the global accounting every day: nobody appears or disappears, the
// counters only grow, and the vaccinated never exceed their population.
func TestFullPipelineConservation(t *testing.T) {
	params := DefaultParameters()
	params.AntiviralEffectiveness = 0.5
	params.AntiviralAdherence = 0.8
	params.AntiviralCapacity = 0.01
	params.VaccineEffectiveness = 0.8
	params.VaccineAdherence = 0.8
	params.VaccineCapacity = 0.01
	params.VaccineLatencyDays = 14
	params.AntiviralPriorityGroups = priority.NewSelections(priority.Group{
		Name:  "high risk",
		Risks: []int{1},
	})
	params.VaccinePriorityGroups = priority.NewSelections(priority.Group{
		Name: "children",
		Ages: []int{0, 1},
	})

	stock := stockpile.NewNetwork()
	stock.AddNode(1, 2500, 0)
	stock.AddDelivery(1, stockpile.Delivery{Day: 3, Kind: stockpile.Vaccines, Amount: 2000})
	stock.AddNode(2, 1000, 1000)

	cfg := Config{
		Nodes: []Node{
			{ID: 1, Name: "N1", Population: []PopulationCount{
				{Age: 0, Risk: 0, Count: 2000},
				{Age: 1, Risk: 0, Count: 3000},
				{Age: 2, Risk: 0, Count: 8000},
				{Age: 2, Risk: 1, Count: 1000},
				{Age: 3, Risk: 0, Count: 4000},
				{Age: 4, Risk: 1, Count: 2000},
			}},
			{ID: 2, Name: "N2", Population: []PopulationCount{
				{Age: 2, Risk: 0, Count: 9000},
				{Age: 4, Risk: 1, Count: 1000},
			}},
		},
		Travel: TravelMatrix{
			{1, 2}: 0.01,
			{2, 1}: 0.02,
		},
		Stockpiles: stock,
		Parameters: params,
		Seed:       42,
		Logger:     quietLogger(),
	}
	sim := newTestSim(t, cfg)
	initial := map[int]float64{1: 20000, 2: 10000}

	sim.Expose(300, 1, strat.Stratum{2, 0, 0})
	sim.Expose(100, 1, strat.Stratum{2, 1, 0})

	prevTreated := map[int]float64{}
	prevVaccPop := map[int]float64{}
	for d := 0; d < 10; d++ {
		sim.Simulate()
		day := sim.Day()
		for _, nodeID := range sim.NodeIDs() {
			if got := livingAndDeceased(sim, day, nodeID); got != initial[nodeID] {
				t.Fatalf("day %d node %d: compartments sum to %f, want %f", day, nodeID, got, initial[nodeID])
			}

			treated := sim.Value(compartment.Treated, day, nodeID)
			if treated < prevTreated[nodeID] {
				t.Errorf("day %d node %d: cumulative treated fell from %f to %f", day, nodeID, prevTreated[nodeID], treated)
			}
			prevTreated[nodeID] = treated

			daily := sim.Value(compartment.TreatedDaily, day, nodeID)
			ineff := sim.Value(compartment.TreatedIneffectiveDaily, day, nodeID)
			if ineff < 0 || ineff > daily {
				t.Errorf("day %d node %d: ineffective daily %f outside [0, %f]", day, nodeID, ineff, daily)
			}

			vaccPop := sim.Value(compartment.Population, day, nodeID, strat.All, strat.All, 1)
			deceasedVacc := sim.Value(compartment.Deceased, day, nodeID, strat.All, strat.All, 1)
			if vaccPop+deceasedVacc < prevVaccPop[nodeID] {
				t.Errorf("day %d node %d: vaccinated population fell from %f to %f", day, nodeID, prevVaccPop[nodeID], vaccPop+deceasedVacc)
			}
			prevVaccPop[nodeID] = vaccPop + deceasedVacc

			inLag := sim.Value(VaccinatedInLagPeriod, day, nodeID)
			if inLag < 0 || inLag > vaccPop+deceasedVacc {
				t.Errorf("day %d node %d: in-lag count %f exceeds ever-vaccinated %f", day, nodeID, inLag, vaccPop+deceasedVacc)
			}
		}
	}

	// the outbreak plus interventions actually did something
	if got := sim.Value(compartment.Treated, 10, 1); got <= 0 {
		t.Error("expected antiviral courses to be dispensed at N1")
	}
	if got := sim.Value(compartment.Population, 10, 2, strat.All, strat.All, 1); got <= 0 {
		t.Error("expected vaccinations at N2")
	}
}

// TestSelfCheckRunsClean exercises the self-check path end to end: a run
// with the verification enabled must come out with schedules still matching
// the compartment counts.
func TestSelfCheckRunsClean(t *testing.T) {
	cfg := twoNodeConfig()
	cfg.SelfCheck = true
	sim := newTestSim(t, cfg)
	sim.Expose(50, 1, strat.Stratum{2, 0, 0})

	for d := 0; d < 5; d++ {
		sim.Simulate()
	}
	if !sim.VerifySchedules() {
		t.Error("schedule-population invariant violated after a plain run")
	}
}

func TestScheduleCountIgnoresOtherStrata(t *testing.T) {
	sim := newTestSim(t, twoNodeConfig())
	sim.Expose(5, 1, strat.Stratum{2, 0, 0})

	if got := sim.ScheduleCount(1, schedule.StateExposed, strat.Stratum{2, 1, 0}); got != 0 {
		t.Errorf("schedule count for empty stratum = %d, want 0", got)
	}
	if got := sim.ScheduleCount(99, schedule.StateExposed, strat.Stratum{2, 0, 0}); got != 0 {
		t.Errorf("schedule count for unknown node = %d, want 0", got)
	}
}
