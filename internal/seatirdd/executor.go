package seatirdd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/seatird"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// ErrRunActive is returned when starting a run that is already running
var ErrRunActive = errors.New("run already started")

// Archiver persists completed runs. The executor treats archiving as best
// effort: failures are logged, not surfaced.
type Archiver interface {
	SaveRun(run Run, result Result, scenarioYAML string, sim *seatird.Simulation) error
}

// Executor drives runs to completion in background goroutines, one per
// active run, stepping one simulated day at a time.
type Executor struct {
	log     *slog.Logger
	store   *RunStore
	archive Archiver

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewExecutor creates an executor over the store; archive may be nil
func NewExecutor(store *RunStore, archive Archiver, log *slog.Logger) *Executor {
	return &Executor{
		log:     log,
		store:   store,
		archive: archive,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start builds the run's simulation and launches its background stepper.
// The run must be pending; starting a terminal run returns ErrRunTerminal.
func (e *Executor) Start(ctx context.Context, id string) error {
	rec, err := e.store.Get(id)
	if err != nil {
		return err
	}

	var startErr error
	rec.With(func() {
		switch {
		case rec.Run.Status.Terminal():
			startErr = ErrRunTerminal
			return
		case rec.Run.Status == StatusRunning:
			startErr = ErrRunActive
			return
		}

		sim, err := BuildSimulation(rec.Scenario, e.log)
		if err != nil {
			rec.Run.Status = StatusFailed
			rec.Run.Error = err.Error()
			rec.Run.EndedAtUnixMs = nowUnixMs()
			startErr = fmt.Errorf("build simulation: %w", err)
			return
		}
		rec.Sim = sim
		rec.Run.Seed = sim.Seed()
		rec.Run.Status = StatusRunning
		rec.Run.StartedAtUnixMs = nowUnixMs()
	})
	if startErr != nil {
		return startErr
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancels[id] = cancel
	e.mu.Unlock()

	go e.run(runCtx, rec)
	return nil
}

// Stop cancels a running run. Stopping a terminal run returns ErrRunTerminal.
func (e *Executor) Stop(id string) error {
	rec, err := e.store.Get(id)
	if err != nil {
		return err
	}
	if rec.Snapshot().Status.Terminal() {
		return ErrRunTerminal
	}

	e.mu.Lock()
	cancel, ok := e.cancels[id]
	e.mu.Unlock()
	if !ok {
		// pending run with no goroutine yet: cancel it directly
		rec.With(func() {
			rec.Run.Status = StatusCancelled
			rec.Run.EndedAtUnixMs = nowUnixMs()
		})
		return nil
	}
	cancel()
	return nil
}

func (e *Executor) cleanup(id string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[id]; ok {
		cancel()
		delete(e.cancels, id)
	}
	e.mu.Unlock()
}

// run steps the simulation one day per iteration, checking for cancellation
// between days so a stop never tears a day in half.
func (e *Executor) run(ctx context.Context, rec *RunRecord) {
	id := rec.Snapshot().ID
	defer e.cleanup(id)

	days := rec.Snapshot().Days
	for d := 0; d < days; d++ {
		select {
		case <-ctx.Done():
			rec.With(func() {
				rec.Run.Status = StatusCancelled
				rec.Run.EndedAtUnixMs = nowUnixMs()
			})
			e.log.Info("run cancelled", "run_id", id, "days_completed", d)
			return
		default:
		}

		rec.With(func() {
			rec.Sim.Simulate()
			rec.Run.DaysCompleted = rec.Sim.Day()
		})
	}

	var run Run
	var result Result
	rec.With(func() {
		result = Summarize(rec.Sim)
		rec.Result = &result
		rec.Run.Status = StatusCompleted
		rec.Run.EndedAtUnixMs = nowUnixMs()
		run = rec.Run
	})
	e.log.Info("run completed", "run_id", id, "days", days, "attack_rate", result.AttackRate)

	if e.archive != nil {
		if err := e.archive.SaveRun(run, result, rec.ScenarioYAML, rec.Sim); err != nil {
			e.log.Error("failed to archive run", "run_id", id, "error", err)
		}
	}
}

// Summarize reduces a finished simulation to its headline numbers
func Summarize(sim *seatird.Simulation) Result {
	final := sim.NumTimes() - 1

	var initialPopulation, finalSusceptible float64
	var totalDeceased, totalRecovered, totalTreated, totalVaccinated float64
	for _, nodeID := range sim.NodeIDs() {
		initialPopulation += sim.Value(compartment.Population, 0, nodeID)
		finalSusceptible += sim.Value(compartment.Susceptible, final, nodeID)
		totalDeceased += sim.Value(compartment.Deceased, final, nodeID)
		totalRecovered += sim.Value(compartment.Recovered, final, nodeID)
		totalTreated += sim.Value(compartment.Treated, final, nodeID)
		for d := 0; d <= final; d++ {
			totalVaccinated += sim.Value(compartment.VaccinatedDaily, d, nodeID, strat.All, strat.All, 1)
		}
	}

	result := Result{
		TotalDeceased:   totalDeceased,
		TotalRecovered:  totalRecovered,
		TotalTreated:    totalTreated,
		TotalVaccinated: totalVaccinated,
	}
	if initialPopulation > 0 {
		result.AttackRate = (initialPopulation - finalSusceptible) / initialPopulation
	}
	for d := 0; d <= final; d++ {
		infectious := 0.0
		for _, nodeID := range sim.NodeIDs() {
			infectious += sim.Value(compartment.Infectious, d, nodeID)
		}
		if infectious > result.PeakInfectious {
			result.PeakInfectious = infectious
			result.PeakDay = d
		}
	}
	return result
}
