// Package seatird implements the stochastic SEATIRD epidemic model: a
// discrete-event Monte Carlo simulation evolving a stratified population
// through disease compartments across a network of geographic nodes, under
// antiviral treatment, vaccination, non-pharmaceutical interventions, and
// inter-node travel.
//
// Every exposed individual receives a Schedule: a full disease course plus
// infectious contacts, drawn up-front. The day-step driver drains those
// events in time order; intervention passes rewrite the surviving schedules
// so that scheduled events stay a faithful sample of the population.
package seatird

import (
	"fmt"
	"log/slog"

	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/ili"
	"github.com/epimodels/seatird-core/internal/schedule"
	"github.com/epimodels/seatird-core/internal/stockpile"
	"github.com/epimodels/seatird-core/pkg/logger"
	"github.com/epimodels/seatird-core/pkg/stochastic"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// Derived variable names, computed on demand from the stored compartments.
const (
	AllInfected           = "all infected"
	VaccinatedInLagPeriod = "vaccinated in lag period"
	VaccinatedEffective   = "vaccinated effective"
	ILIReports            = "ILI reports"
)

// PopulationCount is the initial count of one (age, risk) group; everyone
// starts unvaccinated and susceptible.
type PopulationCount struct {
	Age   int
	Risk  int
	Count int
}

// Node is one population center in the simulated network
type Node struct {
	ID         int
	Name       string
	Population []PopulationCount
}

// TravelMatrix maps (sink, source) pairs to the fraction of the source
// node's residents present at the sink node on any given day.
type TravelMatrix map[[2]int]float64

// Fraction returns the travel fraction from source to sink, 0 when absent
func (m TravelMatrix) Fraction(sink, source int) float64 {
	return m[[2]int{sink, source}]
}

// Config assembles a simulation. Stockpiles may be nil (no inventories
// anywhere); Providers defaults to one full-coverage provider per node;
// Logger defaults to the package default logger.
type Config struct {
	Nodes      []Node
	Travel     TravelMatrix
	Stockpiles *stockpile.Network
	Parameters Parameters
	Seed       uint64
	Providers  []ili.Provider
	SelfCheck  bool
	Logger     *slog.Logger
}

// Simulation is a single-threaded stochastic SEATIRD run. All mutation goes
// through Expose and Simulate; queries are safe between day steps.
type Simulation struct {
	log    *slog.Logger
	rng    *stochastic.Source
	params Parameters

	store      *compartment.Store
	queues     map[int]*schedule.Queue
	stockpiles *stockpile.Network
	travel     TravelMatrix
	providers  []ili.Provider

	nodeIDs []int
	nodeIdx map[int]int

	day int     // completed day steps
	now float64 // current event time within the running day step

	// population caches rebuilt by precompute
	cachedDay int
	popNodes  []float64
	pops      [][strat.NumAgeGroups][strat.NumRiskGroups][strat.NumVaccinatedGroups]float64

	// per-day per-node ILI rates, index [day][nodeIndex]
	iliValues [][]float64

	selfCheck bool
}

// New builds a simulation from the config, failing fast on configuration
// errors. Day 0 holds the initial populations with nobody exposed.
func New(cfg Config) (*Simulation, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	nodeIDs := make([]int, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		nodeIDs[i] = n.ID
	}

	store, err := compartment.New(nodeIDs, compartment.Variables())
	if err != nil {
		return nil, fmt.Errorf("compartment store: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default
	}
	stockpiles := cfg.Stockpiles
	if stockpiles == nil {
		stockpiles = stockpile.NewNetwork()
	}
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = ili.DefaultProviders(nodeIDs)
	}
	travel := cfg.Travel
	if travel == nil {
		travel = TravelMatrix{}
	}

	s := &Simulation{
		log:        log,
		rng:        stochastic.New(cfg.Seed),
		params:     cfg.Parameters,
		store:      store,
		queues:     make(map[int]*schedule.Queue, len(nodeIDs)),
		stockpiles: stockpiles,
		travel:     travel,
		providers:  providers,
		nodeIDs:    nodeIDs,
		nodeIdx:    make(map[int]int, len(nodeIDs)),
		cachedDay:  -1,
		selfCheck:  cfg.SelfCheck,
	}
	for i, id := range nodeIDs {
		s.nodeIdx[id] = i
		s.queues[id] = schedule.NewQueue()
	}

	// seed day 0: everyone susceptible and unvaccinated
	for _, n := range cfg.Nodes {
		for _, pc := range n.Population {
			st := strat.Stratum{pc.Age, pc.Risk, 0}
			s.store.Add(compartment.Susceptible, 0, n.ID, st, float64(pc.Count))
			s.store.Add(compartment.Population, 0, n.ID, st, float64(pc.Count))
		}
	}

	// ILI rates start at zero for day 0
	s.iliValues = append(s.iliValues, make([]float64, len(nodeIDs)))

	return s, nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("at least one node must be defined")
	}
	seen := make(map[int]bool, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id: %d", n.ID)
		}
		seen[n.ID] = true
		for _, pc := range n.Population {
			if !(strat.Stratum{pc.Age, pc.Risk, 0}).Complete() {
				return fmt.Errorf("node %d: population group (age %d, risk %d) out of range", n.ID, pc.Age, pc.Risk)
			}
			if pc.Count < 0 {
				return fmt.Errorf("node %d: population count cannot be negative, got %d", n.ID, pc.Count)
			}
		}
	}

	p := cfg.Parameters
	if p.BetaScale <= 0 {
		return fmt.Errorf("beta scale must be positive, got %f", p.BetaScale)
	}
	if p.Tau <= 0 {
		return fmt.Errorf("tau must be positive, got %f", p.Tau)
	}
	if p.Kappa < 0 || p.Chi < 0 || p.Gamma < 0 || p.Nu < 0 || p.R0 < 0 {
		return fmt.Errorf("disease rates cannot be negative")
	}
	if p.Gamma+p.Nu <= 0 {
		return fmt.Errorf("gamma + nu must be positive, got %f", p.Gamma+p.Nu)
	}
	fractions := []struct {
		name string
		v    float64
	}{
		{"antiviral effectiveness", p.AntiviralEffectiveness},
		{"antiviral adherence", p.AntiviralAdherence},
		{"antiviral capacity", p.AntiviralCapacity},
		{"vaccine effectiveness", p.VaccineEffectiveness},
		{"vaccine adherence", p.VaccineAdherence},
		{"vaccine capacity", p.VaccineCapacity},
	}
	for _, f := range fractions {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", f.name, f.v)
		}
	}
	if p.VaccineLatencyDays < 0 {
		return fmt.Errorf("vaccine latency cannot be negative, got %d", p.VaccineLatencyDays)
	}
	for pair, f := range cfg.Travel {
		if !seen[pair[0]] || !seen[pair[1]] {
			return fmt.Errorf("travel entry references unknown node (%d, %d)", pair[0], pair[1])
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("travel fraction must be between 0 and 1, got %f", f)
		}
	}
	return nil
}

// Day returns the number of completed day steps
func (s *Simulation) Day() int {
	return s.day
}

// NumTimes returns the number of stored days
func (s *Simulation) NumTimes() int {
	return s.store.NumTimes()
}

// NodeIDs returns the node identifiers in storage order
func (s *Simulation) NodeIDs() []int {
	return append([]int(nil), s.nodeIDs...)
}

// Seed returns the effective RNG seed of the run
func (s *Simulation) Seed() uint64 {
	return s.rng.Seed()
}

// Population returns the total living population of the node at the latest day
func (s *Simulation) Population(nodeID int) float64 {
	return s.store.Value(compartment.Population, s.store.NumTimes()-1, nodeID)
}

// VariableNames returns the stored variable names followed by the derived ones
func (s *Simulation) VariableNames() []string {
	return append(s.store.VariableNames(), AllInfected, VaccinatedInLagPeriod, VaccinatedEffective, ILIReports)
}

// Value returns a stored or derived variable at day t for the node, summing
// across axes left unspecified or set to All.
func (s *Simulation) Value(name string, t, nodeID int, vals ...int) float64 {
	switch name {
	case AllInfected:
		return s.store.Value(compartment.Asymptomatic, t, nodeID, vals...) +
			s.store.Value(compartment.Treatable, t, nodeID, vals...) +
			s.store.Value(compartment.Infectious, t, nodeID, vals...)
	case VaccinatedInLagPeriod:
		// unvaccinated strata always hold zero, so the query passes through
		total := 0.0
		for d := t; d >= 0 && d > t-s.params.VaccineLatencyDays; d-- {
			total += s.store.Value(compartment.VaccinatedDaily, d, nodeID, vals...)
		}
		return total
	case VaccinatedEffective:
		// zero when an explicitly unvaccinated stratum is queried
		if len(vals) >= 3 && vals[2] != 1 && vals[2] != strat.All {
			return 0
		}
		query := [3]int{strat.All, strat.All, 1}
		for i := 0; i < len(vals) && i < 2; i++ {
			query[i] = vals[i]
		}
		return s.store.Value(compartment.Population, t, nodeID, query[0], query[1], query[2]) -
			s.Value(VaccinatedInLagPeriod, t, nodeID, query[0], query[1], query[2])
	case ILIReports:
		ni, ok := s.nodeIdx[nodeID]
		if !ok || t < 0 || t >= len(s.iliValues) {
			return 0
		}
		return s.iliValues[t][ni] * s.store.Value(compartment.Population, t, nodeID)
	default:
		return s.store.Value(name, t, nodeID, vals...)
	}
}

// ILISeries returns the per-day per-node ILI rates accumulated so far
func (s *Simulation) ILISeries() [][]float64 {
	out := make([][]float64, len(s.iliValues))
	for i, row := range s.iliValues {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// precompute caches the node and stratum populations at the given day. The
// caches feed contact event generation and contact target draws, and are
// rebuilt after vaccination moves individuals across strata.
func (s *Simulation) precompute(t int) {
	s.cachedDay = t
	s.popNodes = make([]float64, len(s.nodeIDs))
	s.pops = make([][strat.NumAgeGroups][strat.NumRiskGroups][strat.NumVaccinatedGroups]float64, len(s.nodeIDs))
	for i, id := range s.nodeIDs {
		s.popNodes[i] = s.store.Value(compartment.Population, t, id)
		for a := 0; a < strat.NumAgeGroups; a++ {
			for r := 0; r < strat.NumRiskGroups; r++ {
				for v := 0; v < strat.NumVaccinatedGroups; v++ {
					s.pops[i][a][r][v] = s.store.Value(compartment.Population, t, id, a, r, v)
				}
			}
		}
	}
}

// Expose moves up to num individuals of the stratum from susceptible to
// exposed at the node, clamped by the available susceptibles, and returns
// the number actually exposed. Each new exposure receives a full disease
// course schedule inserted into the node's queue.
func (s *Simulation) Expose(num, nodeID int, st strat.Stratum) int {
	if num <= 0 || !st.Complete() || !s.store.HasNode(nodeID) {
		return 0
	}

	if s.day == 0 && s.cachedDay == -1 {
		s.log.Debug("precomputing at beginning of simulation")
		s.precompute(0)
	} else if s.day != 0 && s.cachedDay != s.day+1 {
		// exposures between day steps land on the newest slab
		s.log.Warn("precomputing during simulation, should not be necessary")
		s.precompute(s.store.NumTimes() - 1)
	}

	t := s.store.NumTimes() - 1
	susceptible := int(s.store.Value(compartment.Susceptible, t, nodeID, st[0], st[1], st[2]))
	exposed := num
	if exposed > susceptible {
		exposed = susceptible
	}
	if exposed <= 0 {
		return 0
	}

	s.store.Add(compartment.Susceptible, t, nodeID, st, -float64(exposed))
	s.store.Add(compartment.Exposed, t, nodeID, st, float64(exposed))

	rates := schedule.Rates{Tau: s.params.Tau, Kappa: s.params.Kappa, Chi: s.params.Chi, Gamma: s.params.Gamma, Nu: s.params.Nu}
	for i := 0; i < exposed; i++ {
		sched := schedule.New(s.now, s.rng, rates, st)
		s.initContactEvents(sched, nodeID, st)
		s.queues[nodeID].Insert(sched)
	}
	return exposed
}

// initContactEvents draws the individual's infectious contacts: for every
// (age, risk) target group, a homogeneous Poisson process over the window
// the individual is transmitting, at a rate weighted by the group's share
// of the node population.
func (s *Simulation) initContactEvents(sched *schedule.Schedule, nodeID int, st strat.Stratum) {
	ni := s.nodeIdx[nodeID]
	if s.popNodes[ni] <= 0 {
		return
	}
	beta := s.params.beta()

	for a := 0; a < strat.NumAgeGroups; a++ {
		for r := 0; r < strat.NumRiskGroups; r++ {
			// both vaccination states count; the contactee's state is
			// resolved when the contact fires
			toGroupFraction := (s.pops[ni][a][r][0] + s.pops[ni][a][r][1]) / s.popNodes[ni]
			rate := beta * contactMatrix[st.Age()][a] * sigma[a] * toGroupFraction

			tcInit := sched.InfectedTMin()
			tcFinal := sched.InfectedTMax()
			tc := tcInit + s.rng.Exp(rate)
			for tc < tcFinal {
				sched.Insert(schedule.Event{
					Init:       tcInit,
					Time:       tc,
					Kind:       schedule.KindContact,
					From:       st,
					TargetAge:  a,
					TargetRisk: r,
				})
				tcInit = tc
				tc = tcInit + s.rng.Exp(rate)
			}
		}
	}
}

// transition atomically moves count individuals between compartments at the
// newest day. Moves into the deceased compartment leave the living
// population.
func (s *Simulation) transition(count int, from, to string, nodeID int, st strat.Stratum) {
	if count <= 0 {
		return
	}
	t := s.store.NumTimes() - 1
	s.store.Add(from, t, nodeID, st, -float64(count))
	s.store.Add(to, t, nodeID, st, float64(count))
	if to == compartment.Deceased {
		s.store.Add(compartment.Population, t, nodeID, st, -float64(count))
	}
}

// populationInVaccineLatency counts the individuals of the (age, risk)
// group vaccinated within the trailing latency window, as of the newest
// day. A zero latency period always yields zero.
func (s *Simulation) populationInVaccineLatency(nodeID, age, risk int) int {
	t := s.store.NumTimes() - 1
	total := 0
	for d := t; d >= 0 && d > t-s.params.VaccineLatencyDays; d-- {
		total += int(s.store.Value(compartment.VaccinatedDaily, d, nodeID, age, risk, 1))
	}
	return total
}
