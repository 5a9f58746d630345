package config

import (
	"fmt"
	"os"

	"github.com/epimodels/seatird-core/pkg/strat"
)

// LoadScenario loads and parses a scenario file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	scenario, err := ParseScenarioYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	return scenario, nil
}

// validateScenario performs validation on the scenario configuration
func validateScenario(s *Scenario) error {
	if s.Days < 0 {
		return fmt.Errorf("days cannot be negative, got %d", s.Days)
	}

	// Validate nodes
	if len(s.Nodes) == 0 {
		return fmt.Errorf("at least one node must be defined")
	}
	nodeIDs := make(map[int]bool)
	for _, node := range s.Nodes {
		if nodeIDs[node.ID] {
			return fmt.Errorf("duplicate node id: %d", node.ID)
		}
		nodeIDs[node.ID] = true
		if err := validateNode(&node); err != nil {
			return fmt.Errorf("node %d: %w", node.ID, err)
		}
	}

	if err := validateParameters(s.Parameters.Resolve()); err != nil {
		return fmt.Errorf("parameters: %w", err)
	}

	for i, n := range s.NPIs {
		if err := validateNPI(&n, nodeIDs); err != nil {
			return fmt.Errorf("npi %d (%s): %w", i, n.Name, err)
		}
	}

	for i, g := range s.AntiviralPriorityGroups {
		if err := validatePriorityGroup(&g); err != nil {
			return fmt.Errorf("antiviral priority group %d (%s): %w", i, g.Name, err)
		}
	}
	for i, g := range s.VaccinePriorityGroups {
		if err := validatePriorityGroup(&g); err != nil {
			return fmt.Errorf("vaccine priority group %d (%s): %w", i, g.Name, err)
		}
	}

	seen := make(map[[2]int]bool)
	for i, tr := range s.Travel {
		if !nodeIDs[tr.From] {
			return fmt.Errorf("travel %d: 'from' node %d does not exist", i, tr.From)
		}
		if !nodeIDs[tr.To] {
			return fmt.Errorf("travel %d: 'to' node %d does not exist", i, tr.To)
		}
		if tr.From == tr.To {
			return fmt.Errorf("travel %d: 'from' and 'to' must differ, got %d", i, tr.From)
		}
		if tr.Fraction < 0 || tr.Fraction > 1 {
			return fmt.Errorf("travel %d: fraction must be between 0 and 1, got %f", i, tr.Fraction)
		}
		key := [2]int{tr.From, tr.To}
		if seen[key] {
			return fmt.Errorf("travel %d: duplicate entry for %d -> %d", i, tr.From, tr.To)
		}
		seen[key] = true
	}

	for i, p := range s.ILIProviders {
		if !nodeIDs[p.Node] {
			return fmt.Errorf("ili provider %d: node %d does not exist", i, p.Node)
		}
		if p.Weight < 0 || p.Weight > 1 {
			return fmt.Errorf("ili provider %d: weight must be between 0 and 1, got %f", i, p.Weight)
		}
	}

	sizes := strat.AxisSizes()
	for i, e := range s.InitialExposures {
		if !nodeIDs[e.Node] {
			return fmt.Errorf("initial exposure %d: node %d does not exist", i, e.Node)
		}
		if e.Age < 0 || e.Age >= sizes[0] {
			return fmt.Errorf("initial exposure %d: age group must be between 0 and %d, got %d", i, sizes[0]-1, e.Age)
		}
		if e.Risk < 0 || e.Risk >= sizes[1] {
			return fmt.Errorf("initial exposure %d: risk group must be between 0 and %d, got %d", i, sizes[1]-1, e.Risk)
		}
		if e.Vaccinated < 0 || e.Vaccinated >= sizes[2] {
			return fmt.Errorf("initial exposure %d: vaccinated group must be 0 or 1, got %d", i, e.Vaccinated)
		}
		if e.Count <= 0 {
			return fmt.Errorf("initial exposure %d: count must be positive, got %d", i, e.Count)
		}
	}

	return nil
}

// validateNode validates one node definition
func validateNode(n *Node) error {
	if len(n.Population) == 0 {
		return fmt.Errorf("at least one population group must be defined")
	}
	seen := make(map[[2]int]bool)
	for _, pg := range n.Population {
		if pg.Age < 0 || pg.Age >= strat.NumAgeGroups {
			return fmt.Errorf("population age group must be between 0 and %d, got %d", strat.NumAgeGroups-1, pg.Age)
		}
		if pg.Risk < 0 || pg.Risk >= strat.NumRiskGroups {
			return fmt.Errorf("population risk group must be between 0 and %d, got %d", strat.NumRiskGroups-1, pg.Risk)
		}
		if pg.Count < 0 {
			return fmt.Errorf("population count cannot be negative, got %d", pg.Count)
		}
		key := [2]int{pg.Age, pg.Risk}
		if seen[key] {
			return fmt.Errorf("duplicate population group (age %d, risk %d)", pg.Age, pg.Risk)
		}
		seen[key] = true
	}

	if n.Antivirals < 0 {
		return fmt.Errorf("antivirals cannot be negative, got %d", n.Antivirals)
	}
	if n.Vaccines < 0 {
		return fmt.Errorf("vaccines cannot be negative, got %d", n.Vaccines)
	}

	for i, d := range n.Deliveries {
		if d.Day < 1 {
			return fmt.Errorf("delivery %d: day must be at least 1, got %d", i, d.Day)
		}
		if d.Kind != "antivirals" && d.Kind != "vaccines" {
			return fmt.Errorf("delivery %d: kind must be 'antivirals' or 'vaccines', got %s", i, d.Kind)
		}
		if d.Amount < 0 {
			return fmt.Errorf("delivery %d: amount cannot be negative, got %d", i, d.Amount)
		}
	}
	return nil
}

// validateParameters validates the resolved parameter set
func validateParameters(p ParameterSet) error {
	if p.R0 < 0 {
		return fmt.Errorf("r0 cannot be negative, got %f", p.R0)
	}
	if p.BetaScale <= 0 {
		return fmt.Errorf("beta_scale must be positive, got %f", p.BetaScale)
	}
	if p.Tau <= 0 {
		return fmt.Errorf("tau must be positive, got %f", p.Tau)
	}
	if p.Kappa < 0 {
		return fmt.Errorf("kappa cannot be negative, got %f", p.Kappa)
	}
	if p.Chi < 0 {
		return fmt.Errorf("chi cannot be negative, got %f", p.Chi)
	}
	if p.Gamma < 0 {
		return fmt.Errorf("gamma cannot be negative, got %f", p.Gamma)
	}
	if p.Nu < 0 {
		return fmt.Errorf("nu cannot be negative, got %f", p.Nu)
	}
	if p.Gamma+p.Nu <= 0 {
		return fmt.Errorf("gamma + nu must be positive, got %f", p.Gamma+p.Nu)
	}

	fractions := []struct {
		name string
		v    float64
	}{
		{"antiviral_effectiveness", p.AntiviralEffectiveness},
		{"antiviral_adherence", p.AntiviralAdherence},
		{"antiviral_capacity", p.AntiviralCapacity},
		{"vaccine_effectiveness", p.VaccineEffectiveness},
		{"vaccine_adherence", p.VaccineAdherence},
		{"vaccine_capacity", p.VaccineCapacity},
	}
	for _, f := range fractions {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", f.name, f.v)
		}
	}
	if p.VaccineLatencyDays < 0 {
		return fmt.Errorf("vaccine_latency_days cannot be negative, got %d", p.VaccineLatencyDays)
	}
	return nil
}

// validateNPI validates one intervention definition
func validateNPI(n *NPI, nodeIDs map[int]bool) error {
	if n.Effectiveness < 0 || n.Effectiveness > 1 {
		return fmt.Errorf("effectiveness must be between 0 and 1, got %f", n.Effectiveness)
	}
	if n.DayStart < 0 {
		return fmt.Errorf("day_start cannot be negative, got %d", n.DayStart)
	}
	if n.DayEnd < n.DayStart {
		return fmt.Errorf("day_end %d is before day_start %d", n.DayEnd, n.DayStart)
	}
	for _, id := range n.Nodes {
		if !nodeIDs[id] {
			return fmt.Errorf("node %d does not exist", id)
		}
	}
	for _, a := range n.FromAges {
		if a < 0 || a >= strat.NumAgeGroups {
			return fmt.Errorf("from_ages value must be between 0 and %d, got %d", strat.NumAgeGroups-1, a)
		}
	}
	for _, a := range n.ToAges {
		if a < 0 || a >= strat.NumAgeGroups {
			return fmt.Errorf("to_ages value must be between 0 and %d, got %d", strat.NumAgeGroups-1, a)
		}
	}
	return nil
}

// validatePriorityGroup validates one priority group definition
func validatePriorityGroup(g *PriorityGroup) error {
	for _, a := range g.Ages {
		if a < 0 || a >= strat.NumAgeGroups {
			return fmt.Errorf("age value must be between 0 and %d, got %d", strat.NumAgeGroups-1, a)
		}
	}
	for _, r := range g.Risks {
		if r < 0 || r >= strat.NumRiskGroups {
			return fmt.Errorf("risk value must be between 0 and %d, got %d", strat.NumRiskGroups-1, r)
		}
	}
	for _, v := range g.Vaccinated {
		if v < 0 || v >= strat.NumVaccinatedGroups {
			return fmt.Errorf("vaccinated value must be 0 or 1, got %d", v)
		}
	}
	return nil
}
