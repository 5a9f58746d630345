package config

import (
	"strings"
	"testing"
)

const validScenarioYAML = `
name: two-county baseline
seed: 42
days: 30
parameters:
  r0: 1.4
  antiviral_effectiveness: 0.15
  antiviral_adherence: 0.8
  antiviral_capacity: 0.001
npis:
  - name: school closure
    nodes: [453]
    day_start: 10
    day_end: 40
    from_ages: [0, 1]
    to_ages: [0, 1]
    effectiveness: 0.9
antiviral_priority_groups:
  - name: high risk
    risks: [1]
nodes:
  - id: 453
    name: Travis
    population:
      - {age: 0, risk: 0, count: 69000}
      - {age: 1, risk: 0, count: 310000}
      - {age: 2, risk: 1, count: 8200}
    antivirals: 5000
    deliveries:
      - {day: 5, kind: vaccines, amount: 10000}
  - id: 201
    name: Harris
    population:
      - {age: 2, risk: 0, count: 1200000}
travel:
  - {from: 453, to: 201, fraction: 0.002}
ili_providers:
  - {node: 453, weight: 1.0}
initial_exposures:
  - {node: 453, age: 2, risk: 0, count: 5}
`

func TestParseScenarioYAMLValid(t *testing.T) {
	s, err := ParseScenarioYAML([]byte(validScenarioYAML))
	if err != nil {
		t.Fatalf("ParseScenarioYAML failed: %v", err)
	}

	if s.Name != "two-county baseline" {
		t.Errorf("Name = %q", s.Name)
	}
	if s.Seed != 42 {
		t.Errorf("Seed = %d, want 42", s.Seed)
	}
	if s.Days != 30 {
		t.Errorf("Days = %d, want 30", s.Days)
	}
	if len(s.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(s.Nodes))
	}
	if s.Nodes[0].ID != 453 || s.Nodes[0].Antivirals != 5000 {
		t.Errorf("node 0 parsed wrong: %+v", s.Nodes[0])
	}
	if len(s.Nodes[0].Deliveries) != 1 || s.Nodes[0].Deliveries[0].Kind != "vaccines" {
		t.Errorf("deliveries parsed wrong: %+v", s.Nodes[0].Deliveries)
	}
	if len(s.NPIs) != 1 || s.NPIs[0].Effectiveness != 0.9 {
		t.Errorf("npis parsed wrong: %+v", s.NPIs)
	}
	if len(s.Travel) != 1 || s.Travel[0].Fraction != 0.002 {
		t.Errorf("travel parsed wrong: %+v", s.Travel)
	}
	if len(s.InitialExposures) != 1 || s.InitialExposures[0].Count != 5 {
		t.Errorf("initial exposures parsed wrong: %+v", s.InitialExposures)
	}

	// Explicit parameters survive, omitted ones resolve to defaults.
	p := s.Parameters.Resolve()
	if p.R0 != 1.4 {
		t.Errorf("R0 = %f, want 1.4", p.R0)
	}
	if p.BetaScale != DefaultBetaScale {
		t.Errorf("BetaScale = %f, want default %f", p.BetaScale, DefaultBetaScale)
	}
	if p.AntiviralEffectiveness != 0.15 {
		t.Errorf("AntiviralEffectiveness = %f, want 0.15", p.AntiviralEffectiveness)
	}
	if p.VaccineEffectiveness != 0 {
		t.Errorf("VaccineEffectiveness = %f, want 0 (no response by default)", p.VaccineEffectiveness)
	}
}

func TestParseScenarioYAMLInvalidSyntax(t *testing.T) {
	_, err := ParseScenarioYAML([]byte("days: [not a number"))
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
	if !strings.Contains(err.Error(), "failed to parse scenario yaml") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseScenarioYAMLString(t *testing.T) {
	s, err := ParseScenarioYAMLString(validScenarioYAML)
	if err != nil {
		t.Fatalf("ParseScenarioYAMLString failed: %v", err)
	}
	if s.Days != 30 {
		t.Errorf("Days = %d, want 30", s.Days)
	}
}

func TestResolveZeroValuesAreNotDefaults(t *testing.T) {
	// An explicit zero must survive resolution (it is not "omitted").
	zero := 0.0
	p := Parameters{Gamma: &zero}.Resolve()
	if p.Gamma != 0 {
		t.Errorf("explicit gamma 0 resolved to %f", p.Gamma)
	}
	if p.Nu != DefaultNu {
		t.Errorf("omitted nu resolved to %f, want default", p.Nu)
	}
}
