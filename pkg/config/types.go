package config

// Model defaults applied to omitted parameters: a mild pandemic influenza
// baseline with no pharmaceutical response. Rates are per day.
const (
	DefaultR0        = 1.2
	DefaultBetaScale = 65.0
	DefaultTau       = 1.0 / 1.2
	DefaultKappa     = 1.0 / 1.9
	DefaultChi       = 1.0
	DefaultGamma     = 1.0 / 4.1
	DefaultNu        = 0.0001
)

// Scenario represents a complete simulation scenario: the node network,
// disease and intervention parameters, and initial conditions.
type Scenario struct {
	Name                    string          `yaml:"name,omitempty"`
	Seed                    uint64          `yaml:"seed,omitempty"`
	Days                    int             `yaml:"days"`
	SelfCheck               bool            `yaml:"self_check,omitempty"`
	Parameters              Parameters      `yaml:"parameters,omitempty"`
	NPIs                    []NPI           `yaml:"npis,omitempty"`
	AntiviralPriorityGroups []PriorityGroup `yaml:"antiviral_priority_groups,omitempty"`
	VaccinePriorityGroups   []PriorityGroup `yaml:"vaccine_priority_groups,omitempty"`
	Nodes                   []Node          `yaml:"nodes"`
	Travel                  []TravelEntry   `yaml:"travel,omitempty"`
	ILIProviders            []ILIProvider   `yaml:"ili_providers,omitempty"`
	InitialExposures        []Exposure      `yaml:"initial_exposures,omitempty"`
}

// Parameters holds the disease and intervention parameters. Omitted fields
// fall back to the model defaults; intervention parameters default to zero
// (no response).
type Parameters struct {
	R0                     *float64 `yaml:"r0,omitempty"`
	BetaScale              *float64 `yaml:"beta_scale,omitempty"`
	Tau                    *float64 `yaml:"tau,omitempty"`
	Kappa                  *float64 `yaml:"kappa,omitempty"`
	Chi                    *float64 `yaml:"chi,omitempty"`
	Gamma                  *float64 `yaml:"gamma,omitempty"`
	Nu                     *float64 `yaml:"nu,omitempty"`
	AntiviralEffectiveness *float64 `yaml:"antiviral_effectiveness,omitempty"`
	AntiviralAdherence     *float64 `yaml:"antiviral_adherence,omitempty"`
	AntiviralCapacity      *float64 `yaml:"antiviral_capacity,omitempty"`
	VaccineEffectiveness   *float64 `yaml:"vaccine_effectiveness,omitempty"`
	VaccineAdherence       *float64 `yaml:"vaccine_adherence,omitempty"`
	VaccineCapacity        *float64 `yaml:"vaccine_capacity,omitempty"`
	VaccineLatencyDays     *int     `yaml:"vaccine_latency_days,omitempty"`
}

// ParameterSet is a Parameters with every default applied
type ParameterSet struct {
	R0                     float64
	BetaScale              float64
	Tau                    float64
	Kappa                  float64
	Chi                    float64
	Gamma                  float64
	Nu                     float64
	AntiviralEffectiveness float64
	AntiviralAdherence     float64
	AntiviralCapacity      float64
	VaccineEffectiveness   float64
	VaccineAdherence       float64
	VaccineCapacity        float64
	VaccineLatencyDays     int
}

// Resolve applies the model defaults to omitted fields
func (p Parameters) Resolve() ParameterSet {
	return ParameterSet{
		R0:                     floatOr(p.R0, DefaultR0),
		BetaScale:              floatOr(p.BetaScale, DefaultBetaScale),
		Tau:                    floatOr(p.Tau, DefaultTau),
		Kappa:                  floatOr(p.Kappa, DefaultKappa),
		Chi:                    floatOr(p.Chi, DefaultChi),
		Gamma:                  floatOr(p.Gamma, DefaultGamma),
		Nu:                     floatOr(p.Nu, DefaultNu),
		AntiviralEffectiveness: floatOr(p.AntiviralEffectiveness, 0),
		AntiviralAdherence:     floatOr(p.AntiviralAdherence, 0),
		AntiviralCapacity:      floatOr(p.AntiviralCapacity, 0),
		VaccineEffectiveness:   floatOr(p.VaccineEffectiveness, 0),
		VaccineAdherence:       floatOr(p.VaccineAdherence, 0),
		VaccineCapacity:        floatOr(p.VaccineCapacity, 0),
		VaccineLatencyDays:     intOr(p.VaccineLatencyDays, 0),
	}
}

func floatOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

// NPI represents a non-pharmaceutical intervention window. Empty nodes or
// age lists apply to everything on that axis; the intervention is active
// on days [day_start, day_end).
type NPI struct {
	Name          string  `yaml:"name"`
	Nodes         []int   `yaml:"nodes,omitempty"`
	DayStart      int     `yaml:"day_start"`
	DayEnd        int     `yaml:"day_end"`
	FromAges      []int   `yaml:"from_ages,omitempty"`
	ToAges        []int   `yaml:"to_ages,omitempty"`
	Effectiveness float64 `yaml:"effectiveness"`
}

// PriorityGroup selects population strata for an intervention pass. Empty
// lists select every value on that axis.
type PriorityGroup struct {
	Name       string `yaml:"name"`
	Ages       []int  `yaml:"ages,omitempty"`
	Risks      []int  `yaml:"risks,omitempty"`
	Vaccinated []int  `yaml:"vaccinated,omitempty"`
}

// Node represents one population center
type Node struct {
	ID         int               `yaml:"id"`
	Name       string            `yaml:"name,omitempty"`
	Population []PopulationGroup `yaml:"population"`
	Antivirals int               `yaml:"antivirals,omitempty"`
	Vaccines   int               `yaml:"vaccines,omitempty"`
	Deliveries []Delivery        `yaml:"deliveries,omitempty"`
}

// PopulationGroup is the initial count of one (age, risk) group; everyone
// starts unvaccinated and susceptible.
type PopulationGroup struct {
	Age   int `yaml:"age"`
	Risk  int `yaml:"risk"`
	Count int `yaml:"count"`
}

// Delivery schedules a stockpile shipment landing on a given day
type Delivery struct {
	Day    int    `yaml:"day"`
	Kind   string `yaml:"kind"` // antivirals or vaccines
	Amount int    `yaml:"amount"`
}

// TravelEntry is the fraction of 'from' residents present at 'to' on any
// given day.
type TravelEntry struct {
	From     int     `yaml:"from"`
	To       int     `yaml:"to"`
	Fraction float64 `yaml:"fraction"`
}

// ILIProvider weights a node's surveillance coverage
type ILIProvider struct {
	Node   int     `yaml:"node"`
	Weight float64 `yaml:"weight"`
}

// Exposure seeds initially exposed individuals at day 0
type Exposure struct {
	Node       int `yaml:"node"`
	Age        int `yaml:"age"`
	Risk       int `yaml:"risk"`
	Vaccinated int `yaml:"vaccinated,omitempty"`
	Count      int `yaml:"count"`
}
