package seatird

import (
	"github.com/epimodels/seatird-core/internal/npi"
	"github.com/epimodels/seatird-core/internal/priority"
)

// Fixed constants of the transmission model.
var (
	// contactMatrix[a][b] is the daily contact rate between age groups a and b
	contactMatrix = [5][5]float64{
		{45.1228487783, 8.7808312353, 11.7757947836, 6.10114751268, 4.02227175596},
		{8.7808312353, 41.2889143668, 13.3332813497, 7.847051289, 4.22656343551},
		{11.7757947836, 13.3332813497, 21.4270155984, 13.7392636644, 6.92483172729},
		{6.10114751268, 7.847051289, 13.7392636644, 18.0482119252, 9.45371062356},
		{4.02227175596, 4.22656343551, 6.92483172729, 9.45371062356, 14.0529294262},
	}

	// sigma[a] is the relative susceptibility of age group a
	sigma = [5]float64{1.00, 0.98, 0.94, 0.91, 0.66}

	// ageFlowReductions[a] divides the travel contact rates: the youngest
	// and oldest groups travel less.
	ageFlowReductions = [5]float64{10, 2, 1, 1, 2}
)

// rho scales transmission during travel
const rho = 0.39

// Parameters holds the disease and intervention parameters of a run.
// Transition rates are per day; beta, the transmission rate given contact,
// is R0 / BetaScale.
type Parameters struct {
	R0        float64
	BetaScale float64

	// rates of the disease course draws
	Tau   float64 // exposed -> asymptomatic
	Kappa float64 // asymptomatic -> treatable
	Chi   float64 // treatable -> infectious
	Gamma float64 // recovery
	Nu    float64 // death

	AntiviralEffectiveness float64
	AntiviralAdherence     float64
	AntiviralCapacity      float64 // distributions per day as a fraction of total population

	VaccineEffectiveness float64
	VaccineAdherence     float64
	VaccineCapacity      float64 // distributions per day as a fraction of total population
	VaccineLatencyDays   int

	NPIs []npi.NPI

	AntiviralPriorityGroups *priority.Selections
	VaccinePriorityGroups   *priority.Selections
}

// DefaultParameters returns a mild pandemic influenza baseline with no
// pharmaceutical response configured.
func DefaultParameters() Parameters {
	return Parameters{
		R0:        1.2,
		BetaScale: 65.0,
		Tau:       1.0 / 1.2,
		Kappa:     1.0 / 1.9,
		Chi:       1.0,
		Gamma:     1.0 / 4.1,
		Nu:        0.0001,
	}
}

func (p Parameters) beta() float64 {
	return p.R0 / p.BetaScale
}
