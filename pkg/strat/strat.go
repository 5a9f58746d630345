// Package strat defines the population stratification shared by every layer
// of the simulation: five age groups, two risk groups, and two vaccination
// groups. A complete stratum addresses one cell of that 5x2x2 grid; the All
// sentinel selects a whole axis in queries.
package strat

import "fmt"

const (
	// NumAgeGroups is the number of age bands in the model
	NumAgeGroups = 5

	// NumRiskGroups is the number of medical risk categories
	NumRiskGroups = 2

	// NumVaccinatedGroups is the number of vaccination states
	NumVaccinatedGroups = 2

	// All selects every value along an axis in compartment queries
	All = -1
)

// NumStrata is the number of complete strata per node
const NumStrata = NumAgeGroups * NumRiskGroups * NumVaccinatedGroups

var (
	ageLabels        = []string{"0-4 years", "5-24 years", "25-44 years", "45-64 years", "65+ years"}
	riskLabels       = []string{"low risk", "high risk"}
	vaccinatedLabels = []string{"unvaccinated", "vaccinated"}
)

// Stratum addresses one population cell as (age, risk, vaccinated).
// Individual entries may be All when the stratum is used as a query filter.
type Stratum [3]int

// Age returns the age group index
func (s Stratum) Age() int { return s[0] }

// Risk returns the risk group index
func (s Stratum) Risk() int { return s[1] }

// Vaccinated returns the vaccination group index
func (s Stratum) Vaccinated() int { return s[2] }

// WithVaccinated returns a copy of the stratum with the vaccination axis replaced
func (s Stratum) WithVaccinated(v int) Stratum {
	s[2] = v
	return s
}

// Complete reports whether every axis holds a concrete in-range value
func (s Stratum) Complete() bool {
	return s[0] >= 0 && s[0] < NumAgeGroups &&
		s[1] >= 0 && s[1] < NumRiskGroups &&
		s[2] >= 0 && s[2] < NumVaccinatedGroups
}

// String renders the stratum using the published group labels
func (s Stratum) String() string {
	return fmt.Sprintf("(%s, %s, %s)", axisLabel(ageLabels, s[0]), axisLabel(riskLabels, s[1]), axisLabel(vaccinatedLabels, s[2]))
}

func axisLabel(labels []string, v int) string {
	if v == All {
		return "all"
	}
	if v < 0 || v >= len(labels) {
		return fmt.Sprintf("?%d", v)
	}
	return labels[v]
}

// Labels returns the label lists for the three axes in axis order:
// age groups, risk groups, vaccination groups.
func Labels() [][]string {
	return [][]string{
		append([]string(nil), ageLabels...),
		append([]string(nil), riskLabels...),
		append([]string(nil), vaccinatedLabels...),
	}
}

// AxisSizes returns the cardinality of each axis in axis order
func AxisSizes() [3]int {
	return [3]int{NumAgeGroups, NumRiskGroups, NumVaccinatedGroups}
}

// ValidAxisValue reports whether v is a concrete value or All for the axis
// of the given size.
func ValidAxisValue(v, size int) bool {
	return v == All || (v >= 0 && v < size)
}

// ForEach invokes fn for every complete stratum in canonical order:
// age-major, then risk, then vaccinated.
func ForEach(fn func(s Stratum)) {
	for a := 0; a < NumAgeGroups; a++ {
		for r := 0; r < NumRiskGroups; r++ {
			for v := 0; v < NumVaccinatedGroups; v++ {
				fn(Stratum{a, r, v})
			}
		}
	}
}
