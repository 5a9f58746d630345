// Package ili derives influenza-like-illness surveillance rates from the
// simulated infectious population. Providers stand in for reporting
// clinics: each contributes its coverage weight times the infectious share
// of its node. The resulting per-node rates feed the "ILI reports" derived
// variable.
package ili

// Provider is one reporting site with a coverage weight
type Provider struct {
	NodeID int
	Weight float64
}

// DefaultProviders returns one full-coverage provider per node
func DefaultProviders(nodeIDs []int) []Provider {
	providers := make([]Provider, len(nodeIDs))
	for i, id := range nodeIDs {
		providers[i] = Provider{NodeID: id, Weight: 1.0}
	}
	return providers
}

// View computes the per-node ILI rate for one day. infectious and
// population are indexed like nodeIDs; providers at unknown nodes or nodes
// without population contribute nothing.
func View(infectious, population []float64, nodeIDs []int, providers []Provider) []float64 {
	idx := make(map[int]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idx[id] = i
	}

	rates := make([]float64, len(nodeIDs))
	for _, p := range providers {
		i, ok := idx[p.NodeID]
		if !ok || population[i] <= 0 {
			continue
		}
		rates[i] += p.Weight * infectious[i] / population[i]
	}
	return rates
}
