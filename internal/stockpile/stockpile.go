// Package stockpile tracks per-node inventories of antiviral courses and
// vaccine doses over time. Inventories evolve with the simulation clock:
// each day copies forward and scheduled deliveries land on their due day.
// Intervention passes then draw the day's stock down.
package stockpile

// Kind selects which inventory a query addresses
type Kind int

const (
	Antivirals Kind = iota
	Vaccines

	numKinds = 2
)

// String returns the inventory name
func (k Kind) String() string {
	switch k {
	case Antivirals:
		return "antivirals"
	case Vaccines:
		return "vaccines"
	default:
		return "unknown"
	}
}

// Delivery is a scheduled shipment landing on a given day
type Delivery struct {
	Day    int
	Kind   Kind
	Amount int
}

// Stockpile is one node's inventory time series
type Stockpile struct {
	num [numKinds][]int
}

// NewStockpile creates a stockpile with the given day-0 amounts
func NewStockpile(antivirals, vaccines int) *Stockpile {
	s := &Stockpile{}
	s.num[Antivirals] = []int{antivirals}
	s.num[Vaccines] = []int{vaccines}
	return s
}

// Num returns the inventory of the given kind on the given day; days the
// series has not reached yield 0.
func (s *Stockpile) Num(day int, k Kind) int {
	if k < 0 || k >= numKinds || day < 0 || day >= len(s.num[k]) {
		return 0
	}
	return s.num[k][day]
}

// SetNum sets the inventory of the given kind on the given day, extending
// the series with zeroes if needed.
func (s *Stockpile) SetNum(day int, k Kind, n int) {
	if k < 0 || k >= numKinds || day < 0 {
		return
	}
	for len(s.num[k]) <= day {
		s.num[k] = append(s.num[k], 0)
	}
	s.num[k][day] = n
}

// Network holds the stockpiles of every participating node plus their
// scheduled deliveries. Nodes without a stockpile are simply absent; the
// intervention passes skip them.
type Network struct {
	byNode     map[int]*Stockpile
	deliveries map[int][]Delivery
}

// NewNetwork creates an empty stockpile network
func NewNetwork() *Network {
	return &Network{
		byNode:     make(map[int]*Stockpile),
		deliveries: make(map[int][]Delivery),
	}
}

// AddNode registers a node's stockpile with its day-0 amounts
func (n *Network) AddNode(nodeID, antivirals, vaccines int) {
	n.byNode[nodeID] = NewStockpile(antivirals, vaccines)
}

// AddDelivery schedules a shipment for a node
func (n *Network) AddDelivery(nodeID int, d Delivery) {
	n.deliveries[nodeID] = append(n.deliveries[nodeID], d)
}

// NodeStockpile returns the stockpile for the node, or nil when the node
// has none.
func (n *Network) NodeStockpile(nodeID int) *Stockpile {
	return n.byNode[nodeID]
}

// Evolve advances every stockpile from day to day+1: tomorrow starts with
// today's remaining stock plus any deliveries due tomorrow.
func (n *Network) Evolve(day int) {
	for nodeID, s := range n.byNode {
		for k := Kind(0); k < numKinds; k++ {
			next := s.Num(day, k)
			for _, d := range n.deliveries[nodeID] {
				if d.Day == day+1 && d.Kind == k {
					next += d.Amount
				}
			}
			s.SetNum(day+1, k, next)
		}
	}
}
