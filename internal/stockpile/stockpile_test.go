package stockpile

import "testing"

func TestStockpileNumAndSetNum(t *testing.T) {
	s := NewStockpile(100, 50)

	if got := s.Num(0, Antivirals); got != 100 {
		t.Errorf("Num(0, Antivirals) = %d, want 100", got)
	}
	if got := s.Num(0, Vaccines); got != 50 {
		t.Errorf("Num(0, Vaccines) = %d, want 50", got)
	}

	// Days not reached yet read as zero.
	if got := s.Num(3, Antivirals); got != 0 {
		t.Errorf("Num(3, Antivirals) = %d, want 0", got)
	}
	if got := s.Num(-1, Antivirals); got != 0 {
		t.Errorf("Num(-1, Antivirals) = %d, want 0", got)
	}

	// SetNum extends the series as needed.
	s.SetNum(3, Antivirals, 70)
	if got := s.Num(3, Antivirals); got != 70 {
		t.Errorf("Num(3, Antivirals) after SetNum = %d, want 70", got)
	}
	if got := s.Num(2, Antivirals); got != 0 {
		t.Errorf("Num(2, Antivirals) = %d, want 0 (gap pads with zero)", got)
	}
}

func TestNetworkEvolveCopiesForward(t *testing.T) {
	n := NewNetwork()
	n.AddNode(1, 500, 0)

	n.Evolve(0)
	if got := n.NodeStockpile(1).Num(1, Antivirals); got != 500 {
		t.Errorf("day 1 antivirals = %d, want 500 copied forward", got)
	}

	// Consumption on day 1, then evolve again.
	n.NodeStockpile(1).SetNum(1, Antivirals, 420)
	n.Evolve(1)
	if got := n.NodeStockpile(1).Num(2, Antivirals); got != 420 {
		t.Errorf("day 2 antivirals = %d, want 420", got)
	}
}

func TestNetworkEvolveAppliesDeliveries(t *testing.T) {
	n := NewNetwork()
	n.AddNode(7, 0, 0)
	n.AddDelivery(7, Delivery{Day: 2, Kind: Vaccines, Amount: 1000})
	n.AddDelivery(7, Delivery{Day: 2, Kind: Antivirals, Amount: 300})
	n.AddDelivery(7, Delivery{Day: 3, Kind: Vaccines, Amount: 50})

	n.Evolve(0)
	s := n.NodeStockpile(7)
	if got := s.Num(1, Vaccines); got != 0 {
		t.Errorf("day 1 vaccines = %d, want 0 (delivery not due)", got)
	}

	n.Evolve(1)
	if got := s.Num(2, Vaccines); got != 1000 {
		t.Errorf("day 2 vaccines = %d, want 1000", got)
	}
	if got := s.Num(2, Antivirals); got != 300 {
		t.Errorf("day 2 antivirals = %d, want 300", got)
	}

	n.Evolve(2)
	if got := s.Num(3, Vaccines); got != 1050 {
		t.Errorf("day 3 vaccines = %d, want 1050 (carry + delivery)", got)
	}
}

func TestNodeStockpileMissingIsNil(t *testing.T) {
	n := NewNetwork()
	n.AddNode(1, 10, 10)
	if n.NodeStockpile(99) != nil {
		t.Error("NodeStockpile for unknown node should be nil")
	}
}

func TestKindString(t *testing.T) {
	if Antivirals.String() != "antivirals" || Vaccines.String() != "vaccines" {
		t.Error("Kind names wrong")
	}
	if Kind(9).String() != "unknown" {
		t.Error("unknown Kind should stringify as unknown")
	}
}
