package stochastic

import (
	"math"
	"testing"
)

func TestNewSource(t *testing.T) {
	s := New(12345)
	if s == nil {
		t.Fatal("Expected Source to be created")
	}
	if s.Seed() != 12345 {
		t.Errorf("Seed() = %d, want 12345", s.Seed())
	}

	// Zero seed falls back to a time-based seed.
	z := New(0)
	if z.Seed() == 0 {
		t.Error("zero seed should be replaced with a time-based seed")
	}
}

func TestFloat64Range(t *testing.T) {
	s := New(12345)
	for i := 0; i < 100; i++ {
		val := s.Float64()
		if val < 0 || val >= 1.0 {
			t.Errorf("Float64() returned value outside [0, 1): %f", val)
		}
	}
}

func TestUniformIntBounds(t *testing.T) {
	s := New(12345)
	for i := 0; i < 1000; i++ {
		val := s.UniformInt(1, 6)
		if val < 1 || val > 6 {
			t.Errorf("UniformInt(1, 6) returned %d, want value in [1, 6]", val)
		}
	}

	// Degenerate interval always returns the bound.
	for i := 0; i < 10; i++ {
		if val := s.UniformInt(3, 3); val != 3 {
			t.Errorf("UniformInt(3, 3) = %d, want 3", val)
		}
	}
}

func TestExpMean(t *testing.T) {
	s := New(12345)
	rate := 2.0

	sum := 0.0
	n := 2000
	for i := 0; i < n; i++ {
		v := s.Exp(rate)
		if v < 0 {
			t.Errorf("Exp() returned negative value: %f", v)
		}
		sum += v
	}

	mean := sum / float64(n)
	if math.Abs(mean-1.0/rate) > 0.1 {
		t.Errorf("Exp mean %f not close to expected %f", mean, 1.0/rate)
	}
}

func TestExpZeroRateIsInfinite(t *testing.T) {
	s := New(7)
	v := s.Exp(0)
	if !math.IsInf(v, 1) {
		t.Errorf("Exp(0) = %f, want +Inf", v)
	}
}

func TestBernoulliProportion(t *testing.T) {
	s := New(12345)
	p := 0.7

	trueCount := 0
	trials := 2000
	for i := 0; i < trials; i++ {
		if s.Bernoulli(p) {
			trueCount++
		}
	}

	proportion := float64(trueCount) / float64(trials)
	if math.Abs(proportion-p) > 0.05 {
		t.Errorf("Bernoulli proportion %f not close to expected %f", proportion, p)
	}
}

func TestBinomialRange(t *testing.T) {
	s := New(12345)
	n := 50
	p := 0.3

	sum := 0.0
	trials := 2000
	for i := 0; i < trials; i++ {
		k := s.Binomial(n, p)
		if k < 0 || k > n {
			t.Fatalf("Binomial(%d, %f) = %d, want value in [0, %d]", n, p, k, n)
		}
		sum += float64(k)
	}

	mean := sum / float64(trials)
	want := float64(n) * p
	if math.Abs(mean-want) > 1.0 {
		t.Errorf("Binomial mean %f not close to expected %f", mean, want)
	}
}

func TestBinomialEdgeCases(t *testing.T) {
	s := New(42)

	if k := s.Binomial(0, 0.5); k != 0 {
		t.Errorf("Binomial(0, 0.5) = %d, want 0", k)
	}
	if k := s.Binomial(-3, 0.5); k != 0 {
		t.Errorf("Binomial(-3, 0.5) = %d, want 0", k)
	}
	if k := s.Binomial(10, 0); k != 0 {
		t.Errorf("Binomial(10, 0) = %d, want 0", k)
	}
	if k := s.Binomial(10, 1); k != 10 {
		t.Errorf("Binomial(10, 1) = %d, want 10", k)
	}
	if k := s.Binomial(10, 1.5); k != 10 {
		t.Errorf("Binomial(10, 1.5) = %d, want 10", k)
	}
}

func TestDeterministicSequences(t *testing.T) {
	// Same seed must reproduce every draw kind exactly.
	a := New(999)
	b := New(999)

	for i := 0; i < 50; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("Float64 diverged at draw %d: %f != %f", i, x, y)
		}
		if x, y := a.UniformInt(1, 100), b.UniformInt(1, 100); x != y {
			t.Fatalf("UniformInt diverged at draw %d: %d != %d", i, x, y)
		}
		if x, y := a.Exp(1.5), b.Exp(1.5); x != y {
			t.Fatalf("Exp diverged at draw %d: %f != %f", i, x, y)
		}
		if x, y := a.Binomial(30, 0.4), b.Binomial(30, 0.4); x != y {
			t.Fatalf("Binomial diverged at draw %d: %d != %d", i, x, y)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)

	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical sequences")
	}
}
