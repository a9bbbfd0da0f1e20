package marketrand

import (
	"math"
	"testing"
)

func TestNewIsDeterministicForSameSeed(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		av, bv := a.Float64(), b.Float64()
		if av != bv {
			t.Fatalf("draw %d diverged: %v != %v", i, av, bv)
		}
	}
}

func TestFloat64InUnitInterval(t *testing.T) {
	r := New(7)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %v, want [0,1)", v)
		}
	}
}

func TestIntnBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		v := r.Intn(5)
		if v < 0 || v >= 5 {
			t.Fatalf("Intn(5) = %d, out of range", v)
		}
	}
	if r.Intn(0) != 0 {
		t.Fatal("Intn(0) should return 0")
	}
}

func TestGaussianMeanAndStddev(t *testing.T) {
	r := New(123)
	const n = 50000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		v := r.Gaussian()
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if math.Abs(mean) > 0.03 {
		t.Fatalf("mean = %v, want ~0", mean)
	}
	if math.Abs(variance-1) > 0.05 {
		t.Fatalf("variance = %v, want ~1", variance)
	}
}

func TestTruncatedGaussianRespectsBounds(t *testing.T) {
	r := New(9)
	for i := 0; i < 10000; i++ {
		v := r.TruncatedGaussian(0, 5, -1, 1)
		if v < -1 || v > 1 {
			t.Fatalf("TruncatedGaussian = %v, out of [-1,1]", v)
		}
	}
}

func TestWeightedPickRespectsZeroWeights(t *testing.T) {
	r := New(5)
	weights := []float64{0, 0, 1, 0}
	for i := 0; i < 200; i++ {
		if got := r.WeightedPick(weights); got != 2 {
			t.Fatalf("WeightedPick = %d, want 2", got)
		}
	}
}

func TestWeightedPickDistribution(t *testing.T) {
	r := New(11)
	counts := make([]int, 3)
	const n = 30000
	for i := 0; i < n; i++ {
		counts[r.WeightedPick([]float64{0.2, 0.3, 0.5})]++
	}
	frac2 := float64(counts[2]) / n
	if math.Abs(frac2-0.5) > 0.03 {
		t.Fatalf("bucket 2 fraction = %v, want ~0.5", frac2)
	}
}

func TestStateRoundTripReproducesSequence(t *testing.T) {
	r := New(99)
	// advance some
	for i := 0; i < 17; i++ {
		r.Float64()
	}
	state, inc := r.State()

	want := make([]float64, 10)
	for i := range want {
		want[i] = r.Float64()
	}

	restored := New(1)
	restored.RestoreState(state, inc)
	for i, w := range want {
		if got := restored.Float64(); got != w {
			t.Fatalf("draw %d after restore = %v, want %v", i, got, w)
		}
	}
}

func TestStateBytesRoundTrip(t *testing.T) {
	r := New(321)
	r.Gaussian() // populate spare, which RestoreStateBytes should clear
	b := r.StateBytes()

	restored := New(1)
	restored.RestoreStateBytes(b)

	st1, inc1 := r.State()
	st2, inc2 := restored.State()
	if st1 != st2 || inc1 != inc2 {
		t.Fatalf("state mismatch after byte round trip")
	}
}

func TestPoissonZeroLambda(t *testing.T) {
	r := New(3)
	if v := r.Poisson(0); v != 0 {
		t.Fatalf("Poisson(0) = %d, want 0", v)
	}
}

func TestPoissonMeanApproximatesLambda(t *testing.T) {
	r := New(17)
	const n = 20000
	lambda := 3.0
	sum := 0
	for i := 0; i < n; i++ {
		sum += r.Poisson(lambda)
	}
	mean := float64(sum) / n
	if math.Abs(mean-lambda) > 0.1 {
		t.Fatalf("mean Poisson draw = %v, want ~%v", mean, lambda)
	}
}

func TestIntRangeInclusiveBounds(t *testing.T) {
	r := New(4)
	seenMin, seenMax := false, false
	for i := 0; i < 5000; i++ {
		v := r.IntRange(2, 4)
		if v < 2 || v > 4 {
			t.Fatalf("IntRange(2,4) = %d, out of bounds", v)
		}
		if v == 2 {
			seenMin = true
		}
		if v == 4 {
			seenMax = true
		}
	}
	if !seenMin || !seenMax {
		t.Fatal("IntRange did not cover both endpoints over many draws")
	}
}
