package spread

import (
	"errors"
	"math"
	"testing"

	"market-spread-lab/internal/domain"
)

func series(base string, prices ...float64) domain.PriceSeries {
	return domain.PriceSeries{
		Exchange: "bittrex",
		Market:   domain.MarketPair{Quote: "USDT", Base: base},
		Prices:   prices,
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCompute_WorkedExample(t *testing.T) {
	low := series("LTC", 10, 12, 11)      // sum 33
	high := series("LTC", 10.5, 13, 11.2) // sum 34.7

	result, err := Compute([]domain.PriceSeries{low, high})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	wantPerIndex := []float64{0.5, 1, 0.2}
	if len(result.PerIndex) != 3 {
		t.Fatalf("PerIndex length = %d, want 3", len(result.PerIndex))
	}
	for i, want := range wantPerIndex {
		if !almostEqual(result.PerIndex[i], want, 1e-9) {
			t.Errorf("PerIndex[%d] = %v, want %v", i, result.PerIndex[i], want)
		}
	}

	// avg price = mean(11, 11.5667) = 11.2833; avg spread = 0.5667
	if !almostEqual(result.AvgPercent, 5.0221, 0.001) {
		t.Errorf("AvgPercent = %v, want ≈5.02", result.AvgPercent)
	}

	if result.High.Sum() != 34.7 {
		t.Errorf("High side sum = %v, want 34.7", result.High.Sum())
	}
	if result.Low.Sum() != 33.0 {
		t.Errorf("Low side sum = %v, want 33", result.Low.Sum())
	}
}

func TestCompute_IdenticalSeries(t *testing.T) {
	a := series("LTC", 5, 5, 5)
	b := series("LTC", 5, 5, 5)

	result, err := Compute([]domain.PriceSeries{a, b})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i, d := range result.PerIndex {
		if d != 0 {
			t.Errorf("PerIndex[%d] = %v, want 0", i, d)
		}
	}
	if result.AvgPercent != 0 {
		t.Errorf("AvgPercent = %v, want 0", result.AvgPercent)
	}
}

func TestCompute_OrderInvariant(t *testing.T) {
	a := series("LTC", 10, 12, 11)
	b := series("LTC", 10.5, 13, 11.2)

	r1, err := Compute([]domain.PriceSeries{a, b})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	r2, err := Compute([]domain.PriceSeries{b, a})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if r1.AvgPercent != r2.AvgPercent {
		t.Errorf("AvgPercent depends on input order: %v vs %v", r1.AvgPercent, r2.AvgPercent)
	}
}

func TestCompute_SelectsByCumulativeSum(t *testing.T) {
	// Middle series crosses above once, but its cumulative level is lowest.
	a := series("XRP", 10, 10, 10) // sum 30
	b := series("XRP", 5, 20, 4)   // sum 29
	c := series("XRP", 11, 11, 11) // sum 33

	result, err := Compute([]domain.PriceSeries{a, b, c})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if result.High.Sum() != 33 {
		t.Errorf("High side sum = %v, want 33", result.High.Sum())
	}
	if result.Low.Sum() != 29 {
		t.Errorf("Low side sum = %v, want 29", result.Low.Sum())
	}
}

func TestCompute_AllZeroSeries(t *testing.T) {
	a := series("DEAD", 0, 0, 0)
	b := series("DEAD", 0, 0, 0)

	_, err := Compute([]domain.PriceSeries{a, b})
	if !errors.Is(err, domain.ErrZeroAveragePrice) {
		t.Fatalf("Expected ErrZeroAveragePrice, got %v", err)
	}
}

func TestCompute_TooFewSeries(t *testing.T) {
	_, err := Compute([]domain.PriceSeries{series("LTC", 1, 2)})
	if !errors.Is(err, domain.ErrTooFewSeries) {
		t.Fatalf("Expected ErrTooFewSeries, got %v", err)
	}
}

func TestCompute_UnalignedInput(t *testing.T) {
	_, err := Compute([]domain.PriceSeries{
		series("LTC", 1, 2, 3),
		series("LTC", 1, 2),
	})
	if !errors.Is(err, domain.ErrLengthMismatch) {
		t.Fatalf("Expected ErrLengthMismatch, got %v", err)
	}
}
