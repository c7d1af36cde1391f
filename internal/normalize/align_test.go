package normalize

import (
	"errors"
	"reflect"
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

func TestAlign_TruncatesToShortestSuffix(t *testing.T) {
	list := []domain.PriceSeries{
		series("LTC", 1, 2, 3, 4, 5),
		series("LTC", 10, 20, 30),
		series("LTC", 7, 8, 9, 10),
	}

	aligned, err := Align(list)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	for i, s := range aligned {
		if s.Len() != 3 {
			t.Errorf("Series %d length = %d, want 3", i, s.Len())
		}
	}

	// Most recent points kept, oldest discarded.
	if !reflect.DeepEqual(aligned[0].Prices, []float64{3, 4, 5}) {
		t.Errorf("Series 0 = %v, want suffix [3 4 5]", aligned[0].Prices)
	}
	if !reflect.DeepEqual(aligned[1].Prices, []float64{10, 20, 30}) {
		t.Errorf("Series 1 = %v, want unchanged [10 20 30]", aligned[1].Prices)
	}
	if !reflect.DeepEqual(aligned[2].Prices, []float64{8, 9, 10}) {
		t.Errorf("Series 2 = %v, want suffix [8 9 10]", aligned[2].Prices)
	}
}

func TestAlign_EmptyCollection(t *testing.T) {
	_, err := Align(nil)
	if !errors.Is(err, domain.ErrNoSeries) {
		t.Fatalf("Expected ErrNoSeries, got %v", err)
	}
}

func TestAlign_EmptySeriesInCollection(t *testing.T) {
	_, err := Align([]domain.PriceSeries{
		series("LTC", 1, 2),
		series("LTC"),
	})
	if !errors.Is(err, domain.ErrEmptySeries) {
		t.Fatalf("Expected ErrEmptySeries, got %v", err)
	}
}

func TestAlignGroups_CommonLengthAcrossBoth(t *testing.T) {
	groupA := []domain.PriceSeries{
		series("XRP", 1, 2, 3, 4),
		series("XRP", 5, 6, 7, 8, 9),
	}
	groupB := []domain.PriceSeries{
		series("XRP", 10, 20),
	}

	alignedA, alignedB, err := AlignGroups(groupA, groupB)
	if err != nil {
		t.Fatalf("AlignGroups failed: %v", err)
	}

	if len(alignedA) != 2 || len(alignedB) != 1 {
		t.Fatalf("Group sizes changed: %d, %d", len(alignedA), len(alignedB))
	}
	for _, s := range append(alignedA, alignedB...) {
		if s.Len() != 2 {
			t.Errorf("Series length = %d, want 2", s.Len())
		}
	}
	if !reflect.DeepEqual(alignedA[0].Prices, []float64{3, 4}) {
		t.Errorf("Group A series 0 = %v, want [3 4]", alignedA[0].Prices)
	}
}
