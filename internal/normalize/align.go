package normalize

import (
	"fmt"

	"market-spread-lab/internal/domain"
)

// Align trims a collection of price series of unequal length to a
// common length by keeping each series' most recent points. All outputs
// have length min(len(s)) and each is a suffix of its original, so the
// newest observations stay index-aligned across series.
func Align(list []domain.PriceSeries) ([]domain.PriceSeries, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("align: %w", domain.ErrNoSeries)
	}

	n := list[0].Len()
	for _, s := range list {
		if s.Len() == 0 {
			return nil, fmt.Errorf("align %s: %w", s.Market.Symbol(), domain.ErrEmptySeries)
		}
		if s.Len() < n {
			n = s.Len()
		}
	}

	out := make([]domain.PriceSeries, len(list))
	for i, s := range list {
		s.Prices = s.Prices[s.Len()-n:]
		out[i] = s
	}
	return out, nil
}

// AlignGroups trims two series groups to one common length across both,
// for cross-exchange comparison. Both groups come back with every
// series at the same length.
func AlignGroups(a, b []domain.PriceSeries) ([]domain.PriceSeries, []domain.PriceSeries, error) {
	combined, err := Align(append(append([]domain.PriceSeries{}, a...), b...))
	if err != nil {
		return nil, nil, err
	}
	return combined[:len(a)], combined[len(a):], nil
}
