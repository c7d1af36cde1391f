// Package spread computes cross-market price divergence over aligned
// USD price series and ranks assets by it.
package spread

import (
	"fmt"
	"math"

	"market-spread-lab/internal/domain"
)

// Compute identifies the series with the highest and lowest cumulative
// price level, takes their elementwise absolute difference, and derives
// the average percent spread relative to the mean price level of the
// two selected series.
//
// Selection by cumulative sum treats "which market is structurally
// higher" as a property of the whole series, so single-tick crossovers
// do not flip the pair. Ties keep the first series encountered.
//
// All inputs must be aligned to equal length; at least two series are
// required. A zero mean price level is reported as ErrZeroAveragePrice
// instead of producing NaN.
func Compute(list []domain.PriceSeries) (*domain.SpreadResult, error) {
	if len(list) < 2 {
		return nil, fmt.Errorf("spread: %w", domain.ErrTooFewSeries)
	}

	n := list[0].Len()
	if n == 0 {
		return nil, fmt.Errorf("spread: %w", domain.ErrEmptySeries)
	}
	for _, s := range list[1:] {
		if s.Len() != n {
			return nil, fmt.Errorf("spread: %w", domain.ErrLengthMismatch)
		}
	}

	hi, lo := 0, 0
	hiSum, loSum := list[0].Sum(), list[0].Sum()
	for i, s := range list[1:] {
		sum := s.Sum()
		if sum > hiSum {
			hi, hiSum = i+1, sum
		}
		if sum < loSum {
			lo, loSum = i+1, sum
		}
	}

	high, low := list[hi], list[lo]

	perIndex := make([]float64, n)
	for k := 0; k < n; k++ {
		perIndex[k] = math.Abs(high.Prices[k] - low.Prices[k])
	}

	avgPrice := (high.Mean() + low.Mean()) / 2
	if avgPrice == 0 {
		return nil, fmt.Errorf("spread: %w", domain.ErrZeroAveragePrice)
	}

	avgSpread := 0.0
	for _, d := range perIndex {
		avgSpread += d
	}
	avgSpread /= float64(n)

	return &domain.SpreadResult{
		PerIndex:   perIndex,
		AvgPercent: avgSpread / avgPrice * 100,
		High:       high,
		Low:        low,
	}, nil
}
