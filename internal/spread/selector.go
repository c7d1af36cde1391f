package spread

import (
	"fmt"

	"market-spread-lab/internal/domain"
)

// SelectCrossExchangePair decides, for two venues' series collections,
// which venue supplies the high side and which the low side. The two
// candidate divergences are (max-sum of B) − (min-sum of A) and
// (max-sum of A) − (min-sum of B); the larger one wins. Exactly one
// (low, high) pair comes back, ready for Compute.
//
// Arbitrage value is realized buying low on one venue and selling high
// on the other, so only the single best cross-venue pair matters.
func SelectCrossExchangePair(a, b []domain.PriceSeries) (low, high domain.PriceSeries, err error) {
	if len(a) == 0 || len(b) == 0 {
		return domain.PriceSeries{}, domain.PriceSeries{}, fmt.Errorf("select pair: %w", domain.ErrNoSeries)
	}

	aMin, aMax := minMaxBySum(a)
	bMin, bMax := minMaxBySum(b)

	if bMax.Sum()-aMin.Sum() > aMax.Sum()-bMin.Sum() {
		return aMin, bMax, nil
	}
	return bMin, aMax, nil
}

// minMaxBySum returns the series with the lowest and highest cumulative
// price level. Ties keep the first series encountered.
func minMaxBySum(list []domain.PriceSeries) (min, max domain.PriceSeries) {
	min, max = list[0], list[0]
	minSum, maxSum := list[0].Sum(), list[0].Sum()
	for _, s := range list[1:] {
		sum := s.Sum()
		if sum < minSum {
			min, minSum = s, sum
		}
		if sum > maxSum {
			max, maxSum = s, sum
		}
	}
	return min, max
}
