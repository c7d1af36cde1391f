package normalize

import (
	"math"

	"market-spread-lab/internal/domain"
)

// ToUSD maps a gap-filled candle series plus an anchor rate table to a
// parallel sequence of USD prices. A candle with no matching rate, or
// whose open price is not a finite number, is dropped from the output
// rather than zero-filled: a synthetic zero price would skew every sum
// and mean downstream, while a dropped point merely shortens the series.
//
// Output length is at most the input length; relative order is preserved.
func ToUSD(candles []domain.Candle, rates domain.RateTable) []float64 {
	prices := make([]float64, 0, len(candles))
	for _, c := range candles {
		if !finite(c.Open) {
			continue
		}
		rate, ok := rates[c.Timestamp.Unix()]
		if !ok {
			continue
		}
		prices = append(prices, c.Open*rate)
	}
	return prices
}

// USDPassthrough extracts open prices from a series that is already
// USD-quoted. Conversion is identity: no rate lookup, nothing dropped
// except non-finite opens.
func USDPassthrough(candles []domain.Candle) []float64 {
	prices := make([]float64, 0, len(candles))
	for _, c := range candles {
		if !finite(c.Open) {
			continue
		}
		prices = append(prices, c.Open)
	}
	return prices
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
