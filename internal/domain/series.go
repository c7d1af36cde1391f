package domain

// PriceSeries is a USD-denominated price sequence derived from one
// market's candles. Index correspondence across series from different
// markets is only meaningful after alignment.
type PriceSeries struct {
	Exchange string     // venue the candles came from
	Market   MarketPair // the market that produced the prices
	Prices   []float64  // USD price per candle, oldest first
}

// Len returns the number of price points.
func (s PriceSeries) Len() int { return len(s.Prices) }

// Sum returns the cumulative price level of the series.
func (s PriceSeries) Sum() float64 {
	total := 0.0
	for _, p := range s.Prices {
		total += p
	}
	return total
}

// Mean returns the arithmetic mean price, or 0 for an empty series.
func (s PriceSeries) Mean() float64 {
	if len(s.Prices) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s.Prices))
}

// RateTable maps candle timestamps (Unix seconds) to USD rates.
// Read-only after construction.
type RateTable map[int64]float64

// AnchorRates maps an anchor currency symbol (BTC, ETH) to its rate table.
// Anchors whose retrieval failed are absent from the map.
type AnchorRates map[string]RateTable
