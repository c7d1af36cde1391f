package spread

import (
	"sort"

	"market-spread-lab/internal/domain"
)

// TickerScanOptions filters which ticker observations enter the quick scan.
type TickerScanOptions struct {
	// MinVolumeUSD drops markets below this 24h USD volume. Thin books
	// show spreads that cannot actually be traded.
	MinVolumeUSD float64

	// Include, when non-empty, is a venue allowlist. Exclude is ignored
	// while Include is set.
	Include []string

	// Exclude is a venue blocklist applied when Include is empty.
	Exclude []string

	// Sort controls output order; zero value means descending.
	Sort domain.SortDirection
}

// TickerSpread is one row of the ticker-level quick scan.
type TickerSpread struct {
	Currency      string  // traded currency
	Markets       int     // venues that passed the volume filter
	SpreadPercent float64 // (max price − min price) / min price × 100
}

// ScanTickers ranks currencies by the percent gap between their most
// and least expensive venue using single ticker observations instead of
// candle series. Coarser than the candle pipeline but needs only one
// aggregator call per venue. Currencies with fewer than two surviving
// markets, or a zero minimum price, are skipped.
func ScanTickers(tickers []domain.Ticker, opts TickerScanOptions) []TickerSpread {
	byCurrency := make(map[string][]float64)
	var order []string

	for _, t := range tickers {
		if !venueAllowed(t.Exchange, opts) {
			continue
		}
		if t.VolumeUSD < opts.MinVolumeUSD {
			continue
		}
		if _, seen := byCurrency[t.Currency]; !seen {
			order = append(order, t.Currency)
		}
		byCurrency[t.Currency] = append(byCurrency[t.Currency], t.PriceUSD)
	}

	var results []TickerSpread
	for _, currency := range order {
		prices := byCurrency[currency]
		if len(prices) < 2 {
			continue
		}
		min, max := prices[0], prices[0]
		for _, p := range prices[1:] {
			if p < min {
				min = p
			}
			if p > max {
				max = p
			}
		}
		if min == 0 {
			continue
		}
		results = append(results, TickerSpread{
			Currency:      currency,
			Markets:       len(prices),
			SpreadPercent: (max - min) / min * 100,
		})
	}

	asc := opts.Sort == domain.SortAscending
	sort.SliceStable(results, func(i, j int) bool {
		if asc {
			return results[i].SpreadPercent < results[j].SpreadPercent
		}
		return results[i].SpreadPercent > results[j].SpreadPercent
	})
	return results
}

func venueAllowed(venue string, opts TickerScanOptions) bool {
	if len(opts.Include) > 0 {
		for _, v := range opts.Include {
			if v == venue {
				return true
			}
		}
		return false
	}
	for _, v := range opts.Exclude {
		if v == venue {
			return false
		}
	}
	return true
}
