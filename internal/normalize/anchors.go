package normalize

import (
	"context"
	"fmt"

	"market-spread-lab/internal/domain"
)

// CandleSource is the retrieval capability the anchor builder depends
// on. It is satisfied by the exchange clients and by test stubs.
type CandleSource interface {
	// GetCandles returns the ordered candle series for a market at the
	// given interval. A (nil, nil) result signals no data.
	GetCandles(ctx context.Context, pair domain.MarketPair, interval domain.Interval) ([]domain.Candle, error)
}

// AnchorQuote is the stablecoin the anchor series themselves are quoted in.
const AnchorQuote = "USDT"

// DefaultAnchors are the anchor currencies built when none are configured.
var DefaultAnchors = []string{"BTC", "ETH"}

// BuildAnchorRates builds a USD-per-unit lookup table for each anchor
// currency by fetching its USDT-quoted candle series, gap-filling it,
// and indexing the open price by timestamp.
//
// An anchor whose retrieval fails or returns no data is absent from
// the result rather than halting the build; its error is reported in
// the second return value keyed by anchor symbol. Markets quoted in a
// missing anchor cannot be converted and are skipped downstream.
func BuildAnchorRates(ctx context.Context, src CandleSource, interval domain.Interval, anchors []string) (domain.AnchorRates, map[string]error) {
	rates := make(domain.AnchorRates, len(anchors))
	failed := make(map[string]error)

	for _, anchor := range anchors {
		pair := domain.MarketPair{Quote: AnchorQuote, Base: anchor}
		candles, err := src.GetCandles(ctx, pair, interval)
		if err != nil {
			failed[anchor] = fmt.Errorf("fetch %s: %w", pair.Symbol(), err)
			continue
		}
		if len(candles) == 0 {
			failed[anchor] = fmt.Errorf("%s: %w", pair.Symbol(), domain.ErrNoData)
			continue
		}

		filled, err := FillGaps(candles, interval)
		if err != nil {
			failed[anchor] = fmt.Errorf("fill %s: %w", pair.Symbol(), err)
			continue
		}

		table := make(domain.RateTable, len(filled))
		for _, c := range filled {
			table[c.Timestamp.Unix()] = c.Open
		}
		rates[anchor] = table
	}

	return rates, failed
}
