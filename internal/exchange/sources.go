// Package exchange holds the market-data retrieval collaborators: REST
// gateways for candle and market data, an aggregator ticker client, and
// a websocket ticker stream. Network concerns (retries, backoff, rate
// limiting) live here and never leak into the analytical core.
package exchange

import (
	"context"

	"market-spread-lab/internal/domain"
)

// CandleSource provides ordered candle series from one venue.
type CandleSource interface {
	// Name identifies the venue (e.g. "bittrex", "binance").
	Name() string

	// ListMarkets returns the venue's tradable pairs.
	ListMarkets(ctx context.Context) ([]domain.MarketPair, error)

	// GetCandles returns the candle series for a market at the given
	// interval, sorted ascending by timestamp. A (nil, nil) result
	// signals no data (illiquid or delisted pair) and is not an error.
	GetCandles(ctx context.Context, pair domain.MarketPair, interval domain.Interval) ([]domain.Candle, error)
}

// TickerSource provides market-level ticker observations in USD terms
// from a price aggregator.
type TickerSource interface {
	// ListTickers returns all ticker observations for a venue known to
	// the aggregator.
	ListTickers(ctx context.Context, exchangeID string) ([]domain.Ticker, error)
}
