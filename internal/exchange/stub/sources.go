// Package stub provides fixed in-memory market-data sources for tests
// and offline pipeline runs.
package stub

import (
	"context"

	"market-spread-lab/internal/domain"
)

// CandleSource serves canned markets and candle series keyed by market
// symbol. Implements exchange.CandleSource.
type CandleSource struct {
	ExchangeName string
	Markets      []domain.MarketPair
	Series       map[string][]domain.Candle // keyed by QUOTE-BASE symbol
	Errors       map[string]error           // per-market forced failures
}

// NewCandleSource creates an empty stub source for the given venue name.
func NewCandleSource(name string) *CandleSource {
	return &CandleSource{
		ExchangeName: name,
		Series:       make(map[string][]domain.Candle),
		Errors:       make(map[string]error),
	}
}

// AddSeries registers a market and its candle series.
func (s *CandleSource) AddSeries(pair domain.MarketPair, candles []domain.Candle) {
	s.Markets = append(s.Markets, pair)
	s.Series[pair.Symbol()] = candles
}

// Name identifies the stub venue.
func (s *CandleSource) Name() string { return s.ExchangeName }

// ListMarkets returns the registered pairs.
func (s *CandleSource) ListMarkets(_ context.Context) ([]domain.MarketPair, error) {
	out := make([]domain.MarketPair, len(s.Markets))
	copy(out, s.Markets)
	return out, nil
}

// GetCandles returns copies of the registered series; unknown markets
// report no data.
func (s *CandleSource) GetCandles(_ context.Context, pair domain.MarketPair, _ domain.Interval) ([]domain.Candle, error) {
	if err, ok := s.Errors[pair.Symbol()]; ok {
		return nil, err
	}
	series, ok := s.Series[pair.Symbol()]
	if !ok || len(series) == 0 {
		return nil, nil
	}
	out := make([]domain.Candle, len(series))
	copy(out, series)
	return out, nil
}

// TickerSource serves canned ticker observations. Implements
// exchange.TickerSource.
type TickerSource struct {
	Tickers []domain.Ticker
	Err     error
}

// ListTickers returns copies of the registered tickers.
func (s *TickerSource) ListTickers(_ context.Context, _ string) ([]domain.Ticker, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]domain.Ticker, len(s.Tickers))
	copy(out, s.Tickers)
	return out, nil
}
