package spread

import (
	"testing"

	"market-spread-lab/internal/domain"
)

func ticker(exchange, currency string, price, volume float64) domain.Ticker {
	return domain.Ticker{
		Exchange:  exchange,
		Currency:  currency,
		Target:    "USDT",
		PriceUSD:  price,
		VolumeUSD: volume,
	}
}

func TestScanTickers_BasicSpread(t *testing.T) {
	tickers := []domain.Ticker{
		ticker("binance", "LTC", 100, 50000),
		ticker("kraken", "LTC", 104, 50000),
		ticker("kucoin", "LTC", 102, 50000),
	}

	results := ScanTickers(tickers, TickerScanOptions{})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Currency != "LTC" || r.Markets != 3 {
		t.Errorf("Result = %+v, want LTC across 3 markets", r)
	}
	if !almostEqual(r.SpreadPercent, 4.0, 1e-9) {
		t.Errorf("SpreadPercent = %v, want 4", r.SpreadPercent)
	}
}

func TestScanTickers_MinVolumeFilter(t *testing.T) {
	tickers := []domain.Ticker{
		ticker("binance", "LTC", 100, 50000),
		ticker("kraken", "LTC", 140, 100), // thin book, filtered out
	}

	results := ScanTickers(tickers, TickerScanOptions{MinVolumeUSD: 5000})
	if len(results) != 0 {
		t.Fatalf("Single surviving market must not produce a spread, got %d results", len(results))
	}
}

func TestScanTickers_IncludeExclude(t *testing.T) {
	tickers := []domain.Ticker{
		ticker("binance", "LTC", 100, 50000),
		ticker("kraken", "LTC", 105, 50000),
		ticker("shadyex", "LTC", 300, 50000),
	}

	included := ScanTickers(tickers, TickerScanOptions{Include: []string{"binance", "kraken"}})
	if len(included) != 1 || !almostEqual(included[0].SpreadPercent, 5.0, 1e-9) {
		t.Errorf("Include filter: got %+v, want 5%% over 2 markets", included)
	}

	excluded := ScanTickers(tickers, TickerScanOptions{Exclude: []string{"shadyex"}})
	if len(excluded) != 1 || excluded[0].Markets != 2 {
		t.Errorf("Exclude filter: got %+v, want 2 markets", excluded)
	}
}

func TestScanTickers_SortDirection(t *testing.T) {
	tickers := []domain.Ticker{
		ticker("binance", "AAA", 100, 50000),
		ticker("kraken", "AAA", 110, 50000),
		ticker("binance", "BBB", 100, 50000),
		ticker("kraken", "BBB", 101, 50000),
	}

	desc := ScanTickers(tickers, TickerScanOptions{})
	if desc[0].Currency != "AAA" {
		t.Errorf("Default order should be descending, got %s first", desc[0].Currency)
	}

	asc := ScanTickers(tickers, TickerScanOptions{Sort: domain.SortAscending})
	if asc[0].Currency != "BBB" {
		t.Errorf("Ascending order should list BBB first, got %s", asc[0].Currency)
	}
}

func TestScanTickers_ZeroMinPriceSkipped(t *testing.T) {
	tickers := []domain.Ticker{
		ticker("binance", "DEAD", 0, 50000),
		ticker("kraken", "DEAD", 1, 50000),
	}

	results := ScanTickers(tickers, TickerScanOptions{})
	if len(results) != 0 {
		t.Fatalf("Zero minimum price must be skipped, got %d results", len(results))
	}
}
