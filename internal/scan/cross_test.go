package scan

import (
	"context"
	"errors"
	"testing"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/exchange/stub"
)

func TestCrossScanner_PicksMostDivergentPair(t *testing.T) {
	primary := stub.NewCandleSource("bittrex")
	primary.AddSeries(pair("USDT", "AAA"), candles(1, 1, 1))
	secondary := stub.NewCandleSource("binance")
	secondary.AddSeries(pair("USDT", "AAA"), candles(5, 5, 5))

	scanner := NewCross(CrossOptions{
		Primary:   primary,
		Secondary: secondary,
		Interval:  domain.Interval30m,
		Anchors:   []string{},
	})

	result, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Spreads) != 1 {
		t.Fatalf("Expected 1 spread, got %d", len(result.Spreads))
	}
	got := result.Spreads[0]
	if got.Result.Low.Exchange != "bittrex" || got.Result.High.Exchange != "binance" {
		t.Errorf("Pair = %s low / %s high, want bittrex low / binance high",
			got.Result.Low.Exchange, got.Result.High.Exchange)
	}
	// Mean spread 4 against mean price level 3.
	if !almostEqual(got.Result.AvgPercent, 400.0/3.0, 0.001) {
		t.Errorf("AvgPercent = %f, want ~133.333", got.Result.AvgPercent)
	}

	if result.Run.CrossExchange == nil || *result.Run.CrossExchange != "binance" {
		t.Errorf("CrossExchange = %v, want binance", result.Run.CrossExchange)
	}
}

func TestCrossScanner_OneSidedCurrencySkipped(t *testing.T) {
	primary := stub.NewCandleSource("bittrex")
	primary.AddSeries(pair("USDT", "AAA"), candles(1, 1, 1))
	primary.AddSeries(pair("USDT", "BBB"), candles(2, 2, 2))
	secondary := stub.NewCandleSource("binance")
	secondary.AddSeries(pair("USDT", "AAA"), candles(5, 5, 5))

	scanner := NewCross(CrossOptions{
		Primary:   primary,
		Secondary: secondary,
		Interval:  domain.Interval30m,
		Anchors:   []string{},
	})

	result, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Spreads) != 1 || result.Spreads[0].Currency != "AAA" {
		t.Fatalf("Expected only AAA analyzed, got %+v", result.Spreads)
	}
}

func TestCrossScanner_AlignsAcrossVenues(t *testing.T) {
	primary := stub.NewCandleSource("bittrex")
	primary.AddSeries(pair("USDT", "AAA"), candles(9, 9, 1, 1, 1))
	secondary := stub.NewCandleSource("binance")
	secondary.AddSeries(pair("USDT", "AAA"), candles(5, 5, 5))

	scanner := NewCross(CrossOptions{
		Primary:   primary,
		Secondary: secondary,
		Interval:  domain.Interval30m,
		Anchors:   []string{},
	})

	result, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Spreads) != 1 {
		t.Fatalf("Expected 1 spread, got %d", len(result.Spreads))
	}
	got := result.Spreads[0]
	// The longer bittrex series is truncated to its last 3 points, so
	// its early highs never enter the comparison.
	if len(got.Result.PerIndex) != 3 {
		t.Errorf("PerIndex length = %d, want 3", len(got.Result.PerIndex))
	}
	if got.Result.Low.Exchange != "bittrex" {
		t.Errorf("Low exchange = %s, want bittrex", got.Result.Low.Exchange)
	}
}

func TestCrossScanner_VenueErrorAbsorbedPerAsset(t *testing.T) {
	primary := stub.NewCandleSource("bittrex")
	primary.AddSeries(pair("USDT", "AAA"), candles(1, 1, 1))
	primary.AddSeries(pair("USDT", "BBB"), candles(2, 2, 2))
	secondary := stub.NewCandleSource("binance")
	secondary.AddSeries(pair("USDT", "AAA"), candles(5, 5, 5))
	secondary.AddSeries(pair("USDT", "BBB"), candles(3, 3, 3))
	secondary.Errors["USDT-BBB"] = errors.New("boom")

	scanner := NewCross(CrossOptions{
		Primary:   primary,
		Secondary: secondary,
		Interval:  domain.Interval30m,
		Anchors:   []string{},
	})

	result, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should absorb per-asset errors, got: %v", err)
	}
	if len(result.Spreads) != 1 || result.Spreads[0].Currency != "AAA" {
		t.Fatalf("Expected AAA to survive, got %+v", result.Spreads)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 recorded error, got %v", result.Errors)
	}
	if result.Run.AssetsSkipped != 1 {
		t.Errorf("AssetsSkipped = %d, want 1", result.Run.AssetsSkipped)
	}
}
