package normalize

import (
	"math"
	"testing"
	"time"

	"market-spread-lab/internal/domain"
)

func TestToUSD_ConvertsViaRateTable(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		candleAt(base, 0.5, 1),
		candleAt(base.Add(time.Hour), 0.6, 1),
	}
	rates := domain.RateTable{
		base.Unix():                60000,
		base.Add(time.Hour).Unix(): 61000,
	}

	prices := ToUSD(candles, rates)

	if len(prices) != 2 {
		t.Fatalf("Expected 2 prices, got %d", len(prices))
	}
	if prices[0] != 0.5*60000 {
		t.Errorf("Price 0 = %v, want %v", prices[0], 0.5*60000)
	}
	if prices[1] != 0.6*61000 {
		t.Errorf("Price 1 = %v, want %v", prices[1], 0.6*61000)
	}
}

func TestToUSD_DropsCandleWithoutRate(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		candleAt(base, 0.5, 1),
		candleAt(base.Add(time.Hour), 0.6, 1), // no rate for this tick
		candleAt(base.Add(2*time.Hour), 0.7, 1),
	}
	rates := domain.RateTable{
		base.Unix():                  60000,
		base.Add(2 * time.Hour).Unix(): 62000,
	}

	prices := ToUSD(candles, rates)

	if len(prices) != 2 {
		t.Fatalf("Expected the unmatched candle to be dropped, got %d prices", len(prices))
	}
	// Relative order preserved.
	if prices[0] != 0.5*60000 || prices[1] != 0.7*62000 {
		t.Errorf("Prices = %v, want [%v %v]", prices, 0.5*60000, 0.7*62000)
	}
}

func TestToUSD_DropsNonFiniteOpen(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bad := candleAt(base.Add(time.Hour), 0, 1)
	bad.Open = math.NaN()
	candles := []domain.Candle{
		candleAt(base, 0.5, 1),
		bad,
	}
	rates := domain.RateTable{
		base.Unix():                60000,
		base.Add(time.Hour).Unix(): 61000,
	}

	prices := ToUSD(candles, rates)
	if len(prices) != 1 {
		t.Fatalf("Expected NaN open to be dropped, got %d prices", len(prices))
	}
}

func TestUSDPassthrough_IdentityOnOpens(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		candleAt(base, 10, 1),
		candleAt(base.Add(time.Hour), 12, 1),
	}

	prices := USDPassthrough(candles)

	if len(prices) != 2 || prices[0] != 10 || prices[1] != 12 {
		t.Errorf("Passthrough prices = %v, want [10 12]", prices)
	}
}
