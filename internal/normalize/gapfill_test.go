package normalize

import (
	"errors"
	"testing"
	"time"

	"market-spread-lab/internal/domain"
)

func candleAt(ts time.Time, open, volume float64) domain.Candle {
	return domain.Candle{
		Timestamp:  ts,
		Open:       open,
		High:       open * 1.01,
		Low:        open * 0.99,
		Close:      open,
		Volume:     volume,
		BaseVolume: volume / 2,
	}
}

func TestFillGaps_SingleMissingTick(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Candles at :00 and :60 with the :30 tick missing.
	candles := []domain.Candle{
		candleAt(base, 100, 5),
		candleAt(base.Add(60*time.Minute), 110, 7),
	}

	filled, err := FillGaps(candles, domain.Interval30m)
	if err != nil {
		t.Fatalf("FillGaps failed: %v", err)
	}

	if len(filled) != 3 {
		t.Fatalf("Expected 3 candles after filling, got %d", len(filled))
	}

	synth := filled[1]
	if !synth.Timestamp.Equal(base.Add(30 * time.Minute)) {
		t.Errorf("Synthesized timestamp = %v, want %v", synth.Timestamp, base.Add(30*time.Minute))
	}
	if synth.Volume != 0 || synth.BaseVolume != 0 {
		t.Errorf("Synthesized volumes = (%v, %v), want zero", synth.Volume, synth.BaseVolume)
	}

	// Price fields are borrowed from the next real candle.
	next := filled[2]
	if synth.Open != next.Open || synth.High != next.High || synth.Low != next.Low || synth.Close != next.Close {
		t.Errorf("Synthesized prices (%v %v %v %v) differ from next candle (%v %v %v %v)",
			synth.Open, synth.High, synth.Low, synth.Close,
			next.Open, next.High, next.Low, next.Close)
	}
}

func TestFillGaps_MultipleMissingTicks(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Three consecutive hourly ticks missing between hour 0 and hour 4.
	candles := []domain.Candle{
		candleAt(base, 50, 1),
		candleAt(base.Add(4*time.Hour), 55, 2),
	}

	filled, err := FillGaps(candles, domain.Interval1h)
	if err != nil {
		t.Fatalf("FillGaps failed: %v", err)
	}

	if len(filled) != 5 {
		t.Fatalf("Expected 5 candles, got %d", len(filled))
	}
	for i := 1; i <= 3; i++ {
		want := base.Add(time.Duration(i) * time.Hour)
		if !filled[i].Timestamp.Equal(want) {
			t.Errorf("Candle %d timestamp = %v, want %v", i, filled[i].Timestamp, want)
		}
		if filled[i].Volume != 0 {
			t.Errorf("Candle %d volume = %v, want 0", i, filled[i].Volume)
		}
		if filled[i].Open != 55 {
			t.Errorf("Candle %d open = %v, want 55 (next real candle)", i, filled[i].Open)
		}
	}
}

func TestFillGaps_RegularSeriesUnchanged(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	candles := []domain.Candle{
		candleAt(base, 10, 1),
		candleAt(base.Add(5*time.Minute), 11, 2),
		candleAt(base.Add(10*time.Minute), 12, 3),
	}

	filled, err := FillGaps(candles, domain.Interval5m)
	if err != nil {
		t.Fatalf("FillGaps failed: %v", err)
	}

	if len(filled) != len(candles) {
		t.Fatalf("Regular series grew from %d to %d candles", len(candles), len(filled))
	}
	for i := range candles {
		if filled[i] != candles[i] {
			t.Errorf("Candle %d changed: got %+v, want %+v", i, filled[i], candles[i])
		}
	}
}

func TestFillGaps_SingleCandle(t *testing.T) {
	candles := []domain.Candle{
		candleAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 10, 1),
	}

	filled, err := FillGaps(candles, domain.Interval1d)
	if err != nil {
		t.Fatalf("FillGaps failed: %v", err)
	}
	if len(filled) != 1 {
		t.Fatalf("Expected 1 candle, got %d", len(filled))
	}
}

func TestFillGaps_EmptySeries(t *testing.T) {
	_, err := FillGaps(nil, domain.Interval1h)
	if !errors.Is(err, domain.ErrEmptySeries) {
		t.Fatalf("Expected ErrEmptySeries, got %v", err)
	}
}
