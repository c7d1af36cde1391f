// Package normalize puts raw candle series from heterogeneous markets
// onto a common, gap-free, USD-denominated footing so that elementwise
// comparison across markets is well-defined.
package normalize

import (
	"fmt"

	"market-spread-lab/internal/domain"
)

// FillGaps normalizes a candle series onto a strictly regular time grid
// for the given interval, synthesizing placeholder candles for missing
// ticks. Illiquid markets report nothing for intervals with no trades;
// a placeholder borrows the price fields of the next real candle and
// carries zero volume, so price is never reported as zero.
//
// The input must be sorted ascending by timestamp and sampled at the
// given interval. Existing candles are never removed: the result length
// is the input length plus the number of synthesized candles. A series
// of length 1 is returned unchanged.
func FillGaps(candles []domain.Candle, interval domain.Interval) ([]domain.Candle, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("fill gaps: %w", domain.ErrEmptySeries)
	}

	step := interval.Duration()
	filled := make([]domain.Candle, 0, len(candles))
	filled = append(filled, candles[0])

	for _, cur := range candles[1:] {
		expectedPrev := cur.Timestamp.Add(-step)
		last := filled[len(filled)-1].Timestamp
		for last.Before(expectedPrev) {
			last = last.Add(step)
			synth := cur
			synth.Timestamp = last
			synth.Volume = 0
			synth.BaseVolume = 0
			filled = append(filled, synth)
		}
		filled = append(filled, cur)
	}

	return filled, nil
}
