package domain

import "errors"

// Error kinds surfaced by the analytical core. Errors local to one
// candle or one asset are absorbed at the narrowest scope by callers;
// these sentinels signal either malformed pipeline usage or degenerate
// arithmetic that must not be silently coerced.
var (
	// ErrEmptySeries is returned when a stage requires at least one candle.
	ErrEmptySeries = errors.New("empty candle series")

	// ErrNoSeries is returned when a stage requires a non-empty series collection.
	ErrNoSeries = errors.New("no series to process")

	// ErrLengthMismatch is returned when unaligned series reach an
	// elementwise computation.
	ErrLengthMismatch = errors.New("series lengths differ: align before comparing")

	// ErrTooFewSeries is returned when fewer than two comparable series
	// exist for an asset.
	ErrTooFewSeries = errors.New("need at least two series")

	// ErrZeroAveragePrice is returned instead of producing NaN when the
	// mean price level of the compared series is zero.
	ErrZeroAveragePrice = errors.New("average price is zero")

	// ErrNoData signals that a market has no retrievable candles
	// (illiquid or delisted pair). Callers skip the asset, never abort.
	ErrNoData = errors.New("no candle data")

	// ErrInvalidInterval is returned for an interval outside the supported set.
	ErrInvalidInterval = errors.New("invalid interval")
)
