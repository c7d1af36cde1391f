package domain

import (
	"fmt"
	"time"
)

// Interval is a candle sampling interval.
type Interval string

// Supported candle intervals.
const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

// intervalDurations maps each interval to its fixed duration.
var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval1d:  24 * time.Hour,
}

// Duration returns the fixed step between consecutive candles.
// Panics on an unknown interval; use ParseInterval to validate input.
func (i Interval) Duration() time.Duration {
	d, ok := intervalDurations[i]
	if !ok {
		panic(fmt.Sprintf("unknown interval %q", string(i)))
	}
	return d
}

// Valid reports whether the interval is one of the supported set.
func (i Interval) Valid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// ParseInterval validates a string as an Interval.
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if !i.Valid() {
		return "", fmt.Errorf("%w: unknown interval %q", ErrInvalidInterval, s)
	}
	return i, nil
}
