package domain

import "time"

// Candle is one OHLCV observation for a fixed time bucket on one market.
type Candle struct {
	Timestamp  time.Time // bucket open time, second precision, implicit UTC
	Open       float64   // opening price in the market's quote currency
	High       float64   // highest price during the bucket
	Low        float64   // lowest price during the bucket
	Close      float64   // closing price
	Volume     float64   // quote-currency volume
	BaseVolume float64   // base-currency volume
}

// CandleRecord is a candle as persisted, keyed by
// (exchange, market, interval, timestamp).
type CandleRecord struct {
	ID         string   // deterministic hash, see idhash.ComputeCandleID
	Exchange   string   // venue name (e.g. "bittrex", "binance")
	Market     string   // market symbol (e.g. "USDT-BTC")
	Interval   Interval // sampling interval
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	BaseVolume float64
}

// ToCandle strips storage identity from a record.
func (r *CandleRecord) ToCandle() Candle {
	return Candle{
		Timestamp:  r.Timestamp,
		Open:       r.Open,
		High:       r.High,
		Low:        r.Low,
		Close:      r.Close,
		Volume:     r.Volume,
		BaseVolume: r.BaseVolume,
	}
}
