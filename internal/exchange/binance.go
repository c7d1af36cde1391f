package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"market-spread-lab/internal/domain"
)

// BinanceBaseURL is the default Binance public API root.
const BinanceBaseURL = "https://api.binance.com"

// binanceIntervals maps intervals to Binance kline interval names.
var binanceIntervals = map[domain.Interval]string{
	domain.Interval1m:  "1m",
	domain.Interval5m:  "5m",
	domain.Interval30m: "30m",
	domain.Interval1h:  "1h",
	domain.Interval1d:  "1d",
}

// Binance is a CandleSource for the Binance public API.
type Binance struct {
	baseURL string
	client  *Client
}

// NewBinance creates a Binance gateway. An empty baseURL selects the
// production endpoint.
func NewBinance(baseURL string, client *Client) *Binance {
	if baseURL == "" {
		baseURL = BinanceBaseURL
	}
	if client == nil {
		client = NewClient()
	}
	return &Binance{baseURL: baseURL, client: client}
}

// Name identifies the venue.
func (b *Binance) Name() string { return "binance" }

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// ListMarkets returns all pairs currently trading.
func (b *Binance) ListMarkets(ctx context.Context) ([]domain.MarketPair, error) {
	var info binanceExchangeInfo
	if err := b.client.GetJSON(ctx, b.baseURL+"/api/v3/exchangeInfo", &info); err != nil {
		return nil, err
	}

	pairs := make([]domain.MarketPair, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		pairs = append(pairs, domain.MarketPair{Quote: s.QuoteAsset, Base: s.BaseAsset})
	}
	return pairs, nil
}

// GetCandles returns the kline series for a market. An empty kline
// array maps to (nil, nil).
//
// Binance encodes each kline as a positional JSON array:
// [openTime, open, high, low, close, baseVolume, closeTime, quoteVolume, ...]
// with prices and volumes as strings.
func (b *Binance) GetCandles(ctx context.Context, pair domain.MarketPair, interval domain.Interval) ([]domain.Candle, error) {
	name, ok := binanceIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("binance: %w: %s", domain.ErrInvalidInterval, interval)
	}

	symbol := pair.Base + pair.Quote
	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s", b.baseURL, symbol, name)

	var klines [][]interface{}
	if err := b.client.GetJSON(ctx, u, &klines); err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, nil
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := decodeKline(k)
		if err != nil {
			// One malformed kline drops one candle, not the series.
			continue
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func decodeKline(k []interface{}) (domain.Candle, error) {
	if len(k) < 8 {
		return domain.Candle{}, fmt.Errorf("kline has %d fields, want >= 8", len(k))
	}

	openTimeMs, ok := k[0].(float64)
	if !ok {
		return domain.Candle{}, fmt.Errorf("kline open time is %T, want number", k[0])
	}

	fields := make([]float64, 0, 6)
	for _, idx := range []int{1, 2, 3, 4, 5, 7} {
		s, ok := k[idx].(string)
		if !ok {
			return domain.Candle{}, fmt.Errorf("kline field %d is %T, want string", idx, k[idx])
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("kline field %d: %w", idx, err)
		}
		fields = append(fields, f)
	}

	return domain.Candle{
		Timestamp:  time.Unix(int64(openTimeMs)/1000, 0).UTC(),
		Open:       fields[0],
		High:       fields[1],
		Low:        fields[2],
		Close:      fields[3],
		BaseVolume: fields[4], // traded-currency amount
		Volume:     fields[5], // quote-currency turnover
	}, nil
}

var _ CandleSource = (*Binance)(nil)
