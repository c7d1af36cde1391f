package exchange

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"market-spread-lab/internal/domain"
)

// BittrexBaseURL is the default Bittrex public API root.
const BittrexBaseURL = "https://api.bittrex.com"

// TimestampLayout is the candle timestamp wire format: date and time
// with a T separator, second resolution, no explicit zone. Parsed as
// UTC throughout; consistency matters, not the zone itself.
const TimestampLayout = "2006-01-02T15:04:05"

// bittrexIntervals maps intervals to Bittrex tick interval names.
var bittrexIntervals = map[domain.Interval]string{
	domain.Interval1m:  "oneMin",
	domain.Interval5m:  "fiveMin",
	domain.Interval30m: "thirtyMin",
	domain.Interval1h:  "hour",
	domain.Interval1d:  "day",
}

// Bittrex is a CandleSource for the Bittrex public API
// (v1.1 market list, v2.0 candle ticks).
type Bittrex struct {
	baseURL string
	client  *Client
}

// NewBittrex creates a Bittrex gateway. An empty baseURL selects the
// production endpoint; tests point it at a local server.
func NewBittrex(baseURL string, client *Client) *Bittrex {
	if baseURL == "" {
		baseURL = BittrexBaseURL
	}
	if client == nil {
		client = NewClient()
	}
	return &Bittrex{baseURL: baseURL, client: client}
}

// Name identifies the venue.
func (b *Bittrex) Name() string { return "bittrex" }

type bittrexMarketsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  []struct {
		MarketName string `json:"MarketName"`
		IsActive   bool   `json:"IsActive"`
	} `json:"result"`
}

// ListMarkets returns all active pairs.
func (b *Bittrex) ListMarkets(ctx context.Context) ([]domain.MarketPair, error) {
	var resp bittrexMarketsResponse
	if err := b.client.GetJSON(ctx, b.baseURL+"/api/v1.1/public/getmarkets", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("bittrex getmarkets: %s", resp.Message)
	}

	pairs := make([]domain.MarketPair, 0, len(resp.Result))
	for _, m := range resp.Result {
		if !m.IsActive {
			continue
		}
		pair, err := domain.ParseMarketSymbol(m.MarketName)
		if err != nil {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

type bittrexTicksResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Result  []bittrexTick `json:"result"`
}

type bittrexTick struct {
	Open       float64 `json:"O"`
	High       float64 `json:"H"`
	Low        float64 `json:"L"`
	Close      float64 `json:"C"`
	Volume     float64 `json:"V"`
	Timestamp  string  `json:"T"`
	BaseVolume float64 `json:"BV"`
}

// GetCandles returns the candle series for a market. A null or empty
// result maps to (nil, nil): illiquid pairs simply report nothing.
func (b *Bittrex) GetCandles(ctx context.Context, pair domain.MarketPair, interval domain.Interval) ([]domain.Candle, error) {
	tickInterval, ok := bittrexIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("bittrex: %w: %s", domain.ErrInvalidInterval, interval)
	}

	u := fmt.Sprintf("%s/Api/v2.0/pub/market/GetTicks?marketName=%s&tickInterval=%s",
		b.baseURL, url.QueryEscape(pair.Symbol()), tickInterval)

	var resp bittrexTicksResponse
	if err := b.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("bittrex GetTicks %s: %s", pair.Symbol(), resp.Message)
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}

	candles := make([]domain.Candle, 0, len(resp.Result))
	for _, tick := range resp.Result {
		ts, err := time.ParseInLocation(TimestampLayout, tick.Timestamp, time.UTC)
		if err != nil {
			// One malformed timestamp drops one candle, not the series.
			continue
		}
		candles = append(candles, domain.Candle{
			Timestamp: ts,
			Open:      tick.Open,
			High:      tick.High,
			Low:       tick.Low,
			Close:     tick.Close,
			// Bittrex "BV" is the quote-currency turnover, "V" the
			// traded-currency amount.
			Volume:     tick.BaseVolume,
			BaseVolume: tick.Volume,
		})
	}
	return candles, nil
}

var _ CandleSource = (*Bittrex)(nil)
