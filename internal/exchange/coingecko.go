package exchange

import (
	"context"
	"fmt"

	"market-spread-lab/internal/domain"
)

// CoinGeckoBaseURL is the default CoinGecko API root.
const CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// coinGeckoPageSize is the fixed page size of the tickers endpoint; a
// short page signals the last one.
const coinGeckoPageSize = 100

// CoinGecko is a TickerSource backed by the CoinGecko exchanges API.
// Prices and volumes arrive already converted to USD, which makes it
// the cheapest way to compare one asset across many venues at once.
type CoinGecko struct {
	baseURL string
	client  *Client
}

// NewCoinGecko creates a CoinGecko gateway. An empty baseURL selects
// the production endpoint.
func NewCoinGecko(baseURL string, client *Client) *CoinGecko {
	if baseURL == "" {
		baseURL = CoinGeckoBaseURL
	}
	if client == nil {
		client = NewClient()
	}
	return &CoinGecko{baseURL: baseURL, client: client}
}

type coinGeckoTickersResponse struct {
	Tickers []struct {
		Base          string `json:"base"`
		Target        string `json:"target"`
		ConvertedLast struct {
			USD float64 `json:"usd"`
		} `json:"converted_last"`
		ConvertedVolume struct {
			USD float64 `json:"usd"`
		} `json:"converted_volume"`
	} `json:"tickers"`
}

// ListTickers pages through all tickers the aggregator knows for a venue.
func (c *CoinGecko) ListTickers(ctx context.Context, exchangeID string) ([]domain.Ticker, error) {
	var all []domain.Ticker

	for page := 1; ; page++ {
		u := fmt.Sprintf("%s/exchanges/%s/tickers?page=%d", c.baseURL, exchangeID, page)

		var resp coinGeckoTickersResponse
		if err := c.client.GetJSON(ctx, u, &resp); err != nil {
			return nil, fmt.Errorf("tickers page %d: %w", page, err)
		}
		if len(resp.Tickers) == 0 {
			break
		}

		for _, t := range resp.Tickers {
			all = append(all, domain.Ticker{
				Exchange:  exchangeID,
				Currency:  t.Base,
				Target:    t.Target,
				PriceUSD:  t.ConvertedLast.USD,
				VolumeUSD: t.ConvertedVolume.USD,
			})
		}

		if len(resp.Tickers) < coinGeckoPageSize {
			break
		}
	}

	return all, nil
}

var _ TickerSource = (*CoinGecko)(nil)
