package domain

import (
	"fmt"
	"strings"
)

// MarketPair identifies one tradable pair on a venue.
// Quote is the pricing (anchor) currency, Base the traded currency:
// the pair USDT-BTC has Quote "USDT" and Base "BTC".
type MarketPair struct {
	Quote string
	Base  string
}

// Symbol renders the pair in QUOTE-BASE form.
func (p MarketPair) Symbol() string {
	return p.Quote + "-" + p.Base
}

// ParseMarketSymbol parses a QUOTE-BASE market symbol.
func ParseMarketSymbol(s string) (MarketPair, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return MarketPair{}, fmt.Errorf("malformed market symbol %q", s)
	}
	return MarketPair{Quote: parts[0], Base: parts[1]}, nil
}

// IsUSDQuote reports whether a currency symbol belongs to the USD
// stablecoin family (USD, USDT, USDC, ...). Prices quoted in these
// currencies are treated as already USD-denominated.
func IsUSDQuote(symbol string) bool {
	return strings.Contains(strings.ToUpper(symbol), "USD")
}
