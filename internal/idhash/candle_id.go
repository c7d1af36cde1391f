package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"market-spread-lab/internal/domain"
)

// ComputeCandleID computes a deterministic candle_id using SHA256.
// Formula: SHA256(exchange|market|interval|timestamp)
// Returns hex-encoded hash (64 characters).
func ComputeCandleID(
	exchange string,
	market domain.MarketPair,
	interval domain.Interval,
	timestamp int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		exchange,
		market.Symbol(),
		string(interval),
		timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
