package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"market-spread-lab/internal/domain"
)

// ComputeScanID computes a deterministic scan_id using SHA256.
// Formula: SHA256(exchange|cross_exchange|interval|started_at)
// Returns hex-encoded hash (64 characters).
func ComputeScanID(
	exchange string,
	crossExchange *string,
	interval domain.Interval,
	startedAt int64,
) string {
	crossStr := ""
	if crossExchange != nil {
		crossStr = *crossExchange
	}

	data := fmt.Sprintf("%s|%s|%s|%d",
		exchange,
		crossStr,
		string(interval),
		startedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
