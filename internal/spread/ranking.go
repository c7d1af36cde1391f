package spread

import (
	"sort"

	"market-spread-lab/internal/domain"
)

// Rank orders asset spreads by average percent spread in the given
// direction. The input is not mutated; sorting is stable so assets with
// equal spreads keep their scan order.
func Rank(results []domain.AssetSpread, dir domain.SortDirection) []domain.AssetSpread {
	out := make([]domain.AssetSpread, len(results))
	copy(out, results)

	sort.SliceStable(out, func(i, j int) bool {
		if dir == domain.SortAscending {
			return out[i].Result.AvgPercent < out[j].Result.AvgPercent
		}
		return out[i].Result.AvgPercent > out[j].Result.AvgPercent
	})
	return out
}
