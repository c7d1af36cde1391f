package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the ranked spread rows as CSV string.
func RenderCSV(rows []SpreadRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,currency,high_market,low_market,series_length,avg_percent_spread\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%d,%.6f\n",
			r.Rank,
			r.Currency,
			r.HighMarket,
			r.LowMarket,
			r.SeriesLength,
			r.AvgPercentSpread,
		))
	}

	return sb.String()
}
