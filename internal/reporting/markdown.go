package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Spread Scan Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Scan ID | %s |\n", r.ScanID))
	sb.WriteString(fmt.Sprintf("| Exchange | %s |\n", r.Exchange))
	if r.CrossExchange != "" {
		sb.WriteString(fmt.Sprintf("| Cross Exchange | %s |\n", r.CrossExchange))
	}
	sb.WriteString(fmt.Sprintf("| Interval | %s |\n", r.Interval))
	sb.WriteString(fmt.Sprintf("| Started (ms) | %d |\n", r.StartedAt))
	sb.WriteString(fmt.Sprintf("| Completed (ms) | %d |\n", r.CompletedAt))
	sb.WriteString(fmt.Sprintf("| Markets Scanned | %d |\n", r.MarketsScanned))
	sb.WriteString(fmt.Sprintf("| Assets Analyzed | %d |\n", r.AssetsAnalyzed))
	sb.WriteString(fmt.Sprintf("| Assets Skipped | %d |\n", r.AssetsSkipped))
	sb.WriteString("\n")

	// Ranked Spreads
	sb.WriteString("## Ranked Spreads\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Rank | Currency | High Market | Low Market | Length | Avg Spread % |\n")
		sb.WriteString("|------|----------|-------------|------------|--------|-------------|\n")
		for _, row := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | %.4f |\n",
				row.Rank, row.Currency, row.HighMarket, row.LowMarket,
				row.SeriesLength, row.AvgPercentSpread))
		}
	} else {
		sb.WriteString("No spreads found.\n")
	}
	sb.WriteString("\n")

	// Errors
	if len(r.Errors) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
