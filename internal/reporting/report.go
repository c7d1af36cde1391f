package reporting

import "time"

// Report is the rendered output of one scan run.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Run summary
	ScanID         string
	Exchange       string
	CrossExchange  string // empty for single-venue runs
	Interval       string
	StartedAt      int64 // Unix ms
	CompletedAt    int64 // Unix ms
	MarketsScanned int
	AssetsAnalyzed int
	AssetsSkipped  int

	// Ranked spreads (sorted by avg_percent_spread DESC)
	Rows []SpreadRow

	// Errors recorded during the run
	Errors []string
}

// SpreadRow is one ranked asset in the report.
type SpreadRow struct {
	Rank             int
	Currency         string
	HighMarket       string
	LowMarket        string
	SeriesLength     int
	AvgPercentSpread float64
}
