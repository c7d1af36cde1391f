package domain

// SpreadResult is the divergence between the structurally highest and
// lowest priced series for one asset. It is ephemeral: produced per
// asset, consumed by ranking and reporting.
type SpreadResult struct {
	PerIndex   []float64   // absolute high-low difference per time step
	AvgPercent float64     // mean spread as percent of mean price level
	High       PriceSeries // the high-side series actually compared
	Low        PriceSeries // the low-side series actually compared
}

// AssetSpread is one ranked scan row: an asset plus the spread found
// across its comparable markets.
type AssetSpread struct {
	Currency string      // traded currency shared by the compared markets
	Result   SpreadResult
}

// SortDirection controls ranking order of scan results.
type SortDirection string

const (
	// SortAscending lists the smallest spreads first.
	SortAscending SortDirection = "ascending"

	// SortDescending lists the largest spreads first. This is the
	// default: the scan exists to surface the biggest divergences.
	SortDescending SortDirection = "descending"
)

// Valid reports whether the direction is a known value.
func (d SortDirection) Valid() bool {
	return d == SortAscending || d == SortDescending
}

// Ticker is one market-level price observation in USD terms, as
// reported by an aggregator. Used by the ticker-level quick scan.
type Ticker struct {
	Exchange  string  // venue name as reported by the aggregator
	Currency  string  // traded (base) currency
	Target    string  // quote currency of the underlying pair
	PriceUSD  float64 // last trade price converted to USD
	VolumeUSD float64 // 24h volume converted to USD
}

// ScanRun records one completed scan pass.
type ScanRun struct {
	ScanID         string   // deterministic hash, see idhash.ComputeScanID
	Exchange       string   // primary venue scanned
	CrossExchange  *string  // counter venue for two-exchange scans, nil otherwise
	Interval       Interval // candle interval used
	StartedAt      int64    // Unix ms
	CompletedAt    int64    // Unix ms
	MarketsScanned int      // markets fetched
	AssetsAnalyzed int      // assets that produced a spread result
	AssetsSkipped  int      // assets skipped (no data, too few series, degenerate)
}

// SpreadRecord is one persisted per-asset spread result.
type SpreadRecord struct {
	ScanID           string  // owning scan run
	Currency         string  // traded currency
	HighMarket       string  // "exchange:QUOTE-BASE" of the high side
	LowMarket        string  // "exchange:QUOTE-BASE" of the low side
	SeriesLength     int     // aligned series length compared
	AvgPercentSpread float64
}
