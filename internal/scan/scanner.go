// Package scan provides scan orchestration.
// It coordinates: retrieval → normalization → spread computation → ranking
package scan

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/exchange"
	"market-spread-lab/internal/idhash"
	"market-spread-lab/internal/normalize"
	"market-spread-lab/internal/observability"
	"market-spread-lab/internal/spread"
)

// Scanner runs a single-venue scan: every currency traded on two or
// more markets of one venue is checked for divergence between its
// USD-converted price series.
type Scanner struct {
	source   exchange.CandleSource
	interval domain.Interval
	anchors  []string
	sort     domain.SortDirection

	// Options
	shuffle bool
	limit   int
	rng     *rand.Rand
	verbose bool

	now func() time.Time
}

// Options for creating Scanner.
type Options struct {
	// Required
	Source   exchange.CandleSource
	Interval domain.Interval

	// Anchor currencies for USD conversion. Nil selects
	// normalize.DefaultAnchors; an explicitly empty slice disables
	// anchor conversion and scans USD-quoted markets only.
	Anchors []string

	// Ranking direction. Defaults to domain.SortDescending.
	Sort domain.SortDirection

	// Options
	Shuffle bool       // randomize market order before applying Limit
	Limit   int        // scan at most this many markets, 0 means all
	Rand    *rand.Rand // shuffle source, defaults to a time-seeded one
	Verbose bool
}

// New creates a new Scanner.
func New(opts Options) *Scanner {
	anchors := opts.Anchors
	if anchors == nil {
		anchors = normalize.DefaultAnchors
	}
	sortDir := opts.Sort
	if !sortDir.Valid() {
		sortDir = domain.SortDescending
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scanner{
		source:   opts.Source,
		interval: opts.Interval,
		anchors:  anchors,
		sort:     sortDir,
		shuffle:  opts.Shuffle,
		limit:    opts.Limit,
		rng:      rng,
		verbose:  opts.Verbose,
		now:      time.Now,
	}
}

// Result contains results from a scan run.
type Result struct {
	Run     domain.ScanRun
	Spreads []domain.AssetSpread // ranked
	Errors  []string
}

// Records flattens the ranked spreads into persistable rows owned by
// the run.
func (r *Result) Records() []domain.SpreadRecord {
	records := make([]domain.SpreadRecord, 0, len(r.Spreads))
	for _, s := range r.Spreads {
		records = append(records, domain.SpreadRecord{
			ScanID:           r.Run.ScanID,
			Currency:         s.Currency,
			HighMarket:       marketRef(s.Result.High),
			LowMarket:        marketRef(s.Result.Low),
			SeriesLength:     s.Result.High.Len(),
			AvgPercentSpread: s.Result.AvgPercent,
		})
	}
	return records
}

// Run executes the full scan.
// Phases:
//  1. List markets (with optional shuffle and limit)
//  2. Build anchor rate tables
//  3. Per currency: fetch, gap-fill, convert, align, compute spread
//  4. Rank results
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	started := s.now()
	result := &Result{}

	// Phase 1: List markets
	s.log("Phase 1: Listing %s markets...", s.source.Name())
	markets, err := s.source.ListMarkets(ctx)
	if err != nil {
		observability.RecordScanRun("single", "error", s.now().Sub(started).Seconds())
		return nil, fmt.Errorf("phase 1 (list markets) failed: %w", err)
	}
	observability.RecordMarketsListed(s.source.Name(), len(markets))
	markets = s.selectMarkets(markets)
	s.log("  Scanning %d markets", len(markets))

	// Phase 2: Anchor rates
	s.log("Phase 2: Building anchor rate tables...")
	rates, anchorErrs := normalize.BuildAnchorRates(ctx, s.source, s.interval, s.anchors)
	for anchor, aerr := range anchorErrs {
		result.Errors = append(result.Errors, fmt.Sprintf("anchor %s: %v", anchor, aerr))
		observability.RecordRetrievalError(s.source.Name(), "anchor")
	}
	s.log("  %d anchor tables built (%d failed)", len(rates), len(anchorErrs))

	// Phase 3: Per-currency spread computation
	s.log("Phase 3: Computing spreads...")
	byCurrency := groupByCurrency(markets)
	var spreads []domain.AssetSpread
	var skipped int
	for _, group := range byCurrency {
		assetSpread, aerr := s.scanAsset(ctx, group.currency, group.markets, rates)
		if aerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("asset %s: %v", group.currency, aerr))
			skipped++
			continue
		}
		if assetSpread == nil {
			skipped++
			continue
		}
		spreads = append(spreads, *assetSpread)
		observability.RecordAssetAnalyzed()
	}
	s.log("  %d assets analyzed, %d skipped", len(spreads), skipped)

	// Phase 4: Ranking
	result.Spreads = spread.Rank(spreads, s.sort)

	completed := s.now()
	result.Run = domain.ScanRun{
		ScanID:         idhash.ComputeScanID(s.source.Name(), nil, s.interval, started.UnixMilli()),
		Exchange:       s.source.Name(),
		Interval:       s.interval,
		StartedAt:      started.UnixMilli(),
		CompletedAt:    completed.UnixMilli(),
		MarketsScanned: len(markets),
		AssetsAnalyzed: len(spreads),
		AssetsSkipped:  skipped,
	}
	observability.RecordScanRun("single", "ok", completed.Sub(started).Seconds())

	s.log("Scan completed: %d markets, %d spreads, %d errors",
		len(markets), len(result.Spreads), len(result.Errors))

	return result, nil
}

// scanAsset computes the spread for one currency across its markets.
// A nil result with nil error means the asset was skipped for an
// expected reason (thin data, degenerate prices).
func (s *Scanner) scanAsset(ctx context.Context, currency string, markets []domain.MarketPair, rates domain.AnchorRates) (*domain.AssetSpread, error) {
	if len(markets) < 2 {
		observability.RecordAssetSkipped("single_market")
		return nil, nil
	}

	var list []domain.PriceSeries
	for _, pair := range markets {
		prices, err := s.fetchSeries(ctx, pair, rates)
		if err != nil {
			observability.RecordRetrievalError(s.source.Name(), "candles")
			return nil, fmt.Errorf("market %s: %w", pair.Symbol(), err)
		}
		if prices == nil {
			continue
		}
		list = append(list, domain.PriceSeries{
			Exchange: s.source.Name(),
			Market:   pair,
			Prices:   prices,
		})
	}
	if len(list) < 2 {
		observability.RecordAssetSkipped("too_few_series")
		return nil, nil
	}

	aligned, err := normalize.Align(list)
	if err != nil {
		observability.RecordAssetSkipped("alignment")
		return nil, nil
	}

	res, err := spread.Compute(aligned)
	if err != nil {
		// Degenerate assets (zero prices, truncated to nothing) are
		// expected on thin markets and skipped quietly.
		observability.RecordAssetSkipped("degenerate")
		return nil, nil
	}

	return &domain.AssetSpread{Currency: currency, Result: *res}, nil
}

// fetchSeries retrieves, gap-fills and USD-converts one market's
// candles. A nil slice with nil error means the market has no usable
// data at this interval.
func (s *Scanner) fetchSeries(ctx context.Context, pair domain.MarketPair, rates domain.AnchorRates) ([]float64, error) {
	candles, err := s.source.GetCandles(ctx, pair, s.interval)
	if err != nil {
		return nil, err
	}
	if candles == nil {
		return nil, nil
	}
	observability.RecordCandlesFetched(s.source.Name(), len(candles))

	filled, err := normalize.FillGaps(candles, s.interval)
	if err != nil {
		return nil, nil
	}
	observability.RecordCandlesSynthesized(len(filled) - len(candles))

	if domain.IsUSDQuote(pair.Quote) {
		prices := normalize.USDPassthrough(filled)
		observability.RecordCandlesDropped("non_finite", len(filled)-len(prices))
		if len(prices) == 0 {
			return nil, nil
		}
		return prices, nil
	}
	table, ok := rates[pair.Quote]
	if !ok {
		// No anchor table for this quote currency, nothing to convert with.
		return nil, nil
	}
	prices := normalize.ToUSD(filled, table)
	observability.RecordCandlesDropped("conversion", len(filled)-len(prices))
	if len(prices) == 0 {
		return nil, nil
	}
	return prices, nil
}

// selectMarkets applies the shuffle and limit options.
func (s *Scanner) selectMarkets(markets []domain.MarketPair) []domain.MarketPair {
	out := make([]domain.MarketPair, len(markets))
	copy(out, markets)
	if s.shuffle {
		s.rng.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}
	if s.limit > 0 && s.limit < len(out) {
		out = out[:s.limit]
	}
	return out
}

// currencyGroup keeps the markets of one traded currency in first-seen
// order.
type currencyGroup struct {
	currency string
	markets  []domain.MarketPair
}

// groupByCurrency buckets markets by their traded currency, preserving
// the order currencies first appear in the listing.
func groupByCurrency(markets []domain.MarketPair) []currencyGroup {
	index := make(map[string]int)
	var groups []currencyGroup
	for _, pair := range markets {
		i, ok := index[pair.Base]
		if !ok {
			i = len(groups)
			index[pair.Base] = i
			groups = append(groups, currencyGroup{currency: pair.Base})
		}
		groups[i].markets = append(groups[i].markets, pair)
	}
	return groups
}

// marketRef renders a series origin as "exchange:QUOTE-BASE".
func marketRef(s domain.PriceSeries) string {
	return s.Exchange + ":" + s.Market.Symbol()
}

func (s *Scanner) log(format string, args ...interface{}) {
	if s.verbose {
		log.Printf("[scan] "+format, args...)
	}
}
