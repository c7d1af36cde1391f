package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/exchange"
	"market-spread-lab/internal/idhash"
	"market-spread-lab/internal/normalize"
	"market-spread-lab/internal/observability"
	"market-spread-lab/internal/spread"
)

// CrossScanner runs a two-venue scan: for every currency listed on
// both venues it picks the most divergent low/high market pair across
// the venues and computes their spread.
type CrossScanner struct {
	primary   exchange.CandleSource
	secondary exchange.CandleSource
	interval  domain.Interval
	anchors   []string
	sort      domain.SortDirection
	verbose   bool

	now func() time.Time
}

// CrossOptions for creating CrossScanner.
type CrossOptions struct {
	// Required
	Primary   exchange.CandleSource
	Secondary exchange.CandleSource
	Interval  domain.Interval

	// Anchor currencies for USD conversion. Nil selects
	// normalize.DefaultAnchors; an explicitly empty slice disables
	// anchor conversion and scans USD-quoted markets only.
	Anchors []string

	// Ranking direction. Defaults to domain.SortDescending.
	Sort domain.SortDirection

	Verbose bool
}

// NewCross creates a new CrossScanner.
func NewCross(opts CrossOptions) *CrossScanner {
	anchors := opts.Anchors
	if anchors == nil {
		anchors = normalize.DefaultAnchors
	}
	sortDir := opts.Sort
	if !sortDir.Valid() {
		sortDir = domain.SortDescending
	}
	return &CrossScanner{
		primary:   opts.Primary,
		secondary: opts.Secondary,
		interval:  opts.Interval,
		anchors:   anchors,
		sort:      sortDir,
		verbose:   opts.Verbose,
		now:       time.Now,
	}
}

// Run executes the full cross-venue scan.
// Phases:
//  1. List markets on both venues
//  2. Build per-venue anchor rate tables
//  3. Per shared currency: fetch both sides, align, pick pair, compute
//  4. Rank results
func (s *CrossScanner) Run(ctx context.Context) (*Result, error) {
	started := s.now()
	result := &Result{}

	// Phase 1: List markets on both venues
	s.log("Phase 1: Listing %s and %s markets...", s.primary.Name(), s.secondary.Name())
	primaryMarkets, err := s.primary.ListMarkets(ctx)
	if err != nil {
		observability.RecordScanRun("cross", "error", s.now().Sub(started).Seconds())
		return nil, fmt.Errorf("phase 1 (list %s markets) failed: %w", s.primary.Name(), err)
	}
	secondaryMarkets, err := s.secondary.ListMarkets(ctx)
	if err != nil {
		observability.RecordScanRun("cross", "error", s.now().Sub(started).Seconds())
		return nil, fmt.Errorf("phase 1 (list %s markets) failed: %w", s.secondary.Name(), err)
	}
	observability.RecordMarketsListed(s.primary.Name(), len(primaryMarkets))
	observability.RecordMarketsListed(s.secondary.Name(), len(secondaryMarkets))
	s.log("  %d / %d markets listed", len(primaryMarkets), len(secondaryMarkets))

	// Phase 2: Per-venue anchor rates
	s.log("Phase 2: Building anchor rate tables...")
	primaryRates, primaryErrs := normalize.BuildAnchorRates(ctx, s.primary, s.interval, s.anchors)
	secondaryRates, secondaryErrs := normalize.BuildAnchorRates(ctx, s.secondary, s.interval, s.anchors)
	for anchor, aerr := range primaryErrs {
		result.Errors = append(result.Errors, fmt.Sprintf("%s anchor %s: %v", s.primary.Name(), anchor, aerr))
		observability.RecordRetrievalError(s.primary.Name(), "anchor")
	}
	for anchor, aerr := range secondaryErrs {
		result.Errors = append(result.Errors, fmt.Sprintf("%s anchor %s: %v", s.secondary.Name(), anchor, aerr))
		observability.RecordRetrievalError(s.secondary.Name(), "anchor")
	}

	// Phase 3: Per shared currency
	s.log("Phase 3: Computing cross-venue spreads...")
	primaryGroups := groupByCurrency(primaryMarkets)
	secondaryByCurrency := make(map[string][]domain.MarketPair)
	for _, g := range groupByCurrency(secondaryMarkets) {
		secondaryByCurrency[g.currency] = g.markets
	}

	var spreads []domain.AssetSpread
	var skipped, marketsScanned int
	for _, group := range primaryGroups {
		counterMarkets, ok := secondaryByCurrency[group.currency]
		if !ok {
			continue
		}
		marketsScanned += len(group.markets) + len(counterMarkets)

		assetSpread, aerr := s.scanAsset(ctx, group.currency, group.markets, counterMarkets, primaryRates, secondaryRates)
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
	cross := s.secondary.Name()
	result.Run = domain.ScanRun{
		ScanID:         idhash.ComputeScanID(s.primary.Name(), &cross, s.interval, started.UnixMilli()),
		Exchange:       s.primary.Name(),
		CrossExchange:  &cross,
		Interval:       s.interval,
		StartedAt:      started.UnixMilli(),
		CompletedAt:    completed.UnixMilli(),
		MarketsScanned: marketsScanned,
		AssetsAnalyzed: len(spreads),
		AssetsSkipped:  skipped,
	}
	observability.RecordScanRun("cross", "ok", completed.Sub(started).Seconds())

	s.log("Cross scan completed: %d spreads, %d errors", len(result.Spreads), len(result.Errors))

	return result, nil
}

// scanAsset computes the cross-venue spread for one currency. A nil
// result with nil error means the asset was skipped.
func (s *CrossScanner) scanAsset(
	ctx context.Context,
	currency string,
	primaryMarkets, secondaryMarkets []domain.MarketPair,
	primaryRates, secondaryRates domain.AnchorRates,
) (*domain.AssetSpread, error) {
	primarySeries, err := s.venueSeries(ctx, s.primary, primaryMarkets, primaryRates)
	if err != nil {
		return nil, err
	}
	secondarySeries, err := s.venueSeries(ctx, s.secondary, secondaryMarkets, secondaryRates)
	if err != nil {
		return nil, err
	}
	if len(primarySeries) == 0 || len(secondarySeries) == 0 {
		observability.RecordAssetSkipped("one_sided")
		return nil, nil
	}

	alignedPrimary, alignedSecondary, err := normalize.AlignGroups(primarySeries, secondarySeries)
	if err != nil {
		observability.RecordAssetSkipped("alignment")
		return nil, nil
	}

	low, high, err := spread.SelectCrossExchangePair(alignedPrimary, alignedSecondary)
	if err != nil {
		observability.RecordAssetSkipped("selection")
		return nil, nil
	}

	res, err := spread.Compute([]domain.PriceSeries{low, high})
	if err != nil {
		observability.RecordAssetSkipped("degenerate")
		return nil, nil
	}

	return &domain.AssetSpread{Currency: currency, Result: *res}, nil
}

// venueSeries fetches and converts all of one venue's markets for a
// currency, dropping markets without usable data.
func (s *CrossScanner) venueSeries(ctx context.Context, src exchange.CandleSource, markets []domain.MarketPair, rates domain.AnchorRates) ([]domain.PriceSeries, error) {
	inner := &Scanner{source: src, interval: s.interval}

	var list []domain.PriceSeries
	for _, pair := range markets {
		prices, err := inner.fetchSeries(ctx, pair, rates)
		if err != nil {
			observability.RecordRetrievalError(src.Name(), "candles")
			return nil, fmt.Errorf("market %s: %w", pair.Symbol(), err)
		}
		if prices == nil {
			continue
		}
		list = append(list, domain.PriceSeries{
			Exchange: src.Name(),
			Market:   pair,
			Prices:   prices,
		})
	}
	return list, nil
}

func (s *CrossScanner) log(format string, args ...interface{}) {
	if s.verbose {
		log.Printf("[crosscan] "+format, args...)
	}
}
