package reporting

import (
	"context"
	"fmt"
	"time"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/observability"
	"market-spread-lab/internal/storage"
)

// Generator produces reports from stored scan data.
type Generator struct {
	runStore    storage.ScanRunStore
	resultStore storage.SpreadResultStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.ScanRunStore, resultStore storage.SpreadResultStore) *Generator {
	return &Generator{
		runStore:    runStore,
		resultStore: resultStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report for one scan run. A limit > 0 restricts
// the report to the top spreads.
func (g *Generator) Generate(ctx context.Context, scanID string, limit int) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("load scan run: %w", err)
	}

	var records []*domain.SpreadRecord
	if limit > 0 {
		records, err = g.resultStore.GetTopByScanID(ctx, scanID, limit)
	} else {
		records, err = g.resultStore.GetByScanID(ctx, scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("load spread results: %w", err)
	}

	return g.build(run, records), nil
}

// GenerateLatest produces a report for the most recent scan run.
// Returns storage.ErrNotFound if no runs exist.
func (g *Generator) GenerateLatest(ctx context.Context, limit int) (*Report, error) {
	runs, err := g.runStore.GetRecent(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("load recent runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return g.Generate(ctx, runs[0].ScanID, limit)
}

// FromRun builds a report directly from in-memory scan output,
// bypassing storage. Used by the one-shot CLI path.
func (g *Generator) FromRun(run domain.ScanRun, records []domain.SpreadRecord, errs []string) *Report {
	ptrs := make([]*domain.SpreadRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	report := g.build(&run, ptrs)
	report.Errors = errs
	return report
}

func (g *Generator) build(run *domain.ScanRun, records []*domain.SpreadRecord) *Report {
	report := &Report{
		GeneratedAt:    g.now(),
		ScanID:         run.ScanID,
		Exchange:       run.Exchange,
		Interval:       string(run.Interval),
		StartedAt:      run.StartedAt,
		CompletedAt:    run.CompletedAt,
		MarketsScanned: run.MarketsScanned,
		AssetsAnalyzed: run.AssetsAnalyzed,
		AssetsSkipped:  run.AssetsSkipped,
	}
	if run.CrossExchange != nil {
		report.CrossExchange = *run.CrossExchange
	}

	report.Rows = make([]SpreadRow, 0, len(records))
	for i, r := range records {
		report.Rows = append(report.Rows, SpreadRow{
			Rank:             i + 1,
			Currency:         r.Currency,
			HighMarket:       r.HighMarket,
			LowMarket:        r.LowMarket,
			SeriesLength:     r.SeriesLength,
			AvgPercentSpread: r.AvgPercentSpread,
		})
	}

	observability.RecordReportGenerated()
	return report
}
