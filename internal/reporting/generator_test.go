package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
	"market-spread-lab/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedStores(t *testing.T) (*memory.ScanRunStore, *memory.SpreadResultStore) {
	t.Helper()
	ctx := context.Background()

	runStore := memory.NewScanRunStore()
	resultStore := memory.NewSpreadResultStore()

	run := &domain.ScanRun{
		ScanID:         "scan-1",
		Exchange:       "bittrex",
		Interval:       domain.Interval30m,
		StartedAt:      1000,
		CompletedAt:    2000,
		MarketsScanned: 5,
		AssetsAnalyzed: 2,
		AssetsSkipped:  1,
	}
	if err := runStore.Insert(ctx, run); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	records := []*domain.SpreadRecord{
		{ScanID: "scan-1", Currency: "AAA", HighMarket: "bittrex:USDC-AAA", LowMarket: "bittrex:USDT-AAA", SeriesLength: 3, AvgPercentSpread: 5.02},
		{ScanID: "scan-1", Currency: "BBB", HighMarket: "bittrex:USDC-BBB", LowMarket: "bittrex:USDT-BBB", SeriesLength: 3, AvgPercentSpread: 9.5},
	}
	if err := resultStore.InsertBulk(ctx, records); err != nil {
		t.Fatalf("seed records: %v", err)
	}

	return runStore, resultStore
}

func TestGenerator_Generate(t *testing.T) {
	runStore, resultStore := seedStores(t)
	gen := NewGenerator(runStore, resultStore).WithClock(func() time.Time { return fixedNow })

	report, err := gen.Generate(context.Background(), "scan-1", 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.GeneratedAt != fixedNow {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, fixedNow)
	}
	if report.Exchange != "bittrex" || report.Interval != "30m" {
		t.Errorf("Report header = %+v", report)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(report.Rows))
	}
	// Ranked by spread DESC
	if report.Rows[0].Currency != "BBB" || report.Rows[0].Rank != 1 {
		t.Errorf("First row = %+v", report.Rows[0])
	}
	if report.Rows[1].Rank != 2 {
		t.Errorf("Second row rank = %d, want 2", report.Rows[1].Rank)
	}
}

func TestGenerator_GenerateWithLimit(t *testing.T) {
	runStore, resultStore := seedStores(t)
	gen := NewGenerator(runStore, resultStore)

	report, err := gen.Generate(context.Background(), "scan-1", 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(report.Rows) != 1 || report.Rows[0].Currency != "BBB" {
		t.Errorf("Rows = %+v", report.Rows)
	}
}

func TestGenerator_GenerateMissingRun(t *testing.T) {
	gen := NewGenerator(memory.NewScanRunStore(), memory.NewSpreadResultStore())

	_, err := gen.Generate(context.Background(), "missing", 0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGenerator_GenerateLatest(t *testing.T) {
	runStore, resultStore := seedStores(t)
	ctx := context.Background()

	// A later empty run becomes the latest.
	later := &domain.ScanRun{ScanID: "scan-2", Exchange: "binance", Interval: domain.Interval1h, StartedAt: 9000}
	if err := runStore.Insert(ctx, later); err != nil {
		t.Fatalf("seed later run: %v", err)
	}

	gen := NewGenerator(runStore, resultStore)
	report, err := gen.GenerateLatest(ctx, 0)
	if err != nil {
		t.Fatalf("GenerateLatest failed: %v", err)
	}
	if report.ScanID != "scan-2" {
		t.Errorf("ScanID = %s, want scan-2", report.ScanID)
	}
	if len(report.Rows) != 0 {
		t.Errorf("Expected no rows for empty run, got %d", len(report.Rows))
	}
}

func TestRenderCSV(t *testing.T) {
	rows := []SpreadRow{
		{Rank: 1, Currency: "BBB", HighMarket: "b:USDC-BBB", LowMarket: "b:USDT-BBB", SeriesLength: 3, AvgPercentSpread: 9.5},
	}

	out := RenderCSV(rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "rank,currency") {
		t.Errorf("Header = %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,BBB,b:USDC-BBB,b:USDT-BBB,3,9.5") {
		t.Errorf("Row = %s", lines[1])
	}
}

func TestRenderMarkdown(t *testing.T) {
	runStore, resultStore := seedStores(t)
	gen := NewGenerator(runStore, resultStore).WithClock(func() time.Time { return fixedNow })

	report, err := gen.Generate(context.Background(), "scan-1", 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	report.Errors = []string{"anchor ETH: no data"}

	out := RenderMarkdown(report)
	for _, want := range []string{
		"# Spread Scan Report",
		"| Exchange | bittrex |",
		"| 1 | BBB |",
		"## Errors",
		"anchor ETH: no data",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
	if strings.Contains(out, "Cross Exchange") {
		t.Error("Single-venue report should not mention a cross exchange")
	}
}
