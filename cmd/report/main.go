// Command report renders the Markdown and CSV report for a persisted
// scan run, either by scan id or for the most recent run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/idhash"
	"market-spread-lab/internal/reporting"
	"market-spread-lab/internal/storage"
	"market-spread-lab/internal/storage/memory"
	pgstore "market-spread-lab/internal/storage/postgres"
)

func main() {
	scanID := flag.String("scan-id", "", "Scan run to report on (empty = most recent)")
	topN := flag.Int("top", 0, "Report at most this many rows (0 = all)")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory fixtures instead of a database")
	flag.Parse()

	ctx := context.Background()

	if !*useFixtures && *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required when not using fixtures")
		fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
		os.Exit(1)
	}

	var (
		runStore    storage.ScanRunStore
		resultStore storage.SpreadResultStore
		cleanup     = func() {}
	)
	if *useFixtures {
		runStore, resultStore = createFixtureStores(ctx)
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
			os.Exit(1)
		}
		cleanup = pool.Close
		runStore = pgstore.NewScanRunStore(pool)
		resultStore = pgstore.NewSpreadResultStore(pool)
	}
	defer cleanup()

	generator := reporting.NewGenerator(runStore, resultStore)
	if *useFixtures {
		// Fixed clock keeps fixture output byte-stable.
		fixedTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		generator = generator.WithClock(func() time.Time { return fixedTime })
	}

	var (
		report *reporting.Report
		err    error
	)
	if *scanID != "" {
		report, err = generator.Generate(ctx, *scanID, *topN)
	} else {
		report, err = generator.GenerateLatest(ctx, *topN)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintln(os.Stderr, "Error: no matching scan run found")
		} else {
			fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		}
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", mdPath, err)
		os.Exit(1)
	}
	csvPath := filepath.Join(*outputDir, "spreads.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Rows)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", csvPath, err)
		os.Exit(1)
	}

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
	fmt.Printf("Scan %s: %d rows\n", report.ScanID, len(report.Rows))
}

// createFixtureStores seeds memory stores with one demo scan run so the
// report path can be exercised without a database.
func createFixtureStores(ctx context.Context) (storage.ScanRunStore, storage.SpreadResultStore) {
	runStore := memory.NewScanRunStore()
	resultStore := memory.NewSpreadResultStore()

	started := time.Date(2026, 8, 1, 11, 30, 0, 0, time.UTC)
	scanID := idhash.ComputeScanID("bittrex", nil, domain.Interval30m, started.UnixMilli())

	run := &domain.ScanRun{
		ScanID:         scanID,
		Exchange:       "bittrex",
		Interval:       domain.Interval30m,
		StartedAt:      started.UnixMilli(),
		CompletedAt:    started.Add(4 * time.Minute).UnixMilli(),
		MarketsScanned: 6,
		AssetsAnalyzed: 3,
		AssetsSkipped:  1,
	}
	if err := runStore.Insert(ctx, run); err != nil {
		panic(err)
	}

	records := []*domain.SpreadRecord{
		{ScanID: scanID, Currency: "XRP", HighMarket: "bittrex:USDT-XRP", LowMarket: "bittrex:BTC-XRP", SeriesLength: 48, AvgPercentSpread: 3.4182},
		{ScanID: scanID, Currency: "ADA", HighMarket: "bittrex:ETH-ADA", LowMarket: "bittrex:USDT-ADA", SeriesLength: 48, AvgPercentSpread: 1.9027},
		{ScanID: scanID, Currency: "LTC", HighMarket: "bittrex:USDT-LTC", LowMarket: "bittrex:BTC-LTC", SeriesLength: 48, AvgPercentSpread: 0.7741},
	}
	if err := resultStore.InsertBulk(ctx, records); err != nil {
		panic(err)
	}
	return runStore, resultStore
}
