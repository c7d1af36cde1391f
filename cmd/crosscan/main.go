// Command crosscan runs a one-shot two-venue spread scan: for each
// currency listed on both venues it compares the most divergent market
// pair across the exchanges.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"market-spread-lab/internal/config"
	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/exchange"
	"market-spread-lab/internal/reporting"
	"market-spread-lab/internal/scan"
	"market-spread-lab/internal/storage/migrations"
	pgstore "market-spread-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	primaryName := flag.String("exchange", "bittrex", "Primary venue: bittrex or binance")
	secondaryName := flag.String("cross-exchange", "binance", "Counter venue: bittrex or binance")
	interval := flag.String("interval", "", "Candle interval (1m, 5m, 30m, 1h, 1d); overrides config")
	sortDir := flag.String("sort", "", "Ranking order: ascending or descending; overrides config")
	anchors := flag.String("anchors", "", "Comma-separated anchor currencies, 'none' to disable; overrides config")
	topN := flag.Int("top", 0, "Report at most this many rows (0 = all)")
	outputDir := flag.String("output-dir", "output", "Output directory for report files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string; empty disables persistence")
	verbose := flag.Bool("verbose", false, "Verbose scan logging")
	flag.Parse()

	logger := log.New(os.Stdout, "[crosscan] ", log.LstdFlags|log.Lshortfile)

	if strings.EqualFold(*primaryName, *secondaryName) {
		logger.Fatal("--exchange and --cross-exchange must name different venues")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
	}
	if *interval != "" {
		cfg.Scan.Interval = *interval
	}
	if *sortDir != "" {
		cfg.Scan.Sort = *sortDir
	}
	if *topN > 0 {
		cfg.Scan.TopN = *topN
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid options: %v", err)
	}

	ctx := context.Background()

	primary, err := newSource(*primaryName, cfg)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	secondary, err := newSource(*secondaryName, cfg)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	scanner := scan.NewCross(scan.CrossOptions{
		Primary:   primary,
		Secondary: secondary,
		Interval:  cfg.Interval(),
		Anchors:   parseAnchors(*anchors, cfg.Scan.Anchors),
		Sort:      cfg.SortDirection(),
		Verbose:   *verbose,
	})

	logger.Printf("Scanning %s against %s at interval %s", primary.Name(), secondary.Name(), cfg.Interval())
	result, err := scanner.Run(ctx)
	if err != nil {
		logger.Fatalf("Cross scan failed: %v", err)
	}
	logger.Printf("Scan %s done: %d markets, %d assets analyzed, %d skipped",
		result.Run.ScanID, result.Run.MarketsScanned, result.Run.AssetsAnalyzed, result.Run.AssetsSkipped)

	if *postgresDSN != "" {
		if err := persistResult(ctx, *postgresDSN, result); err != nil {
			logger.Fatalf("Failed to persist results: %v", err)
		}
		logger.Printf("Persisted run %s to PostgreSQL", result.Run.ScanID)
	}

	if err := writeReport(result, cfg.Scan.TopN, *outputDir); err != nil {
		logger.Fatalf("Failed to write report: %v", err)
	}
	logger.Printf("Report written to %s/", *outputDir)

	n := len(result.Spreads)
	if cfg.Scan.TopN > 0 && cfg.Scan.TopN < n {
		n = cfg.Scan.TopN
	}
	fmt.Printf("\nTop %d cross-venue spreads:\n", n)
	for i, s := range result.Spreads[:n] {
		fmt.Printf("%3d. %-8s %8.4f%%\n", i+1, s.Currency, s.Result.AvgPercent)
	}
}

func newSource(name string, cfg *config.Config) (exchange.CandleSource, error) {
	var opts []exchange.ClientOption
	if cfg.Exchanges.RateLimitRPS > 0 {
		opts = append(opts, exchange.WithRateLimit(rate.Limit(cfg.Exchanges.RateLimitRPS), 1))
	}
	client := exchange.NewClient(opts...)

	switch strings.ToLower(name) {
	case "bittrex":
		return exchange.NewBittrex(cfg.Exchanges.BittrexURL, client), nil
	case "binance":
		return exchange.NewBinance(cfg.Exchanges.BinanceURL, client), nil
	default:
		return nil, fmt.Errorf("unknown exchange %q (want bittrex or binance)", name)
	}
}

func parseAnchors(flagValue string, configured []string) []string {
	if flagValue == "" {
		return configured
	}
	if strings.EqualFold(flagValue, "none") {
		return []string{}
	}
	var out []string
	for _, a := range strings.Split(flagValue, ",") {
		a = strings.TrimSpace(strings.ToUpper(a))
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func persistResult(ctx context.Context, dsn string, result *scan.Result) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if err := pgstore.NewScanRunStore(pool).Insert(ctx, &result.Run); err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}

	records := result.Records()
	ptrs := make([]*domain.SpreadRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	if err := pgstore.NewSpreadResultStore(pool).InsertBulk(ctx, ptrs); err != nil {
		return fmt.Errorf("insert spread records: %w", err)
	}
	return nil
}

func writeReport(result *scan.Result, topN int, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	report := reporting.NewGenerator(nil, nil).FromRun(result.Run, result.Records(), result.Errors)
	if topN > 0 && len(report.Rows) > topN {
		report.Rows = report.Rows[:topN]
	}

	md := filepath.Join(outputDir, "REPORT.md")
	if err := os.WriteFile(md, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", md, err)
	}
	csv := filepath.Join(outputDir, "spreads.csv")
	if err := os.WriteFile(csv, []byte(reporting.RenderCSV(report.Rows)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", csv, err)
	}
	return nil
}
