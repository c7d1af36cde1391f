// Command scan runs a one-shot spread scan against a single venue and
// writes the ranked report. With --quick it skips the candle pipeline
// and ranks aggregator tickers instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"market-spread-lab/internal/config"
	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/exchange"
	"market-spread-lab/internal/reporting"
	"market-spread-lab/internal/scan"
	"market-spread-lab/internal/spread"
	"market-spread-lab/internal/storage/migrations"
	pgstore "market-spread-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	exchangeName := flag.String("exchange", "bittrex", "Venue to scan: bittrex or binance")
	interval := flag.String("interval", "", "Candle interval (1m, 5m, 30m, 1h, 1d); overrides config")
	sortDir := flag.String("sort", "", "Ranking order: ascending or descending; overrides config")
	anchors := flag.String("anchors", "", "Comma-separated anchor currencies, 'none' to disable; overrides config")
	shuffle := flag.Bool("shuffle", false, "Randomize market order before applying --limit")
	limit := flag.Int("limit", 0, "Scan at most this many markets (0 = all)")
	topN := flag.Int("top", 0, "Report at most this many rows (0 = all)")
	outputDir := flag.String("output-dir", "output", "Output directory for report files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string; empty disables persistence")
	quick := flag.Bool("quick", false, "Ticker-level quick scan via CoinGecko instead of the candle pipeline")
	venues := flag.String("venues", "", "Comma-separated venue allowlist for --quick (empty = all)")
	verbose := flag.Bool("verbose", false, "Verbose scan logging")
	flag.Parse()

	logger := log.New(os.Stdout, "[scan] ", log.LstdFlags|log.Lshortfile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg, *interval, *sortDir, *shuffle, *limit, *topN)

	ctx := context.Background()

	if *quick {
		if err := runQuickScan(ctx, logger, cfg, *venues); err != nil {
			logger.Fatalf("Quick scan failed: %v", err)
		}
		return
	}

	source, err := newSource(*exchangeName, cfg)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	scanner := scan.New(scan.Options{
		Source:   source,
		Interval: cfg.Interval(),
		Anchors:  parseAnchors(*anchors, cfg.Scan.Anchors),
		Sort:     cfg.SortDirection(),
		Shuffle:  cfg.Scan.Shuffle,
		Limit:    cfg.Scan.Limit,
		Verbose:  *verbose,
	})

	logger.Printf("Scanning %s at interval %s", source.Name(), cfg.Interval())
	result, err := scanner.Run(ctx)
	if err != nil {
		logger.Fatalf("Scan failed: %v", err)
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

	printTopSpreads(result, cfg.Scan.TopN)
}

// loadConfig returns the file config or the defaults when no path is
// given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyOverrides lets CLI flags win over the config file.
func applyOverrides(cfg *config.Config, interval, sortDir string, shuffle bool, limit, topN int) {
	if interval != "" {
		cfg.Scan.Interval = interval
	}
	if sortDir != "" {
		cfg.Scan.Sort = sortDir
	}
	if shuffle {
		cfg.Scan.Shuffle = true
	}
	if limit > 0 {
		cfg.Scan.Limit = limit
	}
	if topN > 0 {
		cfg.Scan.TopN = topN
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		os.Exit(1)
	}
}

// newSource builds the candle source for a venue name.
func newSource(name string, cfg *config.Config) (exchange.CandleSource, error) {
	client := newHTTPClient(cfg)
	switch strings.ToLower(name) {
	case "bittrex":
		return exchange.NewBittrex(cfg.Exchanges.BittrexURL, client), nil
	case "binance":
		return exchange.NewBinance(cfg.Exchanges.BinanceURL, client), nil
	default:
		return nil, fmt.Errorf("unknown exchange %q (want bittrex or binance)", name)
	}
}

func newHTTPClient(cfg *config.Config) *exchange.Client {
	var opts []exchange.ClientOption
	if cfg.Exchanges.RateLimitRPS > 0 {
		opts = append(opts, exchange.WithRateLimit(rate.Limit(cfg.Exchanges.RateLimitRPS), 1))
	}
	return exchange.NewClient(opts...)
}

// parseAnchors resolves the anchor flag against the config value. Nil
// means "use the defaults"; an empty non-nil slice disables anchor
// conversion entirely.
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

// persistResult writes the run and its spread records to PostgreSQL.
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

// writeReport renders the Markdown and CSV artifacts.
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

func printTopSpreads(result *scan.Result, topN int) {
	n := len(result.Spreads)
	if topN > 0 && topN < n {
		n = topN
	}
	fmt.Printf("\nTop %d spreads:\n", n)
	for i, s := range result.Spreads[:n] {
		fmt.Printf("%3d. %-8s %8.4f%%\n", i+1, s.Currency, s.Result.AvgPercent)
	}
}

// runQuickScan ranks single ticker observations from CoinGecko instead
// of full candle series.
func runQuickScan(ctx context.Context, logger *log.Logger, cfg *config.Config, venues string) error {
	gecko := exchange.NewCoinGecko(cfg.Exchanges.CoinGeckoURL, newHTTPClient(cfg))

	var include []string
	for _, v := range strings.Split(venues, ",") {
		v = strings.TrimSpace(strings.ToLower(v))
		if v != "" {
			include = append(include, v)
		}
	}

	venueIDs := include
	if len(venueIDs) == 0 {
		venueIDs = []string{"bittrex", "binance"}
	}

	var tickers []domain.Ticker
	for _, id := range venueIDs {
		got, err := gecko.ListTickers(ctx, id)
		if err != nil {
			return fmt.Errorf("list tickers for %s: %w", id, err)
		}
		logger.Printf("Fetched %d tickers from %s", len(got), id)
		tickers = append(tickers, got...)
	}

	rows := spread.ScanTickers(tickers, spread.TickerScanOptions{
		MinVolumeUSD: cfg.Scan.MinVolumeUSD,
		Include:      include,
		Sort:         cfg.SortDirection(),
	})

	n := len(rows)
	if cfg.Scan.TopN > 0 && cfg.Scan.TopN < n {
		n = cfg.Scan.TopN
	}
	fmt.Printf("\nTicker quick scan (%d currencies, min volume %.0f USD):\n", len(rows), cfg.Scan.MinVolumeUSD)
	for i, r := range rows[:n] {
		fmt.Printf("%3d. %-8s %8.4f%% across %d markets\n", i+1, r.Currency, r.SpreadPercent, r.Markets)
	}
	fmt.Printf("Scanned at %s\n", time.Now().UTC().Format(time.RFC3339))
	return nil
}
