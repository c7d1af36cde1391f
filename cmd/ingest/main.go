// Command ingest pulls candle series from a venue and persists them to
// ClickHouse (or memory, for dry runs). Re-running over the same window
// is safe: already-stored candles are reported and skipped per market.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"market-spread-lab/internal/config"
	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/exchange"
	"market-spread-lab/internal/idhash"
	"market-spread-lab/internal/observability"
	"market-spread-lab/internal/storage"
	chstore "market-spread-lab/internal/storage/clickhouse"
	"market-spread-lab/internal/storage/memory"
	"market-spread-lab/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	exchangeName := flag.String("exchange", "bittrex", "Venue to ingest from: bittrex or binance")
	interval := flag.String("interval", "", "Candle interval (1m, 5m, 30m, 1h, 1d); overrides config")
	markets := flag.String("markets", "", "Comma-separated market symbols (e.g. USDT-BTC,BTC-ETH); empty ingests all")
	limit := flag.Int("limit", 0, "Ingest at most this many markets (0 = all)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required (use --use-memory for in-memory storage)")
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
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid options: %v", err)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, cfg, *exchangeName, *markets, *limit, *clickhouseDSN, *useMemory)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Ingestion failed: %v", err)
	}
	logger.Println("Ingestion complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, exchangeName, markets string, limit int, clickhouseDSN string, useMemory bool) error {
	source, err := newSource(exchangeName, cfg)
	if err != nil {
		return err
	}

	store, cleanup, err := createStore(ctx, clickhouseDSN, useMemory)
	if err != nil {
		return err
	}
	defer cleanup()

	targets, err := resolveMarkets(ctx, source, markets, limit)
	if err != nil {
		return err
	}
	logger.Printf("Ingesting %d markets from %s at interval %s", len(targets), source.Name(), cfg.Interval())

	var stored, skipped, failed int
	for _, pair := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		candles, err := source.GetCandles(ctx, pair, cfg.Interval())
		if err != nil {
			observability.RecordRetrievalError(source.Name(), "candles")
			logger.Printf("Market %s: fetch failed: %v", pair.Symbol(), err)
			failed++
			continue
		}
		if len(candles) == 0 {
			logger.Printf("Market %s: no data", pair.Symbol())
			skipped++
			continue
		}
		observability.RecordCandlesFetched(source.Name(), len(candles))

		records := toRecords(source.Name(), pair, cfg.Interval(), candles)
		if err := store.InsertBulk(ctx, records); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				logger.Printf("Market %s: already ingested, skipping", pair.Symbol())
				skipped++
				continue
			}
			return fmt.Errorf("store candles for %s: %w", pair.Symbol(), err)
		}
		stored++
		logger.Printf("Market %s: stored %d candles", pair.Symbol(), len(records))
	}

	logger.Printf("Done: %d markets stored, %d skipped, %d failed", stored, skipped, failed)
	return nil
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

// createStore returns the candle store plus its cleanup. ClickHouse
// migrations run on connect.
func createStore(ctx context.Context, dsn string, useMemory bool) (storage.CandleStore, func(), error) {
	if useMemory {
		return memory.NewCandleStore(), func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	return chstore.NewCandleStore(conn), func() { conn.Close() }, nil
}

// resolveMarkets parses the explicit market list or lists the venue.
func resolveMarkets(ctx context.Context, source exchange.CandleSource, markets string, limit int) ([]domain.MarketPair, error) {
	var targets []domain.MarketPair
	if markets != "" {
		for _, s := range strings.Split(markets, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			pair, err := domain.ParseMarketSymbol(s)
			if err != nil {
				return nil, fmt.Errorf("bad market %q: %w", s, err)
			}
			targets = append(targets, pair)
		}
	} else {
		listed, err := source.ListMarkets(ctx)
		if err != nil {
			return nil, fmt.Errorf("list markets: %w", err)
		}
		targets = listed
	}

	if limit > 0 && limit < len(targets) {
		targets = targets[:limit]
	}
	return targets, nil
}

func toRecords(venue string, pair domain.MarketPair, interval domain.Interval, candles []domain.Candle) []*domain.CandleRecord {
	records := make([]*domain.CandleRecord, len(candles))
	for i, c := range candles {
		records[i] = &domain.CandleRecord{
			ID:         idhash.ComputeCandleID(venue, pair, interval, c.Timestamp.Unix()),
			Exchange:   venue,
			Market:     pair.Symbol(),
			Interval:   interval,
			Timestamp:  c.Timestamp,
			Open:       c.Open,
			High:       c.High,
			Low:        c.Low,
			Close:      c.Close,
			Volume:     c.Volume,
			BaseVolume: c.BaseVolume,
		}
	}
	return records
}
