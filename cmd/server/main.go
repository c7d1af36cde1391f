// Package main provides the unified service that runs all components
// together: scheduled spread scans, a live ticker stream, and an HTTP
// API over stored results.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"market-spread-lab/internal/config"
	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/exchange"
	"market-spread-lab/internal/observability"
	"market-spread-lab/internal/reporting"
	"market-spread-lab/internal/scan"
	"market-spread-lab/internal/spread"
	"market-spread-lab/internal/storage"
	"market-spread-lab/internal/storage/memory"
	"market-spread-lab/internal/storage/migrations"
	pgstore "market-spread-lab/internal/storage/postgres"
)

// Server holds all components of the unified service.
type Server struct {
	cfg          *config.Config
	primary      exchange.CandleSource
	secondary    exchange.CandleSource // nil for single-venue mode
	runStore     storage.ScanRunStore
	resultStore  storage.SpreadResultStore
	watcher      *exchange.TickerWatcher // nil when no ws endpoint configured
	scanInterval time.Duration
	logger       *log.Logger

	mu          sync.Mutex
	startedAt   time.Time
	lastScanRun time.Time
	lastScanID  string
	scanRunning bool
	scanRuns    int
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	addr := flag.String("addr", "", "HTTP listen address; overrides config")
	exchangeName := flag.String("exchange", "bittrex", "Primary venue: bittrex or binance")
	crossName := flag.String("cross-exchange", "", "Counter venue for cross-venue scans (empty = single venue)")
	scanInterval := flag.Duration("scan-interval", 1*time.Hour, "Interval between scheduled scans")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())

	runStore, resultStore, cleanup, err := createStores(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	primary, err := newSource(*exchangeName, cfg)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	var secondary exchange.CandleSource
	if *crossName != "" {
		secondary, err = newSource(*crossName, cfg)
		if err != nil {
			logger.Fatalf("%v", err)
		}
	}

	var watcher *exchange.TickerWatcher
	if cfg.Exchanges.TickerWSURL != "" {
		watcher = exchange.NewTickerWatcher(cfg.Exchanges.TickerWSURL, primary.Name(), nil, logger)
	}

	server := &Server{
		cfg:          cfg,
		primary:      primary,
		secondary:    secondary,
		runStore:     runStore,
		resultStore:  resultStore,
		watcher:      watcher,
		scanInterval: *scanInterval,
		logger:       logger,
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

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

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
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

// createStores creates the scan run and spread result stores.
func createStores(ctx context.Context, postgresDSN string, useMemory bool) (storage.ScanRunStore, storage.SpreadResultStore, func(), error) {
	if useMemory {
		return memory.NewScanRunStore(), memory.NewSpreadResultStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return pgstore.NewScanRunStore(pool), pgstore.NewSpreadResultStore(pool), pool.Close, nil
}

// Run starts all components and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	if s.watcher != nil {
		go func() {
			if err := s.watcher.Run(ctx); err != nil && err != context.Canceled {
				s.logger.Printf("Ticker watcher stopped: %v", err)
			}
		}()
	}

	go s.uptimeLoop(ctx)
	go s.scanLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/rankings", s.handleRankings)
	mux.HandleFunc("/live", s.handleLive)

	httpServer := &http.Server{Addr: s.cfg.Server.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting HTTP server on %s", s.cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("HTTP shutdown error: %v", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// scanLoop runs one scan immediately and then on every tick.
func (s *Server) scanLoop(ctx context.Context) {
	s.runScan(ctx)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScan(ctx)
		}
	}
}

func (s *Server) runScan(ctx context.Context) {
	s.mu.Lock()
	if s.scanRunning {
		s.mu.Unlock()
		s.logger.Println("Previous scan still running, skipping this tick")
		return
	}
	s.scanRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanRunning = false
		s.mu.Unlock()
	}()

	result, err := s.executeScan(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Printf("Scan failed: %v", err)
		}
		return
	}

	if err := s.persist(ctx, result); err != nil {
		s.logger.Printf("Failed to persist scan %s: %v", result.Run.ScanID, err)
		return
	}

	observability.DefaultMetrics.LastSuccessfulScan.Set(float64(time.Now().Unix()))

	s.mu.Lock()
	s.lastScanRun = time.Now()
	s.lastScanID = result.Run.ScanID
	s.scanRuns++
	s.mu.Unlock()

	s.logger.Printf("Scan %s stored: %d assets analyzed, %d skipped",
		result.Run.ScanID, result.Run.AssetsAnalyzed, result.Run.AssetsSkipped)
}

func (s *Server) executeScan(ctx context.Context) (*scan.Result, error) {
	if s.secondary != nil {
		return scan.NewCross(scan.CrossOptions{
			Primary:   s.primary,
			Secondary: s.secondary,
			Interval:  s.cfg.Interval(),
			Anchors:   s.cfg.Scan.Anchors,
			Sort:      s.cfg.SortDirection(),
		}).Run(ctx)
	}
	return scan.New(scan.Options{
		Source:   s.primary,
		Interval: s.cfg.Interval(),
		Anchors:  s.cfg.Scan.Anchors,
		Sort:     s.cfg.SortDirection(),
		Shuffle:  s.cfg.Scan.Shuffle,
		Limit:    s.cfg.Scan.Limit,
	}).Run(ctx)
}

func (s *Server) persist(ctx context.Context, result *scan.Result) error {
	if err := s.runStore.Insert(ctx, &result.Run); err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	records := result.Records()
	if len(records) == 0 {
		return nil
	}
	ptrs := make([]*domain.SpreadRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	if err := s.resultStore.InsertBulk(ctx, ptrs); err != nil {
		return fmt.Errorf("insert spread records: %w", err)
	}
	return nil
}

// uptimeLoop feeds the uptime counter.
func (s *Server) uptimeLoop(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.DefaultMetrics.UptimeSeconds.Add(15)
		}
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Exchange    string    `json:"exchange"`
	CrossMode   bool      `json:"cross_mode"`
	LastScanRun time.Time `json:"last_scan_run,omitempty"`
	LastScanID  string    `json:"last_scan_id,omitempty"`
	ScanRuns    int       `json:"scan_runs"`
	ScanRunning bool      `json:"scan_running"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.startedAt).String(),
		Exchange:    s.primary.Name(),
		CrossMode:   s.secondary != nil,
		LastScanRun: s.lastScanRun,
		LastScanID:  s.lastScanID,
		ScanRuns:    s.scanRuns,
		ScanRunning: s.scanRunning,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleRankings serves the most recent stored scan as JSON. The "top"
// query parameter caps the row count.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad top parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	report, err := reporting.NewGenerator(s.runStore, s.resultStore).GenerateLatest(r.Context(), limit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "no scan runs yet", http.StatusNotFound)
			return
		}
		s.logger.Printf("Rankings query failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// LiveResponse is the JSON response for the /live endpoint.
type LiveResponse struct {
	Tickers int                   `json:"tickers"`
	Rows    []spread.TickerSpread `json:"rows"`
}

// handleLive runs the ticker quick scan over the websocket snapshot.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		http.Error(w, "ticker stream not configured", http.StatusServiceUnavailable)
		return
	}

	tickers := s.watcher.Snapshot()
	rows := spread.ScanTickers(tickers, spread.TickerScanOptions{
		MinVolumeUSD: s.cfg.Scan.MinVolumeUSD,
		Sort:         s.cfg.SortDirection(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LiveResponse{Tickers: len(tickers), Rows: rows})
}
