package exchange

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/observability"
)

// WatchConfig configures ticker stream behavior.
type WatchConfig struct {
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the per-message read deadline; pongs extend it.
	ReadTimeout time.Duration
}

// DefaultWatchConfig returns default stream configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		HandshakeTimeout:  10 * time.Second,
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
	}
}

// TickerWatcher maintains the latest USD-quoted ticker per currency
// from a miniTicker-style websocket stream. Only USDT-quoted symbols
// are tracked: their last price is directly usable as a USD price.
type TickerWatcher struct {
	endpoint string
	exchange string
	config   WatchConfig
	logger   *log.Logger

	mu     sync.RWMutex
	latest map[string]domain.Ticker
}

// NewTickerWatcher creates a watcher for the given stream endpoint.
func NewTickerWatcher(endpoint, exchange string, config *WatchConfig, logger *log.Logger) *TickerWatcher {
	cfg := DefaultWatchConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TickerWatcher{
		endpoint: endpoint,
		exchange: exchange,
		config:   cfg,
		logger:   logger,
		latest:   make(map[string]domain.Ticker),
	}
}

// Run connects to the stream and consumes ticker frames until the
// context is cancelled, reconnecting with capped exponential backoff
// on any connection failure.
func (w *TickerWatcher) Run(ctx context.Context) error {
	delay := w.config.ReconnectDelay

	for {
		if err := w.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Printf("ticker stream %s: %v; reconnecting in %v", w.endpoint, err, delay)
			observability.DefaultMetrics.WSReconnects.Inc()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > w.config.MaxReconnectDelay {
			delay = w.config.MaxReconnectDelay
		}
	}
}

// consume runs one connection until it fails or the context ends.
func (w *TickerWatcher) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: w.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go w.pingLoop(conn, done)

	// Close the connection when the context ends so ReadMessage unblocks.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		w.handleFrame(msg)
	}
}

func (w *TickerWatcher) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// tickerFrame is one miniTicker entry:
// {"s":"LTCUSDT","c":"100.2","q":"123456.7"}.
type tickerFrame struct {
	Symbol      string `json:"s"`
	ClosePrice  string `json:"c"`
	QuoteVolume string `json:"q"`
}

// handleFrame decodes one stream message, an array of miniTicker
// entries. Malformed entries are dropped individually.
func (w *TickerWatcher) handleFrame(msg []byte) {
	observability.DefaultMetrics.WSMessagesReceived.Inc()

	var frames []tickerFrame
	if err := json.Unmarshal(msg, &frames); err != nil {
		w.logger.Printf("ticker stream: undecodable frame: %v", err)
		return
	}

	for _, f := range frames {
		currency, ok := strings.CutSuffix(f.Symbol, "USDT")
		if !ok || currency == "" {
			continue
		}
		price, err1 := parseFloat(f.ClosePrice)
		volume, err2 := parseFloat(f.QuoteVolume)
		if err1 != nil || err2 != nil {
			continue
		}

		w.mu.Lock()
		w.latest[currency] = domain.Ticker{
			Exchange:  w.exchange,
			Currency:  currency,
			Target:    "USDT",
			PriceUSD:  price,
			VolumeUSD: volume,
		}
		w.mu.Unlock()
	}

	w.mu.RLock()
	tracked := len(w.latest)
	w.mu.RUnlock()
	observability.DefaultMetrics.TickersTracked.Set(float64(tracked))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// Snapshot returns the latest tickers sorted by currency.
func (w *TickerWatcher) Snapshot() []domain.Ticker {
	w.mu.RLock()
	defer w.mu.RUnlock()

	tickers := make([]domain.Ticker, 0, len(w.latest))
	for _, t := range w.latest {
		tickers = append(tickers, t)
	}
	sort.Slice(tickers, func(i, j int) bool {
		return tickers[i].Currency < tickers[j].Currency
	})
	return tickers
}

// Latest returns the most recent ticker for a currency, if any.
func (w *TickerWatcher) Latest(currency string) (domain.Ticker, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.latest[currency]
	return t, ok
}
