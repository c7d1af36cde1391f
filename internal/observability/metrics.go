// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Retrieval metrics
	MarketsListed      *prometheus.CounterVec
	CandlesFetched     *prometheus.CounterVec
	CandlesSynthesized prometheus.Counter
	CandlesDropped     *prometheus.CounterVec
	RetrievalErrors    *prometheus.CounterVec

	// Ticker stream metrics
	WSMessagesReceived prometheus.Counter
	WSReconnects       prometheus.Counter
	TickersTracked     prometheus.Gauge

	// Scan metrics
	ScanRunsTotal    *prometheus.CounterVec
	ScanDuration     *prometheus.HistogramVec
	AssetsAnalyzed   prometheus.Counter
	AssetsSkipped    *prometheus.CounterVec
	SpreadsComputed  prometheus.Counter
	ReportsGenerated prometheus.Counter

	// Latency metrics
	HTTPRequestLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBConnections   *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "market_spread_lab"
	}

	return &Metrics{
		// Retrieval metrics
		MarketsListed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "markets_listed_total",
			Help:      "Total number of markets returned by venue listings",
		}, []string{"exchange"}),
		CandlesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "candles_fetched_total",
			Help:      "Total number of candles retrieved from venues",
		}, []string{"exchange"}),
		CandlesSynthesized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "candles_synthesized_total",
			Help:      "Total number of placeholder candles created for interval gaps",
		}),
		CandlesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "candles_dropped_total",
			Help:      "Total number of candles dropped during conversion by reason",
		}, []string{"reason"}),
		RetrievalErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "errors_total",
			Help:      "Total number of retrieval errors by venue and kind",
		}, []string{"exchange", "kind"}),

		// Ticker stream metrics
		WSMessagesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ws_messages_received_total",
			Help:      "Total number of websocket ticker frames received",
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ws_reconnects_total",
			Help:      "Total number of websocket reconnect attempts",
		}),
		TickersTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "tickers_tracked",
			Help:      "Number of currencies with a live ticker observation",
		}),

		// Scan metrics
		ScanRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan runs by mode and status",
		}, []string{"mode", "status"}),
		ScanDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"mode"}),
		AssetsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "assets_analyzed_total",
			Help:      "Total number of assets with a computed spread",
		}),
		AssetsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "assets_skipped_total",
			Help:      "Total number of assets skipped by reason",
		}, []string{"reason"}),
		SpreadsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "spreads_computed_total",
			Help:      "Total number of spread results computed",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Latency metrics
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "http_request_latency_seconds",
			Help:      "Venue HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"exchange"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
		DBConnections: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "connections",
			Help:      "Number of database connections by state",
		}, []string{"database", "state"}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan run",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordMarketsListed adds to the per-venue listed market counter.
func RecordMarketsListed(exchange string, n int) {
	DefaultMetrics.MarketsListed.WithLabelValues(exchange).Add(float64(n))
}

// RecordCandlesFetched adds to the per-venue fetched candle counter.
func RecordCandlesFetched(exchange string, n int) {
	DefaultMetrics.CandlesFetched.WithLabelValues(exchange).Add(float64(n))
}

// RecordCandlesSynthesized adds to the placeholder candle counter.
func RecordCandlesSynthesized(n int) {
	DefaultMetrics.CandlesSynthesized.Add(float64(n))
}

// RecordCandlesDropped records conversion-dropped candles by reason.
func RecordCandlesDropped(reason string, n int) {
	if n > 0 {
		DefaultMetrics.CandlesDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordRetrievalError records a retrieval error by venue and kind.
func RecordRetrievalError(exchange, kind string) {
	DefaultMetrics.RetrievalErrors.WithLabelValues(exchange, kind).Inc()
}

// RecordAssetAnalyzed increments the analyzed asset counter.
func RecordAssetAnalyzed() {
	DefaultMetrics.AssetsAnalyzed.Inc()
	DefaultMetrics.SpreadsComputed.Inc()
}

// RecordAssetSkipped records a skipped asset by reason.
func RecordAssetSkipped(reason string) {
	DefaultMetrics.AssetsSkipped.WithLabelValues(reason).Inc()
}

// RecordScanRun records a completed scan run.
func RecordScanRun(mode, status string, durationSeconds float64) {
	DefaultMetrics.ScanRunsTotal.WithLabelValues(mode, status).Inc()
	DefaultMetrics.ScanDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordReportGenerated increments the generated report counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
