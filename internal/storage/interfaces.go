package storage

import (
	"context"

	"market-spread-lab/internal/domain"
)

// CandleStore provides access to candles storage.
type CandleStore interface {
	// InsertBulk adds multiple candles atomically. Fails entire batch on
	// any duplicate (exchange, market, interval, timestamp).
	InsertBulk(ctx context.Context, candles []*domain.CandleRecord) error

	// GetBySeries retrieves all candles for one (exchange, market,
	// interval) series, ordered by timestamp ASC.
	GetBySeries(ctx context.Context, exchange, market string, interval domain.Interval) ([]*domain.CandleRecord, error)

	// GetByTimeRange retrieves candles for a series within [start, end]
	// (inclusive, Unix seconds), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, exchange, market string, interval domain.Interval, start, end int64) ([]*domain.CandleRecord, error)
}

// ScanRunStore provides access to scan_runs storage.
type ScanRunStore interface {
	// Insert adds a new scan run. Returns ErrDuplicateKey if scan_id exists.
	Insert(ctx context.Context, run *domain.ScanRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, scanID string) (*domain.ScanRun, error)

	// GetRecent retrieves the most recent runs, ordered by started_at DESC.
	GetRecent(ctx context.Context, limit int) ([]*domain.ScanRun, error)
}

// SpreadResultStore provides access to spread_results storage.
type SpreadResultStore interface {
	// InsertBulk adds multiple results atomically. Fails entire batch on
	// any duplicate (scan_id, currency).
	InsertBulk(ctx context.Context, records []*domain.SpreadRecord) error

	// GetByScanID retrieves all results of a run, ordered by
	// avg_percent_spread DESC.
	GetByScanID(ctx context.Context, scanID string) ([]*domain.SpreadRecord, error)

	// GetTopByScanID retrieves the top results of a run by
	// avg_percent_spread DESC, at most limit rows.
	GetTopByScanID(ctx context.Context, scanID string, limit int) ([]*domain.SpreadRecord, error)
}
