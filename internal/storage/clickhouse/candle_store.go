package clickhouse

import (
	"context"
	"fmt"
	"time"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
// Candles are high-volume append-only rows, which is the workload the
// MergeTree engine is built for.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles. Fails entire batch on any duplicate
// (exchange, market, interval, timestamp).
func (s *CandleStore) InsertBulk(ctx context.Context, candles []*domain.CandleRecord) error {
	if len(candles) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		exchange  string
		market    string
		interval  domain.Interval
		timestamp int64
	}
	seen := make(map[key]struct{})
	for _, c := range candles {
		if c == nil || c.Exchange == "" || c.Market == "" {
			return storage.ErrInvalidInput
		}
		k := key{c.Exchange, c.Market, c.Interval, c.Timestamp.Unix()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows.
	// MergeTree does not enforce uniqueness at insert time.
	for _, c := range candles {
		exists, err := s.exists(ctx, c)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			id, exchange, market, interval, timestamp,
			open, high, low, close, volume, base_volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.ID, c.Exchange, c.Market, string(c.Interval), uint64(c.Timestamp.Unix()),
			c.Open, c.High, c.Low, c.Close, c.Volume, c.BaseVolume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySeries retrieves all candles for a series, ordered by timestamp ASC.
func (s *CandleStore) GetBySeries(ctx context.Context, exchange, market string, interval domain.Interval) ([]*domain.CandleRecord, error) {
	query := `
		SELECT id, exchange, market, interval, timestamp,
		       open, high, low, close, volume, base_volume
		FROM candles
		WHERE exchange = ? AND market = ? AND interval = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, exchange, market, string(interval))
	if err != nil {
		return nil, fmt.Errorf("query by series: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetByTimeRange retrieves candles for a series within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(ctx context.Context, exchange, market string, interval domain.Interval, start, end int64) ([]*domain.CandleRecord, error) {
	query := `
		SELECT id, exchange, market, interval, timestamp,
		       open, high, low, close, volume, base_volume
		FROM candles
		WHERE exchange = ? AND market = ? AND interval = ?
		  AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, exchange, market, string(interval), uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// exists checks if a candle with the given key exists.
func (s *CandleStore) exists(ctx context.Context, c *domain.CandleRecord) (bool, error) {
	query := `
		SELECT count(*) FROM candles
		WHERE exchange = ? AND market = ? AND interval = ? AND timestamp = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, c.Exchange, c.Market, string(c.Interval), uint64(c.Timestamp.Unix())).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows abstracts driver rows for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]*domain.CandleRecord, error) {
	var candles []*domain.CandleRecord

	for rows.Next() {
		var c domain.CandleRecord
		var interval string
		var timestamp uint64

		err := rows.Scan(
			&c.ID, &c.Exchange, &c.Market, &interval, &timestamp,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.BaseVolume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.Interval = domain.Interval(interval)
		c.Timestamp = time.Unix(int64(timestamp), 0).UTC()
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
