package postgres

import (
	"context"
	"fmt"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
)

// SpreadResultStore implements storage.SpreadResultStore using PostgreSQL.
type SpreadResultStore struct {
	pool *Pool
}

// NewSpreadResultStore creates a new SpreadResultStore.
func NewSpreadResultStore(pool *Pool) *SpreadResultStore {
	return &SpreadResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SpreadResultStore = (*SpreadResultStore)(nil)

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *SpreadResultStore) InsertBulk(ctx context.Context, records []*domain.SpreadRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO spread_results (
			scan_id, currency, high_market, low_market,
			series_length, avg_percent_spread
		) VALUES (
			$1, $2, $3, $4,
			$5, $6
		)
	`

	for _, r := range records {
		if r == nil || r.ScanID == "" || r.Currency == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			r.ScanID, r.Currency, r.HighMarket, r.LowMarket,
			r.SeriesLength, r.AvgPercentSpread,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert spread result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByScanID retrieves all results of a run, ordered by avg_percent_spread DESC.
func (s *SpreadResultStore) GetByScanID(ctx context.Context, scanID string) ([]*domain.SpreadRecord, error) {
	query := `
		SELECT scan_id, currency, high_market, low_market,
		       series_length, avg_percent_spread
		FROM spread_results
		WHERE scan_id = $1
		ORDER BY avg_percent_spread DESC
	`

	rows, err := s.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("query spread results: %w", err)
	}
	defer rows.Close()

	return scanSpreadRecords(rows)
}

// GetTopByScanID retrieves at most limit results by avg_percent_spread DESC.
func (s *SpreadResultStore) GetTopByScanID(ctx context.Context, scanID string, limit int) ([]*domain.SpreadRecord, error) {
	query := `
		SELECT scan_id, currency, high_market, low_market,
		       series_length, avg_percent_spread
		FROM spread_results
		WHERE scan_id = $1
		ORDER BY avg_percent_spread DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, scanID, limit)
	if err != nil {
		return nil, fmt.Errorf("query top spread results: %w", err)
	}
	defer rows.Close()

	return scanSpreadRecords(rows)
}

// pgRows abstracts pgx rows for scanning.
type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanSpreadRecords scans multiple rows.
func scanSpreadRecords(rows pgRows) ([]*domain.SpreadRecord, error) {
	var records []*domain.SpreadRecord

	for rows.Next() {
		var r domain.SpreadRecord
		err := rows.Scan(
			&r.ScanID, &r.Currency, &r.HighMarket, &r.LowMarket,
			&r.SeriesLength, &r.AvgPercentSpread,
		)
		if err != nil {
			return nil, fmt.Errorf("scan spread result row: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spread result rows: %w", err)
	}

	return records, nil
}
