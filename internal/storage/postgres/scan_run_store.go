package postgres

import (
	"context"
	"fmt"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
)

// ScanRunStore implements storage.ScanRunStore using PostgreSQL.
type ScanRunStore struct {
	pool *Pool
}

// NewScanRunStore creates a new ScanRunStore.
func NewScanRunStore(pool *Pool) *ScanRunStore {
	return &ScanRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScanRunStore = (*ScanRunStore)(nil)

// Insert adds a new scan run. Returns ErrDuplicateKey if scan_id exists.
func (s *ScanRunStore) Insert(ctx context.Context, run *domain.ScanRun) error {
	if run == nil || run.ScanID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO scan_runs (
			scan_id, exchange, cross_exchange, interval,
			started_at, completed_at,
			markets_scanned, assets_analyzed, assets_skipped
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9
		)
	`

	_, err := s.pool.Exec(ctx, query,
		run.ScanID, run.Exchange, run.CrossExchange, string(run.Interval),
		run.StartedAt, run.CompletedAt,
		run.MarketsScanned, run.AssetsAnalyzed, run.AssetsSkipped,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scan run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScanRunStore) GetByID(ctx context.Context, scanID string) (*domain.ScanRun, error) {
	query := `
		SELECT scan_id, exchange, cross_exchange, interval,
		       started_at, completed_at,
		       markets_scanned, assets_analyzed, assets_skipped
		FROM scan_runs
		WHERE scan_id = $1
	`

	var run domain.ScanRun
	var interval string
	err := s.pool.QueryRow(ctx, query, scanID).Scan(
		&run.ScanID, &run.Exchange, &run.CrossExchange, &interval,
		&run.StartedAt, &run.CompletedAt,
		&run.MarketsScanned, &run.AssetsAnalyzed, &run.AssetsSkipped,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scan run by id: %w", err)
	}
	run.Interval = domain.Interval(interval)

	return &run, nil
}

// GetRecent retrieves the most recent runs, ordered by started_at DESC.
func (s *ScanRunStore) GetRecent(ctx context.Context, limit int) ([]*domain.ScanRun, error) {
	query := `
		SELECT scan_id, exchange, cross_exchange, interval,
		       started_at, completed_at,
		       markets_scanned, assets_analyzed, assets_skipped
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.ScanRun
	for rows.Next() {
		var run domain.ScanRun
		var interval string
		err := rows.Scan(
			&run.ScanID, &run.Exchange, &run.CrossExchange, &interval,
			&run.StartedAt, &run.CompletedAt,
			&run.MarketsScanned, &run.AssetsAnalyzed, &run.AssetsSkipped,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scan run row: %w", err)
		}
		run.Interval = domain.Interval(interval)
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan run rows: %w", err)
	}

	return runs, nil
}
