package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
)

// SpreadResultStore is an in-memory implementation of storage.SpreadResultStore.
type SpreadResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SpreadRecord // keyed by (scan_id, currency)
}

// NewSpreadResultStore creates a new in-memory spread result store.
func NewSpreadResultStore() *SpreadResultStore {
	return &SpreadResultStore{
		data: make(map[string]*domain.SpreadRecord),
	}
}

// spreadKey generates a unique key for a spread result.
func spreadKey(scanID, currency string) string {
	return fmt.Sprintf("%s|%s", scanID, currency)
}

// InsertBulk adds multiple results. Fails entire batch on any duplicate.
func (s *SpreadResultStore) InsertBulk(_ context.Context, records []*domain.SpreadRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if r == nil || r.ScanID == "" || r.Currency == "" {
			return storage.ErrInvalidInput
		}
		key := spreadKey(r.ScanID, r.Currency)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		key := spreadKey(r.ScanID, r.Currency)
		recordCopy := *r
		s.data[key] = &recordCopy
	}

	return nil
}

// GetByScanID retrieves all results of a run, ordered by avg_percent_spread DESC.
func (s *SpreadResultStore) GetByScanID(_ context.Context, scanID string) ([]*domain.SpreadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SpreadRecord
	for _, r := range s.data {
		if r.ScanID == scanID {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AvgPercentSpread > result[j].AvgPercentSpread
	})

	return result, nil
}

// GetTopByScanID retrieves at most limit results by avg_percent_spread DESC.
func (s *SpreadResultStore) GetTopByScanID(ctx context.Context, scanID string, limit int) ([]*domain.SpreadRecord, error) {
	result, err := s.GetByScanID(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.SpreadResultStore = (*SpreadResultStore)(nil)
