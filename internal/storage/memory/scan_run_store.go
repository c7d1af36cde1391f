package memory

import (
	"context"
	"sort"
	"sync"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
)

// ScanRunStore is an in-memory implementation of storage.ScanRunStore.
type ScanRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScanRun // keyed by scan_id
}

// NewScanRunStore creates a new in-memory scan run store.
func NewScanRunStore() *ScanRunStore {
	return &ScanRunStore{
		data: make(map[string]*domain.ScanRun),
	}
}

// Insert adds a new scan run. Returns ErrDuplicateKey if scan_id exists.
func (s *ScanRunStore) Insert(_ context.Context, run *domain.ScanRun) error {
	if run == nil || run.ScanID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.ScanID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *run
	if run.CrossExchange != nil {
		cross := *run.CrossExchange
		runCopy.CrossExchange = &cross
	}
	s.data[run.ScanID] = &runCopy

	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScanRunStore) GetByID(_ context.Context, scanID string) (*domain.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[scanID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	runCopy := *run
	if run.CrossExchange != nil {
		cross := *run.CrossExchange
		runCopy.CrossExchange = &cross
	}
	return &runCopy, nil
}

// GetRecent retrieves the most recent runs, ordered by started_at DESC.
func (s *ScanRunStore) GetRecent(_ context.Context, limit int) ([]*domain.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ScanRun, 0, len(s.data))
	for _, run := range s.data {
		runCopy := *run
		if run.CrossExchange != nil {
			cross := *run.CrossExchange
			runCopy.CrossExchange = &cross
		}
		result = append(result, &runCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt > result[j].StartedAt
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}

	return result, nil
}

var _ storage.ScanRunStore = (*ScanRunStore)(nil)
