package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CandleRecord // keyed by (exchange, market, interval, timestamp)
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]*domain.CandleRecord),
	}
}

// candleKey generates a unique key for a candle.
func candleKey(exchange, market string, interval domain.Interval, ts int64) string {
	return fmt.Sprintf("%s|%s|%s|%d", exchange, market, interval, ts)
}

// InsertBulk adds multiple candles. Fails entire batch on any duplicate.
func (s *CandleStore) InsertBulk(_ context.Context, candles []*domain.CandleRecord) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(candles))

	// First pass: check for duplicates (existing + intra-batch)
	for _, c := range candles {
		if c == nil || c.Exchange == "" || c.Market == "" {
			return storage.ErrInvalidInput
		}
		key := candleKey(c.Exchange, c.Market, c.Interval, c.Timestamp.Unix())

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, c := range candles {
		key := candleKey(c.Exchange, c.Market, c.Interval, c.Timestamp.Unix())
		candleCopy := *c
		s.data[key] = &candleCopy
	}

	return nil
}

// GetBySeries retrieves all candles for a series, ordered by timestamp ASC.
func (s *CandleStore) GetBySeries(_ context.Context, exchange, market string, interval domain.Interval) ([]*domain.CandleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CandleRecord
	for _, c := range s.data {
		if c.Exchange == exchange && c.Market == market && c.Interval == interval {
			candleCopy := *c
			result = append(result, &candleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// GetByTimeRange retrieves candles for a series within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(_ context.Context, exchange, market string, interval domain.Interval, start, end int64) ([]*domain.CandleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CandleRecord
	for _, c := range s.data {
		ts := c.Timestamp.Unix()
		if c.Exchange == exchange && c.Market == market && c.Interval == interval && ts >= start && ts <= end {
			candleCopy := *c
			result = append(result, &candleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
