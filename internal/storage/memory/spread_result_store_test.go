package memory

import (
	"context"
	"errors"
	"testing"

	"market-spread-lab/internal/domain"
	"market-spread-lab/internal/storage"
)

func spreadRecord(scanID, currency string, avg float64) *domain.SpreadRecord {
	return &domain.SpreadRecord{
		ScanID:           scanID,
		Currency:         currency,
		HighMarket:       "bittrex:USDC-" + currency,
		LowMarket:        "bittrex:USDT-" + currency,
		SeriesLength:     3,
		AvgPercentSpread: avg,
	}
}

func TestSpreadResultStore_InsertBulkAndGet(t *testing.T) {
	store := NewSpreadResultStore()
	ctx := context.Background()

	records := []*domain.SpreadRecord{
		spreadRecord("scan1", "AAA", 1.5),
		spreadRecord("scan1", "BBB", 7.2),
		spreadRecord("scan2", "AAA", 3.0),
	}

	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByScanID(ctx, "scan1")
	if err != nil {
		t.Fatalf("GetByScanID failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result))
	}
	// Ordered by avg_percent_spread DESC
	if result[0].Currency != "BBB" {
		t.Errorf("First record = %s, want BBB", result[0].Currency)
	}
}

func TestSpreadResultStore_IntraBatchDuplicate(t *testing.T) {
	store := NewSpreadResultStore()
	ctx := context.Background()

	records := []*domain.SpreadRecord{
		spreadRecord("scan1", "AAA", 1.5),
		spreadRecord("scan1", "AAA", 2.5),
	}

	err := store.InsertBulk(ctx, records)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSpreadResultStore_GetTopByScanID(t *testing.T) {
	store := NewSpreadResultStore()
	ctx := context.Background()

	records := []*domain.SpreadRecord{
		spreadRecord("scan1", "AAA", 1.5),
		spreadRecord("scan1", "BBB", 7.2),
		spreadRecord("scan1", "CCC", 4.1),
	}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetTopByScanID(ctx, "scan1", 2)
	if err != nil {
		t.Fatalf("GetTopByScanID failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result))
	}
	if result[0].Currency != "BBB" || result[1].Currency != "CCC" {
		t.Errorf("Expected [BBB CCC], got [%s %s]", result[0].Currency, result[1].Currency)
	}
}
