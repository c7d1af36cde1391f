package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"market-spread-lab/internal/domain"
)

// fastClient builds a client with no rate limit and no retry pauses.
func fastClient() *Client {
	return NewClient(
		WithRateLimit(rate.Inf, 1),
		WithRetryDelay(time.Millisecond),
	)
}

func TestBittrex_ListMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1.1/public/getmarkets" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"result":[
			{"MarketName":"USDT-BTC","IsActive":true},
			{"MarketName":"BTC-LTC","IsActive":true},
			{"MarketName":"BTC-DOGE","IsActive":false}
		]}`))
	}))
	defer srv.Close()

	b := NewBittrex(srv.URL, fastClient())

	pairs, err := b.ListMarkets(context.Background())
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}

	if len(pairs) != 2 {
		t.Fatalf("Expected 2 active pairs, got %d", len(pairs))
	}
	if pairs[0] != (domain.MarketPair{Quote: "USDT", Base: "BTC"}) {
		t.Errorf("Pair 0 = %+v", pairs[0])
	}
	if pairs[1] != (domain.MarketPair{Quote: "BTC", Base: "LTC"}) {
		t.Errorf("Pair 1 = %+v", pairs[1])
	}
}

func TestBittrex_GetCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tickInterval"); got != "thirtyMin" {
			t.Errorf("tickInterval = %s, want thirtyMin", got)
		}
		if got := r.URL.Query().Get("marketName"); got != "BTC-LTC" {
			t.Errorf("marketName = %s, want BTC-LTC", got)
		}
		w.Write([]byte(`{"success":true,"result":[
			{"O":0.001,"H":0.0011,"L":0.0009,"C":0.00105,"V":1000,"T":"2024-03-01T12:00:00","BV":1.05},
			{"O":0.00105,"H":0.0012,"L":0.001,"C":0.0011,"V":900,"T":"2024-03-01T12:30:00","BV":0.99}
		]}`))
	}))
	defer srv.Close()

	b := NewBittrex(srv.URL, fastClient())

	candles, err := b.GetCandles(context.Background(),
		domain.MarketPair{Quote: "BTC", Base: "LTC"}, domain.Interval30m)
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}

	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}

	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !candles[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", candles[0].Timestamp, want)
	}
	if candles[0].Open != 0.001 {
		t.Errorf("Open = %v, want 0.001", candles[0].Open)
	}
	if candles[0].Volume != 1.05 || candles[0].BaseVolume != 1000 {
		t.Errorf("Volumes = (%v, %v), want quote 1.05, base 1000",
			candles[0].Volume, candles[0].BaseVolume)
	}
}

func TestBittrex_NullResultMeansNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":null}`))
	}))
	defer srv.Close()

	b := NewBittrex(srv.URL, fastClient())

	candles, err := b.GetCandles(context.Background(),
		domain.MarketPair{Quote: "BTC", Base: "GHOST"}, domain.Interval1h)
	if err != nil {
		t.Fatalf("Absent data must not be an error, got %v", err)
	}
	if candles != nil {
		t.Fatalf("Expected nil candles, got %d", len(candles))
	}
}

func TestClient_RetriesOn500(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := fastClient().GetJSON(context.Background(), srv.URL, &out)
	if err != nil {
		t.Fatalf("GetJSON failed after retries: %v", err)
	}
	if !out.OK || calls.Load() != 3 {
		t.Errorf("ok=%v calls=%d, want success on third call", out.OK, calls.Load())
	}
}

func TestClient_NoRetryOn404(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out struct{}
	err := fastClient().GetJSON(context.Background(), srv.URL, &out)
	if err == nil {
		t.Fatal("Expected error on 404")
	}
	if calls.Load() != 1 {
		t.Errorf("404 retried %d times, want 1 call", calls.Load())
	}
}
