package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/Jubii100/coingecko-dashboard/internal/cache"
)

func seedEntry(t *testing.T, s *Server, kind, coin string) {
	t.Helper()
	key, err := cache.NewKey(kind, url.Values{"coin": {coin}})
	if err != nil {
		t.Fatalf("NewKey failed: %v", err)
	}
	s.store.Put(key, []byte("{}"), time.Minute, time.Now())
}

func TestHandleRoot(t *testing.T) {
	s := testServer(t, http.NotFoundHandler())

	rec := doRequest(t, s, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unable to decode body: %v", err)
	}
	if body["health"] != "/api/health" {
		t.Errorf("unexpected banner: %v", body)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t, http.NotFoundHandler())

	rec := doRequest(t, s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Status string      `json:"status"`
		Cache  cache.Stats `json:"cache"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unable to decode body: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q", body.Status)
	}
}

func TestHandleCacheStats(t *testing.T) {
	s := testServer(t, http.NotFoundHandler())
	seedEntry(t, s, KindMarkets, "a")
	seedEntry(t, s, KindCharts, "b")

	rec := doRequest(t, s, http.MethodGet, "/api/admin/cache-stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Stats    cache.Stats `json:"stats"`
		Entries  int         `json:"entries"`
		InFlight int         `json:"in_flight"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unable to decode body: %v", err)
	}
	if body.Entries != 2 {
		t.Errorf("entries = %d, want 2", body.Entries)
	}
	if body.InFlight != 0 {
		t.Errorf("in_flight = %d, want 0", body.InFlight)
	}
}

func TestHandleClearCache_ByKind(t *testing.T) {
	s := testServer(t, http.NotFoundHandler())
	seedEntry(t, s, KindMarkets, "a")
	seedEntry(t, s, KindMarkets, "b")
	seedEntry(t, s, KindCharts, "c")

	rec := doRequest(t, s, http.MethodPost, "/api/admin/clear-cache?kind=markets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var body struct {
		Cleared int    `json:"cleared"`
		Kind    string `json:"kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unable to decode body: %v", err)
	}
	if body.Cleared != 2 || body.Kind != "markets" {
		t.Errorf("body = %+v", body)
	}
	if s.store.Len() != 1 {
		t.Errorf("store has %d entries after kind clear, want 1", s.store.Len())
	}
}

func TestHandleClearCache_All(t *testing.T) {
	s := testServer(t, http.NotFoundHandler())
	seedEntry(t, s, KindMarkets, "a")
	seedEntry(t, s, KindTickers, "b")

	rec := doRequest(t, s, http.MethodPost, "/api/admin/clear-cache")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if s.store.Len() != 0 {
		t.Errorf("store not empty after clear: %d entries", s.store.Len())
	}
}

func TestHandleClearCache_UnknownKind(t *testing.T) {
	s := testServer(t, http.NotFoundHandler())

	rec := doRequest(t, s, http.MethodPost, "/api/admin/clear-cache?kind=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleResetStats(t *testing.T) {
	s := testServer(t, http.NotFoundHandler())

	// Generate some counter traffic: the 404 upstream makes this a hard
	// failure, which bumps the upstream-failure counter.
	doRequest(t, s, http.MethodGet, "/api/markets")

	rec := doRequest(t, s, http.MethodPost, "/api/admin/reset-stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := s.store.Snapshot(); got != (cache.Stats{}) {
		t.Errorf("counters not zeroed: %+v", got)
	}
}
