package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		RequestsPerMinute: 6000, // don't throttle tests
	})
}

func TestClient_Markets(t *testing.T) {
	var gotPath, gotKey string
	var gotQuery map[string][]string

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-cg-pro-api-key")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"img","current_price":50000,"market_cap_rank":1},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","image":"img","current_price":3000,"market_cap_rank":2}
		]`))
	})

	page, err := client.Markets(context.Background(), 100, 2)
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}

	if gotPath != "/coins/markets" {
		t.Errorf("path = %q, want /coins/markets", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q, want test-key", gotKey)
	}
	for param, want := range map[string]string{
		"vs_currency": "usd",
		"order":       "market_cap_desc",
		"per_page":    "100",
		"page":        "2",
	} {
		if got := gotQuery[param]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %s", param, got, want)
		}
	}

	if len(page.Data) != 2 || page.Data[0].ID != "bitcoin" {
		t.Errorf("unexpected listing: %+v", page.Data)
	}
	if page.Page != 2 || page.PerPage != 100 {
		t.Errorf("pagination echo wrong: page=%d per_page=%d", page.Page, page.PerPage)
	}
	if page.Data[0].CurrentPrice == nil || *page.Data[0].CurrentPrice != 50000 {
		t.Errorf("price not decoded: %+v", page.Data[0])
	}
}

func TestClient_MarketChartInterval(t *testing.T) {
	tests := []struct {
		days         int
		wantInterval string
	}{
		{1, "hourly"},
		{7, "daily"},
		{365, "daily"},
	}

	for _, tt := range tests {
		var gotInterval string
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotInterval = r.URL.Query().Get("interval")
			_, _ = w.Write([]byte(`{"prices":[[1,2]],"market_caps":[],"total_volumes":[]}`))
		})

		chart, err := client.MarketChart(context.Background(), "bitcoin", tt.days, "usd")
		if err != nil {
			t.Fatalf("MarketChart(days=%d) failed: %v", tt.days, err)
		}
		if gotInterval != tt.wantInterval {
			t.Errorf("days=%d: interval = %q, want %q", tt.days, gotInterval, tt.wantInterval)
		}
		if chart.CoinID != "bitcoin" || chart.Days != tt.days || len(chart.Prices) != 1 {
			t.Errorf("days=%d: unexpected chart %+v", tt.days, chart)
		}
	}
}

func TestClient_Tickers(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/vanry/tickers" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"tickers":[{"base":"VANRY","target":"USDT","last":0.1,"volume":1000,"trust_score":"green"}]}`))
	})

	tickers, err := client.Tickers(context.Background(), "vanry")
	if err != nil {
		t.Fatalf("Tickers failed: %v", err)
	}
	if len(tickers) != 1 || tickers[0].Target != "USDT" {
		t.Errorf("unexpected tickers: %+v", tickers)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.Markets(context.Background(), 10, 1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(Config{BaseURL: srv.URL, RequestsPerMinute: 6000})
	_, err := client.Markets(context.Background(), 10, 1)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestClient_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	var sawHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["X-Cg-Pro-Api-Key"]
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, RequestsPerMinute: 6000})
	if _, err := client.Markets(context.Background(), 10, 1); err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if sawHeader {
		t.Error("api key header sent despite empty key")
	}
}
