// Package server provides the HTTP layer of the dashboard backend. Handlers
// translate routes into cache keys and producer closures, pass them to the
// fetch coordinator, and turn the resulting envelope into response headers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Jubii100/coingecko-dashboard/internal/cache"
	"github.com/Jubii100/coingecko-dashboard/internal/coingecko"
)

// Resource kinds served by the dashboard. Cache keys are namespaced by
// kind, and each kind carries its own TTL and grace window.
const (
	KindMarkets = "markets"
	KindCharts  = "charts"
	KindTickers = "tickers"
)

// producerTimeout bounds one upstream fetch, including time spent waiting
// on the client-side rate limiter. Producers run detached from any request
// context, so this is their only bound.
const producerTimeout = 30 * time.Second

// Policy is the freshness configuration of one resource kind.
type Policy struct {
	// TTL is how long a fetched value stays fresh.
	TTL time.Duration

	// Grace is the stale-while-revalidate allowance advertised to clients
	// and CDNs.
	Grace time.Duration
}

// Config holds server settings.
type Config struct {
	Addr string

	Markets Policy
	Charts  Policy
	Tickers Policy

	// StatsInterval is how often cache counters are logged. Zero disables
	// the loop.
	StatsInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown once the run context ends.
	ShutdownTimeout time.Duration
}

// Server serves the dashboard API on top of one store, one coordinator and
// one upstream client, all constructed by the caller and shared across
// every handler path.
type Server struct {
	cfg     Config
	store   *cache.Store
	coord   *cache.Coordinator
	gecko   *coingecko.Client
	http    *http.Server
	started time.Time
}

// New creates a server. It does not start listening; call Run.
func New(cfg Config, store *cache.Store, coord *cache.Coordinator, gecko *coingecko.Client) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		coord:   coord,
		gecko:   gecko,
		started: time.Now(),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full route table, wrapped with gzip compression.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/markets", s.handleMarkets)
	mux.HandleFunc("GET /api/coins/{id}/chart", s.handleChart)
	mux.HandleFunc("GET /api/tickers/{id}", s.handleTickers)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/admin/cache-stats", s.handleCacheStats)
	mux.HandleFunc("POST /api/admin/clear-cache", s.handleClearCache)
	mux.HandleFunc("POST /api/admin/reset-stats", s.handleResetStats)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return gzhttp.GzipHandler(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("dashboard API listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", "uptime", time.Since(s.started).Round(time.Second))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	if s.cfg.StatsInterval > 0 {
		g.Go(func() error {
			s.statsLoop(ctx)
			return nil
		})
	}

	return g.Wait()
}

// statsLoop periodically logs the cache counters for operational
// visibility.
func (s *Server) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.store.Snapshot()
			log.Info("cache stats",
				"hits", humanize.Comma(st.Hits),
				"misses", humanize.Comma(st.Misses),
				"joins", humanize.Comma(st.Joins),
				"stale_serves", humanize.Comma(st.StaleServes),
				"upstream_failures", humanize.Comma(st.UpstreamFailures),
				"entries", s.store.Len(),
				"in_flight", s.coord.InFlight(),
			)
		}
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("unable to encode response", "error", err)
	}
}
