package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "CoinGecko Dashboard API",
		"health":  "/api/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"cache":     s.store.Snapshot(),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":     s.store.Snapshot(),
		"entries":   s.store.Len(),
		"in_flight": s.coord.InFlight(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "all"
	}

	var cleared int
	switch kind {
	case "all":
		cleared = s.store.Clear()
	case KindMarkets, KindCharts, KindTickers:
		cleared = s.store.InvalidateKind(kind)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody(
			fmt.Errorf("unknown cache kind %q", kind)))
		return
	}

	log.Info("cache cleared", "kind", kind, "entries", cleared)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Cleared %d cache entries", cleared),
		"kind":      kind,
		"cleared":   cleared,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleResetStats(w http.ResponseWriter, _ *http.Request) {
	s.store.ResetStats()
	log.Info("cache stats reset")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "cache stats reset",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
