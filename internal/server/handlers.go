package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Jubii100/coingecko-dashboard/internal/cache"
	"github.com/Jubii100/coingecko-dashboard/internal/coingecko"
)

// validChartDays are the day ranges the chart endpoint accepts.
var validChartDays = map[int]bool{1: true, 7: true, 30: true, 90: true, 365: true}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 100, 1, 250)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	page, err := intQuery(r, "page", 1, 1, 10000)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}

	key, err := cache.NewKey(KindMarkets, url.Values{
		"limit": {strconv.Itoa(limit)},
		"page":  {strconv.Itoa(page)},
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}

	s.serveCached(w, r, key, s.cfg.Markets, func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.Background(), producerTimeout)
		defer cancel()
		listing, err := s.gecko.Markets(ctx, limit, page)
		if err != nil {
			return nil, err
		}
		return json.Marshal(listing)
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	coinID := r.PathValue("id")
	days, err := intQuery(r, "days", 7, 1, 365)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	if !validChartDays[days] {
		writeJSON(w, http.StatusBadRequest, errorBody(
			fmt.Errorf("days must be one of 1, 7, 30, 90, 365, got %d", days)))
		return
	}
	vsCurrency := r.URL.Query().Get("vs_currency")
	if vsCurrency == "" {
		vsCurrency = "usd"
	}

	key, err := cache.NewKey(KindCharts, url.Values{
		"coin":        {coinID},
		"days":        {strconv.Itoa(days)},
		"vs_currency": {vsCurrency},
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}

	s.serveCached(w, r, key, s.cfg.Charts, func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.Background(), producerTimeout)
		defer cancel()
		chart, err := s.gecko.MarketChart(ctx, coinID, days, vsCurrency)
		if err != nil {
			return nil, err
		}
		return json.Marshal(chart)
	})
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	coinID := r.PathValue("id")
	target := r.URL.Query().Get("target")
	if target == "" {
		target = "USDT"
	}

	key, err := cache.NewKey(KindTickers, url.Values{
		"coin":   {coinID},
		"target": {target},
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}

	s.serveCached(w, r, key, s.cfg.Tickers, func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.Background(), producerTimeout)
		defer cancel()
		tickers, err := s.gecko.Tickers(ctx, coinID)
		if err != nil {
			return nil, err
		}
		book := coingecko.TickerBook{
			CoinID:  coinID,
			Tickers: coingecko.FilterTickers(tickers, target),
		}
		return json.Marshal(&book)
	})
}

// serveCached resolves key through the coordinator and writes the value
// with cache-control headers derived from its freshness.
//
// The producer deliberately runs on context.Background rather than the
// request context: a disconnecting client must not cancel a fetch that
// other waiters are attached to or that can populate the cache for the
// next request.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key cache.Key, policy Policy, producer cache.Producer) {
	value, meta, err := s.coord.Resolve(r.Context(), key, policy.TTL, producer)
	if err != nil {
		s.writeResolveError(w, r, key, err)
		return
	}

	env := cache.Compose(value, meta, policy.Grace)

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", env.CacheControl)
	h.Set("CDN-Cache-Control", env.CDNCacheControl)
	h.Set("Vary", "Accept-Encoding")
	h.Set("Age", strconv.Itoa(int(env.Age/time.Second)))
	if _, err := w.Write(env.Value); err != nil {
		log.Debug("unable to write response", "key", key, "error", err)
	}
}

// writeResolveError maps a Resolve failure onto a response status.
func (s *Server) writeResolveError(w http.ResponseWriter, r *http.Request, key cache.Key, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away while waiting on the fetch; nothing to write.
		log.Debug("request abandoned", "key", key, "path", r.URL.Path)
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody(err))
	case errors.Is(err, cache.ErrKeyInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err))
	case errors.Is(err, coingecko.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detail("coin not found"))
	case errors.Is(err, coingecko.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, detail("API rate limit exceeded"))
	case errors.Is(err, cache.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, detail("external API error"))
	default:
		log.Error("unexpected resolve failure", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, detail("internal error"))
	}
}

// intQuery parses an integer query parameter with a default and an
// inclusive range.
func intQuery(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, n)
	}
	return n, nil
}

func errorBody(err error) map[string]string {
	return map[string]string{"detail": err.Error()}
}

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}
