package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// CoinGecko does not report a total coin count on the markets endpoint, so
// the listing advertises an estimate for pagination purposes.
const estimatedCoinCount = 10000

// Config holds client settings. Every field can be overridden from the
// environment, which is how the deployment passes the API key around;
// unset variables leave the configured values untouched.
type Config struct {
	BaseURL           string        `env:"COINGECKO_BASE_URL"`
	APIKey            string        `env:"COINGECKO_API_KEY"`
	RequestsPerMinute int           `env:"COINGECKO_RATE_LIMIT"`
	Timeout           time.Duration `env:"COINGECKO_TIMEOUT"`
}

// Client is a rate-limited CoinGecko API client. The limiter paces requests
// below the upstream quota before they leave the process; it is pacing, not
// retry, so a 429 can still come back under burst conditions and is mapped
// to ErrRateLimited for the caller to handle.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client from config, applying defaults for anything
// left unset.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 30
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		http:    &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Markets fetches one page of the market listing, ordered by market cap.
func (c *Client) Markets(ctx context.Context, limit, page int) (*MarketPage, error) {
	params := url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(limit)},
		"page":                    {strconv.Itoa(page)},
		"sparkline":               {"false"},
		"price_change_percentage": {"24h"},
	}

	var coins []Market
	if err := c.get(ctx, "coins/markets", params, &coins); err != nil {
		return nil, err
	}

	return &MarketPage{
		Data:    coins,
		Total:   estimatedCoinCount,
		Page:    page,
		PerPage: limit,
	}, nil
}

// MarketChart fetches the historical series for a coin. Days above one use
// daily granularity, a single day uses hourly.
func (c *Client) MarketChart(ctx context.Context, coinID string, days int, vsCurrency string) (*Chart, error) {
	interval := "daily"
	if days <= 1 {
		interval = "hourly"
	}
	params := url.Values{
		"vs_currency": {vsCurrency},
		"days":        {strconv.Itoa(days)},
		"interval":    {interval},
	}

	var series struct {
		Prices       [][]float64 `json:"prices"`
		MarketCaps   [][]float64 `json:"market_caps"`
		TotalVolumes [][]float64 `json:"total_volumes"`
	}
	if err := c.get(ctx, "coins/"+url.PathEscape(coinID)+"/market_chart", params, &series); err != nil {
		return nil, err
	}

	return &Chart{
		CoinID:       coinID,
		VsCurrency:   vsCurrency,
		Days:         days,
		Prices:       series.Prices,
		MarketCaps:   series.MarketCaps,
		TotalVolumes: series.TotalVolumes,
	}, nil
}

// Tickers fetches the trading pairs for a coin.
func (c *Client) Tickers(ctx context.Context, coinID string) ([]Ticker, error) {
	params := url.Values{
		"include_exchange_logo": {"false"},
		"page":                  {"1"},
		"depth":                 {"true"},
	}

	var book struct {
		Tickers []Ticker `json:"tickers"`
	}
	if err := c.get(ctx, "coins/"+url.PathEscape(coinID)+"/tickers", params, &book); err != nil {
		return nil, err
	}
	return book.Tickers, nil
}

// get performs one rate-limited GET against the API and decodes the JSON
// body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("User-Agent", "CoinGecko-Dashboard/1.0")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Warn("coingecko rate limit exceeded", "endpoint", endpoint)
		return fmt.Errorf("%w: %s", ErrRateLimited, endpoint)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	default:
		log.Error("coingecko error response", "endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("%w: HTTP status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrUnavailable, err)
	}
	return nil
}
