package coingecko

import "errors"

// Common errors for upstream calls. Handlers use these to pick a response
// status; the cache layer treats them all uniformly as producer failures.
var (
	// ErrRateLimited is returned when CoinGecko answers 429.
	ErrRateLimited = errors.New("coingecko rate limit exceeded")

	// ErrNotFound is returned when CoinGecko answers 404, typically for an
	// unknown coin id.
	ErrNotFound = errors.New("coin not found")

	// ErrUnavailable is returned for transport failures and any other
	// non-success status.
	ErrUnavailable = errors.New("coingecko unavailable")
)
