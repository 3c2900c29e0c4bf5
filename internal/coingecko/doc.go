// Package coingecko implements the upstream CoinGecko API client. It owns
// the payload schema, client-side rate limiting and the mapping of upstream
// failures onto the error values the cache layer reacts to; the cache itself
// only ever sees opaque byte payloads produced from this package's types.
package coingecko
