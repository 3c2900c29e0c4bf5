package cache

import (
	"fmt"
	"time"
)

// Envelope wraps a resolved value with the freshness metadata and derived
// cache-control directives the HTTP layer forwards to clients and CDNs.
type Envelope struct {
	// Value is the cached payload, unchanged.
	Value []byte

	// Age is how old the value is.
	Age time.Duration

	// TTL is the freshness window the value was stored with.
	TTL time.Duration

	// Remaining is the freshness window left (TTL - Age), floored at zero.
	Remaining time.Duration

	// Stale marks a value served past its freshness window.
	Stale bool

	// CacheControl is the client-facing freshness budget: the remaining
	// TTL plus a serve-stale-while-revalidating allowance of Grace.
	CacheControl string

	// CDNCacheControl is the edge budget. The shared max-age matches the
	// client budget so the edge never outlives the cache's own window.
	CDNCacheControl string

	// Grace is the stale-while-revalidate allowance the directives carry.
	Grace time.Duration
}

// Compose derives the outward envelope for a resolved value. The grace
// window is a static per-resource-kind configuration value; Compose
// performs no I/O and never touches the store.
func Compose(value []byte, meta Meta, grace time.Duration) Envelope {
	remaining := meta.TTL - meta.Age
	if remaining < 0 || meta.Stale {
		remaining = 0
	}

	maxAge := int(remaining / time.Second)
	swr := int(grace / time.Second)

	return Envelope{
		Value:     value,
		Age:       meta.Age,
		TTL:       meta.TTL,
		Remaining: remaining,
		Stale:     meta.Stale,
		Grace:     grace,
		CacheControl: fmt.Sprintf(
			"public, max-age=%d, stale-while-revalidate=%d", maxAge, swr),
		CDNCacheControl: fmt.Sprintf(
			"max-age=%d, s-maxage=%d, stale-while-revalidate=%d", maxAge, maxAge, swr),
	}
}
