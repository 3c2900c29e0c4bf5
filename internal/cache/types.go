package cache

import (
	"net/url"
	"time"
)

// Key identifies a cached resource. It is a structured, comparable value:
// the resource kind plus its normalized parameters. Building keys through
// NewKey guarantees that two logically identical requests map to the same
// key without relying on ambiguous string concatenation.
type Key struct {
	Kind   string
	Params string
}

// NewKey builds a Key from a resource kind and its request parameters.
// Parameters are canonically encoded (sorted by name), so the same logical
// request always yields the same key regardless of argument order.
func NewKey(kind string, params url.Values) (Key, error) {
	if kind == "" {
		return Key{}, ErrKeyInvalid
	}
	return Key{Kind: kind, Params: params.Encode()}, nil
}

// String renders the key for logging.
func (k Key) String() string {
	if k.Params == "" {
		return k.Kind
	}
	return k.Kind + "?" + k.Params
}

// Entry is a stored cache value together with its freshness window.
// Freshness is never stored; it is always computed against a caller-supplied
// clock so entries cross the fresh/stale boundary without mutation.
//
// Values are treated as immutable byte payloads. The store hands the same
// slice to every reader, so callers must not modify it.
type Entry struct {
	Value    []byte
	StoredAt time.Time
	TTL      time.Duration
}

// Fresh reports whether the entry is within its freshness window at now.
// A non-positive TTL means the entry is never fresh.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.TTL
}

// Age returns how long ago the entry was stored, floored at zero.
func (e Entry) Age(now time.Time) time.Duration {
	age := now.Sub(e.StoredAt)
	if age < 0 {
		return 0
	}
	return age
}

// Meta describes the freshness of a value returned by Resolve.
type Meta struct {
	// Age is how old the value is. Zero for a value fetched by this call.
	Age time.Duration

	// TTL is the freshness window the value was stored with.
	TTL time.Duration

	// Stale marks a value served past its freshness window because the
	// upstream refresh failed.
	Stale bool
}

// Stats holds process-lifetime cache counters. Counters are monotonic and
// reset only by an explicit administrative reset.
type Stats struct {
	// Hits counts lookups answered by a fresh entry.
	Hits int64 `json:"hits"`

	// Misses counts completed fetches that stored a new value.
	Misses int64 `json:"misses"`

	// Joins counts callers that attached to an already in-flight fetch
	// instead of starting their own.
	Joins int64 `json:"joins"`

	// UpstreamFailures counts fetches whose producer returned an error.
	UpstreamFailures int64 `json:"upstream_failures"`

	// StaleServes counts failed fetches answered with the previous stale
	// value instead of an error.
	StaleServes int64 `json:"stale_serves"`
}
