package cache

import "errors"

// Common errors for cache operations.
var (
	// ErrKeyInvalid is returned when a caller supplies an unusable cache key.
	// It is rejected before any store interaction.
	ErrKeyInvalid = errors.New("invalid cache key")

	// ErrUpstreamUnavailable is returned when the producer failed and no
	// previously stored value exists to fall back to. Errors returned by
	// Resolve wrap the producer's error, so errors.Is and errors.As still
	// see the original cause.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
