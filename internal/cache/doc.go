// Package cache provides a freshness-bounded response cache for upstream
// market data. It combines a concurrent TTL store, a single-flight fetch
// coordinator that collapses concurrent refreshes of the same key into one
// upstream call, and a pure composer that derives CDN cache-control
// directives from an entry's remaining freshness.
package cache
