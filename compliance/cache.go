package compliance

import "time"

// RulesCache caches the active rule catalog so each run snapshots the rule
// set once at start instead of re-reading the store per evaluation. Catalog
// mutations mid-run never reach rows already persisted in that run.
type RulesCache interface {
	// Get retrieves cached rules, returns nil if cache miss or expired
	Get() []*ComplianceRule

	// Set stores rules in cache
	Set(rules []*ComplianceRule)

	// Invalidate clears the cache, forcing a refresh on next Get
	Invalidate()

	// IsValid returns true if cache has valid data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for catalog caching
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0, // No TTL - only invalidate on catalog mutations
	}
}
