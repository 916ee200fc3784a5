package config

import "time"

// CacheConfig controls the Redis-backed read-path helpers.  When Redis is
// not reachable both features are disabled regardless of these values.
type CacheConfig struct {
	AvailabilityEnabled bool          // cache availability query results
	AvailabilityTTL     time.Duration // lifetime of a cached result
	IdempotencyTTL      time.Duration // how long an Idempotency-Key is remembered
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		AvailabilityEnabled: envBool("AVAIL_CACHE_ENABLED", true),
		AvailabilityTTL:     envDur("AVAIL_CACHE_TTL", 15*time.Second),
		IdempotencyTTL:      envDur("IDEMPOTENCY_TTL", 24*time.Hour),
	}
}
