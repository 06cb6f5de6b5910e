package config

import "time"

// CacheConfig drives the Redis response cache over the public venue
// reads.  Two lifetimes exist: TTL for plain reads (the recent
// check-in feed, daily stats) and CrowdTTL for listings that embed a
// crowd level.  CrowdTTL stays within the few-seconds staleness the
// live crowd surfaces promise, so a cached venue listing can never lag
// far behind GET /v1/venues/:id/crowd.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	CrowdTTL     time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads cache settings from the environment.  CrowdTTL
// is clamped so an operator cannot configure a crowd-bearing response
// to outlive the staleness bound.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		CrowdTTL:     envDur("CACHE_CROWD_TTL", 3*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "checkin:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.CrowdTTL > 5*time.Second {
		cfg.CrowdTTL = 5 * time.Second
	}
	return cfg
}
