package config

import "time"

// CacheConfig drives the redis response cache in front of the public
// museum endpoints. Admin writes purge every key under Prefix.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool // upper-cased
	TTL          time.Duration
	KeyStrategy  string // "route_query" or "path_only"
	Prefix       string
	MaxBodyBytes int // larger responses are served but not stored
}

const (
	defaultCacheTTL     = 30 * time.Second
	defaultCacheMaxBody = 1 << 20
)

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      envSet("CACHE_METHODS", "GET"),
		TTL:          envDur("CACHE_TTL", defaultCacheTTL),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "museum:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", defaultCacheMaxBody),
	}.normalize()
}

func (c CacheConfig) normalize() CacheConfig {
	if c.TTL <= 0 {
		c.TTL = defaultCacheTTL
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultCacheMaxBody
	}
	if len(c.Methods) == 0 {
		c.Methods = map[string]bool{"GET": true}
	}
	return c
}
