package config

import "time"

// RateLimitConfig drives the redis token bucket middleware. The Auth*
// fields size a second, stricter bucket in front of login and register.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool

	AuthCapacity       int
	AuthRefillInterval time.Duration
}

func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:            envBool("RATE_LIMIT_ENABLED", true),
		Capacity:           envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:       envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval:     envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:                envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:        envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:             envStr("RATE_LIMIT_PREFIX", "museum:rl"),
		Debug:              envBool("RATE_LIMIT_DEBUG", false),
		AuthCapacity:       envInt("RATE_LIMIT_AUTH_CAPACITY", 10),
		AuthRefillInterval: envDur("RATE_LIMIT_AUTH_REFILL_INTERVAL", 6*time.Second),
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		c.RefillTokens = 1
		c.RefillInterval = every
	}
	return c.normalize()
}

// Auth derives the bucket used for credential endpoints: keyed by client
// IP and route under its own prefix.
func (c RateLimitConfig) Auth() RateLimitConfig {
	a := c
	a.Capacity = c.AuthCapacity
	a.RefillTokens = 1
	a.RefillInterval = c.AuthRefillInterval
	a.KeyStrategy = "ip_route"
	a.Prefix = c.Prefix + ":auth"
	return a.normalize()
}

// normalize clamps values the limiter script cannot work with.
func (c RateLimitConfig) normalize() RateLimitConfig {
	c.Capacity = max(c.Capacity, 1)
	c.RefillTokens = max(c.RefillTokens, 1)
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	c.TTL = max(c.TTL, 5*c.RefillInterval)
	return c
}
