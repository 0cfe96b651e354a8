package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/config"
)

// bucketScript refills the bucket stored at KEYS[1] for the whole
// intervals elapsed since its stamp, then tries to take one token.
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, remaining, wait_ms}.
var bucketScript = redis.NewScript(`
local now, cap, refill, every, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local tokens = tonumber(redis.call('HGET', KEYS[1], 't'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 's'))
if not tokens or not stamp then
	tokens, stamp = cap, now
end

if every > 0 then
	local steps = math.floor(math.max(0, now - stamp) / every)
	if steps > 0 then
		tokens = math.min(cap, tokens + steps * refill)
		stamp = stamp + steps * every
	end
end

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.max(0, every - (now - stamp))
end

redis.call('HSET', KEYS[1], 't', tokens, 's', stamp)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

type bucketResult struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

func takeToken(ctx context.Context, rdb *redis.Client, key string, cfg config.RateLimitConfig) (bucketResult, error) {
	vals, err := bucketScript.Run(ctx, rdb, []string{key},
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	if len(vals) != 3 {
		return bucketResult{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
	}
	return bucketResult{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		wait:      time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests per key (see RateLimitConfig.KeyStrategy)
// with a redis-backed token bucket. Without redis, or when redis errors,
// requests pass through unlimited.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	log = log.Named("ratelimit")
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := takeToken(c.Request().Context(), rdb, key, cfg)
			if err != nil {
				log.Warn("redis error; allowing request", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			secs := int((res.wait + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Info("blocked", zap.String("key", key), zap.Duration("wait", res.wait))
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too_many_requests",
				"message":     "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// rateStrategies lists, per KeyStrategy, which request facets make up the
// bucket key. Unknown strategies fall back to ip_user_route.
var rateStrategies = map[string][]string{
	"ip":            {"ip"},
	"user":          {"user"},
	"route":         {"route"},
	"ip_user":       {"ip", "user"},
	"ip_route":      {"ip", "route"},
	"user_route":    {"user", "route"},
	"ip_user_route": {"ip", "user", "route"},
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	facets, ok := rateStrategies[strings.ToLower(cfg.KeyStrategy)]
	if !ok {
		facets = rateStrategies["ip_user_route"]
	}
	parts := []string{cfg.Prefix}
	for _, f := range facets {
		var v string
		switch f {
		case "ip":
			if v = c.RealIP(); v == "" {
				v = "unknown"
			}
		case "user":
			v = userLabel(c)
		case "route":
			v = c.Request().Method + " " + c.Path()
		}
		parts = append(parts, f, v)
	}
	return strings.Join(parts, ":")
}
