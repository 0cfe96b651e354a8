package config

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig locates the redis server shared by the rate limiter and the
// response cache. Both degrade to pass-through when no client is available.
type RedisConfig struct {
	Enabled     bool
	Addr        string
	Password    string
	DB          int
	TLS         bool
	DialTimeout time.Duration
}

// LoadRedisConfig reads REDIS_* variables. REDIS_HOST and REDIS_PORT take
// precedence over the REDIS_ADDR shorthand.
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	return RedisConfig{
		Enabled:     envBool("REDIS_ENABLED", true),
		Addr:        addr,
		Password:    envStr("REDIS_PASSWORD", ""),
		DB:          envInt("REDIS_DB", 0),
		TLS:         envBool("REDIS_TLS", false),
		DialTimeout: envDur("REDIS_DIAL_TIMEOUT", 2*time.Second),
	}
}

// NewRedisClient connects and pings. It returns nil when redis is disabled
// or unreachable; the reason is logged.
func NewRedisClient(rc RedisConfig, log *zap.Logger) *redis.Client {
	if !rc.Enabled {
		log.Info("redis disabled")
		return nil
	}
	opts := &redis.Options{
		Addr:        rc.Addr,
		Password:    rc.Password,
		DB:          rc.DB,
		DialTimeout: rc.DialTimeout,
	}
	if rc.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), rc.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, rate limiting and caching disabled",
			zap.String("addr", rc.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("redis connected", zap.String("addr", rc.Addr), zap.Int("db", rc.DB))
	return client
}
