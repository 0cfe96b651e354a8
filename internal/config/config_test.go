package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("BCRYPT_COST", "10")
}

func TestLoadSQLite(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("PUBLIC_BASE_URL", "https://museo.example")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, "https://museo.example", cfg.PublicBaseURL)
}

func TestLoadMySQL(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "museum")

	cfg := Load()
	assert.Equal(t, "db", cfg.DBHost)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.DBPath)
}

func TestSubConfigs(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")
	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.False(t, c.Methods["POST"])
	assert.Equal(t, 30*time.Second, c.TTL)
	assert.Equal(t, 1<<20, c.MaxBodyBytes)

	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("MAX_UPLOAD_MB", "5")
	s := LoadStorageConfig()
	assert.Equal(t, "s3", s.Backend)
	assert.Equal(t, 5, s.MaxUploadMB)
	assert.Equal(t, "/v1/media", s.MediaURLBase)

	t.Setenv("QUEUE_ENABLED", "true")
	t.Setenv("ACTIVITY_QUEUE", "q")
	q := LoadQueueConfig()
	assert.True(t, q.Enabled)
	assert.Equal(t, "q", q.ActivityQ)
	assert.Equal(t, "logs", q.LogDir)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", " Yes ")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_SET", "get,,head  post")
	assert.True(t, envBool("X_BOOL", false))
	assert.True(t, envBool("X_UNSET", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true, "POST": true}, envSet("X_SET", ""))
	assert.Equal(t, "d", envStr("X_UNSET", "d"))
}

func TestRedisClient(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	rc := LoadRedisConfig()
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.True(t, rc.Enabled)

	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisConfig{Enabled: true, Addr: mr.Addr(), DialTimeout: time.Second}, zap.NewNop())
	require.NotNil(t, client)
	defer client.Close()

	assert.Nil(t, NewRedisClient(RedisConfig{Enabled: false}, zap.NewNop()))
	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, NewRedisClient(RedisConfig{Enabled: true, Addr: addr, DialTimeout: 200 * time.Millisecond}, zap.NewNop()))
}

func TestRateLimitAuthBucket(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_AUTH_CAPACITY", "3")
	t.Setenv("RATE_LIMIT_PREFIX", "rl")
	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 10*time.Minute, c.TTL)

	a := c.Auth()
	assert.Equal(t, 3, a.Capacity)
	assert.Equal(t, 6*time.Second, a.RefillInterval)
	assert.Equal(t, "ip_route", a.KeyStrategy)
	assert.Equal(t, "rl:auth", a.Prefix)
	assert.Equal(t, 10*time.Minute, a.TTL)
}
