package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qrmuseum/museum-api/internal/config"
	"github.com/qrmuseum/museum-api/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func token(t *testing.T, uid uint64, role string) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, uid, role, 5)
	require.NoError(t, err)
	return "Bearer " + at.Token
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoami(c echo.Context) error {
	id, ok := UserID(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "auth": ok, "role": c.Get(CtxRole)})
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/p", whoami, JWTAuth(secret))

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/p", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/p", "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/p", "Basic abc").Code)

	rec := do(e, http.MethodGet, "/p", token(t, 7, "VISITOR"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"auth":true,"role":"VISITOR"}`, rec.Body.String())
}

func TestOptionalJWT(t *testing.T) {
	e := echo.New()
	e.GET("/o", whoami, OptionalJWT(secret))

	rec := do(e, http.MethodGet, "/o", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"auth":false,"role":null}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/o", "Bearer broken").Code)

	rec = do(e, http.MethodGet, "/o", token(t, 3, "ADMIN"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"auth":true,"role":"ADMIN"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole("ADMIN"))

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin", token(t, 1, "VISITOR")).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/admin", token(t, 1, "ADMIN")).Code)

	e.GET("/bare", whoami, RequireRole("ADMIN"))
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/bare", "").Code)
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "test:rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, zap.NewNop()))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	first := do(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/x", "").Code)

	blocked := do(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/home", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/home")
	c.Set(CtxUserID, uint64(7))

	cases := map[string]string{
		"ip":         "p:ip:10.0.0.1",
		"user":       "p:user:7",
		"ip_route":   "p:ip:10.0.0.1:route:GET /v1/home",
		"bogus":      "p:ip:10.0.0.1:user:7:route:GET /v1/home",
		"USER_ROUTE": "p:user:7:route:GET /v1/home",
	}
	for strategy, want := range cases {
		got := rateKey(config.RateLimitConfig{Prefix: "p", KeyStrategy: strategy}, c)
		assert.Equal(t, want, got, strategy)
	}
}

func TestAuthBucketIsSeparate(t *testing.T) {
	mr, rdb := newRedis(t)
	base := config.RateLimitConfig{
		Enabled: true, Capacity: 100, RefillInterval: time.Hour, Prefix: "test:rl",
		AuthCapacity: 1, AuthRefillInterval: time.Hour,
	}
	e := echo.New()
	e.Use(NewTokenBucket(base, rdb, zap.NewNop()))
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(base.Auth(), rdb, zap.NewNop()))

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/login", "").Code)

	var authKeys int
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "test:rl:auth:") {
			authKeys++
		}
	}
	assert.Equal(t, 1, authKeys)
}

func TestTokenBucketWithoutRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, zap.NewNop()))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/x", "").Code)
	}
}

func TestRedisCache(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: "test:cache", MaxBodyBytes: 1 << 20,
	}
	calls := 0
	e := echo.New()
	e.GET("/museum", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"name": "Mi Museo"})
	}, NewRedisCache(cfg, rdb))
	e.PUT("/museum", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		PurgeCacheOnWrite(cfg, rdb, zap.NewNop()))

	miss := do(e, http.MethodGet, "/museum", "")
	assert.Equal(t, "MISS", miss.Header().Get("X-Cache"))
	hit := do(e, http.MethodGet, "/museum", "")
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, miss.Body.String(), hit.Body.String())
	assert.Equal(t, miss.Header().Get(echo.HeaderContentType), hit.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	// personalised requests bypass the cache
	do(e, http.MethodGet, "/museum", "Bearer whatever")
	assert.Equal(t, 2, calls)

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPut, "/museum", "").Code)
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/museum", "").Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError) })

	do(e, http.MethodGet, "/ok", "")
	rec := do(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "anon", entries[1].ContextMap()["user"])
}
