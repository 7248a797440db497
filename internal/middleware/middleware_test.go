package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artem9968/shareit/internal/config"
	"github.com/Artem9968/shareit/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func echoUser(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": c.Get(ContextUserID)})
}

func TestUserHeader(t *testing.T) {
	e := echo.New()
	e.GET("/me", echoUser, UserHeader(HeaderRequester))

	rec := serve(e, http.MethodGet, "/me", map[string]string{HeaderRequester: "7"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":7}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing header requester-id")

	rec = serve(e, http.MethodGet, "/me", map[string]string{HeaderRequester: "seven"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJWTAuthWithHeaders(t *testing.T) {
	e := echo.New()
	e.GET("/me", echoUser, JWTAuth("s3cret"), UserHeader(HeaderOwner))
	tok, err := utils.NewAccessToken("s3cret", 5, time.Hour)
	require.NoError(t, err)
	bearer := "Bearer " + tok.Token

	tests := []struct {
		name   string
		header map[string]string
		code   int
		body   string
	}{
		{"token only", map[string]string{echo.HeaderAuthorization: bearer}, http.StatusOK, `{"user":5}`},
		{"token and matching header", map[string]string{echo.HeaderAuthorization: bearer, HeaderOwner: "5"}, http.StatusOK, `{"user":5}`},
		{"token and other header", map[string]string{echo.HeaderAuthorization: bearer, HeaderOwner: "6"}, http.StatusForbidden, ""},
		{"header only", map[string]string{HeaderOwner: "6"}, http.StatusOK, `{"user":6}`},
		{"bad token", map[string]string{echo.HeaderAuthorization: "Bearer nope", HeaderOwner: "6"}, http.StatusUnauthorized, ""},
		{"not bearer", map[string]string{echo.HeaderAuthorization: "Basic Zm9vOmJhcg=="}, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tt.header)
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "user",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, nil))
	e.GET("/bookings", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	alice := map[string]string{HeaderRequester: "1"}
	for i, remaining := range []string{"1", "0"} {
		rec := serve(e, http.MethodGet, "/bookings", alice)
		require.Equal(t, http.StatusNoContent, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, remaining, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := serve(e, http.MethodGet, "/bookings", alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// buckets are per user
	rec = serve(e, http.MethodGet, "/bookings", map[string]string{HeaderRequester: "2"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	log, hook := test.NewNullLogger()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, log))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	mr.Close()
	rec := serve(e, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	e = echo.New()
	e.Use(NewTokenBucket(cfg, nil, log))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/", nil).Code)
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set(HeaderOwner, "9")
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/bookings/owner")

	assert.Equal(t, "rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:user:9", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1:user:9:route:GET /bookings/owner", rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func TestRedisCache(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "test:cache", MaxBodyBytes: 1 << 10}
	calls := 0
	e := echo.New()
	e.GET("/items/search", func(c echo.Context) error {
		calls++
		if c.QueryParam("text") == "fail" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad"})
		}
		return c.JSON(http.StatusOK, []string{c.QueryParam("text")})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/items/search?text=drill", nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/items/search?text=drill", nil)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Equal(t, 1, calls)

	serve(e, http.MethodGet, "/items/search?text=saw", nil)
	assert.Equal(t, 2, calls)

	serve(e, http.MethodGet, "/items/search?text=fail", nil)
	serve(e, http.MethodGet, "/items/search?text=fail", nil)
	assert.Equal(t, 4, calls, "errors are not cached")
}

func TestRedisCacheSkipsLargeBodies(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 8}
	calls := 0
	e := echo.New()
	e.GET("/big", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "a body longer than eight bytes")
	}, NewRedisCache(cfg, rdb))

	serve(e, http.MethodGet, "/big", nil)
	rec := serve(e, http.MethodGet, "/big", nil)
	assert.Equal(t, "a body longer than eight bytes", rec.Body.String())
	assert.Equal(t, 2, calls)
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError) })

	serve(e, http.MethodGet, "/ok", nil)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusNoContent, entry.Data["status"])
	assert.Equal(t, "/ok", entry.Data["route"])

	rec := serve(e, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
