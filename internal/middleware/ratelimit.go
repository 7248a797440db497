package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/config"
)

// tokenBucketScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local now, cap, per, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local left, at = tonumber(b[1]) or cap, tonumber(b[2]) or now

if every > 0 then
  local n = math.floor(math.max(0, now - at) / every)
  if n > 0 then
    left = math.min(cap, left + n * per)
    at = at + n * every
  end
end

local ok, wait = 0, 0
if left >= 1 then
  ok, left = 1, left - 1
elseif every > 0 then
  wait = math.max(0, at + every - now)
end

redis.call('HSET', KEYS[1], 'tokens', left, 'last_refill_ms', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, left, wait}
`)

// NewTokenBucket limits requests per key with a Redis token bucket.  It
// passes everything through when disabled, when rdb is nil, or when a
// Redis call fails.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttlSeconds := int64(cfg.TTL / time.Second)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttlSeconds).Int64Slice()
			if err != nil || len(res) != 3 {
				if log != nil {
					log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
				}
				return next(c)
			}
			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(retryMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug && log != nil {
				log.WithFields(logrus.Fields{"key": key, "retry_ms": retryMs}).Info("rate limited")
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := currentUserID(c)
	route := c.Request().Method + " " + c.Path()

	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		tail = fmt.Sprintf("ip:%s", ip)
	case "user":
		tail = fmt.Sprintf("user:%s", uid)
	case "ip_user":
		tail = fmt.Sprintf("ip:%s:user:%s", ip, uid)
	default:
		tail = fmt.Sprintf("ip:%s:user:%s:route:%s", ip, uid, route)
	}
	return cfg.Prefix + ":" + tail
}
