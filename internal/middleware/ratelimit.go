package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/student-services-portal/internal/config"
)

// tokenBucket refills whole intervals only, so a client hammering the
// endpoint cannot earn fractional tokens.  It returns
// {allowed, tokens_left, retry_after_ms}.
var tokenBucket = redis.NewScript(`
    local key = KEYS[1]
    local now = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval = tonumber(ARGV[4])
    local ttl_ms = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'ts')
    local tokens = tonumber(state[1])
    local ts = tonumber(state[2])
    if tokens == nil or ts == nil then
        tokens = capacity
        ts = now
    end

    local steps = math.floor(math.max(0, now - ts) / interval)
    if steps > 0 then
        tokens = math.min(capacity, tokens + steps * refill)
        ts = ts + steps * interval
    end

    local allowed = 0
    local retry = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry = math.max(0, interval - (now - ts))
    end

    redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
    redis.call('PEXPIRE', key, ttl_ms)
    return { allowed, tokens, retry }
`)

// RateLimit throttles requests per key with a Redis token bucket.  With the
// limiter disabled or no Redis client it is a pass-through.  Redis errors
// let the request through: credentials are still checked downstream.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                cfg.TTL.Milliseconds(),
            }
            vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
            if err != nil || len(vals) != 3 {
                if log != nil {
                    log.WithError(err).WithField("key", key).Warn("rate limit check skipped")
                }
                return next(c)
            }
            allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if allowed {
                return next(c)
            }

            secs := int(math.Ceil(float64(retryMs) / 1000.0))
            h.Set("Retry-After", strconv.Itoa(secs))
            if log != nil {
                log.WithFields(logrus.Fields{"key": key, "retry_ms": retryMs}).Info("rate limited")
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "Too many requests, try again later",
                "retry_after": secs,
            })
        }
    }
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "route":
        parts = append(parts, "route", route)
    default:
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}
