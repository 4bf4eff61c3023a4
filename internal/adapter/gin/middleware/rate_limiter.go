package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notes-service/pkg/logger"
)

// tokenBucket refills at ARGV[1] tokens per second up to ARGV[2] and takes one
// token per call. ARGV[3] is the caller's clock in milliseconds.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + (elapsed / 1000) * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, tostring(ttl))
return allowed
`)

// RateLimitConfig holds token bucket settings.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
}

// RateLimiter is a Redis backed per-client token bucket.
type RateLimiter struct {
	client redis.Scripter
	config RateLimitConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter using client for bucket state.
func NewRateLimiter(client redis.Scripter, config RateLimitConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
		log:    log,
		now:    time.Now,
	}
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, err := tokenBucket.Run(ctx, rl.client, []string{"ratelimit:tb:" + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		rl.now().UnixMilli(),
		rl.bucketTTL(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limiter script: %w", err)
	}
	return allowed == 1, nil
}

// Handler returns the gin middleware. Redis failures let the request through.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return limitByClientIP(rl, rl.log)
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func limitByClientIP(l Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientIP := c.ClientIP()

		allowed, err := l.Allow(ctx, clientIP)
		if err != nil {
			logger.WithContext(ctx, log).Warn("rate limiter error, allowing request",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			logger.WithContext(ctx, log).Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many requests",
			})
			return
		}

		c.Next()
	}
}

// bucketTTL keeps a bucket around at least as long as a full refill takes.
func (rl *RateLimiter) bucketTTL() string {
	seconds := 60
	if rl.config.RequestsPerSecond > 0 {
		refill := int(float64(rl.config.BurstCapacity)/rl.config.RequestsPerSecond) + 1
		if refill > seconds {
			seconds = refill
		}
	}
	return strconv.Itoa(seconds)
}
