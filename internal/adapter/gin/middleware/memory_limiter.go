package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
	"go.uber.org/zap"
)

const (
	maxMemoryBuckets = 10000
	bucketIdleTTL    = 5 * time.Minute
)

type memoryBucket struct {
	bucket   *ratelimit.Bucket
	lastSeen time.Time
}

// MemoryRateLimiter keeps one token bucket per client in process memory. It
// suits single-instance deployments without Redis.
//
// Buckets idle for bucketIdleTTL are swept at most once per bucketIdleTTL.
// When the map is still full the least recently seen bucket is dropped, so
// memory stays bounded by maxBuckets however many clients are active.
type MemoryRateLimiter struct {
	config RateLimitConfig
	log    *zap.Logger

	mu         sync.Mutex
	buckets    map[string]*memoryBucket
	maxBuckets int
	lastSweep  time.Time
	now        func() time.Time
}

// NewMemoryRateLimiter creates an in-process rate limiter.
func NewMemoryRateLimiter(config RateLimitConfig, log *zap.Logger) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		config:     config,
		log:        log,
		buckets:    make(map[string]*memoryBucket),
		maxBuckets: maxMemoryBuckets,
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

// Allow takes one token from key's bucket. It never fails.
func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.bucket(key).TakeAvailable(1) == 1, nil
}

// Handler returns the gin middleware.
func (rl *MemoryRateLimiter) Handler() gin.HandlerFunc {
	return limitByClientIP(rl, rl.log)
}

func (rl *MemoryRateLimiter) bucket(key string) *ratelimit.Bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.bucket
	}

	if now.Sub(rl.lastSweep) >= bucketIdleTTL || len(rl.buckets) >= rl.maxBuckets {
		rl.evictIdle(now)
	}
	if len(rl.buckets) >= rl.maxBuckets {
		rl.evictOldest()
	}

	b := &memoryBucket{
		bucket:   ratelimit.NewBucketWithRate(rl.config.RequestsPerSecond, int64(rl.config.BurstCapacity)),
		lastSeen: now,
	}
	rl.buckets[key] = b
	return b.bucket
}

// evictIdle drops buckets unused for bucketIdleTTL. Caller holds mu.
func (rl *MemoryRateLimiter) evictIdle(now time.Time) {
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > bucketIdleTTL {
			delete(rl.buckets, key)
		}
	}
}

// evictOldest drops the least recently seen bucket. Caller holds mu.
func (rl *MemoryRateLimiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, b := range rl.buckets {
		if oldestKey == "" || b.lastSeen.Before(oldest) {
			oldestKey, oldest = key, b.lastSeen
		}
	}
	delete(rl.buckets, oldestKey)
	rl.log.Debug("rate limiter full, evicted least recent client")
}
