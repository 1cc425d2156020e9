package middleware

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
)

// CounterStore counts requests per key in fixed windows
type CounterStore interface {
	// Increment adds one hit to key and returns the hit count of the current
	// window and the time left until the window resets
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitPolicy is a named request budget per client IP
type RateLimitPolicy struct {
	Name    string
	Limit   int64
	Window  time.Duration
	Message string
}

var (
	GeneralPolicy = RateLimitPolicy{
		Name: "general", Limit: 500, Window: 15 * time.Minute,
		Message: "Too many requests from this IP, please try again later.",
	}
	AuthPolicy = RateLimitPolicy{
		Name: "auth", Limit: 20, Window: 15 * time.Minute,
		Message: "Too many authentication attempts, please try again later.",
	}
	CreationPolicy = RateLimitPolicy{
		Name: "creation", Limit: 50, Window: 5 * time.Minute,
		Message: "Too many creation requests, please slow down.",
	}
	BrowsingPolicy = RateLimitPolicy{
		Name: "browsing", Limit: 200, Window: time.Minute,
		Message: "Too many requests, please slow down.",
	}
	AdminPolicy = RateLimitPolicy{
		Name: "admin", Limit: 200, Window: 15 * time.Minute,
		Message: "Too many admin requests, please try again later.",
	}
)

// RateLimiter applies policies using a shared CounterStore
type RateLimiter struct {
	store  CounterStore
	logger *zap.Logger
}

// NewRateLimiter creates a limiter backed by store
func NewRateLimiter(store CounterStore) *RateLimiter {
	return &RateLimiter{store: store, logger: utils.GetLogger()}
}

// Limit returns a middleware enforcing policy per client IP.
// Store failures let the request through.
func (l *RateLimiter) Limit(policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", policy.Name, c.ClientIP())

		count, ttl, err := l.store.Increment(c.Request.Context(), key, policy.Window)
		if err != nil {
			l.logger.Warn("rate limit store unavailable", zap.String("policy", policy.Name), zap.Error(err))
			c.Next()
			return
		}

		remaining := policy.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("RateLimit-Limit", strconv.FormatInt(policy.Limit, 10))
		c.Header("RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > policy.Limit {
			retryAfter := int64(math.Ceil(ttl.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			utils.RateLimitedTotal.WithLabelValues(policy.Name).Inc()
			l.logger.Warn("rate limit exceeded",
				zap.String("policy", policy.Name),
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.FullPath()))

			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     policy.Message,
				"error":       gin.H{"code": "RATE_LIMITED", "message": policy.Message},
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

type windowCounter struct {
	count   int64
	resetAt time.Time
}

// MemoryCounterStore keeps counters in process memory. It suits a single instance.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time
}

const memoryStoreSweepSize = 10000

// NewMemoryCounterStore creates an empty in-process store
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]*windowCounter), now: time.Now}
}

// Increment counts a hit on key, opening a new window when the previous one has elapsed
func (s *MemoryCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counter, ok := s.counters[key]
	if !ok || !now.Before(counter.resetAt) {
		if len(s.counters) >= memoryStoreSweepSize {
			s.sweep(now)
		}
		counter = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = counter
	}
	counter.count++
	return counter.count, counter.resetAt.Sub(now), nil
}

// sweep drops expired windows; callers hold mu
func (s *MemoryCounterStore) sweep(now time.Time) {
	for key, counter := range s.counters {
		if !now.Before(counter.resetAt) {
			delete(s.counters, key)
		}
	}
}

//go:embed scripts/increment_window.lua
var incrementWindowScript string

// RedisCounterStore shares counters between API instances through Redis
type RedisCounterStore struct {
	rdb       *redis.Client
	increment *redis.Script
}

// NewRedisCounterStore creates a store on an existing client
func NewRedisCounterStore(rdb *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb, increment: redis.NewScript(incrementWindowScript)}
}

// Increment counts a hit on key atomically in one script run. A key without an
// expiry, new or left behind, starts a fresh window.
func (s *RedisCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	result, err := s.increment.Run(ctx, s.rdb, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis increment script failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected increment script result %v", result)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected increment count %v", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected increment ttl %v", values[1])
	}
	return count, time.Duration(ttlMs) * time.Millisecond, nil
}
