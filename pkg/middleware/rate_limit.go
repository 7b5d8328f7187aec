package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/metrics"
)

// Window is the fixed rate-limit window length.
const Window = 60 * time.Second

// Limiter enforces a fixed-window request quota per identifier. When a Redis
// client is configured the window counter is shared across instances; any
// Redis failure falls back to the in-process store for that check so an
// unreachable Redis never takes requests down with it.
type Limiter struct {
	quota  int
	client *redis.Client

	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time
}

type window struct {
	count   int
	startAt time.Time
}

func NewLimiter(client *redis.Client, perMinute int) *Limiter {
	return &Limiter{
		quota:   perMinute,
		client:  client,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Check consumes one request slot for identifier. When the quota is exhausted
// it returns allowed=false and the seconds until the window resets. store
// names the backend that made the decision ("redis" or "memory").
func (l *Limiter) Check(ctx context.Context, identifier string) (allowed bool, retryAfter int, store string) {
	if l.client != nil {
		allowed, retryAfter, err := l.checkRedis(ctx, identifier)
		if err == nil {
			return allowed, retryAfter, "redis"
		}
		logger.Warnf("redis rate limit check failed for %s, using in-process fallback: %v", identifier, err)
	}
	allowed, retryAfter = l.checkMemory(identifier)
	return allowed, retryAfter, "memory"
}

func (l *Limiter) checkRedis(ctx context.Context, identifier string) (bool, int, error) {
	key := "rate_limit:" + identifier

	cnt, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if cnt == 1 {
		if err := l.client.Expire(ctx, key, Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if cnt <= int64(l.quota) {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		// The key has no expiry, which happens when the EXPIRE after the
		// first INCR was lost. Re-arm it so the counter cannot block the
		// identifier past the current window.
		if err := l.client.Expire(ctx, key, Window).Err(); err != nil {
			return false, 0, err
		}
		ttl = Window
	}
	retryAfter := int(ttl.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter, nil
}

func (l *Limiter) checkMemory(identifier string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[identifier]
	if !ok || now.Sub(w.startAt) >= Window {
		l.windows[identifier] = &window{count: 1, startAt: now}
		return true, 0
	}

	w.count++
	if w.count <= l.quota {
		return true, 0
	}

	retryAfter := int((Window - now.Sub(w.startAt)).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}

var exemptPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// RateLimitMiddleware returns a Gin middleware enforcing the fixed-window
// quota. Keying prefers the authenticated user, falling back to client IP.
func RateLimitMiddleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if exemptPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		identifier := identify(c)
		allowed, retryAfter, store := l.Check(c.Request.Context(), identifier)
		if !allowed {
			metrics.RateLimitRejected.WithLabelValues(store).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(store).Inc()
		c.Next()
	}
}

func identify(c *gin.Context) string {
	if user, ok := CurrentUser(c); ok && user.ID != "" {
		return "user:" + user.ID
	}
	if v, ok := c.Get(claimsKey); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				return "user:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf("ip:%s", ip)
}
