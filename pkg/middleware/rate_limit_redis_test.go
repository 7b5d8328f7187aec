package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiterQuotaAndWindow(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	l := NewLimiter(client, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, store := l.Check(ctx, "user:u1")
		require.True(t, allowed)
		require.Equal(t, "redis", store)
	}

	allowed, retryAfter, _ := l.Check(ctx, "user:u1")
	require.False(t, allowed)
	require.GreaterOrEqual(t, retryAfter, 1)
	require.LessOrEqual(t, retryAfter, 60)

	// advance miniredis clock past the window
	m.FastForward(61 * time.Second)
	allowed, _, _ = l.Check(ctx, "user:u1")
	require.True(t, allowed)
}

func TestRedisLimiterReArmsLostExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	l := NewLimiter(client, 2)
	ctx := context.Background()

	// counter over quota with no TTL, as if the EXPIRE after the first
	// INCR never landed
	require.NoError(t, client.Set(ctx, "rate_limit:user:u1", "5", 0).Err())

	allowed, retryAfter, store := l.Check(ctx, "user:u1")
	require.False(t, allowed)
	require.Equal(t, "redis", store)
	require.Equal(t, 60, retryAfter)
	require.Greater(t, m.TTL("rate_limit:user:u1"), time.Duration(0))

	// once the re-armed window lapses the identifier is admitted again
	m.FastForward(61 * time.Second)
	allowed, _, _ = l.Check(ctx, "user:u1")
	require.True(t, allowed)
}

func TestRedisLimiterFallsBackToMemory(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	l := NewLimiter(client, 1)
	ctx := context.Background()

	allowed, _, store := l.Check(ctx, "user:u1")
	require.True(t, allowed)
	require.Equal(t, "redis", store)

	// kill redis; checks degrade to the in-process store instead of failing
	m.Close()

	allowed, _, store = l.Check(ctx, "user:u1")
	require.True(t, allowed)
	require.Equal(t, "memory", store)

	allowed, retryAfter, store := l.Check(ctx, "user:u1")
	require.False(t, allowed)
	require.Equal(t, "memory", store)
	require.GreaterOrEqual(t, retryAfter, 1)
}

func TestRedisRateLimitMiddleware(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(NewLimiter(client, 1)))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	m.FastForward(61 * time.Second)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusOK, w3.Code)
}
