package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterQuota(t *testing.T) {
	l := NewLimiter(nil, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, store := l.Check(ctx, "user:u1")
		require.True(t, allowed, "request %d should be allowed", i+1)
		require.Equal(t, "memory", store)
	}

	allowed, retryAfter, _ := l.Check(ctx, "user:u1")
	require.False(t, allowed)
	require.GreaterOrEqual(t, retryAfter, 1)
	require.LessOrEqual(t, retryAfter, 60)
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	l := NewLimiter(nil, 1)
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	allowed, _, _ := l.Check(ctx, "ip:1.2.3.4")
	require.True(t, allowed)
	allowed, retryAfter, _ := l.Check(ctx, "ip:1.2.3.4")
	require.False(t, allowed)
	require.Equal(t, 60, retryAfter)

	// Mid-window the remaining time shrinks.
	now = now.Add(45 * time.Second)
	allowed, retryAfter, _ = l.Check(ctx, "ip:1.2.3.4")
	require.False(t, allowed)
	require.Equal(t, 15, retryAfter)

	// Past the window the counter starts over.
	now = now.Add(16 * time.Second)
	allowed, _, _ = l.Check(ctx, "ip:1.2.3.4")
	require.True(t, allowed)
}

func TestMemoryLimiterIsolatesIdentifiers(t *testing.T) {
	l := NewLimiter(nil, 1)
	ctx := context.Background()

	allowed, _, _ := l.Check(ctx, "user:a")
	require.True(t, allowed)
	allowed, _, _ = l.Check(ctx, "user:a")
	require.False(t, allowed)

	allowed, _, _ = l.Check(ctx, "user:b")
	require.True(t, allowed)
}

func TestRateLimitMiddlewareRejectsOverQuota(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(NewLimiter(nil, 2)))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/r", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, retryAfter, 1)
	require.Contains(t, w.Body.String(), "retry_after")
}

func TestRateLimitMiddlewareExemptPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(NewLimiter(nil, 1)))
	for _, p := range []string{"/health", "/ready", "/metrics"} {
		path := p
		r.GET(path, func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	}
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// Exempt paths never count against the quota.
	for i := 0; i < 5; i++ {
		for _, p := range []string{"/health", "/ready", "/metrics"} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", p, nil))
			require.Equal(t, http.StatusOK, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
