package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// withSubject isolates each test under its own limiter key, so the global
// limiter store does not leak state between tests.
func withSubject(sub string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &Claims{Subject: sub}
		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(ContextWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func limitedRouter(sub string, rps float64, burst int) *gin.Engine {
	r := gin.New()
	r.Use(withSubject(sub), RateLimitMiddleware(rps, burst))
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func hit(r *gin.Engine) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := limitedRouter("under-limit", 10, 2)
	require.Equal(t, http.StatusOK, hit(r))
	require.Equal(t, http.StatusOK, hit(r))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := limitedRouter("exceeded", 0.5, 1)

	require.Equal(t, http.StatusOK, hit(r))
	require.Equal(t, http.StatusTooManyRequests, hit(r))

	// half a request per second: one token back after two seconds
	time.Sleep(2100 * time.Millisecond)
	require.Equal(t, http.StatusOK, hit(r))
}

func TestRateLimitMiddleware_KeysBySubject(t *testing.T) {
	a := limitedRouter("tenant-a", 0.001, 1)
	b := limitedRouter("tenant-b", 0.001, 1)

	require.Equal(t, http.StatusOK, hit(a))
	require.Equal(t, http.StatusTooManyRequests, hit(a))
	require.Equal(t, http.StatusOK, hit(b), "a saturated subject does not affect others")
}

func TestLimitKeyFallsBackToIP(t *testing.T) {
	r := gin.New()
	var key string
	r.Use(func(c *gin.Context) { key = limitKey(c); c.Next() })
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:4242"
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ip:198.51.100.7", key)
}
