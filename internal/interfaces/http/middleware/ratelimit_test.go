package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 2; i >= 0; i-- {
			ok, remaining := limiter.Allow("client1")
			assert.True(t, ok)
			assert.Equal(t, i, remaining)
		}
		ok, _ := limiter.Allow("client1")
		assert.False(t, ok)
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)

		ok, _ := limiter.Allow("clientA")
		assert.True(t, ok)
		ok, _ = limiter.Allow("clientA")
		assert.False(t, ok)
		ok, _ = limiter.Allow("clientB")
		assert.True(t, ok)
	})

	t.Run("resets after window", func(t *testing.T) {
		clock := &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
		limiter := NewRateLimiter(1, time.Minute)
		limiter.now = clock.now

		ok, _ := limiter.Allow("client3")
		assert.True(t, ok)
		ok, _ = limiter.Allow("client3")
		assert.False(t, ok)

		clock.t = clock.t.Add(time.Minute)
		ok, _ = limiter.Allow("client3")
		assert.True(t, ok)
	})

	t.Run("evicts idle clients", func(t *testing.T) {
		clock := &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
		limiter := NewRateLimiter(1, time.Minute)
		limiter.now = clock.now

		limiter.Allow("idle")
		clock.t = clock.t.Add(3 * time.Minute)
		limiter.evict()

		assert.Empty(t, limiter.clients)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RateLimit(NewRateLimiter(2, time.Minute)))
	router.GET("/test", okHandler)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestClientKey(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"

	assert.Equal(t, "ip:10.0.0.1", ClientKey(c))

	c.Set(JWTAccountIDKey, "acct-1")
	assert.Equal(t, "account:acct-1", ClientKey(c))
}
