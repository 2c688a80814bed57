package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cppla/aiblog/policy"
)

func TestRateLimiterPerClient(t *testing.T) {
	l := NewRateLimiter(4) // burst 2, one token every 15s
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(15 * time.Second)
	assert.True(t, l.Allow("a"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	l := NewRateLimiter(2)
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(limiterIdle + time.Second)
	l.Allow("b")
	assert.NotContains(t, l.clients, "a")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(1)))
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAuthRequiredRejectsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(nil), AuthRequired())
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallerFromDefaultsToAnonymous(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, CallerFrom(ctx).Authenticated)

	ctx.Set(ContextCallerKey, policy.Caller{UserID: 3, Authenticated: true})
	assert.Equal(t, uint(3), CallerFrom(ctx).UserID)
}
