package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fnhub/ingest/common/ratelimit"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	result *ratelimit.RateLimitResult
	err    error
	seen   []string
}

func (s *stubLimiter) CheckClientDeployLimit(ctx context.Context, clientIP string, policy ratelimit.Policy) (*ratelimit.RateLimitResult, error) {
	s.seen = append(s.seen, clientIP)
	return s.result, s.err
}

func serve(limiter ClientLimiter) *httptest.ResponseRecorder {
	e := echo.New()
	e.POST("/apps/:appid/deploy/incoming", func(c echo.Context) error {
		return c.String(http.StatusOK, "next")
	}, ClientDeployRateLimit(limiter, ratelimit.Policy{Limit: 1, WindowSeconds: 60}))

	req := httptest.NewRequest(http.MethodPost, "/apps/a1/deploy/incoming", nil)
	req.RemoteAddr = "203.0.113.7:5123"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestClientDeployRateLimit_Allowed(t *testing.T) {
	l := &stubLimiter{result: &ratelimit.RateLimitResult{Allowed: true}}
	rec := serve(l)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"203.0.113.7"}, l.seen)
}

func TestClientDeployRateLimit_Exceeded(t *testing.T) {
	l := &stubLimiter{result: &ratelimit.RateLimitResult{Allowed: false, Limit: 1, CurrentCount: 2, RetryAfterSeconds: 42}}
	rec := serve(l)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "client_rate_limit_exceeded")
	assert.NotContains(t, rec.Body.String(), "a1")
}

func TestClientDeployRateLimit_FailOpen(t *testing.T) {
	rec := serve(&stubLimiter{err: errors.New("redis down")})
	assert.Equal(t, http.StatusOK, rec.Code)
}
