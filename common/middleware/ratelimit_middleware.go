package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fnhub/ingest/common/ratelimit"
	"github.com/labstack/echo/v4"
)

// ClientLimiter counts deploy attempts per client address
type ClientLimiter interface {
	CheckClientDeployLimit(ctx context.Context, clientIP string, policy ratelimit.Policy) (*ratelimit.RateLimitResult, error)
}

// ClientDeployRateLimit limits deploy attempts per client address. It runs
// before the deploy token is checked, so it never touches the
// per-application quota. Limiter errors let the request through.
func ClientDeployRateLimit(limiter ClientLimiter, policy ratelimit.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				return next(c)
			}

			result, err := limiter.CheckClientDeployLimit(c.Request().Context(), ip, policy)
			if err != nil {
				// fail open
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "client_rate_limit_exceeded",
					"message": "Too many deploy attempts from this address. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window_seconds":      policy.WindowSeconds,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
