package routes

import (
	"github.com/fnhub/ingest/cmd/ingest/container"
	"github.com/fnhub/ingest/cmd/ingest/handlers"
	commonmw "github.com/fnhub/ingest/common/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterDeployRoutes registers the remote deploy routes. The app is
// resolved and its quota charged inside the pipeline, after the token
// checks. Only the per-client limit runs in front.
func RegisterDeployRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewDeployHandler(c.Ingestion, c.Components.Logger)

	var mws []echo.MiddlewareFunc
	if c.RateLimiter != nil {
		mws = append(mws, commonmw.ClientDeployRateLimit(c.RateLimiter, c.ClientPolicy))
	}

	e.POST("/apps/:appid/deploy/incoming", h.Incoming, mws...)
}
