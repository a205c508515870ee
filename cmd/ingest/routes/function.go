package routes

import (
	"github.com/fnhub/ingest/cmd/ingest/container"
	"github.com/fnhub/ingest/cmd/ingest/handlers"
	"github.com/fnhub/ingest/cmd/ingest/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterFunctionRoutes registers function authoring routes
func RegisterFunctionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewFunctionHandler(c.Gate, c.FunctionService, c.Components.Logger)

	apps := e.Group("/apps/:appid",
		middleware.ExtractAuthor(c.AuthorTokens),
		middleware.ParseApp(c.AppResolver),
	)
	{
		apps.POST("/functions", h.CreateFunction) // POST /apps/a1/functions
	}
}
