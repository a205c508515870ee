package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/container"
	"github.com/fnhub/ingest/cmd/ingest/routes"
	"github.com/fnhub/ingest/common/bootstrap"
	"github.com/fnhub/ingest/common/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const serviceName = "ingest"

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap %s: %v\n", serviceName, err)
		os.Exit(1)
	}

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		_ = components.Shutdown(ctx)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, components)
	registerRoutes(e, serviceContainer)

	srv := server.New(serviceName, components.Config.Service.Port, e, components.Logger)
	runErr := srv.Start()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := components.Shutdown(shutdownCtx); err != nil {
		components.Logger.Warn("shutdown finished with errors", "error", err)
	}

	if runErr != nil {
		components.Logger.Error("server error", "error", runErr)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": serviceName,
				"error":   err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterFunctionRoutes(e, serviceContainer)
	routes.RegisterDeployRoutes(e, serviceContainer)
}
