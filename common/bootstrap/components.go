package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/fnhub/ingest/common/cache"
	"github.com/fnhub/ingest/common/config"
	"github.com/fnhub/ingest/common/db"
	"github.com/fnhub/ingest/common/logger"
	"github.com/fnhub/ingest/common/queue"
	rediscommon "github.com/fnhub/ingest/common/redis"
	"github.com/fnhub/ingest/common/telemetry"
)

// Components holds all initialized service dependencies
type Components struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.DB
	Redis     *rediscommon.Client
	Queue     queue.Queue
	Cache     cache.Cache
	Telemetry *telemetry.Telemetry

	cleanupFuncs []func() error
}

// Shutdown performs graceful shutdown of all components.
// Cleanups run in reverse registration order.
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errs []error
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			errs = append(errs, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}
	c.cleanupFuncs = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// Health checks health of all components
func (c *Components) Health(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Health(ctx); err != nil {
			return fmt.Errorf("database unhealthy: %w", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis unhealthy: %w", err)
		}
	}

	return nil
}

func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
