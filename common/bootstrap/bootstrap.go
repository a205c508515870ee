package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fnhub/ingest/common/cache"
	"github.com/fnhub/ingest/common/config"
	"github.com/fnhub/ingest/common/db"
	"github.com/fnhub/ingest/common/logger"
	"github.com/fnhub/ingest/common/queue"
	rediscommon "github.com/fnhub/ingest/common/redis"
	"github.com/fnhub/ingest/common/telemetry"
	"github.com/redis/go-redis/v9"
)

// Setup initializes all service components.
// On error everything initialized so far is shut down again.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg := components.Config

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", cfg.Service.Environment,
	)

	fail := func(err error) (*Components, error) {
		_ = components.Shutdown(ctx)
		return nil, err
	}

	// 3. Telemetry first so startup spans are exported
	if !options.skipTelemetry {
		components.Telemetry = telemetry.New(cfg, components.Logger)
		if err := components.Telemetry.Start(ctx); err != nil {
			// Don't fail startup if telemetry fails
			components.Logger.Warn("failed to start telemetry", "error", err)
		} else {
			tel := components.Telemetry
			components.addCleanup(func() error {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return tel.Shutdown(shutdownCtx)
			})
		}
	}

	// 4. Database
	if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, cfg, components.Logger)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to database: %w", err))
		}

		components.addCleanup(func() error {
			components.DB.Close()
			return nil
		})

		if cfg.Database.AutoMigrate && !options.skipMigrate {
			if err := components.DB.Migrate(ctx); err != nil {
				return fail(fmt.Errorf("database migration failed: %w", err))
			}
		}

		if options.dbInitHook != nil {
			components.Logger.Info("running database init hook")
			if err := options.dbInitHook(components.DB); err != nil {
				return fail(fmt.Errorf("database init hook failed: %w", err))
			}
		}
	}

	// 5. Redis, shared by queue, cache and rate limiter
	if !options.skipRedis && needsRedis(cfg, options) {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		components.Redis = rediscommon.NewClient(rdb, components.Logger)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := components.Redis.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = rdb.Close()
			components.Redis = nil
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}

		components.addCleanup(func() error {
			return rdb.Close()
		})
		components.Logger.Info("redis connected", "addr", cfg.RedisAddr())
	}

	// 6. Queue
	if !options.skipQueue {
		components.Queue = newQueue(cfg, components.Redis, consumerName(options), components.Logger)
		components.addCleanup(func() error {
			return components.Queue.Close()
		})
	}

	// 7. Cache
	if !options.skipCache && cfg.Cache.Enabled {
		components.Cache = newCache(cfg, components.Redis, serviceName, components.Logger)
		components.addCleanup(func() error {
			return components.Cache.Close()
		})
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"redis", components.Redis != nil,
		"queue", components.Queue != nil,
		"cache", components.Cache != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}

func needsRedis(cfg *config.Config, o *options) bool {
	if cfg.RateLimit.Enabled {
		return true
	}
	if !o.skipQueue && cfg.Queue.Type == "redis" {
		return true
	}
	return !o.skipCache && cfg.Cache.Enabled && cfg.Cache.Backend == "redis"
}

func newQueue(cfg *config.Config, rc *rediscommon.Client, consumer string, log *logger.Logger) queue.Queue {
	if cfg.Queue.Type == "redis" && rc != nil {
		log.Info("initializing queue", "type", "redis", "stream", cfg.Queue.Stream)
		return queue.NewRedisStreamQueue(rc, cfg.Service.Name, consumer, cfg.Queue.MaxLen, log)
	}
	// in-process only: notifications reach subscribers of this process
	log.Info("initializing queue", "type", "memory", "notifications", "in-process")
	return queue.NewMemoryQueue(log)
}

func newCache(cfg *config.Config, rc *rediscommon.Client, serviceName string, log *logger.Logger) cache.Cache {
	if cfg.Cache.Backend == "redis" && rc != nil {
		log.Info("initializing cache", "backend", "redis", "ttl", cfg.Cache.DefaultTTL)
		return cache.NewRedisCache(rc, serviceName+":", log)
	}
	log.Info("initializing cache", "backend", "memory", "ttl", cfg.Cache.DefaultTTL)
	return cache.NewMemoryCache(log)
}

func consumerName(o *options) string {
	if o.consumerName != "" {
		return o.consumerName
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "consumer"
	}
	return host
}
