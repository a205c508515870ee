package bootstrap

import (
	"github.com/fnhub/ingest/common/config"
	"github.com/fnhub/ingest/common/db"
	"github.com/fnhub/ingest/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB        bool
	skipRedis     bool
	skipQueue     bool
	skipCache     bool
	skipTelemetry bool
	skipMigrate   bool
	consumerName  string
	customLogger  *logger.Logger
	customConfig  *config.Config
	dbInitHook    func(*db.DB) error
}

// WithoutDB skips database initialization
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutRedis skips the Redis connection. Redis-backed queue and cache
// fall back to their in-memory variants.
func WithoutRedis() Option {
	return func(o *options) {
		o.skipRedis = true
	}
}

// WithoutQueue skips queue initialization
func WithoutQueue() Option {
	return func(o *options) {
		o.skipQueue = true
	}
}

// WithoutCache skips cache initialization
func WithoutCache() Option {
	return func(o *options) {
		o.skipCache = true
	}
}

// WithoutTelemetry skips telemetry initialization
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithoutMigrations skips automatic migrations even when configured
func WithoutMigrations() Option {
	return func(o *options) {
		o.skipMigrate = true
	}
}

// WithConsumerName sets the stream consumer name used by queue subscribers
func WithConsumerName(name string) Option {
	return func(o *options) {
		o.consumerName = name
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithDBInitHook runs a custom function after DB initialization and migrations
func WithDBInitHook(hook func(*db.DB) error) Option {
	return func(o *options) {
		o.dbInitHook = hook
	}
}

func defaultOptions() *options {
	return &options{}
}
