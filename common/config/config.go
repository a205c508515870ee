package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Build     BuildConfig
	Queue     QueueConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds token secrets.
// DeploySecret signs tokens presented by remote environments, AuthorSecret
// signs the bearer tokens of local authors.
type AuthConfig struct {
	DeploySecret   string
	AuthorSecret   string
	DeployTokenTTL time.Duration
	AuthorTokenTTL time.Duration
}

// BuildConfig holds function compiler settings
type BuildConfig struct {
	Target string // es2017, es2020, ...
}

// QueueConfig holds deploy request notification settings. With "memory"
// notifications never leave the process, so external watchers see nothing.
type QueueConfig struct {
	Type   string // "memory" or "redis"
	Stream string
	MaxLen int64
}

// CacheConfig holds application lookup cache settings
type CacheConfig struct {
	Enabled    bool
	Backend    string // "memory" or "redis"
	DefaultTTL time.Duration
}

// RateLimitConfig holds limits for incoming deploys. DeployLimit counts
// authorized deploys per application, ClientLimit counts every attempt per
// client address before the token is checked.
type RateLimitConfig struct {
	Enabled       bool
	DeployLimit   int64
	ClientLimit   int64
	WindowSeconds int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof  bool
	PprofPort    int
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func Load(serviceName string) (*Config, error) {
	// Missing .env is fine, real deployments use the environment.
	_ = godotenv.Load()

	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "ingest"),
			User:        getEnv("POSTGRES_USER", "ingest"),
			Password:    getEnv("POSTGRES_PASSWORD", "ingest"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
			AutoMigrate: getEnvBool("POSTGRES_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			DeploySecret:   getEnv("DEPLOY_TOKEN_SECRET", ""),
			AuthorSecret:   getEnv("AUTHOR_TOKEN_SECRET", ""),
			DeployTokenTTL: getEnvDuration("DEPLOY_TOKEN_TTL", 24*time.Hour),
			AuthorTokenTTL: getEnvDuration("AUTHOR_TOKEN_TTL", 7*24*time.Hour),
		},
		Build: BuildConfig{
			Target: strings.ToLower(getEnv("BUILD_TARGET", "es2017")),
		},
		Queue: QueueConfig{
			Type:   getEnv("QUEUE_TYPE", "redis"),
			Stream: getEnv("QUEUE_STREAM", "deploy_requests"),
			MaxLen: int64(getEnvInt("QUEUE_STREAM_MAXLEN", 10000)),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			Backend:    getEnv("CACHE_BACKEND", "redis"),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			DeployLimit:   int64(getEnvInt("RATE_LIMIT_DEPLOY", 60)),
			ClientLimit:   int64(getEnvInt("RATE_LIMIT_DEPLOY_CLIENT", 300)),
			WindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:  getEnvBool("ENABLE_PPROF", false),
			PprofPort:    getEnvInt("PPROF_PORT", 6060),
			OTLPEndpoint: trimScheme(getEnv("OTLP_ENDPOINT", "")),
			OTLPInsecure: getEnvBool("OTLP_INSECURE", true),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Auth.DeploySecret == "" {
		return fmt.Errorf("DEPLOY_TOKEN_SECRET is required")
	}

	if c.Auth.AuthorSecret == "" {
		return fmt.Errorf("AUTHOR_TOKEN_SECRET is required")
	}

	switch c.Queue.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown queue type: %s", c.Queue.Type)
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if c.RateLimit.Enabled && (c.RateLimit.DeployLimit <= 0 || c.RateLimit.ClientLimit <= 0 || c.RateLimit.WindowSeconds <= 0) {
		return fmt.Errorf("rate limit and window must be positive")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// trimScheme strips http(s):// since the OTLP exporter takes a bare host:port
func trimScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}
