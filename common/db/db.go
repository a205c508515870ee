package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fnhub/ingest/common/config"
	"github.com/fnhub/ingest/common/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool used by repositories.
// *DB satisfies it, and so does pgxmock in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps pgxpool with common operations
type DB struct {
	*pgxpool.Pool
	log *logger.Logger
}

// New creates a new database connection pool
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected", "host", cfg.Database.Host, "db", cfg.Database.Database)

	return &DB{
		Pool: pool,
		log:  log,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.log.Info("closing database connection pool")
	db.Pool.Close()
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.Pool.Ping(ctx)
}

// uniqueViolation is SQLSTATE unique_violation
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint failure
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
