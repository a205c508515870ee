package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseUp is a seam for tests
var gooseUp = func(ctx context.Context, sqlDB *sql.DB, dir string) error {
	return goose.UpContext(ctx, sqlDB, dir)
}

// Migrate applies the embedded schema migrations through a database/sql
// handle borrowed from the pool.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	if err := RunMigrations(ctx, sqlDB); err != nil {
		return err
	}

	db.log.Info("database migrations applied")
	return nil
}

// RunMigrations runs the embedded migrations against sqlDB
func RunMigrations(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := gooseUp(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
