package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/db"
)

// FunctionRepository handles database operations for functions
type FunctionRepository struct {
	db db.Querier
}

// NewFunctionRepository creates a new function repository
func NewFunctionRepository(q db.Querier) *FunctionRepository {
	return &FunctionRepository{db: q}
}

// CountByName counts functions named name in appID
func (r *FunctionRepository) CountByName(ctx context.Context, appID, name string) (int64, error) {
	query := `SELECT COUNT(*) FROM functions WHERE appid = $1 AND name = $2`

	var total int64
	if err := r.db.QueryRow(ctx, query, appID, name).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count functions: %w", err)
	}
	return total, nil
}

// Insert stores a new function. A concurrent insert of the same
// (appid, name) surfaces as models.ErrFunctionExists.
func (r *FunctionRepository) Insert(ctx context.Context, fn *models.FunctionRecord) error {
	query := `
		INSERT INTO functions (
			id, appid, name, code, compiled_code, description, enable_http, status,
			tags, triggers, label, version, hash, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	triggers, err := json.Marshal(fn.Triggers)
	if err != nil {
		return fmt.Errorf("failed to encode triggers: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		fn.ID,
		fn.AppID,
		fn.Name,
		fn.Code,
		fn.CompiledCode,
		fn.Description,
		fn.EnableHTTP,
		fn.Status,
		fn.Tags,
		string(triggers),
		fn.Label,
		fn.Version,
		fn.Hash,
		fn.CreatedBy,
		fn.CreatedAt,
		fn.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return models.ErrFunctionExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert function: %w", err)
	}

	return nil
}
