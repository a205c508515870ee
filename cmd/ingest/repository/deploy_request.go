package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/db"
)

// DeployRequestRepository handles database operations for deploy requests.
// Rows are append-only from the ingestion side.
type DeployRequestRepository struct {
	db db.Querier
}

// NewDeployRequestRepository creates a new deploy request repository
func NewDeployRequestRepository(q db.Querier) *DeployRequestRepository {
	return &DeployRequestRepository{db: q}
}

// Insert appends a deploy request
func (r *DeployRequestRepository) Insert(ctx context.Context, req *models.DeployRequest) error {
	query := `
		INSERT INTO deploy_requests (id, appid, source, status, type, data, triggers, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.AppID,
		req.Source,
		string(req.Status),
		string(req.Type),
		string(req.Data),
		nullableJSON(req.Triggers),
		req.Comment,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deploy request: %w", err)
	}

	return nil
}

// ListByStatus returns the newest requests of appID in status, up to limit
func (r *DeployRequestRepository) ListByStatus(ctx context.Context, appID string, status models.DeployStatus, limit int) ([]*models.DeployRequest, error) {
	query := `
		SELECT id, appid, source, status, type, data, triggers, comment, created_at
		FROM deploy_requests
		WHERE appid = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, appID, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deploy requests: %w", err)
	}
	defer rows.Close()

	var out []*models.DeployRequest
	for rows.Next() {
		var (
			req            models.DeployRequest
			status, kind   string
			data, triggers []byte
		)
		if err := rows.Scan(
			&req.ID,
			&req.AppID,
			&req.Source,
			&status,
			&kind,
			&data,
			&triggers,
			&req.Comment,
			&req.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deploy request: %w", err)
		}
		req.Status = models.DeployStatus(status)
		req.Type = models.DeployKind(kind)
		req.Data = json.RawMessage(data)
		if len(triggers) > 0 {
			req.Triggers = json.RawMessage(triggers)
		}
		out = append(out, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deploy requests: %w", err)
	}

	return out, nil
}

// nullableJSON maps an empty payload to SQL NULL
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
