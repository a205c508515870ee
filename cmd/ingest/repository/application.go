package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/db"
	"github.com/jackc/pgx/v5"
)

// ApplicationRepository reads tenants and their collaborators
type ApplicationRepository struct {
	db db.Querier
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(q db.Querier) *ApplicationRepository {
	return &ApplicationRepository{db: q}
}

// GetByAppID returns the application or nil when it does not exist
func (r *ApplicationRepository) GetByAppID(ctx context.Context, appID string) (*models.Application, error) {
	query := `
		SELECT appid, name, created_by, created_at
		FROM applications
		WHERE appid = $1
	`

	app := &models.Application{}
	err := r.db.QueryRow(ctx, query, appID).Scan(
		&app.AppID,
		&app.Name,
		&app.CreatedBy,
		&app.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

// CollaboratorRoles returns the roles userID holds on appID, nil if none
func (r *ApplicationRepository) CollaboratorRoles(ctx context.Context, appID, userID string) ([]string, error) {
	query := `SELECT roles FROM app_collaborators WHERE appid = $1 AND user_id = $2`

	var roles []string
	err := r.db.QueryRow(ctx, query, appID, userID).Scan(&roles)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborator roles: %w", err)
	}

	return roles, nil
}

// Create inserts a new application
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (appid, name, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query, app.AppID, app.Name, app.CreatedBy, app.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("application %s already exists", app.AppID)
	}
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// UpsertCollaborator sets the roles of userID on appID
func (r *ApplicationRepository) UpsertCollaborator(ctx context.Context, c *models.Collaborator) error {
	query := `
		INSERT INTO app_collaborators (appid, user_id, roles)
		VALUES ($1, $2, $3)
		ON CONFLICT (appid, user_id) DO UPDATE SET roles = EXCLUDED.roles
	`

	if _, err := r.db.Exec(ctx, query, c.AppID, c.UserID, c.Roles); err != nil {
		return fmt.Errorf("failed to upsert collaborator: %w", err)
	}

	return nil
}
