package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func sampleFunction() *models.FunctionRecord {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &models.FunctionRecord{
		ID:           uuid.New(),
		AppID:        "t1",
		Name:         "f1",
		Code:         "export default () => 1",
		CompiledCode: "module.exports = 1",
		Tags:         []string{},
		Triggers:     []json.RawMessage{},
		Label:        models.DefaultFunctionLabel,
		Hash:         "abc",
		CreatedBy:    "u1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestFunctionRepository_CountByName(t *testing.T) {
	mock := newMock(t)
	repo := NewFunctionRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM functions`).
		WithArgs("t1", "f1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	total, err := repo.CountByName(context.Background(), "t1", "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestFunctionRepository_Insert(t *testing.T) {
	mock := newMock(t)
	repo := NewFunctionRepository(mock)
	fn := sampleFunction()

	mock.ExpectExec(`INSERT INTO functions`).
		WithArgs(fn.ID, "t1", "f1", fn.Code, fn.CompiledCode, fn.Description, false, 0,
			fn.Tags, "[]", models.DefaultFunctionLabel, 0, "abc", "u1", fn.CreatedAt, fn.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Insert(context.Background(), fn))
}

func TestFunctionRepository_Insert_UniqueViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewFunctionRepository(mock)

	mock.ExpectExec(`INSERT INTO functions`).
		WithArgs(anyArgs(16)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_functions_appid_name"})

	err := repo.Insert(context.Background(), sampleFunction())
	assert.ErrorIs(t, err, models.ErrFunctionExists)
}

func TestFunctionRepository_Insert_Error(t *testing.T) {
	mock := newMock(t)
	repo := NewFunctionRepository(mock)

	mock.ExpectExec(`INSERT INTO functions`).
		WithArgs(anyArgs(16)...).
		WillReturnError(errors.New("conn reset"))

	err := repo.Insert(context.Background(), sampleFunction())
	assert.ErrorContains(t, err, "failed to insert function: conn reset")
	assert.NotErrorIs(t, err, models.ErrFunctionExists)
}

func TestDeployRequestRepository_Insert(t *testing.T) {
	mock := newMock(t)
	repo := NewDeployRequestRepository(mock)

	req := &models.DeployRequest{
		ID:        uuid.New(),
		AppID:     "a1",
		Source:    "env-1",
		Status:    models.StatusPending,
		Type:      models.PolicyKind,
		Data:      json.RawMessage(`{"p":1}`),
		Comment:   "sync",
		CreatedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO deploy_requests`).
		WithArgs(req.ID, "a1", "env-1", "pending", "policy", `{"p":1}`, nil, "sync", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Insert(context.Background(), req))
}

func TestDeployRequestRepository_InsertWithTriggers(t *testing.T) {
	mock := newMock(t)
	repo := NewDeployRequestRepository(mock)

	req := &models.DeployRequest{
		ID:        uuid.New(),
		AppID:     "a1",
		Status:    models.StatusPending,
		Type:      models.FunctionKind,
		Data:      json.RawMessage(`[{"name":"f"}]`),
		Triggers:  json.RawMessage(`[{"event":"e"}]`),
		CreatedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO deploy_requests`).
		WithArgs(req.ID, "a1", "", "pending", "function", `[{"name":"f"}]`, `[{"event":"e"}]`, "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Insert(context.Background(), req))
}

func TestDeployRequestRepository_ListByStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewDeployRequestRepository(mock)

	id := uuid.New()
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "appid", "source", "status", "type", "data", "triggers", "comment", "created_at"}).
		AddRow(id, "a1", "env-1", "pending", "function", []byte(`[{"name":"f"}]`), []byte(nil), "c", now)

	mock.ExpectQuery(`SELECT (.+) FROM deploy_requests`).
		WithArgs("a1", "pending", 10).
		WillReturnRows(rows)

	got, err := repo.ListByStatus(context.Background(), "a1", models.StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, models.FunctionKind, got[0].Type)
	assert.Equal(t, models.StatusPending, got[0].Status)
	assert.JSONEq(t, `[{"name":"f"}]`, string(got[0].Data))
	assert.Nil(t, got[0].Triggers)
}

func TestApplicationRepository_GetByAppID(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows([]string{"appid", "name", "created_by", "created_at"}).
			AddRow("a1", "demo", "u1", now))

	app, err := repo.GetByAppID(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "demo", app.Name)
	assert.Equal(t, "u1", app.CreatedBy)
}

func TestApplicationRepository_GetByAppID_Missing(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)

	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	app, err := repo.GetByAppID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestApplicationRepository_CollaboratorRoles(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)

	mock.ExpectQuery(`SELECT roles FROM app_collaborators`).
		WithArgs("a1", "u2").
		WillReturnRows(pgxmock.NewRows([]string{"roles"}).AddRow([]string{"app.developer"}))
	mock.ExpectQuery(`SELECT roles FROM app_collaborators`).
		WithArgs("a1", "u3").
		WillReturnError(pgx.ErrNoRows)

	roles, err := repo.CollaboratorRoles(context.Background(), "a1", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"app.developer"}, roles)

	roles, err = repo.CollaboratorRoles(context.Background(), "a1", "u3")
	require.NoError(t, err)
	assert.Nil(t, roles)
}

func TestApplicationRepository_CreateAndGrant(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs("a1", "demo", "u1", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO app_collaborators`).
		WithArgs("a1", "u2", []string{"app.developer"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(anyArgs(4)...).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Application{AppID: "a1", Name: "demo", CreatedBy: "u1", CreatedAt: now}))
	require.NoError(t, repo.UpsertCollaborator(ctx, &models.Collaborator{AppID: "a1", UserID: "u2", Roles: []string{"app.developer"}}))

	err := repo.Create(ctx, &models.Application{AppID: "a1", Name: "demo", CreatedBy: "u1", CreatedAt: now})
	assert.ErrorContains(t, err, "already exists")
}
