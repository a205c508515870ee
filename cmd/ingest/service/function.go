package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/logger"
	"github.com/google/uuid"
)

// FunctionStore persists function records
type FunctionStore interface {
	CountByName(ctx context.Context, appID, name string) (int64, error)
	Insert(ctx context.Context, fn *models.FunctionRecord) error
}

// FunctionService validates, compiles and stores new functions
type FunctionService struct {
	store    FunctionStore
	compiler Compiler
	digester Digester
	log      *logger.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewFunctionService creates a new function service
func NewFunctionService(store FunctionStore, compiler Compiler, digester Digester, log *logger.Logger) *FunctionService {
	return &FunctionService{
		store:    store,
		compiler: compiler,
		digester: digester,
		log:      log,
		now:      time.Now,
		newID:    uuid.New,
	}
}

// CreateFunction builds and stores a function named req.Name in appID.
// The record is inserted at most once, and only after it compiled.
func (s *FunctionService) CreateFunction(ctx context.Context, appID, authorID string, req models.CreateFunctionRequest) (*models.FunctionRecord, error) {
	if req.Name == "" {
		return nil, models.ErrNameEmpty
	}
	if req.Code == "" {
		return nil, models.ErrCodeEmpty
	}

	total, err := s.store.CountByName(ctx, appID, req.Name)
	if err != nil {
		return nil, models.InfrastructureError(err)
	}
	if total > 0 {
		return nil, models.ErrFunctionExists
	}

	compiled, err := s.compiler.Compile(req.Name, req.Code)
	if err != nil {
		var be *models.BuildError
		if errors.As(err, &be) {
			s.log.Warn("function build failed", "appid", appID, "name", req.Name, "error", be.Error())
			return nil, models.BuildFailure(be)
		}
		return nil, models.InfrastructureError(err)
	}

	now := s.now()
	fn := &models.FunctionRecord{
		ID:           s.newID(),
		AppID:        appID,
		Name:         req.Name,
		Code:         req.Code,
		CompiledCode: compiled,
		Description:  req.Description,
		Tags:         []string{},
		Triggers:     []json.RawMessage{},
		Label:        models.DefaultFunctionLabel,
		Hash:         s.digester.Digest([]byte(req.Code)),
		CreatedBy:    authorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.EnableHTTP != nil {
		fn.EnableHTTP = *req.EnableHTTP
	}
	if req.Status != nil {
		fn.Status = *req.Status
	}
	if req.Tags != nil {
		fn.Tags = req.Tags
	}
	if req.Label != nil {
		fn.Label = *req.Label
	}

	if err := s.store.Insert(ctx, fn); err != nil {
		if errors.Is(err, models.ErrFunctionExists) {
			// lost the race against a concurrent create of the same name
			return nil, models.ErrFunctionExists
		}
		return nil, models.InfrastructureError(err)
	}

	s.log.Info("function created", "appid", appID, "name", fn.Name, "id", fn.ID, "hash", fn.Hash)
	return fn, nil
}
