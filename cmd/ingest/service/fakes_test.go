package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/google/uuid"
)

type fakeFunctionStore struct {
	count     int64
	countErr  error
	insertErr error

	countCalls int
	inserted   []*models.FunctionRecord
}

func (f *fakeFunctionStore) CountByName(ctx context.Context, appID, name string) (int64, error) {
	f.countCalls++
	return f.count, f.countErr
}

func (f *fakeFunctionStore) Insert(ctx context.Context, fn *models.FunctionRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, fn)
	return nil
}

type fakeCompiler struct {
	out   string
	err   error
	calls int
}

func (c *fakeCompiler) Compile(name, source string) (string, error) {
	c.calls++
	return c.out, c.err
}

type fakeDeployStore struct {
	mu       sync.Mutex
	failOn   int // 1-based insert to fail, 0 never
	calls    int
	inserted []*models.DeployRequest
}

func (s *fakeDeployStore) Insert(ctx context.Context, req *models.DeployRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn == s.calls {
		return errors.New("connection refused")
	}
	s.inserted = append(s.inserted, req)
	return nil
}

type fakeAppStore struct {
	apps  map[string]*models.Application
	err   error
	calls int
}

func (s *fakeAppStore) GetByAppID(ctx context.Context, appID string) (*models.Application, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.apps[appID], nil
}

type fakeCollaborators struct {
	roles map[string][]string
	err   error
}

func (c *fakeCollaborators) CollaboratorRoles(ctx context.Context, appID, userID string) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.roles[userID], nil
}

type recordingEnqueuer struct {
	kinds []models.DeployKind
}

func (e *recordingEnqueuer) Enqueue(ctx context.Context, appID, source, comment string, p models.DeploymentPayload) (uuid.UUID, error) {
	e.kinds = append(e.kinds, p.Kind())
	return uuid.New(), nil
}
