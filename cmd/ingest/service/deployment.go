package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/logger"
	"github.com/fnhub/ingest/common/queue"
	"github.com/google/uuid"
)

// DeployRequestStore persists deployment requests
type DeployRequestStore interface {
	Insert(ctx context.Context, req *models.DeployRequest) error
}

// DeploymentService records deployment payloads as pending work items
type DeploymentService struct {
	store DeployRequestStore
	queue queue.Queue
	topic string
	log   *logger.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewDeploymentService creates a deployment service. q may be nil, in
// which case no notifications are published.
func NewDeploymentService(store DeployRequestStore, q queue.Queue, topic string, log *logger.Logger) *DeploymentService {
	return &DeploymentService{
		store: store,
		queue: q,
		topic: topic,
		log:   log,
		now:   time.Now,
		newID: uuid.New,
	}
}

// Enqueue stores one pending request for payload. It never reads or
// dedupes existing requests.
func (s *DeploymentService) Enqueue(ctx context.Context, appID, source, comment string, payload models.DeploymentPayload) (uuid.UUID, error) {
	req := &models.DeployRequest{
		ID:        s.newID(),
		AppID:     appID,
		Source:    source,
		Status:    models.StatusPending,
		Type:      payload.Kind(),
		Comment:   comment,
		CreatedAt: s.now(),
	}
	switch p := payload.(type) {
	case models.PolicyBatch:
		req.Data = p.Data
	case models.FunctionBatch:
		req.Data = p.Data
		req.Triggers = p.Triggers
	}

	if err := s.store.Insert(ctx, req); err != nil {
		return uuid.Nil, err
	}

	s.log.Info("deploy request queued", "appid", appID, "id", req.ID, "type", req.Type, "source", source)
	s.notify(ctx, req)
	return req.ID, nil
}

// notify is best effort; the row is already durable
func (s *DeploymentService) notify(ctx context.Context, req *models.DeployRequest) {
	if s.queue == nil {
		return
	}

	msg, err := json.Marshal(models.DeployRequestCreated{
		Event:     models.EventDeployRequestCreated,
		ID:        req.ID,
		AppID:     req.AppID,
		Type:      req.Type,
		Source:    req.Source,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		s.log.Warn("failed to encode deploy notification", "id", req.ID, "error", err)
		return
	}

	if err := s.queue.Publish(ctx, s.topic, req.AppID, msg); err != nil {
		s.log.Warn("failed to publish deploy notification", "id", req.ID, "topic", s.topic, "error", err)
	}
}
