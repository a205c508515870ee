package service

import (
	"context"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/logger"
	"github.com/fnhub/ingest/common/ratelimit"
	"github.com/fnhub/ingest/common/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Authenticator verifies deploy tokens
type Authenticator interface {
	Authenticate(token string) (*models.DeployClaims, error)
}

// DeployGate decides which requested kinds a token may deploy
type DeployGate interface {
	AuthorizeDeploy(claims *models.DeployClaims, pathAppID string, requested models.KindSet) (models.KindSet, error)
}

// Resolver loads applications; nil means unknown
type Resolver interface {
	Resolve(ctx context.Context, appID string) (*models.Application, error)
}

// Validator checks payload shape
type Validator interface {
	Validate(p models.DeploymentPayload) error
}

// Enqueuer stores one pending request
type Enqueuer interface {
	Enqueue(ctx context.Context, appID, source, comment string, payload models.DeploymentPayload) (uuid.UUID, error)
}

// DeployQuota counts authorized deploys per application
type DeployQuota interface {
	CheckAppDeployLimit(ctx context.Context, appID string, policy ratelimit.Policy) (*ratelimit.RateLimitResult, error)
}

// Acceptance lists the requests created for one incoming deployment
type Acceptance struct {
	AppID    string
	Requests []uuid.UUID
	Kinds    models.KindSet
}

// IngestionService runs the incoming-deployment pipeline
type IngestionService struct {
	auth      Authenticator
	gate      DeployGate
	apps      Resolver
	validator Validator
	queue     Enqueuer
	quota     DeployQuota
	policy    ratelimit.Policy
	tracer    trace.Tracer
	log       *logger.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	auth Authenticator,
	gate DeployGate,
	apps Resolver,
	validator Validator,
	queue Enqueuer,
	log *logger.Logger,
) *IngestionService {
	return &IngestionService{
		auth:      auth,
		gate:      gate,
		apps:      apps,
		validator: validator,
		queue:     queue,
		tracer:    telemetry.Tracer("ingest"),
		log:       log,
	}
}

// WithQuota charges every authorized deployment against q. A nil q turns
// the per-application limit off.
func (s *IngestionService) WithQuota(q DeployQuota, policy ratelimit.Policy) *IngestionService {
	s.quota = q
	s.policy = policy
	return s
}

// AcceptDeployment authenticates req, narrows it to the token scopes and
// queues one pending request per allowed kind, policies first. A failed
// enqueue aborts the remaining kinds; requests already stored are kept.
func (s *IngestionService) AcceptDeployment(ctx context.Context, appID string, req models.IncomingDeployRequest) (acc *Acceptance, err error) {
	ctx, span := s.tracer.Start(ctx, "ingest.accept_deployment",
		trace.WithAttributes(attribute.String("appid", appID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.WithContext(ctx).Warn("deployment rejected",
				"appid", appID, "kind", models.KindOf(err).String(), "error", err)
		}
		span.End()
	}()

	requested := req.RequestedKinds()
	if len(requested) == 0 {
		return nil, models.ErrNoPayload
	}

	claims, err := s.auth.Authenticate(req.DeployToken)
	if err != nil {
		return nil, err
	}

	allowed, err := s.gate.AuthorizeDeploy(claims, appID, requested)
	if err != nil {
		return nil, err
	}

	if err := s.chargeQuota(ctx, appID); err != nil {
		return nil, err
	}

	app, err := s.apps.Resolve(ctx, appID)
	if err != nil {
		return nil, models.InfrastructureError(err)
	}
	if app == nil {
		return nil, models.ErrAppNotFound
	}

	payloads := make([]models.DeploymentPayload, 0, len(allowed))
	for _, k := range allowed {
		p := req.Payload(k)
		if err := s.validator.Validate(p); err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}

	acc = &Acceptance{AppID: appID, Kinds: allowed}
	for _, p := range payloads {
		id, err := s.queue.Enqueue(ctx, appID, claims.Source, req.Comment, p)
		if err != nil {
			return nil, models.InfrastructureError(err)
		}
		acc.Requests = append(acc.Requests, id)
	}

	span.SetAttributes(attribute.Int("requests", len(acc.Requests)))
	s.log.Info("deployment accepted", "appid", appID, "source", claims.Source,
		"requested", len(requested), "queued", len(acc.Requests))
	return acc, nil
}

// chargeQuota counts one deploy for appID. Only callers that passed the
// token checks reach it. Limiter failures let the deploy through.
func (s *IngestionService) chargeQuota(ctx context.Context, appID string) error {
	if s.quota == nil {
		return nil
	}

	res, err := s.quota.CheckAppDeployLimit(ctx, appID, s.policy)
	if err != nil {
		s.log.WithContext(ctx).Warn("deploy quota unavailable, allowing", "appid", appID, "error", err)
		return nil
	}
	if res.Allowed {
		return nil
	}

	return models.RateLimited(&models.RateLimitError{
		AppID:             appID,
		Limit:             res.Limit,
		WindowSeconds:     s.policy.WindowSeconds,
		RetryAfterSeconds: res.RetryAfterSeconds,
	})
}
