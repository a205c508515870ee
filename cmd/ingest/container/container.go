package container

import (
	"errors"
	"fmt"

	"github.com/fnhub/ingest/cmd/ingest/repository"
	"github.com/fnhub/ingest/cmd/ingest/service"
	"github.com/fnhub/ingest/common/bootstrap"
	"github.com/fnhub/ingest/common/cache"
	"github.com/fnhub/ingest/common/ratelimit"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	FunctionRepo      *repository.FunctionRepository
	DeployRequestRepo *repository.DeployRequestRepository
	ApplicationRepo   *repository.ApplicationRepository

	// Services
	Tokens          *service.TokenAuthenticator
	AuthorTokens    *service.AuthorTokens
	Gate            *service.AuthorizationGate
	AppResolver     *service.AppResolver
	FunctionService *service.FunctionService
	DeployService   *service.DeploymentService
	Ingestion       *service.IngestionService

	// RateLimiter is nil when Redis is unavailable or limiting is disabled
	RateLimiter  *ratelimit.RateLimiter
	DeployPolicy ratelimit.Policy
	ClientPolicy ratelimit.Policy
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	if components.DB == nil {
		return nil, errors.New("ingest requires a database")
	}

	cfg := components.Config
	log := components.Logger

	// Initialize repositories
	functionRepo := repository.NewFunctionRepository(components.DB)
	deployRequestRepo := repository.NewDeployRequestRepository(components.DB)
	applicationRepo := repository.NewApplicationRepository(components.DB)

	// Capabilities
	tokens, err := service.NewTokenAuthenticator(cfg.Auth.DeploySecret, cfg.Auth.DeployTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("deploy tokens: %w", err)
	}
	authorTokens, err := service.NewAuthorTokens(cfg.Auth.AuthorSecret, cfg.Auth.AuthorTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("author tokens: %w", err)
	}
	compiler, err := service.NewEsbuildCompiler(cfg.Build.Target)
	if err != nil {
		return nil, err
	}
	validator, err := service.NewPayloadValidator()
	if err != nil {
		return nil, fmt.Errorf("payload schemas: %w", err)
	}

	// Initialize services (bottom-up: dependencies first)
	var appCache cache.Cache
	if cfg.Cache.Enabled {
		appCache = components.Cache
	}
	appResolver := service.NewAppResolver(applicationRepo, appCache, cfg.Cache.DefaultTTL, log)
	gate := service.NewAuthorizationGate(service.DefaultPermissionCatalog(), applicationRepo, log)
	functionService := service.NewFunctionService(functionRepo, compiler, service.SHA256Digester{}, log)
	deployService := service.NewDeploymentService(deployRequestRepo, components.Queue, cfg.Queue.Stream, log)
	ingestion := service.NewIngestionService(tokens, gate, appResolver, validator, deployService, log)

	c := &Container{
		Components:        components,
		FunctionRepo:      functionRepo,
		DeployRequestRepo: deployRequestRepo,
		ApplicationRepo:   applicationRepo,
		Tokens:            tokens,
		AuthorTokens:      authorTokens,
		Gate:              gate,
		AppResolver:       appResolver,
		FunctionService:   functionService,
		DeployService:     deployService,
		Ingestion:         ingestion,
		DeployPolicy:      ratelimit.DeployPolicy(cfg.RateLimit),
		ClientPolicy:      ratelimit.ClientPolicy(cfg.RateLimit),
	}

	if cfg.RateLimit.Enabled && components.Redis != nil {
		c.RateLimiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
		ingestion.WithQuota(c.RateLimiter, c.DeployPolicy)
	}

	return c, nil
}
