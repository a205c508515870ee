package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/cache"
	"github.com/fnhub/ingest/common/logger"
)

// ApplicationStore loads applications by id
type ApplicationStore interface {
	GetByAppID(ctx context.Context, appID string) (*models.Application, error)
}

// AppResolver looks up applications with a read-through cache
type AppResolver struct {
	store ApplicationStore
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewAppResolver creates a resolver. c may be nil to disable caching.
func NewAppResolver(store ApplicationStore, c cache.Cache, ttl time.Duration, log *logger.Logger) *AppResolver {
	return &AppResolver{store: store, cache: c, ttl: ttl, log: log}
}

func appCacheKey(appID string) string {
	return "app:" + appID
}

// Resolve returns the application, or nil when it does not exist.
// Misses are not cached so a newly created app is visible at once.
func (r *AppResolver) Resolve(ctx context.Context, appID string) (*models.Application, error) {
	key := appCacheKey(appID)

	if r.cache != nil {
		data, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn("app cache read failed", "appid", appID, "error", err)
		} else if ok {
			var app models.Application
			if err := json.Unmarshal(data, &app); err == nil {
				return &app, nil
			}
		}
	}

	app, err := r.store.GetByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, nil
	}

	if r.cache != nil {
		if data, err := json.Marshal(app); err == nil {
			if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
				r.log.Warn("app cache write failed", "appid", appID, "error", err)
			}
		}
	}
	return app, nil
}
