package service

import (
	"context"
	"net/http"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/logger"
)

// Permission names an action an author may take on an application
type Permission string

const (
	PermFunctionCreate Permission = "function.create"
	PermFunctionRead   Permission = "function.read"
	PermFunctionUpdate Permission = "function.update"
	PermFunctionDelete Permission = "function.delete"
	PermFunctionDebug  Permission = "function.debug"
	PermPolicyCreate   Permission = "policy.create"
	PermPolicyRead     Permission = "policy.read"
	PermPolicyUpdate   Permission = "policy.update"
	PermPolicyDelete   Permission = "policy.delete"
	PermDeployCreate   Permission = "deploy.create_token"
	PermDeployRead     Permission = "deploy.read_request"
	PermDeployApply    Permission = "deploy.apply_request"
)

// PermissionCatalog maps role names to the permissions they grant.
// It is built once and never mutated.
type PermissionCatalog struct {
	roles map[string]map[Permission]struct{}
}

// NewPermissionCatalog copies roles into an immutable catalog
func NewPermissionCatalog(roles map[string][]Permission) PermissionCatalog {
	c := PermissionCatalog{roles: make(map[string]map[Permission]struct{}, len(roles))}
	for role, perms := range roles {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		c.roles[role] = set
	}
	return c
}

// DefaultPermissionCatalog returns the built-in roles
func DefaultPermissionCatalog() PermissionCatalog {
	return NewPermissionCatalog(map[string][]Permission{
		"app.admin": {
			PermFunctionCreate, PermFunctionRead, PermFunctionUpdate, PermFunctionDelete, PermFunctionDebug,
			PermPolicyCreate, PermPolicyRead, PermPolicyUpdate, PermPolicyDelete,
			PermDeployCreate, PermDeployRead, PermDeployApply,
		},
		"app.developer": {
			PermFunctionCreate, PermFunctionRead, PermFunctionUpdate, PermFunctionDelete, PermFunctionDebug,
			PermPolicyCreate, PermPolicyRead, PermPolicyUpdate, PermPolicyDelete,
			PermDeployRead,
		},
		"app.operator": {
			PermFunctionRead, PermPolicyRead, PermDeployRead, PermDeployApply,
		},
	})
}

// Grants reports whether any of roles grants p
func (c PermissionCatalog) Grants(roles []string, p Permission) bool {
	for _, r := range roles {
		if _, ok := c.roles[r][p]; ok {
			return true
		}
	}
	return false
}

// CollaboratorStore looks up the roles a user holds on an application
type CollaboratorStore interface {
	CollaboratorRoles(ctx context.Context, appID, userID string) ([]string, error)
}

// AuthorizationGate decides what a caller may do
type AuthorizationGate struct {
	catalog       PermissionCatalog
	collaborators CollaboratorStore
	log           *logger.Logger
}

// NewAuthorizationGate creates a gate over an injected catalog
func NewAuthorizationGate(catalog PermissionCatalog, collaborators CollaboratorStore, log *logger.Logger) *AuthorizationGate {
	return &AuthorizationGate{
		catalog:       catalog,
		collaborators: collaborators,
		log:           log,
	}
}

// AuthorizeDeploy checks a deploy token against the addressed application
// and returns the requested kinds the token is scoped for. Kinds outside
// the token scopes are dropped, not rejected.
func (g *AuthorizationGate) AuthorizeDeploy(claims *models.DeployClaims, pathAppID string, requested models.KindSet) (models.KindSet, error) {
	if claims.Type != models.TokenTypeDeploy {
		return nil, models.ErrPermissionDenied
	}
	if claims.AppID != pathAppID {
		return nil, models.ErrTokenAppMismatch
	}
	return requested.Intersect(models.NewKindSet(claims.Scopes...)), nil
}

// CheckPermission returns 0 when actorID holds permission on app, otherwise
// the HTTP status to answer with. It has no side effects.
func (g *AuthorizationGate) CheckPermission(ctx context.Context, actorID string, permission Permission, app *models.Application) int {
	if actorID == "" {
		return http.StatusUnauthorized
	}
	if app == nil {
		return http.StatusUnprocessableEntity
	}

	// owners hold every permission
	if app.CreatedBy == actorID {
		return 0
	}

	roles, err := g.collaborators.CollaboratorRoles(ctx, app.AppID, actorID)
	if err != nil {
		g.log.WithContext(ctx).Error("permission lookup failed",
			"appid", app.AppID, "uid", actorID, "permission", permission, "error", err)
		return http.StatusInternalServerError
	}

	if !g.catalog.Grants(roles, permission) {
		return http.StatusForbidden
	}
	return 0
}
