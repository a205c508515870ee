package middleware

import (
	"strings"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UIDKey is the context key for the authenticated author id
	UIDKey ContextKey = "uid"

	// AppKey is the context key for the resolved application
	AppKey ContextKey = "app"
)

// AuthorVerifier verifies author bearer tokens
type AuthorVerifier interface {
	Verify(token string) (*models.AuthorClaims, error)
}

// ExtractAuthor reads "Authorization: Bearer <token>" and stores the
// author uid when the token is valid. It never rejects; handlers decide
// through the permission check.
//
// Usage:
//
//	g := e.Group("/apps/:appid")
//	g.Use(middleware.ExtractAuthor(tokens))
//
// Accessing in handlers:
//
//	uid := middleware.GetUID(c)
func ExtractAuthor(verifier AuthorVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return next(c)
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				c.Logger().Debugf("author token rejected: %v", err)
				return next(c)
			}

			c.Set(string(UIDKey), claims.UID)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUID returns the author uid, or "" when the request is anonymous
func GetUID(c echo.Context) string {
	uid, _ := c.Get(string(UIDKey)).(string)
	return uid
}
