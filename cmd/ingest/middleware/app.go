package middleware

import (
	"context"
	"net/http"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/labstack/echo/v4"
)

// AppResolver loads an application; nil means unknown
type AppResolver interface {
	Resolve(ctx context.Context, appID string) (*models.Application, error)
}

// ParseApp resolves the :appid path parameter and stores the application.
// Unknown apps are answered with 422 "app not found".
func ParseApp(resolver AppResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			appID := c.Param("appid")

			app, err := resolver.Resolve(c.Request().Context(), appID)
			if err != nil {
				c.Logger().Errorf("resolve app %s: %v", appID, err)
				return c.String(http.StatusInternalServerError, "Internal Server Error: "+err.Error())
			}
			if app == nil {
				return c.String(http.StatusUnprocessableEntity, models.ErrAppNotFound.Message)
			}

			c.Set(string(AppKey), app)
			return next(c)
		}
	}
}

// GetApp returns the application stored by ParseApp, or nil
func GetApp(c echo.Context) *models.Application {
	app, _ := c.Get(string(AppKey)).(*models.Application)
	return app
}
