package handlers

import (
	"context"
	"net/http"

	"github.com/fnhub/ingest/cmd/ingest/middleware"
	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/cmd/ingest/service"
	"github.com/fnhub/ingest/common/logger"
	"github.com/labstack/echo/v4"
)

// PermissionChecker answers 0 when the actor may act, else an HTTP status
type PermissionChecker interface {
	CheckPermission(ctx context.Context, actorID string, permission service.Permission, app *models.Application) int
}

// FunctionCreator builds and stores functions
type FunctionCreator interface {
	CreateFunction(ctx context.Context, appID, authorID string, req models.CreateFunctionRequest) (*models.FunctionRecord, error)
}

// FunctionHandler handles function authoring requests
type FunctionHandler struct {
	gate      PermissionChecker
	functions FunctionCreator
	log       *logger.Logger
}

// NewFunctionHandler creates a new function handler
func NewFunctionHandler(gate PermissionChecker, functions FunctionCreator, log *logger.Logger) *FunctionHandler {
	return &FunctionHandler{
		gate:      gate,
		functions: functions,
		log:       log,
	}
}

// CreateFunction creates a function in the addressed application
// POST /apps/:appid/functions
func (h *FunctionHandler) CreateFunction(c echo.Context) error {
	ctx := c.Request().Context()
	app := middleware.GetApp(c)
	uid := middleware.GetUID(c)

	if code := h.gate.CheckPermission(ctx, uid, service.PermFunctionCreate, app); code != 0 {
		return c.NoContent(code)
	}

	var req models.CreateFunctionRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, invalidBodyMessage)
	}

	fn, err := h.functions.CreateFunction(ctx, app.AppID, uid, req)
	if err != nil {
		if models.KindOf(err) == models.KindInfrastructure {
			h.log.WithContext(ctx).Error("failed to create function", "appid", app.AppID, "name", req.Name, "error", err)
		}
		return writeCreateError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": models.InsertResult{Acknowledged: true, InsertedID: fn.ID},
	})
}
