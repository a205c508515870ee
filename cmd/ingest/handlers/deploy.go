package handlers

import (
	"context"
	"net/http"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/cmd/ingest/service"
	"github.com/fnhub/ingest/common/logger"
	"github.com/labstack/echo/v4"
)

// DeploymentAcceptor runs the incoming-deployment pipeline
type DeploymentAcceptor interface {
	AcceptDeployment(ctx context.Context, appID string, req models.IncomingDeployRequest) (*service.Acceptance, error)
}

// DeployHandler handles deployments pushed by remote environments
type DeployHandler struct {
	ingestion DeploymentAcceptor
	log       *logger.Logger
}

// NewDeployHandler creates a new deploy handler
func NewDeployHandler(ingestion DeploymentAcceptor, log *logger.Logger) *DeployHandler {
	return &DeployHandler{
		ingestion: ingestion,
		log:       log,
	}
}

// acceptedResponse is the body of a successful incoming deployment
type acceptedResponse struct {
	Code int    `json:"code"`
	Data string `json:"data"`
}

// Incoming accepts a deployment for the addressed application
// POST /apps/:appid/deploy/incoming
func (h *DeployHandler) Incoming(c echo.Context) error {
	ctx := c.Request().Context()
	appID := c.Param("appid")

	var req models.IncomingDeployRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, invalidBodyMessage)
	}

	if _, err := h.ingestion.AcceptDeployment(ctx, appID, req); err != nil {
		if models.KindOf(err) == models.KindInfrastructure {
			h.log.WithContext(ctx).Error("failed to accept deployment", "appid", appID, "error", err)
		}
		return writeDeployError(c, err)
	}

	return c.JSON(http.StatusOK, acceptedResponse{Code: 0, Data: "accepted"})
}
