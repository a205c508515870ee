package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/labstack/echo/v4"
)

const invalidBodyMessage = "invalid request body"

// decodeBody reads a JSON body into v. An empty body leaves v zero.
func decodeBody(c echo.Context, v any) error {
	err := json.NewDecoder(c.Request().Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// statusOf maps an ingestion error kind to its HTTP status
func statusOf(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation, models.KindAppNotFound, models.KindConflict, models.KindBuildFailure:
		return http.StatusUnprocessableEntity
	case models.KindUnauthenticated:
		return http.StatusUnauthorized
	case models.KindPermissionDenied, models.KindTokenAppMismatch:
		return http.StatusForbidden
	case models.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// buildFailureResponse is the body of a 422 answer to source that did not compile
type buildFailureResponse struct {
	Error       string              `json:"error"`
	Diagnostics []models.Diagnostic `json:"diagnostics"`
}

// writeDeployError answers the remote deploy path. Bodies are plain text
// except for the 429 answer.
func writeDeployError(c echo.Context, err error) error {
	kind := models.KindOf(err)
	switch kind {
	case models.KindInfrastructure:
		return c.String(http.StatusInternalServerError, "Internal Server Error: "+err.Error())
	case models.KindRateLimited:
		var rl *models.RateLimitError
		if errors.As(err, &rl) {
			return writeRateLimited(c, rl)
		}
	}
	return c.String(statusOf(kind), err.Error())
}

func writeRateLimited(c echo.Context, rl *models.RateLimitError) error {
	c.Response().Header().Set("Retry-After", strconv.FormatInt(rl.RetryAfterSeconds, 10))
	return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
		"error":   "deploy_rate_limit_exceeded",
		"message": "Too many deploys for this application. Please wait before trying again.",
		"details": map[string]interface{}{
			"appid":               rl.AppID,
			"limit":               rl.Limit,
			"window_seconds":      rl.WindowSeconds,
			"retry_after_seconds": rl.RetryAfterSeconds,
		},
	})
}

// writeCreateError answers the author create path
func writeCreateError(c echo.Context, err error) error {
	kind := models.KindOf(err)

	switch kind {
	case models.KindBuildFailure:
		resp := buildFailureResponse{Error: err.Error()}
		var be *models.BuildError
		if errors.As(err, &be) {
			resp.Diagnostics = be.Diagnostics
		}
		return c.JSON(http.StatusUnprocessableEntity, resp)
	case models.KindInfrastructure:
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return c.String(statusOf(kind), err.Error())
	}
}
