// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	ingestor Ingestor
	authMode string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, authMode string, ingestor Ingestor) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		ingestor: ingestor,
		authMode: authMode,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":   "ok",
		"version":  h.version,
		"authMode": h.authMode,
	}
	if h.ingestor != nil {
		resp["uploading"] = h.ingestor.Uploading()
	}
	return c.JSON(http.StatusOK, resp)
}
