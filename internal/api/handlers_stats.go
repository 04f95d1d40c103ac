// handlers_stats.go - Dashboard and admin totals
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sheet-dashboard/backend/internal/models"
)

// StatsHandlerImpl implements the StatsHandler interface
type StatsHandlerImpl struct {
	store UploadStore
}

// NewStatsHandler creates a new stats handler instance
func NewStatsHandler(store UploadStore) StatsHandler {
	return &StatsHandlerImpl{store: store}
}

type adminOverview struct {
	Stats   models.Stats           `json:"stats"`
	Uploads []models.UploadSummary `json:"uploads"`
}

// HandleStats returns the totals shown on the dashboard cards
func (h *StatsHandlerImpl) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Stats())
}

// HandleAdminOverview returns totals and every upload
func (h *StatsHandlerImpl) HandleAdminOverview(c echo.Context) error {
	return c.JSON(http.StatusOK, adminOverview{
		Stats:   h.store.Stats(),
		Uploads: summaries(h.store.ListUploads()),
	})
}
