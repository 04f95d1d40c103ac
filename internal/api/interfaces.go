// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/sheet-dashboard/backend/internal/profile"
	"github.com/sheet-dashboard/backend/internal/store"
)

// UploadHandler handles spreadsheet ingestion and upload lookups
type UploadHandler interface {
	HandleUpload(c echo.Context) error
	HandleListUploads(c echo.Context) error
	HandleRecentUploads(c echo.Context) error
	HandleGetUpload(c echo.Context) error
	HandleGetRowsMsgpack(c echo.Context) error
	HandleGetProfile(c echo.Context) error
}

// ChartHandler handles chart building, saving and rendering
type ChartHandler interface {
	HandleListKinds(c echo.Context) error
	HandlePreviewChart(c echo.Context) error
	HandleSaveChart(c echo.Context) error
	HandleRenderChart(c echo.Context) error
}

// AuthHandler handles the identity store endpoints
type AuthHandler interface {
	HandleLogin(c echo.Context) error
	HandleRegister(c echo.Context) error
	HandleLogout(c echo.Context) error
	HandleMe(c echo.Context) error
}

// StatsHandler handles dashboard and admin totals
type StatsHandler interface {
	HandleStats(c echo.Context) error
	HandleAdminOverview(c echo.Context) error
}

// PagesHandler serves marketing content
type PagesHandler interface {
	HandleGetPage(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// UploadFeedHandler streams store events
type UploadFeedHandler interface {
	HandleWebSocket(c echo.Context) error
}

// UploadStore is the read/append surface of the upload store.
// This allows mocking in tests
type UploadStore interface {
	GetUpload(id string) (*models.Upload, bool)
	GetChart(uploadID, chartID string) (*models.Chart, bool)
	ListUploads() []*models.Upload
	Recent(n int) []*models.Upload
	Stats() models.Stats
	AppendChart(uploadID string, cfg models.ChartConfig) (*models.Chart, bool)
	Subscribe() (<-chan store.Event, func())
}

// Ingestor decodes an uploaded file into a new upload
type Ingestor interface {
	Ingest(ctx context.Context, filename string, data []byte) (*models.Upload, error)
	Uploading() bool
}

// ColumnProfiler summarizes upload columns
type ColumnProfiler interface {
	Profile(ctx context.Context, upload *models.Upload) ([]profile.ColumnProfile, error)
}

// ChartRenderer draws a chart config as an HTML page
type ChartRenderer interface {
	Render(cfg models.ChartConfig, title string) (string, error)
}

// IdentityStore is the session side of the auth package
type IdentityStore interface {
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Register(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Logout(ctx context.Context, token string) bool
	Lookup(token string) (*models.User, bool)
}
