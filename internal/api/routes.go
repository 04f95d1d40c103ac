// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/auth"
	"github.com/sheet-dashboard/backend/internal/pages"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store            UploadStore
	Ingestor         Ingestor
	Profiler         ColumnProfiler
	Renderer         ChartRenderer
	Sessions         *auth.Sessions
	Pages            *pages.Catalog
	Limits           UploadLimits
	AuthMode         string
	Version          string
	WSMaxMessageSize int64
	Logger           *log.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Auth   AuthHandler
	Upload UploadHandler
	Chart  ChartHandler
	Stats  StatsHandler
	Pages  PagesHandler
	Feed   UploadFeedHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	var identity IdentityStore
	if deps.Sessions != nil {
		identity = deps.Sessions
	}
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.AuthMode, deps.Ingestor),
		Auth:   NewAuthHandler(identity),
		Upload: NewUploadHandler(deps.Store, deps.Ingestor, deps.Profiler, deps.Limits, deps.Logger),
		Chart:  NewChartHandler(deps.Store, deps.Renderer, deps.Logger),
		Stats:  NewStatsHandler(deps.Store),
		Pages:  NewPagesHandler(deps.Pages, identity),
		Feed:   NewWebSocketHandler(deps.Store, identity, deps.WSMaxMessageSize, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, sessions *auth.Sessions) {
	apiGroup := e.Group("/api")
	requireUser := auth.RequireUser(sessions)
	requireAdmin := auth.RequireAdmin(sessions)

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Identity
	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/login", handlers.Auth.HandleLogin)
	authGroup.POST("/register", handlers.Auth.HandleRegister)
	authGroup.POST("/logout", handlers.Auth.HandleLogout)
	authGroup.GET("/me", handlers.Auth.HandleMe)

	// Marketing content
	apiGroup.GET("/pages/:slug", handlers.Pages.HandleGetPage)

	// Upload routes
	uploadGroup := apiGroup.Group("/uploads", requireUser)
	uploadGroup.POST("", handlers.Upload.HandleUpload)
	uploadGroup.GET("", handlers.Upload.HandleListUploads)
	uploadGroup.GET("/recent", handlers.Upload.HandleRecentUploads)
	uploadGroup.GET("/:id", handlers.Upload.HandleGetUpload)
	uploadGroup.GET("/:id/rows/msgpack", handlers.Upload.HandleGetRowsMsgpack)
	uploadGroup.GET("/:id/profile", handlers.Upload.HandleGetProfile)

	// Chart routes
	uploadGroup.POST("/:id/charts/preview", handlers.Chart.HandlePreviewChart)
	uploadGroup.POST("/:id/charts", handlers.Chart.HandleSaveChart)
	uploadGroup.GET("/:id/charts/:chartId/render", handlers.Chart.HandleRenderChart)
	apiGroup.GET("/charts/kinds", handlers.Chart.HandleListKinds)

	// Dashboard and admin
	apiGroup.GET("/stats", handlers.Stats.HandleStats, requireUser)
	apiGroup.GET("/admin/overview", handlers.Stats.HandleAdminOverview, requireAdmin)

	// WebSocket feed; authenticates itself so browsers can pass ?token=
	apiGroup.GET("/ws/uploads", handlers.Feed.HandleWebSocket)
}

// MiddlewareConfig selects the common middleware
type MiddlewareConfig struct {
	RequestLogging bool
	RequestTimeout time.Duration
	BodyLimit      string
	EnableCORS     bool
	AllowOrigins   []string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	// Add request logging
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasPrefix(path, "/api/ws/")
		},
	}))

	// Add recovery
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.RequestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.RequestTimeout,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				// uploads wait on the decoder, the feed is long-lived
				return strings.HasPrefix(path, "/api/ws/") ||
					(c.Request().Method == http.MethodPost && path == "/api/uploads")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	// Add CORS middleware if needed
	if cfg.EnableCORS {
		origins := cfg.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
}
