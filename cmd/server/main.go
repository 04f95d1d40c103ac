package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/api"
	"github.com/sheet-dashboard/backend/internal/auth"
	"github.com/sheet-dashboard/backend/internal/config"
	"github.com/sheet-dashboard/backend/internal/decoder"
	"github.com/sheet-dashboard/backend/internal/ingest"
	"github.com/sheet-dashboard/backend/internal/pages"
	"github.com/sheet-dashboard/backend/internal/profile"
	"github.com/sheet-dashboard/backend/internal/render"
	"github.com/sheet-dashboard/backend/internal/store"
	"github.com/sheet-dashboard/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const configFileName = "SheetDashboard.config"

type cli struct {
	Config  string           `help:"Path to the XML config file. Defaults to ${config_name} next to the executable." type:"path"`
	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	var args cli
	kong.Parse(&args,
		kong.Name("sheet-dashboard"),
		kong.Description("Spreadsheet upload and chart dashboard server."),
		kong.Vars{"version": Version + " (" + BuildTime + ")", "config_name": configFileName},
	)

	configPath := args.Config
	if configPath == "" {
		// Get the executable's directory for config resolution
		exePath, err := os.Executable()
		if err != nil {
			fmt.Printf("Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(filepath.Dir(exePath), configFileName)
	}

	// Load XML configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	logger := log.New("server")
	logger.SetLevel(cfg.LogLevel())
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")
	api.SetExposeErrorDetails(cfg.LogLevel() <= log.DEBUG)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	// Upload store and ingestion
	uploads := store.New()
	defer uploads.Close()
	ingestor := ingest.NewService(decoder.NewRegistry(), uploads, logger)

	// Chart rendering
	renderOpts := []render.Option{
		render.WithCache(render.NewCache(time.Duration(cfg.Processing.RenderCacheSeconds) * time.Second)),
	}
	if cfg.Advanced.ChartTheme != "" {
		renderOpts = append(renderOpts, render.WithTheme(cfg.Advanced.ChartTheme))
	}
	if cfg.Advanced.ChartAssetsHost != "" {
		renderOpts = append(renderOpts, render.WithAssetsHost(cfg.Advanced.ChartAssetsHost))
	}
	renderer := render.NewRenderer(renderOpts...)

	// Column profiling is optional; the dashboard works without it
	var profiler api.ColumnProfiler
	if p, err := profile.NewProfiler(cfg.Advanced.DuckDBMemoryLimit, logger); err != nil {
		logger.Warnf("Column profiling disabled: %v", err)
	} else {
		defer p.Close()
		profiler = p
	}

	// Identity store
	sessions, err := newSessions(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize sessions: %v\n", err)
		os.Exit(1)
	}

	// Start background session cleanup
	if cfg.Processing.CleanupIntervalMinutes > 0 {
		go sessions.RunCleanup(ctx,
			time.Duration(cfg.Processing.CleanupIntervalMinutes)*time.Minute,
			time.Duration(cfg.Processing.SessionTimeoutMinutes)*time.Minute)
	}

	catalog, err := pages.Default()
	if err != nil {
		fmt.Printf("Failed to load page content: %v\n", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.LogLevel())

	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		RequestTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		BodyLimit:      cfg.Server.BodyLimit,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   splitList(cfg.Server.AllowOrigins),
	})

	handlers := api.NewHandlers(&api.Dependencies{
		Store:    uploads,
		Ingestor: ingestor,
		Profiler: profiler,
		Renderer: renderer,
		Sessions: sessions,
		Pages:    catalog,
		Limits: api.UploadLimits{
			MaxBytes:          cfg.MaxUploadBytes(),
			AllowedExtensions: cfg.AllowedExtensions(),
			RecentCount:       cfg.Processing.RecentUploads,
		},
		AuthMode:         string(cfg.Auth.Mode),
		Version:          Version,
		WSMaxMessageSize: int64(cfg.Advanced.WebSocketMaxMessageSize) * 1024,
		Logger:           logger,
	})
	api.RegisterRoutes(e, handlers, sessions)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warnf("Failed to register static routes: %v", err)
		} else {
			logger.Info("Serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	mode := "API only"
	if embeddedMode {
		mode = "Embedded frontend"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Sheet Dashboard Server                          ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("║  Auth:       %-45s║\n", cfg.Auth.Mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
}

// newSessions builds the identity store selected by Auth.Mode.
func newSessions(cfg *config.AppConfig, logger *log.Logger) (*auth.Sessions, error) {
	var authenticator auth.Authenticator
	switch cfg.Auth.Mode {
	case config.AuthModeCredentials:
		authenticator = auth.NewCredentialAuthenticator(cfg.AdminEmails()...)
	default:
		authenticator = auth.NewMockAuthenticator(cfg.LoginDelay())
	}

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn("No JWTSecret configured, signing tokens with a random secret")
	}

	return auth.NewSessions(authenticator, secret,
		auth.WithTokenTTL(cfg.TokenTTL()),
		auth.WithLogger(logger),
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
