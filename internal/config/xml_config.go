// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

// AuthMode selects the identity backend.
type AuthMode string

const (
	AuthModeMock        AuthMode = "mock"
	AuthModeCredentials AuthMode = "credentials"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"SheetDashboard"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Identity configuration
	Auth AuthConfig `xml:"Auth"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory string `xml:"DataDirectory"`
	TempDirectory string `xml:"TempDirectory"`
}

// ProcessingConfig contains ingestion and rendering settings
type ProcessingConfig struct {
	SessionTimeoutMinutes  int `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
	RecentUploads          int `xml:"RecentUploads"`
	RenderCacheSeconds     int `xml:"RenderCacheSeconds"`
}

// SecurityConfig contains upload restrictions
type SecurityConfig struct {
	MaxUploadSize    string `xml:"MaxUploadSize"`
	AllowedFileTypes string `xml:"AllowedFileTypes"`
}

// AuthConfig contains identity store settings
type AuthConfig struct {
	Mode          AuthMode `xml:"Mode"`
	LoginDelayMs  int      `xml:"LoginDelayMs"`
	JWTSecret     string   `xml:"JWTSecret"`
	TokenTTLHours int      `xml:"TokenTTLHours"`
	AdminEmails   string   `xml:"AdminEmails"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	DuckDBMemoryLimit       string `xml:"DuckDBMemoryLimit"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
	ChartTheme              string `xml:"ChartTheme"`
	ChartAssetsHost         string `xml:"ChartAssetsHost"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "50M",
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
			TempDirectory: "./data/temp",
		},
		Processing: ProcessingConfig{
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			RecentUploads:          3,
			RenderCacheSeconds:     300,
		},
		Security: SecurityConfig{
			MaxUploadSize:    "25M",
			AllowedFileTypes: ".xlsx,.xls,.csv",
		},
		Auth: AuthConfig{
			Mode:          AuthModeMock,
			LoginDelayMs:  1000,
			JWTSecret:     "",
			TokenTTLHours: 24,
			AdminEmails:   "",
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			DuckDBMemoryLimit:       "256MB",
			WebSocketMaxMessageSize: 64,
			ChartTheme:              "westeros",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, config.Validate()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, config.Validate()
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Sheet Dashboard Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the server cannot start with.
func (c *AppConfig) Validate() error {
	switch c.Auth.Mode {
	case AuthModeMock, AuthModeCredentials:
	default:
		return fmt.Errorf("invalid Auth.Mode %q (want %q or %q)", c.Auth.Mode, AuthModeMock, AuthModeCredentials)
	}
	if _, err := ParseSize(c.Security.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid Security.MaxUploadSize: %w", err)
	}
	if c.Auth.LoginDelayMs < 0 {
		return fmt.Errorf("invalid Auth.LoginDelayMs %d", c.Auth.LoginDelayMs)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if mode := os.Getenv("AUTH_MODE"); mode != "" {
		c.Auth.Mode = AuthMode(strings.ToLower(mode))
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.TempDirectory) {
		c.Storage.TempDirectory = filepath.Join(configDir, c.Storage.TempDirectory)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.TempDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LogLevel maps Advanced.LogLevel onto the logger's levels. Unknown values mean info.
func (c *AppConfig) LogLevel() log.Lvl {
	switch strings.ToLower(c.Advanced.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// AllowedExtensions returns Security.AllowedFileTypes as lower-case extensions.
func (c *AppConfig) AllowedExtensions() []string {
	var out []string
	for _, ext := range strings.Split(c.Security.AllowedFileTypes, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// AdminEmails returns Auth.AdminEmails split on commas.
func (c *AppConfig) AdminEmails() []string {
	var out []string
	for _, e := range strings.Split(c.Auth.AdminEmails, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// LoginDelay returns Auth.LoginDelayMs as a duration.
func (c *AppConfig) LoginDelay() time.Duration {
	return time.Duration(c.Auth.LoginDelayMs) * time.Millisecond
}

// TokenTTL returns Auth.TokenTTLHours as a duration.
func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// MaxUploadBytes returns Security.MaxUploadSize in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	n, _ := ParseSize(c.Security.MaxUploadSize)
	return n
}

// ParseSize parses sizes such as "25M", "2G", "512K" or a plain byte count.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "B")
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	switch s[len(s)-1] {
	case 'K':
		mult = 1 << 10
	case 'M':
		mult = 1 << 20
	case 'G':
		mult = 1 << 30
	}
	if mult > 1 {
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
