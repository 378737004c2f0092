// Package config loads server configuration from flags, environment
// variables and a .env file.
package config

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// BGGMinDelay is the fixed spacing between two BoardGameGeek requests.
// It is not configurable.
const BGGMinDelay = 5500 * time.Millisecond

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	Auth       AuthConfig
	BGG        BGGConfig
	Enrichment EnrichmentConfig
	Search     SearchConfig
	RateLimit  RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state.
type DataConfig struct {
	Dir          string // Base directory (default: ~/Ludoteca)
	DatabasePath string // SQLite file (default: {Dir}/ludoteca.db)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Hex-encoded PASETO v4 key. Empty means load or generate {Data.Dir}/auth.key.
	AccessTokenKey      string
	AccessTokenDuration time.Duration
}

// BGGConfig configures the BoardGameGeek client.
type BGGConfig struct {
	BaseURL        string
	Token          string
	Username       string // Sent as the User-Agent
	RequestTimeout time.Duration
	CSVPath        string // Default ranking dump for catalogctl import
}

// EnrichmentConfig controls the periodic enrichment job.
type EnrichmentConfig struct {
	Enabled  bool
	Schedule string
}

// SearchConfig controls the typeahead index.
type SearchConfig struct {
	Enabled bool
	Path    string // Default: {Data.Dir}/search
}

// RateLimitConfig bounds inbound requests to the sync endpoint per client.
type RateLimitConfig struct {
	SyncRPS   float64
	SyncBurst int
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("ludoteca", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataDir := fs.String("data-dir", "", "Base directory for database, key and index")
	dbPath := fs.String("db", "", "SQLite database path")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 720h)")

	bggToken := fs.String("bgg-token", "", "BoardGameGeek API token")
	bggTimeout := fs.String("bgg-timeout", "", "BoardGameGeek request timeout (default: 15s)")

	enrichEnabled := fs.String("enable-catalog-cron", "", "Run the catalog enrichment job")
	enrichSchedule := fs.String("enrich-schedule", "", "Cron expression for catalog enrichment")

	searchEnabled := fs.String("search-enabled", "", "Maintain the typeahead index (default: true)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is fine; existing environment variables win.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Dir:          getConfigValue(*dataDir, "DATA_DIR", ""),
			DatabasePath: getConfigValue(*dbPath, "DATABASE_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			AccessTokenKey: getConfigValue("", "AUTH_TOKEN_KEY", ""),
		},
		BGG: BGGConfig{
			BaseURL:  getConfigValue("", "BGG_BASE_URL", "https://boardgamegeek.com/xmlapi2"),
			Token:    getConfigValue(*bggToken, "BGG_API_TOKEN", ""),
			Username: getConfigValue("", "BGG_USERNAME", "renovatuludoteca"),
			CSVPath:  getConfigValue("", "BGG_CSV_PATH", ""),
		},
		Enrichment: EnrichmentConfig{
			Enabled:  getBoolConfigValue(*enrichEnabled, "ENABLE_CATALOG_CRON", false),
			Schedule: getConfigValue(*enrichSchedule, "CRON_ENRICH_CATALOG", "*/15 * * * *"),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
			Path:    getConfigValue("", "SEARCH_PATH", ""),
		},
		RateLimit: RateLimitConfig{
			SyncBurst: getIntConfigValue("", "SYNC_RATE_BURST", 5),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		// Sync requests wait behind the provider queue.
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "720h", &cfg.Auth.AccessTokenDuration},
		{*bggTimeout, "BGG_REQUEST_TIMEOUT", "15s", &cfg.BGG.RequestTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = v
	}

	rps := getConfigValue("", "SYNC_RATE_RPS", "0.5")
	syncRPS, err := strconv.ParseFloat(rps, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_RATE_RPS %q: %w", rps, err)
	}
	cfg.RateLimit.SyncRPS = syncRPS

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.DatabasePath == "" {
		return errors.New("database path cannot be empty after expansion")
	}

	if key := c.Auth.AccessTokenKey; key != "" {
		if len(key) != 64 {
			return fmt.Errorf("AUTH_TOKEN_KEY must be 64 hex characters, got %d", len(key))
		}
		if _, err := hex.DecodeString(key); err != nil {
			return fmt.Errorf("AUTH_TOKEN_KEY is not valid hex: %w", err)
		}
	}

	if c.Enrichment.Enabled {
		if _, err := cron.ParseStandard(c.Enrichment.Schedule); err != nil {
			return fmt.Errorf("invalid enrichment schedule %q: %w", c.Enrichment.Schedule, err)
		}
	}

	if c.BGG.RequestTimeout <= 0 {
		return errors.New("BGG request timeout must be positive")
	}

	if c.RateLimit.SyncRPS <= 0 || c.RateLimit.SyncBurst < 1 {
		return fmt.Errorf("invalid sync rate limit: %g rps, burst %d", c.RateLimit.SyncRPS, c.RateLimit.SyncBurst)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data directory and everything defaulted under it.
func (c *Config) expandPaths() error {
	defaultDir := "ludoteca-data"
	if homeDir, err := os.UserHomeDir(); err == nil {
		defaultDir = filepath.Join(homeDir, "Ludoteca")
	}

	dir, err := expandPath(c.Data.Dir, defaultDir)
	if err != nil {
		return err
	}
	c.Data.Dir = dir

	if c.Data.DatabasePath, err = expandPath(c.Data.DatabasePath, filepath.Join(dir, "ludoteca.db")); err != nil {
		return err
	}
	if c.Search.Path, err = expandPath(c.Search.Path, filepath.Join(dir, "search")); err != nil {
		return err
	}
	if c.BGG.CSVPath, err = expandPath(c.BGG.CSVPath, ""); err != nil {
		return err
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
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
