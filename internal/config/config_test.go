package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{Dir: "/data", DatabasePath: "/data/ludoteca.db"},
		BGG:    BGGConfig{RequestTimeout: 15 * time.Second},
		Enrichment: EnrichmentConfig{
			Enabled:  true,
			Schedule: "*/15 * * * *",
		},
		RateLimit: RateLimitConfig{SyncRPS: 1, SyncBurst: 1},
	}
}

// noEnvFile points LoadConfig at a file that does not exist.
func noEnvFile(t *testing.T) string {
	return "--env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_TokenKey(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.AccessTokenKey = "abcd"
	assert.Error(t, cfg.Validate())

	cfg.Auth.AccessTokenKey = "zz0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd"
	assert.Error(t, cfg.Validate())

	cfg.Auth.AccessTokenKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Schedule(t *testing.T) {
	cfg := validConfig()
	cfg.Enrichment.Schedule = "every 15 minutes"
	assert.Error(t, cfg.Validate())

	cfg.Enrichment.Enabled = false
	assert.NoError(t, cfg.Validate(), "schedule is only checked when the job is enabled")
}

func TestValidate_RateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.SyncRPS = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := LoadConfig([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "ludoteca.db"), cfg.Data.DatabasePath)
	assert.Equal(t, filepath.Join(dir, "search"), cfg.Search.Path)
	assert.Equal(t, "https://boardgamegeek.com/xmlapi2", cfg.BGG.BaseURL)
	assert.Equal(t, "renovatuludoteca", cfg.BGG.Username)
	assert.Equal(t, 15*time.Second, cfg.BGG.RequestTimeout)
	assert.False(t, cfg.Enrichment.Enabled)
	assert.Equal(t, "*/15 * * * *", cfg.Enrichment.Schedule)
	assert.True(t, cfg.Search.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 0.5, cfg.RateLimit.SyncRPS, 1e-9)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"LOG_LEVEL=debug\nSERVER_PORT=7000\nBGG_API_TOKEN=from-file\nENABLE_CATALOG_CRON=1\n",
	), 0o600))

	t.Setenv("DATA_DIR", dir)
	t.Setenv("SERVER_PORT", "9000")
	// godotenv sets variables for the process; make sure they are cleaned up.
	for _, key := range []string{"LOG_LEVEL", "BGG_API_TOKEN", "ENABLE_CATALOG_CRON"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig([]string{"--env-file=" + envPath, "--bgg-token=from-flag"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level, ".env fills unset variables")
	assert.Equal(t, "9000", cfg.Server.Port, "environment beats .env")
	assert.Equal(t, "from-flag", cfg.BGG.Token, "flag beats everything")
	assert.True(t, cfg.Enrichment.Enabled)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("BGG_REQUEST_TIMEOUT", "soon")

	_, err := LoadConfig([]string{noEnvFile(t)})
	assert.ErrorContains(t, err, "BGG_REQUEST_TIMEOUT")
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	_, err := LoadConfig([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/games", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "games"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("/a/b/../c", "")
	require.NoError(t, err)
	assert.Equal(t, "/a/c", got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a , ,http://b"))
	assert.Nil(t, splitList(""))
}

func TestBGGMinDelay(t *testing.T) {
	assert.Equal(t, 5500*time.Millisecond, BGGMinDelay)
}
