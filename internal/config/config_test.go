package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

// clearEnv blanks every variable Load reads, so the host environment cannot
// leak into a test. Empty counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "APP_ENV", "PORT", "DATABASE_URL", "SECRET_KEY",
		"SESSION_MAX_AGE", "COOKIE_SECURE", "CONFIRM_TOKEN_TTL",
		"BCRYPT_COST", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/feedback.db", cfg.DatabaseURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, time.Hour, cfg.ConfirmTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_MissingSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY is required")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
app_env: production
port: 9000
database_url: postgres://feedback:hunter2@db:5432/feedback
secret_key: from-the-yaml-file-123
session_max_age: 2h
cookie_secure: true
confirm_token_ttl: 10m
bcrypt_cost: 10
log_format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres://feedback:hunter2@db:5432/feedback", cfg.DatabaseURL)
	assert.Equal(t, "from-the-yaml-file-123", cfg.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.SessionMaxAge)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 10*time.Minute, cfg.ConfirmTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "json", cfg.LogFormat)
	// Keys the file does not mention keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "port: 9000\nsecret_key: from-the-yaml-file-123\nlog_level: warn\n")
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_MAX_AGE", "45m")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Minute, cfg.SessionMaxAge)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "from-the-yaml-file-123", cfg.SecretKey)
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "secret_key: from-the-yaml-file-123\nport: 7000\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad port",
			env:     map[string]string{"PORT": "eighty"},
			wantErr: "invalid integer value for PORT",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"SESSION_MAX_AGE": "a day"},
			wantErr: "invalid duration value for SESSION_MAX_AGE",
		},
		{
			name:    "bad bool",
			env:     map[string]string{"COOKIE_SECURE": "sometimes"},
			wantErr: "invalid boolean value for COOKIE_SECURE",
		},
		{
			name:    "bad yaml duration",
			file:    "confirm_token_ttl: soon\n",
			wantErr: "invalid confirm_token_ttl",
		},
		{
			name:    "malformed yaml",
			file:    "port: [1, 2\n",
			wantErr: "parsing config file",
		},
		{
			name:    "short secret",
			env:     map[string]string{"SECRET_KEY": "short"},
			wantErr: "SECRET_KEY must be at least 16 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SECRET_KEY", testSecret)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", testSecret)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	cfg.BcryptCost = 3
	cfg.ConfirmTokenTTL = 0
	cfg.LogLevel = "loud"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)

	for _, want := range []string{
		"SECRET_KEY is required",
		"PORT must be between 1 and 65535",
		"BCRYPT_COST must be between 4 and 31",
		"CONFIRM_TOKEN_TTL must be positive",
		"LOG_LEVEL must be one of",
		"LOG_FORMAT must be one of",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLogValue_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.SecretKey = testSecret
	cfg.DatabaseURL = "postgres://feedback:hunter2@db:5432/feedback"

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("config", slog.Any("config", cfg))

	out := buf.String()
	assert.NotContains(t, out, testSecret)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "postgres://feedback:xxxxx@db:5432/feedback")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "data/feedback.db", redactURL("data/feedback.db"))
	assert.Equal(t, "sqlite://data/feedback.db", redactURL("sqlite://data/feedback.db"))
	assert.Equal(t, "postgres://app@db/feedback", redactURL("postgres://app@db/feedback"))
	assert.Equal(t, "postgres://app:xxxxx@db/feedback", redactURL("postgres://app:pw@db/feedback"))
}
