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

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	for _, k := range []string{"PORT", "DATABASE_URL", "JWT_SECRET", "JWT_EXPIRY", "TIMEZONE", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "EMAIL_PROVIDER"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, defaultDBUrl, cfg.DBUrl)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("TIMEZONE", "Europe/Madrid")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://portal.example.com/ ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "Europe/Madrid", cfg.Location.String())
	assert.Equal(t, []string{"http://localhost:3000", "https://portal.example.com/"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"JWT_EXPIRY": "soon"}},
		{"negative timeout", map[string]string{"REQUEST_TIMEOUT": "-1s"}},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{"production without secret", map[string]string{"GO_ENV": "production", "JWT_SECRET": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", "test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "production", "warn").Info("hidden")
	assert.Empty(t, buf.String())
	newLogger(&buf, "production", "warn").Warn("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, "development", "").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}

func TestLoadCategoryStyles(t *testing.T) {
	styles, err := LoadCategoryStyles("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCategoryStyles, styles)

	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - category: meeting\n    color: \"#000000\"\n"), 0o600))
	styles, err = LoadCategoryStyles(path)
	require.NoError(t, err)
	assert.Equal(t, "#000000", styles[1].Color)
	assert.Equal(t, "Meeting", styles[1].Label)
	assert.Equal(t, "#2563eb", DefaultCategoryStyles[0].Color)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("categories:\n  - category: party\n"), 0o600))
	_, err = LoadCategoryStyles(bad)
	assert.Error(t, err)

	_, err = LoadCategoryStyles(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
