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

var envKeys = []string{
	"PORT", "LOG_LEVEL", "DATABASE_URL", "MONGO_URI", "MONGO_DB", "JWT_SECRET", "JWT_EXPIRY_HOURS",
	"CONTEXT_TIMEOUT_SECONDS", "SIDE_EFFECT_TIMEOUT_SECONDS", "STATUS_SYNC_SPEC", "CORS_ALLOWED_ORIGINS",
	"EMAIL_PROVIDER", "EMAIL_FROM_ADDRESS", "EMAIL_FROM_NAME", "AWS_REGION", "AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY", "SENDGRID_API_KEY", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD",
	"CONFIG_FILE",
}

// clearEnv blanks every key Load reads and skips the .env lookup.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "campusevents", cfg.MongoDB)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 15*time.Second, cfg.SideEffects.Timeout())
	assert.Equal(t, "@every 1m", cfg.Scheduler.StatusSyncSpec)
	assert.Equal(t, "noop", cfg.Mailer.Provider)
	assert.Equal(t, 2000, cfg.Forum.MaxTextLength)
	assert.True(t, cfg.Forum.AnnounceOrganizerTopLevel)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scheduler:
  status_sync_spec: "@every 5m"
cors:
  allowed_origins: ["https://a.example"]
mailer:
  provider: smtp
  smtp:
    host: mail.campus.example
forum:
  max_text_length: 500
side_effects:
  workers: 2
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example,")
	t.Setenv("SMTP_PASSWORD", "hunter2")
	t.Setenv("JWT_EXPIRY_HOURS", "12")
	t.Setenv("CONTEXT_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "@every 5m", cfg.Scheduler.StatusSyncSpec)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORS.AllowedOrigins, "env wins over file")
	assert.Equal(t, "smtp", cfg.Mailer.Provider)
	assert.Equal(t, "mail.campus.example", cfg.Mailer.SMTP.Host)
	assert.Equal(t, 587, cfg.Mailer.SMTP.Port)
	assert.Equal(t, "hunter2", cfg.Mailer.SMTP.Password)
	assert.Equal(t, 500, cfg.Forum.MaxTextLength)
	assert.Equal(t, 1, cfg.Forum.MaxThreadDepth, "unset policy fields keep their defaults")
	assert.Equal(t, 2, cfg.SideEffects.Workers)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 3*time.Second, cfg.ContextTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad integer", env: map[string]string{"JWT_EXPIRY_HOURS": "soon"}, wantErr: "JWT_EXPIRY_HOURS must be a positive integer"},
		{name: "negative port", env: map[string]string{"SMTP_PORT": "-1"}, wantErr: "SMTP_PORT"},
		{name: "missing file", env: map[string]string{"CONFIG_FILE": "/does/not/exist.yaml"}, wantErr: "failed to read config file"},
		{name: "production without secret", env: map[string]string{"JWT_SECRET": ""}, wantErr: "JWT_SECRET must be set in production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "warn")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	NewLogger(&buf, "development", "").Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
