package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TWILIO_AUTH_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/api/webhook/whatsapp", cfg.Webhook.Path)
	assert.Equal(t, "X-Twilio-Signature", cfg.Webhook.SignatureHeader)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 45*time.Second, cfg.Session.LockTTL)
	assert.Equal(t, 15*time.Second, cfg.Storage.FetchTimeout)
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxBytes)
	assert.True(t, cfg.Redis.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
  public_url: https://fairway.example.com
session:
  idle_timeout: 45m
redis:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://fairway.example.com", cfg.Server.PublicURL)
	assert.Equal(t, 45*time.Minute, cfg.Session.IdleTimeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "tok", cfg.Webhook.AuthToken)
	assert.Equal(t, "tok", cfg.Storage.AuthToken)
	assert.Equal(t, "AC1", cfg.Storage.AccountSID)
}

func TestLoad_ProductionRequiresAuthToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ENV", "production")
	t.Setenv("TWILIO_AUTH_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:  ServerConfig{WriteTimeout: 30 * time.Second},
		Webhook: WebhookConfig{Path: "/hook"},
		Session: SessionConfig{IdleTimeout: time.Minute, LockTTL: 45 * time.Second},
		Storage: StorageConfig{FetchTimeout: 15 * time.Second},
	}
	assert.NoError(t, valid.Validate())

	badPath := valid
	badPath.Webhook.Path = "hook"
	assert.Error(t, badPath.Validate())

	badIdle := valid
	badIdle.Session.IdleTimeout = 0
	assert.Error(t, badIdle.Validate())
}

func TestValidate_LockOutlivesRequest(t *testing.T) {
	base := Config{
		Server:  ServerConfig{WriteTimeout: 30 * time.Second},
		Webhook: WebhookConfig{Path: "/hook"},
		Session: SessionConfig{IdleTimeout: time.Minute},
		Storage: StorageConfig{FetchTimeout: 15 * time.Second},
	}

	tests := []struct {
		name    string
		lockTTL time.Duration
		write   time.Duration
		wantErr bool
	}{
		{"shorter than photo fetch", 10 * time.Second, 0, true},
		{"no margin over photo fetch", 15 * time.Second, 0, true},
		{"covers fetch, no write timeout", 20 * time.Second, 0, false},
		{"shorter than write timeout", 20 * time.Second, 30 * time.Second, true},
		{"covers write timeout", 30 * time.Second, 30 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Session.LockTTL = tt.lockTTL
			cfg.Server.WriteTimeout = tt.write
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_RejectsShortLockTTL(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("SESSION_LOCK_TTL", "10s")

	_, err := Load()
	assert.ErrorContains(t, err, "session lock ttl")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, Database: "fairway", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/fairway?sslmode=disable", c.DSN())
}
