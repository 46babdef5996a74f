package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
env: dev
http_server:
  address: ":9090"
tokens:
  secret: "file-secret"
  access_ttl_seconds: "60"
  refresh_ttl_seconds: "abc"
storage:
  driver: redis
  redis:
    addr: "redis:6379"
users:
  url: "http://users:8080"
`)

	cfg := MustLoadConfig(path)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTPServer.Address)
	assert.Equal(t, 15*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.Equal(t, "file-secret", cfg.Tokens.Secret)
	assert.Equal(t, "auth_service", cfg.Tokens.Issuer)
	assert.Equal(t, time.Minute, cfg.Tokens.AccessTTL())
	assert.Equal(t, 604800*time.Second, cfg.Tokens.RefreshTTL())
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "auth:session:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, "http://users:8080", cfg.Users.URL)
	assert.Equal(t, 5*time.Second, cfg.Users.Timeout)
	assert.True(t, cfg.Cookies.Enabled)
	assert.Equal(t, "/api", cfg.Cookies.AccessPath)
	assert.Equal(t, "/auth/refresh", cfg.Cookies.RefreshPath)
	assert.False(t, cfg.SecureCookies())
}

func TestMustLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
env: local
tokens:
  secret: "file-secret"
storage:
  driver: memory
`)
	t.Setenv("HTTP_ADDRESS", ":7070")
	t.Setenv("JWT_TOKEN_SECRET", "env-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRES_IN_SECONDS", "120")

	cfg := MustLoadConfig(path)

	assert.Equal(t, ":7070", cfg.HTTPServer.Address)
	assert.Equal(t, "env-secret", cfg.Tokens.Secret)
	assert.Equal(t, 2*time.Minute, cfg.Tokens.AccessTTL())
}

func TestMustLoadConfig_EnvOnly(t *testing.T) {
	t.Setenv("ENV", EnvProd)
	t.Setenv("JWT_TOKEN_SECRET", "env-secret")
	t.Setenv("STORAGE_DRIVER", DriverBolt)
	t.Setenv("USER_MANAGEMENT_URL", "http://users:8080")

	cfg := MustLoadConfig("")

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, DriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "./data/sessions.db", cfg.Storage.Bolt.Path)
	assert.True(t, cfg.SecureCookies())
}

func TestMustLoadConfig_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoadConfig(filepath.Join(t.TempDir(), "missing.yaml")) })

	path := writeConfig(t, `
env: local
storage:
  driver: memory
`)
	t.Setenv("JWT_TOKEN_SECRET", "")
	assert.Panics(t, func() { MustLoadConfig(path) }, "secret is required")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:     EnvDev,
			Tokens:  Tokens{Secret: "s"},
			Storage: Storage{Driver: DriverPostgres},
			Users:   Users{URL: "http://users"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown env", func(c *Config) { c.Env = "staging" }, true},
		{"blank secret", func(c *Config) { c.Tokens.Secret = "  " }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, true},
		{"no users url outside local", func(c *Config) { c.Users.URL = "" }, true},
		{"no users url in local", func(c *Config) { c.Env = EnvLocal; c.Users.URL = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTTLFallback(t *testing.T) {
	for raw, want := range map[string]time.Duration{
		"":      900 * time.Second,
		"abc":   900 * time.Second,
		"0":     900 * time.Second,
		"-5":    900 * time.Second,
		" 30 ":  30 * time.Second,
		"86400": 24 * time.Hour,
	} {
		assert.Equal(t, want, Tokens{AccessTTLSeconds: raw}.AccessTTL(), "%q", raw)
	}
}
