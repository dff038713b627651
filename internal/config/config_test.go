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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "google", cfg.FederatedVerifier)
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.FacebookEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/handyman")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_AUTHORIZED_ACCOUNTS", "ada@example.com=rt-1,bob@example.com=rt-2")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.GoogleEnabled())
	assert.Equal(t, map[string]string{
		"ada@example.com": "rt-1",
		"bob@example.com": "rt-2",
	}, cfg.GoogleAuthorizedAccounts)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FACEBOOK_GRAPH_URL=http://graph.local\nLOG_LEVEL=debug\n"), 0o600))

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("FACEBOOK_GRAPH_URL", "")
	os.Unsetenv("FACEBOOK_GRAPH_URL")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "http://graph.local", cfg.FacebookGraphURL)
}

func TestValidate(t *testing.T) {
	base := Config{
		AppPort:           "8080",
		LogLevel:          "info",
		DatabaseDriver:    "sqlite",
		DatabaseDSN:       ":memory:",
		SessionTTL:        time.Hour,
		FederatedVerifier: "google",
	}
	require.NoError(t, base.Validate())

	tests := map[string]func(c *Config){
		"bad port":            func(c *Config) { c.AppPort = "http" },
		"bad level":           func(c *Config) { c.LogLevel = "loud" },
		"bad driver":          func(c *Config) { c.DatabaseDriver = "mysql" },
		"empty dsn":           func(c *Config) { c.DatabaseDSN = "" },
		"zero ttl":            func(c *Config) { c.SessionTTL = 0 },
		"unknown verifier":    func(c *Config) { c.FederatedVerifier = "okta" },
		"keycloak incomplete": func(c *Config) { c.FederatedVerifier = "keycloak" },
		"accounts without client": func(c *Config) {
			c.GoogleAuthorizedAccounts = map[string]string{"ada@example.com": "rt"}
		},
		"facebook incomplete": func(c *Config) { c.FacebookAppID = "app" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
