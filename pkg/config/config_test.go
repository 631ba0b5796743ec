package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
app:
  name: test
  env: test
database:
  driver: sqlite
  sqlite_path: ":memory:"
sodium:
  daily_limit_mg: 1500
  time_zone: Asia/Kolkata
api:
  port: 9090
  read_timeout: 3s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Name)
	assert.Equal(t, int64(1500), cfg.Sodium.DailyLimitMG)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, 3*time.Second, cfg.API.ReadTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, 50, cfg.Sodium.AlertHistoryLimit)
	assert.Equal(t, "SODIUM_EVENTS", cfg.NATS.Stream)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), cfg.Sodium.DailyLimitMG)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "sodium:\n  daily_limit_mg: 1500\n")

	t.Setenv("SODIUM_SODIUM_DAILY_LIMIT_MG", "2300")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("API_PORT", "9999")
	t.Setenv("SODIUM_NATS_STREAM", "EVENTS_TEST")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2300), cfg.Sodium.DailyLimitMG)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, "EVENTS_TEST", cfg.NATS.Stream)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero limit", func(c *Config) { c.Sodium.DailyLimitMG = 0 }},
		{"negative limit", func(c *Config) { c.Sodium.DailyLimitMG = -10 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"bad port", func(c *Config) { c.API.Port = 70000 }},
		{"bad time zone", func(c *Config) { c.Sodium.TimeZone = "Mars/Olympus" }},
		{"short secret outside dev", func(c *Config) {
			c.App.Env = "prod"
			c.API.SessionSecret = "short"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_ENV", "")
	assert.Equal(t, "configs/dev/app.yaml", GetDefaultConfigPath())

	t.Setenv("APP_ENV", "prod")
	assert.Equal(t, "configs/prod/app.yaml", GetDefaultConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/sodiumwatch.yaml")
	assert.Equal(t, "/etc/sodiumwatch.yaml", GetDefaultConfigPath())
}
