package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PGDEMO_DATABASE_USER", "shahzad")
	t.Setenv("PGDEMO_DATABASE_NAME", "shazdb")
}

func TestEnvKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"PGDEMO_DATABASE_HOST", "database.host"},
		{"PGDEMO_DATABASE_SSL_MODE", "database.ssl_mode"},
		{"PGDEMO_DATABASE_CONN_MAX_LIFETIME", "database.conn_max_lifetime"},
		{"PGDEMO_LOGGING_LEVEL", "logging.level"},
		{"PGDEMO_LOGGING_SLOW_QUERY_THRESHOLD", "logging.slow_query_threshold"},
		{"PGDEMO_NEWRELIC_LICENSE_KEY", "newrelic.license_key"},
		{"PGDEMO_PRIMARY_ENV", "primary.env"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, envKey(tt.in), tt.in)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Primary.Env)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "shahzad", cfg.Database.User)
	assert.Equal(t, "shazdb", cfg.Database.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100*time.Millisecond, cfg.Logging.SlowQueryThreshold)
	assert.False(t, cfg.NewRelic.Enabled())
	assert.True(t, cfg.IsLocal())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PGDEMO_PRIMARY_ENV", "production")
	t.Setenv("PGDEMO_DATABASE_HOST", "db.internal")
	t.Setenv("PGDEMO_DATABASE_PORT", "6543")
	t.Setenv("PGDEMO_DATABASE_PASSWORD", "pa:ss@word")
	t.Setenv("PGDEMO_DATABASE_SSL_MODE", "require")
	t.Setenv("PGDEMO_DATABASE_MAX_CONNS", "8")
	t.Setenv("PGDEMO_LOGGING_FORMAT", "json")
	t.Setenv("PGDEMO_LOGGING_SLOW_QUERY_THRESHOLD", "250ms")
	t.Setenv("PGDEMO_NEWRELIC_LICENSE_KEY", "abc")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "pa:ss@word", cfg.Database.Password)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.EqualValues(t, 8, cfg.Database.MaxConns)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Logging.SlowQueryThreshold)
	assert.True(t, cfg.NewRelic.Enabled())
}

func TestLoadConfigMissingCredentials(t *testing.T) {
	t.Setenv("PGDEMO_DATABASE_USER", "")
	t.Setenv("PGDEMO_DATABASE_NAME", "shazdb")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User")
}

func TestLoadConfigRejectsBadLevel(t *testing.T) {
	setRequired(t)
	t.Setenv("PGDEMO_LOGGING_LEVEL", "loud")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logging level")
}

func TestLoggingConfigValidate(t *testing.T) {
	cfg := DefaultLoggingConfig()
	require.NoError(t, cfg.Validate())

	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultLoggingConfig()
	cfg.SlowQueryThreshold = -time.Second
	assert.Error(t, cfg.Validate())
}
