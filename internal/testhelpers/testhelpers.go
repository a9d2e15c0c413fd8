// Package testhelpers connects tests to a real PostgreSQL database.
//
// Tests that need one call NewTestDB, which skips the test unless
// PGDEMO_TEST_DATABASE_HOST is set. The remaining settings fall back to
// the defaults of a local postgres container:
//
//	PGDEMO_TEST_DATABASE_HOST=localhost \
//	PGDEMO_TEST_DATABASE_PASSWORD=postgres \
//	go test ./...
//
// Every test that uses it resets the schema, so point it at a throwaway
// database.
package testhelpers

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/pgdemo/internal/config"
	"github.com/deppfellow/pgdemo/internal/database"
	"github.com/deppfellow/pgdemo/internal/logger"
)

// TestEnvPrefix is the prefix of the variables NewTestDB reads.
const TestEnvPrefix = "PGDEMO_TEST_DATABASE_"

func envOr(key, fallback string) string {
	if v := os.Getenv(TestEnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

// TestConfig builds a configuration for the test database, or skips t
// when no test database is configured.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	host := os.Getenv(TestEnvPrefix + "HOST")
	if host == "" {
		t.Skip(TestEnvPrefix + "HOST not set, skipping database test")
	}

	port, err := strconv.Atoi(envOr("PORT", "5432"))
	require.NoError(t, err, "invalid "+TestEnvPrefix+"PORT")

	cfg := config.Default()
	cfg.Primary.Env = "test"
	cfg.Logging.SlowQueryThreshold = 0
	cfg.Database.Host = host
	cfg.Database.Port = port
	cfg.Database.User = envOr("USER", "postgres")
	cfg.Database.Password = envOr("PASSWORD", "postgres")
	cfg.Database.Name = envOr("NAME", "postgres")
	cfg.Database.SSLMode = envOr("SSL_MODE", "disable")

	require.NoError(t, cfg.Validate())
	return cfg
}

// TestLogger writes through t.Log so output shows up only for failing
// or verbose tests.
func TestLogger(t *testing.T) *zerolog.Logger {
	t.Helper()

	l := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.WarnLevel)
	return &l
}

// NewTestDB opens a pool to the test database and closes it when the
// test ends.
func NewTestDB(t *testing.T) (*database.Database, *zerolog.Logger) {
	t.Helper()

	cfg := TestConfig(t)
	log := TestLogger(t)

	db, err := database.New(context.Background(), cfg, log, &logger.LoggerService{})
	require.NoError(t, err, "connecting to the test database")

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db, log
}
