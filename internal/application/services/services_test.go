package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tasktally/core/internal/infrastructure/config"
	"github.com/tasktally/core/internal/infrastructure/database"
	"github.com/tasktally/core/internal/infrastructure/logger"
)

// newTestDB opens in-memory SQLite partitions with the schema applied.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		UsersDSN:    ":memory:",
		TasksDSN:    ":memory:",
		SpendingDSN: ":memory:",
	})
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(), "failed to migrate test database")
	return db
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "test-secret-test-secret-test-secret",
		TTL:        time.Hour,
		CookieName: "tasktally_session",
		Issuer:     "tasktally-test",
	}
}
