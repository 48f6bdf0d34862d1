package db

import (
	"os"
	"testing"
)

// envOrSkip returns the DATABASE_URL used for integration tests, skipping
// the test entirely when it is unset — these suites need a real
// PostgreSQL instance and never run by default.
func envOrSkip(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return dsn
}
