package testdb

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/pholn/mnemo/internal/platform/postgres"
)

// testDatabaseURLEnv is the environment variable that carries the connection
// string for integration tests. When unset, tests that need a database skip.
const testDatabaseURLEnv = "MNEMO_TEST_DATABASE_URL"

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the database URL for tests, or the empty string
// when no test database is configured.
func GetTestDatabaseURL() string {
	return os.Getenv(testDatabaseURLEnv)
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDBWithT returns a migrated database connection for testing. Tests
// are skipped when no test database is configured, so the suite stays green
// on machines without PostgreSQL.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skipf("skipping database test: %s not set", testDatabaseURLEnv)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	// Apply migrations once per process; later callers reuse the schema.
	migrateOnce.Do(func() {
		migrateErr = postgres.MigrateUp(ctx, db)
	})
	if migrateErr != nil {
		t.Fatalf("failed to migrate test database: %v", migrateErr)
	}

	return db
}
