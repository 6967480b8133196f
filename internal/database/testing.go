package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/paddock/internal/config"
)

// TestDatabaseEnv names the variable that points integration tests at a config file
const TestDatabaseEnv = "PADDOCK_TEST_CONFIG"

// SetupTestDB connects to the integration database and applies the schema. The
// test is skipped when PADDOCK_TEST_CONFIG is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv(TestDatabaseEnv)
	if path == "" {
		t.Skipf("integration test - set %s to a config with a database section", TestDatabaseEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	t.Cleanup(db.Close)

	return db
}
