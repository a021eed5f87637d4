package syncsched_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	syncsched "github.com/jdziat/sync-schedules"
)

var dbCounter atomic.Int64

// openIntegrationDB opens a database for integration tests.
// When TEST_DATABASE_URL is set it connects to PostgreSQL; otherwise
// it creates a unique file-based SQLite database under t.TempDir().
// PostgreSQL connections are pool-limited and closed on test cleanup to
// avoid exceeding max_connections.
func openIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		db, err := syncsched.OpenDB("postgres", dsn)
		require.NoError(t, err, "open postgres integration db")

		sqlDB, err := db.DB()
		require.NoError(t, err, "get underlying sql.DB")
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(1)

		// Clean before AND after to ensure test isolation.
		cleanupIntegrationDB(t, db)
		t.Cleanup(func() {
			cleanupIntegrationDB(t, db)
			_ = sqlDB.Close()
		})
		return db
	}

	n := dbCounter.Add(1)
	dbPath := filepath.Join(t.TempDir(), fmt.Sprintf("syncsched_test_%d.db", n))
	db, err := syncsched.OpenDB("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	require.NoError(t, err, "open sqlite integration db")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// openIntegrationStorage opens a DB, creates a GormStorage, and migrates.
func openIntegrationStorage(t *testing.T) *syncsched.GormStorage {
	t.Helper()
	store := syncsched.NewGormStorage(openIntegrationDB(t))
	require.NoError(t, store.Migrate(context.Background()), "migrate schema")
	return store
}

// cleanupIntegrationDB deletes all rows so tests are isolated.
func cleanupIntegrationDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, tbl := range []string{"sync_runs", "schedules"} {
		db.Exec("DELETE FROM " + tbl)
	}
}
