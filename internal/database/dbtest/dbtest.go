// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spark-ledger/internal/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated, empty in-memory SQLite database private to t.
// The pool is capped at one connection so concurrent transactions queue
// instead of failing with SQLITE_BUSY.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), database.Config(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewFile returns a migrated SQLite database in a temp file, opened with the
// server's sqlite settings and an unrestricted pool, so concurrent
// transactions really run on separate connections.
func NewFile(t testing.TB) *gorm.DB {
	t.Helper()

	dialector, err := database.Dialector("sqlite", filepath.Join(t.TempDir(), "pos.db"))
	if err != nil {
		t.Fatalf("dialector: %v", err)
	}
	return open(t, dialector)
}

// FromEnv connects to the server named by TEST_DB_DRIVER and TEST_DB_DSN
// (mysql or postgres) and skips the test when they are unset. The schema is
// migrated but existing rows are left alone, so callers should scope their
// assertions to rows they created.
func FromEnv(t testing.TB) *gorm.DB {
	t.Helper()

	driver, dsn := os.Getenv("TEST_DB_DRIVER"), os.Getenv("TEST_DB_DSN")
	if driver == "" || dsn == "" {
		t.Skip("TEST_DB_DRIVER / TEST_DB_DSN not set")
	}
	dialector, err := database.Dialector(driver, dsn)
	if err != nil {
		t.Fatalf("dialector: %v", err)
	}
	return open(t, dialector)
}

func open(t testing.TB, dialector gorm.Dialector) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(dialector, database.Config(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		t.Fatalf("open %s: %v", dialector.Name(), err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		t.Fatalf("ping %s: %v", dialector.Name(), err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
