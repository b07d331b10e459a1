package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"spark-ledger/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Dialector picks the gorm driver for name. sqlite is meant for local runs
// and tests; production uses mysql or postgres.
func Dialector(name, dsn string) (gorm.Dialector, error) {
	switch name {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(dsn)), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", name)
}

// sqliteParams make every write transaction take the database write lock at
// BEGIN and wait for it, so overlapping sales queue instead of failing with
// SQLITE_BUSY.
var sqliteParams = []struct{ key, value string }{
	{"_txlock", "immediate"},
	{"_busy_timeout", "5000"},
	{"_journal_mode", "WAL"},
	{"_foreign_keys", "on"},
}

// SQLiteDSN adds the connection parameters above to dsn unless it already
// sets them.
func SQLiteDSN(dsn string) string {
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range sqliteParams {
		if strings.Contains(dsn, p.key+"=") {
			continue
		}
		b.WriteString(sep + p.key + "=" + p.value)
		sep = "&"
	}
	return b.String()
}

// sharedMemory reports whether dsn is an in-memory sqlite database. Those
// lock at table level across connections and ignore the busy timeout, so
// they get a single connection.
func sharedMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Connect opens the database (waiting for it to come up) and migrates the
// schema.
func Connect(driver, dsn string, debug bool) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, Config(logger.Default.LogMode(level)))
		if err == nil {
			break
		}
		log.Printf("database: connect failed, retrying in %s (%d/%d): %v", connectBackoff, i+1, connectAttempts, err)
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", connectAttempts, err)
	}
	log.Printf("database: connected (%s)", driver)

	if driver == "sqlite" && sharedMemory(dsn) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Println("database: schema synced")
	return db, nil
}

// Config is the gorm configuration shared by the server and tests. All
// timestamps are stored in UTC.
func Config(l logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:  l,
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.SaleRecord{},
		&models.Setting{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
