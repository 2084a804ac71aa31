// Package databasetest opens throwaway databases for tests.
package databasetest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kkmt-store/config"
	"kkmt-store/database"
)

// Open returns a migrated, private in-memory SQLite database that is closed
// when the test ends.
func Open(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, nil)
	if err != nil {
		tb.Fatalf("open memory database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate memory database: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
