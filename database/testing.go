package database

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"yatube/config"
)

// NewTestDB opens a migrated sqlite database inside t.TempDir and closes it on cleanup.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "test.sqlite3"),
	}, log)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { Close(db, log) })
	return db
}
