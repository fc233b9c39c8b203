package datastore

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pjbaur/pota-assistant/internal/conf"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and applies pending migrations.
// WAL journaling keeps writes serialized while allowing concurrent reads.
func (store *SQLiteStore) Open() error {
	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", absoluteFilePath)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: createGormLogger(store.Settings.Debug),
	})
	if err != nil {
		return dbError(err, "open_sqlite", "path", absoluteFilePath)
	}

	store.DB = db
	return runMigrations(db, "SQLite")
}

// Close closes the underlying SQLite connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return dbError(err, "close_sqlite")
	}
	return sqlDB.Close()
}
