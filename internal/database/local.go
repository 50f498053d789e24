package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// localCompanions are the files sqlite keeps next to the main database file
var localCompanions = []string{"-wal", "-shm", "-journal"}

// OpenLocal opens the embedded database at path. If the file cannot be opened
// or migrated it is deleted along with its companion files and created again.
func OpenLocal(path string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := openLocal(path)
	if err == nil {
		return db, nil
	}

	log.WithError(err).WithField("path", path).Warn("Local database unusable, performing hard reset")

	if err := ResetLocal(path); err != nil {
		return nil, err
	}

	db, err = openLocal(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database after reset: %w", err)
	}
	return db, nil
}

// ResetLocal removes the local database file and its companions
func ResetLocal(path string) error {
	if path == ":memory:" {
		return nil
	}
	for _, name := range append([]string{path}, companionPaths(path)...) {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

// AutoMigrateLocal runs automatic migrations for the embedded models
func AutoMigrateLocal(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Proverb{},
		&models.FavoriteProverb{},
		&models.Setting{},
	)
}

func openLocal(path string) (*gorm.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Single writer, and a single in-memory database when path is ":memory:"
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrateLocal(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func companionPaths(path string) []string {
	paths := make([]string, 0, len(localCompanions))
	for _, suffix := range localCompanions {
		paths = append(paths, path+suffix)
	}
	return paths
}
