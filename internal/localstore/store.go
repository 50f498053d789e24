// Package localstore persists proverbs, favorites and settings in the embedded database.
package localstore

import (
	"context"
	"errors"
	"sync"

	"github.com/localnerve/proverbs-sync/internal/database"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns the embedded database. It is opened on first use.
type Store struct {
	path string
	log  logrus.FieldLogger

	mu sync.Mutex
	db *gorm.DB
}

// New creates a store for the database file at path
func New(path string, log logrus.FieldLogger) *Store {
	return &Store{path: path, log: log}
}

// NewWithDB creates a store over an already migrated database
func NewWithDB(db *gorm.DB, log logrus.FieldLogger) *Store {
	return &Store{db: db, log: log}
}

// handle returns a session bound to ctx, opening the database if needed.
// A failed open is retried on the next call.
func (s *Store) handle(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		db, err := database.OpenLocal(s.path, s.log)
		if err != nil {
			return nil, err
		}
		s.db = db
	}
	return s.db.WithContext(ctx), nil
}

// Close closes the database if it was opened
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := database.Close(s.db)
	s.db = nil
	return err
}

// Favorites returns the favorite proverbs table
func (s *Store) Favorites() *FavoriteStore {
	return &FavoriteStore{table: table[models.FavoriteProverb]{store: s}, log: s.log}
}

// Proverbs returns the proverbs table
func (s *Store) Proverbs() *ProverbStore {
	return &ProverbStore{table: table[models.Proverb]{store: s}}
}

// Settings returns the settings table
func (s *Store) Settings() *SettingsStore {
	return &SettingsStore{table: table[models.Setting]{store: s}}
}

// table holds the generic CRUD shared by the typed stores
type table[T any] struct {
	store *Store
}

func (t table[T]) all(ctx context.Context, order string, query interface{}, args ...interface{}) ([]T, error) {
	db, err := t.store.handle(ctx)
	if err != nil {
		return nil, err
	}
	var rows []T
	q := db.Order(order)
	if query != nil {
		q = q.Where(query, args...)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// first returns nil without error when nothing matches
func (t table[T]) first(ctx context.Context, query interface{}, args ...interface{}) (*T, error) {
	db, err := t.store.handle(ctx)
	if err != nil {
		return nil, err
	}
	var row T
	if err := db.Where(query, args...).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (t table[T]) upsert(ctx context.Context, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	db, err := t.store.handle(ctx)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

func (t table[T]) insertMissing(ctx context.Context, rows []T) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	db, err := t.store.handle(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 100)
	return result.RowsAffected, result.Error
}

func (t table[T]) update(ctx context.Context, column string, value interface{}, query interface{}, args ...interface{}) error {
	db, err := t.store.handle(ctx)
	if err != nil {
		return err
	}
	var model T
	q := db.Model(&model)
	if query == nil {
		q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
	} else {
		q = q.Where(query, args...)
	}
	return q.Update(column, value).Error
}

// delete removes matching rows, or every row when query is nil
func (t table[T]) delete(ctx context.Context, query interface{}, args ...interface{}) (int64, error) {
	db, err := t.store.handle(ctx)
	if err != nil {
		return 0, err
	}
	var model T
	q := db
	if query == nil {
		q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
	} else {
		q = q.Where(query, args...)
	}
	result := q.Delete(&model)
	return result.RowsAffected, result.Error
}

func (t table[T]) count(ctx context.Context) (int64, error) {
	db, err := t.store.handle(ctx)
	if err != nil {
		return 0, err
	}
	var model T
	var n int64
	err = db.Model(&model).Count(&n).Error
	return n, err
}
