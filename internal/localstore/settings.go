package localstore

import (
	"context"
	"strconv"
	"time"

	"github.com/localnerve/proverbs-sync/internal/models"
)

// SettingsStore is a small key/value table for application state
type SettingsStore struct {
	table table[models.Setting]
}

// Get returns the value for key and whether it was set
func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	row, err := s.table.first(ctx, map[string]interface{}{"key": key})
	if err != nil || row == nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	return s.table.upsert(ctx, []models.Setting{{Key: key, Value: value, UpdatedAt: time.Now().UTC()}})
}

// GetBool reads key as a boolean. Unset or unparsable values are false.
func (s *SettingsStore) GetBool(ctx context.Context, key string) (bool, error) {
	value, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	b, _ := strconv.ParseBool(value)
	return b, nil
}

func (s *SettingsStore) SetBool(ctx context.Context, key string, value bool) error {
	return s.Set(ctx, key, strconv.FormatBool(value))
}

func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	_, err := s.table.delete(ctx, map[string]interface{}{"key": key})
	return err
}
