package localstore

import (
	"context"

	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/sirupsen/logrus"
)

// FavoriteStore keeps favorites on this device
type FavoriteStore struct {
	table table[models.FavoriteProverb]
	log   logrus.FieldLogger
}

// GetAll returns every local favorite, oldest first. Read failures are
// logged and reported as an empty list.
func (f *FavoriteStore) GetAll(ctx context.Context) []models.FavoriteProverb {
	rows, err := f.table.all(ctx, "created_at, identifier", nil)
	if err != nil {
		f.log.WithError(err).Error("Failed to read local favorites")
		return []models.FavoriteProverb{}
	}
	return rows
}

// Get returns the favorite made from the proverb originIdentifier, or nil
func (f *FavoriteStore) Get(ctx context.Context, originIdentifier string) (*models.FavoriteProverb, error) {
	return f.table.first(ctx, "origin_identifier = ?", originIdentifier)
}

// Save inserts or replaces fav
func (f *FavoriteStore) Save(ctx context.Context, fav models.FavoriteProverb) error {
	return f.table.upsert(ctx, []models.FavoriteProverb{fav})
}

// Delete removes fav. A missing favorite is not an error.
func (f *FavoriteStore) Delete(ctx context.Context, fav models.FavoriteProverb) error {
	_, err := f.table.delete(ctx, "identifier = ?", fav.Identifier)
	return err
}

// DeleteAll removes every favorite except the one with identifier except.
// An empty except removes them all.
func (f *FavoriteStore) DeleteAll(ctx context.Context, except string) (int64, error) {
	if except == "" {
		return f.table.delete(ctx, nil)
	}
	return f.table.delete(ctx, "identifier <> ?", except)
}

// Count returns the number of local favorites
func (f *FavoriteStore) Count(ctx context.Context) (int64, error) {
	return f.table.count(ctx)
}
