package localstore

import (
	"context"

	"github.com/localnerve/proverbs-sync/internal/models"
)

// ProverbStore keeps the bundled proverbs and their viewed flags
type ProverbStore struct {
	table table[models.Proverb]
}

// SaveAll inserts proverbs that are not already stored and returns how many were added
func (p *ProverbStore) SaveAll(ctx context.Context, proverbs []models.Proverb) (int64, error) {
	return p.table.insertMissing(ctx, proverbs)
}

// Get returns a proverb by identifier, or nil
func (p *ProverbStore) Get(ctx context.Context, identifier string) (*models.Proverb, error) {
	return p.table.first(ctx, "identifier = ?", identifier)
}

func (p *ProverbStore) GetAll(ctx context.Context) ([]models.Proverb, error) {
	return p.table.all(ctx, "identifier", nil)
}

func (p *ProverbStore) GetAllUnviewed(ctx context.Context) ([]models.Proverb, error) {
	return p.table.all(ctx, "identifier", "viewed = ?", false)
}

func (p *ProverbStore) MarkAsViewed(ctx context.Context, identifier string) error {
	return p.table.update(ctx, "viewed", true, "identifier = ?", identifier)
}

func (p *ProverbStore) MarkAllAsUnviewed(ctx context.Context) error {
	return p.table.update(ctx, "viewed", false, nil)
}

func (p *ProverbStore) Count(ctx context.Context) (int64, error) {
	return p.table.count(ctx)
}
