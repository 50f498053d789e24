package favorites

import (
	"context"

	"github.com/localnerve/proverbs-sync/internal/models"
)

// The Async methods run the operation on its own goroutine and call done
// exactly once with the result. done may be nil. Close waits for them, and
// after Close done receives ErrClosed.

func (m *Manager) GetAllAsync(ctx context.Context, done func([]models.FavoriteProverb, error)) {
	async(m, func() ([]models.FavoriteProverb, error) { return m.GetAll(ctx) }, done)
}

func (m *Manager) IsFavoriteAsync(ctx context.Context, item Item, done func(bool, error)) {
	async(m, func() (bool, error) { return m.IsFavorite(ctx, item) }, done)
}

func (m *Manager) SaveAsync(ctx context.Context, item Item, done func(models.FavoriteProverb, error)) {
	async(m, func() (models.FavoriteProverb, error) { return m.Save(ctx, item) }, done)
}

func (m *Manager) DeleteAsync(ctx context.Context, item Item, done func(error)) {
	async(m, func() (struct{}, error) { return struct{}{}, m.Delete(ctx, item) }, func(_ struct{}, err error) {
		if done != nil {
			done(err)
		}
	})
}

func async[T any](m *Manager, op func() (T, error), done func(T, error)) {
	started := m.spawn(func() {
		value, err := op()
		if done != nil {
			done(value, err)
		}
	})
	if !started && done != nil {
		var zero T
		done(zero, ErrClosed)
	}
}
