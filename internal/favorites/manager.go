// Package favorites decides where a user's favorites live and keeps them in one place.
//
// Favorites are kept on the device unless the account is signed in with a purchase,
// in which case the user's remote collection is used. When a user signs in, local
// favorites are moved to the remote collection before any remote request is served.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/localnerve/proverbs-sync/internal/account"
	"github.com/localnerve/proverbs-sync/internal/events"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/localnerve/proverbs-sync/internal/types"
	"github.com/sirupsen/logrus"
)

// DefaultMaxFree is the number of favorites allowed before a purchase
const DefaultMaxFree = 5

// LocalStore holds favorites on this device
type LocalStore interface {
	GetAll(ctx context.Context) []models.FavoriteProverb
	Get(ctx context.Context, originIdentifier string) (*models.FavoriteProverb, error)
	Save(ctx context.Context, fav models.FavoriteProverb) error
	Delete(ctx context.Context, fav models.FavoriteProverb) error
	DeleteAll(ctx context.Context, except string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// RemoteStore holds one user's favorites in the document service
type RemoteStore interface {
	LoadOrCreateUserDocument(ctx context.Context) error
	GetAllFavoriteProverbs(ctx context.Context) ([]models.FavoriteProverb, error)
	GetFavorite(ctx context.Context, originIdentifier string) (*models.FavoriteProverb, error)
	GetFavorites(ctx context.Context, originIdentifier string) ([]models.FavoriteProverb, error)
	IsFavorite(ctx context.Context, originIdentifier string) (bool, error)
	Save(ctx context.Context, fav models.FavoriteProverb) error
	SaveBatch(ctx context.Context, favs []models.FavoriteProverb) error
	Delete(ctx context.Context, fav models.FavoriteProverb) error
}

// RemoteFactory creates the remote store for a user
type RemoteFactory func(userID string) RemoteStore

// Option configures a Manager
type Option func(*Manager)

// WithMaxFree sets the favorites limit for accounts without a purchase
func WithMaxFree(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxFree = n
		}
	}
}

// Manager is the single entry point for favorites
type Manager struct {
	local     LocalStore
	account   account.Provider
	bus       *events.Bus
	newRemote RemoteFactory
	log       logrus.FieldLogger
	maxFree   int

	// localMu serializes local writes so the free limit holds under concurrency
	localMu sync.Mutex

	mu         sync.Mutex
	remote     RemoteStore
	gate       chan struct{}
	generation uint64

	// wg counts background work; closed under mu stops new work being added
	wg          sync.WaitGroup
	closed      bool
	unsubscribe func()
}

// New creates a manager. newRemote may be nil, which keeps every plan on the local store.
func New(local LocalStore, acct account.Provider, bus *events.Bus, newRemote RemoteFactory, log logrus.FieldLogger, opts ...Option) *Manager {
	gate := make(chan struct{})
	close(gate)

	m := &Manager{
		local:     local,
		account:   acct,
		bus:       bus,
		newRemote: newRemote,
		log:       log,
		maxFree:   DefaultMaxFree,
		gate:      gate,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start subscribes to account events and, for a user that is already signed in,
// prepares the remote store and migrates local favorites before returning.
// A failure to reach the remote store is returned, and the manager stays on
// the local store until the next sign in.
func (m *Manager) Start(ctx context.Context) error {
	m.unsubscribe = m.bus.Subscribe(m.onAccountEvent, events.KindSignedIn, events.KindWillSignOut, events.KindPurchased)

	userID := m.account.CurrentUserIdentifier()
	if userID == "" || m.newRemote == nil {
		return nil
	}
	gen, gate := m.beginConnect()
	return m.finishConnect(ctx, gen, gate, userID)
}

// Close stops listening for account events and waits for background work.
// Async calls made after Close complete with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.wg.Wait()
}

// spawn runs fn on a goroutine Close waits for. It reports false, without
// running fn, once the manager is closed.
func (m *Manager) spawn(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		fn()
	}()
	return true
}

// WaitReady blocks until a pending remote connection and migration has finished
func (m *Manager) WaitReady(ctx context.Context) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()

	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsLocalBackend reports whether favorites are currently served from the device
func (m *Manager) IsLocalBackend() bool {
	if m.account.CurrentPlan() != account.PlanPaidRegistered {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remote == nil
}

func (m *Manager) onAccountEvent(e events.Event) {
	switch e := e.(type) {
	case events.SignedIn:
		m.connectAsync(e.UserIdentifier)
	case events.Purchased:
		if userID := m.account.CurrentUserIdentifier(); userID != "" {
			m.connectAsync(userID)
		}
	case events.WillSignOut:
		m.disconnect()
	}
}

// connectAsync closes the gate before returning so requests made after a
// sign in wait for the migration.
func (m *Manager) connectAsync(userID string) {
	if m.newRemote == nil {
		return
	}
	gen, gate := m.beginConnect()

	started := m.spawn(func() {
		if err := m.finishConnect(context.Background(), gen, gate, userID); err != nil {
			entry := m.log.WithError(err).WithField("user", userID)
			var remoteErr *types.CustomError
			if errors.As(err, &remoteErr) {
				entry = entry.WithField("temporary", remoteErr.Temporary())
			}
			entry.Warn("Remote favorites unavailable, staying local")
		}
	})
	if !started {
		close(gate)
	}
}

func (m *Manager) beginConnect() (uint64, chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.remote = nil
	m.gate = make(chan struct{})
	return m.generation, m.gate
}

func (m *Manager) finishConnect(ctx context.Context, gen uint64, gate chan struct{}, userID string) error {
	defer close(gate)

	remote := m.newRemote(userID)
	if err := remote.LoadOrCreateUserDocument(ctx); err != nil {
		return fmt.Errorf("failed to prepare remote favorites: %w", err)
	}

	if m.account.CurrentPlan() == account.PlanPaidRegistered {
		if err := m.migrate(ctx, remote); err != nil {
			m.log.WithError(err).WithField("user", userID).Error("Favorites migration failed, local favorites kept")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		m.log.WithField("user", userID).Debug("Discarding stale remote connection")
		return nil
	}
	m.remote = remote
	return nil
}

// disconnect drops the remote store so no request uses the old session
func (m *Manager) disconnect() {
	gate := make(chan struct{})
	close(gate)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.remote = nil
	m.gate = gate
}

// migrate moves local favorites whose proverb is not already a remote favorite
// to the remote store, then empties the local store. When the remote
// favorites cannot be read every local favorite is sent.
func (m *Manager) migrate(ctx context.Context, remote RemoteStore) error {
	m.localMu.Lock()
	defer m.localMu.Unlock()

	local := m.local.GetAll(ctx)
	if len(local) == 0 {
		return nil
	}

	pending := local
	existing, err := remote.GetAllFavoriteProverbs(ctx)
	if err != nil {
		m.log.WithError(err).Warn("Could not read remote favorites, migrating all local favorites")
	} else {
		origins := make(map[string]struct{}, len(existing))
		for _, fav := range existing {
			origins[fav.OriginIdentifier] = struct{}{}
		}
		pending = make([]models.FavoriteProverb, 0, len(local))
		for _, fav := range local {
			if _, ok := origins[fav.OriginIdentifier]; !ok {
				pending = append(pending, fav)
			}
		}
	}

	if err := remote.SaveBatch(ctx, pending); err != nil {
		return fmt.Errorf("failed to save local favorites remotely: %w", err)
	}
	if _, err := m.local.DeleteAll(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear local favorites: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"local":    len(local),
		"migrated": len(pending),
	}).Info("Migrated local favorites")
	return nil
}

// backend waits for a pending migration and returns the remote store, or nil for the local store
func (m *Manager) backend(ctx context.Context) (RemoteStore, error) {
	if err := m.WaitReady(ctx); err != nil {
		return nil, err
	}
	if m.account.CurrentPlan() != account.PlanPaidRegistered {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remote, nil
}

// GetAll returns every favorite in the active store
func (m *Manager) GetAll(ctx context.Context) ([]models.FavoriteProverb, error) {
	remote, err := m.backend(ctx)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		return m.local.GetAll(ctx), nil
	}

	favs, err := remote.GetAllFavoriteProverbs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	return favs, nil
}

// IsFavorite reports whether item is a favorite. Favorite items always are.
func (m *Manager) IsFavorite(ctx context.Context, item Item) (bool, error) {
	if _, ok := item.FavoriteProverb(); ok {
		return true, nil
	}
	origin := item.OriginIdentifier()
	if origin == "" {
		return false, ErrUndefined
	}

	fav, err := m.find(ctx, origin)
	return fav != nil, err
}

// Save makes a favorite from a plain proverb and publishes FavoriteSaved.
// Saving a proverb that is already a favorite returns the stored favorite.
func (m *Manager) Save(ctx context.Context, item Item) (models.FavoriteProverb, error) {
	if _, ok := item.FavoriteProverb(); ok {
		return models.FavoriteProverb{}, ErrIsFavorite
	}
	proverb, ok := item.Proverb()
	if !ok || proverb.Identifier == "" {
		return models.FavoriteProverb{}, ErrUndefined
	}

	remote, err := m.backend(ctx)
	if err != nil {
		return models.FavoriteProverb{}, err
	}

	var fav models.FavoriteProverb
	if remote == nil {
		fav, err = m.saveLocal(ctx, proverb)
	} else {
		fav, err = saveRemote(ctx, remote, proverb)
	}
	if err != nil {
		return models.FavoriteProverb{}, err
	}

	m.bus.Publish(events.FavoriteSaved{
		FavoriteIdentifier: fav.Identifier,
		OriginIdentifier:   fav.OriginIdentifier,
	})
	return fav, nil
}

func (m *Manager) saveLocal(ctx context.Context, proverb models.Proverb) (models.FavoriteProverb, error) {
	m.localMu.Lock()
	defer m.localMu.Unlock()

	existing, err := m.local.Get(ctx, proverb.Identifier)
	if err != nil {
		return models.FavoriteProverb{}, fmt.Errorf("failed to read favorite: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}

	if m.account.HasPurchaseRestriction() {
		count, err := m.local.Count(ctx)
		if err != nil {
			return models.FavoriteProverb{}, fmt.Errorf("failed to count favorites: %w", err)
		}
		if count >= int64(m.maxFree) {
			return models.FavoriteProverb{}, &MaxLimitError{Limit: m.maxFree}
		}
	}

	fav := models.NewFavoriteProverb(proverb)
	if err := m.local.Save(ctx, fav); err != nil {
		return models.FavoriteProverb{}, fmt.Errorf("failed to save favorite: %w", err)
	}
	return fav, nil
}

func saveRemote(ctx context.Context, remote RemoteStore, proverb models.Proverb) (models.FavoriteProverb, error) {
	existing, err := remote.GetFavorite(ctx, proverb.Identifier)
	if err != nil {
		return models.FavoriteProverb{}, fmt.Errorf("failed to read favorite: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}

	fav := models.NewFavoriteProverb(proverb)
	if err := remote.Save(ctx, fav); err != nil {
		return models.FavoriteProverb{}, fmt.Errorf("failed to save favorite: %w", err)
	}
	return fav, nil
}

// Delete removes item's favorite and publishes FavoriteDeleted.
// A Favorite item removes that exact record. A Plain item, or a Favorite whose
// record is not in the active store, removes the first record for its proverb.
func (m *Manager) Delete(ctx context.Context, item Item) error {
	origin := item.OriginIdentifier()
	if origin == "" {
		return ErrUndefined
	}

	remote, err := m.backend(ctx)
	if err != nil {
		return err
	}

	var fav *models.FavoriteProverb
	if remote == nil {
		m.localMu.Lock()
		var found *models.FavoriteProverb
		found, err = m.local.Get(ctx, origin)
		if err == nil && found != nil {
			fav = deleteTarget(item, []models.FavoriteProverb{*found})
			err = m.local.Delete(ctx, *fav)
		}
		m.localMu.Unlock()
	} else {
		var found []models.FavoriteProverb
		found, err = remote.GetFavorites(ctx, origin)
		if err == nil && len(found) > 0 {
			fav = deleteTarget(item, found)
			err = remote.Delete(ctx, *fav)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if fav == nil {
		return ErrIsNotFavorite
	}

	m.bus.Publish(events.FavoriteDeleted{
		FavoriteIdentifier: fav.Identifier,
		OriginIdentifier:   fav.OriginIdentifier,
	})
	return nil
}

// deleteTarget picks the record to remove from the non-empty found set
func deleteTarget(item Item, found []models.FavoriteProverb) *models.FavoriteProverb {
	if f, ok := item.FavoriteProverb(); ok {
		for i := range found {
			if found[i].Identifier == f.Identifier {
				return &found[i]
			}
		}
	}
	return &found[0]
}

// find looks up the favorite for origin in the active store
func (m *Manager) find(ctx context.Context, origin string) (*models.FavoriteProverb, error) {
	remote, err := m.backend(ctx)
	if err != nil {
		return nil, err
	}

	var fav *models.FavoriteProverb
	if remote == nil {
		fav, err = m.local.Get(ctx, origin)
	} else {
		fav, err = remote.GetFavorite(ctx, origin)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorite: %w", err)
	}
	return fav, nil
}

// IsMaxLimit reports whether err is a favorites limit error, and the limit
func IsMaxLimit(err error) (int, bool) {
	var limitErr *MaxLimitError
	if errors.As(err, &limitErr) {
		return limitErr.Limit, true
	}
	return 0, false
}
