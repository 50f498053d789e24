package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/localnerve/proverbs-sync/internal/app"
	"github.com/localnerve/proverbs-sync/internal/config"
	"github.com/localnerve/proverbs-sync/internal/favorites"
	"github.com/localnerve/proverbs-sync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		LocalDBPath:   filepath.Join(dir, "proverbs.db"),
		RemoteDSN:     "sqlite:" + filepath.Join(dir, "documents.db"),
		RemoteTimeout: config.DefaultRemoteTimeout,
		FreeMaxCount:  3,
	}
}

func TestApp_LocalThenRemote(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := app.New(ctx, cfg, logging.Discard())
	require.NoError(t, err)

	all, err := a.Proverbs.All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	for _, p := range all[:3] {
		_, err := a.Favorites.Save(ctx, favorites.Plain(p))
		require.NoError(t, err)
	}
	_, err = a.Favorites.Save(ctx, favorites.Plain(all[3]))
	limit, ok := favorites.IsMaxLimit(err)
	require.True(t, ok)
	assert.Equal(t, 3, limit)

	require.NoError(t, a.Account.SetPurchased(ctx, true))
	require.NoError(t, a.Account.SignIn(ctx, "alice"))
	require.NoError(t, a.Favorites.WaitReady(ctx))
	assert.False(t, a.Favorites.IsLocalBackend())
	assert.Zero(t, a.Tracker.Count())
	require.NoError(t, a.Close())

	// the signed in user and migrated favorites survive a restart
	a, err = app.New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.Equal(t, "alice", a.Account.CurrentUserIdentifier())
	favs, err := a.Favorites.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 3)
	assert.Empty(t, a.Local.Favorites().GetAll(ctx))
}

func TestApp_NoRemote(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.RemoteDSN = ""

	a, err := app.New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.NoError(t, a.Account.SetPurchased(ctx, true))
	require.NoError(t, a.Account.SignIn(ctx, "alice"))
	assert.True(t, a.Favorites.IsLocalBackend())
}
