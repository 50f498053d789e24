package containers_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/localnerve/proverbs-sync/internal/containers"
	"github.com/localnerve/proverbs-sync/internal/logging"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/localnerve/proverbs-sync/internal/remotestore"
	"github.com/localnerve/proverbs-sync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with a .env that sets DB_TYPE=mariadb, DB_IMAGE, DB_HOST, DB_PORT,
// DB_ROOT_PASSWORD and the DB_APP_* values.
func TestRemoteStore_MariaDB(t *testing.T) {
	if testing.Short() || os.Getenv("DB_IMAGE") == "" {
		t.Skip("DB_IMAGE not set, skipping container test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	stack, err := containers.StartDatabase(ctx, t)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Terminate(context.Background(), t) })

	backend, closeBackend, err := remotestore.NewBackend(stack.DocumentsDSN, "", 0, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { closeBackend() })

	store := remotestore.New("container-user", backend, nil, logging.Discard())
	require.NoError(t, store.LoadOrCreateUserDocument(ctx))
	// A second load finds the existing document
	require.NoError(t, store.LoadOrCreateUserDocument(ctx))

	batch := []models.FavoriteProverb{
		models.NewFavoriteProverb(testutil.TestProverb(1)),
		models.NewFavoriteProverb(testutil.TestProverb(2)),
	}
	require.NoError(t, store.SaveBatch(ctx, batch))

	all, err := store.GetAllFavoriteProverbs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fav, err := store.GetFavorite(ctx, batch[1].OriginIdentifier)
	require.NoError(t, err)
	require.NotNil(t, fav)
	assert.Equal(t, batch[1].Identifier, fav.Identifier)
	assert.Equal(t, batch[1].Text, fav.Text)

	require.NoError(t, store.Delete(ctx, *fav))
	is, err := store.IsFavorite(ctx, batch[1].OriginIdentifier)
	require.NoError(t, err)
	assert.False(t, is)
}
