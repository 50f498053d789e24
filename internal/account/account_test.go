package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/proverbs-sync/internal/account"
	"github.com/localnerve/proverbs-sync/internal/events"
	"github.com/localnerve/proverbs-sync/internal/localstore"
	"github.com/localnerve/proverbs-sync/internal/logging"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validator map[string]string

func (v validator) ValidateSession(cookie string, roles []string) (*services.SessionUser, error) {
	id, ok := v[cookie]
	if !ok {
		return nil, errors.New("session is not valid")
	}
	return &services.SessionUser{ID: id, Roles: []string{"user"}}, nil
}

func setup(t *testing.T) (*account.Manager, *localstore.SettingsStore, *[]events.Kind) {
	t.Helper()
	store := localstore.NewWithDB(testutil.SetupLocalDB(t), logging.Discard())
	settings := store.Settings()
	bus := events.NewBus()

	var seen []events.Kind
	bus.Subscribe(func(e events.Event) { seen = append(seen, e.Kind()) })

	m := account.NewManager(settings, bus, validator{"good": "alice"}, logging.Discard())
	require.NoError(t, m.Start(context.Background()))
	return m, settings, &seen
}

func TestDerivePlan(t *testing.T) {
	assert.Equal(t, account.PlanFree, account.DerivePlan(false, false))
	assert.Equal(t, account.PlanFree, account.DerivePlan(true, false))
	assert.Equal(t, account.PlanPaid, account.DerivePlan(false, true))
	assert.Equal(t, account.PlanPaidRegistered, account.DerivePlan(true, true))
	assert.Equal(t, "paidRegistered", account.PlanPaidRegistered.String())
}

func TestManager_SignInRequiresPurchase(t *testing.T) {
	ctx := context.Background()
	m, _, seen := setup(t)

	assert.True(t, m.HasPurchaseRestriction())
	assert.ErrorIs(t, m.SignIn(ctx, "alice"), account.ErrPurchaseRequired)
	assert.False(t, m.IsSignedIn())
	assert.Empty(t, *seen)
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m, settings, seen := setup(t)

	require.NoError(t, m.SetPurchased(ctx, true))
	assert.Equal(t, account.PlanPaid, m.CurrentPlan())

	require.NoError(t, m.SignIn(ctx, "alice"))
	assert.Equal(t, account.PlanPaidRegistered, m.CurrentPlan())
	assert.Equal(t, "alice", m.CurrentUserIdentifier())

	require.NoError(t, m.SignIn(ctx, "alice"), "signing in again announces the user again")
	assert.Equal(t, "alice", m.CurrentUserIdentifier())

	require.NoError(t, m.SignOut(ctx))
	assert.False(t, m.IsSignedIn())
	assert.Equal(t, account.PlanPaid, m.CurrentPlan())

	assert.Equal(t, []events.Kind{
		events.KindPurchased,
		events.KindSignedIn,
		events.KindSignedIn,
		events.KindWillSignOut,
		events.KindSignedOut,
	}, *seen)

	_, ok, err := settings.Get(ctx, account.UserIdentifierKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_RestoresState(t *testing.T) {
	ctx := context.Background()
	m, settings, _ := setup(t)

	require.NoError(t, m.SetPurchased(ctx, true))
	require.NoError(t, m.SignIn(ctx, "alice"))

	restored := account.NewManager(settings, events.NewBus(), nil, logging.Discard())
	require.NoError(t, restored.Start(ctx))
	assert.Equal(t, "alice", restored.CurrentUserIdentifier())
	assert.Equal(t, account.PlanPaidRegistered, restored.CurrentPlan())
}

func TestManager_SignInWithSession(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setup(t)
	require.NoError(t, m.SetPurchased(ctx, true))

	assert.Error(t, m.SignInWithSession(ctx, "bad"))
	require.NoError(t, m.SignInWithSession(ctx, "good"))
	assert.Equal(t, "alice", m.CurrentUserIdentifier())

	noAuth := account.NewManager(nil, events.NewBus(), nil, logging.Discard())
	assert.ErrorIs(t, noAuth.SignInWithSession(ctx, "good"), account.ErrNoValidator)
}
