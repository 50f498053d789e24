// Package app assembles the favorites client from configuration.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/localnerve/proverbs-sync/data"
	"github.com/localnerve/proverbs-sync/internal/account"
	"github.com/localnerve/proverbs-sync/internal/activity"
	"github.com/localnerve/proverbs-sync/internal/config"
	"github.com/localnerve/proverbs-sync/internal/events"
	"github.com/localnerve/proverbs-sync/internal/favorites"
	"github.com/localnerve/proverbs-sync/internal/localstore"
	"github.com/localnerve/proverbs-sync/internal/proverbs"
	"github.com/localnerve/proverbs-sync/internal/remotestore"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// App holds the client components, constructed once and shared by reference
type App struct {
	Config    *config.Config
	Log       logrus.FieldLogger
	Local     *localstore.Store
	Registry  *prometheus.Registry
	Tracker   *activity.Tracker
	Bus       *events.Bus
	Account   *account.Manager
	Favorites *favorites.Manager
	Proverbs  *proverbs.Manager

	closeRemote func() error
}

// New opens the local store, restores the account, seeds the proverbs and
// starts the favorites manager. A remote store that cannot be reached is
// logged and the app runs on the local store.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	a := &App{
		Config:   cfg,
		Log:      log,
		Local:    localstore.New(cfg.LocalDBPath, log),
		Registry: prometheus.NewRegistry(),
		Bus:      events.NewBus(),
	}

	tracker, err := activity.NewTracker(a.Registry, func(busy bool) {
		log.WithField("busy", busy).Debug("Network activity changed")
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Tracker = tracker

	var validator services.SessionValidator
	if cfg.AuthzURL != "" && cfg.AuthzClientID != "" {
		authz, err := services.NewAuthorizer(cfg, "", log)
		if err != nil {
			log.WithError(err).Warn("Authorizer unavailable, session sign in disabled")
		} else {
			validator = authz
		}
	}

	a.Account = account.NewManager(a.Local.Settings(), a.Bus, validator, log)
	if err := a.Account.Start(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Proverbs = proverbs.NewManager(a.Local.Proverbs(), a.Local.Settings(), log)
	if err := a.Proverbs.CheckAndPopulate(ctx, bytes.NewReader(data.Proverbs)); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to populate proverbs: %w", err)
	}

	newRemote, err := a.remoteFactory()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Favorites = favorites.New(a.Local.Favorites(), a.Account, a.Bus, newRemote, log, favorites.WithMaxFree(cfg.FreeMaxCount))
	if err := a.Favorites.Start(ctx); err != nil {
		log.WithError(err).Warn("Remote favorites unavailable, using local favorites")
	}

	return a, nil
}

func (a *App) remoteFactory() (favorites.RemoteFactory, error) {
	if a.Config.RemoteDSN == "" {
		a.Log.Debug("No REMOTE_DSN, favorites stay local")
		return nil, nil
	}

	backend, closeFn, err := remotestore.NewBackend(a.Config.RemoteDSN, a.Config.RemoteSession, a.Config.RemoteTimeout, a.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote backend: %w", err)
	}
	a.closeRemote = closeFn

	return func(userID string) favorites.RemoteStore {
		return remotestore.New(userID, backend, a.Tracker, a.Log)
	}, nil
}

// Close stops the favorites manager and closes the stores
func (a *App) Close() error {
	if a.Favorites != nil {
		a.Favorites.Close()
	}
	var errs []error
	if a.closeRemote != nil {
		errs = append(errs, a.closeRemote())
	}
	errs = append(errs, a.Local.Close())
	return errors.Join(errs...)
}
