// Package account tracks the signed in user and purchase state that decide the storage plan.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/localnerve/proverbs-sync/internal/events"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/sirupsen/logrus"
)

// Setting keys
const (
	UserIdentifierKey = "account.userIdentifier"
	PurchasedKey      = "account.purchased"
)

// Plan decides which store holds favorites
type Plan int

const (
	PlanFree Plan = iota
	PlanPaid
	PlanPaidRegistered
)

func (p Plan) String() string {
	switch p {
	case PlanPaid:
		return "paid"
	case PlanPaidRegistered:
		return "paidRegistered"
	}
	return "free"
}

// DerivePlan maps sign-in and purchase state to a plan
func DerivePlan(signedIn, purchased bool) Plan {
	switch {
	case signedIn && purchased:
		return PlanPaidRegistered
	case purchased:
		return PlanPaid
	}
	return PlanFree
}

var (
	// ErrPurchaseRequired is returned when signing in without a purchase
	ErrPurchaseRequired = errors.New("sign in requires a purchase")
	// ErrNoValidator is returned by SignInWithSession when no authorizer is configured
	ErrNoValidator = errors.New("no session validator configured")
)

// Provider is the read side of the account state
type Provider interface {
	IsSignedIn() bool
	CurrentUserIdentifier() string
	CurrentPlan() Plan
	HasPurchaseRestriction() bool
}

// Settings persists account state between runs
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	Delete(ctx context.Context, key string) error
}

// Manager owns the account state and publishes its changes on the bus
type Manager struct {
	settings  Settings
	bus       *events.Bus
	validator services.SessionValidator
	log       logrus.FieldLogger

	mu        sync.RWMutex
	userID    string
	purchased bool
}

// NewManager creates a manager. validator may be nil when sessions are not used.
func NewManager(settings Settings, bus *events.Bus, validator services.SessionValidator, log logrus.FieldLogger) *Manager {
	return &Manager{
		settings:  settings,
		bus:       bus,
		validator: validator,
		log:       log,
	}
}

// Start restores the persisted state. No events are published.
func (m *Manager) Start(ctx context.Context) error {
	userID, _, err := m.settings.Get(ctx, UserIdentifierKey)
	if err != nil {
		return fmt.Errorf("failed to restore account: %w", err)
	}
	purchased, err := m.settings.GetBool(ctx, PurchasedKey)
	if err != nil {
		return fmt.Errorf("failed to restore purchase state: %w", err)
	}

	m.mu.Lock()
	m.userID = userID
	m.purchased = purchased
	m.mu.Unlock()

	m.log.WithField("plan", m.CurrentPlan()).Debug("Account restored")
	return nil
}

func (m *Manager) IsSignedIn() bool {
	return m.CurrentUserIdentifier() != ""
}

func (m *Manager) CurrentUserIdentifier() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

func (m *Manager) CurrentPlan() Plan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return DerivePlan(m.userID != "", m.purchased)
}

// HasPurchaseRestriction is true until a purchase is made
func (m *Manager) HasPurchaseRestriction() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.purchased
}

// SignIn makes userID the current user and publishes SignedIn.
// Signing in again as the current user publishes SignedIn again, so
// listeners can retry work that failed on the first sign in.
func (m *Manager) SignIn(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user identifier is required")
	}
	if m.HasPurchaseRestriction() {
		return ErrPurchaseRequired
	}
	if m.CurrentUserIdentifier() == userID {
		m.log.WithField("user", userID).Info("Signed in again")
		m.bus.Publish(events.SignedIn{UserIdentifier: userID})
		return nil
	}
	if m.IsSignedIn() {
		if err := m.SignOut(ctx); err != nil {
			return err
		}
	}

	if err := m.settings.Set(ctx, UserIdentifierKey, userID); err != nil {
		return fmt.Errorf("failed to persist sign in: %w", err)
	}

	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()

	m.log.WithField("user", userID).Info("Signed in")
	m.bus.Publish(events.SignedIn{UserIdentifier: userID})
	return nil
}

// SignInWithSession validates an authorizer session cookie and signs in as its user
func (m *Manager) SignInWithSession(ctx context.Context, session string) error {
	if m.validator == nil {
		return ErrNoValidator
	}
	user, err := m.validator.ValidateSession(session, []string{"user"})
	if err != nil {
		return fmt.Errorf("failed to validate session: %w", err)
	}
	return m.SignIn(ctx, user.ID)
}

// SignOut publishes WillSignOut, forgets the user and publishes SignedOut
func (m *Manager) SignOut(ctx context.Context) error {
	userID := m.CurrentUserIdentifier()
	if userID == "" {
		return nil
	}

	m.bus.Publish(events.WillSignOut{UserIdentifier: userID})

	if err := m.settings.Delete(ctx, UserIdentifierKey); err != nil {
		return fmt.Errorf("failed to persist sign out: %w", err)
	}

	m.mu.Lock()
	m.userID = ""
	m.mu.Unlock()

	m.log.WithField("user", userID).Info("Signed out")
	m.bus.Publish(events.SignedOut{})
	return nil
}

// SetPurchased records the purchase state. Becoming purchased publishes Purchased.
func (m *Manager) SetPurchased(ctx context.Context, purchased bool) error {
	if err := m.settings.SetBool(ctx, PurchasedKey, purchased); err != nil {
		return fmt.Errorf("failed to persist purchase: %w", err)
	}

	m.mu.Lock()
	changed := m.purchased != purchased
	m.purchased = purchased
	m.mu.Unlock()

	if changed && purchased {
		m.bus.Publish(events.Purchased{})
	}
	return nil
}
