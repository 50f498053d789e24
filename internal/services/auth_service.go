package services

import (
	"encoding/json"
	"fmt"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/proverbs-sync/internal/config"
	"github.com/localnerve/proverbs-sync/internal/utils"
	"github.com/sirupsen/logrus"
)

// SessionUser is the authenticated user behind a session cookie
type SessionUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the user carries the given role
func (u *SessionUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SessionValidator validates session cookies
type SessionValidator interface {
	ValidateSession(cookie string, roles []string) (*SessionUser, error)
}

// Authorizer validates sessions against an Authorizer service
type Authorizer struct {
	client *authorizer.AuthorizerClient
}

// NewAuthorizer pings the Authorizer service and creates a client for it
func NewAuthorizer(cfg *config.Config, redirectURL string, log logrus.FieldLogger) (*Authorizer, error) {
	if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
		return nil, fmt.Errorf("authorizer ping failed: %w", err)
	}

	log.WithFields(logrus.Fields{
		"authorizerURL": cfg.AuthzURL,
		"clientID":      cfg.AuthzClientID,
		"redirectURL":   redirectURL,
	}).Info("Initializing Authorizer")

	client, err := authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer client: %w", err)
	}
	return &Authorizer{client: client}, nil
}

// ValidateSession validates a session cookie for the given roles
func (a *Authorizer) ValidateSession(cookie string, roles []string) (*SessionUser, error) {
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid {
		return nil, fmt.Errorf("session is not valid")
	}

	return decodeSessionUser(res.User)
}

// decodeSessionUser reads the SDK user through its JSON form
func decodeSessionUser(user interface{}) (*SessionUser, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("invalid session user: %w", err)
	}
	var out SessionUser
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("invalid session user: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("session user has no id")
	}
	return &out, nil
}
