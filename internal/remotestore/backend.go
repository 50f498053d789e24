// Package remotestore keeps a signed in user's favorites in the document service.
package remotestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/localnerve/proverbs-sync/internal/database"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Backend is the transport to the per-user document store
type Backend interface {
	GetUser(ctx context.Context, userID string) (*services.UserDocumentResult, error)
	CreateUser(ctx context.Context, userID string) (*services.UserDocumentResult, error)
	ListDocuments(ctx context.Context, userID, collection, originIdentifier string) ([]services.CollectionDocument, error)
	PutDocuments(ctx context.Context, userID, collection string, docs []services.CollectionDocument) error
	DeleteDocument(ctx context.Context, userID, collection, documentID string) error
}

// NewBackend chooses a backend from dsn.
// http:// and https:// addresses use the document service API with the session cookie,
// anything else is a "<type>:<dsn>" database address used directly.
// The returned close func releases the backend's resources.
func NewBackend(dsn, session string, timeout time.Duration, log logrus.FieldLogger) (Backend, func() error, error) {
	if strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") {
		if session == "" {
			return nil, nil, fmt.Errorf("a session is required for %s", dsn)
		}
		backend := &HTTPBackend{BaseURL: strings.TrimRight(dsn, "/"), Session: session, Timeout: timeout, Log: log}
		return backend, func() error { return nil }, nil
	}

	db, err := database.ConnectDSN(dsn, 1)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, nil, fmt.Errorf("failed to migrate remote database: %w", err)
	}
	return &GormBackend{DB: db}, func() error { return database.Close(db) }, nil
}

// GormBackend talks to the document database directly
type GormBackend struct {
	DB *gorm.DB
}

func (g *GormBackend) GetUser(ctx context.Context, userID string) (*services.UserDocumentResult, error) {
	return services.GetUserDocument(g.DB.WithContext(ctx), userID)
}

func (g *GormBackend) CreateUser(ctx context.Context, userID string) (*services.UserDocumentResult, error) {
	doc, _, err := services.CreateUserDocument(g.DB.WithContext(ctx), userID)
	return doc, err
}

func (g *GormBackend) ListDocuments(ctx context.Context, userID, collection, originIdentifier string) ([]services.CollectionDocument, error) {
	result, err := services.GetCollectionDocuments(g.DB.WithContext(ctx), userID, collection, originIdentifier)
	if err != nil {
		return nil, err
	}
	return result.Documents, nil
}

func (g *GormBackend) PutDocuments(ctx context.Context, userID, collection string, docs []services.CollectionDocument) error {
	_, _, err := services.SetCollectionDocuments(g.DB.WithContext(ctx), userID, collection, docs)
	return err
}

func (g *GormBackend) DeleteDocument(ctx context.Context, userID, collection, documentID string) error {
	_, _, err := services.DeleteCollectionDocument(g.DB.WithContext(ctx), userID, collection, documentID)
	return err
}
