package remotestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/localnerve/proverbs-sync/internal/activity"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/sirupsen/logrus"
)

// ErrNotReady is returned by collection operations before LoadOrCreateUserDocument succeeds
var ErrNotReady = errors.New("remote store is not prepared")

// Store is one user's favorites collection in the document service
type Store struct {
	userID  string
	backend Backend
	tracker *activity.Tracker
	log     logrus.FieldLogger
	ready   atomic.Bool
}

// New creates a store for userID. tracker may be nil.
func New(userID string, backend Backend, tracker *activity.Tracker, log logrus.FieldLogger) *Store {
	return &Store{
		userID:  userID,
		backend: backend,
		tracker: tracker,
		log:     log.WithField("user", userID),
	}
}

// UserIdentifier returns the owner of this store
func (s *Store) UserIdentifier() string {
	return s.userID
}

// track counts a request in flight until the returned func runs
func (s *Store) track() func() {
	if s.tracker == nil {
		return func() {}
	}
	return s.tracker.Track()
}

// LoadOrCreateUserDocument makes sure the user's root document exists
func (s *Store) LoadOrCreateUserDocument(ctx context.Context) error {
	defer s.track()()

	doc, err := s.backend.GetUser(ctx, s.userID)
	if errors.Is(err, services.ErrNotFound) {
		s.log.Info("Creating remote user document")
		doc, err = s.backend.CreateUser(ctx, s.userID)
	}
	if err != nil {
		return fmt.Errorf("failed to load user document: %w", err)
	}

	s.log.WithField("version", doc.Version).Debug("Remote user document ready")
	s.ready.Store(true)
	return nil
}

// Ready reports whether LoadOrCreateUserDocument has succeeded
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// GetAllFavoriteProverbs returns every favorite in the user's collection
func (s *Store) GetAllFavoriteProverbs(ctx context.Context) ([]models.FavoriteProverb, error) {
	return s.list(ctx, "")
}

// GetFavorite returns the favorite made from originIdentifier, or nil
func (s *Store) GetFavorite(ctx context.Context, originIdentifier string) (*models.FavoriteProverb, error) {
	favorites, err := s.list(ctx, originIdentifier)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return nil, nil
	}
	if len(favorites) > 1 {
		s.log.WithFields(logrus.Fields{
			"origin": originIdentifier,
			"count":  len(favorites),
		}).Warn("Multiple remote favorites for one proverb")
	}
	return &favorites[0], nil
}

// GetFavorites returns every favorite made from originIdentifier.
// More than one is possible after a migration that could not read the collection.
func (s *Store) GetFavorites(ctx context.Context, originIdentifier string) ([]models.FavoriteProverb, error) {
	if originIdentifier == "" {
		return nil, nil
	}
	return s.list(ctx, originIdentifier)
}

// IsFavorite reports whether the proverb originIdentifier is in the collection
func (s *Store) IsFavorite(ctx context.Context, originIdentifier string) (bool, error) {
	fav, err := s.GetFavorite(ctx, originIdentifier)
	return fav != nil, err
}

// Save stores one favorite
func (s *Store) Save(ctx context.Context, fav models.FavoriteProverb) error {
	return s.SaveBatch(ctx, []models.FavoriteProverb{fav})
}

// SaveBatch stores favorites in one request. An empty batch sends nothing.
func (s *Store) SaveBatch(ctx context.Context, favorites []models.FavoriteProverb) error {
	if len(favorites) == 0 {
		return nil
	}
	if !s.Ready() {
		return ErrNotReady
	}

	docs := make([]services.CollectionDocument, 0, len(favorites))
	for _, fav := range favorites {
		doc, err := toDocument(fav)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	defer s.track()()
	return s.backend.PutDocuments(ctx, s.userID, services.FavoriteProverbsCollection, docs)
}

// Delete removes fav from the collection
func (s *Store) Delete(ctx context.Context, fav models.FavoriteProverb) error {
	if !s.Ready() {
		return ErrNotReady
	}
	defer s.track()()
	return s.backend.DeleteDocument(ctx, s.userID, services.FavoriteProverbsCollection, fav.Identifier)
}

func (s *Store) list(ctx context.Context, originIdentifier string) ([]models.FavoriteProverb, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}

	defer s.track()()
	docs, err := s.backend.ListDocuments(ctx, s.userID, services.FavoriteProverbsCollection, originIdentifier)
	if err != nil {
		return nil, err
	}

	favorites := make([]models.FavoriteProverb, 0, len(docs))
	for _, doc := range docs {
		fav, err := fromDocument(doc)
		if err != nil {
			s.log.WithError(err).WithField("document", doc.ID).Warn("Skipping unreadable remote favorite")
			continue
		}
		favorites = append(favorites, fav)
	}
	return favorites, nil
}

func toDocument(fav models.FavoriteProverb) (services.CollectionDocument, error) {
	data, err := json.Marshal(fav)
	if err != nil {
		return services.CollectionDocument{}, err
	}
	return services.CollectionDocument{
		ID:               fav.Identifier,
		OriginIdentifier: fav.OriginIdentifier,
		Data:             data,
	}, nil
}

func fromDocument(doc services.CollectionDocument) (models.FavoriteProverb, error) {
	var fav models.FavoriteProverb
	if err := json.Unmarshal(doc.Data, &fav); err != nil {
		return fav, err
	}
	if fav.Identifier == "" {
		fav.Identifier = doc.ID
	}
	if fav.OriginIdentifier == "" {
		fav.OriginIdentifier = doc.OriginIdentifier
	}
	return fav, nil
}
