// Package proverbs seeds the bundled proverbs and serves them for browsing.
package proverbs

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/sirupsen/logrus"
)

// InitialPopulationKey marks a completed seed in settings
const InitialPopulationKey = "proverbs.initialPopulation"

// minUnviewed is the number of unviewed proverbs below which all are shown again
const minUnviewed = 10

// ErrNoProverbs is returned when there is nothing to pick from
var ErrNoProverbs = errors.New("no proverbs available")

// Store is the proverb table
type Store interface {
	SaveAll(ctx context.Context, proverbs []models.Proverb) (int64, error)
	Get(ctx context.Context, identifier string) (*models.Proverb, error)
	GetAll(ctx context.Context) ([]models.Proverb, error)
	GetAllUnviewed(ctx context.Context) ([]models.Proverb, error)
	MarkAsViewed(ctx context.Context, identifier string) error
	MarkAllAsUnviewed(ctx context.Context) error
}

// Flags stores the seeded flag
type Flags interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// Manager serves proverbs from the local store
type Manager struct {
	store Store
	flags Flags
	log   logrus.FieldLogger
}

func NewManager(store Store, flags Flags, log logrus.FieldLogger) *Manager {
	return &Manager{store: store, flags: flags, log: log}
}

// seedEntry is one proverb in the bundled table, grouped by section
type seedEntry struct {
	Identifier string `json:"identifier"`
	Text       string `json:"text"`
	Meaning    string `json:"meaning"`
}

// CheckAndPopulate seeds the store from seed unless it was seeded before
func (m *Manager) CheckAndPopulate(ctx context.Context, seed io.Reader) error {
	done, err := m.flags.GetBool(ctx, InitialPopulationKey)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	added, err := m.PopulateFrom(ctx, seed)
	if err != nil {
		return err
	}
	m.log.WithField("count", added).Info("Initial proverbs population")
	return m.flags.SetBool(ctx, InitialPopulationKey, true)
}

// PopulateFrom reads a {section: [{identifier, text, meaning}]} table and stores
// the proverbs that are missing
func (m *Manager) PopulateFrom(ctx context.Context, seed io.Reader) (int64, error) {
	var table map[string][]seedEntry
	if err := json.NewDecoder(seed).Decode(&table); err != nil {
		return 0, fmt.Errorf("invalid proverbs table: %w", err)
	}

	now := time.Now().UTC()
	var proverbs []models.Proverb
	for section, entries := range table {
		for _, entry := range entries {
			if entry.Identifier == "" {
				m.log.WithField("section", section).Warn("Skipping proverb without identifier")
				continue
			}
			proverbs = append(proverbs, models.Proverb{
				Identifier: entry.Identifier,
				CreatedAt:  now,
				Text:       entry.Text,
				Meaning:    entry.Meaning,
				Section:    section,
			})
		}
	}
	return m.store.SaveAll(ctx, proverbs)
}

// NextRandom picks an unviewed proverb and marks it viewed.
// When fewer than ten are unviewed every proverb becomes unviewed first.
func (m *Manager) NextRandom(ctx context.Context) (models.Proverb, error) {
	unviewed, err := m.store.GetAllUnviewed(ctx)
	if err != nil {
		return models.Proverb{}, err
	}
	if len(unviewed) < minUnviewed {
		if err := m.store.MarkAllAsUnviewed(ctx); err != nil {
			return models.Proverb{}, err
		}
		if unviewed, err = m.store.GetAllUnviewed(ctx); err != nil {
			return models.Proverb{}, err
		}
	}
	if len(unviewed) == 0 {
		return models.Proverb{}, ErrNoProverbs
	}

	proverb := unviewed[rand.IntN(len(unviewed))]
	if err := m.store.MarkAsViewed(ctx, proverb.Identifier); err != nil {
		return models.Proverb{}, err
	}
	proverb.Viewed = true
	return proverb, nil
}

// Sections returns the distinct sections in order
func (m *Manager) Sections(ctx context.Context) ([]string, error) {
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sections := make([]string, 0, len(all))
	for _, p := range all {
		sections = append(sections, p.Section)
	}
	slices.Sort(sections)
	return slices.Compact(sections), nil
}

// All returns every proverb sorted alphabetically
func (m *Manager) All(ctx context.Context) ([]models.Proverb, error) {
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return SortAlphabetically(all), nil
}

// Get returns one proverb, or nil when it does not exist
func (m *Manager) Get(ctx context.Context, identifier string) (*models.Proverb, error) {
	return m.store.Get(ctx, identifier)
}

// SortAlphabetically orders by section, then by the text after the last ")".
// The input is not modified.
func SortAlphabetically[T models.Content](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		if c := cmp.Compare(a.GetSection(), b.GetSection()); c != 0 {
			return c
		}
		return cmp.Compare(sortKey(a.GetText()), sortKey(b.GetText()))
	})
	return out
}

// SortByAddedDate orders newest first. The input is not modified.
func SortByAddedDate[T models.Content](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return b.GetCreatedAt().Compare(a.GetCreatedAt())
	})
	return out
}

// sortKey drops a "12)" style numbering prefix
func sortKey(text string) string {
	parts := strings.Split(text, ")")
	for i := len(parts) - 1; i >= 0; i-- {
		if key := strings.TrimSpace(parts[i]); key != "" {
			return key
		}
	}
	return strings.TrimSpace(text)
}
