package favorites

import "github.com/localnerve/proverbs-sync/internal/models"

// Item is either a plain proverb or a favorite. The zero Item is neither.
type Item struct {
	proverb  *models.Proverb
	favorite *models.FavoriteProverb
}

// Plain wraps a proverb
func Plain(p models.Proverb) Item {
	return Item{proverb: &p}
}

// Favorite wraps a favorite
func Favorite(f models.FavoriteProverb) Item {
	return Item{favorite: &f}
}

// Proverb returns the wrapped proverb, if any
func (i Item) Proverb() (models.Proverb, bool) {
	if i.proverb == nil {
		return models.Proverb{}, false
	}
	return *i.proverb, true
}

// FavoriteProverb returns the wrapped favorite, if any
func (i Item) FavoriteProverb() (models.FavoriteProverb, bool) {
	if i.favorite == nil {
		return models.FavoriteProverb{}, false
	}
	return *i.favorite, true
}

// OriginIdentifier is the identifier of the proverb the item refers to
func (i Item) OriginIdentifier() string {
	switch {
	case i.favorite != nil:
		return i.favorite.OriginIdentifier
	case i.proverb != nil:
		return i.proverb.Identifier
	}
	return ""
}
