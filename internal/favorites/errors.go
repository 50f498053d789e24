package favorites

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefined is returned for requests that carry nothing to act on
	ErrUndefined = errors.New("favorites: undefined")
	// ErrIsFavorite is returned when saving something that is already a favorite
	ErrIsFavorite = errors.New("favorites: already a favorite")
	// ErrIsNotFavorite is returned when deleting a proverb that is not a favorite
	ErrIsNotFavorite = errors.New("favorites: not a favorite")
	// ErrClosed is returned to async callers after Close
	ErrClosed = errors.New("favorites: manager closed")
	// ErrMaxLimit matches any *MaxLimitError
	ErrMaxLimit = errors.New("favorites: max limit reached")
)

// MaxLimitError is returned when a restricted account reaches its favorites limit
type MaxLimitError struct {
	Limit int
}

func (e *MaxLimitError) Error() string {
	return fmt.Sprintf("favorites: limit of %d favorites reached", e.Limit)
}

func (e *MaxLimitError) Is(target error) bool {
	return target == ErrMaxLimit
}
