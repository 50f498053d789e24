// Package events is a typed, in-process publish/subscribe bus.
package events

import (
	"sort"
	"sync"
)

// Kind identifies an event type
type Kind int

const (
	KindFavoriteSaved Kind = iota + 1
	KindFavoriteDeleted
	KindSignedIn
	KindWillSignOut
	KindSignedOut
	KindPurchased
)

func (k Kind) String() string {
	switch k {
	case KindFavoriteSaved:
		return "favoriteSaved"
	case KindFavoriteDeleted:
		return "favoriteDeleted"
	case KindSignedIn:
		return "signedIn"
	case KindWillSignOut:
		return "willSignOut"
	case KindSignedOut:
		return "signedOut"
	case KindPurchased:
		return "purchased"
	}
	return "unknown"
}

// Event is implemented only by the event types in this package
type Event interface {
	Kind() Kind
	sealed()
}

// FavoriteSaved is published after a favorite is stored
type FavoriteSaved struct {
	FavoriteIdentifier string
	OriginIdentifier   string
}

// FavoriteDeleted is published after a favorite is removed
type FavoriteDeleted struct {
	FavoriteIdentifier string
	OriginIdentifier   string
}

// SignedIn is published after a user signs in
type SignedIn struct {
	UserIdentifier string
}

// WillSignOut is published before the session is dropped
type WillSignOut struct {
	UserIdentifier string
}

// SignedOut is published after sign-out completes
type SignedOut struct{}

// Purchased is published when the purchase state becomes true
type Purchased struct{}

func (FavoriteSaved) Kind() Kind   { return KindFavoriteSaved }
func (FavoriteDeleted) Kind() Kind { return KindFavoriteDeleted }
func (SignedIn) Kind() Kind        { return KindSignedIn }
func (WillSignOut) Kind() Kind     { return KindWillSignOut }
func (SignedOut) Kind() Kind       { return KindSignedOut }
func (Purchased) Kind() Kind       { return KindPurchased }

func (FavoriteSaved) sealed()   {}
func (FavoriteDeleted) sealed() {}
func (SignedIn) sealed()        {}
func (WillSignOut) sealed()     {}
func (SignedOut) sealed()       {}
func (Purchased) sealed()       {}

// Handler receives published events
type Handler func(Event)

type subscription struct {
	handler Handler
	kinds   map[Kind]struct{}
}

// Bus delivers events synchronously, in subscription order, on the publisher's goroutine.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers h for the given kinds, or for every kind when none are given.
// The returned func removes the subscription.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) func() {
	sub := subscription{handler: h}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every matching handler before returning
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id, sub := range b.subs {
		if sub.kinds != nil {
			if _, ok := sub.kinds[e.Kind()]; !ok {
				continue
			}
		}
		ids = append(ids, id)
	}
	handlers := make([]Handler, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, b.subs[id].handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
