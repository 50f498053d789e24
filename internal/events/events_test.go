package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_FiltersByKind(t *testing.T) {
	bus := NewBus()

	var saved []FavoriteSaved
	var all []Kind
	bus.Subscribe(func(e Event) { saved = append(saved, e.(FavoriteSaved)) }, KindFavoriteSaved)
	bus.Subscribe(func(e Event) { all = append(all, e.Kind()) })

	bus.Publish(FavoriteSaved{FavoriteIdentifier: "f1", OriginIdentifier: "p1"})
	bus.Publish(SignedOut{})

	assert.Equal(t, []FavoriteSaved{{FavoriteIdentifier: "f1", OriginIdentifier: "p1"}}, saved)
	assert.Equal(t, []Kind{KindFavoriteSaved, KindSignedOut}, all)
}

func TestBus_OrderAndUnsubscribe(t *testing.T) {
	bus := NewBus()

	var order []string
	unsubA := bus.Subscribe(func(Event) { order = append(order, "a") })
	bus.Subscribe(func(Event) { order = append(order, "b") })

	bus.Publish(Purchased{})
	unsubA()
	unsubA()
	bus.Publish(Purchased{})

	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestBus_HandlerMayPublish(t *testing.T) {
	bus := NewBus()

	var got []Kind
	bus.Subscribe(func(Event) { bus.Publish(SignedOut{}) }, KindWillSignOut)
	bus.Subscribe(func(e Event) { got = append(got, e.Kind()) }, KindSignedOut)

	bus.Publish(WillSignOut{UserIdentifier: "u1"})

	assert.Equal(t, []Kind{KindSignedOut}, got)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "willSignOut", KindWillSignOut.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
