package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var first, second []Event
	bus.Subscribe(func(e Event) { first = append(first, e) })
	bus.Subscribe(func(e Event) { second = append(second, e) })

	bus.Publish(TypingSignal{ConnID: "c1", UserID: "u1", RoomID: "general"})
	bus.Publish(SessionConnected{ConnID: "c1", UserID: "u1"})

	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
	assert.Equal(t, first[0], TypingSignal{ConnID: "c1", UserID: "u1", RoomID: "general"})
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	var got int
	sub := bus.Subscribe(func(Event) { got++ })

	bus.Publish(SessionConnected{ConnID: "c1"})
	sub.Cancel()
	bus.Publish(SessionConnected{ConnID: "c2"})

	assert.Equal(t, 1, got)
}

func TestBusCancelIsIdempotent(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(func(Event) {})

	sub.Cancel()
	sub.Cancel()

	bus.Publish(SessionDisconnected{ConnID: "c1"})
}
