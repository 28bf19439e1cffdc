package events

import "sync"

// Event is a typed payload fanned out to subscribers.
type Event interface{ event() }

// SessionConnected is published once a session is registered.
type SessionConnected struct {
	ConnID   string
	UserID   string
	Username string
}

// SessionDisconnected is published exactly once per connection, after
// deregistration. Rooms is the membership snapshot at disconnect time.
type SessionDisconnected struct {
	ConnID string
	UserID string
	Rooms  []string
}

// TypingSignal is published for each typing frame a client sends.
type TypingSignal struct {
	ConnID string
	UserID string
	RoomID string
}

func (SessionConnected) event()    {}
func (SessionDisconnected) event() {}
func (TypingSignal) event()        {}

// Bus is a small synchronous pub/sub fan-out. Handlers run on the
// publisher's goroutine and must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscription is the handle to undo a Subscribe.
type Subscription struct {
	id  int
	bus *Bus
}

func (s *Subscription) Cancel() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
}

func (b *Bus) Subscribe(fn func(Event)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[b.nextID] = fn
	return &Subscription{id: b.nextID, bus: b}
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}
