package presence

import (
	"context"
	"sync"
	"time"

	"chatsphere/internal/broadcast"
	"chatsphere/internal/events"
	"chatsphere/internal/models"
	"chatsphere/internal/session"
	"chatsphere/pkg/logger"
)

// EntitledRooms lists the rooms a user may appear present in.
type EntitledRooms func(ctx context.Context, userID string) ([]string, error)

type timerKey struct {
	userID string
	roomID string
}

// Tracker derives presence transitions from session lifecycle and typing
// signals. Typing expires to idle on its own; offline waits out a debounce
// window so a rapid reconnect never flaps.
type Tracker struct {
	registry *session.Registry
	sender   broadcast.Sender
	entitled EntitledRooms

	typingExpiry    time.Duration
	offlineDebounce time.Duration

	mu            sync.Mutex
	typingTimers  map[timerKey]*time.Timer
	offlineTimers map[timerKey]*time.Timer
	stopped       bool

	sub *events.Subscription
}

func NewTracker(registry *session.Registry, sender broadcast.Sender, entitled EntitledRooms, typingExpiry, offlineDebounce time.Duration) *Tracker {
	return &Tracker{
		registry:        registry,
		sender:          sender,
		entitled:        entitled,
		typingExpiry:    typingExpiry,
		offlineDebounce: offlineDebounce,
		typingTimers:    make(map[timerKey]*time.Timer),
		offlineTimers:   make(map[timerKey]*time.Timer),
	}
}

// Start subscribes the tracker to session lifecycle events.
func (t *Tracker) Start(bus *events.Bus) {
	t.sub = bus.Subscribe(t.handle)
}

// Stop cancels the subscription and all pending timers.
func (t *Tracker) Stop() {
	if t.sub != nil {
		t.sub.Cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for _, timer := range t.typingTimers {
		timer.Stop()
	}
	for _, timer := range t.offlineTimers {
		timer.Stop()
	}
	t.typingTimers = make(map[timerKey]*time.Timer)
	t.offlineTimers = make(map[timerKey]*time.Timer)
}

func (t *Tracker) handle(event events.Event) {
	switch e := event.(type) {
	case events.SessionConnected:
		t.handleConnected(e)
	case events.SessionDisconnected:
		t.handleDisconnected(e)
	case events.TypingSignal:
		t.handleTyping(e)
	}
}

func (t *Tracker) handleConnected(e events.SessionConnected) {
	rooms, err := t.entitled(context.Background(), e.UserID)
	if err != nil {
		logger.Error("Error resolving entitled rooms for user %s: %v", e.UserID, err)
		return
	}

	for _, roomID := range rooms {
		// A reconnect inside the debounce window cancels the pending
		// offline broadcast instead of letting it flap.
		t.cancelOffline(e.UserID, roomID)
		t.broadcastState(roomID, e.UserID, models.PresenceActive)
	}
}

func (t *Tracker) handleTyping(e events.TypingSignal) {
	t.broadcast(e.RoomID, e.UserID, models.PresenceTyping, e.ConnID)

	key := timerKey{userID: e.UserID, roomID: e.RoomID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if timer, ok := t.typingTimers[key]; ok {
		timer.Stop()
	}
	t.typingTimers[key] = time.AfterFunc(t.typingExpiry, func() {
		t.mu.Lock()
		delete(t.typingTimers, key)
		stopped := t.stopped
		t.mu.Unlock()
		if !stopped {
			t.broadcastState(e.RoomID, e.UserID, models.PresenceIdle)
		}
	})
}

func (t *Tracker) handleDisconnected(e events.SessionDisconnected) {
	for _, roomID := range e.Rooms {
		key := timerKey{userID: e.UserID, roomID: roomID}

		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		if timer, ok := t.offlineTimers[key]; ok {
			timer.Stop()
		}
		t.offlineTimers[key] = time.AfterFunc(t.offlineDebounce, func() {
			t.mu.Lock()
			delete(t.offlineTimers, key)
			stopped := t.stopped
			t.mu.Unlock()
			if stopped {
				return
			}
			// Only report offline if no replacement session showed up
			// during the window.
			if !t.registry.UserPresent(e.UserID, roomID) {
				t.broadcastState(roomID, e.UserID, models.PresenceOffline)
			}
		})
		t.mu.Unlock()
	}
}

func (t *Tracker) cancelOffline(userID, roomID string) {
	key := timerKey{userID: userID, roomID: roomID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.offlineTimers[key]; ok {
		timer.Stop()
		delete(t.offlineTimers, key)
	}
}

func (t *Tracker) broadcastState(roomID, userID string, state models.PresenceState) {
	t.broadcast(roomID, userID, state, "")
}

func (t *Tracker) broadcast(roomID, userID string, state models.PresenceState, excludeConnID string) {
	event := models.PresenceEvent{
		UserID:    userID,
		RoomID:    roomID,
		State:     state,
		Timestamp: time.Now().UTC(),
	}
	t.sender.Broadcast(roomID, models.NewPresenceFrame(event), excludeConnID)
}
