package session

import (
	"sync"
	"sync/atomic"
	"time"

	"chatsphere/internal/models"

	"github.com/google/uuid"
)

// State is the connection lifecycle. Disconnected is terminal; a
// reconnecting client always gets a fresh Session.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Session is a live, authenticated connection's routing state. The registry
// owns it from Register to Deregister. The outbound queue is bounded; the
// broadcaster applies the slow-consumer policy when it fills up.
type Session struct {
	ID        string
	UserID    string
	Username  string
	CreatedAt time.Time

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	state     atomic.Int32
	reason    atomic.Value // string
}

func New(claims *models.Claims, queueCapacity int) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		UserID:    claims.UserID,
		Username:  claims.Username,
		CreatedAt: time.Now(),
		send:      make(chan []byte, queueCapacity),
		done:      make(chan struct{}),
	}
	s.state.Store(int32(StateAuthenticated))
	return s
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// Enqueue places a payload on the outbound queue without blocking.
// Returns ErrQueueFull when the bound is hit and ErrSessionClosed after
// Close; the caller decides the slow-consumer policy.
func (s *Session) Enqueue(payload []byte) error {
	if s.State() == StateDisconnected {
		return ErrSessionClosed
	}
	select {
	case s.send <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueDropOldest makes room by discarding the oldest queued payload,
// then retries once.
func (s *Session) EnqueueDropOldest(payload []byte) error {
	if err := s.Enqueue(payload); err == nil || err == ErrSessionClosed {
		return err
	}
	select {
	case <-s.send:
	default:
	}
	return s.Enqueue(payload)
}

// Outbound is drained by the session's single writer goroutine.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// Done is closed when the session closes. Still-queued payloads are
// discarded, never flushed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close transitions to Disconnected exactly once. Safe to call from any
// goroutine, any number of times.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.reason.Store(reason)
		s.setState(StateDisconnected)
		close(s.done)
	})
}

// CloseReason is the reason passed to the first Close call, or "".
func (s *Session) CloseReason() string {
	if r, ok := s.reason.Load().(string); ok {
		return r
	}
	return ""
}
