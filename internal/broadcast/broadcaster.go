package broadcast

import (
	"encoding/json"
	"errors"

	"chatsphere/internal/config"
	"chatsphere/internal/session"
	"chatsphere/pkg/logger"
)

// Sender is the fan-out surface consumed by ingest, presence and delivery.
type Sender interface {
	Broadcast(roomID string, payload interface{}, excludeConnID string)
	SendTo(sess *session.Session, payload interface{}) error
}

// Broadcaster pushes payloads onto the bounded queues of every session
// subscribed to a room. It never does I/O and never blocks: when a queue
// is full it applies the configured slow-consumer policy and moves on.
type Broadcaster struct {
	registry *session.Registry
	policy   config.SlowConsumerPolicy
}

func New(registry *session.Registry, policy config.SlowConsumerPolicy) *Broadcaster {
	return &Broadcaster{registry: registry, policy: policy}
}

func (b *Broadcaster) Broadcast(roomID string, payload interface{}, excludeConnID string) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error marshaling broadcast payload for room %s: %v", roomID, err)
		return
	}

	for _, sess := range b.registry.RoomSessions(roomID, excludeConnID) {
		b.enqueue(sess, data)
	}
}

// SendTo delivers a payload to a single session under the same
// slow-consumer rules as a room broadcast.
func (b *Broadcaster) SendTo(sess *session.Session, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.enqueue(sess, data)
}

func (b *Broadcaster) enqueue(sess *session.Session, data []byte) error {
	if b.policy == config.PolicyDropOldest {
		err := sess.EnqueueDropOldest(data)
		if errors.Is(err, session.ErrQueueFull) {
			// Concurrent fillers can defeat the single drop-and-retry.
			// Under this policy the payload is dropped, never the session.
			logger.Debug("Dropping payload for %s (user %s): queue full", sess.ID, sess.UserID)
		}
		return err
	}

	err := sess.Enqueue(data)
	if errors.Is(err, session.ErrQueueFull) {
		// Disconnect policy: a consumer that cannot drain its queue gets
		// torn down rather than silently losing messages.
		logger.Info("Disconnecting slow consumer %s (user %s)", sess.ID, sess.UserID)
		sess.Close(session.ReasonSlowConsumer)
		return session.ErrSessionClosed
	}
	return err
}
