package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatsphere/internal/broadcast"
	"chatsphere/internal/database"
	"chatsphere/internal/models"
	"chatsphere/internal/session"
	"chatsphere/pkg/logger"

	"github.com/google/uuid"
)

// Pipeline takes a raw send request through validation, live-membership
// authorization, sequence assignment, durable append and broadcast, in that
// order. A message is either stored and broadcast or neither.
type Pipeline struct {
	registry *session.Registry
	messages database.MessageRepository
	sender   broadcast.Sender
	seq      *Sequencer
	maxLen   int
}

func NewPipeline(registry *session.Registry, messages database.MessageRepository, sender broadcast.Sender, maxLen int) *Pipeline {
	return &Pipeline{
		registry: registry,
		messages: messages,
		sender:   sender,
		seq:      NewSequencer(messages.LatestSequence),
		maxLen:   maxLen,
	}
}

// Submit ingests one message from a connected sender. Errors are for the
// sender only; other room members never observe a failed send.
func (p *Pipeline) Submit(ctx context.Context, senderConnID, senderUserID, roomID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len([]rune(text)) > p.maxLen {
		return nil, fmt.Errorf("%w: %d > %d", ErrTextTooLong, len([]rune(text)), p.maxLen)
	}

	// Authorization is against the live index, not durable membership:
	// a sender must be subscribed right now.
	if !p.registry.IsRoomMember(senderConnID, roomID) {
		return nil, ErrNotRoomMember
	}

	msg := &models.Message{
		ID:       uuid.New().String(),
		RoomID:   roomID,
		SenderID: senderUserID,
		Text:     text,
	}

	// The room's sequence lock is held across persist and broadcast: a
	// failed persist never leaves a hole in the stored stream, and
	// broadcasts dispatch in assigned order so receivers observe sequence
	// numbers strictly increasing. Enqueues never block, so holding the
	// per-room lock across the fan-out is safe.
	seq, err := p.seq.Assign(ctx, roomID, func(seq int64) error {
		msg.Seq = seq
		msg.CreatedAt = time.Now().UTC()
		stored, err := p.messages.Append(ctx, msg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if stored != seq {
			return fmt.Errorf("%w: store reported seq %d, assigned %d", ErrPersistence, stored, seq)
		}
		p.sender.Broadcast(roomID, models.NewMessageFrame(msg), "")
		return nil
	})
	if err != nil {
		logger.Error("Ingest failed for room %s: %v", roomID, err)
		return nil, err
	}
	msg.Seq = seq
	return msg, nil
}
