package delivery

import (
	"context"
	"fmt"

	"chatsphere/internal/broadcast"
	"chatsphere/internal/database"
	"chatsphere/internal/models"
	"chatsphere/internal/session"
)

// Backfiller replays persisted history to a (re)connecting session,
// ascending from the client's last-seen sequence number, capped at limit.
// Messages arriving live while the replay runs may be delivered twice;
// duplicate suppression by message id is the client's job.
type Backfiller struct {
	messages database.MessageRepository
	sender   broadcast.Sender
	limit    int
}

func NewBackfiller(messages database.MessageRepository, sender broadcast.Sender, limit int) *Backfiller {
	return &Backfiller{messages: messages, sender: sender, limit: limit}
}

// Replay enqueues persisted messages with seq > sinceSeq onto the session's
// outbound queue, oldest first. Returns how many were enqueued.
func (b *Backfiller) Replay(ctx context.Context, sess *session.Session, roomID string, sinceSeq int64) (int, error) {
	history, err := b.messages.FetchSince(ctx, roomID, sinceSeq, b.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch backfill for room %s: %w", roomID, err)
	}

	for i, msg := range history {
		if err := b.sender.SendTo(sess, models.NewMessageFrame(msg)); err != nil {
			return i, err
		}
	}
	return len(history), nil
}
