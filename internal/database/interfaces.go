package database

import (
	"context"

	"chatsphere/internal/models"
)

// RoomRepository is the authoritative source for room existence and
// membership policy. The realtime core consults it but never owns it.
type RoomRepository interface {
	Exists(ctx context.Context, roomID string) (bool, error)
	GetRoomByID(ctx context.Context, roomID string) (*models.Room, error)
	IsMember(ctx context.Context, userID, roomID string) (bool, error)
	AddMember(ctx context.Context, userID, roomID string) error
	RemoveMember(ctx context.Context, userID, roomID string) error
	RoomsForUser(ctx context.Context, userID string) ([]string, error)
}

// MessageRepository is the sole authority for durable message history.
// Append stores a message already carrying its assigned sequence number and
// echoes the stored sequence back. FetchSince returns messages with
// sequence numbers strictly greater than seq, ascending, at most limit.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) (int64, error)
	FetchSince(ctx context.Context, roomID string, seq int64, limit int) ([]*models.Message, error)
	LatestSequence(ctx context.Context, roomID string) (int64, error)
}

type Database interface {
	RoomRepository
	MessageRepository
	Close() error
}
