package services

import (
	"context"
	"fmt"

	"chatsphere/internal/database"
)

// AccessService decides room access against the external room repository:
// public rooms admit anyone, private rooms require membership.
type AccessService struct {
	db database.RoomRepository
}

func NewAccessService(db database.RoomRepository) *AccessService {
	return &AccessService{db: db}
}

func (s *AccessService) CanAccess(ctx context.Context, userID, roomID string) (bool, error) {
	room, err := s.db.GetRoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}

	if room.IsPublic {
		return true, nil
	}

	return s.db.IsMember(ctx, userID, roomID)
}

// Joined records durable membership after a successful live subscription,
// so a public-room join survives reconnects the way an invite does.
func (s *AccessService) Joined(ctx context.Context, userID, roomID string) error {
	return s.db.AddMember(ctx, userID, roomID)
}

// Left drops durable membership when the user leaves the room.
func (s *AccessService) Left(ctx context.Context, userID, roomID string) error {
	return s.db.RemoveMember(ctx, userID, roomID)
}

// EntitledRooms lists the rooms a user may appear in: public rooms plus
// private rooms they are a member of.
func (s *AccessService) EntitledRooms(ctx context.Context, userID string) ([]string, error) {
	rooms, err := s.db.RoomsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms for user %s: %w", userID, err)
	}
	return rooms, nil
}
