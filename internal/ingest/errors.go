package ingest

import (
	"errors"

	"chatsphere/internal/models"
)

var (
	ErrEmptyText     = errors.New("message text is empty")
	ErrTextTooLong   = errors.New("message text exceeds maximum length")
	ErrNotRoomMember = errors.New("sender is not a member of the room")
	ErrPersistence   = errors.New("failed to persist message")
)

// ErrorCode maps a pipeline failure to the wire error code the sender sees.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrEmptyText), errors.Is(err, ErrTextTooLong):
		return models.ErrCodeValidation
	case errors.Is(err, ErrNotRoomMember):
		return models.ErrCodeForbidden
	case errors.Is(err, ErrPersistence):
		return models.ErrCodePersistence
	default:
		return models.ErrCodeInternal
	}
}
