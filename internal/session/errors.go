package session

import "errors"

var (
	ErrQueueFull           = errors.New("outbound queue full")
	ErrSessionClosed       = errors.New("session closed")
	ErrDuplicateConnection = errors.New("connection id already registered")
	ErrSessionNotFound     = errors.New("session not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrAccessDenied        = errors.New("room access denied")
)
