package models

import "time"

// Room metadata as held by the external room repository. The realtime core
// only reads it to answer existence and access questions.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"is_public"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is immutable once persisted. Seq is the room-scoped monotonic
// sequence number assigned by the ingest pipeline before the append.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Claims is the identity decoded from a verified credential.
type Claims struct {
	UserID    string
	Username  string
	Anonymous bool
}

type PresenceState string

const (
	PresenceActive  PresenceState = "active"
	PresenceTyping  PresenceState = "typing"
	PresenceIdle    PresenceState = "idle"
	PresenceOffline PresenceState = "offline"
)

// PresenceEvent is transient; the core never persists it.
type PresenceEvent struct {
	UserID    string        `json:"user_id"`
	RoomID    string        `json:"room_id"`
	State     PresenceState `json:"state"`
	Timestamp time.Time     `json:"timestamp"`
}

type Member struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
