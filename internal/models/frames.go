package models

import "time"

type FrameType string

const (
	FrameTypeMessage  FrameType = "message"
	FrameTypeTyping   FrameType = "typing"
	FrameTypeJoin     FrameType = "join"
	FrameTypeLeave    FrameType = "leave"
	FrameTypePresence FrameType = "presence"
	FrameTypeError    FrameType = "error"
	FrameTypeAck      FrameType = "ack"
	FrameTypeWelcome  FrameType = "welcome"
)

// Error codes carried on error frames.
const (
	ErrCodeValidation   = "validation"
	ErrCodeForbidden    = "forbidden"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodePersistence  = "persistence"
	ErrCodeInternal     = "internal"
	ErrCodeBadFrame     = "bad_frame"
)

// ClientFrame is the single inbound frame shape; Type selects which fields
// are meaningful. A non-nil SinceSeq on a join asks for backfill starting
// after that sequence number (zero means "everything").
type ClientFrame struct {
	Type      FrameType `json:"type" validate:"required,oneof=message typing join leave"`
	RoomID    string    `json:"roomId" validate:"required,max=128"`
	Text      string    `json:"text,omitempty"`
	SinceSeq  *int64    `json:"sinceSeq,omitempty" validate:"omitempty,gte=0"`
	RequestID string    `json:"requestId,omitempty" validate:"max=64"`
}

type MessageFrame struct {
	Type      FrameType `json:"type"`
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
}

type PresenceFrame struct {
	Type   FrameType     `json:"type"`
	RoomID string        `json:"roomId"`
	UserID string        `json:"userId"`
	State  PresenceState `json:"state"`
}

type ErrorFrame struct {
	Type   FrameType `json:"type"`
	Code   string    `json:"code"`
	Detail string    `json:"detail,omitempty"`
}

type AckFrame struct {
	Type      FrameType `json:"type"`
	RequestID string    `json:"requestId"`
}

// WelcomeFrame is sent once when a handshake is accepted.
type WelcomeFrame struct {
	Type         FrameType `json:"type"`
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	ServerTime   time.Time `json:"serverTime"`
}

func NewMessageFrame(msg *Message) MessageFrame {
	return MessageFrame{
		Type:      FrameTypeMessage,
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
		Seq:       msg.Seq,
		CreatedAt: msg.CreatedAt,
	}
}

func NewPresenceFrame(event PresenceEvent) PresenceFrame {
	return PresenceFrame{
		Type:   FrameTypePresence,
		RoomID: event.RoomID,
		UserID: event.UserID,
		State:  event.State,
	}
}

func NewErrorFrame(code, detail string) ErrorFrame {
	return ErrorFrame{Type: FrameTypeError, Code: code, Detail: detail}
}

func NewAckFrame(requestID string) AckFrame {
	return AckFrame{Type: FrameTypeAck, RequestID: requestID}
}
