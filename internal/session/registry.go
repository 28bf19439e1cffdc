package session

import (
	"context"
	"errors"
	"sync"

	"chatsphere/internal/database"
	"chatsphere/pkg/logger"

	"github.com/samber/lo"
)

// AccessPolicy answers whether a user may subscribe to a room. The
// authoritative membership data lives with the external room collaborator.
type AccessPolicy interface {
	CanAccess(ctx context.Context, userID, roomID string) (bool, error)
	Joined(ctx context.Context, userID, roomID string) error
	Left(ctx context.Context, userID, roomID string) error
}

// Registry is the process-wide index of live sessions and their room
// subscriptions, and nothing else: membership policy stays with the room
// collaborator, durable history with the message store. Broadcast lookups
// dominate, so reads take the shared lock.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session            // connID -> session
	rooms       map[string]map[string]*Session // roomID -> connID -> session
	memberships map[string]map[string]bool     // connID -> roomID set

	access AccessPolicy
}

func NewRegistry(access AccessPolicy) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		rooms:       make(map[string]map[string]*Session),
		memberships: make(map[string]map[string]bool),
		access:      access,
	}
}

// Register adds a session under its connection id. Duplicate ids are a
// gatekeeper bug, surfaced loudly rather than silently replaced.
func (r *Registry) Register(sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sess.ID]; exists {
		return ErrDuplicateConnection
	}
	r.sessions[sess.ID] = sess
	r.memberships[sess.ID] = make(map[string]bool)
	sess.setState(StateActive)
	return nil
}

// Deregister removes a session and all its subscriptions. Idempotent:
// returns true only for the call that actually removed it, so the caller
// publishes the disconnect exactly once.
func (r *Registry) Deregister(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[connID]
	if !exists {
		return false
	}

	for roomID := range r.memberships[connID] {
		r.removeFromRoomLocked(connID, roomID)
	}
	delete(r.memberships, connID)
	delete(r.sessions, connID)
	sess.Close(ReasonDeregistered)
	return true
}

// JoinRoom subscribes the session to a room, delegating existence and
// authorization to the room collaborator. Repeated joins are no-ops.
func (r *Registry) JoinRoom(ctx context.Context, connID, roomID string) error {
	r.mu.RLock()
	sess, exists := r.sessions[connID]
	alreadyMember := exists && r.memberships[connID][roomID]
	r.mu.RUnlock()

	if !exists {
		return ErrSessionNotFound
	}
	if alreadyMember {
		return nil
	}

	// Policy check happens outside the registry lock: it may hit the
	// external store.
	ok, err := r.access.CanAccess(ctx, sess.UserID, roomID)
	if err != nil {
		if errors.Is(err, database.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	if !ok {
		return ErrAccessDenied
	}

	r.mu.Lock()
	if _, stillHere := r.sessions[connID]; !stillHere {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]*Session)
	}
	r.rooms[roomID][connID] = sess
	r.memberships[connID][roomID] = true
	r.mu.Unlock()

	if err := r.access.Joined(ctx, sess.UserID, roomID); err != nil {
		logger.Error("Error recording membership for user %s in room %s: %v", sess.UserID, roomID, err)
	}
	return nil
}

// LeaveRoom drops the live subscription. No-op if not currently subscribed.
func (r *Registry) LeaveRoom(ctx context.Context, connID, roomID string) error {
	r.mu.Lock()
	sess, exists := r.sessions[connID]
	wasMember := exists && r.memberships[connID][roomID]
	if wasMember {
		delete(r.memberships[connID], roomID)
		r.removeFromRoomLocked(connID, roomID)
	}
	r.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	if !wasMember {
		return nil
	}

	if err := r.access.Left(ctx, sess.UserID, roomID); err != nil {
		logger.Error("Error recording leave for user %s in room %s: %v", sess.UserID, roomID, err)
	}
	return nil
}

func (r *Registry) removeFromRoomLocked(connID, roomID string) {
	if members, ok := r.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Get returns the live session for a connection id.
func (r *Registry) Get(connID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[connID]
	return sess, ok
}

// RoomSessions snapshots the sessions currently subscribed to a room,
// minus the excluded connection if any. Hot path for every broadcast.
func (r *Registry) RoomSessions(roomID, excludeConnID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	sessions := make([]*Session, 0, len(members))
	for connID, sess := range members {
		if connID == excludeConnID {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions
}

// IsRoomMember reports whether the connection is currently subscribed to
// the room. This is the live-index check ingest authorizes against.
func (r *Registry) IsRoomMember(connID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.memberships[connID][roomID]
}

// Rooms lists the room ids the connection is subscribed to.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.memberships[connID])
}

// UserPresent reports whether any live session for the user is subscribed
// to the room. The presence tracker uses it to absorb rapid reconnects.
func (r *Registry) UserPresent(userID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sess := range r.rooms[roomID] {
		if sess.UserID == userID {
			return true
		}
	}
	return false
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
