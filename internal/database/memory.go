package database

import (
	"context"
	"sort"
	"sync"

	"chatsphere/internal/models"

	"github.com/samber/lo"
)

// MemoryDB is an in-process implementation of Database for tests and
// single-binary development runs.
type MemoryDB struct {
	mu       sync.RWMutex
	rooms    map[string]*models.Room
	members  map[string]map[string]bool // roomID -> userID set
	messages map[string][]*models.Message
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		rooms:    make(map[string]*models.Room),
		members:  make(map[string]map[string]bool),
		messages: make(map[string][]*models.Message),
	}
}

func (db *MemoryDB) Close() error { return nil }

// SeedRoom inserts a room, for bootstrapping dev runs and tests.
func (db *MemoryDB) SeedRoom(room *models.Room) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.rooms[room.ID] = room
}

func (db *MemoryDB) Exists(_ context.Context, roomID string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.rooms[roomID]
	return ok, nil
}

func (db *MemoryDB) GetRoomByID(_ context.Context, roomID string) (*models.Room, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	room, ok := db.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (db *MemoryDB) IsMember(_ context.Context, userID, roomID string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.members[roomID][userID], nil
}

func (db *MemoryDB) AddMember(_ context.Context, userID, roomID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.members[roomID] == nil {
		db.members[roomID] = make(map[string]bool)
	}
	db.members[roomID][userID] = true
	return nil
}

func (db *MemoryDB) RemoveMember(_ context.Context, userID, roomID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.members[roomID], userID)
	return nil
}

func (db *MemoryDB) RoomsForUser(_ context.Context, userID string) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	roomIDs := lo.FilterMap(lo.Values(db.rooms), func(room *models.Room, _ int) (string, bool) {
		return room.ID, room.IsPublic || db.members[room.ID][userID]
	})
	sort.Strings(roomIDs)
	return roomIDs, nil
}

func (db *MemoryDB) Append(_ context.Context, msg *models.Message) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	copied := *msg
	db.messages[msg.RoomID] = append(db.messages[msg.RoomID], &copied)
	return msg.Seq, nil
}

func (db *MemoryDB) FetchSince(_ context.Context, roomID string, seq int64, limit int) ([]*models.Message, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	matched := lo.Filter(db.messages[roomID], func(msg *models.Message, _ int) bool {
		return msg.Seq > seq
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].Seq < matched[j].Seq })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (db *MemoryDB) LatestSequence(_ context.Context, roomID string) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var latest int64
	for _, msg := range db.messages[roomID] {
		if msg.Seq > latest {
			latest = msg.Seq
		}
	}
	return latest, nil
}
