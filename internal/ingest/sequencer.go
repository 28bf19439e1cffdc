package ingest

import (
	"context"
	"fmt"
	"sync"
)

// LatestFunc reports the highest sequence number ever stored for a room,
// used to seed a room's counter on first use after startup.
type LatestFunc func(ctx context.Context, roomID string) (int64, error)

type roomCounter struct {
	mu     sync.Mutex
	seeded bool
	last   int64
}

// Sequencer hands out strictly increasing per-room sequence numbers.
// Each room has its own lock, so unrelated rooms assign concurrently while
// a single room never has two assignments in flight.
type Sequencer struct {
	mu     sync.Mutex
	rooms  map[string]*roomCounter
	latest LatestFunc
}

func NewSequencer(latest LatestFunc) *Sequencer {
	return &Sequencer{rooms: make(map[string]*roomCounter), latest: latest}
}

func (s *Sequencer) counter(roomID string) *roomCounter {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rooms[roomID]
	if !ok {
		c = &roomCounter{}
		s.rooms[roomID] = c
	}
	return c
}

// Assign runs fn with the room's next sequence number while holding that
// room's lock. The counter only advances when fn succeeds, so a failed
// persist never burns a number and delivered streams stay gap-free.
func (s *Sequencer) Assign(ctx context.Context, roomID string, fn func(seq int64) error) (int64, error) {
	c := s.counter(roomID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seeded {
		last, err := s.latest(ctx, roomID)
		if err != nil {
			return 0, fmt.Errorf("failed to seed sequence for room %s: %w", roomID, err)
		}
		c.last = last
		c.seeded = true
	}

	seq := c.last + 1
	if err := fn(seq); err != nil {
		return 0, err
	}
	c.last = seq
	return seq, nil
}
