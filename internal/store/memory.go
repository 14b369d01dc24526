// internal/store/memory.go
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"
)

// MemoryStore keeps room snapshots in process memory, guarded by a mutex.
// Holding the lock across Update's read-transform-write is what makes two
// racing submits for the same room serialize instead of losing a write.
type MemoryStore struct {
	mu     sync.Mutex
	rooms  map[uuid.UUID]game.Room
	byCode map[string]uuid.UUID
	ttl    time.Duration
	logger *logrus.Logger
}

// NewMemoryStore returns an empty in-memory store. Rooms idle longer than
// ttl are evicted by the janitor once StartJanitor is called.
func NewMemoryStore(ttl time.Duration, logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[uuid.UUID]game.Room),
		byCode: make(map[string]uuid.UUID),
		ttl:    ttl,
		logger: logger,
	}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return game.Room{}, ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return game.Room{}, ErrRoomNotFound
	}
	room, ok := s.rooms[id]
	if !ok {
		return game.Room{}, ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, room game.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(room)
	return nil
}

func (s *MemoryStore) putLocked(room game.Room) {
	s.rooms[room.ID] = room.Clone()
	s.byCode[strings.ToUpper(room.Code)] = room.ID
}

func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, fn func(game.Room) (game.Room, error)) (game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return game.Room{}, ErrRoomNotFound
	}
	updated, err := fn(room.Clone())
	if err != nil {
		return game.Room{}, err
	}
	s.putLocked(updated)
	return updated.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok {
		delete(s.byCode, strings.ToUpper(room.Code))
		delete(s.rooms, id)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]game.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Clone())
	}
	return rooms, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[uuid.UUID]game.Room)
	s.byCode = make(map[string]uuid.UUID)
	return nil
}

// StartJanitor launches a goroutine that periodically evicts rooms whose
// last update is older than the store TTL. It stops when ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictStale()
			}
		}
	}()
}

func (s *MemoryStore) evictStale() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, room := range s.rooms {
		if room.UpdatedAt.Before(cutoff) {
			delete(s.byCode, strings.ToUpper(room.Code))
			delete(s.rooms, id)
			if s.logger != nil {
				s.logger.WithField("room_id", id).Info("Evicted stale room")
			}
		}
	}
}
