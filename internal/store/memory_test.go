// internal/store/memory_test.go
package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(24*time.Hour, nil)
}

func TestMemoryStoreRoundTripByCode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	room := game.NewRoom(uuid.New(), "Alice", "")
	require.NoError(t, s.Put(ctx, room))

	byID, err := s.Get(ctx, room.ID)
	require.NoError(t, err)
	byCode, err := s.GetByCode(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byCode.ID)

	// Code lookup is case-insensitive.
	lower, err := s.GetByCode(ctx, strings.ToLower(room.Code))
	require.NoError(t, err)
	assert.Equal(t, room.ID, lower.ID)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	_, err := s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = s.GetByCode(ctx, "DEADBEEF")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemoryStoreDeleteUnreachableByBothKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	room := game.NewRoom(uuid.New(), "Alice", "")
	require.NoError(t, s.Put(ctx, room))
	require.NoError(t, s.Delete(ctx, room.ID))

	_, err := s.Get(ctx, room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = s.GetByCode(ctx, room.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemoryStoreUpdateFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	room := game.NewRoom(uuid.New(), "Alice", "")
	room, err := room.AddPlayer(uuid.New(), "Bob", "")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, room))

	_, err = s.Update(ctx, room.ID, func(r game.Room) (game.Room, error) {
		return r.AddPlayer(uuid.New(), "Carol", "")
	})
	assert.ErrorIs(t, err, game.ErrRoomFull)

	stored, err := s.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Players, 2, "failed update must not change the snapshot")
}

// TestMemoryStoreUpdateIsAtomic races many increments through Update; every
// one must observe the previous write or the counter would come up short.
func TestMemoryStoreUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	room := game.NewRoom(uuid.New(), "Alice", "")
	require.NoError(t, s.Put(ctx, room))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, room.ID, func(r game.Room) (game.Room, error) {
				r.CurrentRound++
				return r, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := s.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, stored.CurrentRound)
}

func TestMemoryStoreListAndClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Put(ctx, game.NewRoom(uuid.New(), "Alice", "")))
	require.NoError(t, s.Put(ctx, game.NewRoom(uuid.New(), "Bob", "")))

	rooms, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	require.NoError(t, s.Clear(ctx))
	rooms, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestMemoryStoreEvictsStaleRooms(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(50*time.Millisecond, nil)

	stale := game.NewRoom(uuid.New(), "Alice", "")
	stale.UpdatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, s.Put(ctx, stale))

	fresh := game.NewRoom(uuid.New(), "Bob", "")
	require.NoError(t, s.Put(ctx, fresh))

	s.evictStale()

	_, err := s.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = s.GetByCode(ctx, stale.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = s.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMemoryStoreReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	alice := uuid.New()
	bob := uuid.New()
	room := game.NewRoom(alice, "Alice", "")
	room, err := room.AddPlayer(bob, "Bob", "")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, room.StartRound()))

	got, err := s.Get(ctx, room.ID)
	require.NoError(t, err)
	got.Rounds[0].Moves[alice] = game.MoveRock

	again, err := s.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Rounds[0].Moves, "callers must not be able to reach the stored snapshot")
}
