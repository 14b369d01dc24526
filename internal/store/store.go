// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"
)

// ErrRoomNotFound is returned when a room id or code resolves to nothing.
var ErrRoomNotFound = errors.New("Room not found")

// RoomStore is keyed storage for room snapshots, indexed by primary id and by
// short code. Implementations must be safe for concurrent use, and Update must
// be atomic per room: two concurrent updates of the same room can never both
// read the same snapshot and overwrite each other's write.
type RoomStore interface {
	// Get returns the room snapshot for the given id.
	Get(ctx context.Context, id uuid.UUID) (game.Room, error)
	// GetByCode resolves a short code (case-insensitively) to its room.
	GetByCode(ctx context.Context, code string) (game.Room, error)
	// Put stores a room snapshot and indexes its code.
	Put(ctx context.Context, room game.Room) error
	// Update atomically applies fn to the current snapshot and stores the
	// result. If fn fails, nothing is written and its error is returned.
	Update(ctx context.Context, id uuid.UUID, fn func(game.Room) (game.Room, error)) (game.Room, error)
	// Delete removes the room and its code index entry.
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns every live room snapshot.
	List(ctx context.Context) ([]game.Room, error)
	// Clear drops every room. Development/debug use only.
	Clear(ctx context.Context) error
}
