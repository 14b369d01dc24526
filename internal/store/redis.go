// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"
)

const (
	roomKeyPrefix = "rpb:room:"
	codeKeyPrefix = "rpb:code:"

	// maxTxRetries bounds the optimistic retry loop in Update when another
	// writer commits between our WATCH and EXEC.
	maxTxRetries = 5
)

// RedisStore persists room snapshots in a remote key-value store so the
// service can run with more than one process. Per-room atomicity comes from
// optimistic transactions: Update WATCHes the room key and retries if a
// concurrent writer got there first, so a lost-update race is impossible.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// ConnectRedis builds and pings a Redis client.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisStore wraps an existing client. Rooms expire ttl after their last
// write; the code index expires alongside the room it points at.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func roomKey(id uuid.UUID) string { return roomKeyPrefix + id.String() }

func codeKey(code string) string { return codeKeyPrefix + strings.ToUpper(code) }

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (game.Room, error) {
	data, err := s.rdb.Get(ctx, roomKey(id)).Bytes()
	if err == redis.Nil {
		return game.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("failed to fetch room %s: %w", id, err)
	}
	return decodeRoom(data)
}

func (s *RedisStore) GetByCode(ctx context.Context, code string) (game.Room, error) {
	idStr, err := s.rdb.Get(ctx, codeKey(code)).Result()
	if err == redis.Nil {
		return game.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("failed to resolve code %s: %w", code, err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return game.Room{}, fmt.Errorf("corrupt code index for %s: %w", code, err)
	}
	return s.Get(ctx, id)
}

func (s *RedisStore) Put(ctx context.Context, room game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", room.ID, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(room.ID), data, s.ttl)
		pipe.Set(ctx, codeKey(room.Code), room.ID.String(), s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Update(ctx context.Context, id uuid.UUID, fn func(game.Room) (game.Room, error)) (game.Room, error) {
	var updated game.Room
	key := roomKey(id)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		room, err := decodeRoom(data)
		if err != nil {
			return err
		}
		updated, err = fn(room)
		if err != nil {
			return err
		}
		out, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("failed to marshal room %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			pipe.Set(ctx, codeKey(updated.Code), updated.ID.String(), s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // another writer committed first, reload and retry
		}
		return game.Room{}, err
	}
	return game.Room{}, fmt.Errorf("room %s update contended beyond %d retries", id, maxTxRetries)
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	room, err := s.Get(ctx, id)
	if errors.Is(err, ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, roomKey(id))
		pipe.Del(ctx, codeKey(room.Code))
		return nil
	})
	return err
}

func (s *RedisStore) List(ctx context.Context) ([]game.Room, error) {
	var rooms []game.Room
	iter := s.rdb.Scan(ctx, 0, roomKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue // expired between scan and fetch
		}
		if err != nil {
			return nil, err
		}
		room, err := decodeRoom(data)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	for _, prefix := range []string{roomKeyPrefix, codeKeyPrefix} {
		iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}

func decodeRoom(data []byte) (game.Room, error) {
	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return game.Room{}, fmt.Errorf("failed to unmarshal room snapshot: %w", err)
	}
	return room, nil
}
