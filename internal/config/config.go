// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Store backend selectors for ROOM_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port            string
	MoveTimeout     time.Duration
	RoomTTL         time.Duration
	JanitorInterval time.Duration
	StoreBackend    string
	RedisAddr       string
	RedisDB         int
}

// Default returns the built-in configuration: 15 seconds to make a move,
// rooms evicted after 24 idle hours, in-memory store.
func Default() Config {
	return Config{
		Port:            "8080",
		MoveTimeout:     15 * time.Second,
		RoomTTL:         24 * time.Hour,
		JanitorInterval: time.Hour,
		StoreBackend:    StoreMemory,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
	}
}

// Load reads the environment over the defaults. Malformed values fall back
// silently to the default rather than failing startup.
func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("MOVE_TIMEOUT_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MoveTimeout = time.Duration(value) * time.Millisecond
		}
	}
	if raw := os.Getenv("ROOM_TTL_HOURS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RoomTTL = time.Duration(value) * time.Hour
		}
	}
	if raw := os.Getenv("ROOM_STORE"); raw != "" {
		cfg.StoreBackend = raw
	}
	if raw := os.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.RedisDB = value
		}
	}
	return cfg
}
