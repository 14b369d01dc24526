// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/config"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/handlers"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/store"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	var roomStore store.RoomStore
	switch cfg.StoreBackend {
	case config.StoreRedis:
		rdb, err := store.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		roomStore = store.NewRedisStore(rdb, cfg.RoomTTL)
		logger.Infof("Using redis room store at %s", cfg.RedisAddr)
	default:
		mem := store.NewMemoryStore(cfg.RoomTTL, logger)
		mem.StartJanitor(ctx, cfg.JanitorInterval)
		roomStore = mem
		logger.Info("Using in-memory room store")
	}

	srv := handlers.NewGameServer(roomStore, cfg, logger)
	router := handlers.NewRouter(logger, srv, roomStore)

	addr := ":" + cfg.Port
	logger.Infof("Rock Paper Beer server running on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
