// internal/handlers/http.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/middleware"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/store"
)

// NewRouter wires the liveness probe, the development-only room introspection
// endpoints and the websocket endpoint. None of the HTTP routes are load
// bearing for gameplay.
func NewRouter(logger *logrus.Logger, srv *GameServer, roomStore store.RoomStore) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(logger))

	r.Get("/health", HealthHandler)
	r.Get("/debug/rooms", ListRoomsHandler(logger, roomStore))
	r.Delete("/debug/rooms", ClearRoomsHandler(logger, roomStore))
	r.Get("/ws", WSHandler(logger, srv))

	return r
}

// HealthHandler reports process liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// ListRoomsHandler dumps every live room. Development use only.
func ListRoomsHandler(logger *logrus.Logger, roomStore store.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := roomStore.List(r.Context())
		if err != nil {
			logger.WithError(err).Error("Failed to list rooms")
			http.Error(w, "failed to list rooms", http.StatusInternalServerError)
			return
		}
		if rooms == nil {
			rooms = []game.Room{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"rooms": rooms,
			"count": len(rooms),
		})
	}
}

// ClearRoomsHandler drops every room. Development use only.
func ClearRoomsHandler(logger *logrus.Logger, roomStore store.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := roomStore.Clear(r.Context()); err != nil {
			logger.WithError(err).Error("Failed to clear rooms")
			http.Error(w, "failed to clear rooms", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "All rooms cleared",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
