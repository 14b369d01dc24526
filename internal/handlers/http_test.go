// internal/handlers/http_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/config"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/store"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	HealthHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestDebugRoomsEndpoints(t *testing.T) {
	mem := store.NewMemoryStore(24*time.Hour, nil)
	require.NoError(t, mem.Put(context.Background(), game.NewRoom(uuid.New(), "Alice", "")))
	require.NoError(t, mem.Put(context.Background(), game.NewRoom(uuid.New(), "Bob", "")))

	srv := NewGameServer(mem, config.Default(), testLogger())
	router := NewRouter(testLogger(), srv, mem)

	req := httptest.NewRequest("GET", "/debug/rooms", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var listBody struct {
		Rooms []game.Room `json:"rooms"`
		Count int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listBody))
	assert.Equal(t, 2, listBody.Count)
	assert.Len(t, listBody.Rooms, 2)

	req = httptest.NewRequest("DELETE", "/debug/rooms", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	rooms, err := mem.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
