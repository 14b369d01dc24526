// internal/handlers/messages.go
package handlers

import "github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"

// Client action names accepted over the websocket.
const (
	ActionCreateRoom = "createRoom"
	ActionGetRoom    = "getRoom"
	ActionJoinRoom   = "joinRoom"
	ActionStartRound = "startRound"
	ActionSubmitMove = "submitMove"
)

// Server event names pushed back to clients.
const (
	EventRoomCreated        = "roomCreated"
	EventRoomData           = "roomData"
	EventRoomUpdated        = "roomUpdated"
	EventRoundStarted       = "roundStarted"
	EventMoveSubmitted      = "moveSubmitted"
	EventRoundFinished      = "roundFinished"
	EventPlayerDisconnected = "playerDisconnected"
	EventError              = "error"
)

// ClientAction is the inbound message envelope. Fields beyond Action are
// action-specific; unused ones stay empty.
type ClientAction struct {
	Action     string `json:"action"`
	PlayerName string `json:"playerName,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	RoomID     string `json:"roomId,omitempty"`
	RoomCode   string `json:"roomCode,omitempty"`
	Move       string `json:"move,omitempty"`
}

// ServerEvent is the outbound message envelope. Room carries the full
// authoritative snapshot; clients remap player1/player2 labels against the
// snapshot's current player order themselves.
type ServerEvent struct {
	Type      string     `json:"type"`
	Room      *game.Room `json:"room,omitempty"`
	PlayerID  string     `json:"playerId,omitempty"`
	Timeout   bool       `json:"timeout,omitempty"`
	TimeoutMs int64      `json:"timeoutMs,omitempty"`
	Message   string     `json:"message,omitempty"`
}

func errorEvent(message string) ServerEvent {
	return ServerEvent{Type: EventError, Message: message}
}

func roomEvent(eventType string, room game.Room) ServerEvent {
	return ServerEvent{Type: eventType, Room: &room}
}
