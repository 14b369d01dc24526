// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/config"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/game"
	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/store"
)

// playerConn is a single live connection's presence in the coordinator. Its
// ID doubles as the player id for every room the connection joins.
type playerConn struct {
	ID      uuid.UUID
	Name    string
	OutChan chan ServerEvent
	logger  *logrus.Logger
}

// send pushes an event onto the connection's out channel non-blockingly.
// A full or closed channel drops the event; the write pump owns delivery.
func (c *playerConn) send(ev ServerEvent) {
	select {
	case c.OutChan <- ev:
	default:
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"player_id": c.ID,
				"event":     ev.Type,
			}).Warn("OutChan full or closed, dropped event")
		}
	}
}

func (c *playerConn) sendError(message string) {
	c.send(errorEvent(message))
}

// GameServer is the session coordinator. It owns the room store, the timeout
// supervisor and the per-room broadcast groups, and it processes one action
// at a time: the mutex is held from loading the snapshot through enqueueing
// the resulting broadcasts, so members observe events in FIFO order per room
// and no two transitions interleave on the same room.
type GameServer struct {
	mu       sync.Mutex
	store    store.RoomStore
	timeouts *TimeoutSupervisor
	cfg      config.Config
	logger   *logrus.Logger

	// members maps room id -> player id -> live connection.
	members map[uuid.UUID]map[uuid.UUID]*playerConn
}

func NewGameServer(roomStore store.RoomStore, cfg config.Config, logger *logrus.Logger) *GameServer {
	return &GameServer{
		store:    roomStore,
		timeouts: NewTimeoutSupervisor(),
		cfg:      cfg,
		logger:   logger,
		members:  make(map[uuid.UUID]map[uuid.UUID]*playerConn),
	}
}

// HandleAction validates and dispatches one inbound client action. Failures
// of any kind are replied to the originating connection only; broadcasts
// happen solely after a transition has been persisted.
func (s *GameServer) HandleAction(ctx context.Context, conn *playerConn, action ClientAction) {
	switch action.Action {
	case ActionCreateRoom:
		s.handleCreateRoom(ctx, conn, action)
	case ActionGetRoom:
		s.handleGetRoom(ctx, conn, action)
	case ActionJoinRoom:
		s.handleJoinRoom(ctx, conn, action)
	case ActionStartRound:
		s.handleStartRound(ctx, conn, action)
	case ActionSubmitMove:
		s.handleSubmitMove(ctx, conn, action)
	default:
		conn.sendError(fmt.Sprintf("Unknown action type: %s", action.Action))
	}
}

func validPlayerName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= 20
}

func (s *GameServer) handleCreateRoom(ctx context.Context, conn *playerConn, action ClientAction) {
	if !validPlayerName(action.PlayerName) {
		conn.sendError("playerName must be between 1 and 20 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room := game.NewRoom(conn.ID, action.PlayerName, action.Avatar)
	if err := s.store.Put(ctx, room); err != nil {
		s.logger.WithError(err).Error("Failed to store new room")
		conn.sendError("Failed to create room")
		return
	}
	conn.Name = action.PlayerName
	s.members[room.ID] = map[uuid.UUID]*playerConn{conn.ID: conn}

	conn.send(roomEvent(EventRoomCreated, room))
	conn.send(roomEvent(EventRoomUpdated, room))
	s.logger.WithFields(logrus.Fields{
		"room_id":   room.ID,
		"room_code": room.Code,
		"player":    action.PlayerName,
	}).Info("Room created")
}

func (s *GameServer) handleGetRoom(ctx context.Context, conn *playerConn, action ClientAction) {
	roomID, err := uuid.Parse(action.RoomID)
	if err != nil {
		conn.sendError("Room not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		conn.sendError("Room not found")
		return
	}
	conn.send(roomEvent(EventRoomData, room))
}

func (s *GameServer) handleJoinRoom(ctx context.Context, conn *playerConn, action ClientAction) {
	if !validPlayerName(action.PlayerName) {
		conn.sendError("playerName must be between 1 and 20 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Joining works by short code or by room id; the code path wins when
	// both are present.
	var roomID uuid.UUID
	switch {
	case action.RoomCode != "":
		found, err := s.store.GetByCode(ctx, action.RoomCode)
		if err != nil {
			conn.sendError("Room not found with that code")
			return
		}
		roomID = found.ID
	case action.RoomID != "":
		id, err := uuid.Parse(action.RoomID)
		if err != nil {
			conn.sendError("Room not found")
			return
		}
		roomID = id
	default:
		conn.sendError("Room ID or code required")
		return
	}

	room, err := s.store.Update(ctx, roomID, func(r game.Room) (game.Room, error) {
		return r.AddPlayer(conn.ID, action.PlayerName, action.Avatar)
	})
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			conn.sendError("Room not found")
			return
		}
		conn.sendError(err.Error())
		return
	}

	conn.Name = action.PlayerName
	group, ok := s.members[room.ID]
	if !ok {
		group = make(map[uuid.UUID]*playerConn)
		s.members[room.ID] = group
	}
	group[conn.ID] = conn

	s.broadcastLocked(room.ID, roomEvent(EventRoomUpdated, room))
	s.logger.WithFields(logrus.Fields{
		"room_id":   room.ID,
		"room_code": room.Code,
		"player":    action.PlayerName,
	}).Info("Player joined room")
}

func (s *GameServer) handleStartRound(ctx context.Context, conn *playerConn, action ClientAction) {
	roomID, err := uuid.Parse(action.RoomID)
	if err != nil {
		conn.sendError("Room not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.store.Update(ctx, roomID, func(r game.Room) (game.Room, error) {
		if len(r.Players) < 2 {
			return game.Room{}, game.ErrNotEnoughPlayers
		}
		return r.StartRound(), nil
	})
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			conn.sendError("Room not found")
			return
		}
		conn.sendError(err.Error())
		return
	}

	round := room.CurrentRound
	s.timeouts.Arm(room.ID, s.cfg.MoveTimeout, func() {
		s.handleMoveTimeout(room.ID, round)
	})

	started := roomEvent(EventRoundStarted, room)
	started.TimeoutMs = s.cfg.MoveTimeout.Milliseconds()
	s.broadcastLocked(room.ID, started)
	s.broadcastLocked(room.ID, roomEvent(EventRoomUpdated, room))
	s.logger.WithFields(logrus.Fields{
		"room_id": room.ID,
		"round":   room.CurrentRound,
	}).Info("Round started")
}

func (s *GameServer) handleSubmitMove(ctx context.Context, conn *playerConn, action ClientAction) {
	roomID, err := uuid.Parse(action.RoomID)
	if err != nil {
		conn.sendError("Room not found")
		return
	}
	move, err := game.ParseMove(action.Move)
	if err != nil {
		conn.sendError("move must be one of rock, paper, beer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.store.Update(ctx, roomID, func(r game.Room) (game.Room, error) {
		return r.SubmitMove(conn.ID, move)
	})
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			conn.sendError("Room not found")
			return
		}
		conn.sendError(err.Error())
		return
	}

	s.broadcastLocked(room.ID, roomEvent(EventMoveSubmitted, room))

	if current := room.CurrentRoundSnapshot(); current != nil && current.State == game.RoundFinished {
		s.timeouts.Cancel(room.ID)
		s.broadcastLocked(room.ID, roomEvent(EventRoundFinished, room))
		s.logger.WithFields(logrus.Fields{
			"room_id": room.ID,
			"round":   room.CurrentRound,
			"winner":  current.Result.Winner,
		}).Info("Round finished")
	}
}

// handleMoveTimeout runs when the armed deadline for a room expires. Every
// player still silent gets a uniformly random move pushed through the same
// SubmitMove transition a real client uses, so the completion check and the
// result computation are shared verbatim. Store failures here are logged and
// never surface to any connection.
//
// round pins the deadline to the round it was armed for. A fire can pass the
// supervisor's staleness check and then lose the race for the server mutex to
// a submitMove/startRound pair; by the time it reloads the room, a newer
// round may be waiting. Such a fire must not touch it.
func (s *GameServer) handleMoveTimeout(roomID uuid.UUID, round int) {
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		s.logger.WithError(err).WithField("room_id", roomID).Warn("Move timeout fired for unavailable room")
		return
	}
	if room.CurrentRound != round {
		return
	}
	if room.GamePhase != game.PhaseRound {
		return
	}
	current := room.CurrentRoundSnapshot()
	if current == nil || current.State != game.RoundWaiting {
		return
	}

	for _, player := range room.Players {
		if _, submitted := current.Moves[player.ID]; submitted {
			continue
		}
		forced := game.RandomMove()
		updated, err := s.store.Update(ctx, roomID, func(r game.Room) (game.Room, error) {
			return r.SubmitMove(player.ID, forced)
		})
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"room_id":   roomID,
				"player_id": player.ID,
			}).Warn("Failed to auto-submit move on timeout")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"room_id": roomID,
			"player":  player.Name,
			"move":    forced,
		}).Info("Timeout: auto-submitted random move")

		submitted := roomEvent(EventMoveSubmitted, updated)
		submitted.Timeout = true
		submitted.PlayerID = player.ID.String()
		s.broadcastLocked(roomID, submitted)

		room = updated
		current = room.CurrentRoundSnapshot()
		if current != nil && current.State == game.RoundFinished {
			s.broadcastLocked(roomID, roomEvent(EventRoundFinished, room))
			s.logger.WithField("room_id", roomID).Info("Round finished after timeout")
			break
		}
	}
}

// Disconnect removes the connection's player from every room containing it,
// deletes rooms left empty, cancels their armed deadlines and notifies the
// remaining members. Invoked once when the transport connection dies.
func (s *GameServer) Disconnect(ctx context.Context, conn *playerConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms, err := s.store.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list rooms during disconnect cleanup")
		rooms = nil
	}

	for _, room := range rooms {
		if !room.HasPlayer(conn.ID) {
			continue
		}
		s.timeouts.Cancel(room.ID)

		updated, err := s.store.Update(ctx, room.ID, func(r game.Room) (game.Room, error) {
			return r.RemovePlayer(conn.ID), nil
		})
		if err != nil {
			s.logger.WithError(err).WithField("room_id", room.ID).Warn("Failed to remove player during disconnect")
			continue
		}

		if len(updated.Players) == 0 {
			if err := s.store.Delete(ctx, room.ID); err != nil {
				s.logger.WithError(err).WithField("room_id", room.ID).Warn("Failed to delete empty room")
			}
			delete(s.members, room.ID)
			s.logger.WithFields(logrus.Fields{
				"room_id": room.ID,
				"player":  conn.Name,
			}).Info("Deleted empty room after disconnect")
			continue
		}

		if group, ok := s.members[room.ID]; ok {
			delete(group, conn.ID)
		}
		ev := roomEvent(EventPlayerDisconnected, updated)
		ev.PlayerID = conn.ID.String()
		s.broadcastLocked(room.ID, ev)
		s.logger.WithFields(logrus.Fields{
			"room_id": room.ID,
			"player":  conn.Name,
		}).Info("Player left room")
	}

	// The connection may still sit in a group whose room another path
	// already deleted; drop it from every group it appears in.
	for roomID, group := range s.members {
		delete(group, conn.ID)
		if len(group) == 0 {
			delete(s.members, roomID)
		}
	}
}

// broadcastLocked sends an event to every member of a room. Caller holds the
// server mutex; sends are non-blocking channel enqueues.
func (s *GameServer) broadcastLocked(roomID uuid.UUID, ev ServerEvent) {
	for _, member := range s.members[roomID] {
		member.send(ev)
	}
}
