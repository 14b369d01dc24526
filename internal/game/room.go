// internal/game/room.go
package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GamePhase is the room-level coarse state.
type GamePhase string

const (
	PhaseWaiting GamePhase = "waiting" // room created, second player not yet committed to a round
	PhaseRound   GamePhase = "round"   // a round is open for move submission
	PhaseReveal  GamePhase = "reveal"  // last round finished, result visible
)

// RoundState tracks an individual round's lifecycle. A round is mutable
// only while waiting; once finished it never changes again.
type RoundState string

const (
	RoundWaiting  RoundState = "waiting"
	RoundFinished RoundState = "finished"
)

// Player is one seat in a room. ID is the transport-assigned connection
// identity, stable for the lifetime of that connection and reused as the
// key for move submission.
type Player struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Avatar  string    `json:"avatar,omitempty"`
	IsReady bool      `json:"isReady"`
}

// Round is one move-submission-and-reveal cycle within a room.
type Round struct {
	RoundNumber int                `json:"roundNumber"`
	Moves       map[uuid.UUID]Move `json:"moves"`
	State       RoundState         `json:"state"`
	Result      *RoundResult       `json:"result,omitempty"`
}

// Room is a single two-player game session, addressable by id or short code.
// Transitions never mutate a Room in place; each produces a fresh snapshot so
// the store layer can apply them under its own exclusion discipline.
type Room struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Players      []Player  `json:"players"`
	GamePhase    GamePhase `json:"gamePhase"`
	CurrentRound int       `json:"currentRound"`
	Rounds       []Round   `json:"rounds"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// shortCode derives the 8-character shareable code from a room id. Collisions
// between two live rooms are possible but improbable (4 billion to one per
// pair); code lookups resolve first-match.
func shortCode(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// NewRoom builds a fresh room containing only its creator, in the waiting
// phase, with a newly generated id and derived short code.
func NewRoom(creatorID uuid.UUID, name, avatar string) Room {
	id := uuid.New()
	now := time.Now()
	return Room{
		ID:   id,
		Code: shortCode(id),
		Players: []Player{{
			ID:     creatorID,
			Name:   name,
			Avatar: avatar,
		}},
		GamePhase:    PhaseWaiting,
		CurrentRound: 0,
		Rounds:       []Round{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// clone returns a deep copy of the room so transitions can build a new
// snapshot without aliasing the caller's players, rounds or move maps.
func (r Room) clone() Room {
	out := r
	out.Players = make([]Player, len(r.Players))
	copy(out.Players, r.Players)
	out.Rounds = make([]Round, len(r.Rounds))
	for i, rd := range r.Rounds {
		out.Rounds[i] = rd
		out.Rounds[i].Moves = make(map[uuid.UUID]Move, len(rd.Moves))
		for pid, m := range rd.Moves {
			out.Rounds[i].Moves[pid] = m
		}
		if rd.Result != nil {
			res := *rd.Result
			out.Rounds[i].Result = &res
		}
	}
	return out
}

// Clone returns an independent deep copy of the room snapshot.
func (r Room) Clone() Room {
	return r.clone()
}

// AddPlayer appends a player to the room. Fails with ErrRoomFull when the
// room already seats two. The game phase is not touched.
func (r Room) AddPlayer(playerID uuid.UUID, name, avatar string) (Room, error) {
	if len(r.Players) >= 2 {
		return Room{}, ErrRoomFull
	}
	out := r.clone()
	out.Players = append(out.Players, Player{
		ID:     playerID,
		Name:   name,
		Avatar: avatar,
	})
	out.UpdatedAt = time.Now()
	return out, nil
}

// RemovePlayer filters the player out of the room. The caller is responsible
// for deleting the room entirely once it has zero players; an empty room is
// garbage, never stored.
func (r Room) RemovePlayer(playerID uuid.UUID) Room {
	out := r.clone()
	players := out.Players[:0]
	for _, p := range out.Players {
		if p.ID != playerID {
			players = append(players, p)
		}
	}
	out.Players = players
	out.UpdatedAt = time.Now()
	return out
}

// HasPlayer reports whether the room seats the given player id.
func (r Room) HasPlayer(playerID uuid.UUID) bool {
	for _, p := range r.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// StartRound opens a new round: appends it with an empty move map, advances
// the round counter, enters the round phase and clears every player's ready
// flag. The two-player precondition is enforced by the coordinator before
// this is invoked.
func (r Room) StartRound() Room {
	out := r.clone()
	out.CurrentRound = r.CurrentRound + 1
	out.Rounds = append(out.Rounds, Round{
		RoundNumber: out.CurrentRound,
		Moves:       map[uuid.UUID]Move{},
		State:       RoundWaiting,
	})
	out.GamePhase = PhaseRound
	for i := range out.Players {
		out.Players[i].IsReady = false
	}
	out.UpdatedAt = time.Now()
	return out
}

// SubmitMove records a player's move for the current round. Submitting twice
// before the round finishes overwrites the prior move: last write wins. When
// every seated player has a move and the room is full, the round is decided,
// marked finished, and the room enters the reveal phase.
func (r Room) SubmitMove(playerID uuid.UUID, move Move) (Room, error) {
	if r.GamePhase != PhaseRound {
		return Room{}, ErrWrongPhase
	}
	if len(r.Rounds) == 0 {
		return Room{}, ErrNoCurrentRound
	}
	if r.Rounds[len(r.Rounds)-1].State != RoundWaiting {
		return Room{}, ErrRoundFinished
	}

	out := r.clone()
	round := &out.Rounds[len(out.Rounds)-1]
	round.Moves[playerID] = move

	allSubmitted := true
	for _, p := range out.Players {
		if _, ok := round.Moves[p.ID]; !ok {
			allSubmitted = false
			break
		}
	}

	if allSubmitted && len(out.Players) == 2 {
		result := DecideWinner(round.Moves[out.Players[0].ID], round.Moves[out.Players[1].ID])
		round.Result = &result
		round.State = RoundFinished
		out.GamePhase = PhaseReveal
	}

	out.UpdatedAt = time.Now()
	return out, nil
}

// CurrentRoundSnapshot returns the most recent round, or nil if none exists.
func (r Room) CurrentRoundSnapshot() *Round {
	if len(r.Rounds) == 0 {
		return nil
	}
	return &r.Rounds[len(r.Rounds)-1]
}
