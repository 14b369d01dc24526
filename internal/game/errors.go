// internal/game/errors.go
package game

import "errors"

// Domain errors returned by room transitions. The coordinator classifies
// these with errors.Is when converting failures into error replies.
var (
	ErrRoomFull         = errors.New("Room is full")
	ErrNotEnoughPlayers = errors.New("Not enough players to start a round")
	ErrWrongPhase       = errors.New("Cannot submit move - not in round phase")
	ErrNoCurrentRound   = errors.New("No current round found")
	ErrRoundFinished    = errors.New("Round has already finished")
)
