// internal/game/moves.go
package game

import (
	"fmt"
	"math/rand"
)

// Move is one of the three game tokens.
type Move string

const (
	MoveRock  Move = "rock"
	MovePaper Move = "paper"
	MoveBeer  Move = "beer"
)

// beatsTable maps each move to the one move it defeats.
// Rock beats Beer, Beer beats Paper, Paper beats Rock.
var beatsTable = map[Move]Move{
	MoveRock:  MoveBeer,
	MoveBeer:  MovePaper,
	MovePaper: MoveRock,
}

var allMoves = []Move{MoveRock, MovePaper, MoveBeer}

// ParseMove validates a raw string and returns the corresponding Move.
func ParseMove(s string) (Move, error) {
	m := Move(s)
	if _, ok := beatsTable[m]; !ok {
		return "", fmt.Errorf("invalid move %q", s)
	}
	return m, nil
}

// Beats reports whether m defeats other.
func (m Move) Beats(other Move) bool {
	return beatsTable[m] == other
}

// RandomMove returns a uniformly random valid move. Used when the round
// timer expires and a silent player needs a move forced on their behalf.
func RandomMove() Move {
	return allMoves[rand.Intn(len(allMoves))]
}

// Winner labels are positional: "player1" is the player at index 0 of the
// room's player list when the round was decided, not a persistent identity.
const (
	WinnerPlayer1 = "player1"
	WinnerPlayer2 = "player2"
	WinnerDraw    = "draw"
)

// RoundResult records the outcome of a finished round.
type RoundResult struct {
	Winner      string `json:"winner"`
	Player1Move Move   `json:"player1Move"`
	Player2Move Move   `json:"player2Move"`
}

// DecideWinner resolves two moves into a RoundResult. moveA belongs to the
// player at index 0, moveB to the player at index 1. Pure and total; callers
// guarantee both inputs are valid moves.
func DecideWinner(moveA, moveB Move) RoundResult {
	result := RoundResult{
		Player1Move: moveA,
		Player2Move: moveB,
	}
	switch {
	case moveA == moveB:
		result.Winner = WinnerDraw
	case moveA.Beats(moveB):
		result.Winner = WinnerPlayer1
	default:
		result.Winner = WinnerPlayer2
	}
	return result
}
