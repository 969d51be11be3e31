package bead

import (
	"errors"
	"fmt"
)

var ErrInvalidPlayer = errors.New("player must be 1 or 2")

// Player - identifies one of the two sides.
type Player int

const (
	NoPlayer Player = 0
	First    Player = 1
	Second   Player = 2
)

func (that Player) Valid() bool {
	return that == First || that == Second
}

// Opponent returns the other side. NoPlayer has no opponent.
func (that Player) Opponent() Player {
	switch that {
	case First:
		return Second
	case Second:
		return First
	default:
		return NoPlayer
	}
}

// Cell returns the cell value holding this player's bead.
func (that Player) Cell() Cell {
	switch that {
	case First:
		return Player1
	case Second:
		return Player2
	default:
		return Empty
	}
}

func (that Player) String() string {
	return fmt.Sprintf("Player %d", int(that))
}

// ParsePlayer converts the persisted integer form into a Player.
func ParsePlayer(n int) (Player, error) {
	player := Player(n)
	if !player.Valid() {
		return NoPlayer, fmt.Errorf("%w: got %d", ErrInvalidPlayer, n)
	}

	return player, nil
}
