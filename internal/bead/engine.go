// Package bead implements the rules of the bead capture game: a two-player
// jump/capture game played on a small square grid.
package bead

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Rand - is the random source used by the computer opponent.
type Rand interface {
	Intn(n int) int
}

type Option func(*Engine)

// WithRand replaces the default time-seeded random source.
func WithRand(rnd Rand) Option {
	return func(engine *Engine) {
		engine.rnd = rnd
	}
}

// Engine owns a board and whose turn it is. It is not safe for concurrent use.
type Engine struct {
	board   *Board
	current Player
	rnd     Rand
}

// NewEngine creates an engine with an empty board of side size. Call
// Initialize to place the starting beads.
func NewEngine(size int, opts ...Option) (*Engine, error) {
	board, err := NewBoard(size)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		board:   board,
		current: First,
	}

	for _, opt := range opts {
		opt(engine)
	}

	if engine.rnd == nil {
		engine.rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // it's ok
	}

	return engine, nil
}

// Initialize resets the board: Player 1 fills the top band of rows, Player 2
// the bottom band, band height is size/3. Player 1 moves first.
func (that *Engine) Initialize() {
	that.board.clear()

	size := that.board.Size()
	band := size / 3

	for row := 0; row < size; row++ {
		var cell Cell
		switch {
		case row < band:
			cell = Player1
		case row >= size-band:
			cell = Player2
		default:
			continue
		}

		for col := 0; col < size; col++ {
			that.board.set(Position{Row: row, Col: col}, cell)
		}
	}

	that.current = First
}

func (that *Engine) Size() int {
	return that.board.Size()
}

func (that *Engine) Current() Player {
	return that.current
}

// SetCurrent is used when restoring a game.
func (that *Engine) SetCurrent(player Player) error {
	if !player.Valid() {
		return fmt.Errorf("%w: got %d", ErrInvalidPlayer, player)
	}

	that.current = player

	return nil
}

// SwitchTurn passes the turn after a move or a timeout.
func (that *Engine) SwitchTurn() {
	that.current = that.current.Opponent()
}

func (that *Engine) IsPositionValid(pos Position) bool {
	return that.board.IsValid(pos)
}

// IsEmpty requires a valid position.
func (that *Engine) IsEmpty(pos Position) bool {
	return that.board.IsEmpty(pos)
}

func (that *Engine) CellAt(pos Position) Cell {
	return that.board.At(pos)
}

// Distance classifies a displacement: 1 for the eight neighbours, 2 for a
// straight two-step jump, larger otherwise. A knight offset (squared
// distance 5) counts as 3 so it is never taken for a jump.
func Distance(src, dst Position) int {
	dr := src.Row - dst.Row
	dc := src.Col - dst.Col
	squared := dr*dr + dc*dc

	if squared == 5 {
		return 3
	}

	return int(math.Sqrt(float64(squared)))
}

// owns checks the preconditions shared by both move shapes.
func (that *Engine) owns(player Player, src, dst Position) bool {
	if !player.Valid() {
		return false
	}

	if !that.board.IsValid(src) || !that.board.IsValid(dst) {
		return false
	}

	if that.board.At(src) != player.Cell() {
		return false
	}

	return that.board.IsEmpty(dst)
}

// IsSimpleMove reports whether player may step from src to an adjacent empty dst.
func (that *Engine) IsSimpleMove(player Player, src, dst Position) bool {
	if !that.owns(player, src, dst) {
		return false
	}

	return Distance(src, dst) == 1
}

func midpoint(src, dst Position) Position {
	return Position{Row: (src.Row + dst.Row) / 2, Col: (src.Col + dst.Col) / 2}
}

// IsCaptureMove reports whether player may jump from src to dst over an
// opposing bead sitting on the midpoint.
func (that *Engine) IsCaptureMove(player Player, src, dst Position) bool {
	if !that.owns(player, src, dst) {
		return false
	}

	mid := midpoint(src, dst)
	if !that.board.IsValid(mid) {
		return false
	}

	if that.board.At(mid) != player.Opponent().Cell() {
		return false
	}

	return Distance(src, dst) == 2
}

// MoveKind - is the shape of a legal move.
type MoveKind int

const (
	Illegal MoveKind = iota
	Simple
	Capture
)

func (that MoveKind) String() string {
	switch that {
	case Simple:
		return "simple"
	case Capture:
		return "capture"
	default:
		return "illegal"
	}
}

// Classify returns the kind of move src->dst would be for player.
func (that *Engine) Classify(player Player, src, dst Position) MoveKind {
	switch {
	case that.IsSimpleMove(player, src, dst):
		return Simple
	case that.IsCaptureMove(player, src, dst):
		return Capture
	default:
		return Illegal
	}
}

// ApplyMove moves player's bead from src to dst, removing the jumped bead on
// a capture. It returns false and leaves the board untouched when the move is
// not legal.
func (that *Engine) ApplyMove(player Player, src, dst Position) bool {
	if !that.owns(player, src, dst) {
		return false
	}

	switch that.Classify(player, src, dst) {
	case Simple:
	case Capture:
		that.board.set(midpoint(src, dst), Empty)
	default:
		return false
	}

	that.board.set(dst, that.board.At(src))
	that.board.set(src, Empty)

	return true
}

// neighbourhood lists the 5x5 window around pos, row-major, without pos
// itself. Both move shapes stay inside it.
func neighbourhood(pos Position) []Position {
	around := make([]Position, 0, 24)
	for dr := -2; dr <= 2; dr++ {
		for dc := -2; dc <= 2; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			around = append(around, Position{Row: pos.Row + dr, Col: pos.Col + dc})
		}
	}

	return around
}

// HasAnyValidMove reports whether player has at least one legal move.
func (that *Engine) HasAnyValidMove(player Player) bool {
	for _, src := range that.beads(player) {
		for _, dst := range neighbourhood(src) {
			if that.IsCaptureMove(player, src, dst) || that.IsSimpleMove(player, src, dst) {
				return true
			}
		}
	}

	return false
}

func (that *Engine) CountBeads(player Player) int {
	if !player.Valid() {
		return 0
	}

	return that.board.Count(player.Cell())
}

// beads lists the positions holding player's beads, row-major.
func (that *Engine) beads(player Player) []Position {
	if !player.Valid() {
		return nil
	}

	size := that.board.Size()
	positions := make([]Position, 0, that.CountBeads(player))

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			pos := Position{Row: row, Col: col}
			if that.board.At(pos) == player.Cell() {
				positions = append(positions, pos)
			}
		}
	}

	return positions
}

// MovesFrom lists every destination the bead at src can legally reach.
func (that *Engine) MovesFrom(src Position) []Position {
	var player Player
	switch that.board.At(src) {
	case Player1:
		player = First
	case Player2:
		player = Second
	default:
		return nil
	}

	var moves []Position
	for _, dst := range neighbourhood(src) {
		if that.Classify(player, src, dst) != Illegal {
			moves = append(moves, dst)
		}
	}

	return moves
}

func (that *Engine) movesOfKind(player Player, kind MoveKind) []Move {
	var moves []Move
	for _, src := range that.beads(player) {
		for _, dst := range neighbourhood(src) {
			if that.Classify(player, src, dst) == kind {
				moves = append(moves, Move{From: src, To: dst})
			}
		}
	}

	return moves
}

// CaptureMoves lists player's legal jumps ordered by source then destination.
func (that *Engine) CaptureMoves(player Player) []Move {
	return that.movesOfKind(player, Capture)
}

// SimpleMoves lists player's legal steps ordered by source then destination.
func (that *Engine) SimpleMoves(player Player) []Move {
	return that.movesOfKind(player, Simple)
}

// PickComputerMove chooses a move for player and applies it. Captures always
// win over simple moves; within a class the choice is uniform. It returns
// false without touching the board when player cannot move.
func (that *Engine) PickComputerMove(player Player) (Move, bool) {
	candidates := that.CaptureMoves(player)
	if len(candidates) == 0 {
		candidates = that.SimpleMoves(player)
	}

	if len(candidates) == 0 {
		return Move{}, false
	}

	move := candidates[that.rnd.Intn(len(candidates))]
	if !that.ApplyMove(player, move.From, move.To) {
		return Move{}, false
	}

	return move, true
}
