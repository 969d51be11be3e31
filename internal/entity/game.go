package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/bead-backend/internal/apperror"
	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/turntimer"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"
)

const (
	PrivateType = "private"
	WithBotType = "bot"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game - is a stored game session. Board and Turn are the engine snapshot;
// Turn keeps the last player to move once the game is finished.
type Game struct {
	ID            string        `json:"id"`
	Size          int           `json:"size"`
	Board         [][]bead.Cell `json:"board"`
	Turn          bead.Player   `json:"player_turn"`
	Winner        bead.Player   `json:"winner,omitempty"`
	Status        string        `json:"status"`
	Players       []*Player     `json:"players,omitempty"`
	Type          string        `json:"type,omitempty"`
	TurnStartedAt time.Time     `json:"turn_started_at"`
}

// NewGame creates a waiting game with the starting layout for size.
func NewGame(id, gameType string, size int) (*Game, error) {
	engine, err := bead.NewEngine(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	engine.Initialize()

	game := &Game{
		ID:     id,
		Size:   size,
		Status: StatusWaiting,
		Type:   gameType,
	}
	game.Sync(engine)

	return game, nil
}

// Engine rebuilds the rules engine from the stored board.
func (that *Game) Engine(opts ...bead.Option) (*bead.Engine, error) {
	engine, err := bead.FromSnapshot(bead.Snapshot{Current: that.Turn, Cells: that.Board}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore board of game %s: %w", that.ID, err)
	}

	return engine, nil
}

// Sync copies the engine state into the game.
func (that *Game) Sync(engine *bead.Engine) {
	snap := engine.Snapshot()

	that.Board = snap.Cells
	that.Turn = snap.Current
	that.Size = engine.Size()
}

// Start moves a waiting game to ongoing and starts the first turn clock.
func (that *Game) Start(now time.Time) {
	that.Status = StatusOngoing
	that.TurnStartedAt = now
}

// UpdateGameState finishes the game when a side has no beads or is blocked.
func (that *Game) UpdateGameState(engine *bead.Engine) {
	status := engine.Status()
	if status.Finished() {
		that.Winner = status.Winner()
		that.Status = StatusFinished
		return
	}

	that.Status = StatusOngoing
}

func (that *Game) MakeTurn(number bead.Player, move bead.Move, now time.Time) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	if that.Turn != number {
		return apperror.ErrNotYourTurn
	}

	engine, err := that.Engine()
	if err != nil {
		return err
	}

	if !engine.ApplyMove(number, move.From, move.To) {
		return fmt.Errorf("%w: %s", apperror.ErrIllegalMove, move)
	}

	that.endTurn(engine, now)

	return nil
}

// PlayComputerTurn lets the engine choose and play for the player on turn.
// A player without a move forfeits the turn.
func (that *Game) PlayComputerTurn(rnd bead.Rand, now time.Time) (bead.Move, bool, error) {
	if err := that.ConfirmOngoingState(); err != nil {
		return bead.Move{}, false, err
	}

	engine, err := that.Engine(bead.WithRand(rnd))
	if err != nil {
		return bead.Move{}, false, err
	}

	move, ok := engine.PickComputerMove(that.Turn)
	that.endTurn(engine, now)

	return move, ok, nil
}

// ForfeitTurn passes the turn without a move, used when the clock ran out.
func (that *Game) ForfeitTurn(now time.Time) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	engine, err := that.Engine()
	if err != nil {
		return err
	}

	that.endTurn(engine, now)

	return nil
}

func (that *Game) endTurn(engine *bead.Engine, now time.Time) {
	engine.SwitchTurn()
	that.Sync(engine)
	that.TurnStartedAt = now
	that.UpdateGameState(engine)
}

// TurnExpired reports whether the player on turn ran out of time.
func (that *Game) TurnExpired(limit time.Duration, now time.Time) bool {
	return that.IsOngoing() && turntimer.Expired(limit, that.TurnStartedAt, now)
}

func (that *Game) TurnRemaining(limit time.Duration, now time.Time) time.Duration {
	return turntimer.Remaining(limit, that.TurnStartedAt, now)
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

// PlayerOnTurn returns nil when the seat on turn is empty.
func (that *Game) PlayerOnTurn() *Player {
	for _, player := range that.Players {
		if player.Number == that.Turn {
			return player
		}
	}

	return nil
}

// RandomSeats decides who plays first in a game against the bot. It returns
// the human's number, then the bot's.
func (that *Game) RandomSeats(rnd bead.Rand) (bead.Player, bead.Player) {
	if rnd.Intn(2) == 0 {
		return bead.First, bead.Second
	}
	return bead.Second, bead.First
}
