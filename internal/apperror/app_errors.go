package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrNoActiveGames    = errors.New("no active games")
	ErrIllegalMove      = errors.New("move is neither a simple step nor a capture")
	ErrTurnTimeout      = errors.New("turn time is over")
	ErrGameIsFull       = errors.New("game already has two players")
)
