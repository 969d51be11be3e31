package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/savefile"
	"github.com/rocketscienceinc/bead-backend/internal/turntimer"
)

const quitCoordinate = -1

var errNotANumber = errors.New("not a number")

// console runs one game in a terminal.
type console struct {
	logger *slog.Logger
	in     *bufio.Scanner
	out    io.Writer

	engine *bead.Engine
	store  *savefile.Store
	timer  *turntimer.Timer

	// computer plays Player 2 when set.
	computer bool
	botDelay time.Duration
	sleep    func(time.Duration)
}

func newConsole(logger *slog.Logger, in io.Reader, out io.Writer, engine *bead.Engine, store *savefile.Store, timer *turntimer.Timer) *console {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	return &console{
		logger: logger,
		in:     scanner,
		out:    out,
		engine: engine,
		store:  store,
		timer:  timer,
		sleep:  time.Sleep,
	}
}

func (that *console) run() error {
	if err := that.start(); err != nil {
		return err
	}

	for {
		current := that.engine.Current()
		that.printf("Player %d's turn.\n", current)

		if status := that.engine.Status(); status.Finished() {
			that.announce(status)
			break
		}

		if that.computer && current == bead.Second {
			that.playComputer()
			that.engine.SwitchTurn()
			continue
		}

		quit, err := that.playHuman(current)
		if err != nil {
			return err
		}

		if quit {
			return nil
		}

		that.engine.SwitchTurn()
	}

	that.printf("Game Over!\n")

	return nil
}

func (that *console) start() error {
	answer, err := that.ask("Do you want to load a previous game? (y/n): ")
	if err != nil {
		return err
	}

	if !yes(answer) {
		that.engine.Initialize()
		that.printBoard()
		return nil
	}

	loaded, err := that.store.Load(that.engine)
	if err != nil {
		that.logger.Warn("failed to load saved game", "path", that.store.Path(), "error", err)
	}

	if loaded {
		that.printf("Game loaded successfully!\n")
	} else {
		that.printf("No saved game found. Starting a new game!\n")
	}

	that.printBoard()

	return nil
}

// announce reports how a finished game was decided.
func (that *console) announce(status bead.Status) {
	winner := status.Winner()
	loser := winner.Opponent()

	if that.engine.CountBeads(loser) == 0 {
		that.printf("Player %d has no beads left. Player %d wins!\n", loser, winner)
		return
	}

	that.printf("Player %d is blocked. Player %d wins!\n", loser, winner)
}

func (that *console) playComputer() {
	that.sleep(that.botDelay)

	move, ok := that.engine.PickComputerMove(bead.Second)
	if !ok {
		that.printf("Computer has no move.\n")
		return
	}

	that.printf("Computer moves %d %d -> %d %d\n", move.From.Row, move.From.Col, move.To.Row, move.To.Col)
	that.printBoard()
}

// playHuman reads moves until one is legal, the clock runs out or the
// player quits. The clock is checked after every input.
func (that *console) playHuman(current bead.Player) (bool, error) {
	that.timer.Reset()

	for {
		that.printf("Enter source(row, col) and destination(row, col) (or -1 -1 -1 -1 to quit): ")

		move, err := that.readMove()
		if errors.Is(err, errNotANumber) {
			that.printf("Invalid input: %v\n", err)
			continue
		}

		if err != nil {
			return true, err
		}

		if isQuit(move) {
			return true, that.quit(current)
		}

		if that.timer.Expired() {
			that.printf("Time's up! Player %d has run out of time.\n", current)
			return false, nil
		}

		if reason := that.rejection(current, move); reason != "" {
			that.printf("Invalid move: %s\n", reason)
			continue
		}

		that.engine.ApplyMove(current, move.From, move.To)
		that.printBoard()

		return false, nil
	}
}

// rejection explains why move is illegal, or returns "" for a legal move.
func (that *console) rejection(current bead.Player, move bead.Move) string {
	switch {
	case !that.engine.IsPositionValid(move.From) || !that.engine.IsPositionValid(move.To):
		return "Out of board bounds."
	case that.engine.CellAt(move.From) != current.Cell():
		return "The selected source does not contain your bead."
	case !that.engine.IsEmpty(move.To):
		return "The destination is not empty."
	case that.engine.Classify(current, move.From, move.To) == bead.Illegal:
		return "The move is neither simple nor a valid jump."
	default:
		return ""
	}
}

func (that *console) quit(current bead.Player) error {
	answer, err := that.ask("Do you want to save the game before quitting? (y/n): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if yes(answer) {
		if err = that.store.Save(that.engine); err != nil {
			that.logger.Error("failed to save game", "path", that.store.Path(), "error", err)
			that.printf("Error saving the game!\n")
		} else {
			that.printf("Game saved successfully!\n")
		}
	}

	that.printf("Player %d has quit the game.\n", current)

	return nil
}

func (that *console) readMove() (bead.Move, error) {
	var values [4]int

	for i := range values {
		word, err := that.word()
		if err != nil {
			return bead.Move{}, err
		}

		values[i], err = strconv.Atoi(word)
		if err != nil {
			return bead.Move{}, fmt.Errorf("%w: %q", errNotANumber, word)
		}
	}

	return bead.Move{
		From: bead.Position{Row: values[0], Col: values[1]},
		To:   bead.Position{Row: values[2], Col: values[3]},
	}, nil
}

func (that *console) ask(prompt string) (string, error) {
	that.printf("%s", prompt)

	return that.word()
}

func (that *console) word() (string, error) {
	if !that.in.Scan() {
		if err := that.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}

	return that.in.Text(), nil
}

func (that *console) printBoard() {
	var sb strings.Builder

	for _, row := range that.engine.Snapshot().Cells {
		for _, cell := range row {
			if cell == bead.Empty {
				sb.WriteString(". ")
			} else {
				sb.WriteString(strconv.Itoa(int(cell)) + " ")
			}
		}
		sb.WriteByte('\n')
	}

	that.printf("%s", sb.String())
}

func (that *console) printf(format string, args ...any) {
	fmt.Fprintf(that.out, format, args...)
}

func isQuit(move bead.Move) bool {
	return move.From.Row == quitCoordinate && move.From.Col == quitCoordinate &&
		move.To.Row == quitCoordinate && move.To.Col == quitCoordinate
}

func yes(answer string) bool {
	return answer == "y" || answer == "Y"
}
