package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/savefile"
	"github.com/rocketscienceinc/bead-backend/internal/turntimer"
)

const initialBoard = "1 1 1 1 \n. . . . \n. . . . \n2 2 2 2 \n"

type fixedRand int

func (that fixedRand) Intn(n int) int {
	return int(that) % n
}

func newTestConsole(t *testing.T, input, savePath string, opts ...turntimer.Option) (*console, *bytes.Buffer) {
	t.Helper()

	engine, err := bead.NewEngine(bead.SmallBoard, bead.WithRand(fixedRand(0)))
	require.NoError(t, err)

	if savePath == "" {
		savePath = filepath.Join(t.TempDir(), "saved_game.txt")
	}

	out := &bytes.Buffer{}
	game := newConsole(slog.New(slog.NewJSONHandler(io.Discard, nil)),
		strings.NewReader(input), out, engine,
		savefile.NewStore(savePath),
		turntimer.New(30*time.Second, opts...),
	)
	game.sleep = func(time.Duration) {}

	return game, out
}

func TestConsole_Moves(t *testing.T) {
	t.Run("Plays a move and quits without saving", func(t *testing.T) {
		// Given: a new game where Player 1 steps forward then Player 2 quits
		game, out := newTestConsole(t, "n\n0 0 1 0\n-1 -1 -1 -1\nn\n", "")

		// When: running the console
		require.NoError(t, game.run())

		// Then: both boards are printed and the quit is announced
		text := out.String()
		assert.Contains(t, text, initialBoard)
		assert.Contains(t, text, ". 1 1 1 \n1 . . . \n. . . . \n2 2 2 2 \n")
		assert.Contains(t, text, "Player 2's turn.")
		assert.Contains(t, text, "Player 2 has quit the game.")
		assert.NotContains(t, text, "Game Over!")
	})

	t.Run("Explains rejected moves and re-prompts", func(t *testing.T) {
		input := "n 0 0 2 0 9 9 1 1 3 0 2 0 0 0 0 1 -1 -1 -1 -1 n"
		game, out := newTestConsole(t, input, "")

		require.NoError(t, game.run())

		text := out.String()
		assert.Contains(t, text, "Invalid move: The move is neither simple nor a valid jump.")
		assert.Contains(t, text, "Invalid move: Out of board bounds.")
		assert.Contains(t, text, "Invalid move: The selected source does not contain your bead.")
		assert.Contains(t, text, "Invalid move: The destination is not empty.")
		assert.Contains(t, text, "Player 1 has quit the game.")
	})

	t.Run("Non-numeric input is reported", func(t *testing.T) {
		game, out := newTestConsole(t, "n abc -1 -1 -1 -1 n", "")

		require.NoError(t, game.run())

		assert.Contains(t, out.String(), `Invalid input: not a number: "abc"`)
	})

	t.Run("End of input stops the game", func(t *testing.T) {
		game, _ := newTestConsole(t, "n 0 0", "")

		require.ErrorIs(t, game.run(), io.EOF)
	})
}

func TestConsole_Timer(t *testing.T) {
	// Given: a clock that jumps past the limit once the first turn started
	start := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		if calls <= 2 {
			return start
		}
		return start.Add(31 * time.Second)
	}

	game, out := newTestConsole(t, "n 0 0 1 0 -1 -1 -1 -1 n", "", turntimer.WithClock(clock))

	// When: Player 1 answers late
	require.NoError(t, game.run())

	// Then: the move is dropped and Player 2 is on turn
	text := out.String()
	assert.Contains(t, text, "Time's up! Player 1 has run out of time.")
	assert.Contains(t, text, "Player 2's turn.")
	assert.Equal(t, bead.Player1, game.engine.CellAt(bead.Position{Row: 0, Col: 0}))
}

func TestConsole_Computer(t *testing.T) {
	// Given: the computer plays Player 2
	game, out := newTestConsole(t, "n 0 0 1 0 -1 -1 -1 -1 n", "")
	game.computer = true

	// When: Player 1 moves
	require.NoError(t, game.run())

	// Then: the computer answers with its first simple step
	text := out.String()
	assert.Contains(t, text, "Computer moves 3 0 -> 2 0")
	assert.Contains(t, text, ". 1 1 1 \n1 . . . \n2 . . . \n. 2 2 2 \n")
	assert.Contains(t, text, "Player 1 has quit the game.")
}

func TestConsole_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved_game.txt")

	t.Run("Saves on quit", func(t *testing.T) {
		game, out := newTestConsole(t, "n 0 0 1 0 -1 -1 -1 -1 y", path)

		require.NoError(t, game.run())

		assert.Contains(t, out.String(), "Game saved successfully!")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "2\n0 1 1 1 \n1 0 0 0 \n0 0 0 0 \n2 2 2 2 \n", string(data))
	})

	t.Run("Loads on start", func(t *testing.T) {
		game, out := newTestConsole(t, "y -1 -1 -1 -1 n", path)

		require.NoError(t, game.run())

		text := out.String()
		assert.Contains(t, text, "Game loaded successfully!")
		assert.Contains(t, text, "Player 2's turn.")
		assert.Contains(t, text, ". 1 1 1 \n1 . . . \n")
	})

	t.Run("Missing save starts a new game", func(t *testing.T) {
		game, out := newTestConsole(t, "y -1 -1 -1 -1 n", filepath.Join(t.TempDir(), "absent.txt"))

		require.NoError(t, game.run())

		text := out.String()
		assert.Contains(t, text, "No saved game found. Starting a new game!")
		assert.Contains(t, text, initialBoard)
	})
}

func TestConsole_GameOver(t *testing.T) {
	tests := []struct {
		name     string
		save     string
		expected string
	}{
		{
			name:     "Opponent without beads",
			save:     "1\n1 0 0 0\n0 0 0 0\n0 0 0 0\n0 0 0 0\n",
			expected: "Player 2 has no beads left. Player 1 wins!",
		},
		{
			name:     "Blocked player",
			save:     "1\n1 2 2 0\n2 2 0 0\n2 0 2 0\n0 0 0 0\n",
			expected: "Player 1 is blocked. Player 2 wins!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a saved position that is already decided
			path := filepath.Join(t.TempDir(), "saved_game.txt")
			require.NoError(t, os.WriteFile(path, []byte(tt.save), 0o600))

			game, out := newTestConsole(t, "y", path)

			// When: loading it
			require.NoError(t, game.run())

			// Then: the winner is announced
			assert.Contains(t, out.String(), tt.expected)
			assert.Contains(t, out.String(), "Game Over!")
		})
	}
}
