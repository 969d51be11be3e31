package savefile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
)

func newEngine(t *testing.T, size int) *bead.Engine {
	t.Helper()

	engine, err := bead.NewEngine(size)
	require.NoError(t, err)
	engine.Initialize()

	return engine
}

func TestEncode(t *testing.T) {
	// Given: a fresh 4x4 game after Player 1 stepped to (1,1)
	engine := newEngine(t, bead.SmallBoard)
	require.True(t, engine.ApplyMove(bead.First, bead.Position{Row: 0, Col: 0}, bead.Position{Row: 1, Col: 1}))
	engine.SwitchTurn()

	// When: encoding the snapshot
	var buf bytes.Buffer
	err := Encode(&buf, engine.Snapshot())

	// Then: the flat layout is produced
	require.NoError(t, err)
	expected := "2\n" +
		"0 1 1 1 \n" +
		"0 1 0 0 \n" +
		"0 0 0 0 \n" +
		"2 2 2 2 \n"
	assert.Equal(t, expected, buf.String())
}

func TestDecode(t *testing.T) {
	t.Run("Round trip reproduces the snapshot", func(t *testing.T) {
		// Given: a 6x6 game with Player 2 to move
		engine := newEngine(t, bead.LargeBoard)
		require.True(t, engine.ApplyMove(bead.First, bead.Position{Row: 1, Col: 0}, bead.Position{Row: 2, Col: 1}))
		engine.SwitchTurn()

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, engine.Snapshot()))

		// When: decoding it back
		snap, err := Decode(&buf, bead.LargeBoard)

		// Then: board and current player are identical
		require.NoError(t, err)
		assert.Equal(t, engine.Snapshot(), snap)
	})

	t.Run("Accepts any whitespace layout", func(t *testing.T) {
		snap, err := Decode(strings.NewReader("1 0 0 0 0\n0 0 0 0 0 0 0 0 0 0 2 2"), bead.SmallBoard)

		require.NoError(t, err)
		assert.Equal(t, bead.First, snap.Current)
		assert.Equal(t, bead.Player2, snap.Cells[3][3])
	})

	t.Run("Rejects malformed input", func(t *testing.T) {
		tests := map[string]string{
			"empty":          "",
			"bad player":     "3\n0 0 0 0\n0 0 0 0\n0 0 0 0\n0 0 0 0\n",
			"not a number":   "1\n0 0 x 0\n0 0 0 0\n0 0 0 0\n0 0 0 0\n",
			"bad cell value": "1\n0 0 5 0\n0 0 0 0\n0 0 0 0\n0 0 0 0\n",
			"too short":      "1\n0 0 0 0\n0 0 0 0\n",
			"trailing value": "1\n0 0 0 0\n0 0 0 0\n0 0 0 0\n0 0 0 0\n1\n",
		}

		for name, data := range tests {
			t.Run(name, func(t *testing.T) {
				_, err := Decode(strings.NewReader(data), bead.SmallBoard)

				assert.ErrorIs(t, err, ErrMalformed)
			})
		}
	})
}

func TestDecode_WrongBoardSize(t *testing.T) {
	// Given: a save written for the 6x6 board
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, newEngine(t, bead.LargeBoard).Snapshot()))

	// When: decoding it as a 4x4 board
	_, err := Decode(&buf, bead.SmallBoard)

	// Then: the save is rejected instead of read as a garbled board
	require.ErrorIs(t, err, ErrMalformed)
}

func TestStore(t *testing.T) {
	t.Run("Save then Load restores the game", func(t *testing.T) {
		// Given: a saved game with Player 2 to move
		store := NewStore(filepath.Join(t.TempDir(), "saved_game.txt"))
		engine := newEngine(t, bead.SmallBoard)
		require.True(t, engine.ApplyMove(bead.First, bead.Position{Row: 0, Col: 3}, bead.Position{Row: 1, Col: 3}))
		engine.SwitchTurn()
		require.NoError(t, store.Save(engine))

		// When: loading into another engine
		loaded := newEngine(t, bead.SmallBoard)
		ok, err := store.Load(loaded)

		// Then: the state matches
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, engine.Snapshot(), loaded.Snapshot())
	})

	t.Run("Missing file falls back to a fresh game", func(t *testing.T) {
		// Given: an engine in the middle of a game
		store := NewStore(filepath.Join(t.TempDir(), "absent.txt"))
		engine := newEngine(t, bead.SmallBoard)
		require.True(t, engine.ApplyMove(bead.First, bead.Position{Row: 0, Col: 0}, bead.Position{Row: 1, Col: 0}))
		engine.SwitchTurn()

		// When: loading a file that does not exist
		ok, err := store.Load(engine)

		// Then: the engine is reset and the failure is reported, not fatal
		require.Error(t, err)
		assert.False(t, ok)
		assert.Equal(t, newEngine(t, bead.SmallBoard).Snapshot(), engine.Snapshot())
	})

	t.Run("Save for another board size falls back to a fresh game", func(t *testing.T) {
		// Given: a 6x6 game saved to disk
		store := NewStore(filepath.Join(t.TempDir(), "saved_game.txt"))
		large := newEngine(t, bead.LargeBoard)
		require.True(t, large.ApplyMove(bead.First, bead.Position{Row: 1, Col: 0}, bead.Position{Row: 2, Col: 0}))
		large.SwitchTurn()
		require.NoError(t, store.Save(large))

		// When: loading it into a 4x4 engine
		engine := newEngine(t, bead.SmallBoard)
		ok, err := store.Load(engine)

		// Then: the engine holds a fresh 4x4 game
		require.ErrorIs(t, err, ErrMalformed)
		assert.False(t, ok)
		assert.Equal(t, newEngine(t, bead.SmallBoard).Snapshot(), engine.Snapshot())
	})

	t.Run("Malformed file falls back to a fresh game", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.txt")
		require.NoError(t, os.WriteFile(path, []byte("1\n1 1\n"), 0o600))

		engine := newEngine(t, bead.SmallBoard)
		engine.SwitchTurn()

		ok, err := NewStore(path).Load(engine)

		require.ErrorIs(t, err, ErrMalformed)
		assert.False(t, ok)
		assert.Equal(t, bead.First, engine.Current())
	})
}
