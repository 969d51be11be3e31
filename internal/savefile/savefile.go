// Package savefile reads and writes the flat text save format: the player to
// move on the first line, then one line per board row with space separated
// cell values (0 empty, 1 and 2 for the players).
package savefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
)

var ErrMalformed = errors.New("malformed save data")

// Encode writes snap in the flat text layout.
func Encode(w io.Writer, snap bead.Snapshot) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%d\n", int(snap.Current)); err != nil {
		return fmt.Errorf("failed to write current player: %w", err)
	}

	for _, row := range snap.Cells {
		for _, cell := range row {
			if _, err := fmt.Fprintf(bw, "%d ", int(cell)); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}

		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush save data: %w", err)
	}

	return nil
}

// Decode reads a size x size board. Whitespace layout is not significant,
// only the order of the values. Values left over after the board mean the save
// belongs to another board size.
func Decode(r io.Reader, size int) (bead.Snapshot, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	next := func(what string) (int, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("failed to read %s: %w", what, err)
			}
			return 0, fmt.Errorf("%w: missing %s", ErrMalformed, what)
		}

		n, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not a number", ErrMalformed, what, scanner.Text())
		}

		return n, nil
	}

	n, err := next("current player")
	if err != nil {
		return bead.Snapshot{}, err
	}

	current, err := bead.ParsePlayer(n)
	if err != nil {
		return bead.Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	cells := make([][]bead.Cell, size)
	for i := range cells {
		cells[i] = make([]bead.Cell, size)

		for j := range cells[i] {
			value, err := next(fmt.Sprintf("cell (%d,%d)", i, j))
			if err != nil {
				return bead.Snapshot{}, err
			}

			cell := bead.Cell(value)
			if !cell.Valid() {
				return bead.Snapshot{}, fmt.Errorf("%w: cell (%d,%d) holds %d", ErrMalformed, i, j, value)
			}

			cells[i][j] = cell
		}
	}

	if scanner.Scan() {
		return bead.Snapshot{}, fmt.Errorf("%w: unexpected value %q after a %dx%d board", ErrMalformed, scanner.Text(), size, size)
	}

	if err = scanner.Err(); err != nil {
		return bead.Snapshot{}, fmt.Errorf("failed to read save data: %w", err)
	}

	return bead.Snapshot{Current: current, Cells: cells}, nil
}

// Store - keeps one saved game in a file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (that *Store) Path() string {
	return that.path
}

// Save writes the engine state, replacing the previous save atomically.
func (that *Store) Save(engine *bead.Engine) error {
	dir := filepath.Dir(that.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(that.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create save file: %w", err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err = Encode(tmp, engine.Snapshot()); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close save file: %w", err)
	}

	if err = os.Rename(tmp.Name(), that.path); err != nil {
		return fmt.Errorf("failed to replace save file: %w", err)
	}

	return nil
}

// Load restores the saved game into engine. When the file is absent or
// unreadable the engine is initialized instead and loaded is false; the
// returned error then only explains why.
func (that *Store) Load(engine *bead.Engine) (bool, error) {
	file, err := os.Open(that.path)
	if err != nil {
		engine.Initialize()
		return false, fmt.Errorf("failed to open save file: %w", err)
	}
	defer file.Close()

	snap, err := Decode(file, engine.Size())
	if err != nil {
		engine.Initialize()
		return false, err
	}

	if err = engine.Restore(snap); err != nil {
		engine.Initialize()
		return false, fmt.Errorf("failed to restore saved game: %w", err)
	}

	return true, nil
}
