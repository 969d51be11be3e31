package bead

import (
	"errors"
	"fmt"
)

const (
	SmallBoard = 4
	LargeBoard = 6

	minBoardSize = 3
	maxBoardSize = 12
)

var ErrBoardSize = fmt.Errorf("board size is out of range (from %d to %d)", minBoardSize, maxBoardSize)

var (
	ErrCellValue     = errors.New("invalid cell value")
	ErrSnapshotShape = errors.New("snapshot does not match board size")
)

// Cell - is the content of a single board square.
type Cell int

const (
	Empty   Cell = 0
	Player1 Cell = 1
	Player2 Cell = 2
)

func (that Cell) Valid() bool {
	return that == Empty || that == Player1 || that == Player2
}

// Position - is a (row, col) pair, valid only inside the board.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

// Move - is a bead relocation from one square to another.
type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

func (that Move) String() string {
	return that.From.String() + "->" + that.To.String()
}

// Board - is a square grid of cells stored row-major.
type Board struct {
	size  int
	cells []Cell
}

// NewBoard creates an empty board with side size.
func NewBoard(size int) (*Board, error) {
	if size < minBoardSize || size > maxBoardSize {
		return nil, fmt.Errorf("%w: desired size is %[2]dx%[2]d", ErrBoardSize, size)
	}

	return &Board{
		size:  size,
		cells: make([]Cell, size*size),
	}, nil
}

func (that *Board) Size() int {
	return that.size
}

// IsValid reports whether pos lies on the board.
func (that *Board) IsValid(pos Position) bool {
	return pos.Row >= 0 && pos.Col >= 0 && pos.Row < that.size && pos.Col < that.size
}

// IsEmpty requires a valid position.
func (that *Board) IsEmpty(pos Position) bool {
	return that.At(pos) == Empty
}

// At returns the cell at pos, Empty for positions off the board.
func (that *Board) At(pos Position) Cell {
	if !that.IsValid(pos) {
		return Empty
	}

	return that.cells[pos.Row*that.size+pos.Col]
}

func (that *Board) set(pos Position, cell Cell) {
	that.cells[pos.Row*that.size+pos.Col] = cell
}

// Count returns how many cells hold the given value.
func (that *Board) Count(cell Cell) int {
	count := 0
	for _, c := range that.cells {
		if c == cell {
			count++
		}
	}

	return count
}

func (that *Board) clear() {
	for i := range that.cells {
		that.cells[i] = Empty
	}
}

// Rows returns a copy of the grid as rows of cells.
func (that *Board) Rows() [][]Cell {
	rows := make([][]Cell, that.size)
	for i := range rows {
		rows[i] = make([]Cell, that.size)
		copy(rows[i], that.cells[i*that.size:(i+1)*that.size])
	}

	return rows
}

// load replaces the grid with rows, leaving the board untouched on error.
func (that *Board) load(rows [][]Cell) error {
	if len(rows) != that.size {
		return fmt.Errorf("%w: got %d rows, want %d", ErrSnapshotShape, len(rows), that.size)
	}

	for i, row := range rows {
		if len(row) != that.size {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrSnapshotShape, i, len(row), that.size)
		}

		for j, cell := range row {
			if !cell.Valid() {
				return fmt.Errorf("%w: %d at (%d,%d)", ErrCellValue, cell, i, j)
			}
		}
	}

	for i, row := range rows {
		copy(that.cells[i*that.size:(i+1)*that.size], row)
	}

	return nil
}
