package bead

import "fmt"

// Snapshot - is the full-board read/write form used by persistence: the
// player to move and the grid row-major.
type Snapshot struct {
	Current Player   `json:"current"`
	Cells   [][]Cell `json:"cells"`
}

// Snapshot copies the engine state out.
func (that *Engine) Snapshot() Snapshot {
	return Snapshot{
		Current: that.current,
		Cells:   that.board.Rows(),
	}
}

// Restore replaces the engine state with snap. On error nothing changes.
func (that *Engine) Restore(snap Snapshot) error {
	if !snap.Current.Valid() {
		return fmt.Errorf("%w: got %d", ErrInvalidPlayer, snap.Current)
	}

	if err := that.board.load(snap.Cells); err != nil {
		return err
	}

	that.current = snap.Current

	return nil
}

// FromSnapshot builds an engine whose size follows the snapshot rows.
func FromSnapshot(snap Snapshot, opts ...Option) (*Engine, error) {
	engine, err := NewEngine(len(snap.Cells), opts...)
	if err != nil {
		return nil, err
	}

	if err = engine.Restore(snap); err != nil {
		return nil, err
	}

	return engine, nil
}
