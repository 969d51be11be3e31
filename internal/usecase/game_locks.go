package usecase

import "sync"

// gameLocks serialises the read-modify-write cycles of one game. Entries are
// dropped when nobody holds or waits for them.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[string]*gameLock)}
}

// lock blocks until the game is free and returns the matching unlock.
func (that *gameLocks) lock(gameID string) func() {
	that.mu.Lock()
	entry, ok := that.locks[gameID]
	if !ok {
		entry = &gameLock{}
		that.locks[gameID] = entry
	}
	entry.refs++
	that.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		that.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(that.locks, gameID)
		}
		that.mu.Unlock()
	}
}
