package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
	"github.com/rocketscienceinc/bead-backend/internal/repository"
	mockedUseCase "github.com/rocketscienceinc/bead-backend/mocks/usecase"
)

// slowGames stores games as JSON like the Redis repository and stalls every
// read, which leaves room for interleaved read-modify-write cycles.
type slowGames struct {
	mu     sync.Mutex
	games  map[string][]byte
	writes int
}

func (that *slowGames) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = data
	that.writes++

	return nil
}

func (that *slowGames) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	data, ok := that.games[id]
	that.mu.Unlock()

	if !ok {
		return nil, repository.ErrGameNotFound
	}

	time.Sleep(20 * time.Millisecond)

	var game entity.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (that *slowGames) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.games, id)

	return nil
}

func TestGameManager_PlayBotTurn_Concurrent(t *testing.T) {
	ctx := context.Background()

	// Given: a stored bot game with the bot on turn
	games := &slowGames{games: make(map[string][]byte)}
	game, _ := botGame(bead.Second)
	require.NoError(t, games.CreateOrUpdate(ctx, game))
	games.writes = 0

	manager := NewGameManager(slog.New(slog.NewJSONHandler(io.Discard, nil)),
		mockedUseCase.NewMockplayerRepo(t), games,
		Settings{BoardSize: bead.SmallBoard, TurnTimeLimit: turnLimit},
		WithClock(func() time.Time { return startedAt }),
		WithRand(fixedRand(0)),
	)

	// When: two bot turns are requested at the same time
	const callers = 2
	errs := make([]error, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = manager.PlayBotTurn(ctx, "g1")
		}()
	}
	close(start)
	wg.Wait()

	// Then: the bot moved once and the second request found the human on turn
	notBotTurn := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrNotBotTurn)
			notBotTurn++
		}
	}
	assert.Equal(t, 1, notBotTurn)
	assert.Equal(t, 1, games.writes)

	stored, err := games.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, bead.First, stored.Turn)
	assert.Equal(t, 4, countCells(stored.Board, y))
	assert.Equal(t, o, stored.Board[3][0])
	assert.Equal(t, y, stored.Board[2][0])
}

func TestGameLocks(t *testing.T) {
	locks := newGameLocks()

	// Given: one holder of game g1
	unlock := locks.lock("g1")

	// When: a second caller asks for g1 and another for g2
	acquired := make(chan struct{})
	go func() {
		release := locks.lock("g1")
		close(acquired)
		release()
	}()

	unlockOther := locks.lock("g2")
	unlockOther()

	// Then: g2 is independent while g1 waits for its holder
	select {
	case <-acquired:
		t.Fatal("g1 was locked twice")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func countCells(board [][]bead.Cell, cell bead.Cell) int {
	count := 0
	for _, row := range board {
		for _, value := range row {
			if value == cell {
				count++
			}
		}
	}

	return count
}
