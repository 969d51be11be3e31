package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
	"github.com/rocketscienceinc/bead-backend/testing/suite"
)

func TestGameRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage)

	// Given: a new 4x4 game
	game, err := entity.NewGame("123", entity.PrivateType, bead.SmallBoard)
	require.NoError(t, err)

	// When: CreateOrUpdate is called
	err = gameRepo.CreateOrUpdate(ctx, game)

	// Then: no error should be returned, and game is stored
	require.NoError(t, err)
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: an ongoing 6x6 game with a move played
		game, err := entity.NewGame("123", entity.WithBotType, bead.LargeBoard)
		require.NoError(t, err)
		game.Start(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
		game.Players = []*entity.Player{{ID: "p1", Number: bead.First, GameID: "123"}}
		require.NoError(t, game.MakeTurn(bead.First, bead.Move{
			From: bead.Position{Row: 1, Col: 1},
			To:   bead.Position{Row: 2, Col: 2},
		}, game.TurnStartedAt.Add(time.Second)))

		err = gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		assert.Equal(t, game.Board, retrievedGame.Board)
		assert.Equal(t, game.Turn, retrievedGame.Turn)
		assert.Equal(t, game.Status, retrievedGame.Status)
		assert.Equal(t, game.Players, retrievedGame.Players)
		assert.True(t, game.TurnStartedAt.Equal(retrievedGame.TurnStartedAt))
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		nonExistentGameID := "9999999"

		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, nonExistentGameID)

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, ErrGameNotFound)
		assert.Nil(t, retrievedGame)
	})
}

func TestGameRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a stored finished game
		game := &entity.Game{
			ID:     "123",
			Status: entity.StatusFinished,
		}

		err := gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: DeleteByID is called with existing ID
		err = gameRepo.DeleteByID(ctx, game.ID)

		// Then: no error should be returned and the game is gone
		require.NoError(t, err)

		_, err = gameRepo.GetByID(ctx, game.ID)
		require.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// When: DeleteByID is called with non-existent ID
		err := gameRepo.DeleteByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, ErrGameNotFound)
	})
}
