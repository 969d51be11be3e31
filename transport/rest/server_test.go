package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bead-backend/internal/apperror"
	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
	"github.com/rocketscienceinc/bead-backend/internal/repository"
	"github.com/rocketscienceinc/bead-backend/internal/savefile"
)

type mockSaveUseCase struct {
	mock.Mock
}

func (that *mockSaveUseCase) ExportGame(ctx context.Context, gameID string) ([]byte, error) {
	args := that.Called(ctx, gameID)

	data, _ := args.Get(0).([]byte)

	return data, args.Error(1)
}

func (that *mockSaveUseCase) ImportGame(ctx context.Context, gameID string, data []byte) (*entity.Game, error) {
	args := that.Called(ctx, gameID, data)

	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func newTestHandler(t *testing.T) (http.Handler, *mockSaveUseCase) {
	t.Helper()

	useCase := &mockSaveUseCase{}
	t.Cleanup(func() { useCase.AssertExpectations(t) })

	server := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), useCase)

	return server.Handler(), useCase
}

func TestPing(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestExport(t *testing.T) {
	t.Run("Returns the flat save", func(t *testing.T) {
		// Given: a stored game
		handler, useCase := newTestHandler(t)
		save := []byte("1\n1 1 1 1 \n0 0 0 0 \n0 0 0 0 \n2 2 2 2 \n")
		useCase.On("ExportGame", mock.Anything, "12345678").Return(save, nil).Once()

		// When: downloading its save
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/12345678/save", nil))

		// Then: the body is the save text
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, string(save), rec.Body.String())
	})

	t.Run("Unknown game is not found", func(t *testing.T) {
		handler, useCase := newTestHandler(t)
		useCase.On("ExportGame", mock.Anything, "404").
			Return(nil, fmt.Errorf("failed to get game: %w", repository.ErrGameNotFound)).
			Once()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/404/save", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestImport(t *testing.T) {
	save := "2\n1 1 1 1 \n0 0 0 0 \n0 0 0 0 \n2 2 2 2 \n"

	t.Run("Replaces the board", func(t *testing.T) {
		// Given: a running game
		handler, useCase := newTestHandler(t)
		game := &entity.Game{ID: "g1", Size: bead.SmallBoard, Turn: bead.Second, Status: entity.StatusOngoing}
		useCase.On("ImportGame", mock.Anything, "g1", []byte(save)).Return(game, nil).Once()

		// When: uploading a save
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/games/g1/save", strings.NewReader(save)))

		// Then: the updated game is returned as JSON
		require.Equal(t, http.StatusOK, rec.Code)

		var got entity.Game
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "g1", got.ID)
		assert.Equal(t, bead.Second, got.Turn)
	})

	t.Run("A save that ends the game still returns it", func(t *testing.T) {
		handler, useCase := newTestHandler(t)
		game := &entity.Game{ID: "g1", Winner: bead.First, Status: entity.StatusFinished}
		useCase.On("ImportGame", mock.Anything, "g1", []byte(save)).Return(game, apperror.ErrGameFinished).Once()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/games/g1/save", strings.NewReader(save)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"finished"`)
	})

	t.Run("Malformed save is a bad request", func(t *testing.T) {
		handler, useCase := newTestHandler(t)
		useCase.On("ImportGame", mock.Anything, "g1", []byte("garbage")).
			Return(nil, fmt.Errorf("failed to decode save: %w", savefile.ErrMalformed)).
			Once()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/games/g1/save", strings.NewReader("garbage")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Oversized save is rejected", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		body := strings.NewReader(strings.Repeat("0 ", maxSaveSize))
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/games/g1/save", body))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("Wrong method is rejected", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/games/g1/save", strings.NewReader(save)))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
