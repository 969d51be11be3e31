package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/bead-backend/internal/apperror"
	"github.com/rocketscienceinc/bead-backend/internal/repository"
	"github.com/rocketscienceinc/bead-backend/internal/savefile"
)

func (that *Server) exportHandler(ctx echo.Context) error {
	log := that.logger.With("method", "exportHandler")
	gameID := ctx.Param("id")

	data, err := that.saveUseCase.ExportGame(ctx.Request().Context(), gameID)
	if err != nil {
		log.Error("failed to export game", "gameID", gameID, "error", err)
		return ctx.String(statusFor(err), err.Error())
	}

	return ctx.Blob(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (that *Server) importHandler(ctx echo.Context) error {
	log := that.logger.With("method", "importHandler")
	gameID := ctx.Param("id")

	data, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxSaveSize+1))
	if err != nil {
		return ctx.String(http.StatusBadRequest, "failed to read save")
	}

	if len(data) > maxSaveSize {
		return ctx.String(http.StatusRequestEntityTooLarge, "save is too large")
	}

	game, err := that.saveUseCase.ImportGame(ctx.Request().Context(), gameID, data)
	if err != nil && !errors.Is(err, apperror.ErrGameFinished) {
		log.Error("failed to import game", "gameID", gameID, "error", err)
		return ctx.String(statusFor(err), err.Error())
	}

	if game == nil {
		return ctx.String(http.StatusNotFound, "game not found")
	}

	return ctx.JSON(http.StatusOK, game)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, savefile.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrGameFinished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
