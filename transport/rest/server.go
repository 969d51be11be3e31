package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/bead-backend/internal/entity"
)

// maxSaveSize bounds an uploaded save; a 12x12 board is well under it.
const maxSaveSize = 4 << 10

type saveUseCase interface {
	ExportGame(ctx context.Context, gameID string) ([]byte, error)
	ImportGame(ctx context.Context, gameID string, data []byte) (*entity.Game, error)
}

type Server struct {
	logger      *slog.Logger
	saveUseCase saveUseCase

	echo *echo.Echo
}

func New(logger *slog.Logger, saveUseCase saveUseCase) *Server {
	server := &Server{
		logger:      logger,
		saveUseCase: saveUseCase,
		echo:        echo.New(),
	}

	server.echo.HideBanner = true
	server.echo.HidePort = true

	server.echo.GET("/ping", pingHandler)
	server.echo.GET("/games/:id/save", server.exportHandler)
	server.echo.PUT("/games/:id/save", server.importHandler)

	return server
}

func (that *Server) Handler() http.Handler {
	return that.echo
}

// Start - starts HTTP server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	that.echo.Server.ReadTimeout = 10 * time.Second
	that.echo.Server.WriteTimeout = 10 * time.Second
	that.echo.Server.IdleTimeout = 30 * time.Second

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := that.echo.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown http server", "error", err)
		}
	}()

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
