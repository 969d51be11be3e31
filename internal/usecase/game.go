package usecase

import (
	"context"
	"time"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
)

// GameUseCase - is what the transports need from the game loop.
type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)

	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, move bead.Move) (*entity.Game, error)
	PossibleMoves(ctx context.Context, playerID string, from bead.Position) (*entity.Game, []bead.Position, error)
	PlayBotTurn(ctx context.Context, gameID string) (*entity.Game, error)
	BotOnTurn(game *entity.Game) bool
	TurnTimeLimit() time.Duration

	ExportGame(ctx context.Context, gameID string) ([]byte, error)
	ImportGame(ctx context.Context, gameID string, data []byte) (*entity.Game, error)
}

var _ GameUseCase = (*GameManager)(nil)
