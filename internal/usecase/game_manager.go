package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/bead-backend/internal/apperror"
	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
	"github.com/rocketscienceinc/bead-backend/internal/pkg"
	"github.com/rocketscienceinc/bead-backend/internal/savefile"
)

var (
	ErrUnknownGameType = errors.New("unknown game type")
	ErrNotBotTurn      = errors.New("it's not the bot's turn")
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// Settings - are the rules knobs of new games.
type Settings struct {
	BoardSize     int
	TurnTimeLimit time.Duration
}

type Option func(*GameManager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(manager *GameManager) {
		manager.now = now
	}
}

// WithRand sets the random source of the bot.
func WithRand(rnd bead.Rand) Option {
	return func(manager *GameManager) {
		manager.rnd = rnd
	}
}

// GameManager runs the turn loop of stored games: seats players, applies
// moves, forfeits expired turns, plays the bot and decides the winner.
type GameManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	gameRepo   gameRepo
	settings   Settings

	now func() time.Time
	rnd bead.Rand

	locks *gameLocks
}

func NewGameManager(logger *slog.Logger, playerRepo playerRepo, gameRepo gameRepo, settings Settings, opts ...Option) *GameManager {
	manager := &GameManager{
		logger: logger,

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		settings:   settings,

		now:   time.Now,
		locks: newGameLocks(),
	}

	for _, opt := range opts {
		opt(manager)
	}

	if manager.rnd == nil {
		manager.rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // it's ok
	}

	return manager
}

func (that *GameManager) TurnTimeLimit() time.Duration {
	return that.settings.TurnTimeLimit
}

func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

// GetOrCreateGame returns the player's current game or opens a new one.
func (that *GameManager) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	if gameType != entity.PrivateType && gameType != entity.WithBotType {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID != "" {
		return that.getGameByID(ctx, player.GameID)
	}

	game, err := that.createGame(ctx, player, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

// JoinGame seats the player as Player 2 and starts the game.
func (that *GameManager) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == game.ID {
		return game, nil
	}

	if !game.IsWaiting() || len(game.Players) >= 2 {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameIsFull, gameID)
	}

	player.GameID = game.ID
	player.Number = bead.Second
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	game.Players = append(game.Players, player)
	game.Start(that.now())
	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Info("player joined game", "gameID", game.ID, "playerID", player.ID)

	return game, nil
}

// MakeTurn plays move for the player. An expired turn is forfeited first;
// if it was this player's turn the move is refused with ErrTurnTimeout. When
// the move ends the game the final state is returned with ErrGameFinished.
func (that *GameManager) MakeTurn(ctx context.Context, playerID string, move bead.Move) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGames
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, err
	}

	if game.IsWaiting() {
		return game, apperror.ErrGameIsNotStarted
	}

	expiredPlayer := game.Turn
	expired, err := that.expireTurn(ctx, game)
	if err != nil {
		return nil, err
	}

	if game.IsFinished() {
		return game, apperror.ErrGameFinished
	}

	if expired && expiredPlayer == player.Number {
		return game, apperror.ErrTurnTimeout
	}

	if err = game.MakeTurn(player.Number, move, that.now()); err != nil {
		if errors.Is(err, apperror.ErrGameFinished) {
			that.finishGame(ctx, game)
		}
		return game, fmt.Errorf("failed to make turn: %w", err)
	}

	return that.saveAfterTurn(ctx, game)
}

// PossibleMoves lists the cells the player's bead at from can reach. A cell
// without one of the player's beads has no moves.
func (that *GameManager) PossibleMoves(ctx context.Context, playerID string, from bead.Position) (*entity.Game, []bead.Position, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	if player.GameID == "" {
		return nil, nil, apperror.ErrNoActiveGames
	}

	game, err := that.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, nil, err
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, nil, err
	}

	engine, err := game.Engine()
	if err != nil {
		return nil, nil, err
	}

	if engine.CellAt(from) != player.Number.Cell() {
		return game, nil, nil
	}

	return game, engine.MovesFrom(from), nil
}

// PlayBotTurn lets the bot move when it is on turn. Concurrent calls for one
// game are serialised, so the bot moves at most once per turn. An expired bot
// turn is forfeited instead of played.
func (that *GameManager) PlayBotTurn(ctx context.Context, gameID string) (*entity.Game, error) {
	log := that.logger.With("method", "PlayBotTurn", "gameID", gameID)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if _, err = that.expireTurn(ctx, game); err != nil {
		return nil, err
	}

	if game.IsFinished() {
		return game, apperror.ErrGameFinished
	}

	onTurn := game.PlayerOnTurn()
	if !game.IsOngoing() || onTurn == nil || !onTurn.IsBot() {
		return game, ErrNotBotTurn
	}

	move, ok, err := game.PlayComputerTurn(that.rnd, that.now())
	if err != nil {
		return nil, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if ok {
		log.Debug("bot moved", "move", move.String())
	} else {
		log.Info("bot has no move, turn skipped")
	}

	return that.saveAfterTurn(ctx, game)
}

// BotOnTurn reports whether the game waits for the bot.
func (that *GameManager) BotOnTurn(game *entity.Game) bool {
	if !game.IsWithBot() || !game.IsOngoing() {
		return false
	}

	onTurn := game.PlayerOnTurn()

	return onTurn != nil && onTurn.IsBot()
}

// GetGameByPlayerID returns the player's game after applying any expired turn.
func (that *GameManager) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGames
	}

	return that.GetGameByID(ctx, player.GameID)
}

func (that *GameManager) GetGameByID(ctx context.Context, gameID string) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if _, err = that.expireTurn(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

// ExportGame renders the board in the flat save format.
func (that *GameManager) ExportGame(ctx context.Context, gameID string) ([]byte, error) {
	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	engine, err := game.Engine()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err = savefile.Encode(&buf, engine.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to encode game %s: %w", gameID, err)
	}

	return buf.Bytes(), nil
}

// ImportGame replaces the board and player to move of an unfinished game
// with a flat save. Malformed data leaves the stored game untouched.
func (that *GameManager) ImportGame(ctx context.Context, gameID string, data []byte) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.IsFinished() {
		return game, apperror.ErrGameFinished
	}

	snap, err := savefile.Decode(bytes.NewReader(data), game.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to decode save for game %s: %w", gameID, err)
	}

	engine, err := bead.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to restore save for game %s: %w", gameID, err)
	}

	game.Sync(engine)
	game.TurnStartedAt = that.now()
	if game.IsOngoing() {
		game.UpdateGameState(engine)
	}

	return that.saveAfterTurn(ctx, game)
}

// LeaveGame ends the player's game; an abandoned running game goes to the opponent.
func (that *GameManager) LeaveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGames
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, err
	}

	if game.IsOngoing() {
		game.Winner = player.Number.Opponent()
	}
	game.Status = entity.StatusFinished

	that.finishGame(ctx, game)

	return game, nil
}

// expireTurn forfeits the turn of a player whose clock ran out.
func (that *GameManager) expireTurn(ctx context.Context, game *entity.Game) (bool, error) {
	now := that.now()
	if !game.TurnExpired(that.settings.TurnTimeLimit, now) {
		return false, nil
	}

	that.logger.Info("turn time is over", "gameID", game.ID, "player", int(game.Turn))

	if err := game.ForfeitTurn(now); err != nil {
		return false, fmt.Errorf("failed to forfeit turn: %w", err)
	}

	if _, err := that.saveAfterTurn(ctx, game); err != nil && !errors.Is(err, apperror.ErrGameFinished) {
		return false, err
	}

	return true, nil
}

// saveAfterTurn persists game and cleans it up once it is over.
func (that *GameManager) saveAfterTurn(ctx context.Context, game *entity.Game) (*entity.Game, error) {
	if game.IsFinished() {
		that.finishGame(ctx, game)
		return game, apperror.ErrGameFinished
	}

	if err := that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

func (that *GameManager) createGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error) {
	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, err
	}

	game, err := entity.NewGame(gameID, gameType, that.settings.BoardSize)
	if err != nil {
		return nil, err
	}

	player.GameID = gameID
	player.Number = bead.First
	game.Players = []*entity.Player{player}

	if game.IsWithBot() {
		humanNumber, botNumber := game.RandomSeats(that.rnd)
		player.Number = humanNumber
		game.Players = append(game.Players, entity.NewBotPlayer(gameID, botNumber))
		game.Start(that.now())
	}

	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Info("game created", "gameID", game.ID, "type", game.Type, "size", game.Size)

	return game, nil
}

// finishGame deletes the stored game and frees its human players.
func (that *GameManager) finishGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "finishGame", "gameID", game.ID)

	if err := that.gameRepo.DeleteByID(ctx, game.ID); err != nil {
		log.Error("failed to delete game", "error", err)
	}

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		freed := *player
		freed.Leave()

		if err := that.playerRepo.CreateOrUpdate(ctx, &freed); err != nil {
			log.Error("failed to update player", "playerID", player.ID, "error", err)
		}
	}

	log.Info("game finished", "winner", int(game.Winner))
}

func (that *GameManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	playerID, err := pkg.GenerateNewSessionID()
	if err != nil {
		return nil, err
	}

	player := &entity.Player{
		ID: playerID,
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}
