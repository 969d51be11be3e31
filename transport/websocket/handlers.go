package websocket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/bead-backend/internal/apperror"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
	"github.com/rocketscienceinc/bead-backend/internal/usecase"
)

const (
	gameStatusOpponentOut = "opponent_out"
	gameStatusLeave       = "leave"
)

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *client) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	var playerID string
	if payloadReq.Player != nil {
		playerID = payloadReq.Player.ID
	}

	player, err := that.gameUseCase.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to create a new player")
	}

	that.register(player.ID, conn)

	if player.GameID != "" {
		return that.handleExistingGame(ctx, conn, msg, player)
	}

	if err = that.sendMessage(conn, msg.Action, Payload{Player: player}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

// handleExistingGame processes a player already in a game.
func (that *Server) handleExistingGame(ctx context.Context, conn *client, msg *Message, player *entity.Player) error {
	log := that.logger.With("method", "handleExistingGame")

	game, err := that.gameUseCase.GetGameByPlayerID(ctx, player.ID)
	if err != nil {
		log.Error("failed to get game", "gameID", player.GameID, "error", err)
		return that.sendMessage(conn, msg.Action, Payload{Player: player})
	}

	return that.sendMessage(conn, msg.Action, that.gamePayload(player, game))
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *client) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.GetOrCreateGame(ctx, payloadReq.Player.ID, payloadReq.Game.Type)
	if err != nil {
		log.Error("failed to create or get game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("failed to create a new game: %v", err))
	}

	that.broadcast(msg.Action, game)
	that.scheduleBotTurn(ctx, game)

	log.Info("game is ready", "gameID", game.ID, "status", game.Status)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, msg *Message, conn *client) error {
	log := that.logger.With("method", "handleJoinGame")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	that.register(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.gameUseCase.JoinGame(ctx, payloadReq.Game.ID, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to join game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	that.broadcast(msg.Action, game)

	log.Info("player joined game", "gameID", game.ID)

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *client) error {
	log := that.logger.With("method", "handleGameTurn")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Move == nil {
		return that.sendErrorResponse(conn, msg.Action, "Move is required")
	}

	that.register(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.gameUseCase.MakeTurn(ctx, payloadReq.Player.ID, *payloadReq.Move)
	switch {
	case errors.Is(err, apperror.ErrGameFinished):
		that.broadcast(msg.Action, game)
		log.Info("game finished", "gameID", game.ID, "winner", int(game.Winner))
		return nil

	case errors.Is(err, apperror.ErrTurnTimeout):
		that.broadcast(msg.Action, game)
		that.scheduleBotTurn(ctx, game)
		return that.sendErrorResponse(conn, msg.Action, err.Error())

	case errors.Is(err, apperror.ErrIllegalMove),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrNoActiveGames):
		return that.sendErrorResponse(conn, msg.Action, err.Error())

	case err != nil:
		log.Error("failed to make turn", "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("failed to turn in game: %v", err))
	}

	that.broadcast(msg.Action, game)
	that.scheduleBotTurn(ctx, game)

	log.Debug("player made a turn", "gameID", game.ID, "move", payloadReq.Move.String())

	return nil
}

func (that *Server) handleGameState(ctx context.Context, msg *Message, conn *client) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	that.register(payloadReq.Player.ID, conn)

	player, err := that.gameUseCase.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("failed to get player: %v", err))
	}

	game, err := that.gameUseCase.GetGameByPlayerID(ctx, player.ID)
	if err != nil {
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	if game.IsFinished() {
		that.broadcast(msg.Action, game)
		return nil
	}

	that.scheduleBotTurn(ctx, game)

	return that.sendMessage(conn, msg.Action, that.gamePayload(player, game))
}

// handleGameMoves answers with the cells the selected bead can reach.
func (that *Server) handleGameMoves(ctx context.Context, msg *Message, conn *client) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.From == nil {
		return that.sendErrorResponse(conn, msg.Action, "From is required")
	}

	that.register(payloadReq.Player.ID, conn)

	_, moves, err := that.gameUseCase.PossibleMoves(ctx, payloadReq.Player.ID, *payloadReq.From)
	if err != nil {
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{From: payloadReq.From, Moves: moves})
}

func (that *Server) handleGameLeave(ctx context.Context, msg *Message, conn *client) error {
	log := that.logger.With("method", "handleGameLeave")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.LeaveGame(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to leave game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "game doesn't exist")
	}

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		playerConn, ok := that.connection(player.ID)
		if !ok {
			continue
		}

		payloadResp := that.gamePayload(player, game)
		payloadResp.Game.Status = gameStatusLeave

		if err = that.sendMessage(playerConn, actionGameLeave, payloadResp); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}

	log.Info("player left", "playerID", payloadReq.Player.ID, "gameID", game.ID)

	return nil
}

// handleDisconnect forgets the socket and starts the reconnect grace period.
func (that *Server) handleDisconnect(conn *client) {
	log := that.logger.With("method", "handleDisconnect")

	that.connectionsMutex.Lock()
	var disconnectedPlayerID string
	for playerID, connection := range that.connections {
		if connection == conn {
			disconnectedPlayerID = playerID
			break
		}
	}

	if disconnectedPlayerID == "" {
		that.connectionsMutex.Unlock()
		return
	}

	delete(that.connections, disconnectedPlayerID)
	that.connectionsMutex.Unlock()

	log.Info("player disconnected", "playerID", disconnectedPlayerID)

	that.disconnectedMutex.Lock()
	that.disconnectedPlayers[disconnectedPlayerID] = time.Now()
	that.disconnectedMutex.Unlock()
}

// handleOpponentOut ends the game of a player who never reconnected.
func (that *Server) handleOpponentOut(ctx context.Context, playerID string) {
	log := that.logger.With("method", "handleOpponentOut")

	game, err := that.gameUseCase.LeaveGame(ctx, playerID)
	if errors.Is(err, apperror.ErrNoActiveGames) {
		return
	}

	if err != nil {
		log.Error("failed to finish game", "playerID", playerID, "error", err)
		return
	}

	for _, player := range game.Players {
		if player.ID == playerID || player.IsBot() {
			continue
		}

		opponentConn, ok := that.connection(player.ID)
		if !ok {
			continue
		}

		payloadResp := that.gamePayload(player, game)
		payloadResp.Game.Status = gameStatusOpponentOut

		if err = that.sendMessage(opponentConn, actionGameLeave, payloadResp); err != nil {
			log.Error("failed to send game:leave message", "playerID", player.ID, "error", err)
		}
	}

	log.Info("handled opponent out", "gameID", game.ID)
}

func (that *Server) playerReconnected(playerID string) {
	that.disconnectedMutex.Lock()
	defer that.disconnectedMutex.Unlock()

	delete(that.disconnectedPlayers, playerID)
}

// scheduleBotTurn plays the bot after the configured delay when it is on turn.
// A game gets at most one pending bot turn.
func (that *Server) scheduleBotTurn(ctx context.Context, game *entity.Game) {
	if game == nil || !that.gameUseCase.BotOnTurn(game) {
		return
	}

	gameID := game.ID
	if !that.reserveBotTurn(gameID) {
		return
	}

	go func() {
		defer that.releaseBotTurn(gameID)

		log := that.logger.With("method", "scheduleBotTurn", "gameID", gameID)

		timer := time.NewTimer(that.botDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		botGame, err := that.gameUseCase.PlayBotTurn(ctx, gameID)
		switch {
		case errors.Is(err, usecase.ErrNotBotTurn):
			log.Debug("bot turn is gone", "error", err)
			if botGame != nil {
				that.broadcast(actionGameState, botGame)
			}
			return
		case err != nil && !errors.Is(err, apperror.ErrGameFinished):
			log.Error("bot failed to play", "error", err)
			return
		}

		that.broadcast(actionGameTurn, botGame)
	}()
}

func (that *Server) reserveBotTurn(gameID string) bool {
	that.pendingBotsMutex.Lock()
	defer that.pendingBotsMutex.Unlock()

	if _, ok := that.pendingBots[gameID]; ok {
		return false
	}
	that.pendingBots[gameID] = struct{}{}

	return true
}

func (that *Server) releaseBotTurn(gameID string) {
	that.pendingBotsMutex.Lock()
	defer that.pendingBotsMutex.Unlock()

	delete(that.pendingBots, gameID)
}

// broadcast sends the game to every human seated in it.
func (that *Server) broadcast(action string, game *entity.Game) {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		conn, ok := that.connection(player.ID)
		if !ok {
			log.Warn("connection not found for player", "playerID", player.ID)
			continue
		}

		if err := that.sendMessage(conn, action, that.gamePayload(player, game)); err != nil {
			log.Error("failed to send game update", "playerID", player.ID, "error", err)
		}
	}
}

func (that *Server) gamePayload(player *entity.Player, game *entity.Game) Payload {
	payload := Payload{
		Player: player,
		Game:   maskGameDetails(game),
	}

	if game.IsOngoing() {
		payload.TimeLeft = game.TurnRemaining(that.gameUseCase.TurnTimeLimit(), time.Now()).Milliseconds()
	}

	return payload
}

// maskGameDetails returns a copy of game without the seat list.
func maskGameDetails(game *entity.Game) *entity.Game {
	masked := *game
	masked.Players = nil

	return &masked
}
