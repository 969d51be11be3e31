package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
	"github.com/rocketscienceinc/bead-backend/internal/pkg"
)

const (
	sessionCookieName = "user_session"
	writeTimeout      = 10 * time.Second
	watchInterval     = time.Second
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, move bead.Move) (*entity.Game, error)
	PossibleMoves(ctx context.Context, playerID string, from bead.Position) (*entity.Game, []bead.Position, error)
	PlayBotTurn(ctx context.Context, gameID string) (*entity.Game, error)
	BotOnTurn(game *entity.Game) bool
	TurnTimeLimit() time.Duration
}

type handlerFunc func(ctx context.Context, msg *Message, conn *client) error

// client - is one socket; gorilla allows a single concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (that *client) writeJSON(v any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	return that.conn.WriteJSON(v)
}

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase

	botDelay         time.Duration
	reconnectTimeout time.Duration

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	connectionsMutex sync.RWMutex
	connections      map[string]*client

	disconnectedMutex   sync.Mutex
	disconnectedPlayers map[string]time.Time

	// pendingBots holds games with a bot turn already scheduled.
	pendingBotsMutex sync.Mutex
	pendingBots      map[string]struct{}
}

func New(logger *slog.Logger, gameUseCase gameUseCase, botDelay, reconnectTimeout time.Duration) *Server {
	server := &Server{
		logger:      logger,
		gameUseCase: gameUseCase,

		botDelay:         botDelay,
		reconnectTimeout: reconnectTimeout,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),

		connections:         make(map[string]*client),
		disconnectedPlayers: make(map[string]time.Time),
		pendingBots:         make(map[string]struct{}),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameState] = server.handleGameState
	server.handlers[actionGameLeave] = server.handleGameLeave
	server.handlers[actionGameMoves] = server.handleGameMoves

	return server
}

// Handler - returns the websocket endpoint bound to ctx.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(ctx),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go that.watchDisconnected(ctx)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	header := http.Header{}
	if cookie := that.sessionCookie(req); cookie != nil {
		header.Add("Set-Cookie", cookie.String())
	}

	wsConn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &client{conn: wsConn}
	defer func() {
		that.handleDisconnect(conn)
		wsConn.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until it goes away.
func (that *Server) handleMessages(ctx context.Context, conn *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		message, err := readMessage(conn.conn)
		if errors.Is(err, errBadMessage) {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("failed to read message: %w", err)
			}
			return nil
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			if err = that.sendErrorResponse(conn, message.Action, "unknown action"); err != nil {
				log.Error("failed to send error response", "error", err)
			}
			continue
		}

		if err = handler(ctx, message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// sessionCookie - returns a new session cookie when the request has none.
func (that *Server) sessionCookie(req *http.Request) *http.Cookie {
	log := that.logger.With("method", "sessionCookie")

	if cookie, err := req.Cookie(sessionCookieName); err == nil {
		log.Debug("session cookie found", "cookie", cookie.Value)
		return nil
	}

	sessionID, err := pkg.GenerateNewSessionID()
	if err != nil {
		log.Error("failed to generate session id", "error", err)
		return nil
	}

	log.Info("session cookie not found, new one created")

	return &http.Cookie{
		Name:    sessionCookieName,
		Value:   sessionID,
		Expires: time.Now().Add(24 * time.Hour),
		Path:    "/ws",
	}
}

// watchDisconnected ends the games of players who did not come back in time.
func (that *Server) watchDisconnected(ctx context.Context) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, playerID := range that.expiredDisconnects(now) {
				that.handleOpponentOut(ctx, playerID)
			}
		}
	}
}

func (that *Server) expiredDisconnects(now time.Time) []string {
	that.disconnectedMutex.Lock()
	defer that.disconnectedMutex.Unlock()

	var expired []string
	for playerID, at := range that.disconnectedPlayers {
		if now.Sub(at) >= that.reconnectTimeout {
			expired = append(expired, playerID)
			delete(that.disconnectedPlayers, playerID)
		}
	}

	return expired
}

func (that *Server) register(playerID string, conn *client) {
	that.connectionsMutex.Lock()
	that.connections[playerID] = conn
	that.connectionsMutex.Unlock()

	that.playerReconnected(playerID)
}

func (that *Server) connection(playerID string) (*client, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	conn, ok := that.connections[playerID]

	return conn, ok
}
