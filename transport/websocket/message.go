package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/entity"
)

const (
	actionConnect   = "connect"
	actionGameNew   = "game:new"
	actionGameJoin  = "game:join"
	actionGameTurn  = "game:turn"
	actionGameState = "game:state"
	actionGameLeave = "game:leave"
	actionGameMoves = "game:moves"
)

var errBadMessage = errors.New("bad message")

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Move   *bead.Move     `json:"move,omitempty"`
	Error  string         `json:"error,omitempty"`

	// From selects a bead for game:moves, Moves lists where it can go.
	From  *bead.Position  `json:"from,omitempty"`
	Moves []bead.Position `json:"moves,omitempty"`

	// TimeLeft is the rest of the current turn in milliseconds.
	TimeLeft int64 `json:"time_left,omitempty"`
}

func readMessage(conn *websocket.Conn) (*Message, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var message Message
	if err = json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadMessage, err)
	}

	return &message, nil
}

func (that *Server) sendMessage(conn *client, action string, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = conn.writeJSON(Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Server) sendErrorResponse(conn *client, action, errorMsg string) error {
	if err := that.sendMessage(conn, action, Payload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

func decodePayload(msg *Message) (*Payload, error) {
	var payload Payload
	if len(msg.Payload) == 0 {
		return &payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payload, nil
}
