package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	SessionID string  `json:"session_id,omitempty"`
	Seed      *uint64 `json:"seed,omitempty"`
	Player    *int    `json:"player,omitempty"`
	TwoPlayer bool    `json:"two_player,omitempty"`
	Cell      *int    `json:"cell,omitempty"`
	Mark      *int    `json:"mark,omitempty"`
}

type ResponsePayload struct {
	SessionID   string                `json:"session_id,omitempty"`
	Observation *entity.Observation   `json:"observation,omitempty"`
	Transition  *tictactoe.Transition `json:"transition,omitempty"`
	Seeds       []uint64              `json:"seeds,omitempty"`
	Board       string                `json:"board,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func (that *Server) sendMessage(conn *websocket.Conn, action string, payload ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = conn.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Server) sendErrorResponse(conn *websocket.Conn, action, errorMsg string) error {
	if err := that.sendMessage(conn, action, ResponsePayload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
