package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-gym/internal/usecase"
)

const (
	shutdownTimeout = 5 * time.Second
	actionError     = "error"
)

type sessionUseCase interface {
	Create(ctx context.Context, seed *uint64) (*entity.Session, entity.Observation, error)
	Reset(ctx context.Context, id string, req usecase.ResetRequest) (entity.Observation, error)
	Step(ctx context.Context, id string, action int) (tictactoe.Transition, error)
	HalfStep(ctx context.Context, id string, action int, mark entity.Mark) (tictactoe.Transition, error)
	Seed(ctx context.Context, id string, seed *uint64) ([]uint64, error)
	Render(ctx context.Context, id string) (string, error)
	Close(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, req *RequestPayload) (ResponsePayload, error)

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, sessions sessionUseCase) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers["env:create"] = server.handleCreate
	server.handlers["env:reset"] = server.handleReset
	server.handlers["env:step"] = server.handleStep
	server.handlers["env:half_step"] = server.handleHalfStep
	server.handlers["env:seed"] = server.handleSeed
	server.handlers["env:render"] = server.handleRender
	server.handlers["env:close"] = server.handleClose

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()

	ctx := req.Context()
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				log.Info("WebSocket connection closed")
				return nil
			}

			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				if err = that.sendErrorResponse(conn, actionError, "malformed message"); err != nil {
					return err
				}
				continue
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		if err := that.processMessage(ctx, conn, &message); err != nil {
			return err
		}
	}
}

// processMessage - dispatches one message and writes the reply under the same action.
func (that *Server) processMessage(ctx context.Context, conn *websocket.Conn, message *Message) error {
	log := that.logger.With("method", "processMessage", "action", message.Action)

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action")
		return that.sendErrorResponse(conn, message.Action, "unknown action")
	}

	var req RequestPayload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &req); err != nil {
			log.Warn("failed to unmarshal payload", "error", err)
			return that.sendErrorResponse(conn, message.Action, "invalid payload")
		}
	}

	resp, err := handler(ctx, &req)
	if err != nil {
		log.Info("action failed", "sessionID", req.SessionID, "error", err)
		return that.sendErrorResponse(conn, message.Action, err.Error())
	}

	return that.sendMessage(conn, message.Action, resp)
}
