package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/usecase"
)

var (
	errSessionIDRequired = errors.New("session_id is required")
	errCellRequired      = errors.New("cell is required")
	errMarkRequired      = errors.New("mark is required")
)

func (that *Server) handleCreate(ctx context.Context, req *RequestPayload) (ResponsePayload, error) {
	session, obs, err := that.sessions.Create(ctx, req.Seed)
	if err != nil {
		return ResponsePayload{}, fmt.Errorf("failed to create session: %w", err)
	}

	return ResponsePayload{SessionID: session.ID, Observation: &obs, Seeds: []uint64{session.Seed}}, nil
}

func (that *Server) handleReset(ctx context.Context, req *RequestPayload) (ResponsePayload, error) {
	if req.SessionID == "" {
		return ResponsePayload{}, errSessionIDRequired
	}

	resetReq := usecase.ResetRequest{TwoPlayer: req.TwoPlayer}
	if req.Player != nil {
		mark, err := entity.ParseMark(*req.Player)
		if err != nil {
			return ResponsePayload{}, err
		}
		resetReq.Player = &mark
	}

	obs, err := that.sessions.Reset(ctx, req.SessionID, resetReq)
	if err != nil {
		return ResponsePayload{}, err
	}

	return ResponsePayload{SessionID: req.SessionID, Observation: &obs}, nil
}

func (that *Server) handleStep(ctx context.Context, req *RequestPayload) (ResponsePayload, error) {
	if req.SessionID == "" {
		return ResponsePayload{}, errSessionIDRequired
	}

	if req.Cell == nil {
		return ResponsePayload{}, errCellRequired
	}

	result, err := that.sessions.Step(ctx, req.SessionID, *req.Cell)
	if err != nil {
		return ResponsePayload{}, err
	}

	return ResponsePayload{SessionID: req.SessionID, Transition: &result}, nil
}

func (that *Server) handleHalfStep(ctx context.Context, req *RequestPayload) (ResponsePayload, error) {
	if req.SessionID == "" {
		return ResponsePayload{}, errSessionIDRequired
	}

	if req.Cell == nil {
		return ResponsePayload{}, errCellRequired
	}

	if req.Mark == nil {
		return ResponsePayload{}, errMarkRequired
	}

	mark, err := entity.ParseMark(*req.Mark)
	if err != nil {
		return ResponsePayload{}, err
	}

	result, err := that.sessions.HalfStep(ctx, req.SessionID, *req.Cell, mark)
	if err != nil {
		return ResponsePayload{}, err
	}

	return ResponsePayload{SessionID: req.SessionID, Transition: &result}, nil
}

func (that *Server) handleSeed(ctx context.Context, req *RequestPayload) (ResponsePayload, error) {
	if req.SessionID == "" {
		return ResponsePayload{}, errSessionIDRequired
	}

	seeds, err := that.sessions.Seed(ctx, req.SessionID, req.Seed)
	if err != nil {
		return ResponsePayload{}, err
	}

	return ResponsePayload{SessionID: req.SessionID, Seeds: seeds}, nil
}

func (that *Server) handleRender(ctx context.Context, req *RequestPayload) (ResponsePayload, error) {
	if req.SessionID == "" {
		return ResponsePayload{}, errSessionIDRequired
	}

	board, err := that.sessions.Render(ctx, req.SessionID)
	if err != nil {
		return ResponsePayload{}, err
	}

	return ResponsePayload{SessionID: req.SessionID, Board: board}, nil
}

func (that *Server) handleClose(ctx context.Context, req *RequestPayload) (ResponsePayload, error) {
	if req.SessionID == "" {
		return ResponsePayload{}, errSessionIDRequired
	}

	if err := that.sessions.Close(ctx, req.SessionID); err != nil {
		return ResponsePayload{}, err
	}

	return ResponsePayload{SessionID: req.SessionID}, nil
}
