package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-gym/internal/usecase"
)

var errMissingField = errors.New("missing required field")

type createRequest struct {
	Seed *uint64 `json:"seed"`
}

type resetRequest struct {
	Player    *int `json:"player"`
	TwoPlayer bool `json:"two_player"`
}

type stepRequest struct {
	Action *int `json:"action"`
}

type halfStepRequest struct {
	Action *int `json:"action"`
	Mark   *int `json:"mark"`
}

type seedRequest struct {
	Seed *uint64 `json:"seed"`
}

type sessionResponse struct {
	ID          string             `json:"id"`
	Seed        uint64             `json:"seed"`
	Observation entity.Observation `json:"observation"`
}

type observationResponse struct {
	Observation entity.Observation `json:"observation"`
}

type seedResponse struct {
	Seeds []uint64 `json:"seeds"`
}

type spacesResponse struct {
	ActionSpace      tictactoe.Discrete `json:"action_space"`
	ObservationSpace tictactoe.Discrete `json:"observation_space"`
	RenderModes      []string           `json:"render_modes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handleSpaces(c *gin.Context) {
	c.JSON(http.StatusOK, spacesResponse{
		ActionSpace:      tictactoe.Discrete{N: entity.BoardSize},
		ObservationSpace: tictactoe.Discrete{N: entity.BoardSize + 1},
		RenderModes:      tictactoe.RenderModes,
	})
}

func (that *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		that.writeError(c, err)
		return
	}

	session, obs, err := that.sessions.Create(c.Request.Context(), req.Seed)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		ID:          session.ID,
		Seed:        session.Seed,
		Observation: obs,
	})
}

func (that *Server) handleState(c *gin.Context) {
	state, err := that.sessions.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (that *Server) handleReset(c *gin.Context) {
	var req resetRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		that.writeError(c, err)
		return
	}

	resetReq := usecase.ResetRequest{TwoPlayer: req.TwoPlayer}
	if req.Player != nil {
		mark, err := entity.ParseMark(*req.Player)
		if err != nil {
			that.writeError(c, err)
			return
		}
		resetReq.Player = &mark
	}

	obs, err := that.sessions.Reset(c.Request.Context(), c.Param("id"), resetReq)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, observationResponse{Observation: obs})
}

func (that *Server) handleStep(c *gin.Context) {
	var req stepRequest
	if err := bindJSON(c, &req); err != nil {
		that.writeError(c, err)
		return
	}

	if req.Action == nil {
		that.writeError(c, errMissingField)
		return
	}

	result, err := that.sessions.Step(c.Request.Context(), c.Param("id"), *req.Action)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (that *Server) handleHalfStep(c *gin.Context) {
	var req halfStepRequest
	if err := bindJSON(c, &req); err != nil {
		that.writeError(c, err)
		return
	}

	if req.Action == nil || req.Mark == nil {
		that.writeError(c, errMissingField)
		return
	}

	mark, err := entity.ParseMark(*req.Mark)
	if err != nil {
		that.writeError(c, err)
		return
	}

	result, err := that.sessions.HalfStep(c.Request.Context(), c.Param("id"), *req.Action, mark)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (that *Server) handleSeed(c *gin.Context) {
	var req seedRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		that.writeError(c, err)
		return
	}

	seeds, err := that.sessions.Seed(c.Request.Context(), c.Param("id"), req.Seed)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, seedResponse{Seeds: seeds})
}

func (that *Server) handleRender(c *gin.Context) {
	board, err := that.sessions.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.String(http.StatusOK, board)
}

func (that *Server) handleClose(c *gin.Context) {
	if err := that.sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
		that.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (that *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrEpisodeFinished),
		errors.Is(err, apperror.ErrEpisodeNotStarted):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidAction),
		errors.Is(err, apperror.ErrInvalidMark),
		errors.Is(err, errMissingField),
		isBindError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isBindError(err error) bool {
	var bindErr *bindingError
	return errors.As(err, &bindErr)
}

// bindingError marks a malformed request body.
type bindingError struct {
	err error
}

func (that *bindingError) Error() string {
	return "invalid request body: " + that.err.Error()
}

func (that *bindingError) Unwrap() error {
	return that.err
}

func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return &bindingError{err: err}
	}

	return nil
}

// bindOptionalJSON - decodes the body when one is sent; an empty body keeps defaults.
func bindOptionalJSON(c *gin.Context, req any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}

	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return &bindingError{err: err}
	}

	return nil
}
