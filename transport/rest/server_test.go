package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/repository"
	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-gym/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewSessionManager(logger, repository.NewMemorySessionRepository())

	return New(logger, manager).Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &value))

	return value
}

func createSession(t *testing.T, handler http.Handler) string {
	t.Helper()

	recorder := doRequest(t, handler, http.MethodPost, "/sessions", `{"seed": 3}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	created := decode[sessionResponse](t, recorder)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, uint64(3), created.Seed)

	recorder = doRequest(t, handler, http.MethodPost, "/sessions/"+created.ID+"/reset", `{"player": 1}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	return created.ID
}

func TestServer_Ping(t *testing.T) {
	recorder := doRequest(t, newTestServer(t), http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestServer_Spaces(t *testing.T) {
	recorder := doRequest(t, newTestServer(t), http.MethodGet, "/spaces", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	spaces := decode[spacesResponse](t, recorder)
	assert.Equal(t, 9, spaces.ActionSpace.N)
	assert.Equal(t, 10, spaces.ObservationSpace.N)
	assert.Equal(t, []string{"human"}, spaces.RenderModes)
}

func TestServer_SessionLifecycle(t *testing.T) {
	t.Run("Create without a body", func(t *testing.T) {
		recorder := doRequest(t, newTestServer(t), http.MethodPost, "/sessions", "")

		assert.Equal(t, http.StatusCreated, recorder.Code)
	})

	t.Run("Reset, step and finish", func(t *testing.T) {
		// Given: a session reset as player one
		handler := newTestServer(t)
		id := createSession(t, handler)

		// When: playing the center
		recorder := doRequest(t, handler, http.MethodPost, "/sessions/"+id+"/step", `{"action": 4}`)

		// Then: our mark and one opponent mark are on the board
		require.Equal(t, http.StatusOK, recorder.Code)
		result := decode[tictactoe.Transition](t, recorder)
		assert.InDelta(t, 0.5, result.Observation[4], 0)
		assert.False(t, result.Done)

		// When: playing the same cell again
		recorder = doRequest(t, handler, http.MethodPost, "/sessions/"+id+"/step", `{"action": 4}`)

		// Then: the illegal move ends the episode with a penalty
		require.Equal(t, http.StatusOK, recorder.Code)
		result = decode[tictactoe.Transition](t, recorder)
		assert.True(t, result.Done)
		assert.InDelta(t, -1.0, result.Reward, 0)

		// Then: further steps conflict until reset
		recorder = doRequest(t, handler, http.MethodPost, "/sessions/"+id+"/step", `{"action": 0}`)
		assert.Equal(t, http.StatusConflict, recorder.Code)

		state := decode[usecase.State](t, doRequest(t, handler, http.MethodGet, "/sessions/"+id, ""))
		assert.True(t, state.Done)
		assert.Equal(t, entity.PlayerOne, state.Player)
	})

	t.Run("Two-player half steps", func(t *testing.T) {
		handler := newTestServer(t)
		id := createSession(t, handler)

		recorder := doRequest(t, handler, http.MethodPost, "/sessions/"+id+"/reset", `{"two_player": true}`)
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, handler, http.MethodPost, "/sessions/"+id+"/half-step", `{"action": 0, "mark": 2}`)
		require.Equal(t, http.StatusOK, recorder.Code)

		state := decode[usecase.State](t, doRequest(t, handler, http.MethodGet, "/sessions/"+id, ""))
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, state.AvailableActions)
		assert.True(t, state.TwoPlayer)
	})

	t.Run("Render and seed", func(t *testing.T) {
		handler := newTestServer(t)
		id := createSession(t, handler)

		recorder := doRequest(t, handler, http.MethodGet, "/sessions/"+id+"/render", "")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, strings.HasPrefix(recorder.Body.String(), "player: 1\n0 | 0 | 0\n---------\n"))

		recorder = doRequest(t, handler, http.MethodPost, "/sessions/"+id+"/seed", `{"seed": 10}`)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, []uint64{10}, decode[seedResponse](t, recorder).Seeds)
	})

	t.Run("Delete", func(t *testing.T) {
		handler := newTestServer(t)
		id := createSession(t, handler)

		recorder := doRequest(t, handler, http.MethodDelete, "/sessions/"+id, "")
		require.Equal(t, http.StatusNoContent, recorder.Code)

		recorder = doRequest(t, handler, http.MethodGet, "/sessions/"+id, "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestServer_Errors(t *testing.T) {
	handler := newTestServer(t)
	id := createSession(t, handler)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown session", http.MethodPost, "/sessions/missing/step", `{"action": 1}`, http.StatusNotFound},
		{"action out of range", http.MethodPost, "/sessions/" + id + "/step", `{"action": 9}`, http.StatusBadRequest},
		{"missing action", http.MethodPost, "/sessions/" + id + "/step", `{}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/sessions/" + id + "/step", `{"action":`, http.StatusBadRequest},
		{"invalid reset mark", http.MethodPost, "/sessions/" + id + "/reset", `{"player": 0}`, http.StatusBadRequest},
		{"invalid half step mark", http.MethodPost, "/sessions/" + id + "/half-step", `{"action": 1, "mark": 5}`, http.StatusBadRequest},
		{"missing half step mark", http.MethodPost, "/sessions/" + id + "/half-step", `{"action": 1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doRequest(t, handler, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.status, recorder.Code)
			assert.NotEmpty(t, decode[errorResponse](t, recorder).Error)
		})
	}
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	// Given: a port already taken
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(logger, usecase.NewSessionManager(logger, repository.NewMemorySessionRepository()))

	// When: starting with a context that is never canceled
	err = server.Start(context.Background(), port)

	// Then: the error is returned right away
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start server")
}
