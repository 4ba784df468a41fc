package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-gym/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type sessionUseCase interface {
	Create(ctx context.Context, seed *uint64) (*entity.Session, entity.Observation, error)
	Reset(ctx context.Context, id string, req usecase.ResetRequest) (entity.Observation, error)
	Step(ctx context.Context, id string, action int) (tictactoe.Transition, error)
	HalfStep(ctx context.Context, id string, action int, mark entity.Mark) (tictactoe.Transition, error)
	Seed(ctx context.Context, id string, seed *uint64) ([]uint64, error)
	State(ctx context.Context, id string) (*usecase.State, error)
	Render(ctx context.Context, id string) (string, error)
	Close(ctx context.Context, id string) error
}

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
	router   *gin.Engine
}

func New(logger *slog.Logger, sessions sessionUseCase) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
		router:   gin.New(),
	}

	server.router.Use(gin.Recovery(), server.requestLogger())

	server.router.GET("/ping", pingHandler)
	server.router.GET("/spaces", server.handleSpaces)

	sessionsGroup := server.router.Group("/sessions")
	sessionsGroup.POST("", server.handleCreate)
	sessionsGroup.GET("/:id", server.handleState)
	sessionsGroup.DELETE("/:id", server.handleClose)
	sessionsGroup.POST("/:id/reset", server.handleReset)
	sessionsGroup.POST("/:id/step", server.handleStep)
	sessionsGroup.POST("/:id/half-step", server.handleHalfStep)
	sessionsGroup.POST("/:id/seed", server.handleSeed)
	sessionsGroup.GET("/:id/render", server.handleRender)

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - serves HTTP until the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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

func (that *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		that.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
