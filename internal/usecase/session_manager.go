package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
)

type sessionRepo interface {
	Save(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

// ResetRequest selects the controlled mark and the mode of the next episode.
// A nil Player lets the environment draw one.
type ResetRequest struct {
	Player    *entity.Mark
	TwoPlayer bool
}

// State is a read-only view of a session's current episode.
type State struct {
	Observation      entity.Observation `json:"observation"`
	AvailableActions []int              `json:"available_actions"`
	Player           entity.Mark        `json:"player"`
	TwoPlayer        bool               `json:"two_player"`
	Done             bool               `json:"done"`
}

// SessionManager keeps one engine per session and persists every change.
// Calls on one session are serialized; different sessions run in parallel.
type SessionManager struct {
	logger *slog.Logger
	repo   sessionRepo
	now    func() time.Time

	// mu guards the maps only, never a storage round-trip.
	mu      sync.Mutex
	engines map[string]*tictactoe.Engine
	locks   map[string]*sync.Mutex
}

func NewSessionManager(logger *slog.Logger, repo sessionRepo) *SessionManager {
	return &SessionManager{
		logger:  logger,
		repo:    repo,
		now:     time.Now,
		engines: make(map[string]*tictactoe.Engine),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Create - opens a session and starts its first episode with a random mark.
func (that *SessionManager) Create(ctx context.Context, seed *uint64) (*entity.Session, entity.Observation, error) {
	log := that.logger.With("method", "Create")

	var opts []tictactoe.Option
	if seed != nil {
		opts = append(opts, tictactoe.WithSeed(*seed))
	}

	engine := tictactoe.New(that.logger, opts...)

	obs, err := engine.Reset()
	if err != nil {
		return nil, entity.Observation{}, fmt.Errorf("failed to reset environment: %w", err)
	}

	now := that.now()
	session := &entity.Session{
		ID:        uuid.NewString(),
		Seed:      engine.CurrentSeed(),
		Episode:   engine.Episode(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = that.repo.Save(ctx, session); err != nil {
		return nil, entity.Observation{}, fmt.Errorf("failed to save session: %w", err)
	}

	that.cacheEngine(session.ID, engine)
	log.Info("session created", "session", session.ID, "seed", session.Seed)

	return session, obs, nil
}

func (that *SessionManager) Reset(ctx context.Context, id string, req ResetRequest) (entity.Observation, error) {
	unlock := that.lockSession(id)
	defer unlock()

	session, engine, err := that.load(ctx, id)
	if err != nil {
		return entity.Observation{}, err
	}

	var opts []tictactoe.ResetOption
	if req.Player != nil {
		opts = append(opts, tictactoe.WithPlayer(*req.Player))
	}
	if req.TwoPlayer {
		opts = append(opts, tictactoe.WithTwoPlayer())
	}

	obs, err := engine.Reset(opts...)
	if err != nil {
		return entity.Observation{}, fmt.Errorf("failed to reset environment: %w", err)
	}

	if err = that.save(ctx, session, engine); err != nil {
		that.forgetEngine(id)
		return entity.Observation{}, err
	}

	return obs, nil
}

func (that *SessionManager) Step(ctx context.Context, id string, action int) (tictactoe.Transition, error) {
	return that.advance(ctx, id, func(engine *tictactoe.Engine) (tictactoe.Transition, error) {
		return engine.Step(action)
	})
}

func (that *SessionManager) HalfStep(ctx context.Context, id string, action int, mark entity.Mark) (tictactoe.Transition, error) {
	return that.advance(ctx, id, func(engine *tictactoe.Engine) (tictactoe.Transition, error) {
		return engine.HalfStep(action, mark)
	})
}

// Seed - reseeds the session's environment and remembers the seed.
func (that *SessionManager) Seed(ctx context.Context, id string, seed *uint64) ([]uint64, error) {
	unlock := that.lockSession(id)
	defer unlock()

	session, engine, err := that.load(ctx, id)
	if err != nil {
		return nil, err
	}

	used := engine.Seed(seed)
	session.Seed = used[0]

	if err = that.save(ctx, session, engine); err != nil {
		that.forgetEngine(id)
		return nil, err
	}

	return used, nil
}

func (that *SessionManager) State(ctx context.Context, id string) (*State, error) {
	unlock := that.lockSession(id)
	defer unlock()

	_, engine, err := that.load(ctx, id)
	if err != nil {
		return nil, err
	}

	episode := engine.Episode()

	return &State{
		Observation:      engine.Observation(),
		AvailableActions: engine.AvailableActions(),
		Player:           episode.Player,
		TwoPlayer:        episode.TwoPlayer,
		Done:             episode.Done,
	}, nil
}

// Render - returns the human-readable board of the session.
func (that *SessionManager) Render(ctx context.Context, id string) (string, error) {
	unlock := that.lockSession(id)
	defer unlock()

	_, engine, err := that.load(ctx, id)
	if err != nil {
		return "", err
	}

	return engine.Format(), nil
}

func (that *SessionManager) Close(ctx context.Context, id string) error {
	unlock := that.lockSession(id)
	defer unlock()

	if err := that.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	that.forgetEngine(id)
	that.mu.Lock()
	delete(that.locks, id)
	that.mu.Unlock()

	that.logger.Info("session closed", "method", "Close", "session", id)

	return nil
}

func (that *SessionManager) advance(
	ctx context.Context,
	id string,
	move func(engine *tictactoe.Engine) (tictactoe.Transition, error),
) (tictactoe.Transition, error) {
	unlock := that.lockSession(id)
	defer unlock()

	session, engine, err := that.load(ctx, id)
	if err != nil {
		return tictactoe.Transition{}, err
	}

	result, err := move(engine)
	if err != nil {
		return tictactoe.Transition{}, fmt.Errorf("failed to make turn: %w", err)
	}

	if err = that.save(ctx, session, engine); err != nil {
		// storage still holds the previous ply, the next load rebuilds from it
		that.forgetEngine(id)
		return tictactoe.Transition{}, err
	}

	if result.Done {
		that.logger.Debug("episode finished", "session", id, "reward", result.Reward)
	}

	return result, nil
}

// load - fetches the session and its live engine. After a restart the engine
// is rebuilt from storage, seeded by the stored seed and the plies played.
func (that *SessionManager) load(ctx context.Context, id string) (*entity.Session, *tictactoe.Engine, error) {
	session, err := that.repo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		// expired in storage
		that.forgetEngine(id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	that.mu.Lock()
	engine, ok := that.engines[id]
	that.mu.Unlock()

	if ok {
		return session, engine, nil
	}

	seed := session.Seed + uint64(session.Episode.Plies) //nolint: gosec // plies are at most nine
	engine = tictactoe.New(that.logger, tictactoe.WithSeed(seed))
	if err = engine.Restore(session.Episode); err != nil {
		return nil, nil, fmt.Errorf("failed to restore episode: %w", err)
	}

	that.cacheEngine(id, engine)
	that.logger.Info("engine restored from storage", "method", "load", "session", id)

	return session, engine, nil
}

func (that *SessionManager) save(ctx context.Context, session *entity.Session, engine *tictactoe.Engine) error {
	session.Episode = engine.Episode()
	session.UpdatedAt = that.now()

	if err := that.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// lockSession - takes the per-session lock and returns its release.
func (that *SessionManager) lockSession(id string) func() {
	that.mu.Lock()
	lock, ok := that.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[id] = lock
	}
	that.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}

func (that *SessionManager) cacheEngine(id string, engine *tictactoe.Engine) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.engines[id] = engine
}

func (that *SessionManager) forgetEngine(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.engines, id)
}
