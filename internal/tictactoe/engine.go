package tictactoe

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/service"
	"golang.org/x/exp/rand"
)

const (
	rewardWin     = 1.0
	rewardLoss    = -1.0
	rewardNeutral = 0.0
)

var _ Env = (*Engine)(nil)

type opponent interface {
	ChooseCell(board entity.Board) (int, error)
}

// Engine is the Tic-Tac-Toe state machine. One engine drives one episode at a
// time and must not be shared between goroutines.
type Engine struct {
	logger   *slog.Logger
	rng      *rand.Rand
	seed     uint64
	opponent opponent
	output   io.Writer

	episode entity.Episode
}

type Option func(engine *Engine)

func WithSeed(seed uint64) Option {
	return func(engine *Engine) {
		engine.seed = seed
	}
}

// WithOutput - sets where human rendering is written, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(engine *Engine) {
		engine.output = w
	}
}

// WithOpponent - replaces the built-in random bot.
func WithOpponent(o opponent) Option {
	return func(engine *Engine) {
		engine.opponent = o
	}
}

func New(logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		logger: logger,
		seed:   clockSeed(),
		output: os.Stdout,
	}

	for _, opt := range opts {
		opt(engine)
	}

	engine.rng = rand.New(rand.NewSource(engine.seed))
	if engine.opponent == nil {
		engine.opponent = service.NewRandomBot(engine.rng)
	}

	return engine
}

// Reset - starts a new episode and returns its first observation.
func (that *Engine) Reset(opts ...ResetOption) (entity.Observation, error) {
	var cfg resetConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.hasPlayer && !cfg.player.IsPlayer() {
		return entity.Observation{}, fmt.Errorf("%w: %s", apperror.ErrInvalidMark, cfg.player)
	}

	player := cfg.player
	switch {
	case cfg.hasPlayer:
	case cfg.twoPlayer:
		player = entity.PlayerOne
	default:
		player = that.randomMark()
	}

	previous := that.episode
	that.episode = entity.NewEpisode(player, cfg.twoPlayer)

	// player one always opens, so the bot moves before control returns
	if !cfg.twoPlayer && player == entity.PlayerTwo {
		if _, err := that.opponentTurn(); err != nil {
			that.episode = previous
			return entity.Observation{}, fmt.Errorf("opponent failed to open: %w", err)
		}
	}

	return that.episode.Observation(), nil
}

// Step - plays the controlled mark into the cell and, unless the game ended,
// answers with the opponent's move. A failing opponent leaves the episode as
// it was before the call.
func (that *Engine) Step(action int) (Transition, error) {
	if err := that.checkPlayable(action); err != nil {
		return Transition{}, err
	}

	previous := that.episode

	reward := that.playerTurn(action, that.episode.Player)
	if !that.episode.Done {
		var err error
		if reward, err = that.opponentTurn(); err != nil {
			that.episode = previous
			return Transition{}, fmt.Errorf("opponent failed to make turn: %w", err)
		}
	}

	return that.transition(reward), nil
}

// HalfStep - plays a single ply for the given mark. Used when two external
// agents alternate and no built-in opponent moves.
func (that *Engine) HalfStep(action int, mark entity.Mark) (Transition, error) {
	if err := that.checkPlayable(action); err != nil {
		return Transition{}, err
	}

	if !mark.IsPlayer() {
		return Transition{}, fmt.Errorf("%w: %s", apperror.ErrInvalidMark, mark)
	}

	reward := that.playerTurn(action, mark)

	return that.transition(reward), nil
}

func (that *Engine) AvailableActions() []int {
	return that.episode.Board.AvailableActions()
}

func (that *Engine) Observation() entity.Observation {
	return that.episode.Observation()
}

// Episode - returns a copy of the current episode state.
func (that *Engine) Episode() entity.Episode {
	return that.episode
}

// Restore - continues a previously saved episode.
func (that *Engine) Restore(episode entity.Episode) error {
	if !episode.Player.IsPlayer() || episode.Opponent != episode.Player.Opponent() {
		return fmt.Errorf("%w: player %s, opponent %s", apperror.ErrInvalidMark, episode.Player, episode.Opponent)
	}

	that.episode = episode

	return nil
}

// Seed - reseeds the engine's random source and reports the seed in use.
func (that *Engine) Seed(seed *uint64) []uint64 {
	used := clockSeed()
	if seed != nil {
		used = *seed
	}

	that.seed = used
	that.rng.Seed(used)

	return []uint64{used}
}

// CurrentSeed - returns the seed the random source was last initialized with.
func (that *Engine) CurrentSeed() uint64 {
	return that.seed
}

func (that *Engine) ActionSpace() Discrete {
	return Discrete{N: entity.BoardSize}
}

func (that *Engine) ObservationSpace() Discrete {
	return Discrete{N: entity.BoardSize + 1}
}

func (that *Engine) checkPlayable(action int) error {
	switch {
	case !that.episode.Player.IsPlayer():
		return apperror.ErrEpisodeNotStarted
	case that.episode.Done:
		return apperror.ErrEpisodeFinished
	case !entity.IsValidCell(action):
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidAction, action)
	}

	return nil
}

// playerTurn - applies an externally chosen move. An occupied cell ends the
// episode with a penalty instead of failing the call.
func (that *Engine) playerTurn(cell int, mark entity.Mark) float64 {
	log := that.logger.With("method", "playerTurn")

	if that.episode.Board[cell] != entity.Empty {
		that.episode.Done = true
		log.Debug("illegal move", "cell", cell, "mark", mark)

		return rewardLoss
	}

	that.episode.Place(cell, mark)

	return that.settle(rewardWin)
}

func (that *Engine) opponentTurn() (float64, error) {
	cell, err := that.opponent.ChooseCell(that.episode.Board)
	if err != nil {
		return rewardNeutral, fmt.Errorf("failed to choose cell: %w", err)
	}

	if !entity.IsValidCell(cell) || that.episode.Board[cell] != entity.Empty {
		return rewardNeutral, fmt.Errorf("%w: opponent chose cell %d", apperror.ErrInvalidAction, cell)
	}

	that.episode.Place(cell, that.episode.Opponent)

	return that.settle(rewardLoss), nil
}

// settle - checks the board after a ply; a connection pays winReward to the
// controlled side, a full board is a draw.
func (that *Engine) settle(winReward float64) float64 {
	if that.episode.Board.HasConnection() {
		that.episode.Done = true
		that.logger.Debug("episode finished", "reward", winReward, "plies", that.episode.Plies)

		return winReward
	}

	if that.episode.Board.IsFull() {
		that.episode.Done = true
		that.logger.Debug("episode finished in a draw", "plies", that.episode.Plies)
	}

	return rewardNeutral
}

func (that *Engine) transition(reward float64) Transition {
	return Transition{
		Observation: that.episode.Observation(),
		Reward:      reward,
		Done:        that.episode.Done,
	}
}

func (that *Engine) randomMark() entity.Mark {
	if that.rng.Intn(2) == 0 {
		return entity.PlayerOne
	}

	return entity.PlayerTwo
}

func clockSeed() uint64 {
	return uint64(time.Now().UnixNano()) //nolint: gosec // any value is a valid seed
}
