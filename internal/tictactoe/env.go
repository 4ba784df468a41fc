package tictactoe

import "github.com/rocketscienceinc/tictactoe-gym/internal/entity"

const RenderHuman = "human"

// RenderModes lists the modes accepted by Render.
var RenderModes = []string{RenderHuman}

// Env is the contract an agent drives: reset, step, render and seed.
type Env interface {
	Reset(opts ...ResetOption) (entity.Observation, error)
	Step(action int) (Transition, error)
	Render(mode string) error
	Seed(seed *uint64) []uint64

	ActionSpace() Discrete
	ObservationSpace() Discrete
}

// Transition is the outcome of a step.
type Transition struct {
	Observation entity.Observation `json:"observation"`
	Reward      float64            `json:"reward"`
	Done        bool               `json:"done"`
	Info        map[string]any     `json:"info"`
}

// Discrete is a space of the integers 0..N-1.
type Discrete struct {
	N int `json:"n"`
}

func (that Discrete) Contains(x int) bool {
	return x >= 0 && x < that.N
}

type resetConfig struct {
	player    entity.Mark
	hasPlayer bool
	twoPlayer bool
}

type ResetOption func(cfg *resetConfig)

// WithPlayer - fixes the controlled mark instead of drawing it at random.
func WithPlayer(mark entity.Mark) ResetOption {
	return func(cfg *resetConfig) {
		cfg.player = mark
		cfg.hasPlayer = true
	}
}

// WithTwoPlayer - disables the built-in opponent; both sides call HalfStep.
func WithTwoPlayer() ResetOption {
	return func(cfg *resetConfig) {
		cfg.twoPlayer = true
	}
}
