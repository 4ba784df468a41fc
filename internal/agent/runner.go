package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
)

const logEvery = 100

// Stats tallies the outcomes of finished episodes from the agent's side.
type Stats struct {
	Episodes     int `json:"episodes"`
	Wins         int `json:"wins"`
	Losses       int `json:"losses"`
	Draws        int `json:"draws"`
	IllegalMoves int `json:"illegal_moves"`
	// Steps counts agent calls to Step; each covers the opponent's reply too.
	Steps        int `json:"steps"`
}

type Runner struct {
	logger *slog.Logger
	env    tictactoe.Env
	policy Policy

	resetOpts []tictactoe.ResetOption
	render    bool
}

func NewRunner(logger *slog.Logger, env tictactoe.Env, policy Policy) *Runner {
	return &Runner{
		logger: logger,
		env:    env,
		policy: policy,
	}
}

// WithResetOptions - options passed to every reset, e.g. a fixed mark.
func (that *Runner) WithResetOptions(opts ...tictactoe.ResetOption) *Runner {
	that.resetOpts = opts
	return that
}

// WithRender - renders the board after every reset and step.
func (that *Runner) WithRender(render bool) *Runner {
	that.render = render
	return that
}

// Run - plays the given number of episodes. On cancellation it returns the
// stats gathered so far together with the context error.
func (that *Runner) Run(ctx context.Context, episodes int) (Stats, error) {
	log := that.logger.With("method", "Run")

	var stats Stats
	for stats.Episodes < episodes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := that.runEpisode(&stats); err != nil {
			return stats, fmt.Errorf("episode %d failed: %w", stats.Episodes+1, err)
		}

		if stats.Episodes%logEvery == 0 {
			log.Info("episodes completed", "episodes", stats.Episodes, "wins", stats.Wins)
		}
	}

	return stats, nil
}

func (that *Runner) runEpisode(stats *Stats) error {
	obs, err := that.env.Reset(that.resetOpts...)
	if err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}

	if err = that.maybeRender(); err != nil {
		return err
	}

	for {
		action, err := that.policy.SelectAction(obs)
		if err != nil {
			return fmt.Errorf("failed to select action: %w", err)
		}

		illegal := obs[action] != 0

		result, err := that.env.Step(action)
		if err != nil {
			return fmt.Errorf("failed to step: %w", err)
		}
		stats.Steps++

		if err = that.maybeRender(); err != nil {
			return err
		}

		if result.Done {
			stats.Episodes++
			switch {
			case result.Reward > 0:
				stats.Wins++
			case result.Reward < 0 && illegal:
				stats.IllegalMoves++
			case result.Reward < 0:
				stats.Losses++
			default:
				stats.Draws++
			}

			return nil
		}

		obs = result.Observation
	}
}

func (that *Runner) maybeRender() error {
	if !that.render {
		return nil
	}

	if err := that.env.Render(tictactoe.RenderHuman); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	return nil
}
