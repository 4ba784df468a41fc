package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-gym/internal"
	"github.com/rocketscienceinc/tictactoe-gym/internal/agent"
	"github.com/rocketscienceinc/tictactoe-gym/internal/config"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/internal/tictactoe"
)

type playFlags struct {
	episodes     int
	seed         uint64
	player       int
	allowIllegal bool
	render       bool
}

var (
	configPath string
	play       playFlags
)

var rootCmd = &cobra.Command{
	Use:   "tictactoe-gym",
	Short: "Tic-tac-toe reinforcement learning environment",
	Long: `Tic-tac-toe environment with a random opponent.

serve exposes environment sessions over HTTP and WebSocket;
play runs a random agent against the built-in opponent locally.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve environment sessions over HTTP and WebSocket",
	RunE: func(_ *cobra.Command, _ []string) error {
		conf := config.MustLoad(configPath)

		if err := app.RunApp(initLogger(conf), conf); err != nil {
			return fmt.Errorf("app run failed: %w", err)
		}

		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play episodes with a random agent",
	RunE:  runPlay,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "Path to the config file")

	playCmd.Flags().IntVar(&play.episodes, "episodes", 100, "Number of episodes to play")
	playCmd.Flags().Uint64Var(&play.seed, "seed", 0, "Seed for the environment and the agent (0 uses the clock)")
	playCmd.Flags().IntVar(&play.player, "player", 0, "Mark controlled by the agent: 1 or 2 (0 picks at random)")
	playCmd.Flags().BoolVar(&play.allowIllegal, "allow-illegal", false, "Let the agent pick occupied cells")
	playCmd.Flags().BoolVar(&play.render, "render", false, "Render the board after every step")

	rootCmd.AddCommand(serveCmd, playCmd)
}

func runPlay(cmd *cobra.Command, _ []string) error {
	conf := config.MustLoad(configPath)
	logger := initLogger(conf)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engineOpts := []tictactoe.Option{tictactoe.WithOutput(cmd.OutOrStdout())}
	if play.seed != 0 {
		engineOpts = append(engineOpts, tictactoe.WithSeed(play.seed))
	}

	env := tictactoe.New(logger, engineOpts...)
	runner := agent.NewRunner(logger, env, agent.NewRandom(env.CurrentSeed()+1, play.allowIllegal)).
		WithRender(play.render)

	if play.player != 0 {
		mark, err := entity.ParseMark(play.player)
		if err != nil {
			return err
		}
		runner.WithResetOptions(tictactoe.WithPlayer(mark))
	}

	stats, err := runner.Run(ctx, play.episodes)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("play failed: %w", err)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")

	return encoder.Encode(stats)
}

// main - is the entry point of the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
