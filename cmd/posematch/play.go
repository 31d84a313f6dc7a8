package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pose-match/internal/platform/tui"
	"github.com/vovakirdan/pose-match/internal/source"
)

var (
	flagSource    string
	flagSeed      int64
	flagRecording string
	flagLogFile   string
	flagPlayer    string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play the game in the terminal. A local keypoint source stands in for
the camera and pose model: "synthetic" simulates a player settling into
each pose, "replay" plays back a recorded keypoint file.

Controls:
  S/Enter    - Start
  R          - Retry the level that timed out
  X/Esc      - Reset to level 1
  ?          - Show all keys
  Q/Ctrl+C   - Quit

Examples:
  posematch play
  posematch play --seed 42 --difficulty hard
  posematch play --source replay --recording ./warrior.yaml
  posematch play --log-file /tmp/posematch.log -v`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagSource, "source", "synthetic", "Keypoint source (see 'posematch sources')")
	playCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed for the synthetic source (0 = random based on time)")
	playCmd.Flags().StringVar(&flagRecording, "recording", "", "Keypoint recording YAML for the replay source")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (the screen belongs to the game)")
	playCmd.Flags().StringVar(&flagPlayer, "player", os.Getenv("USER"), "Player name stored with results")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("play needs an interactive terminal")
	}
	if !source.Exists(flagSource) {
		return fmt.Errorf("unknown source %q, run 'posematch sources' to list them", flagSource)
	}

	cfg, preset, err := loadConfig()
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, "posematch")

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runner, bridge, err := tui.StartSession(ctx, tui.SessionConfig{
		Game:   cfg.Game(),
		Timing: cfg.SchedulerTiming(),
		Source: flagSource,
		SourceOptions: source.Options{
			Seed:      flagSeed,
			Recording: flagRecording,
		},
	}, logger)
	if err != nil {
		return err
	}

	meta := tui.RunMeta{
		Player:     flagPlayer,
		Source:     flagSource,
		Difficulty: string(preset),
	}
	if err := tui.Run(ctx, runner, bridge, store, meta, logger); err != nil {
		return fmt.Errorf("running game: %w", err)
	}

	cancel()
	<-runner.Done()
	return nil
}
