package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/source"
)

// SessionConfig describes how to build one player's game.
type SessionConfig struct {
	Game          game.Config
	Timing        game.Timing
	Source        string
	SourceOptions source.Options
}

// StartSession builds a controller and runner over the configured source
// and starts the runner loop. The loop stops when ctx is cancelled.
func StartSession(ctx context.Context, cfg SessionConfig, logger *log.Logger) (*game.Runner, *EventBridge, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	src, err := source.Create(cfg.Source, cfg.SourceOptions)
	if err != nil {
		return nil, nil, err
	}

	bridge := NewEventBridge(64)
	ctrl := game.NewController(cfg.Game, src.Provider, game.WithObserver(bridge))
	runner := game.NewRunner(ctrl, src.Detector,
		game.WithLogger(logger),
		game.WithScheduler(game.NewScheduler(cfg.Timing, nil)),
	)

	go func() {
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("runner stopped", "error", err)
		}
	}()

	return runner, bridge, nil
}
