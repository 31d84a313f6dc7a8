// Package config provides YAML-based game configuration loading with
// environment overrides and difficulty presets.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/level"
	"github.com/vovakirdan/pose-match/internal/pose"
)

// GameConfig contains all tuning for a run.
type GameConfig struct {
	Levels  []LevelConfig `yaml:"levels"`
	Rules   RulesConfig   `yaml:"rules" envPrefix:"RULES_"`
	Scoring ScoringConfig `yaml:"scoring" envPrefix:"SCORING_"`
	Timing  TimingConfig  `yaml:"timing" envPrefix:"TIMING_"`
}

// LevelConfig defines one level and its reference pose.
type LevelConfig struct {
	Name      string `yaml:"name"`
	Reference string `yaml:"reference"`
}

// RulesConfig defines the countdown and the pass threshold.
type RulesConfig struct {
	TimeLimit     int     `yaml:"time_limit" env:"TIME_LIMIT"`         // Seconds per level, at most 60
	PassThreshold float64 `yaml:"pass_threshold" env:"PASS_THRESHOLD"` // Percent needed to pass
}

// ScoringConfig defines which keypoints count and how confident they must be.
type ScoringConfig struct {
	Anchors       []string `yaml:"anchors" env:"ANCHORS" envSeparator:","`
	MinConfidence float64  `yaml:"min_confidence" env:"MIN_CONFIDENCE"`
}

// TimingConfig defines the scheduler periods in milliseconds.
type TimingConfig struct {
	DisplayMS   int `yaml:"display_ms" env:"DISPLAY_MS"`
	CountdownMS int `yaml:"countdown_ms" env:"COUNTDOWN_MS"`
	SamplingMS  int `yaml:"sampling_ms" env:"SAMPLING_MS"`
}

// MaxTimeLimit bounds the per-level countdown.
const MaxTimeLimit = level.MaxTimeLimit

// Validate checks that the config describes a playable run.
func (c GameConfig) Validate() error {
	var errs []error

	if len(c.Levels) == 0 {
		errs = append(errs, errors.New("at least one level is required"))
	}
	if c.Rules.TimeLimit < 1 || c.Rules.TimeLimit > MaxTimeLimit {
		errs = append(errs, fmt.Errorf("rules.time_limit must be within 1-%d, got %d", MaxTimeLimit, c.Rules.TimeLimit))
	}
	if c.Rules.PassThreshold <= 0 || c.Rules.PassThreshold > 100 {
		errs = append(errs, fmt.Errorf("rules.pass_threshold must be within (0,100], got %v", c.Rules.PassThreshold))
	}
	if c.Scoring.MinConfidence < 0 || c.Scoring.MinConfidence >= 1 {
		errs = append(errs, fmt.Errorf("scoring.min_confidence must be within [0,1), got %v", c.Scoring.MinConfidence))
	}
	if len(c.Scoring.Anchors) == 0 {
		errs = append(errs, errors.New("scoring.anchors must not be empty"))
	}
	if c.Timing.DisplayMS <= 0 || c.Timing.CountdownMS <= 0 || c.Timing.SamplingMS <= 0 {
		errs = append(errs, errors.New("timing periods must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Game converts the config into controller settings.
func (c GameConfig) Game() game.Config {
	levels := make([]level.Level, len(c.Levels))
	for i, lc := range c.Levels {
		ref := lc.Reference
		if ref == "" {
			ref = level.ReferenceFor(i + 1)
		}
		levels[i] = level.Level{ID: i + 1, Name: lc.Name, Reference: ref}
	}

	return game.Config{
		Levels: levels,
		Rules: level.Rules{
			TimeLimit:     c.Rules.TimeLimit,
			PassThreshold: c.Rules.PassThreshold,
		},
		Scorer: pose.Scorer{
			Anchors:       append([]string(nil), c.Scoring.Anchors...),
			MinConfidence: c.Scoring.MinConfidence,
		},
	}
}

// SchedulerTiming converts the timing section into scheduler periods.
func (c GameConfig) SchedulerTiming() game.Timing {
	return game.Timing{
		Display:   time.Duration(c.Timing.DisplayMS) * time.Millisecond,
		Countdown: time.Duration(c.Timing.CountdownMS) * time.Millisecond,
		Sampling:  time.Duration(c.Timing.SamplingMS) * time.Millisecond,
	}
}
