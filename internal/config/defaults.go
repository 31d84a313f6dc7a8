package config

import (
	_ "embed"

	"github.com/vovakirdan/pose-match/internal/level"
	"github.com/vovakirdan/pose-match/internal/pose"
)

//go:embed defaults/game.yaml
var defaultGameYAML []byte

// DefaultGameConfig returns the default configuration.
func DefaultGameConfig() GameConfig {
	levels := make([]LevelConfig, len(level.DefaultLevels))
	for i, lvl := range level.DefaultLevels {
		levels[i] = LevelConfig{Name: lvl.Name, Reference: lvl.Reference}
	}

	return GameConfig{
		Levels: levels,
		Rules: RulesConfig{
			TimeLimit:     level.DefaultTimeLimit,
			PassThreshold: level.DefaultPassThreshold,
		},
		Scoring: ScoringConfig{
			Anchors:       append([]string(nil), pose.DefaultAnchors...),
			MinConfidence: pose.DefaultMinConfidence,
		},
		Timing: TimingConfig{
			DisplayMS:   1000,
			CountdownMS: 1000,
			SamplingMS:  100,
		},
	}
}

// DefaultYAML returns the embedded default YAML.
func DefaultYAML() []byte {
	return defaultGameYAML
}
