package config

import "fmt"

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// ParseDifficulty validates a preset name. Empty means normal.
func ParseDifficulty(s string) (DifficultyPreset, error) {
	switch DifficultyPreset(s) {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return DifficultyPreset(s), nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (want easy, normal or hard)", s)
	}
}

// ThresholdForPreset returns the pass threshold for a difficulty preset.
func ThresholdForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 70
	case DifficultyHard:
		return 90
	default:
		return 80
	}
}

// ApplyPreset sets the pass threshold from preset. Normal leaves the
// configured threshold alone.
func ApplyPreset(cfg *GameConfig, preset DifficultyPreset) {
	if preset == DifficultyNormal || preset == "" {
		return
	}
	cfg.Rules.PassThreshold = clampF(ThresholdForPreset(preset), 1, 100)
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
