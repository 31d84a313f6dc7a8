package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pose-match/internal/game"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Show the configured levels",
	Long: `Shows the levels, reference images and rules after applying --config,
POSEMATCH_* environment overrides and --difficulty.`,
	Args: cobra.NoArgs,
	RunE: runLevels,
}

func runLevels(_ *cobra.Command, _ []string) error {
	cfg, preset, err := loadConfig()
	if err != nil {
		return err
	}
	gc := cfg.Game()

	fmt.Printf("Levels (%s):\n\n", preset)
	fmt.Printf("  %-3s  %-16s  %s\n", "#", "Name", "Reference")
	fmt.Printf("  %-3s  %-16s  %s\n", "-", "----", "---------")
	for _, l := range gc.Levels {
		fmt.Printf("  %-3d  %-16s  %s\n", l.ID, l.Name, l.Reference)
	}

	fmt.Println()
	fmt.Printf("Time limit:     %s per level\n", game.FormatSeconds(gc.Rules.TimeLimit))
	fmt.Printf("Pass threshold: %.0f%%\n", gc.Rules.PassThreshold)
	fmt.Printf("Anchors:        %v (confidence > %.2f)\n", gc.Scorer.Anchors, gc.Scorer.MinConfidence)
	return nil
}
