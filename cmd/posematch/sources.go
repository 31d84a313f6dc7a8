package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pose-match/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List keypoint sources",
	Long: `Shows the local keypoint sources that stand in for camera and pose
model in 'play' and 'ssh'. Browser play always uses the client's own model.`,
	Args: cobra.NoArgs,
	Run:  runSources,
}

func runSources(_ *cobra.Command, _ []string) {
	sources := source.List()

	fmt.Println("Available sources:")
	fmt.Println()

	maxIDLen := 2 // "ID" header
	for _, s := range sources {
		maxIDLen = max(maxIDLen, len(s.ID))
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Description")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----------")
	for _, s := range sources {
		fmt.Printf("  %-*s  %s\n", maxIDLen, s.ID, s.Description)
	}

	fmt.Println()
	fmt.Println("Run 'posematch play --source <id>' to use one.")
}
