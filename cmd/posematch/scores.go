package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/platform/tui"
	"github.com/vovakirdan/pose-match/internal/storage"
)

var (
	flagLimit  int
	flagRecent bool
	flagPlain  bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show best times and recent runs",
	Long: `Display stored results. In a terminal this opens an interactive table
(tab switches between best times and recent runs); otherwise, or with
--plain, it prints a text table.

Examples:
  posematch scores
  posematch scores --recent --limit 20
  posematch scores --plain > results.txt`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVarP(&flagLimit, "limit", "n", 10, "Number of runs to show in plain mode")
	scoresCmd.Flags().BoolVar(&flagRecent, "recent", false, "Show recent runs instead of best times in plain mode")
	scoresCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print a text table even in a terminal")
}

func runScores(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fd := int(os.Stdout.Fd())
	if !flagPlain && term.IsTerminal(fd) {
		width, height := 80, 24
		if w, h, err := term.GetSize(fd); err == nil {
			width, height = w, h
		}
		return tui.RunResults(store, width, height)
	}

	var runs []storage.RunResult
	title := "Best Times"
	if flagRecent {
		title = "Recent Runs"
		runs, err = store.RecentRuns(flagLimit)
	} else {
		runs, err = store.BestTimes(flagLimit)
	}
	if err != nil {
		return err
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	printRuns(os.Stdout, title, runs, stats)
	return nil
}

func printRuns(w io.Writer, title string, runs []storage.RunResult, stats *storage.RunStats) {
	fmt.Fprintf(w, "%s\n\n", title)

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run 'posematch play' and clear all four poses to set a time!")
		return
	}

	fmt.Fprintf(w, "  %-4s  %-5s  %-9s  %-6s  %-12s  %s\n", "Rank", "Time", "Status", "Levels", "Player", "Date")
	fmt.Fprintf(w, "  %-4s  %-5s  %-9s  %-6s  %-12s  %s\n", "----", "----", "------", "------", "------", "----")

	for i, r := range runs {
		player := r.Player
		if player == "" {
			player = "-"
		}
		fmt.Fprintf(w, "  %-4d  %-5s  %-9s  %-6s  %-12s  %s\n",
			i+1,
			game.FormatClock(r.Duration),
			r.Status,
			fmt.Sprintf("%d/%d", r.LevelsCleared, r.TotalLevels),
			player,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	if stats != nil && stats.Completed > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Best: %s  Average: %s  Completed: %d of %d runs\n",
			game.FormatClock(stats.BestTime), game.FormatClock(stats.AvgTime), stats.Completed, stats.Runs)
	}
}
