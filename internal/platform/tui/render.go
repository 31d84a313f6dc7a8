package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/level"
)

// Band classifies a score relative to the pass threshold.
type Band int

const (
	BandBad  Band = iota // More than warnMargin below the threshold
	BandWarn             // Within warnMargin of the threshold
	BandGood             // At or above the threshold
)

// warnMargin is how far below the threshold a score still shows as warn.
const warnMargin = 20

// ScoreBand returns the band for score. With the default threshold of 80
// the bands are >=80 good, >=60 warn, else bad.
func ScoreBand(score, threshold float64) Band {
	switch {
	case score >= threshold:
		return BandGood
	case score >= threshold-warnMargin:
		return BandWarn
	default:
		return BandBad
	}
}

// bandColors maps score bands to terminal colours.
var bandColors = map[Band]lipgloss.Color{
	BandGood: lipgloss.Color("10"),
	BandWarn: lipgloss.Color("11"),
	BandBad:  lipgloss.Color("9"),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)
	noticeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// renderScoreBar draws the score as a progress bar coloured by band.
func renderScoreBar(bar progress.Model, score, threshold float64) string {
	color := bandColors[ScoreBand(score, threshold)]
	bar.FullColor = string(color)
	label := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%5.1f%%", score))
	return bar.ViewAs(score/100) + " " + label
}

// renderStatusLine returns the headline for the current run state.
func renderStatusLine(v game.View) string {
	switch v.RunStatus {
	case game.RunNotStarted:
		return "Press s to start. Hold each pose until the bar turns green."
	case game.RunRunning:
		return fmt.Sprintf("Level %d of %d  %s", v.LevelIndex, v.TotalLevels, v.LevelName)
	case game.RunCompleted:
		return fmt.Sprintf("All %d levels cleared in %s!", v.TotalLevels, game.FormatClock(v.Elapsed))
	case game.RunFailed:
		return fmt.Sprintf("Time's up on level %d. Press r to retry or x to reset.", v.LevelIndex)
	default:
		return ""
	}
}

// renderOutcomes lists finished levels, one per line.
func renderOutcomes(outcomes []game.LevelOutcome) string {
	if len(outcomes) == 0 {
		return ""
	}
	var b strings.Builder
	for _, o := range outcomes {
		mark := "x"
		if o.Status == level.StatusPassed {
			mark = "✓"
		}
		fmt.Fprintf(&b, "%s level %d  %5.1f%%  %s\n", mark, o.Level, o.Score, game.FormatClock(o.Duration))
	}
	return strings.TrimRight(b.String(), "\n")
}

// centerText centers s within width, leaving it alone when it does not fit.
func centerText(s string, width int) string {
	w := lipgloss.Width(s)
	if width <= w {
		return s
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
