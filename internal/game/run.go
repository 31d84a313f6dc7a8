// Package game sequences level sessions into a run and drives them from a
// single scheduler on one event loop.
package game

import (
	"fmt"
	"time"

	"github.com/vovakirdan/pose-match/internal/level"
)

// DefaultTotalLevels is the number of levels in a standard run.
const DefaultTotalLevels = 4

// RunStatus is the lifecycle state of a whole run.
type RunStatus int

const (
	RunNotStarted RunStatus = iota
	RunRunning
	RunCompleted
	RunFailed
)

// String returns a human-readable name for the status.
func (s RunStatus) String() string {
	switch s {
	case RunNotStarted:
		return "not_started"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LevelOutcome records how one level session ended.
type LevelOutcome struct {
	Level    int
	Status   level.Status
	Score    float64       // Score at the moment the session ended
	Duration time.Duration // Time spent in the session
}

// FormatClock renders d as MM:SS, truncating sub-second remainder.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatSeconds renders a whole number of seconds as MM:SS.
func FormatSeconds(seconds int) string {
	return FormatClock(time.Duration(seconds) * time.Second)
}
