// Package tui is the terminal front-end: a Bubble Tea play screen driven by
// game runner events, a results table, and an SSH server that serves the
// play screen per session.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pose-match/internal/game"
)

// refreshInterval is how often the play screen re-reads the runner view in
// case an event was dropped by the bridge.
const refreshInterval = 500 * time.Millisecond

// EventMsg carries a runner event into the Bubble Tea loop.
type EventMsg game.Event

// RefreshMsg carries a view pulled from the runner.
type RefreshMsg game.View

// commandDoneMsg reports the outcome of a start/retry/reset command.
type commandDoneMsg struct {
	kind string
	err  error
}

// EventBridge is a game.Observer that hands events to the UI over a
// buffered channel. Notify never blocks the runner loop; when the UI falls
// behind, events are dropped and the periodic refresh catches up.
type EventBridge struct {
	ch chan game.Event
}

// NewEventBridge creates a bridge with the given buffer size.
func NewEventBridge(size int) *EventBridge {
	if size <= 0 {
		size = 64
	}
	return &EventBridge{ch: make(chan game.Event, size)}
}

// Notify implements game.Observer.
func (b *EventBridge) Notify(evt game.Event) {
	select {
	case b.ch <- evt:
	default:
	}
}

// Events returns the receive side of the bridge.
func (b *EventBridge) Events() <-chan game.Event {
	return b.ch
}

// waitForEvent returns a command that waits for the next runner event.
func waitForEvent(ch <-chan game.Event) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg(evt)
	}
}

// refreshCmd schedules a view pull from the runner.
func refreshCmd(ctx context.Context, r *game.Runner) tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		v, err := r.View(ctx)
		if err != nil {
			return nil
		}
		return RefreshMsg(v)
	})
}
