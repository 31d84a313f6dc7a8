package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/level"
	"github.com/vovakirdan/pose-match/internal/storage"
)

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score     float64
		threshold float64
		want      Band
	}{
		{100, 80, BandGood},
		{80, 80, BandGood},
		{79.9, 80, BandWarn},
		{60, 80, BandWarn},
		{59.9, 80, BandBad},
		{0, 80, BandBad},
		{70, 70, BandGood},
		{50, 70, BandWarn},
	}

	for _, tt := range tests {
		if got := ScoreBand(tt.score, tt.threshold); got != tt.want {
			t.Errorf("ScoreBand(%v, %v) = %v, want %v", tt.score, tt.threshold, got, tt.want)
		}
	}
}

func TestRenderStatusLine(t *testing.T) {
	tests := []struct {
		name string
		view game.View
		want string
	}{
		{"idle", game.View{RunStatus: game.RunNotStarted}, "Press s to start"},
		{"running", game.View{RunStatus: game.RunRunning, LevelIndex: 2, TotalLevels: 4, LevelName: "Arms Wide"}, "Level 2 of 4  Arms Wide"},
		{"completed", game.View{RunStatus: game.RunCompleted, TotalLevels: 4, Elapsed: 75 * time.Second}, "cleared in 01:15"},
		{"failed", game.View{RunStatus: game.RunFailed, LevelIndex: 3}, "level 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderStatusLine(tt.view); !strings.Contains(got, tt.want) {
				t.Errorf("renderStatusLine() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestRenderOutcomes(t *testing.T) {
	if got := renderOutcomes(nil); got != "" {
		t.Errorf("renderOutcomes(nil) = %q, want empty", got)
	}

	got := renderOutcomes([]game.LevelOutcome{
		{Level: 1, Status: level.StatusPassed, Score: 85, Duration: 12 * time.Second},
		{Level: 2, Status: level.StatusFailed, Score: 40, Duration: time.Minute},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("renderOutcomes() lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "✓ level 1") || !strings.Contains(lines[0], "00:12") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "x level 2") || !strings.Contains(lines[1], "01:00") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestResultRows(t *testing.T) {
	rows := ResultRows([]storage.RunResult{
		{Duration: 95 * time.Second, Status: "completed", LevelsCleared: 4, TotalLevels: 4, Player: "ann"},
		{Duration: 30 * time.Second, Status: "failed", LevelsCleared: 1, TotalLevels: 4},
	})

	if len(rows) != 2 {
		t.Fatalf("ResultRows() = %d rows, want 2", len(rows))
	}
	if rows[0][0] != "1" || rows[0][1] != "01:35" || rows[0][3] != "4/4" || rows[0][4] != "ann" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1][4] != "-" {
		t.Errorf("empty player rendered as %q, want -", rows[1][4])
	}
}

func TestEventBridgeDropsWhenFull(t *testing.T) {
	b := NewEventBridge(2)
	for i := 0; i < 5; i++ {
		b.Notify(game.Event{Kind: game.EventTick})
	}
	if got := len(b.Events()); got != 2 {
		t.Errorf("buffered events = %d, want 2", got)
	}
}

func TestDescribeError(t *testing.T) {
	if got := describeError(errors.Join(game.ErrAcquisition, errors.New("denied"))); !strings.HasPrefix(got, "Camera unavailable") {
		t.Errorf("describeError(acquisition) = %q", got)
	}
	if got := describeError(game.ErrStopped); got != "Game stopped." {
		t.Errorf("describeError(stopped) = %q", got)
	}
}

func newTestPlayModel(t *testing.T, store *storage.Store) PlayModel {
	t.Helper()
	return NewPlayModel(context.Background(), nil, nil, store, RunMeta{Player: "tester", Source: "synthetic", Difficulty: "normal"}, nil)
}

func completedView() game.View {
	return game.View{
		LevelIndex:  4,
		TotalLevels: 4,
		RunStatus:   game.RunCompleted,
		Elapsed:     80 * time.Second,
		Outcomes: []game.LevelOutcome{
			{Level: 1, Status: level.StatusPassed, Score: 90, Duration: 20 * time.Second},
			{Level: 2, Status: level.StatusPassed, Score: 90, Duration: 20 * time.Second},
			{Level: 3, Status: level.StatusPassed, Score: 90, Duration: 20 * time.Second},
			{Level: 4, Status: level.StatusPassed, Score: 90, Duration: 20 * time.Second},
		},
	}
}

func TestPlayModelSavesCompletedRunOnce(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	m := newTestPlayModel(t, store)
	evt := game.Event{Kind: game.EventCompleted, Level: 4, View: completedView()}

	next, _ := m.Update(EventMsg(evt))
	m = next.(PlayModel)
	next, _ = m.Update(RefreshMsg(evt.View))
	m = next.(PlayModel)

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("saved runs = %d, want 1", len(runs))
	}
	if runs[0].Player != "tester" || runs[0].Duration != 80*time.Second || runs[0].LevelsCleared != 4 {
		t.Errorf("saved run = %+v", runs[0])
	}
	if !strings.Contains(m.View(), "Run complete!") {
		t.Error("view should announce the completed run")
	}
}

func TestPlayModelKeysFollowStatus(t *testing.T) {
	m := newTestPlayModel(t, nil)

	if !m.keys.Start.Enabled() || m.keys.Retry.Enabled() {
		t.Error("idle screen should offer start only")
	}

	next, _ := m.Update(EventMsg(game.Event{Kind: game.EventLevelFailed, Level: 2, View: game.View{RunStatus: game.RunFailed, LevelIndex: 2}}))
	m = next.(PlayModel)

	if m.keys.Start.Enabled() || !m.keys.Retry.Enabled() || !m.keys.Reset.Enabled() {
		t.Error("failed run should offer retry and reset")
	}
	if !strings.Contains(m.View(), "Out of time on level 2.") {
		t.Error("view should show the failure notice")
	}
}

func TestPlayModelQuit(t *testing.T) {
	m := newTestPlayModel(t, nil)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit key should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key should return tea.Quit")
	}
	if next.(PlayModel).View() != "" {
		t.Error("quitting model should render nothing")
	}
}
