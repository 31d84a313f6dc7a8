package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/storage"
)

// RunMeta describes who played a run and how, for stored results.
type RunMeta struct {
	Player     string
	Source     string
	Difficulty string
}

// PlayModel is the Bubble Tea model for the play screen. All game state
// lives in the runner; the model only renders the latest view and turns
// key presses into runner commands.
type PlayModel struct {
	ctx    context.Context
	runner *game.Runner
	events <-chan game.Event
	store  *storage.Store
	meta   RunMeta
	logger *log.Logger

	view     game.View
	bar      progress.Model
	help     help.Model
	keys     PlayKeyMap
	notice   string
	err      error
	saved    bool
	quitting bool
	width    int
	height   int
}

// NewPlayModel creates a play screen over runner. events should come from
// an EventBridge registered on the runner's controller. store may be nil.
func NewPlayModel(ctx context.Context, runner *game.Runner, events <-chan game.Event, store *storage.Store, meta RunMeta, logger *log.Logger) PlayModel {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	bar := progress.New(progress.WithSolidFill(string(bandColors[BandBad])), progress.WithoutPercentage())
	bar.Width = 40

	keys := DefaultPlayKeyMap()
	keys.syncEnabled(game.RunNotStarted)

	return PlayModel{
		ctx:    ctx,
		runner: runner,
		events: events,
		store:  store,
		meta:   meta,
		logger: logger,
		bar:    bar,
		help:   help.New(),
		keys:   keys,
	}
}

// Init pulls the initial view and starts listening for events.
func (m PlayModel) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		refreshCmd(m.ctx, m.runner),
	)
}

// Update handles messages and updates the model state.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case EventMsg:
		m.handleEvent(game.Event(msg))
		return m, waitForEvent(m.events)

	case RefreshMsg:
		m.apply(game.View(msg))
		return m, refreshCmd(m.ctx, m.runner)

	case commandDoneMsg:
		m.err = msg.err
		if msg.err != nil {
			m.logger.Warn("command failed", "command", msg.kind, "error", msg.err)
		}
		return m, nil
	}

	return m, nil
}

func (m PlayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.view.RunStatus == game.RunFailed {
			m.saveRun(m.view)
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Start):
		m.err = nil
		m.notice = ""
		return m, m.command("start", m.runner.Start)

	case key.Matches(msg, m.keys.Retry):
		m.err = nil
		m.notice = ""
		return m, m.command("retry", m.runner.Retry)

	case key.Matches(msg, m.keys.Reset):
		if m.view.RunStatus == game.RunFailed {
			m.saveRun(m.view)
		}
		m.err = nil
		m.notice = ""
		return m, m.command("reset", m.runner.Reset)
	}

	return m, nil
}

// command runs fn off the UI goroutine; acquiring the camera may block.
func (m PlayModel) command(kind string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{kind: kind, err: fn(m.ctx)}
	}
}

func (m *PlayModel) handleEvent(evt game.Event) {
	switch evt.Kind {
	case game.EventStarted, game.EventRetry, game.EventReset:
		m.saved = false
		m.notice = ""
	case game.EventLevelPassed:
		m.notice = fmt.Sprintf("Level %d cleared!", evt.Level)
	case game.EventLevelFailed:
		m.notice = fmt.Sprintf("Out of time on level %d.", evt.Level)
	case game.EventCompleted:
		m.notice = "Run complete!"
	}
	m.apply(evt.View)
}

// apply stores v and persists a completed run once.
func (m *PlayModel) apply(v game.View) {
	m.view = v
	m.keys.syncEnabled(v.RunStatus)
	if v.RunStatus == game.RunCompleted {
		m.saveRun(v)
	}
}

func (m *PlayModel) saveRun(v game.View) {
	if m.saved || m.store == nil {
		return
	}
	m.saved = true

	run := storage.RunFromView(v)
	run.Player = m.meta.Player
	run.Source = m.meta.Source
	run.Difficulty = m.meta.Difficulty

	id, err := m.store.SaveRun(run)
	if err != nil {
		m.logger.Error("could not save run", "error", err)
		return
	}
	m.logger.Info("run saved", "id", id, "status", run.Status, "time", game.FormatClock(run.Duration))
}

// View renders the play screen.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}

	v := m.view
	var body strings.Builder

	body.WriteString(titleStyle.Render("POSE MATCH"))
	body.WriteString("\n\n")
	body.WriteString(renderStatusLine(v))
	body.WriteString("\n\n")

	if v.RunStatus == game.RunRunning {
		fmt.Fprintf(&body, "Reference  %s\n", dimStyle.Render(v.Reference))
		fmt.Fprintf(&body, "Time left  %s\n", game.FormatSeconds(v.TimeRemaining))
		fmt.Fprintf(&body, "Elapsed    %s\n\n", game.FormatClock(v.Elapsed))
		body.WriteString(renderScoreBar(m.bar, v.ScorePercent, v.PassThreshold))
		body.WriteString("\n")
		body.WriteString(dimStyle.Render(fmt.Sprintf("pass at %.0f%%", v.PassThreshold)))
		body.WriteString("\n")
	}

	if outcomes := renderOutcomes(v.Outcomes); outcomes != "" {
		body.WriteString("\n")
		body.WriteString(outcomes)
		body.WriteString("\n")
	}

	if m.notice != "" {
		body.WriteString("\n")
		body.WriteString(noticeStyle.Render(m.notice))
		body.WriteString("\n")
	}
	if m.err != nil {
		body.WriteString("\n")
		body.WriteString(errorStyle.Render(describeError(m.err)))
		body.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString(centerText(panelStyle.Render(body.String()), m.width))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// describeError turns runner errors into a line for the player.
func describeError(err error) string {
	switch {
	case errors.Is(err, game.ErrAcquisition):
		return "Camera unavailable: " + err.Error()
	case errors.Is(err, game.ErrInvalidTransition):
		return "Not now: " + err.Error()
	case errors.Is(err, game.ErrStopped):
		return "Game stopped."
	default:
		return err.Error()
	}
}

// Run starts the Bubble Tea program for the play screen and blocks until
// the player quits.
func Run(ctx context.Context, runner *game.Runner, bridge *EventBridge, store *storage.Store, meta RunMeta, logger *log.Logger, opts ...tea.ProgramOption) error {
	model := NewPlayModel(ctx, runner, bridge.Events(), store, meta, logger)

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(model, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
