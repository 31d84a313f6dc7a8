package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/storage"
)

const maxResults = 100

// ResultsView selects which runs the results table shows.
type ResultsView int

const (
	ResultsBest ResultsView = iota
	ResultsRecent
)

func (v ResultsView) title() string {
	if v == ResultsRecent {
		return "RECENT RUNS"
	}
	return "BEST TIMES"
}

// ResultsKeyMap defines the key bindings for the results screen.
type ResultsKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Switch key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ResultsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Switch, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ResultsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Switch, k.Quit}}
}

// DefaultResultsKeyMap returns default key bindings.
func DefaultResultsKeyMap() ResultsKeyMap {
	return ResultsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Switch: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "left", "right"),
			key.WithHelp("tab", "best/recent"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ResultsModel is the Bubble Tea model for the stored results screen.
type ResultsModel struct {
	store    *storage.Store
	mode     ResultsView
	runs     []storage.RunResult
	stats    *storage.RunStats
	err      error
	table    table.Model
	help     help.Model
	keys     ResultsKeyMap
	width    int
	height   int
	quitting bool
}

// NewResultsModel creates a results screen and loads the best times.
func NewResultsModel(store *storage.Store, width, height int) ResultsModel {
	m := ResultsModel{
		store:  store,
		keys:   DefaultResultsKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m *ResultsModel) createTable() table.Model {
	t := table.New(
		table.WithColumns(resultColumns()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 5)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func resultColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Time", Width: 7},
		{Title: "Status", Width: 10},
		{Title: "Levels", Width: 7},
		{Title: "Player", Width: 12},
		{Title: "Date", Width: 13},
	}
}

// ResultRows converts runs to table rows.
func ResultRows(runs []storage.RunResult) []table.Row {
	rows := make([]table.Row, len(runs))
	for i, r := range runs {
		player := r.Player
		if player == "" {
			player = "-"
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			game.FormatClock(r.Duration),
			r.Status,
			fmt.Sprintf("%d/%d", r.LevelsCleared, r.TotalLevels),
			player,
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	return rows
}

func (m *ResultsModel) load() {
	m.runs, m.err = nil, nil
	if m.store == nil {
		m.table.SetRows(nil)
		return
	}

	switch m.mode {
	case ResultsRecent:
		m.runs, m.err = m.store.RecentRuns(maxResults)
	default:
		m.runs, m.err = m.store.BestTimes(maxResults)
	}
	if m.err == nil {
		m.stats, m.err = m.store.Stats()
	}

	m.table.SetRows(ResultRows(m.runs))
	m.table.GotoTop()
}

// Init initializes the results model.
func (m ResultsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results screen.
func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Switch):
			m.mode = (m.mode + 1) % 2
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table = m.createTable()
		m.table.SetRows(ResultRows(m.runs))
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the results screen.
func (m ResultsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(centerText(titleStyle.Render(m.mode.title()), m.width))
	b.WriteString("\n\n")

	if m.stats != nil && m.stats.Runs > 0 {
		summary := fmt.Sprintf("%d runs, %d completed, best %s, average %s",
			m.stats.Runs, m.stats.Completed,
			game.FormatClock(m.stats.BestTime), game.FormatClock(m.stats.AvgTime))
		b.WriteString(centerText(dimStyle.Render(summary), m.width))
		b.WriteString("\n\n")
	}

	var content string
	switch {
	case m.err != nil:
		content = errorStyle.Render("Could not load results: " + m.err.Error())
	case len(m.runs) == 0:
		content = dimStyle.Italic(true).Padding(2, 4).
			Render("No runs recorded yet.\nClear all four poses to set a time!")
	default:
		content = m.table.View()
	}
	b.WriteString(centerText(panelStyle.Render(content), m.width))

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// RunResults runs the results screen until the user quits.
func RunResults(store *storage.Store, width, height int) error {
	p := tea.NewProgram(NewResultsModel(store, width, height), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
