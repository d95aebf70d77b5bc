package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/internal/observability"
	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// dashboardKeyMap defines the key bindings of the today dashboard.
type dashboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Start    key.Binding
	Pause    key.Binding
	Wait     key.Binding
	Complete key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var defaultDashboardKeys = dashboardKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Start: key.NewBinding(
		key.WithKeys("s", "enter"),
		key.WithHelp("s", "start"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Wait: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "wait"),
	),
	Complete: key.NewBinding(
		key.WithKeys("c", "d"),
		key.WithHelp("c", "complete"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("K", "shift+up"),
		key.WithHelp("K", "move up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("J", "shift+down"),
		key.WithHelp("J", "move down"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Complete, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown},
		{k.Start, k.Pause, k.Wait, k.Complete},
		{k.Refresh, k.Help, k.Quit},
	}
}

var (
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
)

type dashboardModel struct {
	keys dashboardKeyMap
	help help.Model

	width  int
	height int

	groups []core.TagGroup
	rows   []models.Task
	alerts []observability.Alert
	now    time.Time

	cursor     int
	selectedID string

	// ticking is true while a tick is scheduled; at most one is in flight.
	ticking bool

	loading bool
	err     error
}

// boardLoadedMsg carries a fresh board snapshot back to the model.
type boardLoadedMsg struct {
	groups []core.TagGroup
	alerts []observability.Alert
	now    time.Time
}

// tickMsg advances the running timer display.
type tickMsg time.Time

func newDashboardModel() dashboardModel {
	return dashboardModel{
		keys:    defaultDashboardKeys,
		help:    help.New(),
		loading: true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadBoard
}

func loadBoard() tea.Msg {
	now := Clock.Now()
	msg := boardLoadedMsg{now: now}
	if Board == nil {
		return msg
	}
	msg.groups = Board.Today()
	if AlertEngine != nil {
		alerts := AlertEngine.Evaluate(Board.Snapshot().Tasks, now)
		// Sort alerts by severity: high first, then medium, then low.
		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})
		msg.alerts = alerts
	}
	return msg
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.FocusMsg:
		return m, loadBoard

	case boardLoadedMsg:
		m.loading = false
		m.groups = msg.groups
		m.alerts = msg.alerts
		m.now = msg.now
		m.rebuildRows()
		cmd := m.scheduleTick()
		return m, cmd

	case tickMsg:
		m.ticking = false
		m.now = Clock.Now()
		cmd := m.scheduleTick()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, loadBoard
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Start):
		return m.apply(Board.Start)
	case key.Matches(msg, m.keys.Pause):
		return m.apply(Board.Pause)
	case key.Matches(msg, m.keys.Wait):
		return m.apply(Board.Wait)
	case key.Matches(msg, m.keys.Complete):
		return m.apply(Board.Complete)
	case key.Matches(msg, m.keys.MoveUp):
		return m.move(-1)
	case key.Matches(msg, m.keys.MoveDown):
		return m.move(1)
	}
	return m, nil
}

// apply runs a lifecycle transition on the selected task and reloads.
func (m dashboardModel) apply(transition func(id string) (models.Task, error)) (tea.Model, tea.Cmd) {
	if m.selectedID == "" {
		return m, nil
	}
	_, m.err = transition(m.selectedID)
	return m, loadBoard
}

func (m dashboardModel) move(direction int) (tea.Model, tea.Cmd) {
	if m.selectedID == "" {
		return m, nil
	}
	m.err = Board.MoveTask(m.selectedID, direction)
	return m, loadBoard
}

// rebuildRows flattens the groups and keeps the cursor on the previously
// selected task when it is still on the board.
func (m *dashboardModel) rebuildRows() {
	m.rows = nil
	for _, g := range m.groups {
		m.rows = append(m.rows, g.Tasks...)
	}
	m.cursor = 0
	for i, t := range m.rows {
		if t.ID == m.selectedID {
			m.cursor = i
			break
		}
	}
	m.syncSelection()
}

func (m *dashboardModel) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.syncSelection()
}

func (m *dashboardModel) syncSelection() {
	if len(m.rows) == 0 {
		m.selectedID = ""
		return
	}
	m.selectedID = m.rows[m.cursor].ID
}

func (m dashboardModel) working() bool {
	for _, t := range m.rows {
		if t.Status == models.StatusWorking {
			return true
		}
	}
	return false
}

// scheduleTick starts the tick chain when a timer is running and none is
// pending.
func (m *dashboardModel) scheduleTick() tea.Cmd {
	if m.ticking || !m.working() {
		return nil
	}
	m.ticking = true
	return tick()
}

func (m dashboardModel) View() string {
	title := titleStyle.Render(" taskdesk · " + timeutil.DateKey(m.now) + " ")
	helpView := m.help.View(m.keys)

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading board...\n\n%s", title, helpView)
	}

	board := m.renderBoard()
	alerts := m.renderAlerts()

	var body string
	if m.width > 100 {
		boardWidth := m.width*2/3 - 4
		alertWidth := m.width - boardWidth - 8
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(boardWidth).Render(board),
			panelStyle.Width(alertWidth).Render(alerts))
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, board, "", alerts)
	}

	footer := helpView
	if m.err != nil {
		footer = errorStyle.Render("Error: "+m.err.Error()) + "\n" + helpView
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, footer)
}

func (m dashboardModel) renderBoard() string {
	var b strings.Builder
	if len(m.rows) == 0 {
		b.WriteString("  Nothing on the board today.")
		return b.String()
	}

	var total int64
	row := 0
	for _, g := range m.groups {
		if len(g.Tasks) == 0 {
			continue
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", tagTitle(g.Tag), len(g.Tasks))))
		b.WriteString("\n")
		for _, t := range g.Tasks {
			elapsed := core.LiveElapsed(t, m.now)
			total += elapsed
			line := fmt.Sprintf("%s %s  %s", statusBadge(t.Status), timeutil.FormatDuration(elapsed), displayName(t))
			switch {
			case row == m.cursor:
				b.WriteString(selectedStyle.Render("> ") + line)
			case t.Status == models.StatusWorking:
				b.WriteString(runningStyle.Render("● ") + line)
			default:
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
			row++
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Total " + timeutil.FormatDuration(total)))
	return b.String()
}

func (m dashboardModel) renderAlerts() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(string(a.Severity)).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(a.Severity))))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.Message))
	}
	return b.String()
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive today board with live timers",
	Long: `Launch an interactive terminal view of today's board grouped by tag.

Move with j/k, start with s, pause with p, wait with w, complete with c,
reorder with K/J, refresh with r and quit with q. The running timer updates
every second while a task is working.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen(), tea.WithReportFocus())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
