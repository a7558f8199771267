// Package tui implements the monitor mode: an interactive dashboard that
// polls a running server and renders the request history and result cache.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/fibserve/internal/errors"
)

// pollInterval is the dashboard refresh cadence.
const pollInterval = time.Second

// DataSource is the read surface the dashboard polls. *cli.Client satisfies
// it; tests substitute a fake.
type DataSource interface {
	// Current returns the cache view: stringified index to value, nil while
	// pending.
	Current(ctx context.Context) (map[string]*string, error)
	// History returns every requested index in submission order.
	History(ctx context.Context) ([]uint64, error)
}

// Snapshot is one polled state of the server.
type Snapshot struct {
	View    map[string]*string
	History []uint64
}

// Messages exchanged with the bubbletea runtime.
type (
	// TickMsg triggers the next poll.
	TickMsg time.Time
	// SnapshotMsg delivers a successful poll.
	SnapshotMsg Snapshot
	// PollErrorMsg delivers a failed poll. Polling continues; the dashboard
	// shows the error until a poll succeeds again.
	PollErrorMsg struct{ Err error }
)

// Model is the root bubbletea model for the monitor dashboard.
type Model struct {
	source  DataSource
	table   table.Model
	keymap  KeyMap
	version string

	snapshot Snapshot
	lastErr  error
	paused   bool
	width    int
	height   int

	startTime time.Time
}

// NewModel creates the dashboard model over a data source.
//
// Parameters:
//   - source: The server read surface to poll.
//   - version: The version string shown in the header.
//
// Returns:
//   - Model: The initialized model.
func NewModel(source DataSource, version string) Model {
	columns := []table.Column{
		{Title: "Index", Width: 8},
		{Title: "Status", Width: 10},
		{Title: "Value", Width: 48},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	t.SetStyles(styles)

	return Model{
		source:    source,
		table:     t,
		keymap:    DefaultKeyMap(),
		version:   version,
		startTime: time.Now(),
	}
}

// Init returns the initial commands: an immediate poll and the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchSnapshotCmd(m.source), tickCmd())
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 4)
		if msg.Height > 10 {
			m.table.SetHeight(msg.Height - 8)
		}
		return m, nil

	case TickMsg:
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(fetchSnapshotCmd(m.source), tickCmd())

	case SnapshotMsg:
		m.snapshot = Snapshot(msg)
		m.lastErr = nil
		m.table.SetRows(resultRows(m.snapshot.View))
		return m, nil

	case PollErrorMsg:
		m.lastErr = msg.Err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		return m, nil

	case key.Matches(msg, m.keymap.Refresh):
		return m, fetchSnapshotCmd(m.source)

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Down),
		key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := headerStyle.Render("fibserve monitor")
	version := versionStyle.Render(m.version)
	uptime := versionStyle.Render(fmt.Sprintf("up %s", time.Since(m.startTime).Round(time.Second)))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", version, "  ", uptime)

	status := m.statusLine()
	body := panelStyle.Render(m.table.View())
	footer := footerView(m.keymap)

	return lipgloss.JoinVertical(lipgloss.Left, header, status, body, footer)
}

// statusLine summarizes the snapshot and the polling state.
func (m Model) statusLine() string {
	pending, computed := 0, 0
	for _, value := range m.snapshot.View {
		if value == nil {
			pending++
		} else {
			computed++
		}
	}
	summary := fmt.Sprintf(" %d requests, %d computed, %d pending ",
		len(m.snapshot.History), computed, pending)

	switch {
	case m.lastErr != nil:
		return statusErrorStyle.Render(" server unreachable ") + footerDescStyle.Render(m.lastErr.Error())
	case m.paused:
		return statusPausedStyle.Render(" paused ") + footerDescStyle.Render(summary)
	default:
		return statusOKStyle.Render(" live ") + footerDescStyle.Render(summary)
	}
}

// footerView renders the key binding hints.
func footerView(km KeyMap) string {
	hints := []key.Binding{km.Quit, km.Pause, km.Refresh, km.Up, km.Down}
	out := ""
	for i, b := range hints {
		if i > 0 {
			out += footerDescStyle.Render(" • ")
		}
		out += footerKeyStyle.Render(b.Help().Key) + footerDescStyle.Render(" "+b.Help().Desc)
	}
	return out
}

// resultRows converts the cache view into table rows sorted by index.
func resultRows(view map[string]*string) []table.Row {
	keys := make([]uint64, 0, len(view))
	byIndex := make(map[uint64]*string, len(view))
	for key, value := range view {
		index, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, index)
		byIndex[index] = value
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]table.Row, 0, len(keys))
	for _, index := range keys {
		value := byIndex[index]
		if value == nil {
			rows = append(rows, table.Row{
				strconv.FormatUint(index, 10),
				pendingStyle.Render("pending"),
				"",
			})
			continue
		}
		rows = append(rows, table.Row{
			strconv.FormatUint(index, 10),
			"computed",
			truncateValue(*value, 48),
		})
	}
	return rows
}

// truncateValue shortens a decimal value to fit a table cell.
func truncateValue(value string, width int) string {
	if len(value) <= width {
		return value
	}
	edge := (width - 3) / 2
	return value[:edge] + "..." + value[len(value)-edge:]
}

// Run is the public entry point for the monitor mode. It blocks until the
// user quits or ctx is canceled.
//
// Parameters:
//   - ctx: Controls the dashboard lifetime.
//   - source: The server read surface to poll.
//   - version: The version string shown in the header.
//
// Returns:
//   - int: The process exit code.
func Run(ctx context.Context, source DataSource, version string) int {
	model := NewModel(source, version)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if apperrors.IsContextError(err) {
			return apperrors.ExitErrorCanceled
		}
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// fetchSnapshotCmd polls the data source once.
func fetchSnapshotCmd(source DataSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		view, err := source.Current(ctx)
		if err != nil {
			return PollErrorMsg{Err: err}
		}
		history, err := source.History(ctx)
		if err != nil {
			return PollErrorMsg{Err: err}
		}
		return SnapshotMsg{View: view, History: history}
	}
}

// tickCmd schedules the next poll.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
