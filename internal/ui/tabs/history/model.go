// Package history provides the usage history tab.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switch-tui/internal/app"
	"github.com/j-veylop/codex-switch-tui/internal/db"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// timeRange selects how far back the chart looks.
type timeRange int

const (
	rangeDay timeRange = iota
	rangeWeek
	rangeMonth
)

// Next cycles to the following time range.
func (r timeRange) Next() timeRange {
	switch r {
	case rangeDay:
		return rangeWeek
	case rangeWeek:
		return rangeMonth
	default:
		return rangeDay
	}
}

// String returns the display label for the range.
func (r timeRange) String() string {
	switch r {
	case rangeDay:
		return "24 hours"
	case rangeWeek:
		return "7 days"
	default:
		return "30 days"
	}
}

// Duration returns the lookback window for the range.
func (r timeRange) Duration() time.Duration {
	switch r {
	case rangeDay:
		return 24 * time.Hour
	case rangeWeek:
		return 7 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	NextAccount key.Binding
	PrevAccount key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		NextAccount: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next account"),
		),
		PrevAccount: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev account"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg is sent when history data is loaded.
type historyLoadedMsg struct {
	accountID   string
	accountName string
	points      []models.UsageHistoryPoint
}

// historyErrorMsg is sent when loading history fails.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	history  *db.DB
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	timeRange   timeRange
	accountIdx  int
	accountID   string
	accountName string
	points      []models.UsageHistoryPoint
	loading     bool
	loaded      bool
	errorMsg    string
}

// New creates a new history model.
func New(state *app.State, history *db.DB) *Model {
	return &Model{
		state:     state,
		history:   history,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: rangeWeek,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.loadHistoryCmd()
}

// loadHistoryCmd loads recorded usage for the selected account.
func (m *Model) loadHistoryCmd() tea.Cmd {
	idx := m.accountIdx
	since := time.Now().Add(-m.timeRange.Duration())

	return func() tea.Msg {
		if m.history == nil {
			return historyErrorMsg{err: "History database not available"}
		}

		entries := m.state.Entries()
		if len(entries) == 0 {
			return historyErrorMsg{err: "No accounts configured"}
		}

		if idx < 0 || idx >= len(entries) {
			idx = 0
		}
		acc := entries[idx].Account

		points, err := m.history.GetUsageHistory(acc.ID, since)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{accountID: acc.ID, accountName: acc.Name, points: points}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.accountID = msg.accountID
		m.accountName = msg.accountName
		m.points = msg.points
		m.loading = false
		m.loaded = true
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory && !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		m.loading = true
		cmds = append(cmds, m.loadHistoryCmd())

	case key.Matches(msg, m.keys.NextAccount):
		if count := m.state.EntryCount(); count > 0 {
			m.accountIdx = (m.accountIdx + 1) % count
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case key.Matches(msg, m.keys.PrevAccount):
		if count := m.state.EntryCount(); count > 0 {
			m.accountIdx = (m.accountIdx - 1 + count) % count
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.NextAccount,
		m.keys.PrevAccount,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange},
		{m.keys.NextAccount, m.keys.PrevAccount},
		{m.keys.Up, m.keys.Down},
	}
}

// rangeFootnote describes the chart window for captions.
func (m *Model) rangeFootnote() string {
	return fmt.Sprintf("Last %s", m.timeRange.String())
}
