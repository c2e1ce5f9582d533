// Package accounts provides the account management tab.
package accounts

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switch-tui/internal/app"
	"github.com/j-veylop/codex-switch-tui/internal/engine"
	"github.com/j-veylop/codex-switch-tui/internal/models"
	"github.com/j-veylop/codex-switch-tui/internal/ui/components"
	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
)

// mode represents the current input mode of the accounts tab.
type mode int

const (
	modeNormal mode = iota
	modeRename
	modeLogin
	modeImport
	modeConfirmDelete
)

// importField represents which field is focused in the import form.
type importField int

const (
	fieldPath importField = iota
	fieldName
	fieldSubmit
	fieldCancel
)

// keyMap defines the key bindings specific to the accounts tab.
type keyMap struct {
	Switch key.Binding
	Delete key.Binding
	Rename key.Binding
	Add    key.Binding
	Import key.Binding
	Usage  key.Binding
	Alerts key.Binding
	Escape key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Switch: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch account"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Rename: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "rename"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add (login)"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import auth.json"),
		),
		Usage: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "refresh usage"),
		),
		Alerts: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle alerts"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the accounts tab state.
type Model struct {
	state *app.State
	table table.Model

	width  int
	height int

	mode         mode
	focusedField importField

	nameInput textinput.Model
	pathInput textinput.Model

	spinner components.LoadingSpinner
	keys    keyMap

	renameID   string
	deleteID   string
	deleteName string
}

// New creates a new accounts model.
func New(state *app.State) *Model {
	nameInput := textinput.New()
	nameInput.Placeholder = "Account name"
	nameInput.CharLimit = 100
	nameInput.Width = 40

	pathInput := textinput.New()
	pathInput.Placeholder = "~/.codex/auth.json"
	pathInput.CharLimit = 300
	pathInput.Width = 40

	t := table.New(
		table.WithColumns(defaultColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:     state,
		table:     t,
		nameInput: nameInput,
		pathInput: pathInput,
		spinner:   components.NewSpinner("Loading accounts..."),
		keys:      defaultKeyMap(),
		mode:      modeNormal,
	}
}

func defaultColumns(width int) []table.Column {
	nameWidth := width - 62
	if nameWidth < 16 {
		nameWidth = 16
	}
	if nameWidth > 28 {
		nameWidth = 28
	}

	return []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Email", Width: 24},
		{Title: "Plan", Width: 10},
		{Title: "5h", Width: 7},
		{Title: "Weekly", Width: 7},
		{Title: "Status", Width: 12},
	}
}

// Init initializes the accounts tab.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the accounts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch m.mode {
	case modeRename:
		return m.updateRename(msg)
	case modeLogin:
		return m.updateLogin(msg)
	case modeImport:
		return m.updateImport(msg)
	case modeConfirmDelete:
		return m.updateDeleteConfirm(msg)
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Switch):
			if entry, ok := m.selectedEntry(); ok && !entry.Account.IsActive {
				return m, func() tea.Msg {
					return app.SwitchRequestedMsg{ID: entry.Account.ID, Name: entry.Account.Name}
				}
			}

		case key.Matches(msg, m.keys.Delete):
			if entry, ok := m.selectedEntry(); ok {
				m.mode = modeConfirmDelete
				m.deleteID = entry.Account.ID
				m.deleteName = entry.Account.Name
			}

		case key.Matches(msg, m.keys.Rename):
			if entry, ok := m.selectedEntry(); ok {
				m.mode = modeRename
				m.renameID = entry.Account.ID
				m.nameInput.SetValue(entry.Account.Name)
				m.nameInput.CursorEnd()
				m.nameInput.Focus()
				return m, textinput.Blink
			}

		case key.Matches(msg, m.keys.Add):
			m.mode = modeLogin
			m.nameInput.SetValue("")
			m.nameInput.Focus()
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Import):
			m.mode = modeImport
			m.focusedField = fieldPath
			m.pathInput.SetValue("")
			m.nameInput.SetValue("")
			m.updateImportFocus()
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Usage):
			if entry, ok := m.selectedEntry(); ok {
				return m, func() tea.Msg {
					return app.RefreshUsageRequestedMsg{ID: entry.Account.ID}
				}
			}

		case key.Matches(msg, m.keys.Alerts):
			if entry, ok := m.selectedEntry(); ok {
				return m, func() tea.Msg {
					return app.ToggleNotificationsRequestedMsg{ID: entry.Account.ID, Name: entry.Account.Name}
				}
			}

		case key.Matches(msg, m.keys.Escape):
			if m.state.Login().State == engine.LoginPending {
				return m, func() tea.Msg {
					return app.LoginCancelRequestedMsg{}
				}
			}

		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			cmds = append(cmds, cmd)
		}

	case app.EngineEventMsg:
		m.updateTableData()
	}

	return m, tea.Batch(cmds...)
}

// updateRename handles the rename input mode.
func (m *Model) updateRename(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.exitInputMode()
			return m, nil
		case "enter":
			newName := m.nameInput.Value()
			id := m.renameID
			m.exitInputMode()
			if newName == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				return app.RenameRequestedMsg{ID: id, NewName: newName}
			}
		}
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// updateLogin handles the add-account name prompt.
func (m *Model) updateLogin(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.exitInputMode()
			return m, nil
		case "enter":
			name := m.nameInput.Value()
			m.exitInputMode()
			if name == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				return app.LoginRequestedMsg{Name: name}
			}
		}
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// updateImport handles the import auth.json form.
func (m *Model) updateImport(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.exitInputMode()
			return m, nil

		case "tab", "down":
			m.focusedField = (m.focusedField + 1) % 4
			m.updateImportFocus()
			return m, textinput.Blink

		case "shift+tab", "up":
			m.focusedField = (m.focusedField - 1 + 4) % 4
			m.updateImportFocus()
			return m, textinput.Blink

		case "enter":
			switch m.focusedField {
			case fieldSubmit:
				path := m.pathInput.Value()
				name := m.nameInput.Value()
				if path != "" && name != "" {
					m.exitInputMode()
					return m, func() tea.Msg {
						return app.ImportRequestedMsg{Path: path, Name: name}
					}
				}
			case fieldCancel:
				m.exitInputMode()
				return m, nil
			default:
				m.focusedField = (m.focusedField + 1) % 4
				m.updateImportFocus()
				return m, textinput.Blink
			}
		}
	}

	var cmd tea.Cmd
	switch m.focusedField {
	case fieldPath:
		m.pathInput, cmd = m.pathInput.Update(msg)
		cmds = append(cmds, cmd)
	case fieldName:
		m.nameInput, cmd = m.nameInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y", "Y":
			id := m.deleteID
			name := m.deleteName
			m.mode = modeNormal
			m.deleteID = ""
			m.deleteName = ""
			return m, func() tea.Msg {
				return app.DeleteRequestedMsg{ID: id, Name: name}
			}
		case "n", "N", "esc":
			m.mode = modeNormal
			m.deleteID = ""
			m.deleteName = ""
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) exitInputMode() {
	m.mode = modeNormal
	m.renameID = ""
	m.nameInput.Blur()
	m.pathInput.Blur()
}

func (m *Model) updateImportFocus() {
	m.pathInput.Blur()
	m.nameInput.Blur()

	switch m.focusedField {
	case fieldPath:
		m.pathInput.Focus()
	case fieldName:
		m.nameInput.Focus()
	}
}

// selectedEntry returns the registry entry under the table cursor.
func (m *Model) selectedEntry() (models.RegistryEntry, bool) {
	m.updateTableData()
	cursor := m.table.Cursor()
	entries := m.state.Entries()
	if cursor < 0 || cursor >= len(entries) {
		return models.RegistryEntry{}, false
	}
	return entries[cursor], true
}

// updateTableData rebuilds table rows from the current registry entries.
func (m *Model) updateTableData() {
	entries := m.state.Entries()
	rows := make([]table.Row, 0, len(entries))

	for _, entry := range entries {
		acc := entry.Account

		plan := acc.PlanType
		primary := "-"
		secondary := "-"
		status := "ok"

		if usage := entry.Usage; usage != nil {
			if usage.PlanType != "" {
				plan = usage.PlanType
			}
			if usage.Failed() {
				status = "ERROR"
			} else {
				if usage.PrimaryUsedPercent != nil {
					primary = formatPercent(*usage.PrimaryUsedPercent)
				}
				if usage.SecondaryUsedPercent != nil {
					secondary = formatPercent(*usage.SecondaryUsedPercent)
				}
			}
		}
		if plan == "" {
			plan = "-"
		}

		if entry.UsageLoading {
			status = "loading"
		}
		if acc.IsActive {
			status = "* " + status
		}

		rows = append(rows, table.Row{
			acc.Name,
			acc.Email,
			plan,
			primary,
			secondary,
			status,
		})
	}

	m.table.SetRows(rows)
}

// formatPercent formats a used percentage for display.
func formatPercent(p float64) string {
	if p >= 100 {
		return "100%"
	}
	if p < 1 {
		return "<1%"
	}
	return fmt.Sprintf("%.0f%%", p)
}

// SetSize sets the available size for the accounts tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(3, height-10))
	m.table.SetColumns(defaultColumns(width))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	switch m.mode {
	case modeRename, modeLogin:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	case modeImport:
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	}
	bindings := []key.Binding{
		m.keys.Switch,
		m.keys.Delete,
		m.keys.Rename,
		m.keys.Add,
		m.keys.Import,
		m.keys.Usage,
		m.keys.Alerts,
	}
	if m.state.Login().State == engine.LoginPending {
		bindings = append(bindings, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel login")))
	}
	return bindings
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Switch, m.keys.Delete, m.keys.Rename},
		{m.keys.Add, m.keys.Import},
		{m.keys.Usage, m.keys.Alerts},
	}
}
