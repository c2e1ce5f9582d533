// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/codex-switch-tui/internal/engine"
	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabAccounts is the ID for the accounts tab.
	TabAccounts TabID = iota
	// TabHistory is the ID for the usage history tab.
	TabHistory
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabAccounts:
		return "Accounts"
	case TabHistory:
		return "History"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "accounts")),
		Tab2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "history")),
		Tab3:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "info")),
		NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh usage")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3},
		{k.NextTab, k.PrevTab},
		{k.Up, k.Down, k.Enter},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	TabBar       lipgloss.Style
	ActiveTab    lipgloss.Style
	InactiveTab  lipgloss.Style
	TabSeparator lipgloss.Style

	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content lipgloss.Style
	Help    lipgloss.Style
	Spinner lipgloss.Style
	Toast   lipgloss.Style

	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.TabSeparator = lipgloss.NewStyle().Foreground(subtle).SetString(" | ")

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	s.Spinner = lipgloss.NewStyle().Foreground(highlight)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	s.Error = lipgloss.NewStyle().Foreground(errorColor)
	s.Success = lipgloss.NewStyle().Foreground(success)
	s.Warning = lipgloss.NewStyle().Foreground(warning)

	return s
}

// Model is the main application model.
type Model struct {
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	state  *State
	engine *engine.Engine
	keymap KeyMap
	styles Styles

	spinner spinner.Model

	width  int
	height int

	showHelp bool
	ready    bool

	eventChannel chan engine.Event
}

// NewModel initializes a new application model over the engine.
func NewModel(eng *engine.Engine) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		activeTab: TabAccounts,
		tabNames:  []string{"Accounts", "History", "Info"},
		tabs:      make([]Tab, 3),
		state:     NewState(),
		engine:    eng,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetKeyMap returns the key bindings.
func (m *Model) GetKeyMap() KeyMap {
	return m.keymap
}

// GetStyles returns the application styles.
func (m *Model) GetStyles() Styles {
	return m.styles
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.engine != nil {
		cmds = append(cmds, subscribeCmd(m.engine))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg, tea.KeyMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateTabSizes()
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForEngineEventCmd(m.eventChannel))
	case EngineEventMsg:
		cmds = append(cmds, m.handleEngineEvent(msg.Event)...)
		if m.eventChannel != nil {
			cmds = append(cmds, waitForEngineEventCmd(m.eventChannel))
		}

	case SwitchRequestedMsg:
		cmds = append(cmds, m.handleSwitchRequested(msg)...)
	case SwitchResultMsg:
		cmds = append(cmds, m.resultToast(msg.Error,
			fmt.Sprintf("Switched to %s", msg.Name),
			"Failed to switch account"))
	case DeleteRequestedMsg:
		cmds = append(cmds, deleteAccountCmd(m.engine, msg.ID, msg.Name))
	case DeleteResultMsg:
		cmds = append(cmds, m.resultToast(msg.Error,
			fmt.Sprintf("Deleted %s", msg.Name),
			"Failed to delete account"))
	case RenameRequestedMsg:
		cmds = append(cmds, renameAccountCmd(m.engine, msg.ID, msg.NewName))
	case RenameResultMsg:
		cmds = append(cmds, m.resultToast(msg.Error,
			fmt.Sprintf("Renamed to %s", msg.NewName),
			"Failed to rename account"))
	case ImportRequestedMsg:
		cmds = append(cmds, importAccountCmd(m.engine, msg.Path, msg.Name))
	case ImportResultMsg:
		cmds = append(cmds, m.resultToast(msg.Error,
			fmt.Sprintf("Imported %s", msg.Name),
			"Failed to import account"))

	case LoginRequestedMsg:
		cmds = append(cmds, startLoginCmd(m.engine, msg.Name))
	case LoginStartedMsg:
		cmds = append(cmds, m.handleLoginStarted(msg)...)
	case LoginCompletedMsg:
		cmds = append(cmds, m.resultToast(msg.Error,
			fmt.Sprintf("Logged in as %s", msg.Account.Name),
			"Login failed"))
	case LoginCancelRequestedMsg:
		cmds = append(cmds, cancelLoginCmd(m.engine), notifyInfoCmd("Login cancelled"))

	case RefreshUsageRequestedMsg:
		cmds = append(cmds, refreshUsageCmd(m.engine, msg.ID))
	case UsageRefreshedMsg:
		if msg.Error != nil {
			cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Usage refresh failed: %v", msg.Error)))
		}

	case ToggleNotificationsRequestedMsg:
		cmds = append(cmds, toggleNotificationsCmd(m.engine, msg.ID, msg.Name))
	case NotificationSettingsSavedMsg:
		cmds = append(cmds, m.handleSettingsSaved(msg))

	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(msg.Error.Error()))

	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

// handleEngineEvent mirrors engine state into the shared UI state.
func (m *Model) handleEngineEvent(event engine.Event) []tea.Cmd {
	var cmds []tea.Cmd
	switch e := event.(type) {
	case engine.RegistryChangedEvent:
		m.state.SetEntries(e.Entries, e.Err)
		if !m.state.IsInitialLoading() {
			m.state.ClearLoadingNotification()
		}
		if e.Err != nil {
			cmds = append(cmds, notifyErrorCmd(e.Err.Error()))
		}
	case engine.ProcessStatusEvent:
		m.state.SetProcessStatus(e.Status)
	case engine.LoginChangedEvent:
		m.state.SetLogin(e.Session)
	case engine.ErrorEvent:
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Op, e.Err)))
	}
	return cmds
}

// handleSwitchRequested applies the process guard before switching. The
// guard is cooperative; a process appearing mid-switch is accepted.
func (m *Model) handleSwitchRequested(msg SwitchRequestedMsg) []tea.Cmd {
	status := m.state.ProcessStatus()
	if !status.CanSwitch && status.Count > 0 {
		return []tea.Cmd{notifyWarningCmd(fmt.Sprintf(
			"%d codex process(es) running - close them before switching", status.Count))}
	}
	return []tea.Cmd{switchAccountCmd(m.engine, msg.ID, msg.Name)}
}

func (m *Model) handleLoginStarted(msg LoginStartedMsg) []tea.Cmd {
	if msg.Error != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Login failed: %v", msg.Error))}
	}
	// The browser is already opening; block on completion in the background.
	return []tea.Cmd{
		notifyInfoCmd("Complete the login in your browser"),
		completeLoginCmd(m.engine),
	}
}

func (m *Model) handleSettingsSaved(msg NotificationSettingsSavedMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Failed to update alerts: %v", msg.Error))
	}
	if msg.Enabled {
		return notifySuccessCmd(fmt.Sprintf("Alerts enabled for %s", msg.Name))
	}
	return notifyInfoCmd(fmt.Sprintf("Alerts disabled for %s", msg.Name))
}

func (m *Model) resultToast(err error, success, failurePrefix string) tea.Cmd {
	if err != nil {
		return notifyErrorCmd(fmt.Sprintf("%s: %v", failurePrefix, err))
	}
	return notifySuccessCmd(success)
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-5)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// handleKeyMsg handles global keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil

	case key.Matches(msg, m.keymap.Tab1):
		m.activeTab = TabAccounts
		m.updateTabSizes()
		return nil

	case key.Matches(msg, m.keymap.Tab2):
		m.activeTab = TabHistory
		m.updateTabSizes()
		return nil

	case key.Matches(msg, m.keymap.Tab3):
		m.activeTab = TabInfo
		m.updateTabSizes()
		return nil

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp {
			m.activeTab = TabID((int(m.activeTab) + 1) % len(m.tabs))
			m.updateTabSizes()
		}
		return nil

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp {
			m.activeTab = TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs))
			m.updateTabSizes()
		}
		return nil

	case key.Matches(msg, m.keymap.Refresh):
		if m.engine != nil {
			m.state.SetLoadingNotification("Refreshing usage...")
			return refreshAllUsageCmd(m.engine)
		}
		return nil

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil
		}
	}

	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	}

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	notifications := m.renderNotifications()
	if len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayHeight := len(overlayLines)
	overlayWidth := lipgloss.Width(overlay)

	y := max(0, (m.height-overlayHeight)/2)
	x := max(0, (m.width-overlayWidth)/2)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	var tabs []string

	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.Notifications()
	if len(notifications) == 0 {
		return nil
	}

	var toasts []string
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	if len(toasts) == 0 {
		return mainView
	}

	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)

	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			padding := strings.Repeat(" ", startX-mainLineWidth)
			mainLines[lineIdx] = mainLine + padding + toastLine
		} else {
			truncated := ansi.Truncate(mainLine, startX, "")
			mainLines[lineIdx] = truncated + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-3        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  r          Refresh usage")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}
