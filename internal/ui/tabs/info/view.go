package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
	"github.com/j-veylop/codex-switch-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderStatusCard())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderStatusCard shows the active account and codex process state.
func (m *Model) renderStatusCard() string {
	cardWidth := m.cardWidth()

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Status"))
	rows = append(rows, "")

	if active, ok := m.state.ActiveEntry(); ok {
		rows = append(rows, m.renderRow("Active Account", active.Account.Name))
		if active.Account.Email != "" {
			rows = append(rows, m.renderRow("Email", active.Account.Email))
		}
	} else {
		rows = append(rows, m.renderRow("Active Account", "none"))
	}

	status := m.state.ProcessStatus()
	if status.Count > 0 {
		rows = append(rows, m.renderRow("Codex Processes",
			styles.WarningTextStyle.Render(fmt.Sprintf("%d running", status.Count))))
		rows = append(rows, m.renderRow("Switching",
			styles.WarningTextStyle.Render("blocked while codex runs")))
	} else {
		rows = append(rows, m.renderRow("Codex Processes", "none"))
		rows = append(rows, m.renderRow("Switching", styles.SuccessTextStyle.Render("available")))
	}

	login := m.state.Login()
	if login.AccountName != "" {
		rows = append(rows, m.renderRow("Login", fmt.Sprintf("%s (%s)", login.State, login.AccountName)))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderConfigCard() string {
	cardWidth := m.cardWidth()

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderRow("Accounts File", m.config.AccountsPath))
		rows = append(rows, m.renderRow("Database", m.config.DatabasePath))
		rows = append(rows, m.renderRow("Codex auth.json", m.config.CodexAuthPath))
		rows = append(rows, m.renderRow("Log File", m.config.LogPath))
		rows = append(rows, m.renderRow("Usage Refresh", m.config.UsagePollInterval.String()))
		rows = append(rows, m.renderRow("Process Poll", m.config.ProcessPollInterval.String()))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	cardWidth := m.cardWidth()

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Codex Switcher"))
	rows = append(rows, "")

	rows = append(rows, m.renderRow("Version", version.Get()))
	rows = append(rows, m.renderRow("Commit", version.GetCommit()))
	rows = append(rows, m.renderRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	rows = append(rows, "")

	rows = append(rows, fmt.Sprintf("Accounts: %s",
		styles.InfoTextStyle.Render(fmt.Sprintf("%d", m.state.EntryCount()))))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) cardWidth() int {
	cardWidth := m.width - 6
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 80 {
		cardWidth = 80
	}
	return cardWidth
}
