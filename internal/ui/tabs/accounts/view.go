package accounts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switch-tui/internal/ui/components"
	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
)

// View renders the accounts tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	var sections []string

	sections = append(sections, m.renderTitle())

	switch m.mode {
	case modeRename:
		sections = append(sections, m.renderNamePrompt("Rename Account", "New name:"))
	case modeLogin:
		sections = append(sections, m.renderNamePrompt("Add Account", "Account name:"))
	case modeImport:
		sections = append(sections, m.renderImportForm())
	case modeConfirmDelete:
		sections = append(sections, m.renderDeleteConfirm())
		sections = append(sections, m.renderTable())
	default:
		sections = append(sections, m.renderTable())
	}

	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Accounts")

	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d accounts configured", m.state.EntryCount()))
	if err := m.state.RegistryErr(); err != nil {
		subtitle = styles.ErrorTextStyle.Render(fmt.Sprintf("Load error: %v", err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderTable() string {
	if m.state.EntryCount() == 0 {
		return m.renderEmptyState()
	}

	m.updateTableData()

	cardWidth := m.width - 6
	if cardWidth < 60 {
		cardWidth = 60
	}

	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

func (m *Model) renderEmptyState() string {
	cardWidth := m.width - 6
	if cardWidth < 40 {
		cardWidth = 40
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Accounts Configured"),
		"",
		styles.HelpStyle.Render("Add an account to start switching and tracking usage."),
		"",
		styles.InfoTextStyle.Render("Press 'a' to log in or 'i' to import an auth.json"),
		"",
	)

	return styles.CardStyle.Width(cardWidth).Render(content)
}

// renderNamePrompt renders a single-input modal used by rename and add.
func (m *Model) renderNamePrompt(title, label string) string {
	cardWidth := m.width - 10
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 70 {
		cardWidth = 70
	}

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render(title))
	rows = append(rows, "")
	rows = append(rows, styles.FocusedStyle.Render("> "+label))
	rows = append(rows, styles.FocusedBorderStyle.Width(cardWidth-10).Render(m.nameInput.View()))
	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Enter: submit | Esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return styles.ModalContentStyle.Width(cardWidth).Render(content)
}

func (m *Model) renderImportForm() string {
	cardWidth := m.width - 10
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 80 {
		cardWidth = 80
	}

	var rows []string

	rows = append(rows, styles.CardTitleStyle.Render("Import auth.json"))
	rows = append(rows, "")

	pathLabel := styles.BlurredStyle.Render("  Path:")
	pathStyle := styles.BlurredBorderStyle
	if m.focusedField == fieldPath {
		pathLabel = styles.FocusedStyle.Render("> Path:")
		pathStyle = styles.FocusedBorderStyle
	}
	rows = append(rows, pathLabel)
	rows = append(rows, pathStyle.Width(cardWidth-10).Render(m.pathInput.View()))
	rows = append(rows, "")

	nameLabel := styles.BlurredStyle.Render("  Name:")
	nameStyle := styles.BlurredBorderStyle
	if m.focusedField == fieldName {
		nameLabel = styles.FocusedStyle.Render("> Name:")
		nameStyle = styles.FocusedBorderStyle
	}
	rows = append(rows, nameLabel)
	rows = append(rows, nameStyle.Width(cardWidth-10).Render(m.nameInput.View()))
	rows = append(rows, "")

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle
	if m.focusedField == fieldSubmit {
		submitStyle = styles.ButtonActiveStyle
	}
	if m.focusedField == fieldCancel {
		cancelStyle = styles.ButtonActiveStyle
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		submitStyle.Render(" Import "),
		"  ",
		cancelStyle.Render(" Cancel "),
	)
	rows = append(rows, buttons)
	rows = append(rows, "")

	rows = append(rows, styles.HelpStyle.Render("Tab: next field | Enter: submit | Esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return styles.ModalContentStyle.Width(cardWidth).Render(content)
}

func (m *Model) renderDeleteConfirm() string {
	cardWidth := 50

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Delete Account?"),
		"",
		"Are you sure you want to delete:",
		styles.ErrorTextStyle.Render(m.deleteName),
		"",
		"This action cannot be undone.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(cardWidth).Render(content),
		m.width,
	)
}

func (m *Model) renderFooter() string {
	var shortcuts []string

	switch m.mode {
	case modeRename, modeLogin:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " submit",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case modeImport:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Tab") + " next",
			styles.HelpKeyStyle.Render("Enter") + " submit",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case modeConfirmDelete:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	default:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " switch",
			styles.HelpKeyStyle.Render("d") + " delete",
			styles.HelpKeyStyle.Render("n") + " rename",
			styles.HelpKeyStyle.Render("a") + " add",
			styles.HelpKeyStyle.Render("i") + " import",
			styles.HelpKeyStyle.Render("u") + " usage",
			styles.HelpKeyStyle.Render("t") + " alerts",
		}
	}

	footer := ""
	for i, s := range shortcuts {
		if i > 0 {
			footer += styles.HelpSeparatorStyle.Render(" | ")
		}
		footer += s
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(footer)
}
