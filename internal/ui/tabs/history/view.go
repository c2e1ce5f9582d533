package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switch-tui/internal/ui/components"
	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading && !m.loaded {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if len(m.points) == 0 {
		return m.renderEmpty()
	}

	var sections []string

	sections = append(sections,
		m.renderHeader(),
		m.renderUsageChart(),
		m.renderStats(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading usage history..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Usage History"),
		"",
		styles.HelpStyle.Render("No recorded usage for this account yet."),
		styles.HelpStyle.Render("Readings accumulate while the app is running."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	name := m.accountName
	if len(name) > 40 {
		name = name[:37] + "..."
	}

	title := styles.TitleStyle.Render("History: " + name)

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if len(m.points) > 0 {
		first := m.points[0].Timestamp
		last := m.points[len(m.points)-1].Timestamp
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d readings)",
			first.Format("Jan 2 15:04"),
			last.Format("Jan 2 15:04"),
			len(m.points),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderUsageChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Window Usage"), "")

	primary := make([]float64, len(m.points))
	secondary := make([]float64, len(m.points))
	for i, p := range m.points {
		primary[i] = p.PrimaryPercent
		secondary[i] = p.SecondaryPercent
	}

	chartWidth := max(cardWidth-12, 30)
	chartHeight := 8

	chart := components.RenderDualLineChart(primary, secondary, chartWidth, chartHeight, m.rangeFootnote())
	for _, line := range strings.Split(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	rows = append(rows, "")
	legend := components.RenderLegend([]components.LegendItem{
		{Label: "5h window", Color: lipgloss.Color("1")},
		{Label: "Weekly window", Color: lipgloss.Color("4")},
	})
	rows = append(rows, "  "+legend, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderStats() string {
	cardWidth := max(m.width-6, 40)

	latest := m.points[len(m.points)-1]

	var peak float64
	for _, p := range m.points {
		if p.PrimaryPercent > peak {
			peak = p.PrimaryPercent
		}
	}

	sparkData := make([]float64, len(m.points))
	for i, p := range m.points {
		sparkData[i] = p.PrimaryPercent
	}

	rows := []string{
		styles.CardTitleStyle.Render("Summary"),
		"",
		fmt.Sprintf("  Latest:  5h %s, weekly %s",
			styles.GetUsageStyle(latest.PrimaryPercent, false).Render(fmt.Sprintf("%.0f%%", latest.PrimaryPercent)),
			styles.GetUsageStyle(latest.SecondaryPercent, false).Render(fmt.Sprintf("%.0f%%", latest.SecondaryPercent)),
		),
		fmt.Sprintf("  Peak 5h: %s",
			styles.GetUsageStyle(peak, false).Render(fmt.Sprintf("%.0f%%", peak))),
		"",
		"  " + components.RenderSparkline(sparkData, max(cardWidth-8, 10)),
		"",
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
