// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the Codex Switcher theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// FocusedStyle is used for focused input elements.
var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// BlurredStyle is used for unfocused input elements.
var BlurredStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// FocusedBorderStyle creates a focused border.
var FocusedBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1)

// BlurredBorderStyle creates an unfocused border.
var BlurredBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpDescStyle styles help descriptions.
var HelpDescStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// HelpSeparatorStyle styles separators in help text.
var HelpSeparatorStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// TableCellStyle styles table cells.
var TableCellStyle = lipgloss.NewStyle().
	Padding(0, 1)

// TableSelectedStyle styles selected table rows.
var TableSelectedStyle = lipgloss.NewStyle().
	Background(BgAccent).
	Foreground(TextPrimary).
	Bold(true)

// ActiveMarkerStyle highlights the currently active account marker.
var ActiveMarkerStyle = lipgloss.NewStyle().
	Foreground(Success).
	Bold(true)

// PlanPaidStyle styles paid plan labels (plus, pro, team, business, enterprise).
var PlanPaidStyle = lipgloss.NewStyle().
	Foreground(Success).
	Bold(true)

// PlanFreeStyle styles the free plan label.
var PlanFreeStyle = lipgloss.NewStyle().
	Foreground(Warning)

// PlanUnknownStyle styles accounts without a known plan.
var PlanUnknownStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// UsageLowStyle for lightly used windows (<50% used).
var UsageLowStyle = lipgloss.NewStyle().
	Foreground(Success)

// UsageMediumStyle for moderately used windows (50-80% used).
var UsageMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// UsageHighStyle for nearly exhausted windows (>80% used).
var UsageHighStyle = lipgloss.NewStyle().
	Foreground(Error)

// UsageFailedStyle for accounts whose last usage fetch failed.
var UsageFailedStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true).
	Italic(true)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// ModalContentStyle styles modal content.
var ModalContentStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 2).
	Background(BgDark)

// ButtonStyle is the base button style.
var ButtonStyle = lipgloss.NewStyle().
	Padding(0, 2).
	MarginRight(1)

// ButtonActiveStyle styles active/focused buttons.
var ButtonActiveStyle = ButtonStyle.
	Background(Primary).
	Foreground(lipgloss.Color("229")).
	Bold(true)

var ButtonInactiveStyle = ButtonStyle.
	Background(BgLight).
	Foreground(TextSecondary)

// GetUsageStyle returns the appropriate style based on used percentage.
func GetUsageStyle(usedPercent float64, failed bool) lipgloss.Style {
	if failed {
		return UsageFailedStyle
	}
	switch {
	case usedPercent > 80:
		return UsageHighStyle
	case usedPercent >= 50:
		return UsageMediumStyle
	default:
		return UsageLowStyle
	}
}

// GetPlanStyle returns the appropriate style for an account plan.
func GetPlanStyle(plan string) lipgloss.Style {
	switch plan {
	case "plus", "pro", "team", "business", "enterprise":
		return PlanPaidStyle
	case "free":
		return PlanFreeStyle
	default:
		return PlanUnknownStyle
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
