// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
)

// RenderGradientBar renders the bar characters for a used-percent value.
// The gradient runs green to red as the window fills up.
func RenderGradientBar(usedPercent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * usedPercent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// UsageBar renders a labeled usage bar with a colored percentage.
func UsageBar(label string, usedPercent float64, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4

	if barWidth < 5 {
		barWidth = 5
	}

	bar := RenderGradientBar(usedPercent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := styles.GetUsageStyle(usedPercent, false).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", usedPercent))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// UsageBarUnknown renders a bar for an account without usage data.
func UsageBarUnknown(label string, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4
	if barWidth < 5 {
		barWidth = 5
	}

	bar := lipgloss.NewStyle().
		Foreground(styles.Subtle).
		Render(strings.Repeat("░", barWidth))

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render("--")

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// UsageBarLoading renders a shimmering placeholder while usage is fetched.
func UsageBarLoading(label string, width int, frame int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4
	if barWidth < 5 {
		barWidth = 5
	}

	cycle := 120
	t := float64(frame%cycle) / float64(cycle)
	var p float64
	if t < 0.5 {
		p = t * 2
	} else {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var barChars []string
	for i := 0; i < barWidth; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		var char string
		var style lipgloss.Style
		if dist < 3 {
			char = "▓"
			style = lipgloss.NewStyle().Foreground(styles.Primary)
		} else if dist < 5 {
			char = "▒"
			style = lipgloss.NewStyle().Foreground(styles.TextSecondary)
		} else {
			char = "░"
			style = lipgloss.NewStyle().Foreground(styles.BgLight)
		}
		barChars = append(barChars, style.Render(char))
	}
	bar := strings.Join(barChars, "")

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := dots[(frame/2)%len(dots)]

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	loadingStr := lipgloss.NewStyle().
		Width(percentWidth).
		Align(lipgloss.Right).
		Foreground(styles.Primary).
		Render(dot)

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, loadingStr)
}

// FormatResetCountdown formats the time until a rate-limit window resets.
// The input is a unix timestamp; past timestamps render as "resetting".
func FormatResetCountdown(resetsAt int64, now time.Time) string {
	remaining := time.Unix(resetsAt, 0).Sub(now)
	if remaining <= 0 {
		return "resetting"
	}

	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60

	if hours >= 24 {
		days := hours / 24
		hours = hours % 24
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
