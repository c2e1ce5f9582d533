package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderDualLineChart creates a two-series chart for the primary and
// secondary rate-limit windows of one account.
func RenderDualLineChart(primary, secondary []float64, width, height int, caption string) string {
	if len(primary) == 0 && len(secondary) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	maxLen := len(primary)
	if len(secondary) > maxLen {
		maxLen = len(secondary)
	}

	primaryData := make([]float64, maxLen)
	secondaryData := make([]float64, maxLen)
	copy(primaryData, primary)
	copy(secondaryData, secondary)

	return asciigraph.PlotMany([][]float64{primaryData, secondaryData},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Red,
			asciigraph.Blue,
		),
	)
}

// RenderSparkline creates a compact inline sparkline chart scaled to 0-100.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	step := float64(len(values)) / float64(width)
	if step < 1 {
		step = 1
	}

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		idx := int(float64(i) * step)
		val := values[idx]
		normalized := int(val / 100 * float64(len(sparkChars)-1))
		if normalized >= len(sparkChars) {
			normalized = len(sparkChars) - 1
		}
		if normalized < 0 {
			normalized = 0
		}

		style := styles.GetUsageStyle(val, false)
		result.WriteString(style.Render(string(sparkChars[normalized])))
	}

	return result.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}
