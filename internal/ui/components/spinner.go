package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switch-tui/internal/ui/styles"
)

// LoadingSpinner pairs a bubbles spinner with a short status label,
// used wherever a tab is waiting on the engine.
type LoadingSpinner struct {
	spinner    spinner.Model
	label      string
	labelStyle lipgloss.Style
}

// NewSpinner returns a dot spinner labeled with the given text.
func NewSpinner(label string) LoadingSpinner {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
	)
	return LoadingSpinner{
		spinner:    sp,
		label:      label,
		labelStyle: lipgloss.NewStyle().Foreground(styles.TextSecondary),
	}
}

func (l LoadingSpinner) Init() tea.Cmd {
	return l.spinner.Tick
}

// Tick re-arms the animation.
func (l LoadingSpinner) Tick() tea.Cmd {
	return l.spinner.Tick
}

func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// SetLabel swaps the status text without resetting the animation frame.
func (l *LoadingSpinner) SetLabel(label string) {
	l.label = label
}

func (l LoadingSpinner) View() string {
	return l.spinner.View()
}

// ViewWithLabel renders "<frame> <label>".
func (l LoadingSpinner) ViewWithLabel() string {
	return l.spinner.View() + " " + l.labelStyle.Render(l.label)
}

// RenderSpinnerCentered places the labeled spinner in the middle of a region.
func RenderSpinnerCentered(s LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.ViewWithLabel(), width, height)
}
