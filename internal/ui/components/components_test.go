package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading")
	if s.label != "Loading" {
		t.Errorf("label = %s, want Loading", s.label)
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if s.ViewWithLabel() == "" {
		t.Error("ViewWithLabel returned empty")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if s.Tick() == nil {
		t.Error("Tick should return command")
	}

	_, cmd := s.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Update should return command for tick")
	}
}

func TestRenderLineChart(t *testing.T) {
	data := []float64{10, 20, 30, 40}
	s := RenderLineChart(data, 20, 5, "Primary")
	if s == "" {
		t.Error("RenderLineChart returned empty")
	}
}

func TestRenderLineChart_Empty(t *testing.T) {
	s := RenderLineChart(nil, 20, 5, "Primary")
	if !strings.Contains(s, "No data") {
		t.Errorf("expected no-data message, got %q", s)
	}
}

func TestRenderDualLineChart(t *testing.T) {
	primary := []float64{10, 20, 30}
	secondary := []float64{5, 10}
	s := RenderDualLineChart(primary, secondary, 20, 5, "Usage")
	if s == "" {
		t.Error("RenderDualLineChart returned empty")
	}
}

func TestRenderSparkline(t *testing.T) {
	values := []float64{0, 25, 50, 75, 100}
	s := RenderSparkline(values, 10)
	if s == "" {
		t.Error("RenderSparkline returned empty")
	}

	if RenderSparkline(nil, 10) != "" {
		t.Error("empty input should render empty")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "Primary", Color: "1"},
		{Label: "Secondary", Color: "4"},
	}
	s := RenderLegend(items)
	if !strings.Contains(s, "Primary") || !strings.Contains(s, "Secondary") {
		t.Errorf("legend missing labels: %q", s)
	}
}
