package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switch-tui/internal/engine"
)

func TestTickCmd(t *testing.T) {
	if tickCmd(time.Millisecond) == nil {
		t.Error("tickCmd returned nil")
	}
	if defaultTickCmd() == nil {
		t.Error("defaultTickCmd returned nil")
	}
}

func TestNotifyCmds(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
	}{
		{"Success", notifySuccessCmd, NotificationSuccess},
		{"Error", notifyErrorCmd, NotificationError},
		{"Warning", notifyWarningCmd, NotificationWarning},
		{"Info", notifyInfoCmd, NotificationInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.fn("msg")()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
		})
	}
}

func TestClearNotificationCmd(t *testing.T) {
	if clearNotificationCmd("id", time.Millisecond) == nil {
		t.Error("clearNotificationCmd returned nil")
	}
}

func TestWaitForEngineEventCmd(t *testing.T) {
	ch := make(chan engine.Event, 1)
	ch <- engine.ProcessStatusEvent{}

	msg := waitForEngineEventCmd(ch)()
	eventMsg, ok := msg.(EngineEventMsg)
	if !ok {
		t.Fatalf("expected EngineEventMsg, got %T", msg)
	}
	if _, ok := eventMsg.Event.(engine.ProcessStatusEvent); !ok {
		t.Errorf("unexpected event %T", eventMsg.Event)
	}

	// A closed channel ends the subscription quietly.
	close(ch)
	if got := waitForEngineEventCmd(ch)(); got != nil {
		t.Errorf("closed channel should yield nil, got %T", got)
	}
}
