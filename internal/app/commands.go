package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switch-tui/internal/engine"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for toasts.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief toasts.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important toasts.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// subscribeCmd subscribes to engine events and hands the channel back.
func subscribeCmd(eng *engine.Engine) tea.Cmd {
	ch := eng.Subscribe()
	return func() tea.Msg {
		return SubscriptionMsg{Channel: ch}
	}
}

// waitForEngineEventCmd waits for the next engine event.
func waitForEngineEventCmd(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return EngineEventMsg{Event: event}
	}
}

// switchAccountCmd switches the active account.
func switchAccountCmd(eng *engine.Engine, id, name string) tea.Cmd {
	return func() tea.Msg {
		err := eng.SwitchAccount(context.Background(), id)
		return SwitchResultMsg{ID: id, Name: name, Error: err}
	}
}

// deleteAccountCmd deletes an account.
func deleteAccountCmd(eng *engine.Engine, id, name string) tea.Cmd {
	return func() tea.Msg {
		err := eng.DeleteAccount(context.Background(), id)
		return DeleteResultMsg{Name: name, Error: err}
	}
}

// renameAccountCmd renames an account.
func renameAccountCmd(eng *engine.Engine, id, newName string) tea.Cmd {
	return func() tea.Msg {
		err := eng.RenameAccount(context.Background(), id, newName)
		return RenameResultMsg{NewName: newName, Error: err}
	}
}

// importAccountCmd imports an account from a codex auth.json file.
func importAccountCmd(eng *engine.Engine, path, name string) tea.Cmd {
	return func() tea.Msg {
		err := eng.ImportFromFile(context.Background(), path, name)
		return ImportResultMsg{Name: name, Error: err}
	}
}

// startLoginCmd begins an OAuth login for a new account.
func startLoginCmd(eng *engine.Engine, name string) tea.Cmd {
	return func() tea.Msg {
		info, err := eng.Login().Start(context.Background(), name)
		return LoginStartedMsg{Info: info, Error: err}
	}
}

// completeLoginCmd blocks until the browser flow finishes.
func completeLoginCmd(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		account, err := eng.Login().Complete(context.Background())
		return LoginCompletedMsg{Account: account, Error: err}
	}
}

// cancelLoginCmd abandons a pending login.
func cancelLoginCmd(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		if err := eng.Login().Cancel(context.Background()); err != nil {
			return ErrorMsg{Error: err, Context: "cancel login"}
		}
		return nil
	}
}

// refreshUsageCmd refreshes usage for one account.
func refreshUsageCmd(eng *engine.Engine, id string) tea.Cmd {
	return func() tea.Msg {
		snap, err := eng.RefreshUsageFor(context.Background(), id)
		return UsageRefreshedMsg{ID: id, Snapshot: snap, Error: err}
	}
}

// refreshAllUsageCmd runs one batched usage round in the background.
func refreshAllUsageCmd(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		eng.RefreshAllUsage(context.Background())
		return nil
	}
}

// toggleNotificationsCmd flips threshold alerts for an account.
func toggleNotificationsCmd(eng *engine.Engine, id, name string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		settings, err := eng.NotificationSettings(ctx, id)
		if err != nil {
			return NotificationSettingsSavedMsg{Name: name, Error: err}
		}
		settings.Enabled = !settings.Enabled
		if err := eng.UpdateNotificationSettings(ctx, id, settings); err != nil {
			return NotificationSettingsSavedMsg{Name: name, Error: err}
		}
		return NotificationSettingsSavedMsg{Name: name, Enabled: settings.Enabled}
	}
}

// clearNotificationCmd removes a toast after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd adds a success toast.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd adds an error toast.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd adds a warning toast.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd adds an info toast.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}
