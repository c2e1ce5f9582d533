package app

import (
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/engine"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// TickMsg is sent periodically to expire toasts.
type TickMsg struct {
	Time time.Time
}

// SubscriptionMsg carries the engine event channel after subscribing.
type SubscriptionMsg struct {
	Channel chan engine.Event
}

// EngineEventMsg wraps an event from the engine.
type EngineEventMsg struct {
	Event engine.Event
}

// SwitchRequestedMsg asks the root model to switch the active account. The
// root model applies the process guard before acting.
type SwitchRequestedMsg struct {
	ID   string
	Name string
}

// SwitchResultMsg contains the result of an account switch.
type SwitchResultMsg struct {
	ID    string
	Name  string
	Error error
}

// DeleteRequestedMsg asks the root model to delete an account.
type DeleteRequestedMsg struct {
	ID   string
	Name string
}

// DeleteResultMsg contains the result of an account deletion.
type DeleteResultMsg struct {
	Name  string
	Error error
}

// RenameRequestedMsg asks the root model to rename an account.
type RenameRequestedMsg struct {
	ID      string
	NewName string
}

// RenameResultMsg contains the result of a rename.
type RenameResultMsg struct {
	NewName string
	Error   error
}

// ImportRequestedMsg asks the root model to import an account from a codex
// auth.json file.
type ImportRequestedMsg struct {
	Path string
	Name string
}

// ImportResultMsg contains the result of an import.
type ImportResultMsg struct {
	Name  string
	Error error
}

// LoginRequestedMsg asks the root model to start an OAuth login.
type LoginRequestedMsg struct {
	Name string
}

// LoginStartedMsg contains the result of starting a login.
type LoginStartedMsg struct {
	Info  models.OAuthLoginInfo
	Error error
}

// LoginCompletedMsg contains the result of the blocking completion wait.
type LoginCompletedMsg struct {
	Account models.Account
	Error   error
}

// LoginCancelRequestedMsg asks the root model to cancel a pending login.
type LoginCancelRequestedMsg struct{}

// RefreshUsageRequestedMsg asks for a usage refresh of one account.
type RefreshUsageRequestedMsg struct {
	ID string
}

// UsageRefreshedMsg contains the result of a single-account usage refresh.
type UsageRefreshedMsg struct {
	ID       string
	Snapshot *models.UsageSnapshot
	Error    error
}

// ToggleNotificationsRequestedMsg flips threshold alerts for an account.
type ToggleNotificationsRequestedMsg struct {
	ID   string
	Name string
}

// NotificationSettingsSavedMsg contains the result of a settings update.
type NotificationSettingsSavedMsg struct {
	Name    string
	Enabled bool
	Error   error
}

// AddNotificationMsg requests adding a toast.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a toast.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers expiry of old toasts.
type ClearExpiredNotificationsMsg struct{}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
