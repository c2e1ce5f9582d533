// Package gateway exposes account, usage, OAuth, notification and process
// operations as one request/response command surface. The engine only ever
// talks to this interface; tests substitute fakes.
package gateway

import (
	"context"

	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// Gateway is the remote command surface the engine orchestrates.
type Gateway interface {
	// ListAccounts returns the authoritative account list, active flag set.
	ListAccounts(ctx context.Context) ([]models.Account, error)
	// ActiveAccount returns the active account, or an error when none is set.
	ActiveAccount(ctx context.Context) (models.Account, error)

	// RefreshAllUsage fetches usage for every account in one round. The
	// result may omit accounts; per-account failures are recorded in the
	// snapshot Error field rather than failing the round.
	RefreshAllUsage(ctx context.Context) ([]models.UsageSnapshot, error)
	// GetUsage fetches usage for a single account.
	GetUsage(ctx context.Context, accountID string) (*models.UsageSnapshot, error)

	// SwitchAccount makes the given account active and writes its
	// credentials where the codex CLI reads them.
	SwitchAccount(ctx context.Context, accountID string) error
	// DeleteAccount removes an account.
	DeleteAccount(ctx context.Context, accountID string) error
	// RenameAccount changes an account's display name.
	RenameAccount(ctx context.Context, accountID, name string) error
	// ImportAccount creates an account from a codex auth.json file.
	ImportAccount(ctx context.Context, path, name string) (models.Account, error)

	// StartLogin begins a browser OAuth flow for a new account.
	StartLogin(ctx context.Context, accountName string) (models.OAuthLoginInfo, error)
	// CompleteLogin blocks until the browser flow finishes, then stores and
	// activates the new account.
	CompleteLogin(ctx context.Context) (models.Account, error)
	// CancelLogin abandons a pending login. Best effort.
	CancelLogin(ctx context.Context) error

	// NotificationSettings returns the threshold settings for an account.
	NotificationSettings(ctx context.Context, accountID string) (models.NotificationSettings, error)
	// UpdateNotificationSettings replaces the threshold settings.
	UpdateNotificationSettings(ctx context.Context, accountID string, settings models.NotificationSettings) error
	// ResetNotificationHistory clears the cooldown timestamps.
	ResetNotificationHistory(ctx context.Context, accountID string) error
	// LastNotifications returns the stored cooldown timestamps.
	LastNotifications(ctx context.Context, accountID string) (models.LastNotifications, error)
	// UpdateLastNotifications persists fresh cooldown timestamps.
	UpdateLastNotifications(ctx context.Context, accountID string, last models.LastNotifications) error

	// CheckProcesses reports external codex processes as an advisory switch
	// guard.
	CheckProcesses(ctx context.Context) (models.ProcessStatus, error)
}
