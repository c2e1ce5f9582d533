package engine

import (
	"context"
	"sync"

	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// fakeGateway implements gateway.Gateway with swappable function fields and
// call counters. A nil field means a zero-value success.
type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	listAccountsFn    func(ctx context.Context) ([]models.Account, error)
	refreshAllFn      func(ctx context.Context) ([]models.UsageSnapshot, error)
	getUsageFn        func(ctx context.Context, id string) (*models.UsageSnapshot, error)
	switchFn          func(ctx context.Context, id string) error
	deleteFn          func(ctx context.Context, id string) error
	renameFn          func(ctx context.Context, id, name string) error
	importFn          func(ctx context.Context, path, name string) (models.Account, error)
	startLoginFn      func(ctx context.Context, name string) (models.OAuthLoginInfo, error)
	completeLoginFn   func(ctx context.Context) (models.Account, error)
	cancelLoginFn     func(ctx context.Context) error
	settingsFn        func(ctx context.Context, id string) (models.NotificationSettings, error)
	lastNotifsFn      func(ctx context.Context, id string) (models.LastNotifications, error)
	checkProcessesFn  func(ctx context.Context) (models.ProcessStatus, error)
	updateLastNotifFn func(ctx context.Context, id string, last models.LastNotifications) error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: make(map[string]int)}
}

func (f *fakeGateway) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeGateway) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeGateway) ListAccounts(ctx context.Context) ([]models.Account, error) {
	f.record("ListAccounts")
	if f.listAccountsFn != nil {
		return f.listAccountsFn(ctx)
	}
	return nil, nil
}

func (f *fakeGateway) ActiveAccount(ctx context.Context) (models.Account, error) {
	f.record("ActiveAccount")
	return models.Account{}, nil
}

func (f *fakeGateway) RefreshAllUsage(ctx context.Context) ([]models.UsageSnapshot, error) {
	f.record("RefreshAllUsage")
	if f.refreshAllFn != nil {
		return f.refreshAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeGateway) GetUsage(ctx context.Context, id string) (*models.UsageSnapshot, error) {
	f.record("GetUsage")
	if f.getUsageFn != nil {
		return f.getUsageFn(ctx, id)
	}
	return &models.UsageSnapshot{AccountID: id}, nil
}

func (f *fakeGateway) SwitchAccount(ctx context.Context, id string) error {
	f.record("SwitchAccount")
	if f.switchFn != nil {
		return f.switchFn(ctx, id)
	}
	return nil
}

func (f *fakeGateway) DeleteAccount(ctx context.Context, id string) error {
	f.record("DeleteAccount")
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeGateway) RenameAccount(ctx context.Context, id, name string) error {
	f.record("RenameAccount")
	if f.renameFn != nil {
		return f.renameFn(ctx, id, name)
	}
	return nil
}

func (f *fakeGateway) ImportAccount(ctx context.Context, path, name string) (models.Account, error) {
	f.record("ImportAccount")
	if f.importFn != nil {
		return f.importFn(ctx, path, name)
	}
	return models.Account{ID: "imported", Name: name}, nil
}

func (f *fakeGateway) StartLogin(ctx context.Context, name string) (models.OAuthLoginInfo, error) {
	f.record("StartLogin")
	if f.startLoginFn != nil {
		return f.startLoginFn(ctx, name)
	}
	return models.OAuthLoginInfo{AuthURL: "https://auth.example/authorize", CallbackPort: 1455}, nil
}

func (f *fakeGateway) CompleteLogin(ctx context.Context) (models.Account, error) {
	f.record("CompleteLogin")
	if f.completeLoginFn != nil {
		return f.completeLoginFn(ctx)
	}
	return models.Account{ID: "new", Name: "new"}, nil
}

func (f *fakeGateway) CancelLogin(ctx context.Context) error {
	f.record("CancelLogin")
	if f.cancelLoginFn != nil {
		return f.cancelLoginFn(ctx)
	}
	return nil
}

func (f *fakeGateway) NotificationSettings(ctx context.Context, id string) (models.NotificationSettings, error) {
	f.record("NotificationSettings")
	if f.settingsFn != nil {
		return f.settingsFn(ctx, id)
	}
	return models.DefaultNotificationSettings(), nil
}

func (f *fakeGateway) UpdateNotificationSettings(ctx context.Context, id string, settings models.NotificationSettings) error {
	f.record("UpdateNotificationSettings")
	return nil
}

func (f *fakeGateway) ResetNotificationHistory(ctx context.Context, id string) error {
	f.record("ResetNotificationHistory")
	return nil
}

func (f *fakeGateway) LastNotifications(ctx context.Context, id string) (models.LastNotifications, error) {
	f.record("LastNotifications")
	if f.lastNotifsFn != nil {
		return f.lastNotifsFn(ctx, id)
	}
	return models.LastNotifications{}, nil
}

func (f *fakeGateway) UpdateLastNotifications(ctx context.Context, id string, last models.LastNotifications) error {
	f.record("UpdateLastNotifications")
	if f.updateLastNotifFn != nil {
		return f.updateLastNotifFn(ctx, id, last)
	}
	return nil
}

func (f *fakeGateway) CheckProcesses(ctx context.Context) (models.ProcessStatus, error) {
	f.record("CheckProcesses")
	if f.checkProcessesFn != nil {
		return f.checkProcessesFn(ctx)
	}
	return models.ProcessStatus{CanSwitch: true}, nil
}

// accountList is a shorthand for building ListAccounts results.
func accountList(ids ...string) func(context.Context) ([]models.Account, error) {
	return func(context.Context) ([]models.Account, error) {
		accounts := make([]models.Account, len(ids))
		for i, id := range ids {
			accounts[i] = models.Account{ID: id, Name: "account-" + id}
		}
		if len(accounts) > 0 {
			accounts[0].IsActive = true
		}
		return accounts, nil
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
