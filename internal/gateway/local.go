package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/codex-switch-tui/internal/authflow"
	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/models"
	"github.com/j-veylop/codex-switch-tui/internal/process"
	"github.com/j-veylop/codex-switch-tui/internal/store"
	"github.com/j-veylop/codex-switch-tui/internal/usageapi"
)

// ErrNoPendingLogin is returned by CompleteLogin and CancelLogin when no
// login flow is in progress.
var ErrNoPendingLogin = errors.New("no pending login")

// maxConcurrentUsageFetches bounds the fan-out of RefreshAllUsage.
const maxConcurrentUsageFetches = 5

// Config parameterises the local gateway.
type Config struct {
	CodexAuthPath string
	OAuthIssuer   string
	OAuthClientID string
	CallbackPort  int
}

// pendingLogin is the state of an in-progress OAuth flow. Its context is
// cancelled when the flow is abandoned, unblocking any waiter.
type pendingLogin struct {
	flow   *authflow.Flow
	name   string
	ctx    context.Context
	cancel context.CancelFunc
}

// Local implements Gateway against the local account store, the usage API
// and the host process table.
type Local struct {
	store     *store.Store
	usage     *usageapi.Client
	inspector *process.Inspector
	cfg       Config

	loginMu sync.Mutex
	login   *pendingLogin
}

// NewLocal wires a local gateway from its collaborators.
func NewLocal(st *store.Store, usage *usageapi.Client, inspector *process.Inspector, cfg Config) *Local {
	return &Local{
		store:     st,
		usage:     usage,
		inspector: inspector,
		cfg:       cfg,
	}
}

// ListAccounts returns all accounts from the store.
func (g *Local) ListAccounts(_ context.Context) ([]models.Account, error) {
	return g.store.List(), nil
}

// ActiveAccount returns the active account's client-visible view.
func (g *Local) ActiveAccount(_ context.Context) (models.Account, error) {
	acc, err := g.store.Active()
	if err != nil {
		return models.Account{}, err
	}
	return acc.Info(g.store.ActiveID()), nil
}

// GetUsage fetches usage for one account.
func (g *Local) GetUsage(ctx context.Context, accountID string) (*models.UsageSnapshot, error) {
	acc, err := g.store.Get(accountID)
	if err != nil {
		return nil, err
	}
	return g.usage.Fetch(ctx, acc)
}

// RefreshAllUsage fetches usage for every account with bounded concurrency.
// Individual failures become error snapshots; the round itself only fails
// when the store cannot be read.
func (g *Local) RefreshAllUsage(ctx context.Context) ([]models.UsageSnapshot, error) {
	accounts := g.store.All()

	results := make([]models.UsageSnapshot, len(accounts))
	sem := make(chan struct{}, maxConcurrentUsageFetches)
	var wg sync.WaitGroup

	for i := range accounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			snap, err := g.usage.Fetch(ctx, accounts[i])
			if err != nil {
				results[i] = *models.ErrorSnapshot(accounts[i].ID, err)
				return
			}
			results[i] = *snap
		}(i)
	}
	wg.Wait()

	return results, nil
}

// SwitchAccount activates an account, writes its credentials to the codex
// auth.json and touches its last-used timestamp.
func (g *Local) SwitchAccount(_ context.Context, accountID string) error {
	acc, err := g.store.Get(accountID)
	if err != nil {
		return err
	}

	if err := g.store.SetActive(accountID); err != nil {
		return err
	}
	if err := g.writeCodexAuth(acc); err != nil {
		return fmt.Errorf("failed to write codex auth.json: %w", err)
	}
	return g.store.Touch(accountID)
}

// DeleteAccount removes an account from the store.
func (g *Local) DeleteAccount(_ context.Context, accountID string) error {
	return g.store.Remove(accountID)
}

// RenameAccount renames an account.
func (g *Local) RenameAccount(_ context.Context, accountID, name string) error {
	return g.store.Rename(accountID, name)
}

// ImportAccount reads a codex auth.json file and stores it as a new account.
func (g *Local) ImportAccount(_ context.Context, path, name string) (models.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to read auth file: %w", err)
	}

	var auth models.AuthDotJSON
	if err := json.Unmarshal(data, &auth); err != nil {
		return models.Account{}, fmt.Errorf("failed to parse auth file: %w", err)
	}

	acc, err := accountFromAuthJSON(name, auth)
	if err != nil {
		return models.Account{}, err
	}

	if err := g.store.Add(acc); err != nil {
		return models.Account{}, err
	}
	return acc.Info(g.store.ActiveID()), nil
}

// accountFromAuthJSON builds a stored account out of auth.json contents.
func accountFromAuthJSON(name string, auth models.AuthDotJSON) (models.StoredAccount, error) {
	base := models.StoredAccount{
		ID:                   uuid.NewString(),
		Name:                 name,
		CreatedAt:            time.Now().UTC(),
		NotificationSettings: models.DefaultNotificationSettings(),
	}

	switch {
	case auth.Tokens != nil:
		claims := authflow.ParseIDTokenClaims(auth.Tokens.IDToken)
		base.AuthMode = models.AuthModeChatGPT
		base.Email = claims.Email
		base.PlanType = claims.PlanType
		base.AuthData = models.AuthData{
			Type:         models.AuthDataChatGPT,
			IDToken:      auth.Tokens.IDToken,
			AccessToken:  auth.Tokens.AccessToken,
			RefreshToken: auth.Tokens.RefreshToken,
			AccountID:    auth.Tokens.AccountID,
		}
	case auth.OpenAIAPIKey != nil && *auth.OpenAIAPIKey != "":
		base.AuthMode = models.AuthModeAPIKey
		base.AuthData = models.AuthData{
			Type: models.AuthDataAPIKey,
			Key:  *auth.OpenAIAPIKey,
		}
	default:
		return models.StoredAccount{}, errors.New("auth file contains no credentials")
	}

	return base, nil
}

// StartLogin begins a browser OAuth flow. A previous pending flow is
// cancelled first so it does not keep the callback port occupied.
func (g *Local) StartLogin(_ context.Context, accountName string) (models.OAuthLoginInfo, error) {
	g.loginMu.Lock()
	defer g.loginMu.Unlock()

	if g.login != nil {
		g.login.cancel()
		g.login.flow.Close()
		g.login = nil
	}

	flow, err := authflow.Start(authflow.Config{
		Issuer:       g.cfg.OAuthIssuer,
		ClientID:     g.cfg.OAuthClientID,
		CallbackPort: g.cfg.CallbackPort,
	})
	if err != nil {
		return models.OAuthLoginInfo{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.login = &pendingLogin{flow: flow, name: accountName, ctx: ctx, cancel: cancel}

	return models.OAuthLoginInfo{
		AuthURL:      flow.AuthURL(),
		CallbackPort: flow.Port(),
	}, nil
}

// CompleteLogin waits for the browser flow, then stores and activates the
// new account.
func (g *Local) CompleteLogin(ctx context.Context) (models.Account, error) {
	g.loginMu.Lock()
	pending := g.login
	g.login = nil
	g.loginMu.Unlock()

	if pending == nil {
		return models.Account{}, ErrNoPendingLogin
	}
	defer pending.cancel()

	// Abandoning the flow (CancelLogin, or a new StartLogin) must unblock
	// this wait as well as the caller's own context.
	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()
	stop := context.AfterFunc(pending.ctx, cancelWait)
	defer stop()

	tokens, err := pending.flow.Wait(waitCtx)
	if err != nil {
		return models.Account{}, err
	}

	claims := authflow.ParseIDTokenClaims(tokens.IDToken)
	acc := models.StoredAccount{
		ID:        uuid.NewString(),
		Name:      pending.name,
		Email:     claims.Email,
		PlanType:  claims.PlanType,
		AuthMode:  models.AuthModeChatGPT,
		CreatedAt: time.Now().UTC(),
		AuthData: models.AuthData{
			Type:         models.AuthDataChatGPT,
			IDToken:      tokens.IDToken,
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			AccountID:    claims.AccountID,
		},
		NotificationSettings: models.DefaultNotificationSettings(),
	}

	if err := g.store.Add(acc); err != nil {
		return models.Account{}, err
	}
	if err := g.SwitchAccount(ctx, acc.ID); err != nil {
		return models.Account{}, err
	}
	return acc.Info(g.store.ActiveID()), nil
}

// CancelLogin abandons a pending flow, freeing the callback port.
func (g *Local) CancelLogin(_ context.Context) error {
	g.loginMu.Lock()
	defer g.loginMu.Unlock()

	if g.login == nil {
		return nil
	}
	g.login.cancel()
	g.login.flow.Close()
	g.login = nil
	return nil
}

// NotificationSettings returns an account's threshold settings.
func (g *Local) NotificationSettings(_ context.Context, accountID string) (models.NotificationSettings, error) {
	return g.store.NotificationSettings(accountID)
}

// UpdateNotificationSettings validates and stores new threshold settings.
func (g *Local) UpdateNotificationSettings(_ context.Context, accountID string, settings models.NotificationSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return g.store.UpdateNotificationSettings(accountID, settings)
}

// ResetNotificationHistory clears an account's cooldown timestamps.
func (g *Local) ResetNotificationHistory(_ context.Context, accountID string) error {
	return g.store.ResetNotificationHistory(accountID)
}

// LastNotifications returns the stored cooldown timestamps.
func (g *Local) LastNotifications(_ context.Context, accountID string) (models.LastNotifications, error) {
	return g.store.LastNotifications(accountID)
}

// UpdateLastNotifications persists fresh cooldown timestamps.
func (g *Local) UpdateLastNotifications(_ context.Context, accountID string, last models.LastNotifications) error {
	return g.store.UpdateLastNotifications(accountID, last)
}

// CheckProcesses reports running codex processes.
func (g *Local) CheckProcesses(ctx context.Context) (models.ProcessStatus, error) {
	return g.inspector.Check(ctx)
}

// writeCodexAuth writes the selected account's credentials to the auth.json
// the codex CLI reads, atomically and with 0600 perms.
func (g *Local) writeCodexAuth(acc models.StoredAccount) error {
	var auth models.AuthDotJSON
	now := time.Now().UTC()

	switch acc.AuthMode {
	case models.AuthModeAPIKey:
		key := acc.AuthData.Key
		auth.OpenAIAPIKey = &key
	case models.AuthModeChatGPT:
		auth.Tokens = &models.TokenData{
			IDToken:      acc.AuthData.IDToken,
			AccessToken:  acc.AuthData.AccessToken,
			RefreshToken: acc.AuthData.RefreshToken,
			AccountID:    acc.AuthData.AccountID,
		}
		auth.LastRefresh = &now
	default:
		return fmt.Errorf("unknown auth mode: %s", acc.AuthMode)
	}

	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(g.cfg.CodexAuthPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp := g.cfg.CodexAuthPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, g.cfg.CodexAuthPath); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return err
	}
	return nil
}
