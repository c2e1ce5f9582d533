package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/j-veylop/codex-switch-tui/internal/gateway"
	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// LoginState is the phase of the add-account OAuth flow.
type LoginState int

const (
	// LoginIdle means no login is in progress.
	LoginIdle LoginState = iota
	// LoginRequesting means the authorization URL is being requested.
	LoginRequesting
	// LoginPending means the browser flow is underway.
	LoginPending
)

// String returns the string representation of a LoginState.
func (s LoginState) String() string {
	switch s {
	case LoginIdle:
		return "idle"
	case LoginRequesting:
		return "requesting"
	case LoginPending:
		return "pending"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyAccountName is the local validation failure for a blank name.
	// It is raised before any gateway call.
	ErrEmptyAccountName = errors.New("account name must not be empty")
	// ErrLoginInProgress rejects a second login while one is requesting or
	// pending. One session system-wide, by construction.
	ErrLoginInProgress = errors.New("a login is already in progress")
	// ErrNoLoginPending rejects Complete and Cancel when nothing is pending.
	ErrNoLoginPending = errors.New("no login in progress")
)

// LoginSession is a point-in-time view of the login machine.
type LoginSession struct {
	AccountName string
	AuthURL     string
	LastError   string
	State       LoginState
}

// LoginController owns the single OAuth login session. Transitions:
// Idle -> Requesting on Start; Requesting -> Pending when the gateway
// returns an authorization URL; Pending -> Idle on completion, cancellation
// or failure. Failures keep their message in LastError for display.
type LoginController struct {
	mu      sync.Mutex
	gw      gateway.Gateway
	session LoginSession

	// openURL hands the authorization URL to the browser, fire and forget.
	openURL func(url string)
	// onComplete runs after a successful login: registry reload plus a full
	// usage refresh, supplied by the engine.
	onComplete func(ctx context.Context)
	// onChange is invoked after every state transition.
	onChange func()
}

// NewLoginController creates an idle controller. Any callback may be nil.
func NewLoginController(gw gateway.Gateway, openURL func(string), onComplete func(context.Context), onChange func()) *LoginController {
	if openURL == nil {
		openURL = func(string) {}
	}
	if onComplete == nil {
		onComplete = func(context.Context) {}
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &LoginController{
		gw:         gw,
		openURL:    openURL,
		onComplete: onComplete,
		onChange:   onChange,
	}
}

// Session returns the current session snapshot.
func (c *LoginController) Session() LoginSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Start begins a login for the given account name. An empty (trimmed) name
// fails locally with zero gateway calls; a session already requesting or
// pending is rejected.
func (c *LoginController) Start(ctx context.Context, accountName string) (models.OAuthLoginInfo, error) {
	accountName = strings.TrimSpace(accountName)
	if accountName == "" {
		return models.OAuthLoginInfo{}, ErrEmptyAccountName
	}

	c.mu.Lock()
	if c.session.State != LoginIdle {
		c.mu.Unlock()
		return models.OAuthLoginInfo{}, ErrLoginInProgress
	}
	c.session = LoginSession{State: LoginRequesting, AccountName: accountName}
	c.mu.Unlock()
	c.onChange()

	info, err := c.gw.StartLogin(ctx, accountName)
	if err != nil {
		c.fail(err)
		return models.OAuthLoginInfo{}, err
	}

	c.mu.Lock()
	c.session.State = LoginPending
	c.session.AuthURL = info.AuthURL
	c.mu.Unlock()
	c.onChange()

	go c.openURL(info.AuthURL)
	return info, nil
}

// Complete blocks until the gateway reports the browser flow finished, then
// reloads the registry and refreshes usage. The machine returns to Idle
// whether the flow succeeded or failed.
func (c *LoginController) Complete(ctx context.Context) (models.Account, error) {
	c.mu.Lock()
	if c.session.State != LoginPending {
		c.mu.Unlock()
		return models.Account{}, ErrNoLoginPending
	}
	c.mu.Unlock()

	account, err := c.gw.CompleteLogin(ctx)
	if err != nil {
		c.fail(err)
		return models.Account{}, err
	}

	c.reset()
	c.onComplete(ctx)
	return account, nil
}

// Cancel abandons a requesting or pending login. The gateway is notified so
// server-side login state is released; a notification failure is logged, not
// surfaced, because the local machine resets regardless.
func (c *LoginController) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.session.State == LoginIdle {
		c.mu.Unlock()
		return ErrNoLoginPending
	}
	c.mu.Unlock()

	if err := c.gw.CancelLogin(ctx); err != nil {
		logger.Warn("failed to cancel login at gateway", "error", err)
	}

	c.reset()
	return nil
}

// fail records the error and returns the machine to Idle.
func (c *LoginController) fail(err error) {
	c.mu.Lock()
	c.session = LoginSession{State: LoginIdle, LastError: err.Error()}
	c.mu.Unlock()
	c.onChange()
}

// reset returns the machine to a clean Idle.
func (c *LoginController) reset() {
	c.mu.Lock()
	c.session = LoginSession{State: LoginIdle}
	c.mu.Unlock()
	c.onChange()
}
