// Package engine keeps the in-process account registry consistent with the
// account store and the usage service under concurrent refreshes, mutations
// and the OAuth login flow.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/db"
	"github.com/j-veylop/codex-switch-tui/internal/gateway"
	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/models"
	"github.com/j-veylop/codex-switch-tui/internal/store"
)

type (
	// RegistryChangedEvent is emitted whenever entries, loading flags or the
	// registry error state change.
	RegistryChangedEvent struct {
		Err     error
		Entries []models.RegistryEntry
	}

	// ProcessStatusEvent carries a fresh external-process reading.
	ProcessStatusEvent struct {
		Status models.ProcessStatus
	}

	// LoginChangedEvent is emitted on every login state transition.
	LoginChangedEvent struct {
		Session LoginSession
	}

	// ErrorEvent is emitted when a background operation fails.
	ErrorEvent struct {
		Err error
		Op  string
	}
)

// Event is the interface implemented by all engine events.
type Event interface {
	isEngineEvent()
}

func (RegistryChangedEvent) isEngineEvent() {}
func (ProcessStatusEvent) isEngineEvent()   {}
func (LoginChangedEvent) isEngineEvent()    {}
func (ErrorEvent) isEngineEvent()           {}

// Config holds engine tunables.
type Config struct {
	ProcessPollInterval time.Duration
	UsagePollInterval   time.Duration
}

// DefaultConfig returns the default polling intervals.
func DefaultConfig() Config {
	return Config{
		ProcessPollInterval: 3 * time.Second,
		UsagePollInterval:   60 * time.Second,
	}
}

// Engine composes the registry, the polling scheduler, the login controller
// and the mutation operations over one gateway. All components share the
// single registry instance.
type Engine struct {
	gw        gateway.Gateway
	registry  *Registry
	scheduler *Scheduler
	login     *LoginController
	history   *db.DB
	notify    notifyFunc

	storeEvents <-chan store.Event
	done        chan struct{}

	mu            sync.RWMutex
	processStatus models.ProcessStatus
	subscribers   []chan Event
	closeOnce     sync.Once
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithHistory records every usage round into the given database.
func WithHistory(database *db.DB) Option {
	return func(e *Engine) { e.history = database }
}

// WithNotifier replaces the desktop notifier. Used by tests.
func WithNotifier(fn notifyFunc) Option {
	return func(e *Engine) { e.notify = fn }
}

// WithStoreEvents reloads the registry (preserving usage) whenever the
// accounts file changes on disk outside this process.
func WithStoreEvents(ch <-chan store.Event) Option {
	return func(e *Engine) { e.storeEvents = ch }
}

// New creates an engine over the gateway. openURL is handed authorization
// URLs during login; nil disables browser opening. The polling loops do not
// run until Start.
func New(gw gateway.Gateway, cfg Config, openURL func(string), opts ...Option) *Engine {
	if cfg.ProcessPollInterval <= 0 || cfg.UsagePollInterval <= 0 {
		cfg = DefaultConfig()
	}

	e := &Engine{
		gw:     gw,
		notify: beeepNotify,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.registry = NewRegistry(gw, e.broadcastRegistry)
	e.login = NewLoginController(gw, openURL,
		func(ctx context.Context) {
			if err := e.registry.ReloadFresh(ctx); err != nil {
				logger.Error("failed to reload after login", "error", err)
			}
			e.RefreshAllUsage(ctx)
		},
		e.broadcastLogin,
	)
	e.scheduler = NewScheduler(cfg.ProcessPollInterval, cfg.UsagePollInterval,
		e.pollProcessStatus,
		func(ctx context.Context) {
			// Failures already land in snapshot or registry error state;
			// the loop itself must survive any single round.
			e.RefreshAllUsage(ctx)
		},
	)

	return e
}

// Start loads the registry and launches the polling loops.
func (e *Engine) Start(ctx context.Context) error {
	err := e.registry.ReloadFresh(ctx)
	e.scheduler.Start()
	if e.storeEvents != nil {
		go e.watchStore()
	}
	return err
}

// watchStore reacts to external accounts-file edits.
func (e *Engine) watchStore() {
	for {
		select {
		case event, ok := <-e.storeEvents:
			if !ok {
				return
			}
			if event.Err != nil {
				logger.Warn("accounts file watcher error", "error", event.Err)
				continue
			}
			if err := e.registry.ReloadPreservingUsage(context.Background()); err != nil {
				logger.Error("failed to reload after external change", "error", err)
			}
		case <-e.done:
			return
		}
	}
}

// Close stops the polling loops. In-flight gateway calls are not aborted;
// their late results are safely ignorable.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.scheduler.Stop()
		close(e.done)

		e.mu.Lock()
		for _, sub := range e.subscribers {
			close(sub)
		}
		e.subscribers = nil
		e.mu.Unlock()
	})
}

// Registry returns the shared account registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Login returns the login controller.
func (e *Engine) Login() *LoginController {
	return e.login
}

// Entries returns the current registry contents.
func (e *Engine) Entries() []models.RegistryEntry {
	return e.registry.Entries()
}

// ProcessStatus returns the latest external-process reading.
func (e *Engine) ProcessStatus() models.ProcessStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.processStatus
}

// RefreshAllUsage runs one batched usage round: overlay onto the registry,
// threshold notifications, history recording. Errors are reported through
// events; the caller never has to handle them.
func (e *Engine) RefreshAllUsage(ctx context.Context) {
	snapshots, err := e.registry.RefreshAll(ctx)
	if err != nil {
		e.broadcast(ErrorEvent{Op: "refresh usage", Err: err})
		return
	}

	e.checkNotifications(ctx, snapshots)
	e.recordHistory(snapshots)
}

// RefreshUsageFor fetches usage for one account and returns the outcome to
// the caller. The registry flag and snapshot handling follow the overlay
// rules; see Registry.RefreshOne.
func (e *Engine) RefreshUsageFor(ctx context.Context, id string) (*models.UsageSnapshot, error) {
	return e.registry.RefreshOne(ctx, id)
}

// NotificationSettings returns threshold settings for an account.
func (e *Engine) NotificationSettings(ctx context.Context, id string) (models.NotificationSettings, error) {
	return e.gw.NotificationSettings(ctx, id)
}

// UpdateNotificationSettings validates and stores new threshold settings.
func (e *Engine) UpdateNotificationSettings(ctx context.Context, id string, settings models.NotificationSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return e.gw.UpdateNotificationSettings(ctx, id, settings)
}

// ResetNotificationHistory clears the cooldown stamps for an account.
func (e *Engine) ResetNotificationHistory(ctx context.Context, id string) error {
	return e.gw.ResetNotificationHistory(ctx, id)
}

// pollProcessStatus is the process loop body.
func (e *Engine) pollProcessStatus(ctx context.Context) {
	status, err := e.gw.CheckProcesses(ctx)
	if err != nil {
		logger.Error("failed to check processes", "error", err)
		return
	}

	e.mu.Lock()
	e.processStatus = status
	e.mu.Unlock()

	e.broadcast(ProcessStatusEvent{Status: status})
}

// checkNotifications evaluates thresholds for every snapshot of the round
// and persists changed cooldown stamps through the gateway.
func (e *Engine) checkNotifications(ctx context.Context, snapshots []models.UsageSnapshot) {
	entries := e.registry.Entries()
	names := make(map[string]string, len(entries))
	for i := range entries {
		names[entries[i].Account.ID] = entries[i].Account.Name
	}

	now := time.Now()
	for i := range snapshots {
		snap := &snapshots[i]
		name, ok := names[snap.AccountID]
		if !ok {
			continue
		}

		settings, err := e.gw.NotificationSettings(ctx, snap.AccountID)
		if err != nil {
			logger.Debug("failed to load notification settings", "account", snap.AccountID, "error", err)
			continue
		}

		last, err := e.gw.LastNotifications(ctx, snap.AccountID)
		if err != nil {
			logger.Debug("failed to load notification history", "account", snap.AccountID, "error", err)
			continue
		}

		if changed := checkThresholds(e.notify, name, snap, settings, &last, now); changed {
			if err := e.gw.UpdateLastNotifications(ctx, snap.AccountID, last); err != nil {
				logger.Error("failed to update notification history", "account", snap.AccountID, "error", err)
			}
		}
	}
}

// recordHistory appends the round's successful readings to the database.
func (e *Engine) recordHistory(snapshots []models.UsageSnapshot) {
	if e.history == nil {
		return
	}

	entries := e.registry.Entries()
	names := make(map[string]string, len(entries))
	for i := range entries {
		names[entries[i].Account.ID] = entries[i].Account.Name
	}

	for i := range snapshots {
		snap := &snapshots[i]
		if snap.Failed() || snap.PrimaryUsedPercent == nil {
			continue
		}

		point := models.UsageHistoryPoint{
			Timestamp:      snap.FetchedAt,
			AccountID:      snap.AccountID,
			AccountName:    names[snap.AccountID],
			PrimaryPercent: *snap.PrimaryUsedPercent,
		}
		if snap.SecondaryUsedPercent != nil {
			point.SecondaryPercent = *snap.SecondaryUsedPercent
		}

		if err := e.history.InsertUsagePoint(point); err != nil {
			logger.Error("failed to record usage history", "account", snap.AccountID, "error", err)
		}
	}
}

// Subscribe creates a channel for receiving engine events.
func (e *Engine) Subscribe() chan Event {
	ch := make(chan Event, 50)

	e.mu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel.
func (e *Engine) Unsubscribe(ch chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subscribers {
		if sub == ch {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// broadcast sends an event to all subscribers, never blocking.
func (e *Engine) broadcast(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, sub := range e.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

func (e *Engine) broadcastRegistry() {
	e.broadcast(RegistryChangedEvent{
		Entries: e.registry.Entries(),
		Err:     e.registry.Err(),
	})
}

func (e *Engine) broadcastLogin() {
	e.broadcast(LoginChangedEvent{Session: e.login.Session()})
}
