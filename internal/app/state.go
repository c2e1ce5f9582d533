// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/engine"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// NotificationType defines the type of toast notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing toast message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is the shared application state the tabs render from. It mirrors
// the engine's registry, process status and login session, refreshed by
// engine events.
type State struct {
	mu sync.RWMutex

	entries       []models.RegistryEntry
	registryErr   error
	processStatus models.ProcessStatus
	login         engine.LoginSession
	selectedIndex int

	initialLoading bool
	lastUpdated    time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state awaiting the first registry load.
func NewState() *State {
	return &State{
		entries:        make([]models.RegistryEntry, 0),
		notifications:  make([]Notification, 0),
		initialLoading: true,
	}
}

// SetEntries replaces the rendered account list.
func (s *State) SetEntries(entries []models.RegistryEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = entries
	s.registryErr = err
	s.initialLoading = false
	s.lastUpdated = time.Now()

	if s.selectedIndex >= len(entries) {
		s.selectedIndex = max(0, len(entries)-1)
	}
}

// Entries returns a copy of the account entries.
func (s *State) Entries() []models.RegistryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.RegistryEntry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// EntryCount returns the number of accounts.
func (s *State) EntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RegistryErr returns the error from the last failed registry load.
func (s *State) RegistryErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registryErr
}

// ActiveEntry returns the active account entry, if any.
func (s *State) ActiveEntry() (models.RegistryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		if s.entries[i].Account.IsActive {
			return s.entries[i], true
		}
	}
	return models.RegistryEntry{}, false
}

// SelectedEntry returns the entry under the cursor, if any.
func (s *State) SelectedEntry() (models.RegistryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selectedIndex < 0 || s.selectedIndex >= len(s.entries) {
		return models.RegistryEntry{}, false
	}
	return s.entries[s.selectedIndex], true
}

// SelectedIndex returns the cursor position.
func (s *State) SelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedIndex
}

// SetSelectedIndex moves the cursor, clamped to the entry range.
func (s *State) SetSelectedIndex(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.entries) && len(s.entries) > 0 {
		idx = len(s.entries) - 1
	}
	s.selectedIndex = idx
}

// SetProcessStatus stores the latest process reading.
func (s *State) SetProcessStatus(status models.ProcessStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processStatus = status
}

// ProcessStatus returns the latest process reading.
func (s *State) ProcessStatus() models.ProcessStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processStatus
}

// SetLogin stores the login session snapshot.
func (s *State) SetLogin(session engine.LoginSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = session
}

// Login returns the login session snapshot.
func (s *State) Login() engine.LoginSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.login
}

// IsInitialLoading returns true until the first registry load lands.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialLoading
}

// LastUpdated returns the last time the entries changed.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// AddNotification adds a new toast and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a toast by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired toasts.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// Notifications returns a copy of all active toasts.
func (s *State) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets or updates the persistent loading toast.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading toast.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}
