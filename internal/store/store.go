// Package store persists accounts with file watching and atomic writes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// schemaVersion is the accounts.json schema version.
const schemaVersion = 2

// ErrNotFound is returned when an account id does not exist.
var ErrNotFound = errors.New("account not found")

// File is the JSON structure of accounts.json.
type File struct {
	ActiveAccountID string                 `json:"activeAccountId,omitempty"`
	Accounts        []models.StoredAccount `json:"accounts"`
	Version         int                    `json:"version"`
}

// Event is emitted when the file changes on disk outside this process.
type Event struct {
	Err error
}

// Store manages accounts.json with change notifications.
type Store struct {
	mu            sync.RWMutex
	accounts      []models.StoredAccount
	activeID      string
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// Open loads accounts.json (creating an empty store if absent) and starts
// watching the file for external edits.
func Open(filePath string) (*Store, error) {
	s := &Store{
		accounts:  make([]models.StoredAccount, 0),
		filePath:  filePath,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			if err := s.save(); err != nil {
				return nil, fmt.Errorf("failed to create accounts file: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to load accounts: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	return s, nil
}

// Events returns the channel signalling external file changes.
func (s *Store) Events() <-chan Event {
	return s.eventChan
}

// List returns all accounts stripped to their client-visible view.
func (s *Store) List() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, len(s.accounts))
	for i := range s.accounts {
		out[i] = s.accounts[i].Info(s.activeID)
	}
	return out
}

// Get returns the stored account with the given id, credentials included.
func (s *Store) Get(id string) (models.StoredAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return s.accounts[i], nil
		}
	}
	return models.StoredAccount{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// All returns a copy of every stored account.
func (s *Store) All() []models.StoredAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StoredAccount, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Active returns the active account, or ErrNotFound when none is set.
func (s *Store) Active() (models.StoredAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return models.StoredAccount{}, ErrNotFound
	}
	for i := range s.accounts {
		if s.accounts[i].ID == s.activeID {
			return s.accounts[i], nil
		}
	}
	return models.StoredAccount{}, ErrNotFound
}

// ActiveID returns the id of the active account, empty when none.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Add appends a new account. Names must be unique; the first account added
// becomes active.
func (s *Store) Add(account models.StoredAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if s.accounts[i].Name == account.Name {
			return fmt.Errorf("an account with name %q already exists", account.Name)
		}
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	s.accounts = append(s.accounts, account)
	if len(s.accounts) == 1 {
		s.activeID = account.ID
	}

	if err := s.saveLocked(); err != nil {
		s.accounts = s.accounts[:len(s.accounts)-1]
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

// Remove deletes an account by id. Removing the active account promotes the
// first remaining account, if any.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.accounts = append(s.accounts[:idx], s.accounts[idx+1:]...)

	if s.activeID == id {
		s.activeID = ""
		if len(s.accounts) > 0 {
			s.activeID = s.accounts[0].ID
		}
	}

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

// Rename changes an account's display name. Names must stay unique.
func (s *Store) Rename(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if s.accounts[i].ID != id && s.accounts[i].Name == name {
			return fmt.Errorf("an account with name %q already exists", name)
		}
	}

	return s.updateLocked(id, func(a *models.StoredAccount) {
		a.Name = name
	})
}

// SetActive marks an existing account as active.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.activeID = id
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

// Touch updates an account's last-used timestamp.
func (s *Store) Touch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	return s.updateLocked(id, func(a *models.StoredAccount) {
		a.LastUsedAt = &now
	})
}

// NotificationSettings returns the notification settings for an account.
func (s *Store) NotificationSettings(id string) (models.NotificationSettings, error) {
	acc, err := s.Get(id)
	if err != nil {
		return models.NotificationSettings{}, err
	}
	return acc.NotificationSettings, nil
}

// UpdateNotificationSettings replaces an account's notification settings.
func (s *Store) UpdateNotificationSettings(id string, settings models.NotificationSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(id, func(a *models.StoredAccount) {
		a.NotificationSettings = settings
	})
}

// ResetNotificationHistory clears the cooldown timestamps for an account.
func (s *Store) ResetNotificationHistory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(id, func(a *models.StoredAccount) {
		a.LastNotifications = models.LastNotifications{}
	})
}

// LastNotifications returns the cooldown timestamps for an account.
func (s *Store) LastNotifications(id string) (models.LastNotifications, error) {
	acc, err := s.Get(id)
	if err != nil {
		return models.LastNotifications{}, err
	}
	return acc.LastNotifications, nil
}

// UpdateLastNotifications stores fresh cooldown timestamps for an account.
func (s *Store) UpdateLastNotifications(id string, last models.LastNotifications) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(id, func(a *models.StoredAccount) {
		a.LastNotifications = last
	})
}

// updateLocked applies fn to the account with the given id and saves.
// Must hold the write lock.
func (s *Store) updateLocked(id string, fn func(*models.StoredAccount)) error {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			fn(&s.accounts[i])
			if err := s.saveLocked(); err != nil {
				return fmt.Errorf("failed to save accounts: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// load reads accounts.json from disk.
func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse accounts file: %w", err)
	}

	s.accounts = file.Accounts
	if s.accounts == nil {
		s.accounts = make([]models.StoredAccount, 0)
	}
	s.activeID = file.ActiveAccountID

	// Heal a dangling active id.
	if s.activeID != "" {
		found := false
		for i := range s.accounts {
			if s.accounts[i].ID == s.activeID {
				found = true
				break
			}
		}
		if !found {
			s.activeID = ""
			if len(s.accounts) > 0 {
				s.activeID = s.accounts[0].ID
			}
		}
	}
	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes accounts.json atomically with 0600 perms.
// Must hold the write lock.
func (s *Store) saveLocked() error {
	file := File{
		Version:         schemaVersion,
		Accounts:        s.accounts,
		ActiveAccountID: s.activeID,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// startWatcher starts the file system watcher.
func (s *Store) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory to catch file creation after deletion.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Store) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Err: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the store after an external edit.
func (s *Store) handleFileChange() {
	s.mu.Lock()
	err := s.load()
	s.mu.Unlock()

	if err != nil {
		s.sendEvent(Event{Err: err})
		return
	}
	s.sendEvent(Event{})
}

// sendEvent sends an event non-blocking.
func (s *Store) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Store) Close() error {
	close(s.stopChan)

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
