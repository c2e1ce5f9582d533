package app

import (
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/engine"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

func testEntries(ids ...string) []models.RegistryEntry {
	entries := make([]models.RegistryEntry, 0, len(ids))
	for i, id := range ids {
		entries = append(entries, models.RegistryEntry{
			Account: models.Account{
				ID:       id,
				Name:     "account-" + id,
				IsActive: i == 0,
			},
		})
	}
	return entries
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.EntryCount() != 0 {
		t.Error("entries should be empty")
	}
	if !s.IsInitialLoading() {
		t.Error("initial loading should be true")
	}
}

func TestState_SetEntries(t *testing.T) {
	s := NewState()

	s.SetEntries(testEntries("a", "b"), nil)
	if s.EntryCount() != 2 {
		t.Errorf("EntryCount = %d, want 2", s.EntryCount())
	}
	if s.IsInitialLoading() {
		t.Error("initial loading should clear after first load")
	}
	if s.RegistryErr() != nil {
		t.Errorf("RegistryErr = %v", s.RegistryErr())
	}
	if s.LastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}
}

func TestState_SetEntries_Error(t *testing.T) {
	s := NewState()
	loadErr := errors.New("store unreadable")

	s.SetEntries(testEntries("a"), loadErr)
	if !errors.Is(s.RegistryErr(), loadErr) {
		t.Errorf("RegistryErr = %v", s.RegistryErr())
	}

	s.SetEntries(testEntries("a"), nil)
	if s.RegistryErr() != nil {
		t.Error("error should clear on successful load")
	}
}

func TestState_Entries_Copy(t *testing.T) {
	s := NewState()
	s.SetEntries(testEntries("a", "b"), nil)

	got := s.Entries()
	got[0].Account.Name = "mutated"

	if s.Entries()[0].Account.Name == "mutated" {
		t.Error("Entries should return a copy")
	}
}

func TestState_ActiveEntry(t *testing.T) {
	s := NewState()

	if _, ok := s.ActiveEntry(); ok {
		t.Error("empty state should have no active entry")
	}

	s.SetEntries(testEntries("a", "b"), nil)
	active, ok := s.ActiveEntry()
	if !ok {
		t.Fatal("expected an active entry")
	}
	if active.Account.ID != "a" {
		t.Errorf("active = %s, want a", active.Account.ID)
	}
}

func TestState_Selection(t *testing.T) {
	s := NewState()
	s.SetEntries(testEntries("a", "b", "c"), nil)

	s.SetSelectedIndex(2)
	if s.SelectedIndex() != 2 {
		t.Errorf("SelectedIndex = %d, want 2", s.SelectedIndex())
	}

	entry, ok := s.SelectedEntry()
	if !ok || entry.Account.ID != "c" {
		t.Errorf("SelectedEntry = %v ok=%v", entry.Account.ID, ok)
	}

	// Out of range clamps.
	s.SetSelectedIndex(10)
	if s.SelectedIndex() != 2 {
		t.Errorf("SelectedIndex should clamp, got %d", s.SelectedIndex())
	}

	// Shrinking the list clamps the selection.
	s.SetEntries(testEntries("a"), nil)
	if s.SelectedIndex() != 0 {
		t.Errorf("SelectedIndex should clamp after reload, got %d", s.SelectedIndex())
	}
}

func TestState_ProcessStatus(t *testing.T) {
	s := NewState()
	s.SetProcessStatus(models.ProcessStatus{Count: 3, CanSwitch: false})

	status := s.ProcessStatus()
	if status.Count != 3 || status.CanSwitch {
		t.Errorf("ProcessStatus = %+v", status)
	}
}

func TestState_Login(t *testing.T) {
	s := NewState()
	s.SetLogin(engine.LoginSession{State: engine.LoginPending, AccountName: "new"})

	login := s.Login()
	if login.State != engine.LoginPending || login.AccountName != "new" {
		t.Errorf("Login = %+v", login)
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationSuccess, "done", time.Minute)
	if id == "" {
		t.Fatal("AddNotification returned empty id")
	}
	if len(s.Notifications()) != 1 {
		t.Fatalf("notifications = %d, want 1", len(s.Notifications()))
	}

	s.RemoveNotification(id)
	if len(s.Notifications()) != 0 {
		t.Error("notification should be removed")
	}
}

func TestState_Notifications_Cap(t *testing.T) {
	s := NewState()
	for i := 0; i < 15; i++ {
		s.AddNotification(NotificationInfo, "msg", time.Minute)
	}
	if len(s.Notifications()) > 10 {
		t.Errorf("notifications = %d, want at most 10", len(s.Notifications()))
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()
	s.AddNotification(NotificationInfo, "short", time.Nanosecond)
	s.AddNotification(NotificationInfo, "long", time.Hour)

	time.Sleep(2 * time.Millisecond)
	s.ClearExpiredNotifications()

	notifs := s.Notifications()
	if len(notifs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "long" {
		t.Errorf("surviving notification = %q", notifs[0].Message)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading...")
	notifs := s.Notifications()
	if len(notifs) != 1 || notifs[0].Type != NotificationLoading {
		t.Fatalf("expected one loading notification, got %+v", notifs)
	}

	// Updating replaces rather than stacks.
	s.SetLoadingNotification("Still loading...")
	if len(s.Notifications()) != 1 {
		t.Error("loading notification should replace, not stack")
	}

	s.ClearLoadingNotification()
	if len(s.Notifications()) != 0 {
		t.Error("loading notification should clear")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
