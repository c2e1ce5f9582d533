package history

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switch-tui/internal/app"
	"github.com/j-veylop/codex-switch-tui/internal/db"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState(), nil)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestLoadHistory_NoDatabase(t *testing.T) {
	m := New(app.NewState(), nil)
	msg := m.loadHistoryCmd()()
	if _, ok := msg.(historyErrorMsg); !ok {
		t.Fatalf("expected historyErrorMsg, got %T", msg)
	}
}

func TestLoadHistory_NoAccounts(t *testing.T) {
	m := New(app.NewState(), newTestDB(t))
	msg := m.loadHistoryCmd()()
	errMsg, ok := msg.(historyErrorMsg)
	if !ok {
		t.Fatalf("expected historyErrorMsg, got %T", msg)
	}
	if errMsg.err != "No accounts configured" {
		t.Errorf("err = %q", errMsg.err)
	}
}

func TestLoadHistory_WithData(t *testing.T) {
	database := newTestDB(t)

	err := database.InsertUsagePoint(models.UsageHistoryPoint{
		AccountID:        "acc-1",
		AccountName:      "work",
		PrimaryPercent:   40,
		SecondaryPercent: 10,
		Timestamp:        time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("InsertUsagePoint: %v", err)
	}

	state := app.NewState()
	state.SetEntries([]models.RegistryEntry{
		{Account: models.Account{ID: "acc-1", Name: "work", IsActive: true}},
	}, nil)

	m := New(state, database)
	msg := m.loadHistoryCmd()()

	loaded, ok := msg.(historyLoadedMsg)
	if !ok {
		t.Fatalf("expected historyLoadedMsg, got %T", msg)
	}
	if loaded.accountID != "acc-1" || loaded.accountName != "work" {
		t.Errorf("loaded account = %s/%s", loaded.accountID, loaded.accountName)
	}
	if len(loaded.points) != 1 {
		t.Fatalf("points = %d, want 1", len(loaded.points))
	}
	if loaded.points[0].PrimaryPercent != 40 {
		t.Errorf("PrimaryPercent = %v", loaded.points[0].PrimaryPercent)
	}
}

func TestModel_ViewAfterLoad(t *testing.T) {
	state := app.NewState()
	m := New(state, nil)
	m.SetSize(100, 40)

	m.Update(historyLoadedMsg{
		accountID:   "acc-1",
		accountName: "work",
		points: []models.UsageHistoryPoint{
			{PrimaryPercent: 20, SecondaryPercent: 5, Timestamp: time.Now().Add(-2 * time.Hour)},
			{PrimaryPercent: 45, SecondaryPercent: 9, Timestamp: time.Now()},
		},
	})

	view := m.View()
	if view == "" {
		t.Error("View after load is empty")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(80, 30)
	m.Update(historyLoadedMsg{accountID: "acc-1", accountName: "work"})

	if m.View() == "" {
		t.Error("View returned empty string")
	}
}

func TestModel_TimeRangeCycle(t *testing.T) {
	if rangeDay.Next() != rangeWeek {
		t.Error("day should cycle to week")
	}
	if rangeWeek.Next() != rangeMonth {
		t.Error("week should cycle to month")
	}
	if rangeMonth.Next() != rangeDay {
		t.Error("month should cycle back to day")
	}
}

func TestModel_AccountCycling(t *testing.T) {
	state := app.NewState()
	state.SetEntries([]models.RegistryEntry{
		{Account: models.Account{ID: "a", Name: "first"}},
		{Account: models.Account{ID: "b", Name: "second"}},
	}, nil)

	m := New(state, newTestDB(t))

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRight})
	if m.accountIdx != 1 {
		t.Errorf("accountIdx = %d, want 1", m.accountIdx)
	}

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRight})
	if m.accountIdx != 0 {
		t.Errorf("accountIdx should wrap to 0, got %d", m.accountIdx)
	}

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyLeft})
	if m.accountIdx != 1 {
		t.Errorf("accountIdx should wrap back to 1, got %d", m.accountIdx)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
