package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/j-veylop/codex-switch-tui/internal/models"
)

func newTestEngine(t *testing.T, gw *fakeGateway) *Engine {
	t.Helper()
	e := New(gw, DefaultConfig(), nil, WithNotifier(func(string, string) error { return nil }))
	t.Cleanup(e.Close)
	return e
}

func TestSwitchAccount_PreservesUsage(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	gw.refreshAllFn = func(context.Context) ([]models.UsageSnapshot, error) {
		return []models.UsageSnapshot{{AccountID: "b", PrimaryUsedPercent: floatPtr(70)}}, nil
	}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	_ = e.registry.ReloadFresh(ctx)
	e.RefreshAllUsage(ctx)

	if err := e.SwitchAccount(ctx, "b"); err != nil {
		t.Fatalf("SwitchAccount failed: %v", err)
	}

	if gw.callCount("SwitchAccount") != 1 {
		t.Errorf("Expected one gateway switch, got %d", gw.callCount("SwitchAccount"))
	}
	entry, ok := e.registry.Entry("b")
	if !ok {
		t.Fatal("Expected account b present")
	}
	if entry.Usage == nil || *entry.Usage.PrimaryUsedPercent != 70 {
		t.Error("Expected usage preserved across switch")
	}
}

func TestSwitchAccount_GatewayFailureLeavesRegistry(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	e := newTestEngine(t, gw)
	ctx := context.Background()
	_ = e.registry.ReloadFresh(ctx)

	switchErr := errors.New("auth.json write failed")
	gw.switchFn = func(context.Context, string) error { return switchErr }

	listCalls := gw.callCount("ListAccounts")
	if err := e.SwitchAccount(ctx, "b"); !errors.Is(err, switchErr) {
		t.Fatalf("Expected switch error, got %v", err)
	}
	if gw.callCount("ListAccounts") != listCalls {
		t.Error("Expected no reload after failed switch")
	}
	if entry, _ := e.registry.Entry("a"); !entry.Account.IsActive {
		t.Error("Expected active account unchanged")
	}
}

func TestRenameAccount(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	e := newTestEngine(t, gw)
	ctx := context.Background()
	_ = e.registry.ReloadFresh(ctx)

	var gotName string
	gw.renameFn = func(_ context.Context, _ string, name string) error {
		gotName = name
		return nil
	}

	if err := e.RenameAccount(ctx, "a", "  new name  "); err != nil {
		t.Fatalf("RenameAccount failed: %v", err)
	}
	if gotName != "new name" {
		t.Errorf("Expected trimmed name, got %q", gotName)
	}
}

func TestRenameAccount_EmptyName(t *testing.T) {
	gw := newFakeGateway()
	e := newTestEngine(t, gw)

	if err := e.RenameAccount(context.Background(), "a", "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("Expected ErrEmptyName, got %v", err)
	}
	if gw.callCount("RenameAccount") != 0 {
		t.Error("Expected no gateway call for empty name")
	}
}

func TestDeleteAccount_FreshReload(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	gw.refreshAllFn = func(context.Context) ([]models.UsageSnapshot, error) {
		return []models.UsageSnapshot{{AccountID: "a", PrimaryUsedPercent: floatPtr(50)}}, nil
	}
	e := newTestEngine(t, gw)
	ctx := context.Background()
	_ = e.registry.ReloadFresh(ctx)
	e.RefreshAllUsage(ctx)

	gw.deleteFn = func(context.Context, string) error {
		gw.listAccountsFn = accountList("a")
		return nil
	}

	if err := e.DeleteAccount(ctx, "b"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	entries := e.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry after delete, got %d", len(entries))
	}
	// Fresh reload drops usage until the next refresh round
	if entries[0].Usage != nil {
		t.Error("Expected usage dropped by fresh reload")
	}
}

func TestImportFromFile(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	e := newTestEngine(t, gw)
	ctx := context.Background()
	_ = e.registry.ReloadFresh(ctx)

	gw.importFn = func(_ context.Context, path, name string) (models.Account, error) {
		gw.listAccountsFn = accountList("a", "imported")
		return models.Account{ID: "imported", Name: name}, nil
	}

	refreshCalls := gw.callCount("RefreshAllUsage")
	if err := e.ImportFromFile(ctx, "/tmp/auth.json", "work"); err != nil {
		t.Fatalf("ImportFromFile failed: %v", err)
	}

	if len(e.Entries()) != 2 {
		t.Errorf("Expected 2 entries after import, got %d", len(e.Entries()))
	}
	if gw.callCount("RefreshAllUsage") != refreshCalls+1 {
		t.Error("Expected a usage refresh after import")
	}
}

func TestImportFromFile_Validation(t *testing.T) {
	gw := newFakeGateway()
	e := newTestEngine(t, gw)
	ctx := context.Background()

	if err := e.ImportFromFile(ctx, "", "work"); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Expected ErrEmptyPath, got %v", err)
	}
	if err := e.ImportFromFile(ctx, "/tmp/auth.json", "  "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if gw.callCount("ImportAccount") != 0 {
		t.Error("Expected no gateway call for invalid input")
	}
}
