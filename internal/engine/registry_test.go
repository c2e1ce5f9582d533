package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/j-veylop/codex-switch-tui/internal/models"
)

func TestRegistry_ReloadFresh(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	r := NewRegistry(gw, nil)

	if err := r.ReloadFresh(context.Background()); err != nil {
		t.Fatalf("ReloadFresh failed: %v", err)
	}

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Account.IsActive {
		t.Error("Expected first account active")
	}
	if r.Err() != nil {
		t.Errorf("Expected nil registry error, got %v", r.Err())
	}
}

func TestRegistry_ReloadFailureKeepsEntries(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	r := NewRegistry(gw, nil)

	if err := r.ReloadFresh(context.Background()); err != nil {
		t.Fatalf("ReloadFresh failed: %v", err)
	}

	loadErr := errors.New("store unreadable")
	gw.listAccountsFn = func(context.Context) ([]models.Account, error) {
		return nil, loadErr
	}

	if err := r.ReloadFresh(context.Background()); !errors.Is(err, loadErr) {
		t.Fatalf("Expected store error, got %v", err)
	}
	if len(r.Entries()) != 1 {
		t.Errorf("Expected previous entries retained, got %d", len(r.Entries()))
	}
	if r.Err() == nil {
		t.Error("Expected registry error set after failed reload")
	}
}

func TestRegistry_ReloadClearsError(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = func(context.Context) ([]models.Account, error) {
		return nil, errors.New("boom")
	}
	r := NewRegistry(gw, nil)
	_ = r.ReloadFresh(context.Background())

	gw.listAccountsFn = accountList("a")
	if err := r.ReloadFresh(context.Background()); err != nil {
		t.Fatalf("ReloadFresh failed: %v", err)
	}
	if r.Err() != nil {
		t.Errorf("Expected error cleared after successful reload, got %v", r.Err())
	}
}

func TestRegistry_ReloadPreservingUsage(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	gw.refreshAllFn = func(context.Context) ([]models.UsageSnapshot, error) {
		return []models.UsageSnapshot{
			{AccountID: "a", PrimaryUsedPercent: floatPtr(40)},
			{AccountID: "b", PrimaryUsedPercent: floatPtr(60)},
		}, nil
	}
	r := NewRegistry(gw, nil)
	ctx := context.Background()

	if err := r.ReloadFresh(ctx); err != nil {
		t.Fatalf("ReloadFresh failed: %v", err)
	}
	if _, err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll failed: %v", err)
	}

	// b is gone, c is new
	gw.listAccountsFn = accountList("a", "c")
	if err := r.ReloadPreservingUsage(ctx); err != nil {
		t.Fatalf("ReloadPreservingUsage failed: %v", err)
	}

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	entry, ok := r.Entry("a")
	if !ok || entry.Usage == nil {
		t.Fatal("Expected usage preserved for surviving account a")
	}
	if *entry.Usage.PrimaryUsedPercent != 40 {
		t.Errorf("Expected preserved snapshot 40, got %v", *entry.Usage.PrimaryUsedPercent)
	}
	if entry, _ := r.Entry("c"); entry.Usage != nil {
		t.Error("Expected new account c to start with no usage")
	}
}

func TestRegistry_ReloadFreshDropsUsage(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	gw.refreshAllFn = func(context.Context) ([]models.UsageSnapshot, error) {
		return []models.UsageSnapshot{{AccountID: "a", PrimaryUsedPercent: floatPtr(40)}}, nil
	}
	r := NewRegistry(gw, nil)
	ctx := context.Background()

	_ = r.ReloadFresh(ctx)
	_, _ = r.RefreshAll(ctx)

	if err := r.ReloadFresh(ctx); err != nil {
		t.Fatalf("ReloadFresh failed: %v", err)
	}
	if entry, _ := r.Entry("a"); entry.Usage != nil {
		t.Error("Expected fresh reload to drop usage snapshots")
	}
}

func TestRegistry_RefreshAllOverlaysByID(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	// First round covers both
	gw.refreshAllFn = func(context.Context) ([]models.UsageSnapshot, error) {
		return []models.UsageSnapshot{
			{AccountID: "a", PrimaryUsedPercent: floatPtr(10)},
			{AccountID: "b", PrimaryUsedPercent: floatPtr(20)},
		}, nil
	}
	if _, err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll failed: %v", err)
	}

	// Second round omits b; b keeps its old snapshot
	gw.refreshAllFn = func(context.Context) ([]models.UsageSnapshot, error) {
		return []models.UsageSnapshot{
			{AccountID: "a", PrimaryUsedPercent: floatPtr(30)},
		}, nil
	}
	if _, err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll failed: %v", err)
	}

	entryA, _ := r.Entry("a")
	if *entryA.Usage.PrimaryUsedPercent != 30 {
		t.Errorf("Expected a updated to 30, got %v", *entryA.Usage.PrimaryUsedPercent)
	}
	entryB, _ := r.Entry("b")
	if entryB.Usage == nil || *entryB.Usage.PrimaryUsedPercent != 20 {
		t.Error("Expected b to keep previous snapshot when omitted from the round")
	}
}

func TestRegistry_RefreshAllError(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	gw.refreshAllFn = func(context.Context) ([]models.UsageSnapshot, error) {
		return nil, errors.New("usage endpoint down")
	}
	if _, err := r.RefreshAll(ctx); err == nil {
		t.Fatal("Expected error from failed refresh")
	}
	if entry, _ := r.Entry("a"); entry.Usage != nil {
		t.Error("Expected no snapshot applied after failed round")
	}
}

func TestRegistry_RefreshOne(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	gw.getUsageFn = func(_ context.Context, id string) (*models.UsageSnapshot, error) {
		return &models.UsageSnapshot{AccountID: id, PrimaryUsedPercent: floatPtr(55)}, nil
	}

	snap, err := r.RefreshOne(ctx, "a")
	if err != nil {
		t.Fatalf("RefreshOne failed: %v", err)
	}
	if snap == nil || *snap.PrimaryUsedPercent != 55 {
		t.Fatal("Expected returned snapshot")
	}

	entry, _ := r.Entry("a")
	if entry.Usage == nil || *entry.Usage.PrimaryUsedPercent != 55 {
		t.Error("Expected snapshot applied to entry a")
	}
	if entry.UsageLoading {
		t.Error("Expected loading flag cleared after completion")
	}
	if entryB, _ := r.Entry("b"); entryB.Usage != nil {
		t.Error("Expected entry b untouched")
	}
}

func TestRegistry_RefreshOneFailureKeepsSnapshot(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	gw.getUsageFn = func(_ context.Context, id string) (*models.UsageSnapshot, error) {
		return &models.UsageSnapshot{AccountID: id, PrimaryUsedPercent: floatPtr(10)}, nil
	}
	if _, err := r.RefreshOne(ctx, "a"); err != nil {
		t.Fatalf("RefreshOne failed: %v", err)
	}

	fetchErr := errors.New("timeout")
	gw.getUsageFn = func(context.Context, string) (*models.UsageSnapshot, error) {
		return nil, fetchErr
	}
	if _, err := r.RefreshOne(ctx, "a"); !errors.Is(err, fetchErr) {
		t.Fatalf("Expected fetch error, got %v", err)
	}

	entry, _ := r.Entry("a")
	if entry.Usage == nil || *entry.Usage.PrimaryUsedPercent != 10 {
		t.Error("Expected previous snapshot retained after failed refresh")
	}
	if entry.UsageLoading {
		t.Error("Expected loading flag cleared after failure")
	}
}

func TestRegistry_RefreshOneStaleResultDiscarded(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a", "b")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	// The account is removed while the fetch is in flight.
	gw.getUsageFn = func(_ context.Context, id string) (*models.UsageSnapshot, error) {
		gw.listAccountsFn = accountList("b")
		if err := r.ReloadFresh(ctx); err != nil {
			t.Fatalf("Mid-flight reload failed: %v", err)
		}
		return &models.UsageSnapshot{AccountID: id, PrimaryUsedPercent: floatPtr(99)}, nil
	}

	snap, err := r.RefreshOne(ctx, "a")
	if err != nil {
		t.Fatalf("RefreshOne failed: %v", err)
	}
	if snap != nil {
		t.Error("Expected stale result discarded for removed account")
	}
	if _, ok := r.Entry("a"); ok {
		t.Error("Expected account a gone from registry")
	}
}

func TestRegistry_LoadingFlagDuringFetch(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	gw.getUsageFn = func(_ context.Context, id string) (*models.UsageSnapshot, error) {
		entry, _ := r.Entry(id)
		if !entry.UsageLoading {
			t.Error("Expected loading flag set during fetch")
		}
		return &models.UsageSnapshot{AccountID: id}, nil
	}

	if _, err := r.RefreshOne(ctx, "a"); err != nil {
		t.Fatalf("RefreshOne failed: %v", err)
	}
}

func TestRegistry_LoadingFlagSurvivesReload(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	// A reload during an in-flight single refresh must rebuild the entry
	// with the loading flag still set.
	gw.getUsageFn = func(_ context.Context, id string) (*models.UsageSnapshot, error) {
		if err := r.ReloadPreservingUsage(ctx); err != nil {
			t.Fatalf("Mid-flight reload failed: %v", err)
		}
		entry, _ := r.Entry(id)
		if !entry.UsageLoading {
			t.Error("Expected loading flag to survive reload")
		}
		return &models.UsageSnapshot{AccountID: id}, nil
	}

	if _, err := r.RefreshOne(ctx, "a"); err != nil {
		t.Fatalf("RefreshOne failed: %v", err)
	}

	entry, _ := r.Entry("a")
	if entry.UsageLoading {
		t.Error("Expected loading flag cleared after completion")
	}
}

func TestRegistry_OverlappingRefreshesLastCompletionWins(t *testing.T) {
	gw := newFakeGateway()
	gw.listAccountsFn = accountList("a")
	r := NewRegistry(gw, nil)
	ctx := context.Background()
	_ = r.ReloadFresh(ctx)

	// The first-issued fetch is held until the second has fully applied, so
	// completion order is the reverse of issuance order.
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	gw.getUsageFn = func(_ context.Context, id string) (*models.UsageSnapshot, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstEntered)
			<-releaseFirst
			return &models.UsageSnapshot{AccountID: id, PrimaryUsedPercent: floatPtr(11)}, nil
		}
		return &models.UsageSnapshot{AccountID: id, PrimaryUsedPercent: floatPtr(22)}, nil
	}

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		if _, err := r.RefreshOne(ctx, "a"); err != nil {
			t.Errorf("First RefreshOne failed: %v", err)
		}
	}()
	<-firstEntered

	if _, err := r.RefreshOne(ctx, "a"); err != nil {
		t.Fatalf("Second RefreshOne failed: %v", err)
	}

	// The second call has applied its snapshot, but the first is still
	// outstanding, so the loading flag must remain set.
	entry, _ := r.Entry("a")
	if !entry.UsageLoading {
		t.Error("Expected loading flag set while a fetch is outstanding")
	}
	if entry.Usage == nil || *entry.Usage.PrimaryUsedPercent != 22 {
		t.Error("Expected the second call's snapshot applied first")
	}

	close(releaseFirst)
	<-firstDone

	entry, _ = r.Entry("a")
	if entry.UsageLoading {
		t.Error("Expected loading flag cleared after the last completion")
	}
	if entry.Usage == nil || *entry.Usage.PrimaryUsedPercent != 11 {
		t.Error("Expected the last completion's snapshot to win")
	}
}
