package db

import (
	"testing"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/models"
)

func insertPoint(t *testing.T, db *DB, accountID, name string, ts time.Time, primary float64) {
	t.Helper()
	err := db.InsertUsagePoint(models.UsageHistoryPoint{
		Timestamp:      ts,
		AccountID:      accountID,
		AccountName:    name,
		PrimaryPercent: primary,
	})
	if err != nil {
		t.Fatalf("Failed to insert usage point: %v", err)
	}
}

func TestInsertUsagePoint(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	err := db.InsertUsagePoint(models.UsageHistoryPoint{
		Timestamp:        time.Now(),
		AccountID:        "acc-1",
		AccountName:      "work",
		PrimaryPercent:   42.5,
		SecondaryPercent: 10,
	})
	if err != nil {
		t.Fatalf("InsertUsagePoint failed: %v", err)
	}

	points, err := db.GetRecentUsage(10)
	if err != nil {
		t.Fatalf("GetRecentUsage failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	if points[0].AccountID != "acc-1" {
		t.Errorf("Expected account acc-1, got %s", points[0].AccountID)
	}
	if points[0].PrimaryPercent != 42.5 {
		t.Errorf("Expected primary 42.5, got %v", points[0].PrimaryPercent)
	}
}

func TestInsertUsagePoint_ZeroTimestamp(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	err := db.InsertUsagePoint(models.UsageHistoryPoint{
		AccountID:      "acc-1",
		AccountName:    "work",
		PrimaryPercent: 5,
	})
	if err != nil {
		t.Fatalf("InsertUsagePoint failed: %v", err)
	}

	points, err := db.GetRecentUsage(1)
	if err != nil {
		t.Fatalf("GetRecentUsage failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	if points[0].Timestamp.IsZero() {
		t.Error("Expected insert to fill in timestamp")
	}
}

func TestGetUsageHistory_FiltersByAccountAndTime(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC()
	insertPoint(t, db, "acc-1", "work", now.Add(-2*time.Hour), 10)
	insertPoint(t, db, "acc-1", "work", now.Add(-30*time.Minute), 20)
	insertPoint(t, db, "acc-1", "work", now.Add(-5*time.Minute), 30)
	insertPoint(t, db, "acc-2", "personal", now.Add(-5*time.Minute), 99)

	points, err := db.GetUsageHistory("acc-1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetUsageHistory failed: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	// Oldest first
	if points[0].PrimaryPercent != 20 || points[1].PrimaryPercent != 30 {
		t.Errorf("Expected points ordered oldest first, got %v then %v",
			points[0].PrimaryPercent, points[1].PrimaryPercent)
	}
	for _, p := range points {
		if p.AccountID != "acc-1" {
			t.Errorf("Expected only acc-1 points, got %s", p.AccountID)
		}
	}
}

func TestGetRecentUsage_LimitAndOrder(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		insertPoint(t, db, "acc-1", "work", now.Add(time.Duration(i)*time.Minute), float64(i))
	}

	points, err := db.GetRecentUsage(3)
	if err != nil {
		t.Fatalf("GetRecentUsage failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(points))
	}
	// Newest first
	if points[0].PrimaryPercent != 4 {
		t.Errorf("Expected newest point first, got %v", points[0].PrimaryPercent)
	}
}

func TestTrackedAccounts(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC()
	insertPoint(t, db, "acc-1", "old-name", now.Add(-time.Hour), 10)
	insertPoint(t, db, "acc-1", "new-name", now, 20)
	insertPoint(t, db, "acc-2", "personal", now, 30)

	accounts, err := db.TrackedAccounts()
	if err != nil {
		t.Fatalf("TrackedAccounts failed: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}
	if accounts["acc-1"] != "new-name" {
		t.Errorf("Expected latest name new-name, got %s", accounts["acc-1"])
	}
	if accounts["acc-2"] != "personal" {
		t.Errorf("Expected personal, got %s", accounts["acc-2"])
	}
}

func TestPruneOlderThan(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC()
	insertPoint(t, db, "acc-1", "work", now.Add(-48*time.Hour), 10)
	insertPoint(t, db, "acc-1", "work", now.Add(-36*time.Hour), 15)
	insertPoint(t, db, "acc-1", "work", now, 20)

	pruned, err := db.PruneOlderThan(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if pruned != 2 {
		t.Errorf("Expected 2 pruned rows, got %d", pruned)
	}

	points, err := db.GetRecentUsage(10)
	if err != nil {
		t.Fatalf("GetRecentUsage failed: %v", err)
	}
	if len(points) != 1 {
		t.Errorf("Expected 1 remaining point, got %d", len(points))
	}
}
