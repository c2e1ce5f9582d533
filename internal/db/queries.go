package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/models"
)

const timeFormat = "2006-01-02 15:04:05"

// InsertUsagePoint records one usage reading.
func (db *DB) InsertUsagePoint(point models.UsageHistoryPoint) error {
	query := `
		INSERT INTO usage_history (
			timestamp, account_id, account_name, primary_percent, secondary_percent
		) VALUES (?, ?, ?, ?, ?)
	`

	timestamp := point.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(timeFormat),
		point.AccountID,
		point.AccountName,
		point.PrimaryPercent,
		point.SecondaryPercent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage point: %w", err)
	}

	return nil
}

// GetUsageHistory returns readings for one account since the given time,
// oldest first.
func (db *DB) GetUsageHistory(accountID string, since time.Time) ([]models.UsageHistoryPoint, error) {
	query := `
		SELECT id, timestamp, account_id, account_name, primary_percent, secondary_percent
		FROM usage_history
		WHERE account_id = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`

	rows, err := db.QueryContext(context.Background(), query, accountID, since.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []models.UsageHistoryPoint
	for rows.Next() {
		var point models.UsageHistoryPoint
		err := rows.Scan(
			&point.ID,
			&point.Timestamp,
			&point.AccountID,
			&point.AccountName,
			&point.PrimaryPercent,
			&point.SecondaryPercent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage point: %w", err)
		}
		points = append(points, point)
	}

	return points, rows.Err()
}

// GetRecentUsage returns the most recent readings across all accounts,
// newest first.
func (db *DB) GetRecentUsage(limit int) ([]models.UsageHistoryPoint, error) {
	query := `
		SELECT id, timestamp, account_id, account_name, primary_percent, secondary_percent
		FROM usage_history
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []models.UsageHistoryPoint
	for rows.Next() {
		var point models.UsageHistoryPoint
		err := rows.Scan(
			&point.ID,
			&point.Timestamp,
			&point.AccountID,
			&point.AccountName,
			&point.PrimaryPercent,
			&point.SecondaryPercent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage point: %w", err)
		}
		points = append(points, point)
	}

	return points, rows.Err()
}

// TrackedAccounts returns the distinct account ids present in the history,
// with the account name from the most recent reading.
func (db *DB) TrackedAccounts() (map[string]string, error) {
	query := `
		SELECT account_id, account_name
		FROM usage_history
		WHERE id IN (SELECT MAX(id) FROM usage_history GROUP BY account_id)
	`

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan tracked account: %w", err)
		}
		accounts[id] = name
	}

	return accounts, rows.Err()
}

// PruneOlderThan deletes readings older than the cutoff and returns the
// number of rows removed.
func (db *DB) PruneOlderThan(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM usage_history WHERE timestamp < ?",
		cutoff.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage history: %w", err)
	}

	return result.RowsAffected()
}
