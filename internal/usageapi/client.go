// Package usageapi fetches rate-limit status from the Codex backend.
package usageapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// rateLimitPayload is the wire shape of the usage endpoint response.
type rateLimitPayload struct {
	PlanType  string `json:"plan_type"`
	RateLimit *struct {
		PrimaryWindow   *rateLimitWindow `json:"primary_window"`
		SecondaryWindow *rateLimitWindow `json:"secondary_window"`
	} `json:"rate_limit"`
	Credits *struct {
		HasCredits bool    `json:"has_credits"`
		Unlimited  bool    `json:"unlimited"`
		Balance    *string `json:"balance"`
	} `json:"credits"`
}

type rateLimitWindow struct {
	UsedPercent        float64 `json:"used_percent"`
	LimitWindowSeconds *int64  `json:"limit_window_seconds"`
	ResetAt            *int64  `json:"reset_at"`
}

// Client queries per-account usage over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a usage client against the given backend base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves the current usage snapshot for one account. The returned
// snapshot is complete; callers replace any previous snapshot with it.
func (c *Client) Fetch(ctx context.Context, account models.StoredAccount) (*models.UsageSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/wham/usage", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage request: %w", err)
	}

	switch account.AuthMode {
	case models.AuthModeAPIKey:
		req.Header.Set("Authorization", "Bearer "+account.AuthData.Key)
	case models.AuthModeChatGPT:
		req.Header.Set("Authorization", "Bearer "+account.AuthData.AccessToken)
		if account.AuthData.AccountID != "" {
			req.Header.Set("ChatGPT-Account-Id", account.AuthData.AccountID)
		}
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", account.AuthMode)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read usage response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usage request returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload rateLimitPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse usage response: %w", err)
	}

	return snapshotFromPayload(account.ID, &payload), nil
}

// snapshotFromPayload maps the wire payload onto a UsageSnapshot.
func snapshotFromPayload(accountID string, p *rateLimitPayload) *models.UsageSnapshot {
	snap := &models.UsageSnapshot{
		AccountID: accountID,
		PlanType:  p.PlanType,
		FetchedAt: time.Now(),
	}

	if p.RateLimit != nil {
		if w := p.RateLimit.PrimaryWindow; w != nil {
			used := w.UsedPercent
			snap.PrimaryUsedPercent = &used
			snap.PrimaryWindowMinutes = windowMinutes(w.LimitWindowSeconds)
			snap.PrimaryResetsAt = w.ResetAt
		}
		if w := p.RateLimit.SecondaryWindow; w != nil {
			used := w.UsedPercent
			snap.SecondaryUsedPercent = &used
			snap.SecondaryWindowMinutes = windowMinutes(w.LimitWindowSeconds)
			snap.SecondaryResetsAt = w.ResetAt
		}
	}

	if p.Credits != nil {
		hasCredits := p.Credits.HasCredits
		unlimited := p.Credits.Unlimited
		snap.HasCredits = &hasCredits
		snap.UnlimitedCredits = &unlimited
		if p.Credits.Balance != nil {
			snap.CreditsBalance = *p.Credits.Balance
		}
	}

	return snap
}

func windowMinutes(seconds *int64) *int64 {
	if seconds == nil {
		return nil
	}
	minutes := *seconds / 60
	return &minutes
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
