package models

import "time"

// UsageSnapshot is a point-in-time rate-limit reading for one account.
// A snapshot either carries real data or an Error string from a failed
// fetch; it is always replaced whole, never merged field by field.
type UsageSnapshot struct {
	FetchedAt              time.Time `json:"fetchedAt"`
	AccountID              string    `json:"accountId"`
	PlanType               string    `json:"planType,omitempty"`
	CreditsBalance         string    `json:"creditsBalance,omitempty"`
	Error                  string    `json:"error,omitempty"`
	PrimaryUsedPercent     *float64  `json:"primaryUsedPercent,omitempty"`
	SecondaryUsedPercent   *float64  `json:"secondaryUsedPercent,omitempty"`
	PrimaryWindowMinutes   *int64    `json:"primaryWindowMinutes,omitempty"`
	SecondaryWindowMinutes *int64    `json:"secondaryWindowMinutes,omitempty"`
	PrimaryResetsAt        *int64    `json:"primaryResetsAt,omitempty"`
	SecondaryResetsAt      *int64    `json:"secondaryResetsAt,omitempty"`
	HasCredits             *bool     `json:"hasCredits,omitempty"`
	UnlimitedCredits       *bool     `json:"unlimitedCredits,omitempty"`
}

// ErrorSnapshot builds a snapshot recording a failed fetch for an account.
func ErrorSnapshot(accountID string, err error) *UsageSnapshot {
	return &UsageSnapshot{
		AccountID: accountID,
		Error:     err.Error(),
		FetchedAt: time.Now(),
	}
}

// Failed reports whether the snapshot records a failed fetch.
func (u *UsageSnapshot) Failed() bool {
	return u != nil && u.Error != ""
}

// UsageHistoryPoint is one recorded primary-window reading (DB model).
type UsageHistoryPoint struct {
	Timestamp        time.Time
	AccountID        string
	AccountName      string
	PrimaryPercent   float64
	SecondaryPercent float64
	ID               int64
}

// OAuthLoginInfo is returned when an OAuth login flow starts.
type OAuthLoginInfo struct {
	AuthURL      string `json:"authUrl"`
	CallbackPort int    `json:"callbackPort"`
}
