// Package models defines data structures and domain types.
package models

import "time"

// AuthMode identifies how an account authenticates against the Codex backend.
type AuthMode string

const (
	// AuthModeAPIKey is authentication with an OpenAI API key.
	AuthModeAPIKey AuthMode = "api_key"
	// AuthModeChatGPT is authentication with ChatGPT OAuth tokens.
	AuthModeChatGPT AuthMode = "chat_gpt"
)

// Account is the client-visible view of a stored account. Credentials never
// leave the store; this struct carries only metadata.
type Account struct {
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	PlanType   string     `json:"planType,omitempty"`
	AuthMode   AuthMode   `json:"authMode"`
	IsActive   bool       `json:"isActive"`
}

// StoredAccount is an account as persisted in accounts.json, including
// credential material. Only the store package should hand these around.
type StoredAccount struct {
	CreatedAt            time.Time            `json:"createdAt"`
	LastUsedAt           *time.Time           `json:"lastUsedAt,omitempty"`
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Email                string               `json:"email,omitempty"`
	PlanType             string               `json:"planType,omitempty"`
	AuthMode             AuthMode             `json:"authMode"`
	AuthData             AuthData             `json:"authData"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
	LastNotifications    LastNotifications    `json:"lastNotifications"`
}

// AuthData holds the credentials for one account. Exactly one of the two
// shapes is populated, selected by Type.
type AuthData struct {
	Type         string `json:"type"`
	Key          string `json:"key,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	AccountID    string `json:"accountId,omitempty"`
}

// AuthData type tags.
const (
	AuthDataAPIKey  = "api_key"
	AuthDataChatGPT = "chat_gpt"
)

// Info strips credential material for display.
func (a *StoredAccount) Info(activeID string) Account {
	return Account{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		PlanType:   a.PlanType,
		AuthMode:   a.AuthMode,
		IsActive:   activeID != "" && activeID == a.ID,
		CreatedAt:  a.CreatedAt,
		LastUsedAt: a.LastUsedAt,
	}
}

// RegistryEntry pairs an account with its most recent usage reading.
// Usage is nil until the first fetch for that account completes.
type RegistryEntry struct {
	Usage        *UsageSnapshot `json:"usage,omitempty"`
	Account      Account        `json:"account"`
	UsageLoading bool           `json:"usageLoading"`
}

// ProcessStatus reports external codex processes. Derived fresh on every
// poll, never persisted.
type ProcessStatus struct {
	PIDs      []int `json:"pids"`
	Count     int   `json:"count"`
	CanSwitch bool  `json:"canSwitch"`
}
