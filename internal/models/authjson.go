package models

import "time"

// AuthDotJSON is the official Codex auth.json format, read when importing
// an account from file and written when switching the active account.
type AuthDotJSON struct {
	OpenAIAPIKey *string    `json:"OPENAI_API_KEY,omitempty"`
	Tokens       *TokenData `json:"tokens,omitempty"`
	LastRefresh  *time.Time `json:"last_refresh,omitempty"`
}

// TokenData is the OAuth token block inside auth.json.
type TokenData struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id,omitempty"`
}
