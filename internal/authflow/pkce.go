// Package authflow implements the loopback OAuth flow used to add accounts.
package authflow

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// ChallengeMethodS256 is the PKCE challenge method sent to the issuer.
const ChallengeMethodS256 = "S256"

// PKCEPair is a PKCE verifier with its S256 challenge.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// NewPKCEPair generates a fresh PKCE verifier/challenge pair.
func NewPKCEPair() (PKCEPair, error) {
	verifierBytes := make([]byte, 64)
	if _, err := rand.Read(verifierBytes); err != nil {
		return PKCEPair{}, err
	}

	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)
	hash := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	return PKCEPair{
		Verifier:  verifier,
		Challenge: challenge,
	}, nil
}

// NewState generates a random state nonce for the authorization request.
func NewState() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
