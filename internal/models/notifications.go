package models

import (
	"fmt"
	"time"
)

// NotificationSettings configures per-account usage threshold alerts.
// A nil threshold disables that check.
type NotificationSettings struct {
	PrimaryThreshold   *int `json:"primaryThreshold"`
	SecondaryThreshold *int `json:"secondaryThreshold"`
	CreditsThreshold   *int `json:"creditsThreshold"`
	MinIntervalMinutes int  `json:"minIntervalMinutes"`
	Enabled            bool `json:"enabled"`
}

// DefaultNotificationSettings mirrors the defaults applied to new accounts:
// disabled, 80% rate-limit thresholds, 20% credits threshold, 1h cooldown.
func DefaultNotificationSettings() NotificationSettings {
	primary := 80
	secondary := 80
	credits := 20
	return NotificationSettings{
		Enabled:            false,
		PrimaryThreshold:   &primary,
		SecondaryThreshold: &secondary,
		CreditsThreshold:   &credits,
		MinIntervalMinutes: 60,
	}
}

// Validate checks threshold ranges and the cooldown interval.
func (s NotificationSettings) Validate() error {
	for name, th := range map[string]*int{
		"primaryThreshold":   s.PrimaryThreshold,
		"secondaryThreshold": s.SecondaryThreshold,
		"creditsThreshold":   s.CreditsThreshold,
	} {
		if th != nil && (*th < 0 || *th > 100) {
			return fmt.Errorf("%s must be between 0 and 100", name)
		}
	}
	if s.MinIntervalMinutes < 1 {
		return fmt.Errorf("minIntervalMinutes must be at least 1")
	}
	return nil
}

// LastNotifications tracks when each threshold last fired, enforcing the
// per-threshold cooldown.
type LastNotifications struct {
	Primary   *time.Time `json:"primary,omitempty"`
	Secondary *time.Time `json:"secondary,omitempty"`
	Credits   *time.Time `json:"credits,omitempty"`
}
