package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// notifyFunc sends one desktop notification. Swappable in tests.
type notifyFunc func(title, body string) error

// beeepNotify is the production notifier.
func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// checkThresholds inspects one account's fresh snapshot against its
// settings, fires notifications for crossed thresholds and stamps the
// cooldown times. Returns true when the cooldown stamps changed and need
// persisting.
func checkThresholds(notify notifyFunc, accountName string, usage *models.UsageSnapshot,
	settings models.NotificationSettings, last *models.LastNotifications, now time.Time) bool {
	if !settings.Enabled || usage == nil || usage.Failed() {
		return false
	}

	changed := false
	interval := time.Duration(settings.MinIntervalMinutes) * time.Minute

	if usage.PrimaryUsedPercent != nil &&
		shouldNotify(*usage.PrimaryUsedPercent, settings.PrimaryThreshold, last.Primary, interval, now) {
		sendUsageNotification(notify, accountName, "Primary rate limit", *usage.PrimaryUsedPercent)
		t := now
		last.Primary = &t
		changed = true
	}

	if usage.SecondaryUsedPercent != nil &&
		shouldNotify(*usage.SecondaryUsedPercent, settings.SecondaryThreshold, last.Secondary, interval, now) {
		sendUsageNotification(notify, accountName, "Secondary rate limit", *usage.SecondaryUsedPercent)
		t := now
		last.Secondary = &t
		changed = true
	}

	if used, ok := creditsUsedPercent(usage); ok &&
		shouldNotify(used, settings.CreditsThreshold, last.Credits, interval, now) {
		sendCreditsNotification(notify, accountName, usage.CreditsBalance)
		t := now
		last.Credits = &t
		changed = true
	}

	return changed
}

// shouldNotify applies the threshold and the per-threshold cooldown.
func shouldNotify(value float64, threshold *int, lastNotified *time.Time, interval time.Duration, now time.Time) bool {
	if threshold == nil {
		return false
	}
	if value < float64(*threshold) {
		return false
	}
	if lastNotified != nil && now.Sub(*lastNotified) < interval {
		return false
	}
	return true
}

// creditsUsedPercent estimates how much of the plan's credit allowance has
// been spent. Only meaningful for metered accounts with a parseable balance.
func creditsUsedPercent(usage *models.UsageSnapshot) (float64, bool) {
	if usage.HasCredits == nil || usage.UnlimitedCredits == nil {
		return 0, false
	}
	if !*usage.HasCredits || *usage.UnlimitedCredits {
		return 0, false
	}
	balance, ok := parseCreditsBalance(usage.CreditsBalance)
	if !ok {
		return 0, false
	}
	maxCredits := planCreditsMax(usage.PlanType)
	if maxCredits <= 0 {
		return 0, false
	}
	return (maxCredits - balance) / maxCredits * 100, true
}

// parseCreditsBalance extracts the numeric value out of a balance string
// like "$10.50".
func parseCreditsBalance(balance string) (float64, bool) {
	var b strings.Builder
	for _, c := range balance {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(b.String(), "%f", &v); err != nil {
		return 0, false
	}
	return v, true
}

// planCreditsMax is a rough per-plan credit ceiling used only to turn a
// dollar balance into a used percentage. TODO: fetch the real allowance
// from the backend once the usage endpoint exposes it.
func planCreditsMax(planType string) float64 {
	switch planType {
	case "free":
		return 0
	case "plus":
		return 50
	case "pro":
		return 100
	case "team":
		return 500
	case "business":
		return 1000
	case "enterprise":
		return 5000
	default:
		return 100
	}
}

func sendUsageNotification(notify notifyFunc, accountName, usageType string, percent float64) {
	title := fmt.Sprintf("Codex Switcher: %s", accountName)
	body := fmt.Sprintf("%s usage at %.1f%% - threshold exceeded", usageType, percent)
	if err := notify(title, body); err != nil {
		logger.Error("failed to send notification", "account", accountName, "error", err)
	}
}

func sendCreditsNotification(notify notifyFunc, accountName, balance string) {
	title := fmt.Sprintf("Codex Switcher: %s", accountName)
	body := fmt.Sprintf("Credits balance is low: %s", balance)
	if err := notify(title, body); err != nil {
		logger.Error("failed to send notification", "account", accountName, "error", err)
	}
}
