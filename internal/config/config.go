// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AccountsPath        string
	DatabasePath        string
	CodexAuthPath       string
	LogPath             string
	UsageBaseURL        string
	OAuthIssuer         string
	OAuthClientID       string
	OAuthCallbackPort   int
	ProcessPollInterval time.Duration
	UsagePollInterval   time.Duration
}

// Default values
const (
	defaultProcessPollInterval = 3 * time.Second
	defaultUsagePollInterval   = 60 * time.Second

	defaultUsageBaseURL = "https://chatgpt.com/backend-api"
	defaultOAuthIssuer  = "https://auth.openai.com"

	// Client id and callback port match the official Codex CLI so the
	// issuer accepts the loopback redirect.
	defaultOAuthClientID     = "app_EMoamEEZ73f0CkXaXp7hrann"
	defaultOAuthCallbackPort = 1455
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		AccountsPath:        getEnvString("ACCOUNTS_PATH", filepath.Join(configDir(), "accounts.json")),
		DatabasePath:        getEnvString("DATABASE_PATH", filepath.Join(configDir(), "usage.db")),
		CodexAuthPath:       getEnvString("CODEX_AUTH_PATH", defaultCodexAuthPath()),
		LogPath:             getEnvString("LOG_PATH", filepath.Join(configDir(), "cst.log")),
		UsageBaseURL:        getEnvString("USAGE_BASE_URL", defaultUsageBaseURL),
		OAuthIssuer:         getEnvString("OAUTH_ISSUER", defaultOAuthIssuer),
		OAuthClientID:       getEnvString("OAUTH_CLIENT_ID", defaultOAuthClientID),
		OAuthCallbackPort:   getEnvInt("OAUTH_CALLBACK_PORT", defaultOAuthCallbackPort),
		ProcessPollInterval: getEnvDuration("PROCESS_POLL_INTERVAL", defaultProcessPollInterval),
		UsagePollInterval:   getEnvDuration("USAGE_REFRESH_INTERVAL", defaultUsagePollInterval),
	}

	if err := ensureDir(filepath.Dir(cfg.AccountsPath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configDir is where cst keeps its own state.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".codex-switcher")
}

// defaultCodexAuthPath is the auth.json the Codex CLI itself reads.
func defaultCodexAuthPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "auth.json"
	}
	return filepath.Join(home, ".codex", "auth.json")
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".codex-switcher", ".env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
