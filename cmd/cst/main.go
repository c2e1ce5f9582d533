// Package main is the entry point for the Codex Switcher TUI. It wires the
// account store, usage client and sync engine, then runs the Bubble Tea
// program.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switch-tui/internal/app"
	"github.com/j-veylop/codex-switch-tui/internal/config"
	"github.com/j-veylop/codex-switch-tui/internal/db"
	"github.com/j-veylop/codex-switch-tui/internal/engine"
	"github.com/j-veylop/codex-switch-tui/internal/gateway"
	"github.com/j-veylop/codex-switch-tui/internal/logger"
	"github.com/j-veylop/codex-switch-tui/internal/process"
	"github.com/j-veylop/codex-switch-tui/internal/store"
	"github.com/j-veylop/codex-switch-tui/internal/ui/tabs/accounts"
	"github.com/j-veylop/codex-switch-tui/internal/ui/tabs/history"
	"github.com/j-veylop/codex-switch-tui/internal/ui/tabs/info"
	"github.com/j-veylop/codex-switch-tui/internal/usageapi"
	"github.com/j-veylop/codex-switch-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Log to a file so slog output doesn't corrupt the TUI.
	logFile, err := logger.OpenLogFile(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	st, err := store.Open(cfg.AccountsPath)
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	defer st.Close()

	historyDB, err := db.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() {
		if closeErr := historyDB.Close(); closeErr != nil {
			logger.Warn("error closing history database", "error", closeErr)
		}
	}()

	gw := gateway.NewLocal(
		st,
		usageapi.New(cfg.UsageBaseURL),
		process.NewInspector("codex"),
		gateway.Config{
			CodexAuthPath: cfg.CodexAuthPath,
			OAuthIssuer:   cfg.OAuthIssuer,
			OAuthClientID: cfg.OAuthClientID,
			CallbackPort:  cfg.OAuthCallbackPort,
		},
	)

	eng := engine.New(gw,
		engine.Config{
			ProcessPollInterval: cfg.ProcessPollInterval,
			UsagePollInterval:   cfg.UsagePollInterval,
		},
		openBrowser,
		engine.WithHistory(historyDB),
		engine.WithStoreEvents(st.Events()),
	)
	defer eng.Close()

	if err := eng.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	model := app.NewModel(eng)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		accounts.New(state),
		history.New(state, historyDB),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// openBrowser hands an authorization URL to the system browser. Failures
// are logged; the URL also shows in the login toast so the user can open
// it by hand.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
	}
}

func printUsage() {
	fmt.Println(`Codex Switcher TUI - Multi-account Codex CLI manager

Usage:
  cst [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Accounts, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists
  Enter           Switch to the selected account
  a               Add an account via browser login
  i               Import an existing ~/.codex/auth.json
  n               Rename the selected account
  d               Delete the selected account
  u               Refresh usage for the selected account
  t               Toggle threshold alerts for the selected account
  r               Refresh usage for all accounts
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  ACCOUNTS_PATH           Accounts JSON file path
  DATABASE_PATH           SQLite usage history path
  CODEX_AUTH_PATH         Codex CLI auth.json path
  USAGE_REFRESH_INTERVAL  Usage polling interval (default: 60s)
  PROCESS_POLL_INTERVAL   Codex process polling interval (default: 3s)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.codex-switcher/.env`)
}
