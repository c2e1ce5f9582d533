package engine

import (
	"context"
	"errors"
	"strings"
)

// Validation errors raised before any gateway call.
var (
	// ErrEmptyName rejects a blank rename or import name.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrEmptyPath rejects an import with no file selected.
	ErrEmptyPath = errors.New("no file selected")
)

// Every mutation follows the same shape: gateway call first, then a reload
// to reconcile. A failed call propagates unmodified and leaves the registry
// exactly as it was; nothing is applied optimistically.

// SwitchAccount makes the given account active. The reload preserves usage:
// switching only flips activity flags, so no usage bar should flash back to
// loading. Callers are expected to consult ProcessStatus first; that check
// is a cooperative guard, not an atomicity guarantee.
func (e *Engine) SwitchAccount(ctx context.Context, id string) error {
	if err := e.gw.SwitchAccount(ctx, id); err != nil {
		return err
	}
	return e.registry.ReloadPreservingUsage(ctx)
}

// RenameAccount changes an account's display name. Cosmetic change, so the
// reload preserves usage.
func (e *Engine) RenameAccount(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	if err := e.gw.RenameAccount(ctx, id, name); err != nil {
		return err
	}
	return e.registry.ReloadPreservingUsage(ctx)
}

// DeleteAccount removes an account. Membership changed, so the reload is
// fresh.
func (e *Engine) DeleteAccount(ctx context.Context, id string) error {
	if err := e.gw.DeleteAccount(ctx, id); err != nil {
		return err
	}
	return e.registry.ReloadFresh(ctx)
}

// ImportFromFile creates an account from a codex auth.json file, reloads
// fresh and then refreshes usage so the new account does not sit without a
// snapshot until the next polling round.
func (e *Engine) ImportFromFile(ctx context.Context, path, name string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	if _, err := e.gw.ImportAccount(ctx, path, name); err != nil {
		return err
	}
	if err := e.registry.ReloadFresh(ctx); err != nil {
		return err
	}
	e.RefreshAllUsage(ctx)
	return nil
}
