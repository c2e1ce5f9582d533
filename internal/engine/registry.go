package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/j-veylop/codex-switch-tui/internal/gateway"
	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// Registry is the authoritative in-process list of accounts plus their
// overlaid usage snapshots and loading flags. All mutation goes through the
// gateway and back in via reload or overlay; nothing is written
// speculatively.
type Registry struct {
	mu       sync.RWMutex
	gw       gateway.Gateway
	entries  []models.RegistryEntry
	lastErr  error
	inFlight map[string]int
	onChange func()
}

// NewRegistry creates an empty registry over the given gateway. onChange is
// invoked (without the lock held) after every visible state change; nil is
// allowed.
func NewRegistry(gw gateway.Gateway, onChange func()) *Registry {
	if onChange == nil {
		onChange = func() {}
	}
	return &Registry{
		gw:       gw,
		entries:  make([]models.RegistryEntry, 0),
		inFlight: make(map[string]int),
		onChange: onChange,
	}
}

// Entries returns a copy of the current registry contents.
func (r *Registry) Entries() []models.RegistryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.RegistryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Err returns the registry-level error from the last failed reload, nil
// after a successful one.
func (r *Registry) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Entry returns the entry for one account id.
func (r *Registry) Entry(id string) (models.RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if r.entries[i].Account.ID == id {
			return r.entries[i], true
		}
	}
	return models.RegistryEntry{}, false
}

// ReloadFresh replaces the registry from the gateway, dropping all usage
// snapshots. Used after membership changes (delete, import, login).
func (r *Registry) ReloadFresh(ctx context.Context) error {
	return r.reload(ctx, false)
}

// ReloadPreservingUsage replaces the registry from the gateway but carries
// forward the previous usage snapshot for every id present in both the old
// and new lists. Used after cosmetic or activity changes (switch, rename) so
// usage bars do not flash back to loading.
func (r *Registry) ReloadPreservingUsage(ctx context.Context) error {
	return r.reload(ctx, true)
}

func (r *Registry) reload(ctx context.Context, preserveUsage bool) error {
	accounts, err := r.gw.ListAccounts(ctx)
	if err != nil {
		r.mu.Lock()
		r.lastErr = fmt.Errorf("failed to load accounts: %w", err)
		r.mu.Unlock()
		r.onChange()
		return err
	}

	r.mu.Lock()
	var prev map[string]*models.UsageSnapshot
	if preserveUsage {
		prev = make(map[string]*models.UsageSnapshot, len(r.entries))
		for i := range r.entries {
			prev[r.entries[i].Account.ID] = r.entries[i].Usage
		}
	}

	entries := make([]models.RegistryEntry, len(accounts))
	for i, acc := range accounts {
		entries[i] = models.RegistryEntry{
			Account:      acc,
			UsageLoading: r.inFlight[acc.ID] > 0,
		}
		if preserveUsage {
			entries[i].Usage = prev[acc.ID]
		}
	}

	r.entries = entries
	r.lastErr = nil
	r.mu.Unlock()

	r.onChange()
	return nil
}

// RefreshAll requests usage for every account in one batched call and
// overlays each returned snapshot onto its account by id. Accounts absent
// from the result keep their existing snapshot: not reported this round is
// not the same as cleared. Returns the snapshots applied.
func (r *Registry) RefreshAll(ctx context.Context) ([]models.UsageSnapshot, error) {
	snapshots, err := r.gw.RefreshAllUsage(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	byID := make(map[string]*models.UsageSnapshot, len(snapshots))
	for i := range snapshots {
		byID[snapshots[i].AccountID] = &snapshots[i]
	}
	for i := range r.entries {
		if snap, ok := byID[r.entries[i].Account.ID]; ok {
			s := *snap
			r.entries[i].Usage = &s
		}
	}
	r.mu.Unlock()

	r.onChange()
	return snapshots, nil
}

// RefreshOne fetches usage for a single account. The loading flag is set for
// the duration of the fetch and cleared by id on completion, success or
// failure. On success the snapshot is replaced; on failure nothing is
// mutated and the error is returned. A result arriving for an id that has
// left the registry is discarded.
//
// Overlapping calls for the same id are permitted; each completion overlays
// independently, so the final snapshot is the last one to complete. The
// loading flag stays set until the last outstanding fetch finishes.
func (r *Registry) RefreshOne(ctx context.Context, id string) (*models.UsageSnapshot, error) {
	r.setLoading(id, true)
	snap, err := r.gw.GetUsage(ctx, id)
	r.setLoading(id, false)

	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	applied := false
	for i := range r.entries {
		if r.entries[i].Account.ID == id {
			s := *snap
			r.entries[i].Usage = &s
			applied = true
			break
		}
	}
	r.mu.Unlock()

	r.onChange()
	if !applied {
		// Account disappeared while the fetch was in flight.
		return nil, nil
	}
	return snap, nil
}

// setLoading adjusts the in-flight count for an id and mirrors it onto the
// matching entry, if present. Lookup is by id, never by position, so an
// entry added or moved between issue and completion is untouched.
func (r *Registry) setLoading(id string, loading bool) {
	r.mu.Lock()
	if loading {
		r.inFlight[id]++
	} else {
		r.inFlight[id]--
		if r.inFlight[id] <= 0 {
			delete(r.inFlight, id)
		}
	}
	active := r.inFlight[id] > 0

	for i := range r.entries {
		if r.entries[i].Account.ID == id {
			r.entries[i].UsageLoading = active
			break
		}
	}
	r.mu.Unlock()

	r.onChange()
}
