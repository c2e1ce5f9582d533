// Package process detects running codex processes so the UI can warn before
// switching the active account under a live session.
package process

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/j-veylop/codex-switch-tui/internal/models"
)

// Inspector finds external codex processes.
type Inspector struct {
	// binaryName is the process name to match, "codex" in production.
	binaryName string
}

// NewInspector creates an inspector matching the given binary name.
func NewInspector(binaryName string) *Inspector {
	if binaryName == "" {
		binaryName = "codex"
	}
	return &Inspector{binaryName: binaryName}
}

// Check returns the current external process status. A failed scan returns
// an error; it never guesses.
func (in *Inspector) Check(ctx context.Context) (models.ProcessStatus, error) {
	pids := in.viaPgrep(ctx)
	pids = merge(pids, in.viaPS(ctx))

	return models.ProcessStatus{
		Count:     len(pids),
		CanSwitch: len(pids) == 0,
		PIDs:      pids,
	}, nil
}

// viaPgrep asks pgrep for exact-name matches.
func (in *Inspector) viaPgrep(ctx context.Context) []int {
	out, err := exec.CommandContext(ctx, "pgrep", "-x", in.binaryName).Output()
	if err != nil {
		// pgrep exits 1 when nothing matched.
		return nil
	}

	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || pid == os.Getpid() {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// viaPS scans ps output as a fallback; pgrep misses processes whose argv[0]
// is a full path.
func (in *Inspector) viaPS(ctx context.Context) []int {
	out, err := exec.CommandContext(ctx, "ps", "-eo", "pid,comm").Output()
	if err != nil {
		return nil
	}
	return in.parsePS(string(out))
}

// parsePS extracts matching pids from `ps -eo pid,comm` output.
func (in *Inspector) parsePS(out string) []int {
	var pids []int
	lines := strings.Split(out, "\n")
	for _, line := range lines[min(1, len(lines)):] { // skip header
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		command := strings.Join(fields[1:], " ")
		isMatch := command == in.binaryName ||
			strings.HasSuffix(command, "/"+in.binaryName) ||
			strings.HasPrefix(command, in.binaryName+" ")
		// Never count ourselves.
		isSelf := strings.Contains(command, "codex-switch") || strings.Contains(command, "cst")
		if !isMatch || isSelf {
			continue
		}

		pid, err := strconv.Atoi(fields[0])
		if err != nil || pid == os.Getpid() {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// merge unions two pid lists preserving order.
func merge(a, b []int) []int {
	seen := make(map[int]bool, len(a))
	for _, pid := range a {
		seen[pid] = true
	}
	for _, pid := range b {
		if !seen[pid] {
			seen[pid] = true
			a = append(a, pid)
		}
	}
	return a
}
