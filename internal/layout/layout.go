// Package layout maps a workflow artifacts root to canonical paths for the
// state file and each ticket's per-ticket directory. It is pure path
// computation plus idempotent directory creation; no state lives here.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// StateFileName is the name of the persisted workflow state file.
const StateFileName = "state.json"

// Layout derives artifact paths from a workflow root directory.
type Layout struct {
	root string
}

// New returns a Layout rooted at the given directory. Nothing is created
// until EnsureRoot or EnsureTicketDir is called.
func New(root string) Layout {
	return Layout{root: root}
}

// DefaultRoot returns the artifacts root used when no override is given:
// <manifestDir>/.codex/workflows/<workflowName>.
func DefaultRoot(manifestDir, workflowName string) string {
	return filepath.Join(manifestDir, ".codex", "workflows", workflowName)
}

// Root returns the artifacts root directory.
func (l Layout) Root() string {
	return l.root
}

// EnsureRoot creates the artifacts root if it does not exist.
func (l Layout) EnsureRoot() error {
	if err := os.MkdirAll(l.root, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", l.root, err)
	}
	return nil
}

// StateFile returns the path of the persisted workflow state.
func (l Layout) StateFile() string {
	return filepath.Join(l.root, StateFileName)
}

// TicketDir returns the per-ticket artifact directory,
// root/ticket-<sanitized id>.
func (l Layout) TicketDir(ticketID string) string {
	return filepath.Join(l.root, "ticket-"+sanitize(ticketID))
}

// EnsureTicketDir creates the per-ticket directory if it does not exist and
// returns its path.
func (l Layout) EnsureTicketDir(ticketID string) (string, error) {
	dir := l.TicketDir(ticketID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// WorkerLogPath returns the worker session log path for a ticket.
func (l Layout) WorkerLogPath(ticketID string) string {
	return filepath.Join(l.TicketDir(ticketID), "worker.log")
}

// ReviewLogPath returns the review session log path for a ticket.
func (l Layout) ReviewLogPath(ticketID string) string {
	return filepath.Join(l.TicketDir(ticketID), "review.log")
}

// PatchDir returns the directory where a ticket's worker session is told to
// save generated patches and notes.
func (l Layout) PatchDir(ticketID string) string {
	return filepath.Join(l.TicketDir(ticketID), "patches")
}

// sanitize replaces every character outside [a-zA-Z0-9-_] with an
// underscore, so any ticket id yields a path-safe directory name. Distinct
// raw ids that differ only in substituted characters collide; accepted
// limitation.
func sanitize(id string) string {
	out := []rune(id)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
