// Package state implements the persisted, resumable record of workflow
// progress: one run-state entry per ticket, saved as a single JSON document
// with an atomic write-then-rename protocol so a crash mid-save can never
// corrupt previously persisted progress.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/foreman/internal/errors"
	"github.com/Iron-Ham/foreman/internal/manifest"
)

// TicketStatus enumerates the states of the per-ticket state machine.
type TicketStatus string

// Ticket statuses. Pending is the initial state; Complete, Failed, and
// Blocked are terminal. Blocked is checked against but never assigned by
// any transition; it is reserved for out-of-band assignment (for example a
// manual state-file edit).
const (
	StatusPending       TicketStatus = "pending"
	StatusRunningWorker TicketStatus = "running_worker"
	StatusNeedsReview   TicketStatus = "needs_review"
	StatusRunningReview TicketStatus = "running_review"
	StatusComplete      TicketStatus = "complete"
	StatusFailed        TicketStatus = "failed"
	StatusBlocked       TicketStatus = "blocked"
)

// IsTerminal reports whether a ticket in this status is skipped entirely by
// the orchestrator.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusBlocked:
		return true
	}
	return false
}

// IsRunning reports whether this status indicates a session was in flight
// when the state was last persisted.
func (s TicketStatus) IsRunning() bool {
	return s == StatusRunningWorker || s == StatusRunningReview
}

// TicketRunState is the persisted progress record for one ticket. It is
// mutated only by the orchestrator, through MarkRunning and MarkFinished.
type TicketRunState struct {
	TicketID   string       `json:"ticket_id"`
	Status     TicketStatus `json:"status"`
	WorkerLog  string       `json:"worker_log,omitempty"`
	ReviewLog  string       `json:"review_log,omitempty"`
	Note       string       `json:"note,omitempty"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// MarkRunning sets the status, records the start time on first entry into a
// running state, and clears the last-action note.
func (t *TicketRunState) MarkRunning(status TicketStatus) {
	t.Status = status
	if t.StartedAt == nil {
		now := time.Now().UTC()
		t.StartedAt = &now
	}
	t.Note = ""
}

// MarkFinished sets a terminal or pausing status, the last-action note, and
// the finish time.
func (t *TicketRunState) MarkFinished(status TicketStatus, note string) {
	t.Status = status
	t.Note = note
	now := time.Now().UTC()
	t.FinishedAt = &now
}

// SetWorkerLog records the worker log path once the worker step begins.
func (t *TicketRunState) SetWorkerLog(path string) {
	t.WorkerLog = path
}

// SetReviewLog records the review log path once the review step begins.
func (t *TicketRunState) SetReviewLog(path string) {
	t.ReviewLog = path
}

// WorkflowState is the sole mutable, persisted aggregate for a run. Exactly
// one exists per run, owned by the orchestrator for the run's lifetime.
type WorkflowState struct {
	WorkflowName string                     `json:"workflow_name"`
	Tickets      map[string]*TicketRunState `json:"tickets"`
}

// Initialize builds a fresh WorkflowState with every manifest ticket mapped
// to a pending entry: no logs, no note, no timestamps.
func Initialize(m *manifest.Manifest) *WorkflowState {
	tickets := make(map[string]*TicketRunState, len(m.Tickets))
	for _, ticket := range m.Tickets {
		tickets[ticket.ID] = &TicketRunState{
			TicketID: ticket.ID,
			Status:   StatusPending,
		}
	}
	return &WorkflowState{
		WorkflowName: m.WorkflowName(),
		Tickets:      tickets,
	}
}

// SyncWithManifest inserts a fresh pending entry for every manifest ticket
// not already present. Existing entries are never overwritten, and entries
// for tickets removed from the manifest are preserved rather than pruned.
// This is the resume contract: re-running against the same manifest keeps
// all prior progress and only adds entries for newly introduced tickets.
func (s *WorkflowState) SyncWithManifest(m *manifest.Manifest) {
	if s.Tickets == nil {
		s.Tickets = make(map[string]*TicketRunState, len(m.Tickets))
	}
	for _, ticket := range m.Tickets {
		if _, ok := s.Tickets[ticket.ID]; !ok {
			s.Tickets[ticket.ID] = &TicketRunState{
				TicketID: ticket.ID,
				Status:   StatusPending,
			}
		}
	}
}

// Ticket returns the run state for a ticket id, or nil if unknown.
func (s *WorkflowState) Ticket(ticketID string) *TicketRunState {
	return s.Tickets[ticketID]
}

// Load reads and decodes a persisted workflow state. It fails with
// errors.ErrNoStateFile when no state has been saved at path, and with a
// StateError wrapping errors.ErrStateCorrupted when the document cannot be
// decoded.
func Load(path string) (*WorkflowState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewStateError("failed to load workflow state", errors.ErrNoStateFile).WithPath(path)
		}
		return nil, errors.NewStateError("failed to read workflow state", err).WithPath(path)
	}

	var s WorkflowState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.NewStateError("failed to decode workflow state",
			errors.Join(errors.ErrStateCorrupted, err)).WithPath(path)
	}
	return &s, nil
}

// Save serializes the full state to <path>.tmp in the same directory, syncs
// it, and atomically renames it onto path. A concurrent reader or a process
// that crashes mid-save observes either the previous complete state or the
// new complete state, never a half-written intermediate.
//
// The orchestrator calls Save after every transition it needs durable;
// losing an unsaved transition on crash only ever re-executes that single
// transition's step.
func (s *WorkflowState) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewStateError("failed to create state directory", err).WithPath(path)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.NewStateError("failed to encode workflow state", err).WithPath(path)
	}

	tmpPath := path + ".tmp"
	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.NewStateError("failed to create temp state file", err).WithPath(tmpPath)
	}

	// Clean up the temp file on any error so a failed save leaves no debris.
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errors.NewStateError("failed to write temp state file", err).WithPath(tmpPath)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.NewStateError("failed to sync temp state file", err).WithPath(tmpPath)
	}
	if err := tmpFile.Close(); err != nil {
		return errors.NewStateError("failed to close temp state file", err).WithPath(tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewStateError("failed to persist workflow state", err).WithPath(path)
	}
	success = true
	return nil
}
