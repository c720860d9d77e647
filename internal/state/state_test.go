package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/foreman/internal/errors"
	"github.com/Iron-Ham/foreman/internal/manifest"
)

// =============================================================================
// Test Helpers
// =============================================================================

func testManifest(t *testing.T, ids ...string) *manifest.Manifest {
	t.Helper()
	var body string
	body = "name: demo\ntickets:\n"
	for _, id := range ids {
		body += "  - id: " + id + "\n    summary: ticket " + id + "\n"
	}
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}
	return m
}

// =============================================================================
// Initialization and Sync
// =============================================================================

func TestInitialize_PendingEntries(t *testing.T) {
	m := testManifest(t, "A", "B")

	s := Initialize(m)
	if s.WorkflowName != "demo" {
		t.Errorf("WorkflowName = %q", s.WorkflowName)
	}
	if len(s.Tickets) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(s.Tickets))
	}
	for id, entry := range s.Tickets {
		if entry.Status != StatusPending {
			t.Errorf("ticket %s status = %s, want pending", id, entry.Status)
		}
		if entry.WorkerLog != "" || entry.ReviewLog != "" {
			t.Errorf("ticket %s should have no logs", id)
		}
		if entry.StartedAt != nil || entry.FinishedAt != nil {
			t.Errorf("ticket %s should have no timestamps", id)
		}
	}
}

func TestSyncWithManifest_AddsOnlyMissing(t *testing.T) {
	m := testManifest(t, "A")
	s := Initialize(m)
	s.Tickets["A"].MarkFinished(StatusComplete, "Review passed")
	s.Tickets["removed"] = &TicketRunState{TicketID: "removed", Status: StatusFailed}

	grown := testManifest(t, "A", "B")
	s.SyncWithManifest(grown)

	if len(s.Tickets) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(s.Tickets))
	}
	if s.Tickets["A"].Status != StatusComplete {
		t.Error("existing entry was overwritten")
	}
	if s.Tickets["removed"].Status != StatusFailed {
		t.Error("entry for removed ticket was disturbed")
	}
	if s.Tickets["B"].Status != StatusPending {
		t.Error("new entry should start pending")
	}
}

// =============================================================================
// Transitions
// =============================================================================

func TestMarkRunning_SetsStartedAtOnce(t *testing.T) {
	entry := &TicketRunState{TicketID: "A", Status: StatusPending, Note: "stale"}

	entry.MarkRunning(StatusRunningWorker)
	if entry.Status != StatusRunningWorker {
		t.Errorf("status = %s", entry.Status)
	}
	if entry.StartedAt == nil {
		t.Fatal("StartedAt not set")
	}
	if entry.Note != "" {
		t.Error("note should be cleared")
	}

	first := *entry.StartedAt
	time.Sleep(time.Millisecond)
	entry.MarkRunning(StatusRunningReview)
	if !entry.StartedAt.Equal(first) {
		t.Error("StartedAt should only be set on first entry into a running state")
	}
}

func TestMarkFinished(t *testing.T) {
	entry := &TicketRunState{TicketID: "A", Status: StatusRunningWorker}

	entry.MarkFinished(StatusFailed, "Worker failed with status 1")
	if entry.Status != StatusFailed {
		t.Errorf("status = %s", entry.Status)
	}
	if entry.Note != "Worker failed with status 1" {
		t.Errorf("note = %q", entry.Note)
	}
	if entry.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []TicketStatus{StatusComplete, StatusFailed, StatusBlocked}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []TicketStatus{StatusPending, StatusRunningWorker, StatusNeedsReview, StatusRunningReview}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

// =============================================================================
// Persistence
// =============================================================================

func TestSaveLoad_RoundTrip(t *testing.T) {
	m := testManifest(t, "A", "B")
	s := Initialize(m)

	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	s.Tickets["A"].Status = StatusNeedsReview
	s.Tickets["A"].WorkerLog = "/tmp/worker.log"
	s.Tickets["A"].Note = "Worker completed successfully"
	s.Tickets["A"].StartedAt = &started
	s.Tickets["B"].MarkFinished(StatusFailed, "Worker failed with status 2")

	path := filepath.Join(t.TempDir(), "state.json")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.WorkflowName != s.WorkflowName {
		t.Errorf("WorkflowName = %q", loaded.WorkflowName)
	}
	a := loaded.Tickets["A"]
	if a.Status != StatusNeedsReview || a.WorkerLog != "/tmp/worker.log" ||
		a.Note != "Worker completed successfully" || !a.StartedAt.Equal(started) {
		t.Errorf("ticket A did not round-trip: %+v", a)
	}
	b := loaded.Tickets["B"]
	if b.Status != StatusFailed || b.FinishedAt == nil {
		t.Errorf("ticket B did not round-trip: %+v", b)
	}
}

func TestSaveLoad_EveryStatusValue(t *testing.T) {
	statuses := []TicketStatus{
		StatusPending, StatusRunningWorker, StatusNeedsReview,
		StatusRunningReview, StatusComplete, StatusFailed, StatusBlocked,
	}

	s := &WorkflowState{WorkflowName: "demo", Tickets: map[string]*TicketRunState{}}
	for i, status := range statuses {
		id := string(rune('A' + i))
		s.Tickets[id] = &TicketRunState{TicketID: id, Status: status}
	}

	path := filepath.Join(t.TempDir(), "state.json")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for id, entry := range s.Tickets {
		if loaded.Tickets[id].Status != entry.Status {
			t.Errorf("status %s did not round-trip", entry.Status)
		}
	}
}

func TestStatusWireNames(t *testing.T) {
	data, err := json.Marshal(&TicketRunState{TicketID: "A", Status: StatusRunningWorker})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["status"] != "running_worker" {
		t.Errorf("wire name = %v, want running_worker", decoded["status"])
	}
}

func TestSave_AtomicReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	s := &WorkflowState{WorkflowName: "demo", Tickets: map[string]*TicketRunState{
		"A": {TicketID: "A", Status: StatusPending},
	}}
	if err := s.Save(path); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	s.Tickets["A"].Status = StatusComplete
	if err := s.Save(path); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	// No temp file should linger after a successful save.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Tickets["A"].Status != StatusComplete {
		t.Error("target file does not hold the new complete state")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "state.json"))
	if !errors.Is(err, errors.ErrNoStateFile) {
		t.Errorf("expected ErrNoStateFile, got %v", err)
	}
}

func TestLoad_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{ truncated"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, errors.ErrStateCorrupted) {
		t.Errorf("expected ErrStateCorrupted, got %v", err)
	}
}
