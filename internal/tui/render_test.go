package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/foreman/internal/orchestrator"
	"github.com/Iron-Ham/foreman/internal/state"
)

// ============================================================================
// RenderReport Tests
// ============================================================================

func sampleReport() *orchestrator.StatusReport {
	return &orchestrator.StatusReport{
		WorkflowName: "demo",
		StatePath:    "/tmp/demo/state.json",
		Tickets: []state.TicketRunState{
			{
				TicketID:  "T1",
				Status:    state.StatusComplete,
				Note:      "Review passed",
				WorkerLog: "/tmp/demo/ticket-T1/worker.log",
				ReviewLog: "/tmp/demo/ticket-T1/review.log",
			},
			{
				TicketID: "T2",
				Status:   state.StatusPending,
			},
		},
	}
}

func TestRenderReportIncludesHeaderAndTickets(t *testing.T) {
	out := RenderReport(sampleReport())

	for _, want := range []string{
		"Workflow: demo",
		"State file: /tmp/demo/state.json",
		"T1",
		"complete",
		"Review passed",
		"worker log: /tmp/demo/ticket-T1/worker.log",
		"review log: /tmp/demo/ticket-T1/review.log",
		"T2",
		"pending",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReportDefaultNote(t *testing.T) {
	out := RenderReport(sampleReport())

	if !strings.Contains(out, "No status note recorded yet.") {
		t.Errorf("expected placeholder note for ticket without one:\n%s", out)
	}
}

func TestRenderReportOmitsMissingLogs(t *testing.T) {
	report := sampleReport()
	out := RenderReport(report)

	// T2 never ran, so only T1's log lines should appear.
	if got := strings.Count(out, "worker log:"); got != 1 {
		t.Errorf("expected 1 worker log line, got %d:\n%s", got, out)
	}
	if got := strings.Count(out, "review log:"); got != 1 {
		t.Errorf("expected 1 review log line, got %d:\n%s", got, out)
	}
}

// ============================================================================
// Watch Model Tests
// ============================================================================

func TestWatchModelStoresReport(t *testing.T) {
	m := newWatchModel("/tmp/manifest.yaml", "", "/tmp/demo/state.json", nil)

	updated, _ := m.Update(reportMsg{report: sampleReport()})
	wm := updated.(watchModel)
	if wm.report == nil || wm.report.WorkflowName != "demo" {
		t.Fatalf("report not stored: %+v", wm.report)
	}

	view := wm.View()
	if !strings.Contains(view, "Workflow: demo") {
		t.Errorf("view missing report content:\n%s", view)
	}
	if !strings.Contains(view, "q to quit") {
		t.Errorf("view missing quit hint:\n%s", view)
	}
}

func TestWatchModelWaitingView(t *testing.T) {
	m := newWatchModel("/tmp/manifest.yaml", "", "/tmp/demo/state.json", nil)

	view := m.View()
	if !strings.Contains(view, "Waiting for workflow state at /tmp/demo/state.json") {
		t.Errorf("expected waiting message before any report:\n%s", view)
	}
}

func TestWatchModelQuitKeys(t *testing.T) {
	m := newWatchModel("/tmp/manifest.yaml", "", "/tmp/demo/state.json", nil)

	for _, key := range []string{"q", "esc", "ctrl+c"} {
		_, cmd := m.Update(keyMsg(key))
		if cmd == nil {
			t.Fatalf("key %q should quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q returned %T, want tea.QuitMsg", key, cmd())
		}
	}
}

func TestWatchModelReloadsOnStateChange(t *testing.T) {
	m := newWatchModel("/tmp/manifest.yaml", "", "/tmp/demo/state.json", nil)

	_, cmd := m.Update(stateChangedMsg{})
	if cmd == nil {
		t.Fatal("state change should trigger a reload command")
	}
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
