package cmd

import (
	"github.com/Iron-Ham/foreman/internal/orchestrator"
	"github.com/Iron-Ham/foreman/internal/tui"
)

// renderReport produces the styled ticket-by-ticket report printed by both
// run and status. The TUI watcher renders the same view.
func renderReport(report *orchestrator.StatusReport) string {
	return tui.RenderReport(report)
}
