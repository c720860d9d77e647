// Package tui renders workflow status reports for the terminal and provides
// the live watcher behind `foreman status --watch`.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/foreman/internal/orchestrator"
	"github.com/Iron-Ham/foreman/internal/state"
	"github.com/Iron-Ham/foreman/internal/util"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Faint(true)
	noteStyle   = lipgloss.NewStyle().Faint(true)

	statusStyles = map[state.TicketStatus]lipgloss.Style{
		state.StatusPending:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		state.StatusRunningWorker: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		state.StatusNeedsReview:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		state.StatusRunningReview: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		state.StatusComplete:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		state.StatusFailed:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		state.StatusBlocked:       lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

// maxNoteWidth bounds the note column so one long note cannot wreck the
// report layout on narrow terminals.
const maxNoteWidth = 80

// RenderReport formats a status report, one ticket per line with its status
// and last-action note, followed by the recorded session log paths.
func RenderReport(report *orchestrator.StatusReport) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Workflow: " + report.WorkflowName))
	b.WriteByte('\n')
	b.WriteString(pathStyle.Render("State file: " + report.StatePath))
	b.WriteByte('\n')

	for _, ticket := range report.Tickets {
		note := ticket.Note
		if note == "" {
			note = "No status note recorded yet."
		}
		b.WriteString(fmt.Sprintf("- %-12s %s %s\n",
			ticket.TicketID,
			renderStatus(ticket.Status),
			noteStyle.Render(util.TruncateANSI(note, maxNoteWidth))))
		if ticket.WorkerLog != "" {
			b.WriteString(pathStyle.Render("    worker log: " + ticket.WorkerLog))
			b.WriteByte('\n')
		}
		if ticket.ReviewLog != "" {
			b.WriteString(pathStyle.Render("    review log: " + ticket.ReviewLog))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderStatus(s state.TicketStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(fmt.Sprintf("%-15s", string(s)))
}
