package orchestrator

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/foreman/internal/layout"
	"github.com/Iron-Ham/foreman/internal/manifest"
	"github.com/Iron-Ham/foreman/internal/util"
)

// promptWidth is the column the generated prompt text is wrapped to. The
// wrapping is for log readability only and has no semantic effect.
const promptWidth = 100

// BuildWorkerPrompt generates the worker session prompt for a ticket that
// does not supply an explicit override: the workflow overview (if present),
// the ticket id and summary, a bulleted requirements list (if any), and an
// instruction naming the ticket's patch directory.
func BuildWorkerPrompt(m *manifest.Manifest, ticket *manifest.TicketSpec, lay layout.Layout) string {
	var sections []string
	if m.Overview != "" {
		sections = append(sections, fmt.Sprintf("Workflow overview:\n%s\n", m.Overview))
	}
	sections = append(sections, fmt.Sprintf("Ticket %s: %s\n", ticket.ID, ticket.Summary))
	if len(ticket.Requirements) > 0 {
		sections = append(sections, fmt.Sprintf("Requirements:\n%s\n", bulletList(ticket.Requirements)))
	}
	sections = append(sections, fmt.Sprintf(
		"Work inside the repository directory and save any generated patches or notes under %s. "+
			"Log your progress clearly.", lay.PatchDir(ticket.ID)))
	return wrapSections(sections)
}

// BuildReviewPrompt generates the review session prompt: the overview, a
// review instruction naming the ticket, the requirements as an acceptance
// checklist, and a pointer to the worker's log.
func BuildReviewPrompt(m *manifest.Manifest, ticket *manifest.TicketSpec, lay layout.Layout) string {
	var sections []string
	if m.Overview != "" {
		sections = append(sections, fmt.Sprintf("Workflow overview:\n%s\n", m.Overview))
	}
	sections = append(sections, fmt.Sprintf(
		"Review ticket %s (%s) for correctness and completeness.", ticket.ID, ticket.Summary))
	if len(ticket.Requirements) > 0 {
		sections = append(sections, fmt.Sprintf(
			"Confirm that the following requirements are satisfied:\n%s\n", bulletList(ticket.Requirements)))
	}
	sections = append(sections, fmt.Sprintf(
		"Consult the worker log at %s and ensure all changes are tested. "+
			"Provide a concise approval or list blocking issues.", lay.WorkerLogPath(ticket.ID)))
	return wrapSections(sections)
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// wrapSections word-wraps each section and joins them with blank lines.
func wrapSections(sections []string) string {
	wrapped := make([]string, len(sections))
	for i, section := range sections {
		wrapped[i] = strings.TrimRight(util.WrapText(section, promptWidth), "\n")
	}
	return strings.TrimSpace(strings.Join(wrapped, "\n\n"))
}
