package orchestrator

import (
	"sort"

	"github.com/Iron-Ham/foreman/internal/state"
)

// StatusReport is the read-only view of a workflow's run state returned by
// Run and LoadStatus.
type StatusReport struct {
	WorkflowName string
	StatePath    string
	Tickets      []state.TicketRunState
}

// HasRunningTicket reports whether any ticket is mid-step. A true result
// from a loaded snapshot can also mean the previous run crashed mid-step.
func (r *StatusReport) HasRunningTicket() bool {
	for i := range r.Tickets {
		if r.Tickets[i].Status.IsRunning() {
			return true
		}
	}
	return false
}

// ReportFromState flattens a WorkflowState into a report, with tickets
// ordered by id so output is deterministic.
func ReportFromState(st *state.WorkflowState, statePath string) *StatusReport {
	tickets := make([]state.TicketRunState, 0, len(st.Tickets))
	for _, entry := range st.Tickets {
		tickets = append(tickets, *entry)
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].TicketID < tickets[j].TicketID
	})
	return &StatusReport{
		WorkflowName: st.WorkflowName,
		StatePath:    statePath,
		Tickets:      tickets,
	}
}
