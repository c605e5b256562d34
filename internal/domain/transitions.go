package domain

// TransitionTable maps each ticket status to the statuses reachable from it.
// A status with no successors is terminal. Every transition in the system is
// checked against one of these tables so guard logic lives in one place
// instead of being re-implemented per endpoint.
type TransitionTable map[TicketStatus][]TicketStatus

// CanTransition reports whether next is reachable from current.
func (t TransitionTable) CanTransition(current, next TicketStatus) bool {
	for _, candidate := range t[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transitions leave the given status.
func (t TransitionTable) IsTerminal(status TicketStatus) bool {
	return len(t[status]) == 0
}

// MaintenanceTransitions: PENDING -> APPROVED -> IN_PROGRESS -> COMPLETED,
// with CANCELLED and ON_HOLD reachable from any non-terminal state and
// ON_HOLD resumable via start.
var MaintenanceTransitions = TransitionTable{
	TicketStatusPending:    {TicketStatusApproved, TicketStatusInProgress, TicketStatusOnHold, TicketStatusCancelled},
	TicketStatusApproved:   {TicketStatusInProgress, TicketStatusOnHold, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusCompleted, TicketStatusOnHold, TicketStatusCancelled},
	TicketStatusOnHold:     {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusCompleted:  {},
	TicketStatusCancelled:  {},
}

// RepairTransitions adds the DIAGNOSED stage; approval is optional, so
// DIAGNOSED and IN_PROGRESS are reachable straight from PENDING.
var RepairTransitions = TransitionTable{
	TicketStatusPending:    {TicketStatusApproved, TicketStatusDiagnosed, TicketStatusInProgress, TicketStatusOnHold, TicketStatusCancelled},
	TicketStatusApproved:   {TicketStatusDiagnosed, TicketStatusInProgress, TicketStatusOnHold, TicketStatusCancelled},
	TicketStatusDiagnosed:  {TicketStatusInProgress, TicketStatusOnHold, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusCompleted, TicketStatusOnHold, TicketStatusCancelled},
	TicketStatusOnHold:     {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusCompleted:  {},
	TicketStatusCancelled:  {},
}
