package domain

import "testing"

func TestMaintenanceTransitionClosure(t *testing.T) {
	all := []TicketStatus{
		TicketStatusPending, TicketStatusApproved, TicketStatusInProgress,
		TicketStatusOnHold, TicketStatusCompleted, TicketStatusCancelled,
	}
	legal := map[[2]TicketStatus]bool{
		{TicketStatusPending, TicketStatusApproved}:     true,
		{TicketStatusPending, TicketStatusInProgress}:   true,
		{TicketStatusPending, TicketStatusOnHold}:       true,
		{TicketStatusPending, TicketStatusCancelled}:    true,
		{TicketStatusApproved, TicketStatusInProgress}:  true,
		{TicketStatusApproved, TicketStatusOnHold}:      true,
		{TicketStatusApproved, TicketStatusCancelled}:   true,
		{TicketStatusInProgress, TicketStatusCompleted}: true,
		{TicketStatusInProgress, TicketStatusOnHold}:    true,
		{TicketStatusInProgress, TicketStatusCancelled}: true,
		{TicketStatusOnHold, TicketStatusInProgress}:    true,
		{TicketStatusOnHold, TicketStatusCancelled}:     true,
	}
	for _, from := range all {
		for _, to := range all {
			got := MaintenanceTransitions.CanTransition(from, to)
			want := legal[[2]TicketStatus{from, to}]
			if got != want {
				t.Errorf("maintenance %s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRepairTransitionsAllowSkippingApproval(t *testing.T) {
	if !RepairTransitions.CanTransition(TicketStatusPending, TicketStatusDiagnosed) {
		t.Error("expected PENDING -> DIAGNOSED to be legal for repairs")
	}
	if !RepairTransitions.CanTransition(TicketStatusPending, TicketStatusInProgress) {
		t.Error("expected PENDING -> IN_PROGRESS to be legal for repairs")
	}
	if MaintenanceTransitions.CanTransition(TicketStatusPending, TicketStatusDiagnosed) {
		t.Error("DIAGNOSED must not be reachable for maintenance tickets")
	}
}

func TestTerminalStates(t *testing.T) {
	for _, table := range []TransitionTable{MaintenanceTransitions, RepairTransitions} {
		for _, status := range []TicketStatus{TicketStatusCompleted, TicketStatusCancelled} {
			if !table.IsTerminal(status) {
				t.Errorf("expected %s to be terminal", status)
			}
		}
		if table.IsTerminal(TicketStatusOnHold) {
			t.Error("ON_HOLD must be resumable")
		}
	}
}
