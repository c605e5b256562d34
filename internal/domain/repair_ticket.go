package domain

import "time"

// RepairType distinguishes planned corrective work from emergencies.
type RepairType string

const (
	RepairTypeCorrective RepairType = "CORRECTIVE"
	RepairTypeEmergency  RepairType = "EMERGENCY"
)

// RepairTicket is a corrective work order against one piece of equipment.
type RepairTicket struct {
	ID           string
	TicketNumber string
	EquipmentID  string
	RepairType   RepairType
	Status       TicketStatus
	Priority     TicketPriority

	FailureDescription string
	RootCause          string
	Diagnosis          string
	Solution           string

	RequestedBy  string
	AssignedTo   *string
	ApprovedBy   *string
	ApprovedDate *time.Time

	ScheduledDate   *time.Time
	ActualStartDate *time.Time
	ActualEndDate   *time.Time

	Tasks            []Task
	MaterialsUsed    []MaterialUsage
	ExternalServices []ExternalService
	Costs            Costs
	Downtime         *Downtime

	OperatingHoursAtCompletion float64
	Notes                      string
	IsActive                   bool
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}
