package domain

import "time"

// MaintenanceType distinguishes preventive work from scheduled service.
type MaintenanceType string

const (
	MaintenanceTypePreventive MaintenanceType = "PREVENTIVE"
	MaintenanceTypeScheduled  MaintenanceType = "SCHEDULED"
)

// MaintenanceTicket is a preventive work order against one piece of equipment.
type MaintenanceTicket struct {
	ID              string
	TicketNumber    string
	EquipmentID     string
	MaintenanceType MaintenanceType
	Status          TicketStatus
	Priority        TicketPriority
	Description     string

	RequestedBy  string
	AssignedTo   *string
	ApprovedBy   *string
	ApprovedDate *time.Time

	ScheduledDate   *time.Time
	ActualStartDate *time.Time
	ActualEndDate   *time.Time

	Tasks         []Task
	MaterialsUsed []MaterialUsage
	Costs         Costs

	OperatingHoursAtCompletion float64
	Notes                      string
	IsActive                   bool
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}
