package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateMaintenanceTicketRequest payload.
type CreateMaintenanceTicketRequest struct {
	EquipmentID     string                 `json:"equipment_id" validate:"required"`
	MaintenanceType domain.MaintenanceType `json:"maintenance_type"`
	Priority        domain.TicketPriority  `json:"priority"`
	Description     string                 `json:"description" validate:"required"`
	ScheduledDate   *time.Time             `json:"scheduled_date"`
	Tasks           []string               `json:"tasks"`
}

// CreateRepairTicketRequest payload.
type CreateRepairTicketRequest struct {
	EquipmentID        string                `json:"equipment_id" validate:"required"`
	RepairType         domain.RepairType     `json:"repair_type"`
	Priority           domain.TicketPriority `json:"priority"`
	FailureDescription string                `json:"failure_description" validate:"required"`
	ScheduledDate      *time.Time            `json:"scheduled_date"`
	Tasks              []string              `json:"tasks"`
}

// AddMaterialRequest payload for recording a consumed part on a ticket.
type AddMaterialRequest struct {
	MaterialID   string  `json:"material_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
	WarrantyItem bool    `json:"warranty_item"`
}

// UpdateTaskRequest payload.
type UpdateTaskRequest struct {
	Status domain.TaskStatus `json:"status" validate:"required"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// DiagnoseRequest payload.
type DiagnoseRequest struct {
	RootCause string `json:"root_cause"`
	Diagnosis string `json:"diagnosis" validate:"required"`
}

// AddExternalServiceRequest payload.
type AddExternalServiceRequest struct {
	ServiceName string    `json:"service_name" validate:"required"`
	Provider    string    `json:"provider"`
	Cost        float64   `json:"cost" validate:"gte=0"`
	ServiceDate time.Time `json:"service_date"`
}

// CompleteMaintenanceRequest payload.
type CompleteMaintenanceRequest struct {
	LaborCost                  float64 `json:"labor_cost" validate:"gte=0"`
	OverheadCost               float64 `json:"overhead_cost" validate:"gte=0"`
	OperatingHoursAtCompletion float64 `json:"operating_hours_at_completion" validate:"gte=0"`
	Notes                      string  `json:"notes"`
}

// CompleteRepairRequest payload.
type CompleteRepairRequest struct {
	Solution                   string  `json:"solution"`
	LaborCost                  float64 `json:"labor_cost" validate:"gte=0"`
	OverheadCost               float64 `json:"overhead_cost" validate:"gte=0"`
	OperatingHoursAtCompletion float64 `json:"operating_hours_at_completion" validate:"gte=0"`
	Notes                      string  `json:"notes"`
}

// CostsResponse is the frozen financial block on a ticket.
type CostsResponse struct {
	LaborCost           float64 `json:"labor_cost"`
	MaterialCost        float64 `json:"material_cost"`
	ExternalServiceCost float64 `json:"external_service_cost"`
	OverheadCost        float64 `json:"overhead_cost"`
	TotalCost           float64 `json:"total_cost"`
}

// DowntimeResponse is the production-impact block on a completed repair.
type DowntimeResponse struct {
	TotalDowntimeMinutes    float64 `json:"total_downtime_minutes"`
	AdjustedDowntimeMinutes float64 `json:"adjusted_downtime_minutes"`
	ProductionLossUnits     float64 `json:"production_loss_units"`
	ProductionLossValue     float64 `json:"production_loss_value"`
	AdjustedLossUnits       float64 `json:"adjusted_loss_units"`
	AdjustedLossValue       float64 `json:"adjusted_loss_value"`
	Unit                    string  `json:"unit"`
	ImpactMultiplier        float64 `json:"impact_multiplier"`
}

// MaintenanceTicketResponse is the full maintenance work-order view.
type MaintenanceTicketResponse struct {
	ID                         string                 `json:"id"`
	TicketNumber               string                 `json:"ticket_number"`
	EquipmentID                string                 `json:"equipment_id"`
	MaintenanceType            domain.MaintenanceType `json:"maintenance_type"`
	Status                     domain.TicketStatus    `json:"status"`
	Priority                   domain.TicketPriority  `json:"priority"`
	Description                string                 `json:"description"`
	RequestedBy                string                 `json:"requested_by"`
	AssignedTo                 *string                `json:"assigned_to,omitempty"`
	ApprovedBy                 *string                `json:"approved_by,omitempty"`
	ApprovedDate               *time.Time             `json:"approved_date,omitempty"`
	ScheduledDate              *time.Time             `json:"scheduled_date,omitempty"`
	ActualStartDate            *time.Time             `json:"actual_start_date,omitempty"`
	ActualEndDate              *time.Time             `json:"actual_end_date,omitempty"`
	Tasks                      []domain.Task          `json:"tasks"`
	MaterialsUsed              []domain.MaterialUsage `json:"materials_used"`
	Costs                      CostsResponse          `json:"costs"`
	OperatingHoursAtCompletion float64                `json:"operating_hours_at_completion,omitempty"`
	Notes                      string                 `json:"notes,omitempty"`
	CreatedAt                  time.Time              `json:"created_at"`
	UpdatedAt                  time.Time              `json:"updated_at"`
}

// RepairTicketResponse is the full repair work-order view.
type RepairTicketResponse struct {
	ID                         string                   `json:"id"`
	TicketNumber               string                   `json:"ticket_number"`
	EquipmentID                string                   `json:"equipment_id"`
	RepairType                 domain.RepairType        `json:"repair_type"`
	Status                     domain.TicketStatus      `json:"status"`
	Priority                   domain.TicketPriority    `json:"priority"`
	FailureDescription         string                   `json:"failure_description"`
	RootCause                  string                   `json:"root_cause,omitempty"`
	Diagnosis                  string                   `json:"diagnosis,omitempty"`
	Solution                   string                   `json:"solution,omitempty"`
	RequestedBy                string                   `json:"requested_by"`
	AssignedTo                 *string                  `json:"assigned_to,omitempty"`
	ApprovedBy                 *string                  `json:"approved_by,omitempty"`
	ApprovedDate               *time.Time               `json:"approved_date,omitempty"`
	ScheduledDate              *time.Time               `json:"scheduled_date,omitempty"`
	ActualStartDate            *time.Time               `json:"actual_start_date,omitempty"`
	ActualEndDate              *time.Time               `json:"actual_end_date,omitempty"`
	Tasks                      []domain.Task            `json:"tasks"`
	MaterialsUsed              []domain.MaterialUsage   `json:"materials_used"`
	ExternalServices           []domain.ExternalService `json:"external_services"`
	Costs                      CostsResponse            `json:"costs"`
	Downtime                   *DowntimeResponse        `json:"downtime,omitempty"`
	OperatingHoursAtCompletion float64                  `json:"operating_hours_at_completion,omitempty"`
	Notes                      string                   `json:"notes,omitempty"`
	CreatedAt                  time.Time                `json:"created_at"`
	UpdatedAt                  time.Time                `json:"updated_at"`
}

// ToMaintenanceTicketResponse maps a maintenance ticket to its API shape.
func ToMaintenanceTicketResponse(ticket *domain.MaintenanceTicket) MaintenanceTicketResponse {
	return MaintenanceTicketResponse{
		ID:                         ticket.ID,
		TicketNumber:               ticket.TicketNumber,
		EquipmentID:                ticket.EquipmentID,
		MaintenanceType:            ticket.MaintenanceType,
		Status:                     ticket.Status,
		Priority:                   ticket.Priority,
		Description:                ticket.Description,
		RequestedBy:                ticket.RequestedBy,
		AssignedTo:                 ticket.AssignedTo,
		ApprovedBy:                 ticket.ApprovedBy,
		ApprovedDate:               ticket.ApprovedDate,
		ScheduledDate:              ticket.ScheduledDate,
		ActualStartDate:            ticket.ActualStartDate,
		ActualEndDate:              ticket.ActualEndDate,
		Tasks:                      ticket.Tasks,
		MaterialsUsed:              ticket.MaterialsUsed,
		Costs:                      toCostsResponse(ticket.Costs),
		OperatingHoursAtCompletion: ticket.OperatingHoursAtCompletion,
		Notes:                      ticket.Notes,
		CreatedAt:                  ticket.CreatedAt,
		UpdatedAt:                  ticket.UpdatedAt,
	}
}

// ToRepairTicketResponse maps a repair ticket to its API shape.
func ToRepairTicketResponse(ticket *domain.RepairTicket) RepairTicketResponse {
	return RepairTicketResponse{
		ID:                         ticket.ID,
		TicketNumber:               ticket.TicketNumber,
		EquipmentID:                ticket.EquipmentID,
		RepairType:                 ticket.RepairType,
		Status:                     ticket.Status,
		Priority:                   ticket.Priority,
		FailureDescription:         ticket.FailureDescription,
		RootCause:                  ticket.RootCause,
		Diagnosis:                  ticket.Diagnosis,
		Solution:                   ticket.Solution,
		RequestedBy:                ticket.RequestedBy,
		AssignedTo:                 ticket.AssignedTo,
		ApprovedBy:                 ticket.ApprovedBy,
		ApprovedDate:               ticket.ApprovedDate,
		ScheduledDate:              ticket.ScheduledDate,
		ActualStartDate:            ticket.ActualStartDate,
		ActualEndDate:              ticket.ActualEndDate,
		Tasks:                      ticket.Tasks,
		MaterialsUsed:              ticket.MaterialsUsed,
		ExternalServices:           ticket.ExternalServices,
		Costs:                      toCostsResponse(ticket.Costs),
		Downtime:                   toDowntimeResponse(ticket.Downtime),
		OperatingHoursAtCompletion: ticket.OperatingHoursAtCompletion,
		Notes:                      ticket.Notes,
		CreatedAt:                  ticket.CreatedAt,
		UpdatedAt:                  ticket.UpdatedAt,
	}
}

func toCostsResponse(costs domain.Costs) CostsResponse {
	return CostsResponse{
		LaborCost:           costs.LaborCost,
		MaterialCost:        costs.MaterialCost,
		ExternalServiceCost: costs.ExternalServiceCost,
		OverheadCost:        costs.OverheadCost,
		TotalCost:           costs.TotalCost,
	}
}

func toDowntimeResponse(downtime *domain.Downtime) *DowntimeResponse {
	if downtime == nil {
		return nil
	}
	return &DowntimeResponse{
		TotalDowntimeMinutes:    downtime.TotalDowntimeMinutes,
		AdjustedDowntimeMinutes: downtime.AdjustedDowntimeMinutes,
		ProductionLossUnits:     downtime.ProductionLossUnits,
		ProductionLossValue:     downtime.ProductionLossValue,
		AdjustedLossUnits:       downtime.AdjustedLossUnits,
		AdjustedLossValue:       downtime.AdjustedLossValue,
		Unit:                    downtime.Unit,
		ImpactMultiplier:        downtime.ImpactMultiplier,
	}
}
