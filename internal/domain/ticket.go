package domain

import "time"

// TicketStatus enumerates lifecycle states shared by both ticket kinds.
// DIAGNOSED is reachable for repair tickets only.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusApproved   TicketStatus = "APPROVED"
	TicketStatusDiagnosed  TicketStatus = "DIAGNOSED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TaskStatus enumerates states of an embedded checklist task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusSkipped    TaskStatus = "SKIPPED"
)

// Task is a single checklist item embedded on a ticket.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MaterialUsage is one consumed-material line on a ticket. TotalCost equals
// QuantityUsed * UnitPrice, and both are zero for warranty items.
type MaterialUsage struct {
	MaterialID   string    `json:"material_id"`
	MaterialCode string    `json:"material_code"`
	QuantityUsed float64   `json:"quantity_used"`
	UnitPrice    float64   `json:"unit_price"`
	TotalCost    float64   `json:"total_cost"`
	WarrantyItem bool      `json:"warranty_item"`
	RecordedAt   time.Time `json:"recorded_at"`
	RecordedBy   string    `json:"recorded_by"`
}

// ExternalService is a third-party job billed against a repair ticket.
type ExternalService struct {
	ServiceName string    `json:"service_name"`
	Provider    string    `json:"provider"`
	Cost        float64   `json:"cost"`
	ServiceDate time.Time `json:"service_date"`
}

// Costs is the frozen financial summary of a ticket. TotalCost always equals
// the sum of its components; it is recomputed from scratch on every change.
type Costs struct {
	LaborCost           float64 `json:"labor_cost"`
	MaterialCost        float64 `json:"material_cost"`
	ExternalServiceCost float64 `json:"external_service_cost"`
	OverheadCost        float64 `json:"overhead_cost"`
	TotalCost           float64 `json:"total_cost"`
}

// Downtime captures the production impact of a repair. Raw figures are kept
// alongside the adjusted ones for auditability.
type Downtime struct {
	TotalDowntimeMinutes    float64 `json:"total_downtime_minutes"`
	AdjustedDowntimeMinutes float64 `json:"adjusted_downtime_minutes"`
	ProductionLossUnits     float64 `json:"production_loss_units"`
	ProductionLossValue     float64 `json:"production_loss_value"`
	AdjustedLossUnits       float64 `json:"adjusted_loss_units"`
	AdjustedLossValue       float64 `json:"adjusted_loss_value"`
	Unit                    string  `json:"unit"`
	ImpactMultiplier        float64 `json:"impact_multiplier"`
}
