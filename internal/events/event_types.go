package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketApproved  EventType = "ticket_approved"
	EventTicketDiagnosed EventType = "ticket_diagnosed"
	EventTicketStarted   EventType = "ticket_started"
	EventTicketOnHold    EventType = "ticket_on_hold"
	EventTicketCancelled EventType = "ticket_cancelled"
	EventTicketCompleted EventType = "ticket_completed"
	EventTicketAssigned  EventType = "ticket_assigned"

	EventMaterialConsumed EventType = "material_consumed"
	EventStockLow         EventType = "stock_low"
	EventMaintenanceDue   EventType = "maintenance_due"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketLifecyclePayload describes a ticket transition.
type TicketLifecyclePayload struct {
	TicketNumber string              `json:"ticket_number"`
	TicketType   domain.TicketType   `json:"ticket_type"`
	EquipmentID  string              `json:"equipment_id"`
	OldStatus    domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus    domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload describes an assignment change.
type TicketAssignedPayload struct {
	TicketNumber string            `json:"ticket_number"`
	TicketType   domain.TicketType `json:"ticket_type"`
	AssignedTo   string            `json:"assigned_to"`
}

// MaterialConsumedPayload describes one ledger consumption.
type MaterialConsumedPayload struct {
	TransactionNumber string            `json:"transaction_number"`
	MaterialID        string            `json:"material_id"`
	Quantity          float64           `json:"quantity"`
	NewStock          float64           `json:"new_stock"`
	RelatedTicket     *domain.TicketRef `json:"related_ticket,omitempty"`
}

// StockLowPayload fires when consumption pushes stock under the minimum.
type StockLowPayload struct {
	MaterialID    string  `json:"material_id"`
	MaterialCode  string  `json:"material_code"`
	CurrentStock  float64 `json:"current_stock"`
	MinStockLevel float64 `json:"min_stock_level"`
}

// MaintenanceDuePayload announces equipment that crossed its milestone.
type MaintenanceDuePayload struct {
	EquipmentCode        string               `json:"equipment_code"`
	OperatingHours       float64              `json:"operating_hours"`
	NextMaintenanceHours float64              `json:"next_maintenance_hours"`
	Urgency              string               `json:"urgency"`
	EquipmentType        domain.EquipmentType `json:"equipment_type"`
}
