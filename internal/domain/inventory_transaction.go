package domain

import "time"

// TransactionType distinguishes stock directions.
type TransactionType string

const (
	TransactionTypeInbound  TransactionType = "INBOUND"
	TransactionTypeOutbound TransactionType = "OUTBOUND"
)

// TicketType tags which ticket kind a ledger entry belongs to.
type TicketType string

const (
	TicketTypeMaintenance TicketType = "MAINTENANCE"
	TicketTypeRepair      TicketType = "REPAIR"
)

// TicketRef links a ledger entry back to the ticket that caused it.
type TicketRef struct {
	TicketType TicketType `json:"ticket_type"`
	TicketID   string     `json:"ticket_id"`
}

// InventoryTransaction is one append-only ledger entry. It is immutable once
// created; corrections are modeled as a new reversing transaction.
type InventoryTransaction struct {
	ID                string
	TransactionNumber string
	MaterialID        string
	Type              TransactionType
	// Quantity is signed: negative for OUTBOUND, positive for INBOUND.
	Quantity      float64
	PreviousStock float64
	NewStock      float64
	UnitPrice     float64
	RelatedTicket *TicketRef
	// ReversedTransactionID references the original entry when this entry is
	// a reversal.
	ReversedTransactionID *string
	Reason                string
	PerformedBy           string
	CreatedAt             time.Time
}
