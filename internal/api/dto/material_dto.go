package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateMaterialRequest payload.
type CreateMaterialRequest struct {
	Code          string  `json:"code" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Category      string  `json:"category"`
	Unit          string  `json:"unit"`
	InitialStock  float64 `json:"initial_stock" validate:"gte=0"`
	MinStockLevel float64 `json:"min_stock_level" validate:"gte=0"`
	MaxStockLevel float64 `json:"max_stock_level" validate:"gte=0"`
	UnitPrice     float64 `json:"unit_price" validate:"gte=0"`
}

// UpdateMaterialRequest payload. Stock is absent: it only moves through the
// ledger endpoints.
type UpdateMaterialRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	MinStockLevel *float64 `json:"min_stock_level"`
	MaxStockLevel *float64 `json:"max_stock_level"`
	UnitPrice     *float64 `json:"unit_price"`
}

// ConsumeRequest payload.
type ConsumeRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Reason   string  `json:"reason"`
}

// RestockRequest payload.
type RestockRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Reason   string  `json:"reason"`
}

// ReverseTransactionRequest payload.
type ReverseTransactionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// MaterialResponse is the catalog view of one spare part.
type MaterialResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Category      string    `json:"category,omitempty"`
	Unit          string    `json:"unit,omitempty"`
	CurrentStock  float64   `json:"current_stock"`
	MinStockLevel float64   `json:"min_stock_level"`
	MaxStockLevel float64   `json:"max_stock_level"`
	UnitPrice     float64   `json:"unit_price"`
	BelowMinStock bool      `json:"below_min_stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID                    string                 `json:"id"`
	TransactionNumber     string                 `json:"transaction_number"`
	MaterialID            string                 `json:"material_id"`
	Type                  domain.TransactionType `json:"type"`
	Quantity              float64                `json:"quantity"`
	PreviousStock         float64                `json:"previous_stock"`
	NewStock              float64                `json:"new_stock"`
	UnitPrice             float64                `json:"unit_price"`
	RelatedTicket         *domain.TicketRef      `json:"related_ticket,omitempty"`
	ReversedTransactionID *string                `json:"reversed_transaction_id,omitempty"`
	Reason                string                 `json:"reason,omitempty"`
	PerformedBy           string                 `json:"performed_by"`
	CreatedAt             time.Time              `json:"created_at"`
}

// ToMaterialResponse maps a domain material to its API shape.
func ToMaterialResponse(material *domain.Material) MaterialResponse {
	return MaterialResponse{
		ID:            material.ID,
		Code:          material.Code,
		Name:          material.Name,
		Category:      material.Category,
		Unit:          material.Unit,
		CurrentStock:  material.CurrentStock,
		MinStockLevel: material.MinStockLevel,
		MaxStockLevel: material.MaxStockLevel,
		UnitPrice:     material.UnitPrice,
		BelowMinStock: material.BelowMinStock(),
		CreatedAt:     material.CreatedAt,
		UpdatedAt:     material.UpdatedAt,
	}
}

// ToTransactionResponse maps a ledger entry to its API shape.
func ToTransactionResponse(transaction *domain.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:                    transaction.ID,
		TransactionNumber:     transaction.TransactionNumber,
		MaterialID:            transaction.MaterialID,
		Type:                  transaction.Type,
		Quantity:              transaction.Quantity,
		PreviousStock:         transaction.PreviousStock,
		NewStock:              transaction.NewStock,
		UnitPrice:             transaction.UnitPrice,
		RelatedTicket:         transaction.RelatedTicket,
		ReversedTransactionID: transaction.ReversedTransactionID,
		Reason:                transaction.Reason,
		PerformedBy:           transaction.PerformedBy,
		CreatedAt:             transaction.CreatedAt,
	}
}
