package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// InventoryService manages spare parts and the stock ledger.
type InventoryService struct {
	materials    repository.MaterialRepository
	transactions repository.InventoryTransactionRepository
	dispatcher   events.Dispatcher
}

// InventoryDependencies bundles collaborators for the inventory service.
type InventoryDependencies struct {
	MaterialRepo    repository.MaterialRepository
	TransactionRepo repository.InventoryTransactionRepository
	Dispatcher      events.Dispatcher
}

// MaterialCreateInput describes a new spare part.
type MaterialCreateInput struct {
	Code          string
	Name          string
	Category      string
	Unit          string
	InitialStock  float64
	MinStockLevel float64
	MaxStockLevel float64
	UnitPrice     float64
}

// MaterialUpdateInput describes mutable material fields. Stock is absent on
// purpose; it only moves through the ledger.
type MaterialUpdateInput struct {
	Name          *string
	Category      *string
	MinStockLevel *float64
	MaxStockLevel *float64
	UnitPrice     *float64
}

// ConsumeInput describes one stock withdrawal.
type ConsumeInput struct {
	MaterialID  string
	Quantity    float64
	Ticket      *domain.TicketRef
	Reason      string
	PerformedBy string
}

// RestockInput describes one stock replenishment.
type RestockInput struct {
	MaterialID  string
	Quantity    float64
	Reason      string
	PerformedBy string
}

// NewInventoryService constructs the service.
func NewInventoryService(deps InventoryDependencies) *InventoryService {
	return &InventoryService{
		materials:    deps.MaterialRepo,
		transactions: deps.TransactionRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// CreateMaterial registers a spare part.
func (s *InventoryService) CreateMaterial(ctx context.Context, input MaterialCreateInput) (*domain.Material, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" || input.Name == "" {
		return nil, apperrors.NewValidationError("code and name are required", nil)
	}
	if input.InitialStock < 0 || input.MinStockLevel < 0 || input.UnitPrice < 0 {
		return nil, apperrors.NewValidationError("stock levels and price cannot be negative", nil)
	}

	material := &domain.Material{
		Code:          input.Code,
		Name:          input.Name,
		Category:      input.Category,
		Unit:          input.Unit,
		CurrentStock:  input.InitialStock,
		MinStockLevel: input.MinStockLevel,
		MaxStockLevel: input.MaxStockLevel,
		UnitPrice:     input.UnitPrice,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, apperrors.NewDuplicateCode("material", material.Code)
		}
		return nil, err
	}
	return material, nil
}

// GetMaterial fetches a material by id.
func (s *InventoryService) GetMaterial(ctx context.Context, id string) (*domain.Material, error) {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, mapMaterialError(err)
	}
	return material, nil
}

// ListMaterials returns materials matching the filter.
func (s *InventoryService) ListMaterials(ctx context.Context, filter repository.MaterialFilter) ([]domain.Material, error) {
	return s.materials.List(ctx, filter)
}

// UpdateMaterial changes catalog fields of a material.
func (s *InventoryService) UpdateMaterial(ctx context.Context, id string, input MaterialUpdateInput) (*domain.Material, error) {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, mapMaterialError(err)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		material.Name = name
	}
	if input.Category != nil {
		material.Category = *input.Category
	}
	if input.MinStockLevel != nil {
		if *input.MinStockLevel < 0 {
			return nil, apperrors.NewValidationError("min stock level cannot be negative", nil)
		}
		material.MinStockLevel = *input.MinStockLevel
	}
	if input.MaxStockLevel != nil {
		material.MaxStockLevel = *input.MaxStockLevel
	}
	if input.UnitPrice != nil {
		if *input.UnitPrice < 0 {
			return nil, apperrors.NewValidationError("unit price cannot be negative", nil)
		}
		material.UnitPrice = *input.UnitPrice
	}
	if err := s.materials.Update(ctx, material); err != nil {
		return nil, mapMaterialError(err)
	}
	return material, nil
}

// DeactivateMaterial soft-deletes a material. Its ledger history stays.
func (s *InventoryService) DeactivateMaterial(ctx context.Context, id string) error {
	if err := s.materials.Deactivate(ctx, id); err != nil {
		return mapMaterialError(err)
	}
	return nil
}

// Consume withdraws stock atomically and records the ledger entry. The
// decrement either fully succeeds or nothing changes.
func (s *InventoryService) Consume(ctx context.Context, input ConsumeInput) (*domain.InventoryTransaction, *domain.Material, error) {
	if input.Quantity <= 0 {
		return nil, nil, apperrors.NewValidationError("quantity must be positive", nil)
	}

	transaction, material, err := s.transactions.Consume(ctx, repository.ConsumeInput{
		MaterialID:  input.MaterialID,
		Quantity:    input.Quantity,
		Ticket:      input.Ticket,
		Reason:      input.Reason,
		PerformedBy: input.PerformedBy,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, nil, apperrors.NewInsufficientStock(input.MaterialID, input.Quantity)
		}
		return nil, nil, mapMaterialError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventMaterialConsumed,
		Subject: material.ID,
		ActorID: input.PerformedBy,
		Payload: events.MaterialConsumedPayload{
			TransactionNumber: transaction.TransactionNumber,
			MaterialID:        material.ID,
			Quantity:          input.Quantity,
			NewStock:          material.CurrentStock,
			RelatedTicket:     input.Ticket,
		},
	})
	if material.BelowMinStock() {
		publish(ctx, s.dispatcher, events.Event{
			Type:    events.EventStockLow,
			Subject: material.ID,
			Payload: events.StockLowPayload{
				MaterialID:    material.ID,
				MaterialCode:  material.Code,
				CurrentStock:  material.CurrentStock,
				MinStockLevel: material.MinStockLevel,
			},
		})
	}
	return transaction, material, nil
}

// Restock adds stock and records the ledger entry.
func (s *InventoryService) Restock(ctx context.Context, input RestockInput) (*domain.InventoryTransaction, *domain.Material, error) {
	if input.Quantity <= 0 {
		return nil, nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	transaction, material, err := s.transactions.Restock(ctx, repository.RestockInput{
		MaterialID:  input.MaterialID,
		Quantity:    input.Quantity,
		Reason:      input.Reason,
		PerformedBy: input.PerformedBy,
	})
	if err != nil {
		return nil, nil, mapMaterialError(err)
	}
	return transaction, material, nil
}

// ReverseTransaction compensates an earlier ledger entry with an
// opposite-signed one. The original entry is never edited.
func (s *InventoryService) ReverseTransaction(ctx context.Context, transactionID, reason, performedBy string) (*domain.InventoryTransaction, error) {
	reversal, err := s.transactions.Reverse(ctx, transactionID, reason, performedBy)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound("inventory transaction", nil)
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, apperrors.NewConflict("reversal would drive stock negative", nil)
		case errors.Is(err, repository.ErrReversalOfReversal):
			return nil, apperrors.NewIllegalOperation("cannot reverse a reversal")
		default:
			return nil, err
		}
	}
	return reversal, nil
}

// GetTransaction fetches a ledger entry by id.
func (s *InventoryService) GetTransaction(ctx context.Context, id string) (*domain.InventoryTransaction, error) {
	transaction, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("inventory transaction", nil)
		}
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns ledger entries matching the filter.
func (s *InventoryService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]domain.InventoryTransaction, error) {
	return s.transactions.List(ctx, filter)
}

func mapMaterialError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("material", nil)
	case errors.Is(err, repository.ErrDuplicateCode):
		return apperrors.NewDuplicateCode("material", "")
	default:
		return err
	}
}
