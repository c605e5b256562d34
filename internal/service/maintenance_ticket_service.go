package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/costing"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/scheduling"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// MaintenanceTicketService drives the preventive-maintenance workflow.
type MaintenanceTicketService struct {
	tickets    repository.MaintenanceTicketRepository
	equipment  repository.EquipmentRepository
	inventory  repository.InventoryTransactionRepository
	materials  repository.MaterialRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	tx         TxRunner
	scheduler  config.SchedulerConfig
	now        func() time.Time
}

// MaintenanceTicketDependencies bundles collaborators.
type MaintenanceTicketDependencies struct {
	TicketRepo    repository.MaintenanceTicketRepository
	EquipmentRepo repository.EquipmentRepository
	InventoryRepo repository.InventoryTransactionRepository
	MaterialRepo  repository.MaterialRepository
	UserRepo      repository.UserRepository
	Dispatcher    events.Dispatcher
	Tx            TxRunner
}

// MaintenanceTicketCreateInput describes ticket creation payload.
type MaintenanceTicketCreateInput struct {
	EquipmentID     string
	MaintenanceType domain.MaintenanceType
	Priority        domain.TicketPriority
	Description     string
	ScheduledDate   *time.Time
	Tasks           []string
	RequestedBy     string
}

// TicketMaterialInput describes one material usage to record.
type TicketMaterialInput struct {
	MaterialID   string
	Quantity     float64
	WarrantyItem bool
	RecordedBy   string
}

// MaintenanceCompleteInput carries completion figures.
type MaintenanceCompleteInput struct {
	LaborCost                  float64
	OverheadCost               float64
	OperatingHoursAtCompletion float64
	Notes                      string
	CompletedBy                string
}

// NewMaintenanceTicketService constructs the service.
func NewMaintenanceTicketService(scheduler config.SchedulerConfig, deps MaintenanceTicketDependencies) *MaintenanceTicketService {
	tx := deps.Tx
	if tx == nil {
		tx = nopTxRunner{}
	}
	return &MaintenanceTicketService{
		tickets:    deps.TicketRepo,
		equipment:  deps.EquipmentRepo,
		inventory:  deps.InventoryRepo,
		materials:  deps.MaterialRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		tx:         tx,
		scheduler:  scheduler,
		now:        time.Now,
	}
}

// Create opens a PENDING ticket against active equipment.
func (s *MaintenanceTicketService) Create(ctx context.Context, input MaintenanceTicketCreateInput) (*domain.MaintenanceTicket, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	equipment, err := s.equipment.GetByID(ctx, input.EquipmentID)
	if err != nil {
		return nil, mapEquipmentError(err)
	}
	if equipment.Status == domain.EquipmentStatusScrapped {
		return nil, apperrors.NewIllegalOperation("cannot open tickets against scrapped equipment")
	}

	ticket := &domain.MaintenanceTicket{
		EquipmentID:     equipment.ID,
		MaintenanceType: input.MaintenanceType,
		Status:          domain.TicketStatusPending,
		Priority:        input.Priority,
		Description:     strings.TrimSpace(input.Description),
		RequestedBy:     input.RequestedBy,
		ScheduledDate:   input.ScheduledDate,
		Tasks:           buildTasks(input.Tasks),
	}
	if ticket.MaintenanceType == "" {
		ticket.MaintenanceType = domain.MaintenanceTypePreventive
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishLifecycle(ctx, events.EventTicketCreated, ticket, "", input.RequestedBy)
	return ticket, nil
}

// Approve moves a PENDING ticket to APPROVED.
func (s *MaintenanceTicketService) Approve(ctx context.Context, ticketID, approverID string) (*domain.MaintenanceTicket, error) {
	return s.transition(ctx, ticketID, domain.TicketStatusApproved, approverID, func(ticket *domain.MaintenanceTicket) error {
		now := s.now()
		ticket.ApprovedBy = &approverID
		ticket.ApprovedDate = &now
		return nil
	})
}

// Start claims the equipment and begins work. The claim is a conditional
// status flip, so two tickets cannot start on the same unit.
func (s *MaintenanceTicketService) Start(ctx context.Context, ticketID, actorID string) (*domain.MaintenanceTicket, error) {
	var result *domain.MaintenanceTicket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !domain.MaintenanceTransitions.CanTransition(ticket.Status, domain.TicketStatusInProgress) {
			return apperrors.NewIllegalTransition(string(ticket.Status), string(domain.TicketStatusInProgress))
		}

		if err := s.equipment.TransitionStatus(ctx, ticket.EquipmentID,
			domain.EquipmentStatusActive, domain.EquipmentStatusMaintenance); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.NewConflict("equipment is not available", map[string]any{
					"equipment_id": ticket.EquipmentID,
				})
			}
			return mapEquipmentError(err)
		}

		expected := ticket.Status
		now := s.now()
		ticket.Status = domain.TicketStatusInProgress
		if ticket.ActualStartDate == nil {
			ticket.ActualStartDate = &now
		}
		if err := s.tickets.Transition(ctx, ticket, expected); err != nil {
			return mapTicketTransitionError(err)
		}
		result = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishLifecycle(ctx, events.EventTicketStarted, result, "", actorID)
	return result, nil
}

// Hold pauses an active ticket and releases the equipment.
func (s *MaintenanceTicketService) Hold(ctx context.Context, ticketID, actorID string) (*domain.MaintenanceTicket, error) {
	return s.stop(ctx, ticketID, domain.TicketStatusOnHold, events.EventTicketOnHold, actorID, nil)
}

// Cancel terminates a ticket and releases the equipment if work had started.
func (s *MaintenanceTicketService) Cancel(ctx context.Context, ticketID, actorID string) (*domain.MaintenanceTicket, error) {
	return s.stop(ctx, ticketID, domain.TicketStatusCancelled, events.EventTicketCancelled, actorID, nil)
}

// stop implements Hold and Cancel: both leave IN_PROGRESS (or earlier states)
// and hand the unit back when it was claimed.
func (s *MaintenanceTicketService) stop(ctx context.Context, ticketID string, target domain.TicketStatus, eventType events.EventType, actorID string, mutate func(*domain.MaintenanceTicket) error) (*domain.MaintenanceTicket, error) {
	var result *domain.MaintenanceTicket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !domain.MaintenanceTransitions.CanTransition(ticket.Status, target) {
			return apperrors.NewIllegalTransition(string(ticket.Status), string(target))
		}

		wasInProgress := ticket.Status == domain.TicketStatusInProgress
		expected := ticket.Status
		ticket.Status = target
		if mutate != nil {
			if err := mutate(ticket); err != nil {
				return err
			}
		}
		if err := s.tickets.Transition(ctx, ticket, expected); err != nil {
			return mapTicketTransitionError(err)
		}
		if wasInProgress {
			if err := s.equipment.TransitionStatus(ctx, ticket.EquipmentID,
				domain.EquipmentStatusMaintenance, domain.EquipmentStatusActive); err != nil && !errors.Is(err, repository.ErrConflict) {
				return mapEquipmentError(err)
			}
		}
		result = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishLifecycle(ctx, eventType, result, "", actorID)
	return result, nil
}

// AddMaterial consumes stock and appends a usage line; stock decrement,
// ledger entry and cost update commit together. Warranty items are recorded
// at zero cost and skip the ledger entirely.
func (s *MaintenanceTicketService) AddMaterial(ctx context.Context, ticketID string, input TicketMaterialInput) (*domain.MaintenanceTicket, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	var (
		result   *domain.MaintenanceTicket
		consumed *domain.Material
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != domain.TicketStatusInProgress {
			return apperrors.NewIllegalOperation("materials can only be recorded on tickets in progress")
		}

		usage, material, err := recordMaterialUsage(ctx, s.inventory, s.materials, ticket.ID, domain.TicketTypeMaintenance, input, s.now())
		if err != nil {
			return err
		}
		ticket.MaterialsUsed = append(ticket.MaterialsUsed, *usage)
		ticket.Costs = costing.AggregateCosts(ticket.Costs, ticket.MaterialsUsed, nil)

		if err := s.tickets.Update(ctx, ticket); err != nil {
			return mapTicketTransitionError(err)
		}
		result = ticket
		consumed = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishConsumption(ctx, s.dispatcher, result.ID, domain.TicketTypeMaintenance, consumed, input)
	return result, nil
}

// recordMaterialUsage consumes stock for a ticket and builds the usage line.
// Warranty items are supplier-provided: no stock movement, no ledger entry,
// zero cost.
func recordMaterialUsage(ctx context.Context, inventory repository.InventoryTransactionRepository, materials repository.MaterialRepository, ticketID string, ticketType domain.TicketType, input TicketMaterialInput, now time.Time) (*domain.MaterialUsage, *domain.Material, error) {
	if input.WarrantyItem {
		material, err := materials.GetByID(ctx, input.MaterialID)
		if err != nil {
			return nil, nil, mapConsumeError(err, input)
		}
		return &domain.MaterialUsage{
			MaterialID:   material.ID,
			MaterialCode: material.Code,
			QuantityUsed: input.Quantity,
			UnitPrice:    0,
			TotalCost:    0,
			WarrantyItem: true,
			RecordedAt:   now,
			RecordedBy:   input.RecordedBy,
		}, material, nil
	}

	_, material, err := inventory.Consume(ctx, repository.ConsumeInput{
		MaterialID:  input.MaterialID,
		Quantity:    input.Quantity,
		Ticket:      &domain.TicketRef{TicketType: ticketType, TicketID: ticketID},
		Reason:      "ticket material usage",
		PerformedBy: input.RecordedBy,
	})
	if err != nil {
		return nil, nil, mapConsumeError(err, input)
	}
	usage := &domain.MaterialUsage{
		MaterialID:   material.ID,
		MaterialCode: material.Code,
		QuantityUsed: input.Quantity,
		UnitPrice:    material.UnitPrice,
		TotalCost:    costing.MaterialLineCost(input.Quantity, material.UnitPrice, false),
		WarrantyItem: false,
		RecordedAt:   now,
		RecordedBy:   input.RecordedBy,
	}
	return usage, material, nil
}

// publishConsumption mirrors the inventory service's events for consumptions
// that happen through a ticket.
func publishConsumption(ctx context.Context, dispatcher events.Dispatcher, ticketID string, ticketType domain.TicketType, material *domain.Material, input TicketMaterialInput) {
	if input.WarrantyItem || material == nil {
		return
	}
	ref := &domain.TicketRef{TicketType: ticketType, TicketID: ticketID}
	publish(ctx, dispatcher, events.Event{
		Type:    events.EventMaterialConsumed,
		Subject: material.ID,
		ActorID: input.RecordedBy,
		Payload: events.MaterialConsumedPayload{
			MaterialID:    material.ID,
			Quantity:      input.Quantity,
			NewStock:      material.CurrentStock,
			RelatedTicket: ref,
		},
	})
	if material.BelowMinStock() {
		publish(ctx, dispatcher, events.Event{
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
}

// UpdateTask changes one checklist item's status.
func (s *MaintenanceTicketService) UpdateTask(ctx context.Context, ticketID, taskID string, status domain.TaskStatus) (*domain.MaintenanceTicket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if domain.MaintenanceTransitions.IsTerminal(ticket.Status) {
		return nil, apperrors.NewIllegalOperation("cannot edit tasks on a closed ticket")
	}
	if err := applyTaskStatus(ticket.Tasks, taskID, status, s.now()); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapTicketTransitionError(err)
	}
	return ticket, nil
}

// Assign sets the responsible technician.
func (s *MaintenanceTicketService) Assign(ctx context.Context, ticketID, assigneeID, actorID string) (*domain.MaintenanceTicket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if domain.MaintenanceTransitions.IsTerminal(ticket.Status) {
		return nil, apperrors.NewIllegalOperation("cannot assign a closed ticket")
	}
	if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	ticket.AssignedTo = &assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapTicketTransitionError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketAssigned,
		Subject: ticket.ID,
		ActorID: actorID,
		Payload: events.TicketAssignedPayload{
			TicketNumber: ticket.TicketNumber,
			TicketType:   domain.TicketTypeMaintenance,
			AssignedTo:   assigneeID,
		},
	})
	return ticket, nil
}

// Complete closes the ticket, freezes its costs, advances the equipment
// counter and recomputes the maintenance schedule from the completion reading.
// Everything commits in one transaction.
func (s *MaintenanceTicketService) Complete(ctx context.Context, ticketID string, input MaintenanceCompleteInput) (*domain.MaintenanceTicket, error) {
	if input.LaborCost < 0 || input.OverheadCost < 0 {
		return nil, apperrors.NewValidationError("costs cannot be negative", nil)
	}
	var result *domain.MaintenanceTicket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !domain.MaintenanceTransitions.CanTransition(ticket.Status, domain.TicketStatusCompleted) {
			return apperrors.NewIllegalTransition(string(ticket.Status), string(domain.TicketStatusCompleted))
		}

		equipment, err := s.equipment.UpdateOperatingHours(ctx, ticket.EquipmentID, input.OperatingHoursAtCompletion)
		if err != nil {
			if errors.Is(err, repository.ErrOperatingHoursRegression) {
				return apperrors.NewInvalidOperatingHours(input.OperatingHoursAtCompletion)
			}
			return mapEquipmentError(err)
		}

		now := s.now()
		expected := ticket.Status
		ticket.Status = domain.TicketStatusCompleted
		ticket.ActualEndDate = &now
		ticket.OperatingHoursAtCompletion = input.OperatingHoursAtCompletion
		if input.Notes != "" {
			ticket.Notes = input.Notes
		}
		ticket.Costs.LaborCost = input.LaborCost
		ticket.Costs.OverheadCost = input.OverheadCost
		ticket.Costs = costing.AggregateCosts(ticket.Costs, ticket.MaterialsUsed, nil)

		if err := s.tickets.Transition(ctx, ticket, expected); err != nil {
			return mapTicketTransitionError(err)
		}

		plan := scheduling.NextMaintenance(input.OperatingHoursAtCompletion, equipment.OperatingHours,
			s.scheduler.IntervalsHours, s.scheduler.UsageHoursPerDay, now)
		if err := s.equipment.SetMaintenanceSchedule(ctx, equipment.ID, domain.MaintenanceSchedule{
			LastMaintenanceHours: input.OperatingHoursAtCompletion,
			NextMaintenanceHours: plan.NextMaintenanceHours,
			NextMaintenanceDate:  &plan.NextMaintenanceDate,
		}); err != nil {
			return mapEquipmentError(err)
		}

		if err := s.equipment.TransitionStatus(ctx, equipment.ID,
			domain.EquipmentStatusMaintenance, domain.EquipmentStatusActive); err != nil && !errors.Is(err, repository.ErrConflict) {
			return mapEquipmentError(err)
		}
		result = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishLifecycle(ctx, events.EventTicketCompleted, result, "", input.CompletedBy)
	return result, nil
}

// Delete soft-deletes a ticket that never left PENDING.
func (s *MaintenanceTicketService) Delete(ctx context.Context, ticketID string) error {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status != domain.TicketStatusPending {
		return apperrors.NewIllegalOperation("only pending tickets can be deleted")
	}
	if err := s.tickets.Deactivate(ctx, ticketID); err != nil {
		return mapTicketTransitionError(err)
	}
	return nil
}

// Get fetches a ticket by id.
func (s *MaintenanceTicketService) Get(ctx context.Context, ticketID string) (*domain.MaintenanceTicket, error) {
	return s.getTicket(ctx, ticketID)
}

// GetByNumber fetches a ticket by its document number.
func (s *MaintenanceTicketService) GetByNumber(ctx context.Context, number string) (*domain.MaintenanceTicket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("maintenance ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

// List returns tickets matching the filter.
func (s *MaintenanceTicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.MaintenanceTicket, error) {
	return s.tickets.List(ctx, filter)
}

// transition performs a simple guarded status change without equipment
// side effects.
func (s *MaintenanceTicketService) transition(ctx context.Context, ticketID string, target domain.TicketStatus, actorID string, mutate func(*domain.MaintenanceTicket) error) (*domain.MaintenanceTicket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.MaintenanceTransitions.CanTransition(ticket.Status, target) {
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), string(target))
	}
	expected := ticket.Status
	ticket.Status = target
	if mutate != nil {
		if err := mutate(ticket); err != nil {
			return nil, err
		}
	}
	if err := s.tickets.Transition(ctx, ticket, expected); err != nil {
		return nil, mapTicketTransitionError(err)
	}
	s.publishLifecycle(ctx, lifecycleEventFor(target), ticket, expected, actorID)
	return ticket, nil
}

func (s *MaintenanceTicketService) getTicket(ctx context.Context, ticketID string) (*domain.MaintenanceTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("maintenance ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *MaintenanceTicketService) publishLifecycle(ctx context.Context, eventType events.EventType, ticket *domain.MaintenanceTicket, oldStatus domain.TicketStatus, actorID string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:    eventType,
		Subject: ticket.ID,
		ActorID: actorID,
		Payload: events.TicketLifecyclePayload{
			TicketNumber: ticket.TicketNumber,
			TicketType:   domain.TicketTypeMaintenance,
			EquipmentID:  ticket.EquipmentID,
			OldStatus:    oldStatus,
			NewStatus:    ticket.Status,
		},
	})
}

func buildTasks(descriptions []string) []domain.Task {
	tasks := make([]domain.Task, 0, len(descriptions))
	for _, description := range descriptions {
		description = strings.TrimSpace(description)
		if description == "" {
			continue
		}
		tasks = append(tasks, domain.Task{
			ID:          uuid.NewString(),
			Description: description,
			Status:      domain.TaskStatusPending,
		})
	}
	return tasks
}

func applyTaskStatus(tasks []domain.Task, taskID string, status domain.TaskStatus, now time.Time) error {
	for i := range tasks {
		if tasks[i].ID != taskID {
			continue
		}
		tasks[i].Status = status
		if status == domain.TaskStatusCompleted {
			tasks[i].CompletedAt = &now
		} else {
			tasks[i].CompletedAt = nil
		}
		return nil
	}
	return apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
}

func lifecycleEventFor(status domain.TicketStatus) events.EventType {
	switch status {
	case domain.TicketStatusApproved:
		return events.EventTicketApproved
	case domain.TicketStatusDiagnosed:
		return events.EventTicketDiagnosed
	case domain.TicketStatusInProgress:
		return events.EventTicketStarted
	case domain.TicketStatusOnHold:
		return events.EventTicketOnHold
	case domain.TicketStatusCancelled:
		return events.EventTicketCancelled
	case domain.TicketStatusCompleted:
		return events.EventTicketCompleted
	default:
		return events.EventTicketCreated
	}
}

func mapTicketTransitionError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("ticket", nil)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict("ticket was modified concurrently", nil)
	default:
		return err
	}
}

func mapConsumeError(err error, input TicketMaterialInput) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperrors.NewInsufficientStock(input.MaterialID, input.Quantity)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("material", nil)
	default:
		return err
	}
}
