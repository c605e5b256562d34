package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/costing"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// RepairTicketService drives the corrective-repair workflow. It shares the
// lifecycle shape of maintenance tickets but adds diagnosis, external services
// and downtime accounting.
type RepairTicketService struct {
	tickets    repository.RepairTicketRepository
	equipment  repository.EquipmentRepository
	inventory  repository.InventoryTransactionRepository
	materials  repository.MaterialRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	tx         TxRunner
	calculator *costing.Calculator
	scheduler  config.SchedulerConfig
	now        func() time.Time
}

// RepairTicketDependencies bundles collaborators.
type RepairTicketDependencies struct {
	TicketRepo    repository.RepairTicketRepository
	EquipmentRepo repository.EquipmentRepository
	InventoryRepo repository.InventoryTransactionRepository
	MaterialRepo  repository.MaterialRepository
	UserRepo      repository.UserRepository
	Dispatcher    events.Dispatcher
	Tx            TxRunner
	Calculator    *costing.Calculator
}

// RepairTicketCreateInput describes ticket creation payload.
type RepairTicketCreateInput struct {
	EquipmentID        string
	RepairType         domain.RepairType
	Priority           domain.TicketPriority
	FailureDescription string
	ScheduledDate      *time.Time
	Tasks              []string
	RequestedBy        string
}

// DiagnoseInput carries diagnosis findings.
type DiagnoseInput struct {
	RootCause   string
	Diagnosis   string
	DiagnosedBy string
}

// ExternalServiceInput describes a third-party job billed to the ticket.
type ExternalServiceInput struct {
	ServiceName string
	Provider    string
	Cost        float64
	ServiceDate time.Time
	RecordedBy  string
}

// RepairCompleteInput carries completion figures.
type RepairCompleteInput struct {
	Solution                   string
	LaborCost                  float64
	OverheadCost               float64
	OperatingHoursAtCompletion float64
	Notes                      string
	CompletedBy                string
}

// NewRepairTicketService constructs the service.
func NewRepairTicketService(scheduler config.SchedulerConfig, deps RepairTicketDependencies) *RepairTicketService {
	tx := deps.Tx
	if tx == nil {
		tx = nopTxRunner{}
	}
	calculator := deps.Calculator
	if calculator == nil {
		calculator = costing.NewCalculator(nil, nil)
	}
	return &RepairTicketService{
		tickets:    deps.TicketRepo,
		equipment:  deps.EquipmentRepo,
		inventory:  deps.InventoryRepo,
		materials:  deps.MaterialRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		tx:         tx,
		calculator: calculator,
		scheduler:  scheduler,
		now:        time.Now,
	}
}

// Create opens a PENDING repair ticket. Emergency repairs default to critical
// priority.
func (s *RepairTicketService) Create(ctx context.Context, input RepairTicketCreateInput) (*domain.RepairTicket, error) {
	if strings.TrimSpace(input.FailureDescription) == "" {
		return nil, apperrors.NewValidationError("failure description is required", nil)
	}
	equipment, err := s.equipment.GetByID(ctx, input.EquipmentID)
	if err != nil {
		return nil, mapEquipmentError(err)
	}
	if equipment.Status == domain.EquipmentStatusScrapped {
		return nil, apperrors.NewIllegalOperation("cannot open tickets against scrapped equipment")
	}

	ticket := &domain.RepairTicket{
		EquipmentID:        equipment.ID,
		RepairType:         input.RepairType,
		Status:             domain.TicketStatusPending,
		Priority:           input.Priority,
		FailureDescription: strings.TrimSpace(input.FailureDescription),
		RequestedBy:        input.RequestedBy,
		ScheduledDate:      input.ScheduledDate,
		Tasks:              buildTasks(input.Tasks),
	}
	if ticket.RepairType == "" {
		ticket.RepairType = domain.RepairTypeCorrective
	}
	if ticket.Priority == "" {
		if ticket.RepairType == domain.RepairTypeEmergency {
			ticket.Priority = domain.TicketPriorityCritical
		} else {
			ticket.Priority = domain.TicketPriorityMedium
		}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishLifecycle(ctx, events.EventTicketCreated, ticket, "", input.RequestedBy)
	return ticket, nil
}

// Approve moves a PENDING ticket to APPROVED. Approval is optional for
// repairs; Diagnose and Start also accept PENDING tickets.
func (s *RepairTicketService) Approve(ctx context.Context, ticketID, approverID string) (*domain.RepairTicket, error) {
	return s.transition(ctx, ticketID, domain.TicketStatusApproved, approverID, func(ticket *domain.RepairTicket) error {
		now := s.now()
		ticket.ApprovedBy = &approverID
		ticket.ApprovedDate = &now
		return nil
	})
}

// Diagnose records findings and moves the ticket to DIAGNOSED.
func (s *RepairTicketService) Diagnose(ctx context.Context, ticketID string, input DiagnoseInput) (*domain.RepairTicket, error) {
	if strings.TrimSpace(input.Diagnosis) == "" {
		return nil, apperrors.NewValidationError("diagnosis is required", nil)
	}
	return s.transition(ctx, ticketID, domain.TicketStatusDiagnosed, input.DiagnosedBy, func(ticket *domain.RepairTicket) error {
		ticket.RootCause = strings.TrimSpace(input.RootCause)
		ticket.Diagnosis = strings.TrimSpace(input.Diagnosis)
		return nil
	})
}

// Start claims the equipment for repair and begins work.
func (s *RepairTicketService) Start(ctx context.Context, ticketID, actorID string) (*domain.RepairTicket, error) {
	var result *domain.RepairTicket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !domain.RepairTransitions.CanTransition(ticket.Status, domain.TicketStatusInProgress) {
			return apperrors.NewIllegalTransition(string(ticket.Status), string(domain.TicketStatusInProgress))
		}

		if err := s.equipment.TransitionStatus(ctx, ticket.EquipmentID,
			domain.EquipmentStatusActive, domain.EquipmentStatusRepair); err != nil {
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
func (s *RepairTicketService) Hold(ctx context.Context, ticketID, actorID string) (*domain.RepairTicket, error) {
	return s.stop(ctx, ticketID, domain.TicketStatusOnHold, events.EventTicketOnHold, actorID)
}

// Cancel terminates a ticket and releases the equipment if work had started.
func (s *RepairTicketService) Cancel(ctx context.Context, ticketID, actorID string) (*domain.RepairTicket, error) {
	return s.stop(ctx, ticketID, domain.TicketStatusCancelled, events.EventTicketCancelled, actorID)
}

func (s *RepairTicketService) stop(ctx context.Context, ticketID string, target domain.TicketStatus, eventType events.EventType, actorID string) (*domain.RepairTicket, error) {
	var result *domain.RepairTicket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !domain.RepairTransitions.CanTransition(ticket.Status, target) {
			return apperrors.NewIllegalTransition(string(ticket.Status), string(target))
		}

		wasInProgress := ticket.Status == domain.TicketStatusInProgress
		expected := ticket.Status
		ticket.Status = target
		if err := s.tickets.Transition(ctx, ticket, expected); err != nil {
			return mapTicketTransitionError(err)
		}
		if wasInProgress {
			if err := s.equipment.TransitionStatus(ctx, ticket.EquipmentID,
				domain.EquipmentStatusRepair, domain.EquipmentStatusActive); err != nil && !errors.Is(err, repository.ErrConflict) {
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

// AddMaterial consumes stock and appends a usage line inside one transaction.
func (s *RepairTicketService) AddMaterial(ctx context.Context, ticketID string, input TicketMaterialInput) (*domain.RepairTicket, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	var (
		result   *domain.RepairTicket
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

		usage, material, err := recordMaterialUsage(ctx, s.inventory, s.materials, ticket.ID, domain.TicketTypeRepair, input, s.now())
		if err != nil {
			return err
		}
		ticket.MaterialsUsed = append(ticket.MaterialsUsed, *usage)
		ticket.Costs = costing.AggregateCosts(ticket.Costs, ticket.MaterialsUsed, ticket.ExternalServices)

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
	publishConsumption(ctx, s.dispatcher, result.ID, domain.TicketTypeRepair, consumed, input)
	return result, nil
}

// AddExternalService bills a third-party job to the ticket and re-sums costs.
func (s *RepairTicketService) AddExternalService(ctx context.Context, ticketID string, input ExternalServiceInput) (*domain.RepairTicket, error) {
	if strings.TrimSpace(input.ServiceName) == "" {
		return nil, apperrors.NewValidationError("service name is required", nil)
	}
	if input.Cost < 0 {
		return nil, apperrors.NewValidationError("cost cannot be negative", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewIllegalOperation("external services can only be recorded on tickets in progress")
	}

	serviceDate := input.ServiceDate
	if serviceDate.IsZero() {
		serviceDate = s.now()
	}
	ticket.ExternalServices = append(ticket.ExternalServices, domain.ExternalService{
		ServiceName: strings.TrimSpace(input.ServiceName),
		Provider:    strings.TrimSpace(input.Provider),
		Cost:        input.Cost,
		ServiceDate: serviceDate,
	})
	ticket.Costs = costing.AggregateCosts(ticket.Costs, ticket.MaterialsUsed, ticket.ExternalServices)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapTicketTransitionError(err)
	}
	return ticket, nil
}

// UpdateTask changes one checklist item's status.
func (s *RepairTicketService) UpdateTask(ctx context.Context, ticketID, taskID string, status domain.TaskStatus) (*domain.RepairTicket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if domain.RepairTransitions.IsTerminal(ticket.Status) {
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
func (s *RepairTicketService) Assign(ctx context.Context, ticketID, assigneeID, actorID string) (*domain.RepairTicket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if domain.RepairTransitions.IsTerminal(ticket.Status) {
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
			TicketType:   domain.TicketTypeRepair,
			AssignedTo:   assigneeID,
		},
	})
	return ticket, nil
}

// Complete closes the repair: freezes costs, computes the downtime report
// from the actual start and end timestamps and advances the equipment counter.
// The maintenance schedule is untouched; a repair does not count as preventive
// maintenance. One transaction.
func (s *RepairTicketService) Complete(ctx context.Context, ticketID string, input RepairCompleteInput) (*domain.RepairTicket, error) {
	if input.LaborCost < 0 || input.OverheadCost < 0 {
		return nil, apperrors.NewValidationError("costs cannot be negative", nil)
	}
	var result *domain.RepairTicket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !domain.RepairTransitions.CanTransition(ticket.Status, domain.TicketStatusCompleted) {
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
		ticket.Solution = strings.TrimSpace(input.Solution)
		if input.Notes != "" {
			ticket.Notes = input.Notes
		}
		ticket.Costs.LaborCost = input.LaborCost
		ticket.Costs.OverheadCost = input.OverheadCost
		ticket.Costs = costing.AggregateCosts(ticket.Costs, ticket.MaterialsUsed, ticket.ExternalServices)

		if ticket.ActualStartDate != nil {
			downtime := s.calculator.ComprehensiveDowntime(*ticket.ActualStartDate, now,
				equipment.Type, string(ticket.RepairType))
			ticket.Downtime = &downtime
		}

		if err := s.tickets.Transition(ctx, ticket, expected); err != nil {
			return mapTicketTransitionError(err)
		}

		if err := s.equipment.TransitionStatus(ctx, equipment.ID,
			domain.EquipmentStatusRepair, domain.EquipmentStatusActive); err != nil && !errors.Is(err, repository.ErrConflict) {
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
func (s *RepairTicketService) Delete(ctx context.Context, ticketID string) error {
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
func (s *RepairTicketService) Get(ctx context.Context, ticketID string) (*domain.RepairTicket, error) {
	return s.getTicket(ctx, ticketID)
}

// GetByNumber fetches a ticket by its document number.
func (s *RepairTicketService) GetByNumber(ctx context.Context, number string) (*domain.RepairTicket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("repair ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

// List returns tickets matching the filter.
func (s *RepairTicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.RepairTicket, error) {
	return s.tickets.List(ctx, filter)
}

func (s *RepairTicketService) transition(ctx context.Context, ticketID string, target domain.TicketStatus, actorID string, mutate func(*domain.RepairTicket) error) (*domain.RepairTicket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.RepairTransitions.CanTransition(ticket.Status, target) {
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

func (s *RepairTicketService) getTicket(ctx context.Context, ticketID string) (*domain.RepairTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("repair ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *RepairTicketService) publishLifecycle(ctx context.Context, eventType events.EventType, ticket *domain.RepairTicket, oldStatus domain.TicketStatus, actorID string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:    eventType,
		Subject: ticket.ID,
		ActorID: actorID,
		Payload: events.TicketLifecyclePayload{
			TicketNumber: ticket.TicketNumber,
			TicketType:   domain.TicketTypeRepair,
			EquipmentID:  ticket.EquipmentID,
			OldStatus:    oldStatus,
			NewStatus:    ticket.Status,
		},
	})
}
