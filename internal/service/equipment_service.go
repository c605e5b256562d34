package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/scheduling"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

const dueEquipmentCacheKey = "maintenance:due_equipment"

// EquipmentService coordinates the equipment registry and its maintenance
// schedule.
type EquipmentService struct {
	equipment  repository.EquipmentRepository
	dispatcher events.Dispatcher
	cache      *redis.Client
	scheduler  config.SchedulerConfig
	now        func() time.Time
}

// EquipmentDependencies bundles collaborators for the equipment service.
type EquipmentDependencies struct {
	EquipmentRepo repository.EquipmentRepository
	Dispatcher    events.Dispatcher
	Cache         *redis.Client
}

// EquipmentCreateInput describes equipment registration payload.
type EquipmentCreateInput struct {
	Code           string
	Name           string
	Type           domain.EquipmentType
	OperatingHours float64
	Location       string
}

// EquipmentUpdateInput describes mutable registry fields.
type EquipmentUpdateInput struct {
	Name     *string
	Location *string
}

// DueEquipment is one row of the maintenance-due read model.
type DueEquipment struct {
	Equipment    domain.Equipment        `json:"equipment"`
	Urgency      scheduling.UrgencyLevel `json:"urgency"`
	OverdueHours float64                 `json:"overdue_hours"`
	OverdueDays  float64                 `json:"overdue_days"`
}

// NewEquipmentService constructs the service.
func NewEquipmentService(scheduler config.SchedulerConfig, deps EquipmentDependencies) *EquipmentService {
	return &EquipmentService{
		equipment:  deps.EquipmentRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		scheduler:  scheduler,
		now:        time.Now,
	}
}

// Create registers a unit and computes its initial maintenance schedule from a
// zero last-maintenance baseline.
func (s *EquipmentService) Create(ctx context.Context, input EquipmentCreateInput) (*domain.Equipment, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" || input.Name == "" {
		return nil, apperrors.NewValidationError("code and name are required", nil)
	}
	if input.OperatingHours < 0 {
		return nil, apperrors.NewValidationError("operating hours cannot be negative", nil)
	}

	plan := scheduling.NextMaintenance(0, input.OperatingHours,
		s.scheduler.IntervalsHours, s.scheduler.UsageHoursPerDay, s.now())

	equipment := &domain.Equipment{
		Code:           input.Code,
		Name:           input.Name,
		Type:           input.Type,
		Status:         domain.EquipmentStatusActive,
		OperatingHours: input.OperatingHours,
		Location:       input.Location,
		Maintenance: domain.MaintenanceSchedule{
			LastMaintenanceHours: 0,
			NextMaintenanceHours: plan.NextMaintenanceHours,
			NextMaintenanceDate:  &plan.NextMaintenanceDate,
		},
	}
	if equipment.Type == "" {
		equipment.Type = domain.EquipmentTypeOther
	}

	if err := s.equipment.Create(ctx, equipment); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, apperrors.NewDuplicateCode("equipment", equipment.Code)
		}
		return nil, err
	}
	return equipment, nil
}

// Get fetches a unit by id.
func (s *EquipmentService) Get(ctx context.Context, id string) (*domain.Equipment, error) {
	equipment, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return nil, mapEquipmentError(err)
	}
	return equipment, nil
}

// GetByCode fetches a unit by its business code.
func (s *EquipmentService) GetByCode(ctx context.Context, code string) (*domain.Equipment, error) {
	equipment, err := s.equipment.GetByCode(ctx, code)
	if err != nil {
		return nil, mapEquipmentError(err)
	}
	return equipment, nil
}

// List returns registry entries matching the filter.
func (s *EquipmentService) List(ctx context.Context, filter repository.EquipmentFilter) ([]domain.Equipment, error) {
	return s.equipment.List(ctx, filter)
}

// Update changes registry metadata. Status and operating hours have dedicated
// operations.
func (s *EquipmentService) Update(ctx context.Context, id string, input EquipmentUpdateInput) (*domain.Equipment, error) {
	equipment, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return nil, mapEquipmentError(err)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		equipment.Name = name
	}
	if input.Location != nil {
		equipment.Location = *input.Location
	}
	if err := s.equipment.Update(ctx, equipment); err != nil {
		return nil, mapEquipmentError(err)
	}
	return equipment, nil
}

// UpdateOperatingHours records a new cumulative counter value and recomputes
// the maintenance plan from it. Decreasing values are rejected; a due event
// fires when the new reading crosses the milestone that was scheduled before
// the update.
func (s *EquipmentService) UpdateOperatingHours(ctx context.Context, id string, hours float64, actorID string) (*domain.Equipment, error) {
	if hours < 0 {
		return nil, apperrors.NewInvalidOperatingHours(hours)
	}
	equipment, err := s.equipment.UpdateOperatingHours(ctx, id, hours)
	if err != nil {
		if errors.Is(err, repository.ErrOperatingHoursRegression) {
			return nil, apperrors.NewInvalidOperatingHours(hours)
		}
		return nil, mapEquipmentError(err)
	}

	now := s.now()
	if scheduling.IsDue(equipment.OperatingHours, equipment.Maintenance.NextMaintenanceHours,
		equipment.Maintenance.NextMaintenanceDate, now) {
		publish(ctx, s.dispatcher, events.Event{
			Type:    events.EventMaintenanceDue,
			Subject: equipment.ID,
			ActorID: actorID,
			Payload: events.MaintenanceDuePayload{
				EquipmentCode:        equipment.Code,
				OperatingHours:       equipment.OperatingHours,
				NextMaintenanceHours: equipment.Maintenance.NextMaintenanceHours,
				Urgency: string(scheduling.Urgency(equipment.OperatingHours,
					equipment.Maintenance.NextMaintenanceHours,
					equipment.Maintenance.NextMaintenanceDate, now)),
				EquipmentType: equipment.Type,
			},
		})
	}

	plan := scheduling.NextMaintenance(equipment.Maintenance.LastMaintenanceHours, hours,
		s.scheduler.IntervalsHours, s.scheduler.UsageHoursPerDay, now)
	schedule := domain.MaintenanceSchedule{
		LastMaintenanceHours: equipment.Maintenance.LastMaintenanceHours,
		NextMaintenanceHours: plan.NextMaintenanceHours,
		NextMaintenanceDate:  &plan.NextMaintenanceDate,
	}
	if err := s.equipment.SetMaintenanceSchedule(ctx, equipment.ID, schedule); err != nil {
		return nil, mapEquipmentError(err)
	}
	equipment.Maintenance = schedule
	return equipment, nil
}

// ListDueForMaintenance returns units at or past their maintenance milestone,
// most urgent first. The result is cached briefly; staleness is bounded by the
// configured TTL.
func (s *EquipmentService) ListDueForMaintenance(ctx context.Context) ([]DueEquipment, error) {
	if cached, ok := s.readDueCache(ctx); ok {
		return cached, nil
	}

	now := s.now()
	overdue, err := s.equipment.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}

	result := make([]DueEquipment, 0, len(overdue))
	for _, equipment := range overdue {
		result = append(result, DueEquipment{
			Equipment: equipment,
			Urgency: scheduling.Urgency(equipment.OperatingHours,
				equipment.Maintenance.NextMaintenanceHours,
				equipment.Maintenance.NextMaintenanceDate, now),
			OverdueHours: scheduling.OverdueHours(equipment.OperatingHours,
				equipment.Maintenance.NextMaintenanceHours),
			OverdueDays: scheduling.OverdueDays(equipment.Maintenance.NextMaintenanceDate, now),
		})
	}
	s.writeDueCache(ctx, result)
	return result, nil
}

// Deactivate soft-deletes a unit.
func (s *EquipmentService) Deactivate(ctx context.Context, id string) error {
	if err := s.equipment.Deactivate(ctx, id); err != nil {
		return mapEquipmentError(err)
	}
	return nil
}

func (s *EquipmentService) readDueCache(ctx context.Context) ([]DueEquipment, bool) {
	if s.cache == nil || s.scheduler.DueCacheTTL() <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, dueEquipmentCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var result []DueEquipment
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	return result, true
}

func (s *EquipmentService) writeDueCache(ctx context.Context, result []DueEquipment) {
	if s.cache == nil || s.scheduler.DueCacheTTL() <= 0 {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, dueEquipmentCacheKey, raw, s.scheduler.DueCacheTTL()).Err()
}

func mapEquipmentError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("equipment", nil)
	case errors.Is(err, repository.ErrDuplicateCode):
		return apperrors.NewDuplicateCode("equipment", "")
	default:
		return err
	}
}
