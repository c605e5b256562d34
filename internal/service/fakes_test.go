package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

// In-memory repository fakes. They honor the same atomic contracts as the
// Postgres implementations (conditional stock decrement, conditional status
// flips, optimistic ticket transitions) so concurrency tests exercise the
// real guard semantics.

type fakeEquipmentRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Equipment
}

func newFakeEquipmentRepo() *fakeEquipmentRepo {
	return &fakeEquipmentRepo{items: map[string]*domain.Equipment{}}
}

func (f *fakeEquipmentRepo) Create(_ context.Context, equipment *domain.Equipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Code == equipment.Code {
			return repository.ErrDuplicateCode
		}
	}
	equipment.ID = uuid.NewString()
	equipment.IsActive = true
	clone := *equipment
	f.items[equipment.ID] = &clone
	return nil
}

func (f *fakeEquipmentRepo) Update(_ context.Context, equipment *domain.Equipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[equipment.ID]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	clone := *equipment
	clone.IsActive = stored.IsActive
	f.items[equipment.ID] = &clone
	return nil
}

func (f *fakeEquipmentRepo) GetByID(_ context.Context, id string) (*domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return nil, repository.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeEquipmentRepo) GetByCode(_ context.Context, code string) (*domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.items {
		if stored.Code == code && stored.IsActive {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEquipmentRepo) List(_ context.Context, _ repository.EquipmentFilter) ([]domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Equipment
	for _, stored := range f.items {
		if stored.IsActive {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (f *fakeEquipmentRepo) UpdateOperatingHours(_ context.Context, id string, hours float64) (*domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return nil, repository.ErrNotFound
	}
	if stored.OperatingHours > hours {
		return nil, repository.ErrOperatingHoursRegression
	}
	stored.OperatingHours = hours
	clone := *stored
	return &clone, nil
}

func (f *fakeEquipmentRepo) TransitionStatus(_ context.Context, id string, from, to domain.EquipmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	if stored.Status != from {
		return repository.ErrConflict
	}
	stored.Status = to
	return nil
}

func (f *fakeEquipmentRepo) SetMaintenanceSchedule(_ context.Context, id string, schedule domain.MaintenanceSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	stored.Maintenance = schedule
	return nil
}

func (f *fakeEquipmentRepo) ListDue(_ context.Context, now time.Time) ([]domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Equipment
	for _, stored := range f.items {
		if !stored.IsActive || stored.Status == domain.EquipmentStatusScrapped || stored.Status == domain.EquipmentStatusInactive {
			continue
		}
		if stored.Maintenance.NextMaintenanceHours <= 0 {
			continue
		}
		byHours := stored.OperatingHours >= stored.Maintenance.NextMaintenanceHours
		byDate := stored.Maintenance.NextMaintenanceDate != nil && !now.Before(*stored.Maintenance.NextMaintenanceDate)
		if byHours || byDate {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (f *fakeEquipmentRepo) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	stored.IsActive = false
	stored.Status = domain.EquipmentStatusInactive
	return nil
}

type fakeMaterialRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Material
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{items: map[string]*domain.Material{}}
}

func (f *fakeMaterialRepo) Create(_ context.Context, material *domain.Material) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Code == material.Code {
			return repository.ErrDuplicateCode
		}
	}
	material.ID = uuid.NewString()
	material.IsActive = true
	clone := *material
	f.items[material.ID] = &clone
	return nil
}

func (f *fakeMaterialRepo) Update(_ context.Context, material *domain.Material) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[material.ID]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	// Preserve the ledger-owned stock counter.
	clone := *material
	clone.CurrentStock = stored.CurrentStock
	clone.IsActive = stored.IsActive
	f.items[material.ID] = &clone
	return nil
}

func (f *fakeMaterialRepo) GetByID(_ context.Context, id string) (*domain.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return nil, repository.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeMaterialRepo) GetByCode(_ context.Context, code string) (*domain.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.items {
		if stored.Code == code && stored.IsActive {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMaterialRepo) List(_ context.Context, _ repository.MaterialFilter) ([]domain.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Material
	for _, stored := range f.items {
		if stored.IsActive {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (f *fakeMaterialRepo) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	stored.IsActive = false
	return nil
}

type fakeInventoryRepo struct {
	materials    *fakeMaterialRepo
	mu           sync.Mutex
	transactions []*domain.InventoryTransaction
	sequence     int
}

func newFakeInventoryRepo(materials *fakeMaterialRepo) *fakeInventoryRepo {
	return &fakeInventoryRepo{materials: materials}
}

func (f *fakeInventoryRepo) Consume(_ context.Context, input repository.ConsumeInput) (*domain.InventoryTransaction, *domain.Material, error) {
	f.materials.mu.Lock()
	stored, ok := f.materials.items[input.MaterialID]
	if !ok || !stored.IsActive {
		f.materials.mu.Unlock()
		return nil, nil, repository.ErrNotFound
	}
	if stored.CurrentStock < input.Quantity {
		f.materials.mu.Unlock()
		return nil, nil, repository.ErrInsufficientStock
	}
	previous := stored.CurrentStock
	stored.CurrentStock -= input.Quantity
	material := *stored
	f.materials.mu.Unlock()

	transaction := f.append(&domain.InventoryTransaction{
		MaterialID:    input.MaterialID,
		Type:          domain.TransactionTypeOutbound,
		Quantity:      -input.Quantity,
		PreviousStock: previous,
		NewStock:      material.CurrentStock,
		UnitPrice:     material.UnitPrice,
		RelatedTicket: input.Ticket,
		Reason:        input.Reason,
		PerformedBy:   input.PerformedBy,
	})
	return transaction, &material, nil
}

func (f *fakeInventoryRepo) Restock(_ context.Context, input repository.RestockInput) (*domain.InventoryTransaction, *domain.Material, error) {
	f.materials.mu.Lock()
	stored, ok := f.materials.items[input.MaterialID]
	if !ok || !stored.IsActive {
		f.materials.mu.Unlock()
		return nil, nil, repository.ErrNotFound
	}
	previous := stored.CurrentStock
	stored.CurrentStock += input.Quantity
	material := *stored
	f.materials.mu.Unlock()

	transaction := f.append(&domain.InventoryTransaction{
		MaterialID:    input.MaterialID,
		Type:          domain.TransactionTypeInbound,
		Quantity:      input.Quantity,
		PreviousStock: previous,
		NewStock:      material.CurrentStock,
		UnitPrice:     material.UnitPrice,
		Reason:        input.Reason,
		PerformedBy:   input.PerformedBy,
	})
	return transaction, &material, nil
}

func (f *fakeInventoryRepo) Reverse(ctx context.Context, transactionID, reason, performedBy string) (*domain.InventoryTransaction, error) {
	original, err := f.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.ReversedTransactionID != nil {
		return nil, repository.ErrReversalOfReversal
	}
	delta := -original.Quantity

	f.materials.mu.Lock()
	stored, ok := f.materials.items[original.MaterialID]
	if !ok || !stored.IsActive {
		f.materials.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	if delta < 0 && stored.CurrentStock < -delta {
		f.materials.mu.Unlock()
		return nil, repository.ErrInsufficientStock
	}
	previous := stored.CurrentStock
	stored.CurrentStock += delta
	newStock := stored.CurrentStock
	f.materials.mu.Unlock()

	txType := domain.TransactionTypeInbound
	if delta < 0 {
		txType = domain.TransactionTypeOutbound
	}
	return f.append(&domain.InventoryTransaction{
		MaterialID:            original.MaterialID,
		Type:                  txType,
		Quantity:              delta,
		PreviousStock:         previous,
		NewStock:              newStock,
		UnitPrice:             original.UnitPrice,
		RelatedTicket:         original.RelatedTicket,
		ReversedTransactionID: &original.ID,
		Reason:                reason,
		PerformedBy:           performedBy,
	}), nil
}

func (f *fakeInventoryRepo) GetByID(_ context.Context, id string) (*domain.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, transaction := range f.transactions {
		if transaction.ID == id {
			clone := *transaction
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeInventoryRepo) List(_ context.Context, filter repository.TransactionFilter) ([]domain.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.InventoryTransaction
	for _, transaction := range f.transactions {
		if filter.MaterialID != nil && transaction.MaterialID != *filter.MaterialID {
			continue
		}
		result = append(result, *transaction)
	}
	return result, nil
}

func (f *fakeInventoryRepo) append(transaction *domain.InventoryTransaction) *domain.InventoryTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	transaction.ID = uuid.NewString()
	transaction.TransactionNumber = fmt.Sprintf("TXN%s%04d", time.Now().Format("200601"), f.sequence)
	transaction.CreatedAt = time.Now()
	f.transactions = append(f.transactions, transaction)
	clone := *transaction
	return &clone
}

type fakeMaintenanceTicketRepo struct {
	mu       sync.Mutex
	items    map[string]*domain.MaintenanceTicket
	sequence int
}

func newFakeMaintenanceTicketRepo() *fakeMaintenanceTicketRepo {
	return &fakeMaintenanceTicketRepo{items: map[string]*domain.MaintenanceTicket{}}
}

func (f *fakeMaintenanceTicketRepo) Create(_ context.Context, ticket *domain.MaintenanceTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	ticket.ID = uuid.NewString()
	ticket.TicketNumber = fmt.Sprintf("MT%s%04d", time.Now().Format("200601"), f.sequence)
	ticket.IsActive = true
	clone := cloneMaintenanceTicket(ticket)
	f.items[ticket.ID] = clone
	return nil
}

func (f *fakeMaintenanceTicketRepo) Update(_ context.Context, ticket *domain.MaintenanceTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[ticket.ID]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	f.items[ticket.ID] = cloneMaintenanceTicket(ticket)
	return nil
}

func (f *fakeMaintenanceTicketRepo) Transition(_ context.Context, ticket *domain.MaintenanceTicket, expected domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[ticket.ID]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	if stored.Status != expected {
		return repository.ErrConflict
	}
	f.items[ticket.ID] = cloneMaintenanceTicket(ticket)
	return nil
}

func (f *fakeMaintenanceTicketRepo) GetByID(_ context.Context, id string) (*domain.MaintenanceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return nil, repository.ErrNotFound
	}
	return cloneMaintenanceTicket(stored), nil
}

func (f *fakeMaintenanceTicketRepo) GetByNumber(_ context.Context, number string) (*domain.MaintenanceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.items {
		if stored.TicketNumber == number && stored.IsActive {
			return cloneMaintenanceTicket(stored), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMaintenanceTicketRepo) List(_ context.Context, _ repository.TicketFilter) ([]domain.MaintenanceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.MaintenanceTicket
	for _, stored := range f.items {
		if stored.IsActive {
			result = append(result, *cloneMaintenanceTicket(stored))
		}
	}
	return result, nil
}

func (f *fakeMaintenanceTicketRepo) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	stored.IsActive = false
	return nil
}

func cloneMaintenanceTicket(ticket *domain.MaintenanceTicket) *domain.MaintenanceTicket {
	clone := *ticket
	clone.Tasks = append([]domain.Task(nil), ticket.Tasks...)
	clone.MaterialsUsed = append([]domain.MaterialUsage(nil), ticket.MaterialsUsed...)
	return &clone
}

type fakeRepairTicketRepo struct {
	mu       sync.Mutex
	items    map[string]*domain.RepairTicket
	sequence int
}

func newFakeRepairTicketRepo() *fakeRepairTicketRepo {
	return &fakeRepairTicketRepo{items: map[string]*domain.RepairTicket{}}
}

func (f *fakeRepairTicketRepo) Create(_ context.Context, ticket *domain.RepairTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	ticket.ID = uuid.NewString()
	ticket.TicketNumber = fmt.Sprintf("RT%s%04d", time.Now().Format("200601"), f.sequence)
	ticket.IsActive = true
	f.items[ticket.ID] = cloneRepairTicket(ticket)
	return nil
}

func (f *fakeRepairTicketRepo) Update(_ context.Context, ticket *domain.RepairTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[ticket.ID]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	f.items[ticket.ID] = cloneRepairTicket(ticket)
	return nil
}

func (f *fakeRepairTicketRepo) Transition(_ context.Context, ticket *domain.RepairTicket, expected domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[ticket.ID]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	if stored.Status != expected {
		return repository.ErrConflict
	}
	f.items[ticket.ID] = cloneRepairTicket(ticket)
	return nil
}

func (f *fakeRepairTicketRepo) GetByID(_ context.Context, id string) (*domain.RepairTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return nil, repository.ErrNotFound
	}
	return cloneRepairTicket(stored), nil
}

func (f *fakeRepairTicketRepo) GetByNumber(_ context.Context, number string) (*domain.RepairTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.items {
		if stored.TicketNumber == number && stored.IsActive {
			return cloneRepairTicket(stored), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepairTicketRepo) List(_ context.Context, _ repository.TicketFilter) ([]domain.RepairTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.RepairTicket
	for _, stored := range f.items {
		if stored.IsActive {
			result = append(result, *cloneRepairTicket(stored))
		}
	}
	return result, nil
}

func (f *fakeRepairTicketRepo) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	stored.IsActive = false
	return nil
}

func cloneRepairTicket(ticket *domain.RepairTicket) *domain.RepairTicket {
	clone := *ticket
	clone.Tasks = append([]domain.Task(nil), ticket.Tasks...)
	clone.MaterialsUsed = append([]domain.MaterialUsage(nil), ticket.MaterialsUsed...)
	clone.ExternalServices = append([]domain.ExternalService(nil), ticket.ExternalServices...)
	if ticket.Downtime != nil {
		downtime := *ticket.Downtime
		clone.Downtime = &downtime
	}
	return &clone
}

type fakeUserRepo struct {
	mu    sync.Mutex
	items map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{items: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicateCode
		}
	}
	user.ID = uuid.NewString()
	clone := *user
	f.items[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	f.items[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.items {
		if strings.EqualFold(stored.Email, email) {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
