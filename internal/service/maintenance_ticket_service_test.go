package service

import (
	"context"
	"testing"

	"github.com/spec-kit/maintenance-service/internal/domain"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

type maintenanceFixture struct {
	svc       *MaintenanceTicketService
	equipment *fakeEquipmentRepo
	materials *fakeMaterialRepo
	inventory *fakeInventoryRepo
	users     *fakeUserRepo
	events    *captureDispatcher
}

func newMaintenanceFixture() *maintenanceFixture {
	equipment := newFakeEquipmentRepo()
	materials := newFakeMaterialRepo()
	inventory := newFakeInventoryRepo(materials)
	users := newFakeUserRepo()
	dispatcher := &captureDispatcher{}
	svc := NewMaintenanceTicketService(testSchedulerConfig(), MaintenanceTicketDependencies{
		TicketRepo:    newFakeMaintenanceTicketRepo(),
		EquipmentRepo: equipment,
		InventoryRepo: inventory,
		MaterialRepo:  materials,
		UserRepo:      users,
		Dispatcher:    dispatcher,
	})
	return &maintenanceFixture{
		svc:       svc,
		equipment: equipment,
		materials: materials,
		inventory: inventory,
		users:     users,
		events:    dispatcher,
	}
}

func (f *maintenanceFixture) seedEquipment(t *testing.T, hours float64) *domain.Equipment {
	t.Helper()
	equipment := &domain.Equipment{
		Code:           "LDR-001",
		Name:           "Loader 1",
		Type:           domain.EquipmentTypeLoader,
		Status:         domain.EquipmentStatusActive,
		OperatingHours: hours,
	}
	if err := f.equipment.Create(context.Background(), equipment); err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
	return equipment
}

func (f *maintenanceFixture) seedMaterial(t *testing.T, stock, price float64) *domain.Material {
	t.Helper()
	material := &domain.Material{
		Code:          "OIL-15W40",
		Name:          "Engine oil",
		CurrentStock:  stock,
		MinStockLevel: 5,
		UnitPrice:     price,
	}
	if err := f.materials.Create(context.Background(), material); err != nil {
		t.Fatalf("seed material: %v", err)
	}
	return material
}

func TestMaintenanceCompleteRecomputesSchedule(t *testing.T) {
	f := newMaintenanceFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 118)

	ticket, err := f.svc.Create(ctx, MaintenanceTicketCreateInput{
		EquipmentID:     equipment.ID,
		MaintenanceType: domain.MaintenanceTypeScheduled,
		Description:     "120h service",
		Tasks:           []string{"replace oil", "inspect belts"},
		RequestedBy:     "supervisor-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(ticket.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(ticket.Tasks))
	}

	if _, err := f.svc.Approve(ctx, ticket.ID, "supervisor-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	claimed, _ := f.equipment.GetByID(ctx, equipment.ID)
	if claimed.Status != domain.EquipmentStatusMaintenance {
		t.Errorf("equipment status = %s, want MAINTENANCE", claimed.Status)
	}

	completed, err := f.svc.Complete(ctx, ticket.ID, MaintenanceCompleteInput{
		LaborCost:                  4000,
		OperatingHoursAtCompletion: 121,
		CompletedBy:                "tech-1",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Costs.TotalCost != 4000 {
		t.Errorf("total cost = %v, want 4000", completed.Costs.TotalCost)
	}

	released, _ := f.equipment.GetByID(ctx, equipment.ID)
	if released.Status != domain.EquipmentStatusActive {
		t.Errorf("equipment status = %s, want ACTIVE", released.Status)
	}
	if released.Maintenance.LastMaintenanceHours != 121 {
		t.Errorf("last maintenance hours = %v, want 121", released.Maintenance.LastMaintenanceHours)
	}
	// 121 + 60 = 181 is the next milestone.
	if released.Maintenance.NextMaintenanceHours != 181 {
		t.Errorf("next maintenance hours = %v, want 181", released.Maintenance.NextMaintenanceHours)
	}
}

func TestMaintenanceAddMaterialRequiresInProgress(t *testing.T) {
	f := newMaintenanceFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)
	material := f.seedMaterial(t, 20, 450)

	ticket, err := f.svc.Create(ctx, MaintenanceTicketCreateInput{
		EquipmentID: equipment.ID,
		Description: "oil change",
		RequestedBy: "supervisor-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.AddMaterial(ctx, ticket.ID, TicketMaterialInput{
		MaterialID: material.ID, Quantity: 4, RecordedBy: "tech-1",
	})
	if err == nil {
		t.Fatal("expected error recording material on a pending ticket")
	}
	if code := apperrors.ToDomainError(err).Code; code != "ILLEGAL_OPERATION" {
		t.Errorf("error code = %s, want ILLEGAL_OPERATION", code)
	}

	// Stock untouched by the rejected call.
	current, _ := f.materials.GetByID(ctx, material.ID)
	if current.CurrentStock != 20 {
		t.Errorf("stock = %v, want 20", current.CurrentStock)
	}
}

func TestMaintenanceWarrantyMaterialIsFree(t *testing.T) {
	f := newMaintenanceFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)
	material := f.seedMaterial(t, 10, 800)

	ticket, err := f.svc.Create(ctx, MaintenanceTicketCreateInput{
		EquipmentID: equipment.ID,
		Description: "filter swap",
		RequestedBy: "supervisor-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	updated, err := f.svc.AddMaterial(ctx, ticket.ID, TicketMaterialInput{
		MaterialID:   material.ID,
		Quantity:     2,
		WarrantyItem: true,
		RecordedBy:   "tech-1",
	})
	if err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}
	if len(updated.MaterialsUsed) != 1 {
		t.Fatalf("usage lines = %d, want 1", len(updated.MaterialsUsed))
	}
	line := updated.MaterialsUsed[0]
	if line.TotalCost != 0 || line.UnitPrice != 0 {
		t.Errorf("warranty line cost = %v/%v, want 0/0", line.UnitPrice, line.TotalCost)
	}
	if updated.Costs.MaterialCost != 0 {
		t.Errorf("material cost = %v, want 0", updated.Costs.MaterialCost)
	}

	// Warranty parts come from the supplier, not from stock.
	current, _ := f.materials.GetByID(ctx, material.ID)
	if current.CurrentStock != 10 {
		t.Errorf("stock = %v, want 10", current.CurrentStock)
	}
	entries, _ := f.inventory.List(ctx, listAllTransactions(material.ID))
	if len(entries) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(entries))
	}
}

func TestMaintenanceHoldReleasesAndResumeReclaims(t *testing.T) {
	f := newMaintenanceFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)

	ticket, err := f.svc.Create(ctx, MaintenanceTicketCreateInput{
		EquipmentID: equipment.ID,
		Description: "240h service",
		RequestedBy: "supervisor-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.svc.Hold(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Hold: %v", err)
	}

	held, _ := f.equipment.GetByID(ctx, equipment.ID)
	if held.Status != domain.EquipmentStatusActive {
		t.Errorf("equipment status = %s, want ACTIVE while ticket on hold", held.Status)
	}

	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start after hold: %v", err)
	}
	resumed, _ := f.equipment.GetByID(ctx, equipment.ID)
	if resumed.Status != domain.EquipmentStatusMaintenance {
		t.Errorf("equipment status = %s, want MAINTENANCE after resume", resumed.Status)
	}
}

func TestMaintenanceDeleteOnlyPending(t *testing.T) {
	f := newMaintenanceFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)

	ticket, err := f.svc.Create(ctx, MaintenanceTicketCreateInput{
		EquipmentID: equipment.ID,
		Description: "inspection",
		RequestedBy: "supervisor-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Approve(ctx, ticket.ID, "supervisor-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	err = f.svc.Delete(ctx, ticket.ID)
	if err == nil {
		t.Fatal("expected error deleting an approved ticket")
	}
	if code := apperrors.ToDomainError(err).Code; code != "ILLEGAL_OPERATION" {
		t.Errorf("error code = %s, want ILLEGAL_OPERATION", code)
	}

	fresh, err := f.svc.Create(ctx, MaintenanceTicketCreateInput{
		EquipmentID: equipment.ID,
		Description: "second inspection",
		RequestedBy: "supervisor-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.svc.Delete(ctx, fresh.ID); err != nil {
		t.Fatalf("Delete pending: %v", err)
	}
	if _, err := f.svc.Get(ctx, fresh.ID); err == nil {
		t.Fatal("deleted ticket still readable")
	}
}

func TestMaintenanceAssignUnknownUser(t *testing.T) {
	f := newMaintenanceFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)

	ticket, err := f.svc.Create(ctx, MaintenanceTicketCreateInput{
		EquipmentID: equipment.ID,
		Description: "greasing",
		RequestedBy: "supervisor-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Assign(ctx, ticket.ID, "missing-user", "supervisor-1")
	if err == nil {
		t.Fatal("expected not found for unknown assignee")
	}
	if code := apperrors.ToDomainError(err).Code; code != "NOT_FOUND" {
		t.Errorf("error code = %s, want NOT_FOUND", code)
	}

	technician := &domain.User{Name: "Tech", Email: "tech@example.com", Role: domain.RoleTechnician, Status: domain.UserStatusActive}
	if err := f.users.Create(ctx, technician); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	assigned, err := f.svc.Assign(ctx, ticket.ID, technician.ID, "supervisor-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != technician.ID {
		t.Error("assignee not recorded")
	}
}
