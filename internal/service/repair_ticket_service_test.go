package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

type repairFixture struct {
	svc       *RepairTicketService
	equipment *fakeEquipmentRepo
	materials *fakeMaterialRepo
	inventory *fakeInventoryRepo
	users     *fakeUserRepo
	events    *captureDispatcher
}

func newRepairFixture() *repairFixture {
	equipment := newFakeEquipmentRepo()
	materials := newFakeMaterialRepo()
	inventory := newFakeInventoryRepo(materials)
	users := newFakeUserRepo()
	dispatcher := &captureDispatcher{}
	svc := NewRepairTicketService(testSchedulerConfig(), RepairTicketDependencies{
		TicketRepo:    newFakeRepairTicketRepo(),
		EquipmentRepo: equipment,
		InventoryRepo: inventory,
		MaterialRepo:  materials,
		UserRepo:      users,
		Dispatcher:    dispatcher,
	})
	return &repairFixture{
		svc:       svc,
		equipment: equipment,
		materials: materials,
		inventory: inventory,
		users:     users,
		events:    dispatcher,
	}
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		IntervalsHours:   []float64{60, 120, 240, 480, 960},
		UsageHoursPerDay: 8,
	}
}

func (f *repairFixture) seedEquipment(t *testing.T, hours float64) *domain.Equipment {
	t.Helper()
	equipment := &domain.Equipment{
		Code:           "EXC-001",
		Name:           "Excavator 1",
		Type:           domain.EquipmentTypeExcavator,
		Status:         domain.EquipmentStatusActive,
		OperatingHours: hours,
	}
	if err := f.equipment.Create(context.Background(), equipment); err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
	return equipment
}

func (f *repairFixture) seedMaterial(t *testing.T, stock, price float64) *domain.Material {
	t.Helper()
	material := &domain.Material{
		Code:          "HYD-PUMP-01",
		Name:          "Hydraulic pump seal kit",
		CurrentStock:  stock,
		MinStockLevel: 1,
		UnitPrice:     price,
	}
	if err := f.materials.Create(context.Background(), material); err != nil {
		t.Fatalf("seed material: %v", err)
	}
	return material
}

// Full lifecycle with the figures from the repair playbook: five parts at
// 2000 each give a 10000 material cost and, with no other components, a
// 10000 total.
func TestRepairTicketLifecycle(t *testing.T) {
	f := newRepairFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 300)
	material := f.seedMaterial(t, 20, 2000)

	if err := f.equipment.SetMaintenanceSchedule(ctx, equipment.ID, domain.MaintenanceSchedule{
		LastMaintenanceHours: 0,
		NextMaintenanceHours: 480,
	}); err != nil {
		t.Fatalf("SetMaintenanceSchedule: %v", err)
	}

	ticket, err := f.svc.Create(ctx, RepairTicketCreateInput{
		EquipmentID:        equipment.ID,
		RepairType:         domain.RepairTypeCorrective,
		FailureDescription: "hydraulic pressure loss",
		RequestedBy:        "operator-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.Status != domain.TicketStatusPending {
		t.Fatalf("status = %s, want PENDING", ticket.Status)
	}

	if _, err := f.svc.Approve(ctx, ticket.ID, "supervisor-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.svc.Diagnose(ctx, ticket.ID, DiagnoseInput{
		RootCause:   "worn pump seals",
		Diagnosis:   "pump seal kit replacement required",
		DiagnosedBy: "tech-1",
	}); err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	claimed, err := f.equipment.GetByID(ctx, equipment.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if claimed.Status != domain.EquipmentStatusRepair {
		t.Errorf("equipment status = %s, want REPAIR", claimed.Status)
	}

	if _, err := f.svc.AddMaterial(ctx, ticket.ID, TicketMaterialInput{
		MaterialID: material.ID,
		Quantity:   5,
		RecordedBy: "tech-1",
	}); err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}

	completed, err := f.svc.Complete(ctx, ticket.ID, RepairCompleteInput{
		Solution:                   "replaced pump seals",
		OperatingHoursAtCompletion: 310,
		CompletedBy:                "tech-1",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if completed.Status != domain.TicketStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
	if completed.Costs.MaterialCost != 10000 {
		t.Errorf("material cost = %v, want 10000", completed.Costs.MaterialCost)
	}
	if completed.Costs.TotalCost != 10000 {
		t.Errorf("total cost = %v, want 10000", completed.Costs.TotalCost)
	}
	if completed.Downtime == nil {
		t.Error("downtime report missing")
	}

	stock, err := f.materials.GetByID(ctx, material.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stock.CurrentStock != 15 {
		t.Errorf("stock = %v, want 15", stock.CurrentStock)
	}

	released, err := f.equipment.GetByID(ctx, equipment.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if released.Status != domain.EquipmentStatusActive {
		t.Errorf("equipment status = %s, want ACTIVE", released.Status)
	}
	if released.OperatingHours != 310 {
		t.Errorf("operating hours = %v, want 310", released.OperatingHours)
	}
	// A repair is not preventive maintenance: the schedule keeps its baseline
	// and milestone, and the 480h service stays due.
	if released.Maintenance.LastMaintenanceHours != 0 {
		t.Errorf("last maintenance hours = %v, want 0", released.Maintenance.LastMaintenanceHours)
	}
	if released.Maintenance.NextMaintenanceHours != 480 {
		t.Errorf("next maintenance hours = %v, want 480", released.Maintenance.NextMaintenanceHours)
	}
}

func TestRepairApprovalIsOptional(t *testing.T) {
	f := newRepairFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)

	ticket, err := f.svc.Create(ctx, RepairTicketCreateInput{
		EquipmentID:        equipment.ID,
		RepairType:         domain.RepairTypeEmergency,
		FailureDescription: "engine seized",
		RequestedBy:        "operator-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.Priority != domain.TicketPriorityCritical {
		t.Errorf("priority = %s, want CRITICAL for emergency", ticket.Priority)
	}

	// Straight from PENDING to IN_PROGRESS.
	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start from PENDING: %v", err)
	}
}

func TestRepairDowntimeUsesEmergencyMultiplier(t *testing.T) {
	f := newRepairFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	f.svc.now = func() time.Time { return start }

	ticket, err := f.svc.Create(ctx, RepairTicketCreateInput{
		EquipmentID:        equipment.ID,
		RepairType:         domain.RepairTypeEmergency,
		FailureDescription: "boom cylinder failure",
		RequestedBy:        "operator-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.svc.now = func() time.Time { return end }
	completed, err := f.svc.Complete(ctx, ticket.ID, RepairCompleteInput{
		Solution:                   "replaced cylinder",
		OperatingHoursAtCompletion: 102,
		CompletedBy:                "tech-1",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	downtime := completed.Downtime
	if downtime == nil {
		t.Fatal("downtime report missing")
	}
	if downtime.TotalDowntimeMinutes != 120 {
		t.Errorf("raw downtime = %v, want 120", downtime.TotalDowntimeMinutes)
	}
	if downtime.AdjustedDowntimeMinutes != 180 {
		t.Errorf("adjusted downtime = %v, want 180 (1.5x)", downtime.AdjustedDowntimeMinutes)
	}
	// Excavator: 20 units/h at 50000 each.
	if downtime.ProductionLossUnits != 40 {
		t.Errorf("loss units = %v, want 40", downtime.ProductionLossUnits)
	}
	if downtime.ProductionLossValue != 2000000 {
		t.Errorf("loss value = %v, want 2000000", downtime.ProductionLossValue)
	}
	if downtime.AdjustedLossValue != 3000000 {
		t.Errorf("adjusted loss value = %v, want 3000000", downtime.AdjustedLossValue)
	}
}

func TestRepairAddExternalServiceRecomputesCosts(t *testing.T) {
	f := newRepairFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)
	material := f.seedMaterial(t, 10, 1500)

	ticket, err := f.svc.Create(ctx, RepairTicketCreateInput{
		EquipmentID:        equipment.ID,
		FailureDescription: "transmission noise",
		RequestedBy:        "operator-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.svc.AddMaterial(ctx, ticket.ID, TicketMaterialInput{
		MaterialID: material.ID, Quantity: 2, RecordedBy: "tech-1",
	}); err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}

	updated, err := f.svc.AddExternalService(ctx, ticket.ID, ExternalServiceInput{
		ServiceName: "transmission overhaul",
		Provider:    "GearWorks Ltd",
		Cost:        25000,
		RecordedBy:  "tech-1",
	})
	if err != nil {
		t.Fatalf("AddExternalService: %v", err)
	}
	if updated.Costs.MaterialCost != 3000 {
		t.Errorf("material cost = %v, want 3000", updated.Costs.MaterialCost)
	}
	if updated.Costs.ExternalServiceCost != 25000 {
		t.Errorf("external cost = %v, want 25000", updated.Costs.ExternalServiceCost)
	}
	if updated.Costs.TotalCost != 28000 {
		t.Errorf("total cost = %v, want 28000", updated.Costs.TotalCost)
	}
}

func TestRepairCancelReleasesEquipment(t *testing.T) {
	f := newRepairFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)

	ticket, err := f.svc.Create(ctx, RepairTicketCreateInput{
		EquipmentID:        equipment.ID,
		FailureDescription: "minor leak",
		RequestedBy:        "operator-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Start(ctx, ticket.ID, "tech-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, ticket.ID, "supervisor-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	released, err := f.equipment.GetByID(ctx, equipment.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if released.Status != domain.EquipmentStatusActive {
		t.Errorf("equipment status = %s, want ACTIVE after cancel", released.Status)
	}

	// Terminal: no further transitions.
	_, err = f.svc.Start(ctx, ticket.ID, "tech-1")
	if err == nil {
		t.Fatal("expected transition error on cancelled ticket")
	}
	if code := apperrors.ToDomainError(err).Code; code != "ILLEGAL_TRANSITION" {
		t.Errorf("error code = %s, want ILLEGAL_TRANSITION", code)
	}
}

func TestRepairStartFailsWhenEquipmentBusy(t *testing.T) {
	f := newRepairFixture()
	ctx := context.Background()
	equipment := f.seedEquipment(t, 100)

	first, err := f.svc.Create(ctx, RepairTicketCreateInput{
		EquipmentID: equipment.ID, FailureDescription: "leak A", RequestedBy: "operator-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := f.svc.Create(ctx, RepairTicketCreateInput{
		EquipmentID: equipment.ID, FailureDescription: "leak B", RequestedBy: "operator-2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Start(ctx, first.ID, "tech-1"); err != nil {
		t.Fatalf("Start first: %v", err)
	}
	_, err = f.svc.Start(ctx, second.ID, "tech-2")
	if err == nil {
		t.Fatal("expected conflict starting second ticket on the same unit")
	}
	if code := apperrors.ToDomainError(err).Code; code != "CONFLICT" {
		t.Errorf("error code = %s, want CONFLICT", code)
	}
}
