package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

func newEquipmentFixture() (*EquipmentService, *fakeEquipmentRepo, *captureDispatcher) {
	equipment := newFakeEquipmentRepo()
	dispatcher := &captureDispatcher{}
	svc := NewEquipmentService(testSchedulerConfig(), EquipmentDependencies{
		EquipmentRepo: equipment,
		Dispatcher:    dispatcher,
	})
	return svc, equipment, dispatcher
}

func TestEquipmentCreateComputesInitialSchedule(t *testing.T) {
	svc, _, _ := newEquipmentFixture()
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	equipment, err := svc.Create(ctx, EquipmentCreateInput{
		Code:           "EXC-010",
		Name:           "Excavator 10",
		Type:           domain.EquipmentTypeExcavator,
		OperatingHours: 65,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if equipment.Status != domain.EquipmentStatusActive {
		t.Errorf("status = %s, want ACTIVE", equipment.Status)
	}
	// 60 is already behind a 65h counter, so the 120 milestone applies.
	if equipment.Maintenance.NextMaintenanceHours != 120 {
		t.Errorf("next maintenance hours = %v, want 120", equipment.Maintenance.NextMaintenanceHours)
	}
	// ceil((120-65)/8) = 7 days out.
	want := base.AddDate(0, 0, 7)
	if equipment.Maintenance.NextMaintenanceDate == nil || !equipment.Maintenance.NextMaintenanceDate.Equal(want) {
		t.Errorf("next maintenance date = %v, want %v", equipment.Maintenance.NextMaintenanceDate, want)
	}
}

func TestEquipmentCreateDuplicateCode(t *testing.T) {
	svc, _, _ := newEquipmentFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, EquipmentCreateInput{Code: "DMP-001", Name: "Dump truck 1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, EquipmentCreateInput{Code: "DMP-001", Name: "Dump truck 2"})
	if err == nil {
		t.Fatal("expected duplicate code error")
	}
	if code := apperrors.ToDomainError(err).Code; code != "DUPLICATE_CODE" {
		t.Errorf("error code = %s, want DUPLICATE_CODE", code)
	}
}

func TestEquipmentOperatingHoursNeverDecrease(t *testing.T) {
	svc, _, _ := newEquipmentFixture()
	ctx := context.Background()

	equipment, err := svc.Create(ctx, EquipmentCreateInput{
		Code: "GRD-001", Name: "Grader 1", OperatingHours: 200,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.UpdateOperatingHours(ctx, equipment.ID, 150, "operator-1")
	if err == nil {
		t.Fatal("expected regression to be rejected")
	}
	if code := apperrors.ToDomainError(err).Code; code != "INVALID_OPERATING_HOURS" {
		t.Errorf("error code = %s, want INVALID_OPERATING_HOURS", code)
	}

	current, err := svc.Get(ctx, equipment.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.OperatingHours != 200 {
		t.Errorf("operating hours = %v, want 200", current.OperatingHours)
	}

	// Equal readings are allowed; the counter just stays put.
	if _, err := svc.UpdateOperatingHours(ctx, equipment.ID, 200, "operator-1"); err != nil {
		t.Fatalf("UpdateOperatingHours equal reading: %v", err)
	}
}

func TestEquipmentCrossingMilestoneEmitsDue(t *testing.T) {
	svc, _, dispatcher := newEquipmentFixture()
	ctx := context.Background()

	equipment, err := svc.Create(ctx, EquipmentCreateInput{
		Code: "EXC-011", Name: "Excavator 11", OperatingHours: 110,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if equipment.Maintenance.NextMaintenanceHours != 120 {
		t.Fatalf("next maintenance hours = %v, want 120", equipment.Maintenance.NextMaintenanceHours)
	}

	if _, err := svc.UpdateOperatingHours(ctx, equipment.ID, 115, "operator-1"); err != nil {
		t.Fatalf("UpdateOperatingHours: %v", err)
	}
	if got := dispatcher.byType(events.EventMaintenanceDue); len(got) != 0 {
		t.Fatalf("maintenance_due events before milestone = %d, want 0", len(got))
	}

	if _, err := svc.UpdateOperatingHours(ctx, equipment.ID, 125, "operator-1"); err != nil {
		t.Fatalf("UpdateOperatingHours: %v", err)
	}
	due := dispatcher.byType(events.EventMaintenanceDue)
	if len(due) != 1 {
		t.Fatalf("maintenance_due events = %d, want 1", len(due))
	}
	payload, ok := due[0].Payload.(events.MaintenanceDuePayload)
	if !ok {
		t.Fatalf("payload type = %T", due[0].Payload)
	}
	if payload.EquipmentCode != "EXC-011" || payload.OperatingHours != 125 {
		t.Errorf("payload = %+v", payload)
	}

	// After the crossing the plan moves on to the next unreached milestone.
	current, err := svc.Get(ctx, equipment.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.Maintenance.NextMaintenanceHours != 240 {
		t.Errorf("next maintenance hours = %v, want 240", current.Maintenance.NextMaintenanceHours)
	}
}

// Counter updates re-run the scheduler: a unit created at 55h is first
// scheduled for 60, and a reading of 65 moves the plan to the next unreached
// milestone, 120, estimated ceil((120-65)/8) = 7 days out.
func TestUpdateOperatingHoursRecomputesSchedule(t *testing.T) {
	svc, _, _ := newEquipmentFixture()
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	equipment, err := svc.Create(ctx, EquipmentCreateInput{
		Code: "CRN-003", Name: "Crane 3", OperatingHours: 55,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if equipment.Maintenance.NextMaintenanceHours != 60 {
		t.Fatalf("next maintenance hours = %v, want 60", equipment.Maintenance.NextMaintenanceHours)
	}

	updated, err := svc.UpdateOperatingHours(ctx, equipment.ID, 65, "operator-1")
	if err != nil {
		t.Fatalf("UpdateOperatingHours: %v", err)
	}
	if updated.Maintenance.NextMaintenanceHours != 120 {
		t.Errorf("next maintenance hours = %v, want 120", updated.Maintenance.NextMaintenanceHours)
	}
	if updated.Maintenance.LastMaintenanceHours != 0 {
		t.Errorf("last maintenance hours = %v, want 0", updated.Maintenance.LastMaintenanceHours)
	}
	wantDate := base.AddDate(0, 0, 7)
	if updated.Maintenance.NextMaintenanceDate == nil || !updated.Maintenance.NextMaintenanceDate.Equal(wantDate) {
		t.Errorf("next maintenance date = %v, want %v", updated.Maintenance.NextMaintenanceDate, wantDate)
	}

	// The recomputed plan is persisted, not just returned.
	stored, err := svc.Get(ctx, equipment.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Maintenance.NextMaintenanceHours != 120 {
		t.Errorf("stored next maintenance hours = %v, want 120", stored.Maintenance.NextMaintenanceHours)
	}
}

func TestListDueForMaintenance(t *testing.T) {
	svc, repo, _ := newEquipmentFixture()
	ctx := context.Background()

	base := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	// Scheduled for 120h, estimated ceil((120-65)/8) = 7 days out.
	overdue, err := svc.Create(ctx, EquipmentCreateInput{
		Code: "LDR-010", Name: "Loader 10", OperatingHours: 65,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Scheduled for 240h, estimated ceil((240-125)/8) = 15 days out.
	if _, err := svc.Create(ctx, EquipmentCreateInput{
		Code: "LDR-011", Name: "Loader 11", OperatingHours: 125,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Eleven idle days: the first unit is 4 days past its estimated date,
	// the second still has 4 to go.
	svc.now = func() time.Time { return base.AddDate(0, 0, 11) }

	due, err := svc.ListDueForMaintenance(ctx)
	if err != nil {
		t.Fatalf("ListDueForMaintenance: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due units = %d, want 1", len(due))
	}
	row := due[0]
	if row.Equipment.ID != overdue.ID {
		t.Errorf("due unit = %s, want %s", row.Equipment.ID, overdue.ID)
	}
	if row.OverdueDays != 4 {
		t.Errorf("overdue days = %v, want 4", row.OverdueDays)
	}
	if row.Urgency != "high" {
		t.Errorf("urgency = %s, want high", row.Urgency)
	}

	// Inactive units fall out of the read model.
	if err := svc.Deactivate(ctx, overdue.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	due, err = svc.ListDueForMaintenance(ctx)
	if err != nil {
		t.Fatalf("ListDueForMaintenance: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due units after deactivation = %d, want 0", len(due))
	}
	if _, err := repo.GetByID(ctx, overdue.ID); err == nil {
		t.Error("deactivated unit still readable")
	}
}
