package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// CreateEquipmentRequest payload.
type CreateEquipmentRequest struct {
	Code           string               `json:"code" validate:"required"`
	Name           string               `json:"name" validate:"required"`
	Type           domain.EquipmentType `json:"type"`
	OperatingHours float64              `json:"operating_hours" validate:"gte=0"`
	Location       string               `json:"location"`
}

// UpdateEquipmentRequest payload.
type UpdateEquipmentRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

// OperatingHoursRequest payload.
type OperatingHoursRequest struct {
	OperatingHours float64 `json:"operating_hours" validate:"gte=0"`
}

// MaintenanceScheduleResponse is the embedded schedule block.
type MaintenanceScheduleResponse struct {
	LastMaintenanceHours float64    `json:"last_maintenance_hours"`
	NextMaintenanceHours float64    `json:"next_maintenance_hours"`
	NextMaintenanceDate  *time.Time `json:"next_maintenance_date,omitempty"`
}

// EquipmentResponse is the registry view of one unit.
type EquipmentResponse struct {
	ID             string                      `json:"id"`
	Code           string                      `json:"code"`
	Name           string                      `json:"name"`
	Type           domain.EquipmentType        `json:"type"`
	Status         domain.EquipmentStatus      `json:"status"`
	OperatingHours float64                     `json:"operating_hours"`
	Maintenance    MaintenanceScheduleResponse `json:"maintenance"`
	Location       string                      `json:"location,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// DueEquipmentResponse is one row of the maintenance-due report.
type DueEquipmentResponse struct {
	Equipment    EquipmentResponse `json:"equipment"`
	Urgency      string            `json:"urgency"`
	OverdueHours float64           `json:"overdue_hours"`
	OverdueDays  float64           `json:"overdue_days"`
}

// ToEquipmentResponse maps a domain unit to its API shape.
func ToEquipmentResponse(equipment *domain.Equipment) EquipmentResponse {
	return EquipmentResponse{
		ID:             equipment.ID,
		Code:           equipment.Code,
		Name:           equipment.Name,
		Type:           equipment.Type,
		Status:         equipment.Status,
		OperatingHours: equipment.OperatingHours,
		Maintenance: MaintenanceScheduleResponse{
			LastMaintenanceHours: equipment.Maintenance.LastMaintenanceHours,
			NextMaintenanceHours: equipment.Maintenance.NextMaintenanceHours,
			NextMaintenanceDate:  equipment.Maintenance.NextMaintenanceDate,
		},
		Location:  equipment.Location,
		CreatedAt: equipment.CreatedAt,
		UpdatedAt: equipment.UpdatedAt,
	}
}

// ToDueEquipmentResponse maps one due-report row.
func ToDueEquipmentResponse(row service.DueEquipment) DueEquipmentResponse {
	return DueEquipmentResponse{
		Equipment:    ToEquipmentResponse(&row.Equipment),
		Urgency:      string(row.Urgency),
		OverdueHours: row.OverdueHours,
		OverdueDays:  row.OverdueDays,
	}
}
