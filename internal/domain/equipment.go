package domain

import "time"

// EquipmentType enumerates machine categories.
type EquipmentType string

const (
	EquipmentTypeExcavator  EquipmentType = "EXCAVATOR"
	EquipmentTypeCrane      EquipmentType = "CRANE"
	EquipmentTypeBulldozer  EquipmentType = "BULLDOZER"
	EquipmentTypeDumpTruck  EquipmentType = "DUMP_TRUCK"
	EquipmentTypeLoader     EquipmentType = "LOADER"
	EquipmentTypeGenerator  EquipmentType = "GENERATOR"
	EquipmentTypeCompressor EquipmentType = "COMPRESSOR"
	EquipmentTypeOther      EquipmentType = "OTHER"
)

// EquipmentStatus enumerates lifecycle states for equipment.
type EquipmentStatus string

const (
	EquipmentStatusActive      EquipmentStatus = "ACTIVE"
	EquipmentStatusMaintenance EquipmentStatus = "MAINTENANCE"
	EquipmentStatusRepair      EquipmentStatus = "REPAIR"
	EquipmentStatusInactive    EquipmentStatus = "INACTIVE"
	EquipmentStatusScrapped    EquipmentStatus = "SCRAPPED"
)

// MaintenanceSchedule tracks the operating-hour maintenance plan of a unit.
type MaintenanceSchedule struct {
	LastMaintenanceHours float64    `json:"last_maintenance_hours"`
	NextMaintenanceHours float64    `json:"next_maintenance_hours"`
	NextMaintenanceDate  *time.Time `json:"next_maintenance_date,omitempty"`
}

// Equipment is the root resource every ticket references. OperatingHours is a
// cumulative counter and never regresses.
type Equipment struct {
	ID             string
	Code           string
	Name           string
	Type           EquipmentType
	Status         EquipmentStatus
	OperatingHours float64
	Maintenance    MaintenanceSchedule
	Location       string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
