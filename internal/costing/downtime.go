package costing

import (
	"math"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// ProductivityRate describes what one hour of equipment availability is worth.
type ProductivityRate struct {
	UnitsPerHour float64
	ValuePerUnit float64
	Unit         string
}

// RateTable maps an equipment category to its productivity rate.
type RateTable map[domain.EquipmentType]ProductivityRate

// MultiplierTable maps a work type (maintenance or repair kind) to a
// production-impact multiplier: planned work disrupts production less than
// unplanned work.
type MultiplierTable map[string]float64

// DefaultRates returns the built-in productivity lookup. Tables are injected
// into the Calculator so rates can be tuned without touching logic and tests
// can substitute fixed values.
func DefaultRates() RateTable {
	return RateTable{
		domain.EquipmentTypeExcavator:  {UnitsPerHour: 20, ValuePerUnit: 50000, Unit: "m³"},
		domain.EquipmentTypeCrane:      {UnitsPerHour: 15, ValuePerUnit: 75000, Unit: "lifts"},
		domain.EquipmentTypeBulldozer:  {UnitsPerHour: 18, ValuePerUnit: 45000, Unit: "m³"},
		domain.EquipmentTypeDumpTruck:  {UnitsPerHour: 25, ValuePerUnit: 30000, Unit: "t"},
		domain.EquipmentTypeLoader:     {UnitsPerHour: 22, ValuePerUnit: 35000, Unit: "m³"},
		domain.EquipmentTypeGenerator:  {UnitsPerHour: 95, ValuePerUnit: 1500, Unit: "kWh"},
		domain.EquipmentTypeCompressor: {UnitsPerHour: 40, ValuePerUnit: 2500, Unit: "m³"},
	}
}

// defaultRate is the fallback for unlisted equipment types.
var defaultRate = ProductivityRate{UnitsPerHour: 10, ValuePerUnit: 25000, Unit: "units"}

// DefaultMultipliers returns the built-in impact multipliers.
func DefaultMultipliers() MultiplierTable {
	return MultiplierTable{
		string(domain.MaintenanceTypePreventive): 0.7,
		string(domain.MaintenanceTypeScheduled):  0.8,
		string(domain.RepairTypeCorrective):      1.2,
		string(domain.RepairTypeEmergency):       1.5,
	}
}

// Calculator turns timestamp pairs into downtime and production-loss figures.
// All methods are pure.
type Calculator struct {
	rates       RateTable
	multipliers MultiplierTable
}

// NewCalculator builds a calculator around the given tables; nil tables fall
// back to the defaults.
func NewCalculator(rates RateTable, multipliers MultiplierTable) *Calculator {
	if rates == nil {
		rates = DefaultRates()
	}
	if multipliers == nil {
		multipliers = DefaultMultipliers()
	}
	return &Calculator{rates: rates, multipliers: multipliers}
}

// TotalDowntimeMinutes returns the whole-minute duration between start and
// end, never negative.
func TotalDowntimeMinutes(start, end time.Time) float64 {
	minutes := math.Round(end.Sub(start).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Rate looks up the productivity rate for an equipment type, falling back to
// a conservative default for unlisted categories.
func (c *Calculator) Rate(equipmentType domain.EquipmentType) ProductivityRate {
	if rate, ok := c.rates[equipmentType]; ok {
		return rate
	}
	return defaultRate
}

// Multiplier looks up the production-impact multiplier for a work type.
func (c *Calculator) Multiplier(workType string) float64 {
	if m, ok := c.multipliers[workType]; ok {
		return m
	}
	return 1.0
}

// ProductionLoss converts downtime minutes into lost production units and
// their monetary value. Units are rounded to two decimals, value to whole
// currency.
func (c *Calculator) ProductionLoss(downtimeMinutes float64, equipmentType domain.EquipmentType) (units, value float64) {
	rate := c.Rate(equipmentType)
	units = round2(downtimeMinutes / 60 * rate.UnitsPerHour)
	value = math.Round(units * rate.ValuePerUnit)
	return units, value
}

// ComprehensiveDowntime composes raw downtime, production loss and the impact
// multiplier into one report. Raw values are retained next to the adjusted
// ones so the adjustment stays auditable.
func (c *Calculator) ComprehensiveDowntime(start, end time.Time, equipmentType domain.EquipmentType, workType string) domain.Downtime {
	raw := TotalDowntimeMinutes(start, end)
	multiplier := c.Multiplier(workType)
	rate := c.Rate(equipmentType)
	units, value := c.ProductionLoss(raw, equipmentType)

	return domain.Downtime{
		TotalDowntimeMinutes:    raw,
		AdjustedDowntimeMinutes: math.Round(raw * multiplier),
		ProductionLossUnits:     units,
		ProductionLossValue:     value,
		AdjustedLossUnits:       round2(units * multiplier),
		AdjustedLossValue:       math.Round(value * multiplier),
		Unit:                    rate.Unit,
		ImpactMultiplier:        multiplier,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
