package costing

import (
	"testing"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

var calcStart = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func TestTotalDowntimeMinutes(t *testing.T) {
	if got := TotalDowntimeMinutes(calcStart, calcStart.Add(90*time.Minute)); got != 90 {
		t.Errorf("got %v, want 90", got)
	}
	if got := TotalDowntimeMinutes(calcStart, calcStart.Add(30*time.Second)); got != 1 {
		t.Errorf("rounding: got %v, want 1", got)
	}
	if got := TotalDowntimeMinutes(calcStart.Add(time.Hour), calcStart); got != 0 {
		t.Errorf("inverted interval: got %v, want 0", got)
	}
}

func TestComprehensiveDowntimeZeroInterval(t *testing.T) {
	calc := NewCalculator(nil, nil)
	report := calc.ComprehensiveDowntime(calcStart, calcStart, domain.EquipmentTypeExcavator, string(domain.RepairTypeEmergency))
	if report.TotalDowntimeMinutes != 0 || report.AdjustedDowntimeMinutes != 0 ||
		report.ProductionLossUnits != 0 || report.ProductionLossValue != 0 ||
		report.AdjustedLossUnits != 0 || report.AdjustedLossValue != 0 {
		t.Errorf("expected all-zero report for zero-length interval, got %+v", report)
	}
}

func TestComprehensiveDowntimeEmergencyRepair(t *testing.T) {
	calc := NewCalculator(nil, nil)
	end := calcStart.Add(2 * time.Hour)
	report := calc.ComprehensiveDowntime(calcStart, end, domain.EquipmentTypeExcavator, string(domain.RepairTypeEmergency))

	if report.TotalDowntimeMinutes != 120 {
		t.Errorf("raw minutes: got %v", report.TotalDowntimeMinutes)
	}
	if report.AdjustedDowntimeMinutes != 180 {
		t.Errorf("adjusted minutes: got %v, want 180", report.AdjustedDowntimeMinutes)
	}
	// 2h * 20 m³/h = 40 units, 40 * 50000 = 2,000,000.
	if report.ProductionLossUnits != 40 {
		t.Errorf("raw units: got %v, want 40", report.ProductionLossUnits)
	}
	if report.ProductionLossValue != 2000000 {
		t.Errorf("raw value: got %v, want 2000000", report.ProductionLossValue)
	}
	if report.AdjustedLossUnits != 60 {
		t.Errorf("adjusted units: got %v, want 60", report.AdjustedLossUnits)
	}
	if report.AdjustedLossValue != 3000000 {
		t.Errorf("adjusted value: got %v, want 3000000", report.AdjustedLossValue)
	}
	if report.Unit != "m³" || report.ImpactMultiplier != 1.5 {
		t.Errorf("unit/multiplier: got %q %v", report.Unit, report.ImpactMultiplier)
	}
}

func TestMultiplierDefaults(t *testing.T) {
	calc := NewCalculator(nil, nil)
	tests := map[string]float64{
		string(domain.MaintenanceTypePreventive): 0.7,
		string(domain.MaintenanceTypeScheduled):  0.8,
		string(domain.RepairTypeCorrective):      1.2,
		string(domain.RepairTypeEmergency):       1.5,
		"UNKNOWN":                                1.0,
	}
	for workType, want := range tests {
		if got := calc.Multiplier(workType); got != want {
			t.Errorf("%s: got %v, want %v", workType, got, want)
		}
	}
}

func TestRateFallbackForUnlistedType(t *testing.T) {
	calc := NewCalculator(nil, nil)
	rate := calc.Rate(domain.EquipmentType("FORKLIFT"))
	if rate.UnitsPerHour != 10 || rate.Unit != "units" {
		t.Errorf("expected default fallback rate, got %+v", rate)
	}
}

func TestInjectedTables(t *testing.T) {
	rates := RateTable{domain.EquipmentTypeOther: {UnitsPerHour: 1, ValuePerUnit: 100, Unit: "pc"}}
	multipliers := MultiplierTable{"TEST": 2}
	calc := NewCalculator(rates, multipliers)

	units, value := calc.ProductionLoss(30, domain.EquipmentTypeOther)
	if units != 0.5 || value != 50 {
		t.Errorf("got units %v value %v, want 0.5 and 50", units, value)
	}
	if calc.Multiplier("TEST") != 2 {
		t.Error("injected multiplier not used")
	}
}
