package scheduling

import (
	"math"
	"sort"
	"time"
)

// DefaultIntervalsHours are the fixed preventive-maintenance milestones in
// operating hours.
var DefaultIntervalsHours = []float64{60, 120, 240, 480, 960}

// DefaultUsageHoursPerDay is the assumed daily usage rate when estimating a
// calendar date for an operating-hour milestone.
const DefaultUsageHoursPerDay = 8.0

// Schedule is the computed next-maintenance plan for one piece of equipment.
type Schedule struct {
	NextMaintenanceHours float64
	NextMaintenanceDate  time.Time
	DaysRemaining        int
}

// NextMaintenance returns the smallest milestone lastMaintenanceHours +
// interval that lies strictly beyond currentHours, scanning intervals in
// ascending order. Milestones already passed are skipped: a unit at 65 hours
// with lastMaintenanceHours 0 is scheduled for 120, not 60. When every
// milestone has been passed the smallest interval is re-applied from the
// current counter so the unit is always scheduled again.
func NextMaintenance(lastMaintenanceHours, currentHours float64, intervals []float64, usageHoursPerDay float64, now time.Time) Schedule {
	if len(intervals) == 0 {
		intervals = DefaultIntervalsHours
	}
	if usageHoursPerDay <= 0 {
		usageHoursPerDay = DefaultUsageHoursPerDay
	}
	sorted := append([]float64(nil), intervals...)
	sort.Float64s(sorted)

	milestone := currentHours + sorted[0]
	for _, interval := range sorted {
		if candidate := lastMaintenanceHours + interval; candidate > currentHours {
			milestone = candidate
			break
		}
	}

	days := int(math.Ceil((milestone - currentHours) / usageHoursPerDay))
	if days < 0 {
		days = 0
	}
	return Schedule{
		NextMaintenanceHours: milestone,
		NextMaintenanceDate:  now.AddDate(0, 0, days),
		DaysRemaining:        days,
	}
}

// IsDue reports whether maintenance is due, either by operating hours or by
// calendar date. Equipment without a computed schedule is never due.
func IsDue(operatingHours, nextMaintenanceHours float64, nextMaintenanceDate *time.Time, now time.Time) bool {
	if nextMaintenanceHours <= 0 && nextMaintenanceDate == nil {
		return false
	}
	if nextMaintenanceHours > 0 && operatingHours >= nextMaintenanceHours {
		return true
	}
	if nextMaintenanceDate != nil && !now.Before(*nextMaintenanceDate) {
		return true
	}
	return false
}

// UrgencyLevel classifies how overdue a unit is.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyLow      UrgencyLevel = "low"
)

// OverdueHours returns how many operating hours past the milestone the unit
// is; zero or negative means not yet overdue by hours.
func OverdueHours(operatingHours, nextMaintenanceHours float64) float64 {
	if nextMaintenanceHours <= 0 {
		return 0
	}
	return operatingHours - nextMaintenanceHours
}

// OverdueDays returns how many days past the scheduled date the unit is.
func OverdueDays(nextMaintenanceDate *time.Time, now time.Time) float64 {
	if nextMaintenanceDate == nil {
		return 0
	}
	return now.Sub(*nextMaintenanceDate).Hours() / 24
}

// Urgency classifies overdueness: critical beyond 48 operating hours or 7
// days, high beyond 24 hours or 3 days, medium for anything overdue at all.
func Urgency(operatingHours, nextMaintenanceHours float64, nextMaintenanceDate *time.Time, now time.Time) UrgencyLevel {
	hours := OverdueHours(operatingHours, nextMaintenanceHours)
	days := OverdueDays(nextMaintenanceDate, now)

	switch {
	case hours > 48 || days > 7:
		return UrgencyCritical
	case hours > 24 || days > 3:
		return UrgencyHigh
	case hours > 0 || days > 0:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
