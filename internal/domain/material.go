package domain

import "time"

// Material is a spare part tracked by the inventory ledger.
type Material struct {
	ID            string
	Code          string
	Name          string
	Category      string
	Unit          string
	CurrentStock  float64
	MinStockLevel float64
	// MaxStockLevel is advisory; restocking above it is allowed.
	MaxStockLevel float64
	UnitPrice     float64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BelowMinStock reports whether the current stock dropped under the reorder
// threshold.
func (m *Material) BelowMinStock() bool {
	return m.CurrentStock < m.MinStockLevel
}
