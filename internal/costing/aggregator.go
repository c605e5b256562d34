package costing

import "github.com/spec-kit/maintenance-service/internal/domain"

// MaterialLineCost computes one consumed-material line: quantity times unit
// price, always zero for warranty items.
func MaterialLineCost(quantity, unitPrice float64, warranty bool) float64 {
	if warranty {
		return 0
	}
	return round2(quantity * unitPrice)
}

// AggregateCosts recomputes the financial summary of a ticket from scratch.
// Material and external-service components are re-summed from their line
// items rather than incrementally patched, so the totals cannot drift.
func AggregateCosts(costs domain.Costs, materials []domain.MaterialUsage, services []domain.ExternalService) domain.Costs {
	costs.MaterialCost = 0
	for _, line := range materials {
		costs.MaterialCost += line.TotalCost
	}
	costs.MaterialCost = round2(costs.MaterialCost)

	costs.ExternalServiceCost = 0
	for _, svc := range services {
		costs.ExternalServiceCost += svc.Cost
	}
	costs.ExternalServiceCost = round2(costs.ExternalServiceCost)

	costs.TotalCost = round2(costs.LaborCost + costs.MaterialCost + costs.ExternalServiceCost + costs.OverheadCost)
	return costs
}
