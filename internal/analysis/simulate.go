package analysis

import (
	"fmt"

	"github.com/eplancompare/eplancompare/internal/plans"
	"github.com/eplancompare/eplancompare/internal/readings"
	"github.com/eplancompare/eplancompare/internal/tariff"
)

// PlanCostResult is the simulated outcome of one plan against one
// consumption series. SavingsAbsolute can be negative: a plan with a high
// monthly fee can cost more than the baseline.
type PlanCostResult struct {
	Provider           string   `json:"provider"`
	PlanName           string   `json:"plan_name"`
	TotalCost          float64  `json:"total_cost"`
	BaselineCost       float64  `json:"baseline_cost"`
	SavingsAbsolute    float64  `json:"savings_absolute"`
	SavingsPercent     float64  `json:"savings_percent"`
	RequiresSmartMeter bool     `json:"requires_smart_meter"`
	DiscountScore      float64  `json:"discount_score"`
	FlexibilityScore   float64  `json:"flexibility_score"`
	TimeWindows        []string `json:"time_windows"`
}

// SimulationError marks a plan whose values are unusable for simulation.
// It is recoverable at batch level: the plan is skipped, siblings continue.
type SimulationError struct {
	Provider string
	PlanName string
	Reason   error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulate plan %s / %s: %v", e.Provider, e.PlanName, e.Reason)
}

func (e *SimulationError) Unwrap() error {
	return e.Reason
}

// ApplyPlan simulates what the series would have cost on the given plan.
// One pass over the readings; for each reading the highest discount among
// matching windows applies (discounts never stack), and a reading outside
// every window pays the full rate.
func ApplyPlan(plan plans.DiscountPlan, rs []readings.Reading, t tariff.Tariff) (PlanCostResult, error) {
	if err := plan.Validate(); err != nil {
		return PlanCostResult{}, &SimulationError{Provider: plan.Provider, PlanName: plan.Name, Reason: err}
	}

	// Accumulate in full float64 precision; rounding happens only at the
	// display layer, so long series don't compound rounding drift.
	consumptionCost := 0.0
	for _, r := range rs {
		day := r.Time.Weekday()
		tod := plans.ClockOf(r.Time)

		discount := 0.0
		for _, w := range plan.Windows {
			if w.Discount > discount && w.Contains(day, tod) {
				discount = w.Discount
			}
		}

		consumptionCost += r.KWh * t.PerKwhRate * (1 - discount)
	}

	months := readings.MonthsSpanned(rs)
	fixed := float64(months) * (t.FixedDistributionMonthly + t.FixedSupplyMonthly)

	totalCost := (consumptionCost+fixed)*(1+t.VATRate) + plan.MonthlyFee*float64(months)
	baselineCost := t.BaselineCost(rs)

	savings := baselineCost - totalCost
	savingsPercent := 0.0
	if baselineCost > 0 {
		savingsPercent = savings / baselineCost * 100
	}

	return PlanCostResult{
		Provider:           plan.Provider,
		PlanName:           plan.Name,
		TotalCost:          totalCost,
		BaselineCost:       baselineCost,
		SavingsAbsolute:    savings,
		SavingsPercent:     savingsPercent,
		RequiresSmartMeter: plan.RequiresSmartMeter,
		DiscountScore:      DiscountScore(plan),
		FlexibilityScore:   FlexibilityScore(plan),
		TimeWindows:        plan.WindowsSummary(),
	}, nil
}
