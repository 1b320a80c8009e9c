package analysis

import (
	"sort"
	"time"

	"github.com/eplancompare/eplancompare/internal/plans"
)

// Reference intervals for the flexibility score. Night deliberately matches
// the 23:00-07:00 split used by the consumption statistics.
var (
	nightStart = plans.TimeOfDay(23 * 60)
	nightEnd   = plans.TimeOfDay(7 * 60)
	dayStart   = plans.TimeOfDay(7 * 60)
	dayEnd     = plans.TimeOfDay(17 * 60)
)

// DiscountScore summarizes how deep a plan's discounts run: 70% weight on
// the best window, 30% on the average across windows. A plan whose only
// window is the synthesized fallback scores on its base discount alone.
func DiscountScore(p plans.DiscountPlan) float64 {
	if p.WindowsSynthesized {
		return p.BaseDiscount
	}

	max, sum := 0.0, 0.0
	for _, w := range p.Windows {
		if w.Discount > max {
			max = w.Discount
		}
		sum += w.Discount
	}
	avg := sum / float64(len(p.Windows))
	return 0.7*max + 0.3*avg
}

// FlexibilityScore estimates how broadly a plan's discounts cover a normal
// week: 0.3 per window, plus night, daytime and weekend coverage. An
// additive heuristic, not normalized; more windows always score higher.
func FlexibilityScore(p plans.DiscountPlan) float64 {
	slots := 0.3 * float64(len(p.Windows))

	var night, day, weekend float64
	for _, w := range p.Windows {
		if w.Overlaps(nightStart, nightEnd) {
			night = 1
		}
		if w.Overlaps(dayStart, dayEnd) {
			day = 1
		}
		if w.Days.Has(time.Saturday) {
			weekend = 1
		}
	}

	return slots + 0.3*night + 0.2*day + 0.2*weekend
}

// Rank orders results by savings, best first. Ties break on provider name,
// then plan name, so the order is stable across runs regardless of the
// order plans were simulated in.
func Rank(results []PlanCostResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.SavingsPercent != b.SavingsPercent {
			return a.SavingsPercent > b.SavingsPercent
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.PlanName < b.PlanName
	})
}
