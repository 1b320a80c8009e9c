package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eplancompare/eplancompare/internal/readings"
	"github.com/eplancompare/eplancompare/internal/tariff"
)

// money renders an amount in agorot-precision shekels for reports. Rounding
// happens here and nowhere else; simulation keeps full precision.
func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func pct(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// Report holds everything a rendered comparison needs.
type Report struct {
	GeneratedAt time.Time
	Stats       readings.Stats
	Tariff      tariff.Tariff
	Batch       BatchResult
	TopN        int
}

// RenderMarkdown produces the comparison report. Plans are listed in rank
// order; the table stops at TopN when it is set.
func (r Report) RenderMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Electricity Plan Comparison\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "## Consumption\n\n")
	fmt.Fprintf(&b, "- Total: %.2f kWh over %d days (%d readings)\n", r.Stats.TotalKWh, r.Stats.Days, r.Stats.Readings)
	fmt.Fprintf(&b, "- Daily average: %.2f kWh\n", r.Stats.DailyAverageKWh)
	fmt.Fprintf(&b, "- Peak hour: %s\n", r.Stats.PeakHourLabel())
	fmt.Fprintf(&b, "- Night share (23:00-07:00): %.1f%%\n", r.Stats.NightSharePercent())
	if r.Stats.HighestMonth != "" {
		fmt.Fprintf(&b, "- Highest month: %s (%.2f kWh), lowest: %s (%.2f kWh)\n",
			r.Stats.HighestMonth, r.Stats.HighestMonthKWh, r.Stats.LowestMonth, r.Stats.LowestMonthKWh)
	}

	fmt.Fprintf(&b, "\n## Baseline Tariff\n\n")
	fmt.Fprintf(&b, "- Rate: %s per kWh, fixed fees: %s + %s per month, VAT: %s%%\n",
		money(r.Tariff.PerKwhRate),
		money(r.Tariff.FixedDistributionMonthly),
		money(r.Tariff.FixedSupplyMonthly),
		pct(r.Tariff.VATRate*100))

	fmt.Fprintf(&b, "\n## Plans\n\n")
	fmt.Fprintf(&b, "Evaluated %d of %d plans (%d skipped).\n\n",
		r.Batch.ValidPlans, r.Batch.TotalPlans, r.Batch.InvalidPlans)

	if len(r.Batch.Results) > 0 {
		fmt.Fprintf(&b, "| # | Provider | Plan | Total | Savings | Savings %% | Smart Meter |\n")
		fmt.Fprintf(&b, "|---|----------|------|-------|---------|-----------|-------------|\n")
		for i, res := range r.Batch.Results {
			if r.TopN > 0 && i >= r.TopN {
				break
			}
			meter := "no"
			if res.RequiresSmartMeter {
				meter = "yes"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s%% | %s |\n",
				i+1, res.Provider, res.PlanName,
				money(res.TotalCost), money(res.SavingsAbsolute), pct(res.SavingsPercent), meter)
		}

		best := r.Batch.Results[0]
		fmt.Fprintf(&b, "\nBest plan: **%s / %s**, saving %s (%s%%) against a baseline of %s.\n",
			best.Provider, best.PlanName,
			money(best.SavingsAbsolute), pct(best.SavingsPercent), money(best.BaselineCost))
		if len(best.TimeWindows) > 0 {
			fmt.Fprintf(&b, "Discount windows: %s\n", strings.Join(best.TimeWindows, "; "))
		}
	}

	if len(r.Batch.Skipped) > 0 {
		fmt.Fprintf(&b, "\n## Skipped\n\n")
		for _, s := range r.Batch.Skipped {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	return b.String()
}
