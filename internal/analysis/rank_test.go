package analysis

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/eplancompare/eplancompare/internal/plans"
	"github.com/eplancompare/eplancompare/internal/readings"
	"github.com/eplancompare/eplancompare/internal/tariff"
)

func TestDiscountScore(t *testing.T) {
	p := plans.DiscountPlan{
		BaseDiscount: 0.05,
		Windows: []plans.TimeWindow{
			{Start: 0, End: 6 * 60, Days: plans.AllDays, Discount: 0.2},
			{Start: 12 * 60, End: 14 * 60, Days: plans.AllDays, Discount: 0.1},
		},
	}
	// 0.7*0.2 + 0.3*0.15
	want := 0.185
	if got := DiscountScore(p); math.Abs(got-want) > 1e-9 {
		t.Errorf("DiscountScore = %v, want %v", got, want)
	}
}

func TestDiscountScoreSynthesizedFallsBackToBase(t *testing.T) {
	p := plans.DiscountPlan{
		BaseDiscount: 0.07,
		Windows: []plans.TimeWindow{
			{Start: 0, End: 24 * 60, Days: plans.SunThu, Discount: 0.07},
		},
		WindowsSynthesized: true,
	}
	if got := DiscountScore(p); got != 0.07 {
		t.Errorf("DiscountScore = %v, want base discount 0.07", got)
	}
	// The fallback window still scores: one window carrying night and day
	// coverage but no Saturday.
	if got := FlexibilityScore(p); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("FlexibilityScore = %v, want 0.8", got)
	}
}

func TestFlexibilityScore(t *testing.T) {
	night := plans.TimeWindow{Start: 23 * 60, End: 7 * 60, Days: plans.SunThu, Discount: 0.2}
	daytime := plans.TimeWindow{Start: 9 * 60, End: 16 * 60, Days: plans.AllDays, Discount: 0.1}

	cases := []struct {
		name    string
		windows []plans.TimeWindow
		want    float64
	}{
		// 1 window, night overlap only: 0.3 + 0.3
		{"night only", []plans.TimeWindow{night}, 0.6},
		// 2 windows, night + day + weekend (daytime covers Saturday):
		// 0.6 + 0.3 + 0.2 + 0.2
		{"night and day", []plans.TimeWindow{night, daytime}, 1.3},
		// window count keeps adding, the score is not normalized
		{"four windows", []plans.TimeWindow{night, daytime, night, daytime}, 1.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := plans.DiscountPlan{Windows: tc.windows}
			if got := FlexibilityScore(p); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("FlexibilityScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFlexibilityScoreSaturdayCounts(t *testing.T) {
	p := plans.DiscountPlan{
		Windows: []plans.TimeWindow{
			{Start: 18 * 60, End: 22 * 60, Days: plans.DaySet(0).Add(time.Saturday), Discount: 0.1},
		},
	}
	// 0.3 + weekend 0.2; an evening window touches neither the night nor
	// the daytime interval.
	if got := FlexibilityScore(p); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("FlexibilityScore = %v, want 0.5", got)
	}
}

func TestRankOrdersBySavingsThenName(t *testing.T) {
	results := []PlanCostResult{
		{Provider: "b", PlanName: "x", SavingsPercent: 10},
		{Provider: "a", PlanName: "z", SavingsPercent: 20},
		{Provider: "a", PlanName: "y", SavingsPercent: 10},
	}
	Rank(results)
	want := []string{"a/z", "a/y", "b/x"}
	for i, w := range want {
		got := results[i].Provider + "/" + results[i].PlanName
		if got != w {
			t.Errorf("rank[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	rs := []readings.Reading{
		mkReading(t, "2026-06-01 10:00", 5),
		mkReading(t, "2026-06-01 23:00", 5),
	}
	tf := tariff.Tariff{PerKwhRate: 0.5, VATRate: 0.17}
	plan := plans.DiscountPlan{
		Provider: "acme",
		Name:     "night owl",
		Windows: []plans.TimeWindow{
			{Start: 22 * 60, End: 6 * 60, Days: plans.AllDays, Discount: 0.5},
		},
	}

	res, err := ApplyPlan(plan, rs, tf)
	if err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	rep := Report{
		GeneratedAt: time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC),
		Stats:       readings.Summarize(rs),
		Tariff:      tf,
		Batch: BatchResult{
			Results:    []PlanCostResult{res},
			TotalPlans: 1,
			ValidPlans: 1,
		},
	}

	out := rep.RenderMarkdown()
	for _, want := range []string{
		"# Electricity Plan Comparison",
		"Total: 10.00 kWh",
		"| 1 | acme | night owl |",
		"Best plan: **acme / night owl**",
		"Evaluated 1 of 1 plans (0 skipped).",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "## Skipped") {
		t.Errorf("report lists a skipped section with nothing skipped")
	}
}
