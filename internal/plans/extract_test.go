package plans

import (
	"testing"
	"time"

	"github.com/eplancompare/eplancompare/pkg/plansources"
)

func TestExtract_BaseDiscountPatterns(t *testing.T) {
	cases := []struct {
		name     string
		discount string
		want     float64
	}{
		{"percent sign", "20%", 0.20},
		{"percent word", "15 אחוז", 0.15},
		{"marker before number", "הנחה 10", 0.10},
		{"number before marker", "7 הנחה", 0.07},
		{"decimal percent", "12.5%", 0.125},
		{"no discount", "חבילה משתלמת", 0},
		{"empty", "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, _ := Extract(plansources.RawPlan{Company: "A", Name: "B", Discount: tc.discount})
			if plan.BaseDiscount != tc.want {
				t.Errorf("discount %q: got %v, want %v", tc.discount, plan.BaseDiscount, tc.want)
			}
		})
	}
}

func TestExtract_FirstPatternWins(t *testing.T) {
	// "5%" matches the percent-sign pattern before "הנחה 10" could match.
	plan, _ := Extract(plansources.RawPlan{Company: "A", Name: "B", Discount: "הנחה 10 או 5%"})
	if plan.BaseDiscount != 0.05 {
		t.Errorf("expected first pattern (5%%) to win, got %v", plan.BaseDiscount)
	}
}

func TestExtract_DiscountFallbackToFeatures(t *testing.T) {
	raw := plansources.RawPlan{
		Company:  "פזגז",
		Name:     "חוסכים",
		Discount: "ראו פירוט",
		Features: []string{"ניהול מקוון", "הנחה של 8% על כל הצריכה"},
	}
	plan, _ := Extract(raw)
	if plan.BaseDiscount != 0.08 {
		t.Errorf("expected base discount from feature, got %v", plan.BaseDiscount)
	}
}

func TestExtract_WindowFromDescription(t *testing.T) {
	raw := plansources.RawPlan{
		Company:     "אלקטרה",
		Name:        "לילה",
		Description: "20% הנחה בין 23:00 ל-07:00",
		Discount:    "20%",
	}
	plan, _ := Extract(raw)
	if len(plan.Windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(plan.Windows))
	}
	w := plan.Windows[0]
	if w.Start != 23*60 || w.End != 7*60 {
		t.Errorf("unexpected window times: %s-%s", w.Start, w.End)
	}
	if w.Discount != 0.20 {
		t.Errorf("unexpected window discount: %v", w.Discount)
	}
	if w.Days != SunThu {
		t.Errorf("expected default Sun-Thu days, got %s", w.Days)
	}
	if plan.WindowsSynthesized {
		t.Errorf("window came from the description, should not be marked synthetic")
	}
}

func TestExtract_WindowOrderPreserved(t *testing.T) {
	raw := plansources.RawPlan{
		Company:     "חברת חשמל",
		Name:        "משולב",
		Description: "הנחות בשעות שונות",
		Discount:    "10%",
		Features: []string{
			"15% הנחה בין 14:00 עד 17:00",
			"25% הנחה בין 23:00 עד 06:00 ימים א-ה",
		},
	}
	plan, _ := Extract(raw)
	if len(plan.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(plan.Windows))
	}
	if plan.Windows[0].Discount != 0.15 || plan.Windows[1].Discount != 0.25 {
		t.Errorf("window order not preserved: %+v", plan.Windows)
	}
}

func TestExtract_WindowDiscountFallsBackToBase(t *testing.T) {
	raw := plansources.RawPlan{
		Company:  "A",
		Name:     "B",
		Discount: "12%",
		Features: []string{"חשמל זול בין 22:00 עד 06:00"},
	}
	plan, _ := Extract(raw)
	if len(plan.Windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(plan.Windows))
	}
	if plan.Windows[0].Discount != 0.12 {
		t.Errorf("expected base discount 0.12 on window, got %v", plan.Windows[0].Discount)
	}
}

func TestExtract_DayRanges(t *testing.T) {
	cases := []struct {
		name    string
		feature string
		want    DaySet
	}{
		{
			"explicit range",
			"הנחה 10% בין 10:00 עד 16:00 ימים א-ו",
			SunThu.Add(time.Friday),
		},
		{
			"individual letters",
			"הנחה 10% בין 10:00 עד 16:00 ימים וש",
			DaySet(0).Add(time.Friday).Add(time.Saturday),
		},
		{
			"no token defaults",
			"הנחה 10% בין 10:00 עד 16:00",
			SunThu,
		},
		{
			"unmappable token defaults",
			"הנחה 10% בין 10:00 עד 16:00 ימים ת-ת",
			SunThu,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, _ := Extract(plansources.RawPlan{Company: "A", Name: "B", Features: []string{tc.feature}})
			if len(plan.Windows) != 1 {
				t.Fatalf("expected 1 window, got %d", len(plan.Windows))
			}
			if plan.Windows[0].Days != tc.want {
				t.Errorf("got days %s, want %s", plan.Windows[0].Days, tc.want)
			}
		})
	}
}

func TestExtract_SyntheticWindowWhenNoneFound(t *testing.T) {
	plan, warnings := Extract(plansources.RawPlan{Company: "A", Name: "B", Discount: "9%"})
	if len(plan.Windows) != 1 {
		t.Fatalf("expected synthetic window, got %d windows", len(plan.Windows))
	}
	w := plan.Windows[0]
	if w.Start != 0 || w.End != 24*60 {
		t.Errorf("expected full-day window, got %s-%s", w.Start, w.End)
	}
	if w.Days != SunThu {
		t.Errorf("expected Sun-Thu days, got %s", w.Days)
	}
	if w.Discount != 0.09 {
		t.Errorf("expected base discount on synthetic window, got %v", w.Discount)
	}
	if !plan.WindowsSynthesized {
		t.Errorf("expected WindowsSynthesized to be set")
	}
	if len(warnings) == 0 {
		t.Errorf("expected a warning for the substituted window")
	}
}

func TestExtract_ZeroDiscountStillHasWindow(t *testing.T) {
	plan, _ := Extract(plansources.RawPlan{Company: "A", Name: "B"})
	if len(plan.Windows) != 1 {
		t.Fatalf("expected a zero-discount default window, got %d windows", len(plan.Windows))
	}
	if plan.Windows[0].Discount != 0 {
		t.Errorf("expected zero discount, got %v", plan.Windows[0].Discount)
	}
	if err := plan.Validate(); err != nil {
		t.Errorf("default plan should validate: %v", err)
	}
}

func TestExtract_CapabilityFlags(t *testing.T) {
	raw := plansources.RawPlan{
		Company:           "A",
		Name:              "B",
		Features:          []string{"מחיר קבוע לכל התקופה", "ניהול מקוון מלא"},
		AdditionalDetails: []string{"ההטבה מחייבת מונה חכם"},
	}
	plan, _ := Extract(raw)
	if !plan.RequiresSmartMeter {
		t.Errorf("expected RequiresSmartMeter")
	}
	if !plan.HasFixedPrice {
		t.Errorf("expected HasFixedPrice")
	}
	if !plan.HasOnlineManagement {
		t.Errorf("expected HasOnlineManagement")
	}
}

func TestExtract_MissingIdentity(t *testing.T) {
	plan, warnings := Extract(plansources.RawPlan{})
	if plan.Provider != "Unknown" || plan.Name != "Unknown" {
		t.Errorf("expected Unknown identity, got %q / %q", plan.Provider, plan.Name)
	}
	if len(warnings) < 2 {
		t.Errorf("expected warnings for missing company and name, got %v", warnings)
	}
}

func TestTimeWindow_OvernightContains(t *testing.T) {
	w := TimeWindow{Start: 22 * 60, End: 6 * 60, Days: AllDays, Discount: 0.5}

	late, _ := Clock("23:30")
	early, _ := Clock("05:30")
	noon, _ := Clock("12:00")

	if !w.Contains(time.Monday, late) {
		t.Errorf("expected 23:30 inside 22:00-06:00")
	}
	if !w.Contains(time.Monday, early) {
		t.Errorf("expected 05:30 inside 22:00-06:00")
	}
	if w.Contains(time.Monday, noon) {
		t.Errorf("did not expect 12:00 inside 22:00-06:00")
	}
}

func TestTimeWindow_WeekdayCheckedFirst(t *testing.T) {
	w := TimeWindow{Start: 10 * 60, End: 16 * 60, Days: DaySet(0).Add(time.Saturday), Discount: 0.3}
	noon, _ := Clock("12:00")
	if w.Contains(time.Monday, noon) {
		t.Errorf("window scoped to Saturday must not match Monday")
	}
	if !w.Contains(time.Saturday, noon) {
		t.Errorf("expected Saturday noon to match")
	}
}

func TestTimeWindow_Overlaps(t *testing.T) {
	night := TimeWindow{Start: 22 * 60, End: 6 * 60}
	if !night.Overlaps(23*60, 7*60) {
		t.Errorf("overnight window should overlap the night interval")
	}
	if night.Overlaps(8*60, 20*60) {
		t.Errorf("overnight window should not overlap mid-day")
	}

	day := TimeWindow{Start: 9 * 60, End: 11 * 60}
	if !day.Overlaps(7*60, 17*60) {
		t.Errorf("morning window should overlap the day interval")
	}
}

func TestClock_Bounds(t *testing.T) {
	if _, err := Clock("24:00"); err != nil {
		t.Errorf("24:00 must be accepted as an end-of-day marker: %v", err)
	}
	if _, err := Clock("25:00"); err == nil {
		t.Errorf("expected error for 25:00")
	}
	if _, err := Clock("12:61"); err == nil {
		t.Errorf("expected error for minute 61")
	}
}
