package plans

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/eplancompare/eplancompare/pkg/plansources"
)

// The comparison sites publish plan terms as free text in Hebrew. The
// markers below are the fixed tokens those pages use for discounts, day
// ranges, and plan capabilities.
const (
	discountMarker   = "הנחה"
	smartMeterMarker = "מונה חכם"
	fixedPriceMarker = "מחיר קבוע"
	onlineMgmtMarker = "ניהול מקוון"
)

// discountMatcher extracts a discount percentage from text, reporting
// whether it matched. Matchers are tried in order; the first match wins.
type discountMatcher func(text string) (float64, bool)

func percentMatcher(re *regexp.Regexp) discountMatcher {
	return func(text string) (float64, bool) {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
}

var discountMatchers = []discountMatcher{
	percentMatcher(regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)),
	percentMatcher(regexp.MustCompile(`(\d+(?:\.\d+)?)\s*אחוז`)),
	percentMatcher(regexp.MustCompile(`הנחה\s*(\d+(?:\.\d+)?)`)),
	percentMatcher(regexp.MustCompile(`(\d+(?:\.\d+)?)\s*הנחה`)),
}

var (
	timeRe     = regexp.MustCompile(`(\d{1,2}:\d{2})`)
	dayRangeRe = regexp.MustCompile(`ימים\s*([א-ת'\-]+)`)
)

// dayLetters maps the compact Hebrew weekday letters, in calendar order
// Sunday..Saturday, used by day-range tokens like "א-ה".
var dayLetters = []rune("אבגדהוש")

// extractDiscount runs the matcher chain over text and returns the discount
// as a fraction in [0,1]. Unmatched text yields 0.
func extractDiscount(text string) float64 {
	if text == "" {
		return 0
	}
	for _, match := range discountMatchers {
		if v, ok := match(text); ok {
			return clampFraction(v / 100)
		}
	}
	return 0
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseDays maps a compact day token to a DaySet. A dash expands the range
// between two letters; bare letters are taken individually. Absent or
// unmappable tokens fall back to the Sunday-Thursday billing week.
func parseDays(token string) DaySet {
	token = strings.TrimSpace(strings.ReplaceAll(token, "'", ""))
	if token == "" {
		return SunThu
	}

	idx := func(r rune) int {
		for i, l := range dayLetters {
			if l == r {
				return i
			}
		}
		return -1
	}

	if strings.Contains(token, "-") {
		parts := strings.SplitN(token, "-", 2)
		start := idx(firstRune(parts[0]))
		end := idx(firstRune(parts[1]))
		if start < 0 || end < 0 || start > end {
			return SunThu
		}
		var days DaySet
		for i := start; i <= end; i++ {
			days |= 1 << uint(i)
		}
		return days
	}

	var days DaySet
	for _, r := range token {
		if i := idx(r); i >= 0 {
			days |= 1 << uint(i)
		}
	}
	if days == 0 {
		return SunThu
	}
	return days
}

func firstRune(s string) rune {
	for _, r := range strings.TrimSpace(s) {
		return r
	}
	return 0
}

// Extract turns a raw plan record into a DiscountPlan. It never fails:
// malformed or missing fields degrade to defaults, each reported as a
// Warning. The result always carries at least one time window.
func Extract(raw plansources.RawPlan) (DiscountPlan, []Warning) {
	var warnings []Warning

	provider := strings.TrimSpace(raw.Company)
	if provider == "" {
		provider = "Unknown"
		warnings = append(warnings, Warning{Plan: raw.Name, Field: "company", Reason: "missing, using Unknown"})
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = "Unknown"
		warnings = append(warnings, Warning{Plan: provider, Field: "name", Reason: "missing, using Unknown"})
	}
	warnFor := provider + " / " + name

	base := extractDiscount(raw.Discount)
	if base == 0 {
		if strings.TrimSpace(raw.Discount) != "" {
			warnings = append(warnings, Warning{Plan: warnFor, Field: "discount", Reason: "no percentage found in discount text"})
		}
		for _, feature := range raw.Features {
			if !strings.Contains(feature, discountMarker) {
				continue
			}
			if d := extractDiscount(feature); d > 0 {
				base = d
				break
			}
		}
	}

	plan := DiscountPlan{
		Provider:     provider,
		Name:         name,
		Description:  raw.Description,
		BaseDiscount: base,
	}

	// The description is checked before the features; windows keep the
	// order their source strings appear in, without dedup.
	sources := append([]string{raw.Description}, raw.Features...)
	for _, text := range sources {
		if w, ok := extractWindow(text, base); ok {
			plan.Windows = append(plan.Windows, w)
		}
	}

	if len(plan.Windows) == 0 {
		plan.Windows = []TimeWindow{syntheticWindow(base)}
		plan.WindowsSynthesized = true
		warnings = append(warnings, Warning{Plan: warnFor, Field: "time_windows", Reason: "no periods found, using full-day default"})
	}

	texts := append(append([]string{}, raw.Features...), raw.AdditionalDetails...)
	plan.RequiresSmartMeter = containsAny(texts, smartMeterMarker)
	plan.HasFixedPrice = containsAny(texts, fixedPriceMarker)
	plan.HasOnlineManagement = containsAny(texts, onlineMgmtMarker)

	return plan, warnings
}

// ExtractAll extracts every record in the catalog, collecting all warnings.
func ExtractAll(raws []plansources.RawPlan) ([]DiscountPlan, []Warning) {
	out := make([]DiscountPlan, 0, len(raws))
	var warnings []Warning
	for _, raw := range raws {
		p, w := Extract(raw)
		out = append(out, p)
		warnings = append(warnings, w...)
	}
	return out, warnings
}

// extractWindow parses one source string into a window. Two clock times in
// the string define the period; a day token scopes it; a percentage in the
// same string overrides the base discount.
func extractWindow(text string, base float64) (TimeWindow, bool) {
	times := timeRe.FindAllString(text, 2)
	if len(times) < 2 {
		return TimeWindow{}, false
	}
	start, err := Clock(times[0])
	if err != nil {
		return TimeWindow{}, false
	}
	end, err := Clock(times[1])
	if err != nil {
		return TimeWindow{}, false
	}

	days := SunThu
	if m := dayRangeRe.FindStringSubmatch(text); len(m) >= 2 {
		days = parseDays(m[1])
	}

	discount := extractDiscount(text)
	if discount == 0 {
		discount = base
	}

	return TimeWindow{Start: start, End: end, Days: days, Discount: discount}, true
}

// syntheticWindow is the fallback when no periods are found: a full-day
// window over the default billing week, at the base discount (which may be
// zero, so the discount pipeline downstream still has something to match).
func syntheticWindow(discount float64) TimeWindow {
	return TimeWindow{Start: 0, End: 24 * 60, Days: SunThu, Discount: discount}
}

func containsAny(texts []string, marker string) bool {
	for _, t := range texts {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}
