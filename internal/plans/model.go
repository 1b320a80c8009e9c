package plans

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a point on the 24-hour clock, stored as minutes since
// midnight. 1440 (24:00) is a valid end-of-window value so a full-day
// window can be expressed without wrapping.
type TimeOfDay int

// Clock parses "HH:MM" into a TimeOfDay.
func Clock(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// ClockOf converts a wall-clock time to its TimeOfDay.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// DaySet is a set of calendar weekdays, one bit per time.Weekday.
type DaySet uint8

// AllDays covers the full week; SunThu is the default billing week used
// when a plan names no days.
const (
	AllDays DaySet = 1<<7 - 1
	SunThu  DaySet = 1<<time.Sunday | 1<<time.Monday | 1<<time.Tuesday |
		1<<time.Wednesday | 1<<time.Thursday
)

// Has reports whether the set contains the weekday.
func (d DaySet) Has(w time.Weekday) bool {
	return d&(1<<uint(w)) != 0
}

// Add returns the set with the weekday included.
func (d DaySet) Add(w time.Weekday) DaySet {
	return d | 1<<uint(w)
}

// Count returns the number of weekdays in the set.
func (d DaySet) Count() int {
	n := 0
	for w := time.Sunday; w <= time.Saturday; w++ {
		if d.Has(w) {
			n++
		}
	}
	return n
}

func (d DaySet) String() string {
	if d == AllDays {
		return "all days"
	}
	var parts []string
	for w := time.Sunday; w <= time.Saturday; w++ {
		if d.Has(w) {
			parts = append(parts, w.String()[:3])
		}
	}
	if len(parts) == 0 {
		return "no days"
	}
	return strings.Join(parts, ",")
}

// TimeWindow is a recurring discount period. A window with Start > End wraps
// past midnight (22:00-06:00 covers the late evening and early morning).
// Windows are value types and never mutated after extraction.
type TimeWindow struct {
	Start    TimeOfDay
	End      TimeOfDay
	Days     DaySet
	Discount float64
}

// Contains reports whether the window applies at the given weekday and
// time-of-day. The weekday is checked before the time range.
func (w TimeWindow) Contains(day time.Weekday, t TimeOfDay) bool {
	if !w.Days.Has(day) {
		return false
	}
	if w.Start <= w.End {
		return t >= w.Start && t <= w.End
	}
	// Overnight: the interval wraps past midnight.
	return t >= w.Start || t <= w.End
}

// Overlaps reports whether any time of day is covered both by the window and
// by the [start, end) interval, treating both as arcs on the 24h ring.
// Intervals that only touch at an endpoint do not overlap, so a window
// ending at 07:00 stays out of a day interval starting at 07:00.
func (w TimeWindow) Overlaps(start, end TimeOfDay) bool {
	for _, a := range splitArc(w.Start, w.End) {
		for _, b := range splitArc(start, end) {
			if a[0] < b[1] && b[0] < a[1] {
				return true
			}
		}
	}
	return false
}

// splitArc normalizes an interval on the ring into one or two linear spans.
func splitArc(start, end TimeOfDay) [][2]TimeOfDay {
	if start <= end {
		return [][2]TimeOfDay{{start, end}}
	}
	return [][2]TimeOfDay{{start, 24 * 60}, {0, end}}
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s-%s (%s) %.0f%%", w.Start, w.End, w.Days, w.Discount*100)
}

// DiscountPlan is the structured form of a raw plan record. Built once by
// Extract and immutable afterward. Windows is never empty: extraction
// substitutes a synthetic full-day window when the text yields none, so
// downstream code never branches on "no windows".
type DiscountPlan struct {
	Provider            string
	Name                string
	Description         string
	BaseDiscount        float64
	Windows             []TimeWindow
	MonthlyFee          float64
	RequiresSmartMeter  bool
	HasFixedPrice       bool
	HasOnlineManagement bool

	// WindowsSynthesized is true when Windows holds only the fallback
	// window rather than periods found in the plan text.
	WindowsSynthesized bool
}

// WindowsSummary renders the plan's windows for reports and API payloads.
func (p DiscountPlan) WindowsSummary() []string {
	out := make([]string, 0, len(p.Windows))
	for _, w := range p.Windows {
		out = append(out, w.String())
	}
	return out
}

// Validate reports the first structural problem that would make the plan
// unusable for simulation. Extraction output always passes; hand-built or
// deserialized plans may not.
func (p DiscountPlan) Validate() error {
	if len(p.Windows) == 0 {
		return fmt.Errorf("plan has no time windows")
	}
	if p.BaseDiscount < 0 || p.BaseDiscount > 1 {
		return fmt.Errorf("base discount %v outside [0,1]", p.BaseDiscount)
	}
	if p.MonthlyFee < 0 {
		return fmt.Errorf("negative monthly fee %v", p.MonthlyFee)
	}
	for i, w := range p.Windows {
		if w.Discount < 0 || w.Discount > 1 {
			return fmt.Errorf("window %d discount %v outside [0,1]", i, w.Discount)
		}
		if w.Start < 0 || w.Start >= 24*60 || w.End < 0 || w.End > 24*60 {
			return fmt.Errorf("window %d has out-of-range times %s-%s", i, w.Start, w.End)
		}
		if w.Days == 0 {
			return fmt.Errorf("window %d has an empty day set", i)
		}
	}
	return nil
}

// Warning records a field that could not be parsed and was replaced by a
// documented default. Extraction never fails; it degrades and reports.
type Warning struct {
	Plan   string
	Field  string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Plan, w.Field, w.Reason)
}
