package readings

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `חשבון חוזה,12345
תאריך,מועד תחילת הפעימה,צריכה בקוט"ש
01/03/2025,10:00,0.45
01/03/2025,10:15,0.52
,
15/04/2025,23:30,1.10
bad-date,10:00,0.3
15/04/2025,23:45,not-a-number
`

func TestParseCSV_SkipsBadRows(t *testing.T) {
	rs, err := ParseCSV(strings.NewReader(sampleCSV), time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(rs))
	}
	if rs[0].Time.Day() != 1 || rs[0].Time.Month() != time.March {
		t.Errorf("unexpected first timestamp: %v", rs[0].Time)
	}
	if rs[2].KWh != 1.10 {
		t.Errorf("unexpected consumption: %v", rs[2].KWh)
	}
}

func TestParseCSV_ByteOrderMark(t *testing.T) {
	// Exports saved on Windows prefix the first header cell with a BOM.
	csv := "\uFEFF" + `תאריך,מועד תחילת הפעימה,צריכה בקוט"ש` + "\n01/03/2025,10:00,0.45\n"
	rs, err := ParseCSV(strings.NewReader(csv), time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs) != 1 || rs[0].KWh != 0.45 {
		t.Fatalf("expected one reading of 0.45 kWh, got %+v", rs)
	}
}

func TestParseCSV_NoHeader(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("a,b,c\n1,2,3\n"), time.UTC); err == nil {
		t.Fatalf("expected error for file without a header row")
	}
}

func TestMonthsSpanned_DistinctMonths(t *testing.T) {
	mk := func(s string) Reading {
		ts, err := time.Parse("2006-01-02 15:04", s)
		if err != nil {
			t.Fatalf("bad fixture time %q: %v", s, err)
		}
		return Reading{Time: ts, KWh: 1}
	}

	// Three distinct calendar months touched by only four days of data.
	rs := []Reading{
		mk("2025-01-31 10:00"),
		mk("2025-02-01 10:00"),
		mk("2025-02-28 10:00"),
		mk("2025-03-01 10:00"),
	}
	if got := MonthsSpanned(rs); got != 3 {
		t.Errorf("expected 3 months, got %d", got)
	}

	// Same month across years counts twice.
	rs = append(rs, mk("2026-01-15 10:00"))
	if got := MonthsSpanned(rs); got != 4 {
		t.Errorf("expected 4 months across years, got %d", got)
	}

	if got := MonthsSpanned(nil); got != 0 {
		t.Errorf("expected 0 months for empty series, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	mk := func(s string, kwh float64) Reading {
		ts, err := time.Parse("2006-01-02 15:04", s)
		if err != nil {
			t.Fatalf("bad fixture time %q: %v", s, err)
		}
		return Reading{Time: ts, KWh: kwh}
	}

	rs := []Reading{
		mk("2025-03-01 23:30", 2), // night
		mk("2025-03-01 12:00", 1), // day
		mk("2025-03-02 06:00", 1), // night
		mk("2025-04-10 12:00", 4), // day, second month
	}

	s := Summarize(rs)
	if s.TotalKWh != 8 {
		t.Errorf("total: got %v", s.TotalKWh)
	}
	if s.Days != 3 {
		t.Errorf("days: got %d", s.Days)
	}
	if s.NightKWh != 3 || s.DayKWh != 5 {
		t.Errorf("night/day split: got %v / %v", s.NightKWh, s.DayKWh)
	}
	if s.PeakHour != 12 {
		t.Errorf("peak hour: got %d", s.PeakHour)
	}
	if s.HighestMonth != "2025-04" || s.LowestMonth != "2025-03" {
		t.Errorf("month extremes: got %s / %s", s.HighestMonth, s.LowestMonth)
	}
	if s.NightSharePercent() != 37.5 {
		t.Errorf("night share: got %v", s.NightSharePercent())
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalKWh != 0 || s.Days != 0 || s.NightSharePercent() != 0 {
		t.Errorf("expected zero stats for empty series: %+v", s)
	}
}
