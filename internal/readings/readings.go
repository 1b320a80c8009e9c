package readings

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

// Reading is a single metered consumption sample. Time is local civil time,
// already resolved by the ingestion step; KWh is never negative.
type Reading struct {
	Time time.Time
	KWh  float64
}

// The smart meter export uses Hebrew column headers: reading date, interval
// start time, and consumption in kWh.
const (
	dateHeader  = "תאריך"
	timeHeader  = "מועד תחילת הפעימה"
	usageHeader = `צריכה בקוט"ש`
)

const timestampLayout = "02/01/2006 15:04"

// ParseCSV reads a smart meter export. Rows that fail timestamp or
// consumption parsing are skipped, matching how the meter files mix
// preamble lines and blank rows into the data. The returned slice keeps
// file order.
func ParseCSV(r io.Reader, loc *time.Location) ([]Reading, error) {
	if loc == nil {
		loc = time.Local
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	// The consumption header has an unescaped quote in some exports.
	cr.LazyQuotes = true

	dateCol, timeCol, usageCol := -1, -1, -1
	var out []Reading
	skipped := 0

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		// Header rows can appear after a free-text preamble; lock onto the
		// first row that names the date column.
		if dateCol == -1 {
			for i, cell := range record {
				switch strings.TrimSpace(strings.TrimPrefix(cell, "\uFEFF")) {
				case dateHeader:
					dateCol = i
				case timeHeader:
					timeCol = i
				case usageHeader:
					usageCol = i
				}
			}
			continue
		}

		if timeCol == -1 || usageCol == -1 {
			return nil, fmt.Errorf("csv header missing time or consumption column")
		}
		if len(record) <= dateCol || len(record) <= timeCol || len(record) <= usageCol {
			skipped++
			continue
		}

		ts, err := time.ParseInLocation(timestampLayout,
			strings.TrimSpace(record[dateCol])+" "+strings.TrimSpace(record[timeCol]), loc)
		if err != nil {
			skipped++
			continue
		}

		kwh, err := strconv.ParseFloat(strings.TrimSpace(record[usageCol]), 64)
		if err != nil || kwh < 0 {
			skipped++
			continue
		}

		out = append(out, Reading{Time: ts, KWh: kwh})
	}

	if dateCol == -1 {
		return nil, fmt.Errorf("csv has no recognizable header row")
	}
	if skipped > 0 {
		log.Printf("readings: skipped %d unparsable rows", skipped)
	}
	return out, nil
}

// TotalKWh sums consumption over the series.
func TotalKWh(rs []Reading) float64 {
	total := 0.0
	for _, r := range rs {
		total += r.KWh
	}
	return total
}

// MonthsSpanned counts the distinct (year, month) pairs touched by the
// series. Fixed monthly fees scale by this count, not by elapsed duration.
func MonthsSpanned(rs []Reading) int {
	type ym struct {
		year  int
		month time.Month
	}
	seen := make(map[ym]struct{})
	for _, r := range rs {
		seen[ym{r.Time.Year(), r.Time.Month()}] = struct{}{}
	}
	return len(seen)
}
