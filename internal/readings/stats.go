package readings

import "fmt"

// Night hours for the day/night consumption split (23:00-07:00).
const (
	nightStartHour = 23
	nightEndHour   = 7
)

// Stats summarizes a consumption series for reports.
type Stats struct {
	TotalKWh        float64 `json:"total_kwh"`
	DailyAverageKWh float64 `json:"daily_average_kwh"`
	PeakHour        int     `json:"peak_hour"`
	HighestMonthKWh float64 `json:"highest_month_kwh"`
	HighestMonth    string  `json:"highest_month"`
	LowestMonthKWh  float64 `json:"lowest_month_kwh"`
	LowestMonth     string  `json:"lowest_month"`
	NightKWh        float64 `json:"night_kwh"`
	DayKWh          float64 `json:"day_kwh"`
	Days            int     `json:"days"`
	Readings        int     `json:"readings"`
}

// Summarize computes usage statistics in one pass over the series. An empty
// series yields a zero Stats value.
func Summarize(rs []Reading) Stats {
	var s Stats
	s.Readings = len(rs)
	if len(rs) == 0 {
		return s
	}

	days := make(map[string]struct{})
	months := make(map[string]float64)
	var hourTotals [24]float64
	var hourCounts [24]int

	for _, r := range rs {
		s.TotalKWh += r.KWh
		days[r.Time.Format("2006-01-02")] = struct{}{}
		months[r.Time.Format("2006-01")] += r.KWh

		h := r.Time.Hour()
		hourTotals[h] += r.KWh
		hourCounts[h]++

		if h >= nightStartHour || h < nightEndHour {
			s.NightKWh += r.KWh
		} else {
			s.DayKWh += r.KWh
		}
	}

	s.Days = len(days)
	s.DailyAverageKWh = s.TotalKWh / float64(len(days))

	peakMean := -1.0
	for h := 0; h < 24; h++ {
		if hourCounts[h] == 0 {
			continue
		}
		mean := hourTotals[h] / float64(hourCounts[h])
		if mean > peakMean {
			peakMean = mean
			s.PeakHour = h
		}
	}

	first := true
	for month, kwh := range months {
		if first || kwh > s.HighestMonthKWh {
			s.HighestMonthKWh = kwh
			s.HighestMonth = month
		}
		if first || kwh < s.LowestMonthKWh {
			s.LowestMonthKWh = kwh
			s.LowestMonth = month
		}
		first = false
	}

	return s
}

// NightSharePercent returns the night fraction of total consumption.
func (s Stats) NightSharePercent() float64 {
	if s.TotalKWh == 0 {
		return 0
	}
	return s.NightKWh / s.TotalKWh * 100
}

// PeakHourLabel renders the peak hour as a clock label.
func (s Stats) PeakHourLabel() string {
	return fmt.Sprintf("%02d:00", s.PeakHour)
}
