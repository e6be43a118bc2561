// Package hours interprets structured weekly opening periods against a
// reference instant. It is pure: given the same periods and instant it always
// produces the same evaluation.
package hours

import (
	"sort"
	"time"
)

// DayTime pins a clock time (HHMM, 24h) to a weekday.
type DayTime struct {
	Day  time.Weekday `json:"day"`
	Time int          `json:"time"`
}

// Period is a single weekly opening window. A nil Close means the venue stays
// open until the end of the day. A Close on a different day with an earlier
// clock time encodes an overnight window.
type Period struct {
	Open  DayTime  `json:"open"`
	Close *DayTime `json:"close,omitempty"`
}

// Evaluation is the interpreted state at the reference instant.
type Evaluation struct {
	IsOpen bool
	// CloseTimeLabel is the close time of the currently open period, or, when
	// closed, of the next period today that has not yet closed. Empty when
	// neither exists or the open period has no close time.
	CloseTimeLabel string
	// TodayHours renders every period opening today, e.g.
	// "11 AM - 3 PM, 5 PM - 9 PM". Empty when no period opens today.
	TodayHours string
	// NextOpenMinutes counts minutes until the next opening within a 7-day
	// lookahead. Nil when no period exists at all.
	NextOpenMinutes *int
}

// Evaluate interprets periods at the given instant. Input order is irrelevant.
func Evaluate(periods []Period, at time.Time) Evaluation {
	today := at.Weekday()
	nowHHMM := at.Hour()*100 + at.Minute()

	todays := make([]Period, 0, len(periods))
	for _, p := range periods {
		if p.Open.Day == today {
			todays = append(todays, p)
		}
	}
	sort.SliceStable(todays, func(i, j int) bool {
		return todays[i].Open.Time < todays[j].Open.Time
	})

	eval := Evaluation{
		TodayHours:      todayLabel(todays),
		NextOpenMinutes: minutesUntilNextOpen(periods, at),
	}

	for _, p := range todays {
		if !within(p, nowHHMM) {
			continue
		}
		eval.IsOpen = true
		if p.Close != nil {
			eval.CloseTimeLabel = clockLabel(p.Close.Time)
		}
		return eval
	}

	// Closed: surface the close time of the next period today that has not
	// wrapped up yet, for display only.
	for _, p := range todays {
		if p.Close == nil {
			continue
		}
		if p.Close.Day != p.Open.Day || p.Close.Time > nowHHMM {
			eval.CloseTimeLabel = clockLabel(p.Close.Time)
			break
		}
	}
	return eval
}

func within(p Period, nowHHMM int) bool {
	if p.Close == nil {
		return nowHHMM >= p.Open.Time
	}
	if p.Close.Day == p.Open.Day {
		return nowHHMM >= p.Open.Time && nowHHMM < p.Close.Time
	}
	if p.Close.Time < p.Open.Time {
		// Overnight window.
		return nowHHMM >= p.Open.Time || nowHHMM < p.Close.Time
	}
	return nowHHMM >= p.Open.Time
}

func minutesUntilNextOpen(periods []Period, at time.Time) *int {
	if len(periods) == 0 {
		return nil
	}
	today := at.Weekday()
	nowMinutes := at.Hour()*60 + at.Minute()

	for offset := 0; offset < 7; offset++ {
		day := time.Weekday((int(today) + offset) % 7)
		best := -1
		for _, p := range periods {
			if p.Open.Day != day {
				continue
			}
			candidate := minutesOfDay(p.Open.Time) + offset*24*60
			if candidate < nowMinutes {
				continue
			}
			if best < 0 || candidate < best {
				best = candidate
			}
		}
		if best >= 0 {
			delta := best - nowMinutes
			return &delta
		}
	}
	return nil
}

func minutesOfDay(hhmm int) int {
	return (hhmm/100)*60 + hhmm%100
}

func todayLabel(sorted []Period) string {
	if len(sorted) == 0 {
		return ""
	}
	label := ""
	for i, p := range sorted {
		if i > 0 {
			label += ", "
		}
		if p.Close == nil {
			label += clockLabel(p.Open.Time) + "+"
			continue
		}
		label += clockLabel(p.Open.Time) + " - " + clockLabel(p.Close.Time)
	}
	return label
}
