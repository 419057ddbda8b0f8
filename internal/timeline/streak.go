package timeline

import (
	"sort"
	"time"
)

// ComputeStreaks derives the current and longest consecutive-day streaks
// from the set of dates that have at least one activity. Dates are compared
// at calendar-day granularity; time-of-day is ignored.
//
// The current streak is the run of consecutive present dates ending at
// today or yesterday; if neither is present the current streak is zero.
// The longest streak is the longest consecutive run anywhere in the set,
// never less than the current streak.
func ComputeStreaks(dates []time.Time, today time.Time) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	present := make(map[string]bool, len(dates))
	distinct := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := truncateDay(d)
		key := day.Format("2006-01-02")
		if present[key] {
			continue
		}
		present[key] = true
		distinct = append(distinct, day)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Before(distinct[j]) })

	today = truncateDay(today)
	yesterday := today.AddDate(0, 0, -1)

	if present[today.Format("2006-01-02")] || present[yesterday.Format("2006-01-02")] {
		start := today
		if !present[today.Format("2006-01-02")] {
			start = yesterday
		}
		for day := start; present[day.Format("2006-01-02")]; day = day.AddDate(0, 0, -1) {
			current++
		}
	}

	run := 1
	longest = 1
	for i := 1; i < len(distinct); i++ {
		if distinct[i].Sub(distinct[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
