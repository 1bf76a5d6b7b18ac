// Package schedule computes the next run timestamp for recurring
// schedules. All functions are pure: the reference instant is passed
// in explicitly and the result is in the same location.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inkwell-notes/inkwell/pkg/schema"
)

// ParseTime parses an "HH:MM" clock time into hour and minute.
func ParseTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time %q has invalid hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q has invalid minute", s)
	}
	return hour, minute, nil
}

// NextRun returns the first instant strictly after now at which the
// schedule fires. The zero time and an error are returned for
// malformed schedules.
func NextRun(s *schema.Schedule, now time.Time) (time.Time, error) {
	hour, minute, err := ParseTime(s.Time)
	if err != nil {
		return time.Time{}, err
	}

	switch s.Type {
	case schema.ScheduleDaily:
		return nextDaily(now, hour, minute, s.SkipWeekends), nil
	case schema.ScheduleWeekly:
		days, err := parseDays(s.Days)
		if err != nil {
			return time.Time{}, err
		}
		return nextWeekly(now, hour, minute, days), nil
	case schema.ScheduleMonthly:
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			return time.Time{}, fmt.Errorf("dayOfMonth %d out of range", s.DayOfMonth)
		}
		return nextMonthly(now, hour, minute, s.DayOfMonth), nil
	default:
		return time.Time{}, fmt.Errorf("unrecognized schedule type %q", s.Type)
	}
}

// at returns the instant on day's date at hour:minute, in now's location.
func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

func nextDaily(now time.Time, hour, minute int, skipWeekends bool) time.Time {
	candidate := at(now, hour, minute)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	if skipWeekends {
		for isWeekend(candidate.Weekday()) {
			candidate = candidate.AddDate(0, 0, 1)
		}
	}
	return candidate
}

var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseDays(names []string) (map[time.Weekday]bool, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("weekly schedule has no days")
	}
	days := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		d, ok := dayNames[strings.ToLower(n)]
		if !ok {
			return nil, fmt.Errorf("unrecognized day %q", n)
		}
		days[d] = true
	}
	return days, nil
}

func nextWeekly(now time.Time, hour, minute int, days map[time.Weekday]bool) time.Time {
	candidate := at(now, hour, minute)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	for i := 0; i < 7; i++ {
		if days[candidate.Weekday()] {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	// Unreachable: days is non-empty.
	return candidate
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nextMonthly fires on dayOfMonth, clamped to the last day of short
// months (dayOfMonth 31 fires on Feb 28/29, Apr 30, and so on).
func nextMonthly(now time.Time, hour, minute, dayOfMonth int) time.Time {
	year, month := now.Year(), now.Month()
	for i := 0; i < 2; i++ {
		day := dayOfMonth
		if last := lastDayOfMonth(year, month); day > last {
			day = last
		}
		candidate := time.Date(year, month, day, hour, minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	// Unreachable: next month's occurrence is always in the future.
	return time.Time{}
}

// NextRunAny returns the earliest next run across all of an action's
// scheduled triggers, or the zero time if it has none.
func NextRunAny(a *schema.Action, now time.Time) time.Time {
	var min time.Time
	for _, s := range a.Schedules() {
		next, err := NextRun(s, now)
		if err != nil {
			continue
		}
		if min.IsZero() || next.Before(min) {
			min = next
		}
	}
	return min
}
