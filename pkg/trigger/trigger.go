// Package trigger decides when actions fire. It evaluates chat input
// against aiChat keyword triggers and schedule times against scheduled
// triggers, and runs the background scheduler loop.
package trigger

import (
	"strings"
	"time"

	"github.com/inkwell-notes/inkwell/pkg/schedule"
	"github.com/inkwell-notes/inkwell/pkg/schema"
)

// Match pairs an action with the trigger that fired it.
type Match struct {
	Action  *schema.Action
	Trigger schema.Trigger
}

// FromChat returns the enabled actions whose aiChat keywords match the
// input. Matching is case-insensitive substring matching; an action with
// multiple matching triggers is reported once.
func FromChat(actions []*schema.Action, input string) []Match {
	var out []Match
	for _, a := range actions {
		if !a.Enabled {
			continue
		}
		for _, t := range a.Triggers {
			if t.Type != schema.TriggerAIChat {
				continue
			}
			if matchesAny(t.Keywords, input) {
				out = append(out, Match{Action: a, Trigger: t})
				break
			}
		}
	}
	return out
}

func matchesAny(keywords []string, input string) bool {
	lowered := strings.ToLower(input)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Due returns the enabled scheduled actions whose next run time is at or
// before now. Actions without a stored NextRun have it computed from their
// schedules.
func Due(actions []*schema.Action, now time.Time) []*schema.Action {
	var out []*schema.Action
	for _, a := range actions {
		if !a.Enabled || !a.HasSchedule() {
			continue
		}
		next := nextRunFor(a, now)
		if next.IsZero() {
			continue
		}
		if !next.After(now) {
			out = append(out, a)
		}
	}
	return out
}

// NextWake returns the earliest upcoming run time across the given actions,
// or the zero time if none of them has a valid schedule.
func NextWake(actions []*schema.Action, now time.Time) time.Time {
	var earliest time.Time
	for _, a := range actions {
		if !a.Enabled || !a.HasSchedule() {
			continue
		}
		next := nextRunFor(a, now)
		if next.IsZero() {
			continue
		}
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}

// nextRunFor prefers the stored NextRun, recomputing from the schedules
// only when none is stored. A stored NextRun at or before now means the
// action is due.
func nextRunFor(a *schema.Action, now time.Time) time.Time {
	if a.NextRun != nil && !a.NextRun.IsZero() {
		return *a.NextRun
	}
	return schedule.NextRunAny(a, now)
}
