package trigger

import (
	"testing"
	"time"

	"github.com/inkwell-notes/inkwell/pkg/schema"
)

func chatAction(name string, enabled bool, keywords ...string) *schema.Action {
	a := schema.NewAction(name, "")
	a.Enabled = enabled
	a.Triggers = []schema.Trigger{{Type: schema.TriggerAIChat, Keywords: keywords}}
	return a
}

func scheduledAction(name string, next time.Time) *schema.Action {
	a := schema.NewAction(name, "")
	a.Triggers = []schema.Trigger{{
		Type:     schema.TriggerScheduled,
		Schedule: &schema.Schedule{Type: schema.ScheduleDaily, Time: "08:00"},
	}}
	if !next.IsZero() {
		a.NextRun = &next
	}
	return a
}

func TestFromChat(t *testing.T) {
	actions := []*schema.Action{
		chatAction("Daily Reflection", true, "end of day", "reflect"),
		chatAction("Weekly Review", true, "weekly review"),
		chatAction("Disabled", false, "reflect"),
		chatAction("Manual Only", true),
	}

	got := FromChat(actions, "time to reflect on the day")
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	if got[0].Action.Name != "Daily Reflection" {
		t.Errorf("matched %q", got[0].Action.Name)
	}

	if got := FromChat(actions, "nothing relevant"); len(got) != 0 {
		t.Errorf("got %d matches, want 0", len(got))
	}
}

func TestFromChatCaseInsensitive(t *testing.T) {
	actions := []*schema.Action{chatAction("Review", true, "Weekly Review")}
	if got := FromChat(actions, "start my WEEKLY REVIEW please"); len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
}

func TestDue(t *testing.T) {
	now := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

	past := scheduledAction("Past", now.Add(-time.Minute))
	exact := scheduledAction("Exact", now)
	future := scheduledAction("Future", now.Add(time.Hour))
	disabled := scheduledAction("Disabled", now.Add(-time.Minute))
	disabled.Enabled = false

	got := Due([]*schema.Action{past, exact, future, disabled}, now)
	if len(got) != 2 {
		t.Fatalf("got %d due actions, want 2", len(got))
	}
	if got[0].Name != "Past" || got[1].Name != "Exact" {
		t.Errorf("due = %q, %q", got[0].Name, got[1].Name)
	}
}

func TestDueComputesMissingNextRun(t *testing.T) {
	// No stored NextRun: computed from the 08:00 daily schedule, which is
	// in the future at 07:00, so nothing is due yet.
	now := time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC)
	a := scheduledAction("Morning", time.Time{})

	if got := Due([]*schema.Action{a}, now); len(got) != 0 {
		t.Fatalf("got %d due actions, want 0", len(got))
	}

	wake := NextWake([]*schema.Action{a}, now)
	want := time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC)
	if !wake.Equal(want) {
		t.Errorf("wake = %v, want %v", wake, want)
	}
}

func TestNextWakePicksEarliest(t *testing.T) {
	now := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	a := scheduledAction("Later", now.Add(2*time.Hour))
	b := scheduledAction("Sooner", now.Add(30*time.Minute))

	wake := NextWake([]*schema.Action{a, b}, now)
	if !wake.Equal(now.Add(30 * time.Minute)) {
		t.Errorf("wake = %v", wake)
	}
}

func TestNextWakeEmpty(t *testing.T) {
	manual := schema.NewAction("Manual", "")
	if wake := NextWake([]*schema.Action{manual}, time.Now()); !wake.IsZero() {
		t.Errorf("wake = %v, want zero", wake)
	}
}
