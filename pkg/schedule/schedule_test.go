package schedule

import (
	"testing"
	"time"

	"github.com/inkwell-notes/inkwell/pkg/schema"
)

// 2024-03-06 is a Wednesday.
func wednesday(hour, minute int) time.Time {
	return time.Date(2024, 3, 6, hour, minute, 0, 0, time.UTC)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"08:30", 8, 30, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"8am", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := ParseTime(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTime(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTime(%q): %v", tt.in, err)
			continue
		}
		if h != tt.hour || m != tt.minute {
			t.Errorf("ParseTime(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.minute)
		}
	}
}

func TestNextRunDaily(t *testing.T) {
	s := &schema.Schedule{Type: schema.ScheduleDaily, Time: "08:00"}

	// Before today's slot: fires today.
	got, err := NextRun(s, wednesday(7, 0))
	if err != nil {
		t.Fatal(err)
	}
	if want := wednesday(8, 0); !got.Equal(want) {
		t.Errorf("before slot: got %v, want %v", got, want)
	}

	// Exactly at the slot: fires tomorrow (strictly after now).
	got, _ = NextRun(s, wednesday(8, 0))
	if want := wednesday(8, 0).AddDate(0, 0, 1); !got.Equal(want) {
		t.Errorf("at slot: got %v, want %v", got, want)
	}

	// After the slot: fires tomorrow.
	got, _ = NextRun(s, wednesday(9, 0))
	if want := wednesday(8, 0).AddDate(0, 0, 1); !got.Equal(want) {
		t.Errorf("after slot: got %v, want %v", got, want)
	}
}

func TestNextRunDailySkipWeekends(t *testing.T) {
	s := &schema.Schedule{Type: schema.ScheduleDaily, Time: "09:00", SkipWeekends: true}

	// Friday 2024-03-08 after the slot: next run is Monday the 11th.
	friday := time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)
	got, err := NextRun(s, friday)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want Monday %v", got, want)
	}
	if got.Weekday() == time.Saturday || got.Weekday() == time.Sunday {
		t.Errorf("fired on a weekend: %v", got.Weekday())
	}
}

func TestNextRunWeekly(t *testing.T) {
	s := &schema.Schedule{
		Type: schema.ScheduleWeekly,
		Time: "09:00",
		Days: []string{"Monday", "friday"},
	}

	// Wednesday: next matching day is Friday the 8th.
	got, err := NextRun(s, wednesday(12, 0))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// Friday after the slot: wraps to Monday the 11th.
	got, _ = NextRun(s, time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC))
	want = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("wrap: got %v, want %v", got, want)
	}
}

func TestNextRunWeeklySameDayLater(t *testing.T) {
	s := &schema.Schedule{
		Type: schema.ScheduleWeekly,
		Time: "18:00",
		Days: []string{"wednesday"},
	}
	got, err := NextRun(s, wednesday(12, 0))
	if err != nil {
		t.Fatal(err)
	}
	if want := wednesday(18, 0); !got.Equal(want) {
		t.Errorf("got %v, want same-day %v", got, want)
	}
}

func TestNextRunMonthly(t *testing.T) {
	s := &schema.Schedule{Type: schema.ScheduleMonthly, Time: "10:00", DayOfMonth: 15}

	// Before the 15th: fires this month.
	got, err := NextRun(s, wednesday(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// After the 15th: rolls to next month.
	got, _ = NextRun(s, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	want = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("rollover: got %v, want %v", got, want)
	}
}

func TestNextRunMonthlyClampsShortMonths(t *testing.T) {
	s := &schema.Schedule{Type: schema.ScheduleMonthly, Time: "08:00", DayOfMonth: 31}

	// February 2024 is a leap year: day 31 clamps to the 29th.
	got, err := NextRun(s, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("leap February: got %v, want %v", got, want)
	}

	// April has 30 days.
	got, _ = NextRun(s, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	want = time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("April: got %v, want %v", got, want)
	}
}

func TestNextRunAlwaysStrictlyAfterNow(t *testing.T) {
	schedules := []*schema.Schedule{
		{Type: schema.ScheduleDaily, Time: "00:00"},
		{Type: schema.ScheduleDaily, Time: "23:59", SkipWeekends: true},
		{Type: schema.ScheduleWeekly, Time: "12:00", Days: []string{"sunday"}},
		{Type: schema.ScheduleMonthly, Time: "06:00", DayOfMonth: 1},
		{Type: schema.ScheduleMonthly, Time: "06:00", DayOfMonth: 31},
	}
	now := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	for _, s := range schedules {
		got, err := NextRun(s, now)
		if err != nil {
			t.Errorf("%s: %v", s.Type, err)
			continue
		}
		if !got.After(now) {
			t.Errorf("%s: next run %v is not after %v", s.Type, got, now)
		}
	}
}

func TestNextRunErrors(t *testing.T) {
	bad := []*schema.Schedule{
		{Type: schema.ScheduleDaily, Time: "25:00"},
		{Type: schema.ScheduleWeekly, Time: "08:00"},
		{Type: schema.ScheduleWeekly, Time: "08:00", Days: []string{"caturday"}},
		{Type: schema.ScheduleMonthly, Time: "08:00", DayOfMonth: 0},
		{Type: "hourly", Time: "08:00"},
	}
	for _, s := range bad {
		if _, err := NextRun(s, wednesday(0, 0)); err == nil {
			t.Errorf("%+v: expected error", s)
		}
	}
}

func TestNextRunAny(t *testing.T) {
	a := schema.NewAction("Multi", "")
	a.Triggers = []schema.Trigger{
		{Type: schema.TriggerScheduled, Schedule: &schema.Schedule{Type: schema.ScheduleDaily, Time: "18:00"}},
		{Type: schema.TriggerScheduled, Schedule: &schema.Schedule{Type: schema.ScheduleDaily, Time: "08:00"}},
	}
	got := NextRunAny(a, wednesday(7, 0))
	if want := wednesday(8, 0); !got.Equal(want) {
		t.Errorf("got %v, want earliest %v", got, want)
	}

	manual := schema.NewAction("Manual", "")
	if got := NextRunAny(manual, wednesday(7, 0)); !got.IsZero() {
		t.Errorf("manual action: got %v, want zero", got)
	}
}
