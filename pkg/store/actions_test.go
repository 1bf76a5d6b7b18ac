package store

import (
	"errors"
	"testing"
	"time"

	"github.com/inkwell-notes/inkwell/pkg/schema"
)

func newTestStore(t *testing.T) *ActionStore {
	t.Helper()
	s, err := NewActionStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCreateGetDelete(t *testing.T) {
	s := newTestStore(t)

	a := schema.NewAction("Test Action", "a test")
	a.Steps = []schema.Step{{Type: schema.StepCreateNotebook, Name: "Scratch"}}
	if err := s.Create(a); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Test Action" || len(got.Steps) != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}

	if err := s.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
}

func TestListSortsByName(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"Charlie", "alpha", "Bravo"} {
		if err := s.Create(schema.NewAction(name, "")); err != nil {
			t.Fatal(err)
		}
	}
	actions, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 3 {
		t.Fatalf("got %d actions, want 3", len(actions))
	}
	// Byte-order sort: uppercase before lowercase.
	want := []string{"Bravo", "Charlie", "alpha"}
	for i, a := range actions {
		if a.Name != want[i] {
			t.Errorf("actions[%d].Name = %q, want %q", i, a.Name, want[i])
		}
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	s := newTestStore(t)
	a := schema.NewAction("Original", "original desc")
	if err := s.Create(a); err != nil {
		t.Fatal(err)
	}

	name := "Updated"
	enabled := false
	got, err := s.Update(a.ID, schema.ActionUpdate{Name: &name, Enabled: &enabled})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Updated" || got.Enabled {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Description != "original desc" {
		t.Errorf("untouched field changed: %q", got.Description)
	}
	if !got.UpdatedAt.After(a.UpdatedAt) {
		t.Error("UpdatedAt was not bumped")
	}
}

func TestBuiltInRestrictions(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureBuiltIns(); err != nil {
		t.Fatal(err)
	}
	builtins := schema.BuiltInActions()
	id := builtins[0].ID

	// Steps edits are rejected.
	steps := []schema.Step{{Type: schema.StepDelay, Seconds: 1}}
	if _, err := s.Update(id, schema.ActionUpdate{Steps: &steps}); !errors.Is(err, ErrBuiltIn) {
		t.Errorf("steps edit: err = %v, want ErrBuiltIn", err)
	}

	// Empty update is rejected too.
	if _, err := s.Update(id, schema.ActionUpdate{}); !errors.Is(err, ErrBuiltIn) {
		t.Errorf("empty update: err = %v, want ErrBuiltIn", err)
	}

	// Toggling enabled is allowed.
	enabled := false
	got, err := s.Update(id, schema.ActionUpdate{Enabled: &enabled})
	if err != nil {
		t.Fatal(err)
	}
	if got.Enabled {
		t.Error("enabled toggle not applied")
	}

	// Deletion is refused.
	if err := s.Delete(id); err == nil {
		t.Error("expected error deleting a built-in action")
	}
}

func TestEnsureBuiltInsPreservesEnabledOnRegen(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureBuiltIns(); err != nil {
		t.Fatal(err)
	}

	id := schema.BuiltInActions()[0].ID
	enabled := false
	if _, err := s.Update(id, schema.ActionUpdate{Enabled: &enabled}); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same dir with a stale version file
	// regenerates; the disabled flag must survive.
	s2, err := NewActionStore(s.dir)
	if err != nil {
		t.Fatal(err)
	}
	// Force regeneration by resetting the version marker.
	if err := writeVersionMarker(s2.dir, 0); err != nil {
		t.Fatal(err)
	}
	if err := s2.EnsureBuiltIns(); err != nil {
		t.Fatal(err)
	}

	got, err := s2.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Enabled {
		t.Error("regeneration lost the user's enabled=false setting")
	}
}

func TestFindByName(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(schema.NewAction("Daily Goals", "")); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(schema.NewAction("Goals Review", "")); err != nil {
		t.Fatal(err)
	}

	// Exact match wins over partial.
	got, err := s.FindByName("daily goals")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Daily Goals" {
		t.Errorf("FindByName = %q", got.Name)
	}

	// Partial match.
	got, err = s.FindByName("review")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Goals Review" {
		t.Errorf("partial FindByName = %q", got.Name)
	}

	if _, err := s.FindByName("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindByKeywordsSkipsDisabled(t *testing.T) {
	s := newTestStore(t)

	a := schema.NewAction("Daily Goals", "")
	a.Triggers = []schema.Trigger{{
		Type:     schema.TriggerAIChat,
		Keywords: []string{"daily goals", "today's goals"},
	}}
	if err := s.Create(a); err != nil {
		t.Fatal(err)
	}

	b := schema.NewAction("Disabled Twin", "")
	b.Enabled = false
	b.Triggers = a.Triggers
	if err := s.Create(b); err != nil {
		t.Fatal(err)
	}

	matches, err := s.FindByKeywords("create my daily goals")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Name != "Daily Goals" {
		t.Errorf("matches = %v", matches)
	}

	none, err := s.FindByKeywords("weekly review")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestScheduledFiltersEnabled(t *testing.T) {
	s := newTestStore(t)

	sched := schema.NewAction("Scheduled", "")
	sched.Triggers = []schema.Trigger{{
		Type:     schema.TriggerScheduled,
		Schedule: &schema.Schedule{Type: schema.ScheduleDaily, Time: "08:00"},
	}}
	if err := s.Create(sched); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(schema.NewAction("Manual Only", "")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Scheduled()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Scheduled" {
		t.Errorf("Scheduled() = %v", got)
	}
}

func TestSetLastRunAndNextRun(t *testing.T) {
	s := newTestStore(t)
	a := schema.NewAction("Stamped", "")
	if err := s.Create(a); err != nil {
		t.Fatal(err)
	}

	last := time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC)
	next := last.AddDate(0, 0, 1)
	if err := s.SetLastRun(a.ID, last); err != nil {
		t.Fatal(err)
	}
	if err := s.SetNextRun(a.ID, next); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastRun == nil || !got.LastRun.Equal(last) {
		t.Errorf("LastRun = %v, want %v", got.LastRun, last)
	}
	if got.NextRun == nil || !got.NextRun.Equal(next) {
		t.Errorf("NextRun = %v, want %v", got.NextRun, next)
	}
}
