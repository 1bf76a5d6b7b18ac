package schema

import (
	"strings"
	"testing"
)

const dailyJournalJSON = `{
  "id": "7b7e0f84-4f9f-4d2c-b7a1-2a1f6f3f0e11",
  "name": "Daily Journal",
  "description": "Create today's journal page",
  "category": "dailyRoutines",
  "triggers": [
    {"type": "manual"},
    {"type": "aiChat", "keywords": ["journal", "daily note"]},
    {"type": "scheduled", "schedule": {"type": "daily", "time": "07:30", "skipWeekends": true}}
  ],
  "steps": [
    {
      "type": "createPageFromTemplate",
      "templateId": "daily-journal",
      "notebookTarget": {"type": "currentNotebook"},
      "titleTemplate": "{{dayOfWeek}}, {{date}}",
      "tags": ["journal"]
    }
  ],
  "enabled": true,
  "createdAt": "2024-03-01T08:00:00Z",
  "updatedAt": "2024-03-01T08:00:00Z"
}`

func TestLoadParsesTriggers(t *testing.T) {
	a, err := Load(strings.NewReader(dailyJournalJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(a.Triggers) != 3 {
		t.Fatalf("expected 3 triggers, got %d", len(a.Triggers))
	}
	if a.Triggers[0].Type != TriggerManual {
		t.Errorf("triggers[0].Type = %q, want manual", a.Triggers[0].Type)
	}
	if got := a.Triggers[1].Keywords; len(got) != 2 || got[0] != "journal" {
		t.Errorf("triggers[1].Keywords = %v", got)
	}
	sched := a.Triggers[2].Schedule
	if sched == nil {
		t.Fatal("triggers[2].Schedule is nil")
	}
	if sched.Type != ScheduleDaily || sched.Time != "07:30" || !sched.SkipWeekends {
		t.Errorf("unexpected schedule: %+v", sched)
	}
}

func TestLoadParsesStepTypeNames(t *testing.T) {
	doc := `{
	  "id": "7b7e0f84-4f9f-4d2c-b7a1-2a1f6f3f0e12",
	  "name": "Evening Tidy",
	  "description": "",
	  "category": "custom",
	  "triggers": [{"type": "manual"}],
	  "steps": [
	    {"type": "manageTags", "selector": {"tags": ["inbox"]}, "addTags": ["done"]},
	    {"type": "delay", "seconds": 1},
	    {"type": "archivePages", "selector": {"tags": ["done"]}},
	    {"type": "aiSummarize", "selector": {"tags": ["done"]},
	     "outputTarget": {"type": "intoVariables"}},
	    {"type": "conditional",
	     "condition": {"type": "pagesExist", "selector": {"tags": ["done"]}},
	     "thenSteps": [{"type": "delay", "seconds": 1}]}
	  ],
	  "enabled": true,
	  "createdAt": "2024-03-01T08:00:00Z",
	  "updatedAt": "2024-03-01T08:00:00Z"
	}`
	a, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []StepType{StepManageTags, StepDelay, StepArchivePages, StepAISummarize, StepConditional}
	for i, w := range want {
		if a.Steps[i].Type != w {
			t.Errorf("steps[%d].Type = %q, want %q", i, a.Steps[i].Type, w)
		}
	}
	if got := a.Steps[4].Condition.Type; got != CondPagesExist {
		t.Errorf("condition type = %q, want pagesExist", got)
	}
	if errs := ValidateDomain(a); len(errs) > 0 {
		t.Errorf("unexpected validation errors: %v", errs[0])
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	doc := strings.Replace(dailyJournalJSON, `"name"`, `"nmae"`, 1)
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestMatchesKeywords(t *testing.T) {
	a, err := Load(strings.NewReader(dailyJournalJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		input string
		want  bool
	}{
		{"please start my Journal", true},
		{"make a DAILY NOTE for me", true},
		{"what's the weather", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := a.MatchesKeywords(tt.input); got != tt.want {
			t.Errorf("MatchesKeywords(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestHasScheduleAndSchedules(t *testing.T) {
	a, err := Load(strings.NewReader(dailyJournalJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !a.HasSchedule() {
		t.Error("HasSchedule() = false, want true")
	}
	if got := a.Schedules(); len(got) != 1 {
		t.Errorf("Schedules() returned %d entries, want 1", len(got))
	}

	manual := NewAction("Ad hoc", "")
	if manual.HasSchedule() {
		t.Error("manual-only action reports HasSchedule() = true")
	}
}

func TestNewActionDefaults(t *testing.T) {
	a := NewAction("My Action", "does things")
	if a.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("NewAction produced a zero UUID")
	}
	if a.Category != CategoryCustom {
		t.Errorf("Category = %q, want custom", a.Category)
	}
	if !a.Enabled || a.IsBuiltIn {
		t.Errorf("Enabled = %v IsBuiltIn = %v, want true/false", a.Enabled, a.IsBuiltIn)
	}
	if len(a.Triggers) != 1 || a.Triggers[0].Type != TriggerManual {
		t.Errorf("Triggers = %+v, want a single manual trigger", a.Triggers)
	}
}

func TestBuiltInCatalog(t *testing.T) {
	actions := BuiltInActions()
	if len(actions) != 9 {
		t.Fatalf("expected 9 built-in actions, got %d", len(actions))
	}

	seen := make(map[string]bool)
	for _, a := range actions {
		if !a.IsBuiltIn {
			t.Errorf("%s is not marked built-in", a.Name)
		}
		if !a.Enabled {
			t.Errorf("%s is not enabled by default", a.Name)
		}
		if seen[a.ID.String()] {
			t.Errorf("duplicate built-in ID %s", a.ID)
		}
		seen[a.ID.String()] = true
		if errs := ValidateDomain(a); len(errs) > 0 {
			t.Errorf("%s fails domain validation: %v", a.Name, errs[0])
		}
	}
}
