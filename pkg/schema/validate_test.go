package schema

import (
	"strings"
	"testing"
)

func validAction() *Action {
	a := NewAction("Tidy Up", "moves scratch pages into the archive")
	a.Steps = []Step{{
		Type:        StepMovePages,
		Source:      &PageSelector{TitlePattern: "Scratch*"},
		Destination: &PageDestination{FolderName: "Archive"},
	}}
	return a
}

func hasErrorAt(errs []*ValidationError, path string) bool {
	for _, e := range errs {
		if strings.Contains(e.Path, path) {
			return true
		}
	}
	return false
}

func TestValidateDomainAcceptsValidAction(t *testing.T) {
	if errs := ValidateDomain(validAction()); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs[0])
	}
}

func TestValidateDomainTriggerRules(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		errPath string
	}{
		{"aiChat without keywords", Trigger{Type: TriggerAIChat}, "keywords"},
		{"aiChat with blank keyword", Trigger{Type: TriggerAIChat, Keywords: []string{"  "}}, "keywords[0]"},
		{"scheduled without schedule", Trigger{Type: TriggerScheduled}, "schedule"},
		{"unknown type", Trigger{Type: "onSneeze"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAction()
			a.Triggers = []Trigger{tt.trigger}
			errs := ValidateDomain(a)
			if !hasErrorAt(errs, tt.errPath) {
				t.Errorf("expected error at %q, got %v", tt.errPath, errs)
			}
		})
	}
}

func TestValidateScheduleRules(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		errPath  string
	}{
		{"bad time", Schedule{Type: ScheduleDaily, Time: "25:00"}, "time"},
		{"missing minutes", Schedule{Type: ScheduleDaily, Time: "8am"}, "time"},
		{"weekly without days", Schedule{Type: ScheduleWeekly, Time: "08:00"}, "days"},
		{"weekly bad day", Schedule{Type: ScheduleWeekly, Time: "08:00", Days: []string{"someday"}}, "days[0]"},
		{"monthly day zero", Schedule{Type: ScheduleMonthly, Time: "08:00"}, "dayOfMonth"},
		{"monthly day 32", Schedule{Type: ScheduleMonthly, Time: "08:00", DayOfMonth: 32}, "dayOfMonth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateSchedule("schedule", &tt.schedule)
			if !hasErrorAt(errs, tt.errPath) {
				t.Errorf("expected error at %q, got %v", tt.errPath, errs)
			}
		})
	}

	ok := Schedule{Type: ScheduleWeekly, Time: "08:00", Days: []string{"Monday", "friday"}}
	if errs := validateSchedule("schedule", &ok); len(errs) > 0 {
		t.Errorf("day names should be case-insensitive: %v", errs[0])
	}
}

func TestValidateStepRules(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		errPath string
	}{
		{
			"createPageFromTemplate without templateId",
			Step{Type: StepCreatePageFromTemplate, NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook}},
			"templateId",
		},
		{
			"createPage without target",
			Step{Type: StepCreatePage, TitleTemplate: "X"},
			"notebookTarget",
		},
		{
			"namedNotebook target without name",
			Step{Type: StepCreatePage, TitleTemplate: "X", NotebookTarget: &NotebookTarget{Type: TargetNamedNotebook}},
			"notebookName",
		},
		{
			"movePages empty destination",
			Step{Type: StepMovePages, Source: &PageSelector{}, Destination: &PageDestination{}},
			"destination",
		},
		{
			"manageTags with nothing to change",
			Step{Type: StepManageTags, Selector: &PageSelector{}},
			"steps[0]",
		},
		{
			"searchAndProcess without query",
			Step{Type: StepSearchAndProcess, ProcessSteps: []Step{{Type: StepDelay, Seconds: 1}}},
			"query",
		},
		{
			"searchAndProcess without process steps",
			Step{Type: StepSearchAndProcess, Query: "tag:inbox"},
			"processSteps",
		},
		{
			"delay zero",
			Step{Type: StepDelay},
			"seconds",
		},
		{
			"archivePages without selector",
			Step{Type: StepArchivePages},
			"selector",
		},
		{
			"conditional without branches",
			Step{Type: StepConditional, Condition: &StepCondition{Type: CondDayOfWeek, Days: []string{"monday"}}},
			"steps[0]",
		},
		{
			"setVariable bad name",
			Step{Type: StepSetVariable, Name: "has space", Value: "x"},
			"name",
		},
		{
			"unknown step type",
			Step{Type: "teleport"},
			"type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAction()
			a.Steps = []Step{tt.step}
			errs := ValidateDomain(a)
			if !hasErrorAt(errs, tt.errPath) {
				t.Errorf("expected error at %q, got %v", tt.errPath, errs)
			}
		})
	}
}

func TestValidateNestedStepsRecursively(t *testing.T) {
	a := validAction()
	a.Steps = []Step{{
		Type:      StepConditional,
		Condition: &StepCondition{Type: CondDayOfWeek, Days: []string{"monday"}},
		ThenSteps: []Step{{Type: StepDelay}}, // invalid: seconds missing
	}}
	errs := ValidateDomain(a)
	if !hasErrorAt(errs, "steps[0].thenSteps[0].seconds") {
		t.Errorf("expected nested error path, got %v", errs)
	}
}

func TestValidateExpressionCondition(t *testing.T) {
	bad := &StepCondition{Type: CondExpression, Expr: "1 +"}
	if errs := validateCondition("condition", bad); !hasErrorAt(errs, "expr") {
		t.Errorf("expected compile error for truncated expression, got %v", errs)
	}

	good := &StepCondition{Type: CondExpression, Expr: `mood == "focused"`}
	if errs := validateCondition("condition", good); len(errs) > 0 {
		t.Errorf("unexpected errors: %v", errs[0])
	}
}

func TestValidateDuplicateTriggers(t *testing.T) {
	a := validAction()
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerManual},
	}
	errs := ValidateDomain(a)
	if !hasErrorAt(errs, "triggers[1].type") {
		t.Errorf("expected duplicate trigger error, got %v", errs)
	}

	// One of each type is fine.
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{"tidy"}},
	}
	if errs := ValidateDomain(a); len(errs) > 0 {
		t.Errorf("unexpected errors: %v", errs[0])
	}
}

func TestValidateDuplicateVariables(t *testing.T) {
	a := validAction()
	a.Variables = []ActionVariable{
		{Name: "topic", VariableType: VarUserInput},
		{Name: "topic", VariableType: VarUserInput},
	}
	errs := ValidateDomain(a)
	if !hasErrorAt(errs, "variables[1].name") {
		t.Errorf("expected duplicate variable error, got %v", errs)
	}
}
