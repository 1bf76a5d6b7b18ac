package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "steps[0].selector")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

var (
	timeRe    = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	varNameRe = regexp.MustCompile(`^\w+$`)
)

var validDays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// ValidateFile performs the full 3-phase validation pipeline on an action file.
// Phase 1: Structural (strict JSON decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*Action, []*ValidationError) {
	a, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Path:     "",
			Message:  err.Error(),
			Severity: "error",
		}}
	}

	var allErrors []*ValidationError
	allErrors = append(allErrors, validateSemantic(a)...)
	allErrors = append(allErrors, ValidateDomain(a)...)

	if len(allErrors) > 0 {
		return a, allErrors
	}
	return a, nil
}

// validateSemantic validates the action against the generated JSON Schema.
func validateSemantic(a *Action) []*ValidationError {
	fail := func(msg string, err error) []*ValidationError {
		return []*ValidationError{{
			Phase:    "semantic",
			Path:     "",
			Message:  fmt.Sprintf("%s: %v", msg, err),
			Severity: "error",
		}}
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fail("marshal for schema validation", err)
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fail("generate schema", err)
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fail("unmarshal schema", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("action-v1.json", schemaDoc); err != nil {
		return fail("add schema resource", err)
	}
	sch, err := c.Compile("action-v1.json")
	if err != nil {
		return fail("compile schema", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fail("unmarshal document", err)
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Path:     "",
				Message:  err.Error(),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors; empty means valid.
func ValidateDomain(a *Action) []*ValidationError {
	var errs []*ValidationError

	add := func(path, msg string) {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     path,
			Message:  msg,
			Severity: "error",
		})
	}

	if strings.TrimSpace(a.Name) == "" {
		add("name", "action name must not be empty")
	}

	if len(a.Triggers) == 0 {
		add("triggers", "action must declare at least one trigger")
	}
	seenTriggers := make(map[TriggerType]int)
	for i, t := range a.Triggers {
		prefix := fmt.Sprintf("triggers[%d]", i)
		if prev, ok := seenTriggers[t.Type]; ok {
			add(prefix+".type", fmt.Sprintf("duplicate %s trigger (first at triggers[%d]); at most one of each type", t.Type, prev))
		} else {
			seenTriggers[t.Type] = i
		}
		switch t.Type {
		case TriggerManual:
			// no payload
		case TriggerAIChat:
			if len(t.Keywords) == 0 {
				add(prefix+".keywords", "aiChat trigger requires at least one keyword")
			}
			for j, kw := range t.Keywords {
				if strings.TrimSpace(kw) == "" {
					add(fmt.Sprintf("%s.keywords[%d]", prefix, j), "keyword must not be blank")
				}
			}
		case TriggerScheduled:
			if t.Schedule == nil {
				add(prefix+".schedule", "scheduled trigger requires a schedule")
			} else {
				errs = append(errs, validateSchedule(prefix+".schedule", t.Schedule)...)
			}
		default:
			add(prefix+".type", fmt.Sprintf("unrecognized trigger type %q", t.Type))
		}
	}

	seen := make(map[string]int)
	for i, v := range a.Variables {
		prefix := fmt.Sprintf("variables[%d]", i)
		if !varNameRe.MatchString(v.Name) {
			add(prefix+".name", fmt.Sprintf("variable name %q must be a word (letters, digits, underscore)", v.Name))
		}
		if prev, ok := seen[v.Name]; ok {
			add(prefix+".name", fmt.Sprintf("duplicate variable %q (first at variables[%d])", v.Name, prev))
		}
		seen[v.Name] = i
		if v.VariableType == VarCurrentDateFormatted && v.Format == "" {
			add(prefix+".format", fmt.Sprintf("variable %q with type currentDateFormatted requires a format", v.Name))
		}
	}

	for i := range a.Steps {
		errs = append(errs, validateStep(fmt.Sprintf("steps[%d]", i), &a.Steps[i], 0)...)
	}

	return errs
}

func validateSchedule(prefix string, s *Schedule) []*ValidationError {
	var errs []*ValidationError
	add := func(path, msg string) {
		errs = append(errs, &ValidationError{
			Phase: "domain", Path: path, Message: msg, Severity: "error",
		})
	}

	if !timeRe.MatchString(s.Time) {
		add(prefix+".time", fmt.Sprintf("time %q must be HH:MM in 24-hour form", s.Time))
	}

	switch s.Type {
	case ScheduleDaily:
		// skipWeekends is the only modifier
	case ScheduleWeekly:
		if len(s.Days) == 0 {
			add(prefix+".days", "weekly schedule requires at least one day")
		}
		for i, d := range s.Days {
			if !validDays[strings.ToLower(d)] {
				add(fmt.Sprintf("%s.days[%d]", prefix, i), fmt.Sprintf("unrecognized day %q", d))
			}
		}
	case ScheduleMonthly:
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			add(prefix+".dayOfMonth", fmt.Sprintf("dayOfMonth %d must be between 1 and 31", s.DayOfMonth))
		}
	default:
		add(prefix+".type", fmt.Sprintf("unrecognized schedule type %q", s.Type))
	}
	return errs
}

// maxStepDepth bounds conditional/searchAndProcess nesting.
const maxStepDepth = 8

func validateStep(prefix string, s *Step, depth int) []*ValidationError {
	var errs []*ValidationError
	add := func(path, msg string) {
		errs = append(errs, &ValidationError{
			Phase: "domain", Path: path, Message: msg, Severity: "error",
		})
	}

	if depth > maxStepDepth {
		add(prefix, fmt.Sprintf("step nesting exceeds maximum depth %d", maxStepDepth))
		return errs
	}

	switch s.Type {
	case StepCreatePageFromTemplate:
		if s.TemplateID == "" {
			add(prefix+".templateId", "createPageFromTemplate requires templateId")
		}
		if s.NotebookTarget == nil {
			add(prefix+".notebookTarget", "createPageFromTemplate requires notebookTarget")
		} else {
			errs = append(errs, validateNotebookTarget(prefix+".notebookTarget", s.NotebookTarget)...)
		}

	case StepCreatePage:
		if s.TitleTemplate == "" {
			add(prefix+".titleTemplate", "createPage requires titleTemplate")
		}
		if s.NotebookTarget == nil {
			add(prefix+".notebookTarget", "createPage requires notebookTarget")
		} else {
			errs = append(errs, validateNotebookTarget(prefix+".notebookTarget", s.NotebookTarget)...)
		}

	case StepCreateNotebook:
		if s.Name == "" {
			add(prefix+".name", "createNotebook requires name")
		}

	case StepCreateFolder:
		if s.Name == "" {
			add(prefix+".name", "createFolder requires name")
		}

	case StepMovePages:
		if s.Source == nil {
			add(prefix+".source", "movePages requires source selector")
		}
		if s.Destination == nil {
			add(prefix+".destination", "movePages requires destination")
		} else if s.Destination.FolderName == "" && s.Destination.NotebookName == "" {
			add(prefix+".destination", "destination requires folderName or notebookName")
		}

	case StepArchivePages:
		if s.Selector == nil {
			add(prefix+".selector", "archivePages requires selector")
		}

	case StepManageTags:
		if s.Selector == nil {
			add(prefix+".selector", "manageTags requires selector")
		}
		if len(s.AddTags) == 0 && len(s.RemoveTags) == 0 {
			add(prefix, "manageTags requires addTags or removeTags to be non-empty")
		}

	case StepSearchAndProcess:
		if strings.TrimSpace(s.Query) == "" {
			add(prefix+".query", "searchAndProcess requires a query")
		}
		if len(s.ProcessSteps) == 0 {
			add(prefix+".processSteps", "searchAndProcess requires at least one process step")
		}
		if s.Limit < 0 {
			add(prefix+".limit", "limit must not be negative")
		}
		for i := range s.ProcessSteps {
			errs = append(errs, validateStep(fmt.Sprintf("%s.processSteps[%d]", prefix, i), &s.ProcessSteps[i], depth+1)...)
		}

	case StepAISummarize:
		if s.Selector == nil {
			add(prefix+".selector", "aiSummarize requires selector")
		}
		if s.OutputTarget == nil {
			add(prefix+".outputTarget", "aiSummarize requires outputTarget")
		} else {
			switch s.OutputTarget.Type {
			case SummaryAppendToPage:
				if s.OutputTarget.SectionTitle == "" {
					add(prefix+".outputTarget.sectionTitle", "appendToPage output requires sectionTitle")
				}
			case SummaryNewPage:
				if s.OutputTarget.TitleTemplate == "" {
					add(prefix+".outputTarget.titleTemplate", "newPage output requires titleTemplate")
				}
				if s.OutputTarget.Target == nil {
					add(prefix+".outputTarget.target", "newPage output requires target")
				}
			case SummaryIntoVariables:
				// no payload
			default:
				add(prefix+".outputTarget.type", fmt.Sprintf("unrecognized summary output type %q", s.OutputTarget.Type))
			}
		}

	case StepCarryForwardItems:
		if s.SourceSelector == nil {
			add(prefix+".sourceSelector", "carryForwardItems requires sourceSelector")
		}
		if s.TitleTemplate == "" {
			add(prefix+".titleTemplate", "carryForwardItems requires titleTemplate for the fallback page")
		}
		if s.NotebookTarget == nil {
			add(prefix+".notebookTarget", "carryForwardItems requires notebookTarget")
		} else {
			errs = append(errs, validateNotebookTarget(prefix+".notebookTarget", s.NotebookTarget)...)
		}

	case StepDelay:
		if s.Seconds <= 0 {
			add(prefix+".seconds", "delay requires seconds > 0")
		}

	case StepConditional:
		if s.Condition == nil {
			add(prefix+".condition", "conditional requires condition")
		} else {
			errs = append(errs, validateCondition(prefix+".condition", s.Condition)...)
		}
		if len(s.ThenSteps) == 0 && len(s.ElseSteps) == 0 {
			add(prefix, "conditional requires thenSteps or elseSteps")
		}
		for i := range s.ThenSteps {
			errs = append(errs, validateStep(fmt.Sprintf("%s.thenSteps[%d]", prefix, i), &s.ThenSteps[i], depth+1)...)
		}
		for i := range s.ElseSteps {
			errs = append(errs, validateStep(fmt.Sprintf("%s.elseSteps[%d]", prefix, i), &s.ElseSteps[i], depth+1)...)
		}

	case StepSetVariable:
		if !varNameRe.MatchString(s.Name) {
			add(prefix+".name", fmt.Sprintf("setVariable name %q must be a word (letters, digits, underscore)", s.Name))
		}

	default:
		add(prefix+".type", fmt.Sprintf("unrecognized step type %q", s.Type))
	}

	return errs
}

func validateNotebookTarget(prefix string, t *NotebookTarget) []*ValidationError {
	var errs []*ValidationError
	add := func(path, msg string) {
		errs = append(errs, &ValidationError{
			Phase: "domain", Path: path, Message: msg, Severity: "error",
		})
	}

	switch t.Type {
	case TargetCurrentNotebook:
		// no payload
	case TargetNamedNotebook:
		if t.NotebookName == "" {
			add(prefix+".notebookName", "namedNotebook target requires notebookName")
		}
	case TargetNamedSection:
		if t.NotebookName == "" {
			add(prefix+".notebookName", "namedSection target requires notebookName")
		}
		if t.SectionName == "" {
			add(prefix+".sectionName", "namedSection target requires sectionName")
		}
	default:
		add(prefix+".type", fmt.Sprintf("unrecognized notebook target type %q", t.Type))
	}
	return errs
}

func validateCondition(prefix string, c *StepCondition) []*ValidationError {
	var errs []*ValidationError
	add := func(path, msg string) {
		errs = append(errs, &ValidationError{
			Phase: "domain", Path: path, Message: msg, Severity: "error",
		})
	}

	switch c.Type {
	case CondPagesExist, CondPagesNotExist:
		if c.Selector == nil {
			add(prefix+".selector", fmt.Sprintf("%s condition requires selector", c.Type))
		}
	case CondDayOfWeek:
		if len(c.Days) == 0 {
			add(prefix+".days", "dayOfWeek condition requires at least one day")
		}
		for i, d := range c.Days {
			if !validDays[strings.ToLower(d)] {
				add(fmt.Sprintf("%s.days[%d]", prefix, i), fmt.Sprintf("unrecognized day %q", d))
			}
		}
	case CondVariableEquals:
		if c.Name == "" {
			add(prefix+".name", "variableEquals condition requires name")
		}
	case CondVariableNotEmpty:
		if c.Name == "" {
			add(prefix+".name", "variableNotEmpty condition requires name")
		}
	case CondExpression:
		if strings.TrimSpace(c.Expr) == "" {
			add(prefix+".expr", "expression condition requires expr")
		} else if _, err := expr.Compile(c.Expr, expr.AllowUndefinedVariables(), expr.AsBool()); err != nil {
			add(prefix+".expr", fmt.Sprintf("invalid expression: %v", err))
		}
	default:
		add(prefix+".type", fmt.Sprintf("unrecognized condition type %q", c.Type))
	}
	return errs
}
