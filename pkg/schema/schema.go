// Package schema defines the Go struct types for actions — named
// automations with triggers and an ordered step pipeline — and
// provides strict JSON parsing.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionCategory groups actions in the catalog.
type ActionCategory string

const (
	CategoryAgileResults  ActionCategory = "agileResults"
	CategoryDailyRoutines ActionCategory = "dailyRoutines"
	CategoryWeeklyReviews ActionCategory = "weeklyReviews"
	CategoryOrganization  ActionCategory = "organization"
	CategoryCustom        ActionCategory = "custom"
)

// TriggerType discriminates the Trigger union.
type TriggerType string

const (
	TriggerManual    TriggerType = "manual"
	TriggerAIChat    TriggerType = "aiChat"
	TriggerScheduled TriggerType = "scheduled"
)

// Trigger is a condition that causes an action to run. Only the
// fields matching Type are set; the rest stay zero.
type Trigger struct {
	Type     TriggerType `json:"type"               jsonschema:"required,enum=manual,enum=aiChat,enum=scheduled"`
	Keywords []string    `json:"keywords,omitempty"`
	Schedule *Schedule   `json:"schedule,omitempty"`
}

// ScheduleType discriminates the Schedule union.
type ScheduleType string

const (
	ScheduleDaily   ScheduleType = "daily"
	ScheduleWeekly  ScheduleType = "weekly"
	ScheduleMonthly ScheduleType = "monthly"
)

// Schedule is a recurring-time definition from which the next run
// timestamp is computed. Time is "HH:MM" in local time.
type Schedule struct {
	Type         ScheduleType `json:"type"                   jsonschema:"required,enum=daily,enum=weekly,enum=monthly"`
	Time         string       `json:"time"                   jsonschema:"required,pattern=^[0-9]{2}:[0-9]{2}$"`
	SkipWeekends bool         `json:"skipWeekends,omitempty"`
	Days         []string     `json:"days,omitempty"`
	DayOfMonth   int          `json:"dayOfMonth,omitempty"   jsonschema:"minimum=1,maximum=31"`
}

// VariableType identifies how an ActionVariable's value is produced.
type VariableType string

const (
	VarUserInput            VariableType = "userInput"
	VarCurrentDate          VariableType = "currentDate"
	VarCurrentDateFormatted VariableType = "currentDateFormatted"
	VarDayOfWeek            VariableType = "dayOfWeek"
	VarWeekNumber           VariableType = "weekNumber"
	VarMonthName            VariableType = "monthName"
	VarYear                 VariableType = "year"
	VarCurrentNotebook      VariableType = "currentNotebook"
)

// ActionVariable declares a named variable available for template
// substitution. Format applies to currentDateFormatted only and uses
// the Go reference-time layout.
type ActionVariable struct {
	Name         string       `json:"name"                   jsonschema:"required"`
	Description  string       `json:"description,omitempty"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	VariableType VariableType `json:"variableType"           jsonschema:"required"`
	Format       string       `json:"format,omitempty"`
}

// Action is the identity and configuration for one automation.
// LastRun and NextRun are mutated only by the engine; everything else
// is owned by the editor.
type Action struct {
	ID          uuid.UUID        `json:"id"          jsonschema:"required"`
	Name        string           `json:"name"        jsonschema:"required"`
	Description string           `json:"description"`
	Icon        string           `json:"icon,omitempty"`
	Category    ActionCategory   `json:"category"`
	Triggers    []Trigger        `json:"triggers"    jsonschema:"required,minItems=1"`
	Steps       []Step           `json:"steps"`
	Enabled     bool             `json:"enabled"`
	IsBuiltIn   bool             `json:"isBuiltIn,omitempty"`
	Variables   []ActionVariable `json:"variables,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	LastRun     *time.Time       `json:"lastRun,omitempty"`
	NextRun     *time.Time       `json:"nextRun,omitempty"`
}

// NewAction creates an empty custom action with a manual trigger.
func NewAction(name, description string) *Action {
	now := time.Now().UTC()
	return &Action{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Category:    CategoryCustom,
		Triggers:    []Trigger{{Type: TriggerManual}},
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasSchedule reports whether the action has any scheduled trigger.
func (a *Action) HasSchedule() bool {
	for _, t := range a.Triggers {
		if t.Type == TriggerScheduled {
			return true
		}
	}
	return false
}

// Schedules returns the schedules of all scheduled triggers.
func (a *Action) Schedules() []*Schedule {
	var out []*Schedule
	for _, t := range a.Triggers {
		if t.Type == TriggerScheduled && t.Schedule != nil {
			out = append(out, t.Schedule)
		}
	}
	return out
}

// MatchesKeywords reports whether input contains any aiChat trigger
// keyword, case-insensitively.
func (a *Action) MatchesKeywords(input string) bool {
	lower := strings.ToLower(input)
	for _, t := range a.Triggers {
		if t.Type != TriggerAIChat {
			continue
		}
		for _, kw := range t.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// ActionUpdate is a partial update applied by the editor. Nil fields
// are left untouched.
type ActionUpdate struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Icon        *string           `json:"icon,omitempty"`
	Category    *ActionCategory   `json:"category,omitempty"`
	Triggers    *[]Trigger        `json:"triggers,omitempty"`
	Steps       *[]Step           `json:"steps,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	Variables   *[]ActionVariable `json:"variables,omitempty"`
}

// LoadFile reads and parses an action definition, rejecting unknown
// fields.
func LoadFile(path string) (*Action, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open action: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses an action from an io.Reader, rejecting unknown fields.
func Load(r io.Reader) (*Action, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var a Action
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return &a, nil
}
