package schema

import (
	"time"

	"github.com/google/uuid"
)

// BuiltInActionsVersion is bumped whenever the built-in catalog
// changes shape. The store regenerates built-ins on version mismatch,
// preserving each action's enabled flag.
const BuiltInActionsVersion = 3

// Built-in actions have fixed IDs so user stores can track them
// across regenerations.
var (
	idDailyOutcomes        = uuid.MustParse("00000000-0000-0000-0001-000000000001")
	idWeeklyOutcomes       = uuid.MustParse("00000000-0000-0000-0001-000000000002")
	idMonthlyOutcomes      = uuid.MustParse("00000000-0000-0000-0001-000000000003")
	idDailyReflection      = uuid.MustParse("00000000-0000-0000-0001-000000000004")
	idWeeklyReview         = uuid.MustParse("00000000-0000-0000-0001-000000000005")
	idCarryForward         = uuid.MustParse("00000000-0000-0000-0001-000000000006")
	idWeeklyCarryForward   = uuid.MustParse("00000000-0000-0000-0001-000000000007")
	idWeeklyStudyReview    = uuid.MustParse("00000000-0000-0000-0001-000000000009")
	idDailyLearningSummary = uuid.MustParse("00000000-0000-0000-0001-00000000000b")
)

// BuiltInActions returns the full built-in catalog, freshly
// constructed. Callers own the returned slice.
func BuiltInActions() []*Action {
	return []*Action{
		dailyOutcomesAction(),
		weeklyOutcomesAction(),
		monthlyOutcomesAction(),
		dailyReflectionAction(),
		weeklyReviewAction(),
		carryForwardAction(),
		weeklyCarryForwardAction(),
		weeklyStudyReviewAction(),
		dailyLearningSummaryAction(),
	}
}

func builtIn(id uuid.UUID, name, description, icon string, cat ActionCategory) *Action {
	now := time.Now().UTC()
	return &Action{
		ID:          id,
		Name:        name,
		Description: description,
		Icon:        icon,
		Category:    cat,
		Enabled:     true,
		IsBuiltIn:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func dateVar() ActionVariable {
	return ActionVariable{
		Name:         "date",
		Description:  "Today's date",
		VariableType: VarCurrentDateFormatted,
		Format:       "January 2, 2006",
	}
}

func dayOfWeekVar() ActionVariable {
	return ActionVariable{
		Name:         "dayOfWeek",
		Description:  "Day of the week",
		VariableType: VarDayOfWeek,
	}
}

func weekNumberVar() ActionVariable {
	return ActionVariable{
		Name:         "weekNumber",
		Description:  "ISO week number",
		VariableType: VarWeekNumber,
	}
}

func dailyOutcomesAction() *Action {
	a := builtIn(idDailyOutcomes, "Daily Outcomes",
		"Create a new page for today's three key outcomes using Agile Results methodology",
		"target", CategoryAgileResults)
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"daily goals", "daily outcomes", "three outcomes", "today's goals", "start my day",
		}},
		{Type: TriggerScheduled, Schedule: &Schedule{Type: ScheduleDaily, Time: "08:00"}},
	}
	a.Steps = []Step{{
		Type:           StepCreatePageFromTemplate,
		TemplateID:     "agile-results-daily",
		NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook},
		TitleTemplate:  "{{dayOfWeek}}, {{date}} - Daily Outcomes",
		Tags:           []string{"daily-outcomes", "agile-results"},
	}}
	a.Variables = []ActionVariable{dateVar(), dayOfWeekVar()}
	return a
}

func weeklyOutcomesAction() *Action {
	a := builtIn(idWeeklyOutcomes, "Weekly Outcomes",
		"Create a page outlining the three key outcomes for this week",
		"calendar", CategoryAgileResults)
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"weekly goals", "weekly outcomes", "week planning", "this week",
		}},
		{Type: TriggerScheduled, Schedule: &Schedule{
			Type: ScheduleWeekly, Days: []string{"monday"}, Time: "08:00",
		}},
	}
	a.Steps = []Step{{
		Type:           StepCreatePageFromTemplate,
		TemplateID:     "agile-results-weekly",
		NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook},
		TitleTemplate:  "Week {{weekNumber}} - Weekly Outcomes",
		Tags:           []string{"weekly-outcomes", "agile-results"},
	}}
	a.Variables = []ActionVariable{weekNumberVar()}
	return a
}

func monthlyOutcomesAction() *Action {
	a := builtIn(idMonthlyOutcomes, "Monthly Outcomes",
		"Create a page for the month's key outcomes and priorities",
		"calendar", CategoryAgileResults)
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"monthly goals", "monthly outcomes", "month planning", "this month",
		}},
		{Type: TriggerScheduled, Schedule: &Schedule{
			Type: ScheduleMonthly, DayOfMonth: 1, Time: "08:00",
		}},
	}
	a.Steps = []Step{{
		Type:           StepCreatePageFromTemplate,
		TemplateID:     "agile-results-monthly",
		NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook},
		TitleTemplate:  "{{monthName}} {{year}} - Monthly Outcomes",
		Tags:           []string{"monthly-outcomes", "agile-results"},
	}}
	a.Variables = []ActionVariable{
		{Name: "monthName", Description: "Current month name", VariableType: VarMonthName},
		{Name: "year", Description: "Current year", VariableType: VarYear},
	}
	return a
}

func dailyReflectionAction() *Action {
	a := builtIn(idDailyReflection, "Daily Reflection",
		"Create a reflection page for end-of-day review of wins and learnings",
		"sun", CategoryDailyRoutines)
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"daily reflection", "end of day", "review my day", "what went well",
		}},
		{Type: TriggerScheduled, Schedule: &Schedule{
			Type: ScheduleDaily, Time: "17:00", SkipWeekends: true,
		}},
	}
	a.Steps = []Step{{
		Type:           StepCreatePageFromTemplate,
		TemplateID:     "daily-reflection",
		NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook},
		TitleTemplate:  "{{date}} - Daily Reflection",
		Tags:           []string{"daily-reflection", "review"},
	}}
	a.Variables = []ActionVariable{dateVar()}
	return a
}

func weeklyReviewAction() *Action {
	a := builtIn(idWeeklyReview, "Weekly Review",
		"Create a Friday Review page for weekly retrospective",
		"calendar", CategoryWeeklyReviews)
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"weekly review", "friday review", "week retrospective", "review the week",
		}},
		{Type: TriggerScheduled, Schedule: &Schedule{
			Type: ScheduleWeekly, Days: []string{"friday"}, Time: "16:00",
		}},
	}
	a.Steps = []Step{{
		Type:           StepCreatePageFromTemplate,
		TemplateID:     "weekly-review",
		NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook},
		TitleTemplate:  "Week {{weekNumber}} - Friday Review",
		Tags:           []string{"weekly-review", "agile-results"},
	}}
	a.Variables = []ActionVariable{weekNumberVar()}
	return a
}

func carryForwardAction() *Action {
	a := builtIn(idCarryForward, "Carry Forward",
		"Copy incomplete checklist items from recent pages to today's page",
		"arrow-right", CategoryDailyRoutines)
	week := 7
	today := 0
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"carry forward", "incomplete items", "unfinished tasks", "move tasks", "yesterday's tasks",
		}},
	}
	a.Steps = []Step{{
		Type: StepCarryForwardItems,
		SourceSelector: &PageSelector{
			Notebook:          &NotebookTarget{Type: TargetCurrentNotebook},
			CreatedWithinDays: &week,
		},
		NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook},
		TitleTemplate:  "{{dayOfWeek}}, {{date}} - Daily Journal",
		TemplateID:     "daily-journal",
		FindExisting: &PageSelector{
			Notebook:          &NotebookTarget{Type: TargetCurrentNotebook},
			CreatedWithinDays: &today,
		},
		InsertAfterSection: "Today's Goals",
	}}
	a.Variables = []ActionVariable{dateVar(), dayOfWeekVar()}
	return a
}

func weeklyCarryForwardAction() *Action {
	a := builtIn(idWeeklyCarryForward, "Weekly Outcomes Carry Forward",
		"Copy incomplete outcomes from last week's Weekly Outcomes page to this week",
		"arrow-right", CategoryAgileResults)
	twoWeeks := 14
	thisWeek := 7
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"weekly carry forward", "carry over outcomes", "last week outcomes", "weekly outcomes carry",
		}},
	}
	a.Steps = []Step{{
		Type: StepCarryForwardItems,
		SourceSelector: &PageSelector{
			Notebook:          &NotebookTarget{Type: TargetCurrentNotebook},
			TitlePattern:      "*Weekly Outcomes*",
			CreatedWithinDays: &twoWeeks,
		},
		NotebookTarget: &NotebookTarget{Type: TargetCurrentNotebook},
		TitleTemplate:  "Week {{weekNumber}} - Weekly Outcomes",
		TemplateID:     "agile-results-weekly",
		FindExisting: &PageSelector{
			Notebook:          &NotebookTarget{Type: TargetCurrentNotebook},
			TitlePattern:      "*Week {{weekNumber}}*Weekly Outcomes*",
			CreatedWithinDays: &thisWeek,
		},
		InsertAfterSection: "This Week's Outcomes",
	}}
	a.Variables = []ActionVariable{weekNumberVar()}
	return a
}

func weeklyStudyReviewAction() *Action {
	a := builtIn(idWeeklyStudyReview, "Weekly Study Review",
		"Summarize this week's study notes into a review page",
		"book-open", CategoryWeeklyReviews)
	week := 7
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"weekly study review", "study review", "review study notes",
		}},
		{Type: TriggerScheduled, Schedule: &Schedule{
			Type: ScheduleWeekly, Days: []string{"friday"}, Time: "17:00",
		}},
	}
	a.Steps = []Step{{
		Type: StepAISummarize,
		Selector: &PageSelector{
			Notebook:          &NotebookTarget{Type: TargetCurrentNotebook},
			CreatedWithinDays: &week,
		},
		OutputTarget: &SummaryOutput{
			Type:          SummaryNewPage,
			TitleTemplate: "Week {{weekNumber}} - Study Review",
			Target:        &NotebookTarget{Type: TargetCurrentNotebook},
		},
		CustomPrompt: "Focus on key concepts learned this week, connections between topics, and areas that need further review.",
	}}
	a.Variables = []ActionVariable{weekNumberVar()}
	return a
}

func dailyLearningSummaryAction() *Action {
	a := builtIn(idDailyLearningSummary, "Daily Learning Summary",
		"Create a summary of today's learning with key concepts, connections, and follow-up suggestions",
		"lightbulb", CategoryDailyRoutines)
	today := 0
	a.Triggers = []Trigger{
		{Type: TriggerManual},
		{Type: TriggerAIChat, Keywords: []string{
			"daily learning summary", "what did I learn", "today's learning",
		}},
		{Type: TriggerScheduled, Schedule: &Schedule{Type: ScheduleDaily, Time: "18:00"}},
	}
	a.Steps = []Step{{
		Type: StepAISummarize,
		Selector: &PageSelector{
			Notebook:          &NotebookTarget{Type: TargetCurrentNotebook},
			CreatedWithinDays: &today,
		},
		OutputTarget: &SummaryOutput{
			Type:          SummaryNewPage,
			TitleTemplate: "{{date}} - Learning Summary",
			Target:        &NotebookTarget{Type: TargetCurrentNotebook},
		},
		CustomPrompt: "Summarize the key concepts learned today, highlight connections between topics, and suggest follow-up areas to explore.",
	}}
	a.Variables = []ActionVariable{dateVar(), dayOfWeekVar()}
	return a
}
