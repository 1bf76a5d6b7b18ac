package store

// Built-in page templates, keyed by the slug IDs the built-in action
// catalog references. Template text may contain {{...}} placeholders;
// the engine resolves them when instantiating.
var builtInTemplates = map[string]func() []Block{
	"agile-results-daily": func() []Block {
		return []Block{
			NewHeader("Today's Three Outcomes", 2),
			NewChecklist([]string{"Outcome 1", "Outcome 2", "Outcome 3"}),
			NewHeader("Notes", 2),
		}
	},
	"agile-results-weekly": func() []Block {
		return []Block{
			NewHeader("This Week's Outcomes", 2),
			NewChecklist([]string{"Outcome 1", "Outcome 2", "Outcome 3"}),
			NewHeader("Notes", 2),
		}
	},
	"agile-results-monthly": func() []Block {
		return []Block{
			NewHeader("This Month's Outcomes", 2),
			NewChecklist([]string{"Outcome 1", "Outcome 2", "Outcome 3"}),
			NewHeader("Priorities", 2),
			NewHeader("Notes", 2),
		}
	},
	"daily-reflection": func() []Block {
		return []Block{
			NewHeader("What Went Well", 2),
			NewParagraph("Three wins from today."),
			NewHeader("What Could Improve", 2),
			NewHeader("Tomorrow's Focus", 2),
		}
	},
	"weekly-review": func() []Block {
		return []Block{
			NewHeader("Wins This Week", 2),
			NewHeader("Lessons Learned", 2),
			NewHeader("Next Week's Focus", 2),
		}
	},
	"daily-journal": func() []Block {
		return []Block{
			NewHeader("Today's Goals", 2),
			NewChecklist(nil),
			NewHeader("Notes", 2),
		}
	},
}

// BuiltInTemplate returns a fresh copy of the named built-in template's
// blocks. The second return is false when the ID is not a built-in.
func BuiltInTemplate(id string) ([]Block, bool) {
	build, ok := builtInTemplates[id]
	if !ok {
		return nil, false
	}
	return build(), true
}
