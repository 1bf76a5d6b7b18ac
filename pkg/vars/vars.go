// Package vars resolves {{name}} placeholders in action templates.
// Unknown placeholders are left verbatim so a typo is visible in the
// produced page instead of silently vanishing.
package vars

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/inkwell-notes/inkwell/pkg/schema"
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Context maps variable names to their resolved string values.
type Context map[string]string

// BuildContext resolves an action's declared variables against the
// reference instant and layers the always-available built-ins
// underneath. Declared variables shadow built-ins of the same name.
// currentNotebook is the name of the notebook the action runs in.
func BuildContext(variables []schema.ActionVariable, now time.Time, currentNotebook string) Context {
	ctx := make(Context)

	for _, v := range variables {
		var value string
		switch v.VariableType {
		case schema.VarUserInput:
			value = v.DefaultValue
		case schema.VarCurrentDate:
			value = now.Format("2006-01-02")
		case schema.VarCurrentDateFormatted:
			value = now.Format(v.Format)
		case schema.VarDayOfWeek:
			value = now.Weekday().String()
		case schema.VarWeekNumber:
			_, week := now.ISOWeek()
			value = strconv.Itoa(week)
		case schema.VarMonthName:
			value = now.Month().String()
		case schema.VarYear:
			value = strconv.Itoa(now.Year())
		case schema.VarCurrentNotebook:
			value = currentNotebook
			if value == "" {
				value = v.DefaultValue
			}
			if value == "" {
				value = "Untitled"
			}
		default:
			value = v.DefaultValue
		}
		ctx[v.Name] = value
	}

	addBuiltins(ctx, now)
	return ctx
}

// addBuiltins fills in the standard variables without overriding
// anything already present.
func addBuiltins(ctx Context, now time.Time) {
	put := func(name, value string) {
		if _, ok := ctx[name]; !ok {
			ctx[name] = value
		}
	}

	_, week := now.ISOWeek()
	put("date", now.Format("2006-01-02"))
	put("dayOfWeek", now.Weekday().String())
	put("weekNumber", strconv.Itoa(week))
	put("monthName", now.Month().String())
	put("year", strconv.Itoa(now.Year()))
	put("month", now.Format("01"))
	put("day", now.Format("02"))
	put("time", now.Format("15:04"))
	put("datetime", now.Format("2006-01-02 15:04"))

	daysFromMonday := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -daysFromMonday)
	sunday := monday.AddDate(0, 0, 6)
	put("weekStart", monday.Format("2006-01-02"))
	put("weekEnd", sunday.Format("2006-01-02"))

	put("yesterday", now.AddDate(0, 0, -1).Format("2006-01-02"))
	put("tomorrow", now.AddDate(0, 0, 1).Format("2006-01-02"))
}

// Set binds name to value, overriding any previous binding.
func (c Context) Set(name, value string) {
	c[name] = value
}

// Substitute replaces each {{name}} in template with its value from
// the context. Unknown names are left verbatim.
func (c Context) Substitute(template string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := c[name]; ok {
			return value
		}
		return fmt.Sprintf("{{%s}}", name)
	})
}

// HasPlaceholders reports whether template contains any {{name}}.
func HasPlaceholders(template string) bool {
	return placeholderRe.MatchString(template)
}

// ExtractNames returns the placeholder names in template, in order of
// appearance, duplicates included.
func ExtractNames(template string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		names = append(names, m[1])
	}
	return names
}
