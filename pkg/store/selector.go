package store

import (
	"sort"
	"strings"
	"time"

	"github.com/inkwell-notes/inkwell/pkg/schema"
)

// MatchTitle reports whether title matches pattern. A pattern with *
// wildcards matches its fragments in order; otherwise it is a
// case-insensitive substring match.
func MatchTitle(title, pattern string) bool {
	titleLower := strings.ToLower(title)
	patternLower := strings.ToLower(pattern)

	if !strings.Contains(pattern, "*") {
		return strings.Contains(titleLower, patternLower)
	}

	pos := 0
	for _, part := range strings.Split(patternLower, "*") {
		if part == "" {
			continue
		}
		idx := strings.Index(titleLower[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return true
}

// startOfDaysAgo returns midnight n days before now, in now's
// location, so n=0 means "today", n=1 "since yesterday".
func startOfDaysAgo(now time.Time, n int) time.Time {
	d := now.AddDate(0, 0, -n)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// MatchesSelector reports whether the page satisfies every set field
// of the selector. folderName is the name of the page's folder, empty
// when it has none; the notebook field is resolved by the caller.
func MatchesSelector(p *Page, sel *schema.PageSelector, now time.Time, folderName string) bool {
	if p.Archived != sel.ArchivedOnly {
		return false
	}

	if sel.TitlePattern != "" && !MatchTitle(p.Title, sel.TitlePattern) {
		return false
	}

	for _, want := range sel.Tags {
		found := false
		for _, tag := range p.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, unwanted := range sel.WithoutTags {
		for _, tag := range p.Tags {
			if tag == unwanted {
				return false
			}
		}
	}

	if sel.CreatedWithinDays != nil {
		if p.CreatedAt.Before(startOfDaysAgo(now, *sel.CreatedWithinDays)) {
			return false
		}
	}
	if sel.UpdatedWithinDays != nil {
		if p.UpdatedAt.Before(startOfDaysAgo(now, *sel.UpdatedWithinDays)) {
			return false
		}
	}

	if sel.FromTemplate != "" && p.TemplateID != sel.FromTemplate {
		return false
	}

	if sel.InFolder != "" && !strings.EqualFold(folderName, sel.InFolder) {
		return false
	}

	return true
}

// FilterPages applies the selector to a list of pages. When
// MostRecent is set only the newest match (by creation time) is
// returned. folderNameOf maps a page to its folder's name; nil means
// no pages have folders.
func FilterPages(pages []*Page, sel *schema.PageSelector, now time.Time, folderNameOf func(*Page) string) []*Page {
	var matched []*Page
	for _, p := range pages {
		folderName := ""
		if folderNameOf != nil {
			folderName = folderNameOf(p)
		}
		if MatchesSelector(p, sel, now, folderName) {
			matched = append(matched, p)
		}
	}

	if sel.MostRecent && len(matched) > 1 {
		sort.Slice(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		matched = matched[:1]
	}
	return matched
}
