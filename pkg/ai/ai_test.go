package ai

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestParseSummaryResponse(t *testing.T) {
	text := `SUMMARY
The week was productive overall.
Most tasks landed on time.

KEY POINTS
- Shipped the importer
- Cut page load times in half

ACTION ITEMS
- [ ] Write release notes
- [ ] Schedule retro

THEMES
performance, shipping, follow-up
`
	got := parseSummaryResponse(text)

	if want := "The week was productive overall. Most tasks landed on time."; got.Summary != want {
		t.Errorf("summary = %q, want %q", got.Summary, want)
	}
	if want := []string{"Shipped the importer", "Cut page load times in half"}; !reflect.DeepEqual(got.KeyPoints, want) {
		t.Errorf("key points = %v, want %v", got.KeyPoints, want)
	}
	if want := []string{"Write release notes", "Schedule retro"}; !reflect.DeepEqual(got.ActionItems, want) {
		t.Errorf("action items = %v, want %v", got.ActionItems, want)
	}
	if want := []string{"performance", "shipping", "follow-up"}; !reflect.DeepEqual(got.Themes, want) {
		t.Errorf("themes = %v, want %v", got.Themes, want)
	}
}

func TestParseSummaryResponseMarkdownHeaders(t *testing.T) {
	text := `## Summary
A quiet day.

## Key Points
* One meeting

## Themes
rest
`
	got := parseSummaryResponse(text)
	if got.Summary != "A quiet day." {
		t.Errorf("summary = %q", got.Summary)
	}
	if len(got.KeyPoints) != 1 || got.KeyPoints[0] != "One meeting" {
		t.Errorf("key points = %v", got.KeyPoints)
	}
	if len(got.ActionItems) != 0 {
		t.Errorf("expected no action items, got %v", got.ActionItems)
	}
	if len(got.Themes) != 1 || got.Themes[0] != "rest" {
		t.Errorf("themes = %v", got.Themes)
	}
}

func TestParseSummaryResponseNoHeaders(t *testing.T) {
	got := parseSummaryResponse("Just a plain paragraph.")
	if got.Summary != "Just a plain paragraph." {
		t.Errorf("summary = %q", got.Summary)
	}
}

func TestStaticSummarizer(t *testing.T) {
	s := &Static{Result: Summary{Summary: "fixed", Themes: []string{"a"}}}
	got, err := s.Summarize(context.Background(), Request{Pages: []string{"p1", "p2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary != "fixed" || got.PagesCount != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestBuildPromptCustom(t *testing.T) {
	p := buildPrompt(Request{Pages: []string{"content"}, CustomPrompt: "Focus on study notes."})
	if want := "Focus on study notes."; !strings.Contains(p, want) {
		t.Errorf("prompt missing custom instruction: %q", p)
	}
	if !strings.Contains(p, "--- Page 1 ---") {
		t.Errorf("prompt missing page delimiter: %q", p)
	}
}
