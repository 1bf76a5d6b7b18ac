// Package ai provides page summarization for actions that need a language
// model. The Summarizer interface keeps the engine independent of any one
// provider; AnthropicSummarizer is the production implementation.
package ai

import (
	"context"
	"strings"
)

// Summary is the structured result of summarizing one or more pages.
type Summary struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"keyPoints"`
	ActionItems []string `json:"actionItems"`
	Themes      []string `json:"themes"`
	PagesCount  int      `json:"pagesCount"`
}

// Request carries the source material for a summarization call. Pages holds
// the plain-text content of each page, in the order they were selected.
type Request struct {
	Pages        []string
	CustomPrompt string
}

// Summarizer produces a Summary from page content.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (*Summary, error)
}

// Static is a Summarizer that returns a fixed result. It is used in tests
// and when no API key is configured.
type Static struct {
	Result Summary
	Err    error
}

func (s *Static) Summarize(ctx context.Context, req Request) (*Summary, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.Result
	out.PagesCount = len(req.Pages)
	return &out, nil
}

// parseSummaryResponse extracts the structured sections from a model
// response. The prompt asks for SUMMARY, KEY POINTS, ACTION ITEMS and
// THEMES sections; anything before the first recognized header is folded
// into the summary.
func parseSummaryResponse(text string) *Summary {
	out := &Summary{}
	section := "SUMMARY"
	var summary []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(strings.Trim(trimmed, "#*: "))
		switch upper {
		case "SUMMARY", "KEY POINTS", "ACTION ITEMS", "THEMES":
			section = upper
			continue
		}
		if trimmed == "" {
			continue
		}
		switch section {
		case "SUMMARY":
			summary = append(summary, trimmed)
		case "KEY POINTS":
			out.KeyPoints = append(out.KeyPoints, trimBullet(trimmed))
		case "ACTION ITEMS":
			out.ActionItems = append(out.ActionItems, trimBullet(trimmed))
		case "THEMES":
			for _, t := range strings.Split(trimBullet(trimmed), ",") {
				if t = strings.TrimSpace(t); t != "" {
					out.Themes = append(out.Themes, t)
				}
			}
		}
	}

	out.Summary = strings.Join(summary, " ")
	return out
}

func trimBullet(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"- [ ]", "- [x]", "-", "*", "•"} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(s, prefix))
		}
	}
	return s
}
