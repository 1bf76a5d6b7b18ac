package runtime

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inkwell-notes/inkwell/pkg/ai"
	"github.com/inkwell-notes/inkwell/pkg/logger"
	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"
)

// aiSummarize summarizes the selected pages and routes the result to a
// new page, an existing page section, or run variables.
func (e *Engine) aiSummarize(ctx context.Context, ec *execContext, step *schema.Step) error {
	if e.Summarizer == nil {
		return fmt.Errorf("no summarizer configured")
	}

	pages, err := e.selectPages(ec, step.Selector)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		logger.Debug("aiSummarize matched no pages")
		return nil
	}

	req := ai.Request{CustomPrompt: ec.resolve(step.CustomPrompt)}
	for _, p := range pages {
		if text := p.PlainText(); text != "" {
			req.Pages = append(req.Pages, fmt.Sprintf("%s\n\n%s", p.Title, text))
		}
	}
	if len(req.Pages) == 0 {
		logger.Debug("aiSummarize pages have no content")
		return nil
	}

	summary, err := e.Summarizer.Summarize(ctx, req)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	logger.Debug("summarized pages",
		zap.Int("pages", summary.PagesCount),
		zap.Int("keyPoints", len(summary.KeyPoints)))

	out := step.OutputTarget
	if out == nil {
		out = &schema.SummaryOutput{Type: schema.SummaryIntoVariables}
	}
	switch out.Type {
	case schema.SummaryNewPage:
		return e.summaryToNewPage(ec, out, summary)
	case schema.SummaryAppendToPage:
		return e.summaryAppend(ec, out, summary)
	case schema.SummaryIntoVariables:
		ec.vars.Set("_summary", summary.Summary)
		ec.vars.Set("_keyPoints", strings.Join(summary.KeyPoints, "\n"))
		ec.vars.Set("_actionItems", strings.Join(summary.ActionItems, "\n"))
		ec.vars.Set("_themes", strings.Join(summary.Themes, ", "))
		return nil
	default:
		return fmt.Errorf("unknown summary output type: %q", out.Type)
	}
}

// summaryBlocks renders a summary as page blocks: the summary paragraph,
// then Key Points, Action Items, and Themes sections as far as they are
// non-empty.
func summaryBlocks(summary *ai.Summary) []store.Block {
	var blocks []store.Block
	if summary.Summary != "" {
		blocks = append(blocks, store.NewParagraph(summary.Summary))
	}
	if len(summary.KeyPoints) > 0 {
		blocks = append(blocks,
			store.NewHeader("Key Points", 2),
			store.NewList(summary.KeyPoints))
	}
	if len(summary.ActionItems) > 0 {
		blocks = append(blocks,
			store.NewHeader("Action Items", 2),
			store.NewChecklist(summary.ActionItems))
	}
	if len(summary.Themes) > 0 {
		blocks = append(blocks,
			store.NewHeader("Themes", 2),
			store.NewParagraph(strings.Join(summary.Themes, ", ")))
	}
	return blocks
}

func (e *Engine) summaryToNewPage(ec *execContext, out *schema.SummaryOutput, summary *ai.Summary) error {
	ref, err := e.resolveTarget(ec, out.Target)
	if err != nil {
		return err
	}
	title := ec.resolve(out.TitleTemplate)
	if title == "" {
		title = "Summary " + ec.vars["date"]
	}
	page, err := e.Pages.CreatePage(ref.notebookID, title)
	if err != nil {
		return fmt.Errorf("create summary page %q: %w", title, err)
	}
	page.Blocks = summaryBlocks(summary)
	// Themes double as page tags so summaries are findable by topic.
	page.Tags = summary.Themes
	if err := e.Pages.UpdatePage(page); err != nil {
		return err
	}
	if ref.folderID != nil {
		if err := e.Pages.MovePage(page.ID, ref.notebookID, ref.folderID); err != nil {
			return err
		}
	}
	ec.result.pageCreated(page.ID)
	return nil
}

// summaryAppend writes the summary as a section on an existing page: the
// current fan-out page, or the newest page in the output target notebook.
func (e *Engine) summaryAppend(ec *execContext, out *schema.SummaryOutput, summary *ai.Summary) error {
	page := ec.currentPage
	if page == nil {
		ref, err := e.resolveTarget(ec, out.Target)
		if err != nil {
			return err
		}
		pages, err := e.Pages.ListPages(ref.notebookID)
		if err != nil {
			return err
		}
		for _, p := range pages {
			if page == nil || p.CreatedAt.After(page.CreatedAt) {
				page = p
			}
		}
		if page == nil {
			return fmt.Errorf("no page to append summary to")
		}
	}

	header := ec.resolve(out.SectionTitle)
	if header == "" {
		header = "Summary"
	}
	page.Blocks = removeSection(page.Blocks, header)
	section := append([]store.Block{store.NewHeader(header, 2)}, summaryBlocks(summary)...)
	page.Blocks = append(page.Blocks, section...)
	if err := e.Pages.UpdatePage(page); err != nil {
		return err
	}
	ec.result.pageModified(page.ID)
	return nil
}
