package runtime

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inkwell-notes/inkwell/pkg/logger"
	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"
)

const (
	carriedForwardHeader = "Carried Forward"
	carriedForwardSuffix = " (carried forward)"
)

// carryForward moves unchecked checklist items from the source pages into
// a "Carried Forward" section on the destination page. Carried items are
// checked off on their source page with a marker suffix so a later run
// does not pick them up again.
func (e *Engine) carryForward(ec *execContext, step *schema.Step) error {
	dest, err := e.carryDestination(ec, step)
	if err != nil {
		return err
	}

	sources, err := e.selectPages(ec, step.SourceSelector)
	if err != nil {
		return err
	}
	// The destination never feeds itself.
	filtered := sources[:0]
	for _, p := range sources {
		if p.ID != dest.ID {
			filtered = append(filtered, p)
		}
	}
	sources = filtered

	items := collectUncheckedItems(sources)
	if len(items) == 0 {
		logger.Debug("nothing to carry forward",
			zap.String("destination", dest.Title))
		return nil
	}

	// Rebuild the destination's Carried Forward section from scratch so
	// repeated runs do not accumulate duplicates.
	dest.Blocks = removeSection(dest.Blocks, carriedForwardHeader)
	dest.Blocks = insertSection(dest.Blocks, ec.resolve(step.InsertAfterSection), []store.Block{
		store.NewHeader(carriedForwardHeader, 2),
		store.NewChecklist(items),
	})
	if err := e.Pages.UpdatePage(dest); err != nil {
		return fmt.Errorf("update destination %q: %w", dest.Title, err)
	}
	ec.result.pageModified(dest.ID)

	carried := make(map[string]bool, len(items))
	for _, item := range items {
		carried[item] = true
	}
	for _, src := range sources {
		if markCarried(src, carried) {
			if err := e.Pages.UpdatePage(src); err != nil {
				return fmt.Errorf("update source %q: %w", src.Title, err)
			}
			ec.result.pageModified(src.ID)
		}
	}

	logger.Info("carried items forward",
		zap.Int("items", len(items)),
		zap.Int("sources", len(sources)),
		zap.String("destination", dest.Title))
	return nil
}

// carryDestination finds the page items land on, newest match first, and
// falls back to creating it from the step's title template.
func (e *Engine) carryDestination(ec *execContext, step *schema.Step) (*store.Page, error) {
	if step.FindExisting != nil {
		pages, err := e.selectPages(ec, step.FindExisting)
		if err != nil {
			return nil, err
		}
		var newest *store.Page
		for _, p := range pages {
			if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
				newest = p
			}
		}
		if newest != nil {
			return newest, nil
		}
	}

	ref, err := e.resolveTarget(ec, step.NotebookTarget)
	if err != nil {
		return nil, err
	}
	title := ec.resolve(step.TitleTemplate)
	if title == "" {
		return nil, fmt.Errorf("no destination page found and no title template to create one")
	}

	var blocks []store.Block
	if step.TemplateID != "" {
		blocks, _, err = e.templateBlocks(ec, step.TemplateID)
		if err != nil {
			return nil, err
		}
	}

	page, err := e.Pages.CreatePage(ref.notebookID, title)
	if err != nil {
		return nil, fmt.Errorf("create destination %q: %w", title, err)
	}
	page.Blocks = blocks
	page.TemplateID = step.TemplateID
	if err := e.Pages.UpdatePage(page); err != nil {
		return nil, err
	}
	if ref.folderID != nil {
		if err := e.Pages.MovePage(page.ID, ref.notebookID, ref.folderID); err != nil {
			return nil, err
		}
	}
	ec.result.pageCreated(page.ID)
	return page, nil
}

// collectUncheckedItems gathers unchecked checklist texts across the
// source pages, deduplicated in first-seen order. Items inside a source's
// own Carried Forward section are included, which is how an item keeps
// moving day after day until someone checks it.
func collectUncheckedItems(pages []*store.Page) []string {
	var items []string
	seen := make(map[string]bool)
	for _, p := range pages {
		for _, b := range p.Blocks {
			if b.Type != store.BlockChecklist {
				continue
			}
			for _, item := range b.Items {
				if item.Checked {
					continue
				}
				text := strings.TrimSpace(item.Text)
				if text == "" || seen[text] {
					continue
				}
				seen[text] = true
				items = append(items, text)
			}
		}
	}
	return items
}

// markCarried checks off carried items on a source page and appends the
// carried-forward suffix. Returns whether anything changed.
func markCarried(p *store.Page, carried map[string]bool) bool {
	changed := false
	for bi := range p.Blocks {
		if p.Blocks[bi].Type != store.BlockChecklist {
			continue
		}
		for ii := range p.Blocks[bi].Items {
			item := &p.Blocks[bi].Items[ii]
			if item.Checked || !carried[strings.TrimSpace(item.Text)] {
				continue
			}
			item.Checked = true
			if !strings.HasSuffix(item.Text, carriedForwardSuffix) {
				item.Text += carriedForwardSuffix
			}
			changed = true
		}
	}
	return changed
}

// findHeader returns the index of the header block with the given text,
// or -1.
func findHeader(blocks []store.Block, text string) int {
	for i, b := range blocks {
		if b.Type == store.BlockHeader && strings.EqualFold(strings.TrimSpace(b.Text), text) {
			return i
		}
	}
	return -1
}

// sectionEnd walks from a header to the start of the next section: the
// next header at the same or a higher level.
func sectionEnd(blocks []store.Block, headerIdx int) int {
	level := blocks[headerIdx].Level
	for i := headerIdx + 1; i < len(blocks); i++ {
		if blocks[i].Type == store.BlockHeader && blocks[i].Level <= level {
			return i
		}
	}
	return len(blocks)
}

// removeSection drops a header and everything up to the next section.
func removeSection(blocks []store.Block, header string) []store.Block {
	idx := findHeader(blocks, header)
	if idx < 0 {
		return blocks
	}
	end := sectionEnd(blocks, idx)
	return append(blocks[:idx:idx], blocks[end:]...)
}

// insertSection places new blocks after the named section, or at the end
// of the page when the section is empty or missing.
func insertSection(blocks []store.Block, afterSection string, section []store.Block) []store.Block {
	at := len(blocks)
	if afterSection != "" {
		if idx := findHeader(blocks, afterSection); idx >= 0 {
			at = sectionEnd(blocks, idx)
		}
	}
	out := make([]store.Block, 0, len(blocks)+len(section))
	out = append(out, blocks[:at]...)
	out = append(out, section...)
	out = append(out, blocks[at:]...)
	return out
}
