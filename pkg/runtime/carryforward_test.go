package runtime

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"
)

func carryStep() schema.Step {
	zero, seven := 0, 7
	return schema.Step{
		Type:               schema.StepCarryForwardItems,
		SourceSelector:     &schema.PageSelector{TitlePattern: "Daily Notes*", CreatedWithinDays: &seven},
		FindExisting:       &schema.PageSelector{TitlePattern: "Daily Notes*", CreatedWithinDays: &zero},
		InsertAfterSection: "Today's Goals",
		NotebookTarget:     &schema.NotebookTarget{Type: schema.TargetCurrentNotebook},
		TitleTemplate:      "Daily Notes - {{date}}",
	}
}

func dailyPage(t *testing.T, pages *store.MemoryPageStore, nb uuid.UUID, title string, items []store.ChecklistItem) *store.Page {
	t.Helper()
	p, err := pages.CreatePage(nb, title)
	if err != nil {
		t.Fatal(err)
	}
	p.Blocks = []store.Block{
		store.NewHeader("Today's Goals", 2),
		{ID: uuid.NewString(), Type: store.BlockChecklist, Items: items},
		store.NewHeader("Notes", 2),
		store.NewParagraph("free-form notes"),
	}
	if err := pages.UpdatePage(p); err != nil {
		t.Fatal(err)
	}
	return p
}

func carriedSection(t *testing.T, p *store.Page) (headerIdx int, items []store.ChecklistItem) {
	t.Helper()
	idx := findHeader(p.Blocks, carriedForwardHeader)
	if idx < 0 {
		t.Fatalf("no Carried Forward section in %q: %+v", p.Title, p.Blocks)
	}
	if idx+1 >= len(p.Blocks) || p.Blocks[idx+1].Type != store.BlockChecklist {
		t.Fatalf("Carried Forward header not followed by checklist: %+v", p.Blocks)
	}
	return idx, p.Blocks[idx+1].Items
}

func TestCarryForwardMovesUncheckedItems(t *testing.T) {
	e, pages := newTestEngine(t)
	nb, _ := pages.CreateNotebook("Journal", "")

	yesterday := testClock().AddDate(0, 0, -1)
	pages.SetClock(func() time.Time { return yesterday })
	src := dailyPage(t, pages, nb.ID, "Daily Notes - 2024-03-05", []store.ChecklistItem{
		{Text: "write report"},
		{Text: "book flights"},
		{Text: "water plants", Checked: true},
	})
	pages.SetClock(testClock)
	dest := dailyPage(t, pages, nb.ID, "Daily Notes - 2024-03-06", []store.ChecklistItem{
		{Text: "stand-up"},
	})

	a := testAction(carryStep())
	result, err := e.Execute(context.Background(), a, RunOptions{NotebookID: nb.ID})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}

	got, _ := pages.GetPage(dest.ID)
	idx, items := carriedSection(t, got)
	if len(items) != 2 || items[0].Text != "write report" || items[1].Text != "book flights" {
		t.Errorf("carried items = %+v", items)
	}
	for _, item := range items {
		if item.Checked {
			t.Errorf("carried item arrived checked: %+v", item)
		}
	}
	// The section lands after Today's Goals and before Notes.
	notesIdx := findHeader(got.Blocks, "Notes")
	goalsIdx := findHeader(got.Blocks, "Today's Goals")
	if !(goalsIdx < idx && idx < notesIdx) {
		t.Errorf("section order: goals=%d carried=%d notes=%d", goalsIdx, idx, notesIdx)
	}

	// Source items are checked off with the carried marker; the already
	// checked item is untouched.
	srcNow, _ := pages.GetPage(src.ID)
	srcItems := srcNow.Blocks[1].Items
	if !srcItems[0].Checked || !strings.HasSuffix(srcItems[0].Text, carriedForwardSuffix) {
		t.Errorf("source item not marked: %+v", srcItems[0])
	}
	if !srcItems[1].Checked || !strings.HasSuffix(srcItems[1].Text, carriedForwardSuffix) {
		t.Errorf("source item not marked: %+v", srcItems[1])
	}
	if srcItems[2].Text != "water plants" {
		t.Errorf("checked item was touched: %+v", srcItems[2])
	}

	// Destination's own unchecked item was not treated as carryable.
	for _, item := range items {
		if item.Text == "stand-up" {
			t.Error("destination fed itself")
		}
	}
}

func TestCarryForwardIsIdempotent(t *testing.T) {
	e, pages := newTestEngine(t)
	nb, _ := pages.CreateNotebook("Journal", "")

	yesterday := testClock().AddDate(0, 0, -1)
	pages.SetClock(func() time.Time { return yesterday })
	dailyPage(t, pages, nb.ID, "Daily Notes - 2024-03-05", []store.ChecklistItem{{Text: "write report"}})
	pages.SetClock(testClock)
	dest := dailyPage(t, pages, nb.ID, "Daily Notes - 2024-03-06", nil)

	a := testAction(carryStep())
	if _, err := e.Execute(context.Background(), a, RunOptions{NotebookID: nb.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Execute(context.Background(), a, RunOptions{NotebookID: nb.ID}); err != nil {
		t.Fatal(err)
	}

	got, _ := pages.GetPage(dest.ID)
	count := 0
	for _, b := range got.Blocks {
		if b.Type == store.BlockHeader && b.Text == carriedForwardHeader {
			count++
		}
	}
	if count != 1 {
		t.Errorf("got %d Carried Forward sections, want 1", count)
	}
	_, items := carriedSection(t, got)
	if len(items) != 1 {
		t.Errorf("carried items = %+v", items)
	}
}

func TestCarryForwardChainsAcrossDays(t *testing.T) {
	e, pages := newTestEngine(t)
	nb, _ := pages.CreateNotebook("Journal", "")

	dayOne := testClock().AddDate(0, 0, -1)
	pages.SetClock(func() time.Time { return dayOne })
	dailyPage(t, pages, nb.ID, "Daily Notes - 2024-03-05", []store.ChecklistItem{{Text: "write report"}})
	pages.SetClock(testClock)
	dayTwoDest := dailyPage(t, pages, nb.ID, "Daily Notes - 2024-03-06", nil)

	a := testAction(carryStep())
	if _, err := e.Execute(context.Background(), a, RunOptions{NotebookID: nb.ID}); err != nil {
		t.Fatal(err)
	}

	// Next day: no page for today exists, so the step creates one, and
	// the still-unchecked carried item moves again.
	dayThree := testClock().AddDate(0, 0, 1)
	pages.SetClock(func() time.Time { return dayThree })
	e.SetClock(func() time.Time { return dayThree })

	result, err := e.Execute(context.Background(), a, RunOptions{NotebookID: nb.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.CreatedPages) != 1 {
		t.Fatalf("created %d pages, want fallback destination", len(result.CreatedPages))
	}

	created, _ := pages.GetPage(result.CreatedPages[0])
	if created.Title != "Daily Notes - 2024-03-07" {
		t.Errorf("fallback title = %q", created.Title)
	}
	_, items := carriedSection(t, created)
	if len(items) != 1 || items[0].Text != "write report" {
		t.Errorf("carried items = %+v", items)
	}

	// Day two's carried copy is now checked off with the marker.
	dayTwo, _ := pages.GetPage(dayTwoDest.ID)
	_, prev := carriedSection(t, dayTwo)
	if !prev[0].Checked || !strings.HasSuffix(prev[0].Text, carriedForwardSuffix) {
		t.Errorf("day two item not marked: %+v", prev[0])
	}
}
