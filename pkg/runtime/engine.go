package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwell-notes/inkwell/pkg/ai"
	"github.com/inkwell-notes/inkwell/pkg/logger"
	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"
	"github.com/inkwell-notes/inkwell/pkg/vars"
)

var (
	// ErrAlreadyRunning is returned when Execute is called for an action
	// that has a run in flight. Each action runs at most once
	// concurrently.
	ErrAlreadyRunning = errors.New("action is already running")
	// ErrActionDisabled is returned when Execute is called for a
	// disabled action.
	ErrActionDisabled = errors.New("action is disabled")
)

// RunOptions carries per-run inputs.
type RunOptions struct {
	// UserInput supplies values for userInput variables, keyed by
	// variable name. Missing entries fall back to the variable default.
	UserInput map[string]string
	// NotebookID is the notebook that currentNotebook targets resolve
	// to. Zero means the engine picks the first notebook, creating one
	// if the store is empty.
	NotebookID uuid.UUID
	// OnStep receives progress events. May be nil.
	OnStep func(StepEvent)
}

// Engine executes actions against a page store.
type Engine struct {
	Actions    *store.ActionStore
	Pages      store.PageStore
	Summarizer ai.Summarizer
	// BaseDir, when set, is where run manifests are written
	// (<BaseDir>/runs/<run_id>/run.yaml).
	BaseDir string

	now func() time.Time

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func NewEngine(actions *store.ActionStore, pages store.PageStore, summarizer ai.Summarizer) *Engine {
	return &Engine{
		Actions:    actions,
		Pages:      pages,
		Summarizer: summarizer,
		now:        time.Now,
		inflight:   make(map[uuid.UUID]struct{}),
	}
}

// SetClock overrides the time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) begin(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inflight[id]; ok {
		return ErrAlreadyRunning
	}
	e.inflight[id] = struct{}{}
	return nil
}

func (e *Engine) end(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}

// Execute runs an action to completion. The step loop stops at the first
// failing step; the returned Result always reflects what was done, even on
// failure. A second Execute for the same action while one is in flight
// returns ErrAlreadyRunning; a disabled action returns ErrActionDisabled.
func (e *Engine) Execute(ctx context.Context, action *schema.Action, opts RunOptions) (*Result, error) {
	if !action.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrActionDisabled, action.Name)
	}
	if err := e.begin(action.ID); err != nil {
		return nil, err
	}
	defer e.end(action.ID)

	now := e.now()
	notebookID, notebookName, err := e.resolveCurrentNotebook(opts.NotebookID)
	if err != nil {
		return nil, fmt.Errorf("resolve current notebook: %w", err)
	}

	vc := vars.BuildContext(action.Variables, now, notebookName)
	for name, value := range opts.UserInput {
		vc.Set(name, value)
	}

	tracker := NewTracker(action.Steps, opts.OnStep)
	result := &Result{
		RunID:      GenerateRunID(),
		ActionID:   action.ID,
		ActionName: action.Name,
		StartedAt:  now,
		StepsTotal: tracker.Len(),
	}
	ec := &execContext{
		vars:       vc,
		now:        now,
		notebookID: notebookID,
		result:     result,
		tracker:    tracker,
	}

	logger.Info("executing action",
		zap.String("runId", result.RunID),
		zap.String("actionId", action.ID.String()),
		zap.String("name", action.Name))

	runErr := e.runSteps(ctx, ec, action.Steps, "")
	if runErr != nil {
		result.addError("%v", runErr)
		// Steps after the failure never run.
		tracker.SkipRemaining()
	}

	// Fan-out errors recorded by searchAndProcess count against the run
	// even though they do not stop it.
	result.Success = len(result.Errors) == 0
	result.StepsCompleted = tracker.Completed()
	result.CompletedAt = e.now()

	if e.Actions != nil {
		if err := e.Actions.SetLastRun(action.ID, now); err != nil {
			logger.Warn("failed to stamp last run", zap.Error(err))
		}
	}
	if e.BaseDir != "" {
		if err := e.writeManifest(result, vc, tracker.Summary()); err != nil {
			logger.Warn("failed to write run manifest", zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error(runErr, zap.String("runId", result.RunID))
	}
	return result, runErr
}

// runSteps executes a step list in order, stopping at the first failure.
func (e *Engine) runSteps(ctx context.Context, ec *execContext, steps []schema.Step, prefix string) error {
	for i := range steps {
		path := fmt.Sprintf("%d", i)
		if prefix != "" {
			path = fmt.Sprintf("%s.%d", prefix, i)
		}
		if err := e.runStep(ctx, ec, &steps[i], path); err != nil {
			return fmt.Errorf("step %s (%s): %w", path, steps[i].Type, err)
		}
	}
	return nil
}

func (e *Engine) runStep(ctx context.Context, ec *execContext, step *schema.Step, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ec.tracker.Mark(path, StepRunning, "")

	err := e.dispatch(ctx, ec, step, path)
	if err != nil {
		ec.tracker.Mark(path, StepFailed, err.Error())
		return err
	}
	ec.tracker.Mark(path, StepSuccess, "")
	return nil
}

func (e *Engine) dispatch(ctx context.Context, ec *execContext, step *schema.Step, path string) error {
	switch step.Type {
	case schema.StepCreatePage:
		return e.createPage(ec, step)
	case schema.StepCreatePageFromTemplate:
		return e.createPageFromTemplate(ec, step)
	case schema.StepCreateNotebook:
		return e.createNotebook(ec, step)
	case schema.StepCreateFolder:
		return e.createFolder(ec, step)
	case schema.StepMovePages:
		return e.movePages(ec, step)
	case schema.StepArchivePages:
		return e.archivePages(ec, step)
	case schema.StepManageTags:
		return e.manageTags(ec, step)
	case schema.StepSearchAndProcess:
		return e.searchAndProcess(ctx, ec, step, path)
	case schema.StepAISummarize:
		return e.aiSummarize(ctx, ec, step)
	case schema.StepCarryForwardItems:
		return e.carryForward(ec, step)
	case schema.StepDelay:
		return e.delay(ctx, step)
	case schema.StepConditional:
		return e.conditional(ctx, ec, step, path)
	case schema.StepSetVariable:
		ec.vars.Set(step.Name, ec.resolve(step.Value))
		return nil
	default:
		return fmt.Errorf("unknown step type: %q", step.Type)
	}
}

// targetRef is a resolved notebook target: the notebook plus an optional
// folder within it.
type targetRef struct {
	notebookID uuid.UUID
	folderID   *uuid.UUID
}

// resolveCurrentNotebook picks the notebook that currentNotebook targets
// resolve to. An empty store gets a default notebook.
func (e *Engine) resolveCurrentNotebook(id uuid.UUID) (uuid.UUID, string, error) {
	if id != uuid.Nil {
		nb, err := e.Pages.GetNotebook(id)
		if err != nil {
			return uuid.Nil, "", err
		}
		return nb.ID, nb.Name, nil
	}
	notebooks, err := e.Pages.ListNotebooks()
	if err != nil {
		return uuid.Nil, "", err
	}
	if len(notebooks) > 0 {
		return notebooks[0].ID, notebooks[0].Name, nil
	}
	nb, err := e.Pages.CreateNotebook("Notes", "")
	if err != nil {
		return uuid.Nil, "", err
	}
	return nb.ID, nb.Name, nil
}

// resolveTarget maps a notebook target to a concrete notebook and folder.
// A nil target means the current notebook. Named notebooks and sections
// are created when missing.
func (e *Engine) resolveTarget(ec *execContext, t *schema.NotebookTarget) (targetRef, error) {
	if t == nil || t.Type == schema.TargetCurrentNotebook {
		return targetRef{notebookID: ec.notebookID}, nil
	}
	switch t.Type {
	case schema.TargetNamedNotebook:
		name := ec.resolve(t.NotebookName)
		if name == "" {
			return targetRef{}, fmt.Errorf("named notebook target has empty name")
		}
		id, err := e.ensureNotebook(ec, name)
		if err != nil {
			return targetRef{}, err
		}
		return targetRef{notebookID: id}, nil
	case schema.TargetNamedSection:
		name := ec.resolve(t.SectionName)
		if name == "" {
			return targetRef{}, fmt.Errorf("named section target has empty name")
		}
		nbName := ec.resolve(t.NotebookName)
		if nbName == "" {
			return targetRef{}, fmt.Errorf("named section target has empty notebook name")
		}
		notebookID, err := e.ensureNotebook(ec, nbName)
		if err != nil {
			return targetRef{}, err
		}
		f, err := e.ensureFolder(notebookID, name, nil)
		if err != nil {
			return targetRef{}, err
		}
		return targetRef{notebookID: notebookID, folderID: &f.ID}, nil
	default:
		return targetRef{}, fmt.Errorf("unknown notebook target type: %q", t.Type)
	}
}

func (e *Engine) ensureNotebook(ec *execContext, name string) (uuid.UUID, error) {
	if nb, err := e.Pages.NotebookByName(name); err == nil {
		return nb.ID, nil
	}
	nb, err := e.Pages.CreateNotebook(name, "")
	if err != nil {
		return uuid.Nil, fmt.Errorf("create notebook %q: %w", name, err)
	}
	ec.result.notebookCreated(nb.ID)
	return nb.ID, nil
}

func (e *Engine) ensureFolder(notebookID uuid.UUID, name string, parentID *uuid.UUID) (*store.Folder, error) {
	if f, err := e.Pages.FolderByName(notebookID, name); err == nil {
		return f, nil
	}
	f, err := e.Pages.CreateFolder(notebookID, name, parentID)
	if err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}
	return f, nil
}

func (e *Engine) folderNameOf(p *store.Page) string {
	if p.FolderID == nil {
		return ""
	}
	f, err := e.Pages.GetFolder(*p.FolderID)
	if err != nil {
		return ""
	}
	return f.Name
}

// selectPages evaluates a page selector. Inside a searchAndProcess
// fan-out, a nil selector means the page currently being processed.
func (e *Engine) selectPages(ec *execContext, sel *schema.PageSelector) ([]*store.Page, error) {
	if sel == nil {
		if ec.currentPage != nil {
			return []*store.Page{ec.currentPage}, nil
		}
		return nil, fmt.Errorf("page selector is required outside searchAndProcess")
	}

	ref, err := e.resolveTarget(ec, sel.Notebook)
	if err != nil {
		return nil, err
	}
	pages, err := e.Pages.ListPages(ref.notebookID)
	if err != nil {
		return nil, err
	}

	// Resolve variables in the selector's text fields so patterns like
	// "*Week {{weekNumber}}*" match concrete titles.
	resolved := *sel
	resolved.TitlePattern = ec.resolve(sel.TitlePattern)
	resolved.InFolder = ec.resolve(sel.InFolder)
	resolved.Tags = resolveAll(ec, sel.Tags)
	resolved.WithoutTags = resolveAll(ec, sel.WithoutTags)

	return store.FilterPages(pages, &resolved, ec.now, e.folderNameOf), nil
}

func (e *Engine) createPage(ec *execContext, step *schema.Step) error {
	ref, err := e.resolveTarget(ec, step.NotebookTarget)
	if err != nil {
		return err
	}
	title := ec.resolve(step.TitleTemplate)
	if title == "" {
		title = "Untitled"
	}
	page, err := e.Pages.CreatePage(ref.notebookID, title)
	if err != nil {
		return fmt.Errorf("create page %q: %w", title, err)
	}

	page.Blocks = contentBlocks(ec.resolve(step.Content))
	page.Tags = resolveAll(ec, step.Tags)
	if err := e.Pages.UpdatePage(page); err != nil {
		return err
	}
	if err := e.placeInFolder(ec, page, ref, step.FolderName); err != nil {
		return err
	}
	ec.result.pageCreated(page.ID)
	return nil
}

func (e *Engine) createPageFromTemplate(ec *execContext, step *schema.Step) error {
	blocks, templateTitle, err := e.templateBlocks(ec, step.TemplateID)
	if err != nil {
		return err
	}

	ref, err := e.resolveTarget(ec, step.NotebookTarget)
	if err != nil {
		return err
	}
	title := ec.resolve(step.TitleTemplate)
	if title == "" {
		title = ec.resolve(templateTitle)
	}
	page, err := e.Pages.CreatePage(ref.notebookID, title)
	if err != nil {
		return fmt.Errorf("create page %q: %w", title, err)
	}

	page.TemplateID = step.TemplateID
	page.Blocks = blocks
	page.Tags = resolveAll(ec, step.Tags)
	if err := e.Pages.UpdatePage(page); err != nil {
		return err
	}
	if err := e.placeInFolder(ec, page, ref, step.FolderName); err != nil {
		return err
	}
	ec.result.pageCreated(page.ID)
	return nil
}

// templateBlocks materializes a template reference. A UUID names a page
// in the store whose blocks are copied; anything else must be one of the
// bundled template slugs the built-in catalog uses. Placeholders in the
// template text are resolved against the run's variables.
func (e *Engine) templateBlocks(ec *execContext, templateID string) ([]store.Block, string, error) {
	if id, err := uuid.Parse(templateID); err == nil {
		template, err := e.Pages.GetPage(id)
		if err != nil {
			return nil, "", fmt.Errorf("load template: %w", err)
		}
		return instantiateBlocks(ec, template.Blocks), template.Title, nil
	}
	blocks, ok := store.BuiltInTemplate(templateID)
	if !ok {
		return nil, "", fmt.Errorf("unknown template %q", templateID)
	}
	return instantiateBlocks(ec, blocks), "", nil
}

// placeInFolder moves a freshly created page into the target folder, which
// comes either from the resolved target (named section) or an explicit
// folder name on the step.
func (e *Engine) placeInFolder(ec *execContext, page *store.Page, ref targetRef, folderName string) error {
	folderID := ref.folderID
	if name := ec.resolve(folderName); name != "" {
		f, err := e.ensureFolder(ref.notebookID, name, nil)
		if err != nil {
			return err
		}
		folderID = &f.ID
	}
	if folderID == nil {
		return nil
	}
	return e.Pages.MovePage(page.ID, ref.notebookID, folderID)
}

func (e *Engine) createNotebook(ec *execContext, step *schema.Step) error {
	name := ec.resolve(step.Name)
	if name == "" {
		return fmt.Errorf("notebook name is empty")
	}
	if _, err := e.Pages.NotebookByName(name); err == nil {
		return nil // already exists
	}
	nb, err := e.Pages.CreateNotebook(name, step.NotebookType)
	if err != nil {
		return fmt.Errorf("create notebook %q: %w", name, err)
	}
	ec.result.notebookCreated(nb.ID)
	return nil
}

func (e *Engine) createFolder(ec *execContext, step *schema.Step) error {
	name := ec.resolve(step.Name)
	if name == "" {
		return fmt.Errorf("folder name is empty")
	}
	var parentID *uuid.UUID
	if parent := ec.resolve(step.ParentFolderName); parent != "" {
		f, err := e.ensureFolder(ec.notebookID, parent, nil)
		if err != nil {
			return err
		}
		parentID = &f.ID
	}
	_, err := e.ensureFolder(ec.notebookID, name, parentID)
	return err
}

func (e *Engine) movePages(ec *execContext, step *schema.Step) error {
	pages, err := e.selectPages(ec, step.Source)
	if err != nil {
		return err
	}

	destNotebook := ec.notebookID
	if step.Destination != nil && step.Destination.NotebookName != "" {
		ref, err := e.resolveTarget(ec, &schema.NotebookTarget{
			Type:         schema.TargetNamedNotebook,
			NotebookName: step.Destination.NotebookName,
		})
		if err != nil {
			return err
		}
		destNotebook = ref.notebookID
	}
	var destFolder *uuid.UUID
	if step.Destination != nil && step.Destination.FolderName != "" {
		f, err := e.ensureFolder(destNotebook, ec.resolve(step.Destination.FolderName), nil)
		if err != nil {
			return err
		}
		destFolder = &f.ID
	}

	for _, p := range pages {
		if err := e.Pages.MovePage(p.ID, destNotebook, destFolder); err != nil {
			return fmt.Errorf("move page %q: %w", p.Title, err)
		}
		ec.result.pageModified(p.ID)
	}
	return nil
}

// archivePages marks every selected page archived, hiding it from
// future searches and selectors.
func (e *Engine) archivePages(ec *execContext, step *schema.Step) error {
	pages, err := e.selectPages(ec, step.Selector)
	if err != nil {
		return err
	}
	for _, p := range pages {
		p.Archived = true
		if err := e.Pages.UpdatePage(p); err != nil {
			return fmt.Errorf("archive page %q: %w", p.Title, err)
		}
		ec.result.pageModified(p.ID)
	}
	return nil
}

func (e *Engine) manageTags(ec *execContext, step *schema.Step) error {
	pages, err := e.selectPages(ec, step.Selector)
	if err != nil {
		return err
	}
	add := resolveAll(ec, step.AddTags)
	remove := resolveAll(ec, step.RemoveTags)

	for _, p := range pages {
		changed := false
		for _, tag := range add {
			if !containsFold(p.Tags, tag) {
				p.Tags = append(p.Tags, tag)
				changed = true
			}
		}
		if len(remove) > 0 {
			kept := p.Tags[:0]
			for _, tag := range p.Tags {
				if containsFold(remove, tag) {
					changed = true
					continue
				}
				kept = append(kept, tag)
			}
			p.Tags = kept
		}
		if !changed {
			continue
		}
		if err := e.Pages.UpdatePage(p); err != nil {
			return fmt.Errorf("update page %q: %w", p.Title, err)
		}
		ec.result.pageModified(p.ID)
	}
	return nil
}

// searchAndProcess fans the nested steps out over every matching page.
// Unlike the outer loop, a failure for one page is recorded and the
// remaining pages still get processed.
func (e *Engine) searchAndProcess(ctx context.Context, ec *execContext, step *schema.Step, path string) error {
	query := ec.resolve(step.Query)
	pages, err := e.Pages.Search(query, step.Limit)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}
	logger.Debug("searchAndProcess matched pages",
		zap.String("query", query),
		zap.Int("count", len(pages)))

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		child := ec.scoped()
		child.currentPage = page
		child.vars.Set("pageTitle", page.Title)
		child.vars.Set("pageId", page.ID.String())

		if err := e.runSteps(ctx, child, step.ProcessSteps, path+".process"); err != nil {
			ec.result.addError("page %q: %v", page.Title, err)
		}
	}
	return nil
}

func (e *Engine) delay(ctx context.Context, step *schema.Step) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(step.Seconds) * time.Second):
		return nil
	}
}

func (e *Engine) conditional(ctx context.Context, ec *execContext, step *schema.Step, path string) error {
	ok, err := e.evalCondition(ec, step.Condition)
	if err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	if ok {
		ec.tracker.SkipSubtree(path + ".else")
		return e.runSteps(ctx, ec, step.ThenSteps, path+".then")
	}
	ec.tracker.SkipSubtree(path + ".then")
	return e.runSteps(ctx, ec, step.ElseSteps, path+".else")
}

func (e *Engine) evalCondition(ec *execContext, c *schema.StepCondition) (bool, error) {
	if c == nil {
		return true, nil
	}
	switch c.Type {
	case schema.CondPagesExist, schema.CondPagesNotExist:
		pages, err := e.selectPages(ec, c.Selector)
		if err != nil {
			return false, err
		}
		exists := len(pages) > 0
		if c.Type == schema.CondPagesNotExist {
			return !exists, nil
		}
		return exists, nil

	case schema.CondDayOfWeek:
		today := strings.ToLower(ec.now.Weekday().String())
		for _, day := range c.Days {
			if strings.ToLower(day) == today {
				return true, nil
			}
		}
		return false, nil

	case schema.CondVariableEquals:
		return ec.vars[c.Name] == ec.resolve(c.Value), nil

	case schema.CondVariableNotEmpty:
		return strings.TrimSpace(ec.vars[c.Name]) != "", nil

	case schema.CondExpression:
		env := make(map[string]any, len(ec.vars))
		for k, v := range ec.vars {
			env[k] = v
		}
		program, err := expr.Compile(c.Expr, expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compile condition %q: %w", c.Expr, err)
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return false, fmt.Errorf("eval condition %q: %w", c.Expr, err)
		}
		result, ok := out.(bool)
		if !ok {
			return false, fmt.Errorf("condition %q did not return bool (got %T)", c.Expr, out)
		}
		return result, nil

	default:
		return false, fmt.Errorf("unknown condition type: %q", c.Type)
	}
}

func resolveAll(ec *execContext, in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = ec.resolve(s)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// instantiateBlocks clones template blocks with variable substitution
// applied to all text.
func instantiateBlocks(ec *execContext, blocks []store.Block) []store.Block {
	out := make([]store.Block, len(blocks))
	for i, b := range blocks {
		nb := b
		nb.ID = uuid.NewString()
		nb.Text = ec.resolve(b.Text)
		if len(b.Items) > 0 {
			nb.Items = make([]store.ChecklistItem, len(b.Items))
			for j, item := range b.Items {
				nb.Items[j] = store.ChecklistItem{Text: ec.resolve(item.Text), Checked: item.Checked}
			}
		}
		out[i] = nb
	}
	return out
}

// contentBlocks parses step content into page blocks. Blank lines separate
// blocks; lines starting with "# " become headers, "- [ ]"/"- [x]" lines
// checklists, "- " lines lists, everything else paragraphs.
func contentBlocks(content string) []store.Block {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	var blocks []store.Block
	for _, chunk := range strings.Split(content, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")

		switch {
		case strings.HasPrefix(lines[0], "#"):
			level := 0
			for level < len(lines[0]) && lines[0][level] == '#' {
				level++
			}
			blocks = append(blocks, store.NewHeader(strings.TrimSpace(lines[0][level:]), level))
			if rest := strings.TrimSpace(strings.Join(lines[1:], "\n")); rest != "" {
				blocks = append(blocks, contentBlocks(rest)...)
			}

		case strings.HasPrefix(lines[0], "- [ ]") || strings.HasPrefix(lines[0], "- [x]"):
			block := store.Block{ID: uuid.NewString(), Type: store.BlockChecklist}
			for _, line := range lines {
				line = strings.TrimSpace(line)
				checked := strings.HasPrefix(line, "- [x]")
				text := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "- [x]"), "- [ ]"))
				if text != "" {
					block.Items = append(block.Items, store.ChecklistItem{Text: text, Checked: checked})
				}
			}
			blocks = append(blocks, block)

		case strings.HasPrefix(lines[0], "- "):
			var items []string
			for _, line := range lines {
				if text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- ")); text != "" {
					items = append(items, text)
				}
			}
			blocks = append(blocks, store.NewList(items))

		default:
			blocks = append(blocks, store.NewParagraph(chunk))
		}
	}
	return blocks
}
