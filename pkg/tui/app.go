package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/inkwell-notes/inkwell/pkg/runtime"
	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"
)

// --- Tea messages ---

// stepEventMsg carries one engine progress event.
type stepEventMsg runtime.StepEvent

// runDoneMsg is sent when a run finishes.
type runDoneMsg struct {
	result *runtime.Result
	err    error
}

// actionsReloadedMsg refreshes the action list after a store change.
type actionsReloadedMsg []*schema.Action

// Config holds the dependencies needed to launch the TUI.
type Config struct {
	Actions *store.ActionStore
	Engine  *runtime.Engine
}

// Model is the top-level Bubble Tea model.
type Model struct {
	cfg     Config
	spinner spinner.Model

	actions []*schema.Action
	cursor  int

	// Run state
	running       bool
	showingResult bool
	steps         []runtime.FlatStep
	stepIndex     map[string]int
	result        *runtime.Result
	runErr        string

	// send delivers engine events into the Bubble Tea loop. Set via
	// SetSend before the program runs.
	send func(tea.Msg)

	width  int
	height int
}

// NewModel loads the action list and builds the initial model.
func NewModel(cfg Config) (*Model, error) {
	actions, err := cfg.Actions.List()
	if err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return &Model{cfg: cfg, spinner: sp, actions: actions}, nil
}

// SetSend wires the tea.Program's Send so engine callbacks can post
// messages from outside the update loop.
func (m *Model) SetSend(send func(tea.Msg)) { m.send = send }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepEventMsg:
		if i, ok := m.stepIndex[msg.Path]; ok {
			m.steps[i].Status = msg.Status
			m.steps[i].Error = msg.Error
		}
		return m, nil

	case runDoneMsg:
		m.running = false
		m.showingResult = true
		m.result = msg.result
		m.runErr = ""
		if msg.err != nil {
			m.runErr = msg.err.Error()
		}
		return m, nil

	case actionsReloadedMsg:
		m.actions = msg
		if m.cursor >= len(m.actions) {
			m.cursor = len(m.actions) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Back):
		if !m.running {
			m.showingResult = false
			m.result = nil
			m.runErr = ""
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		if !m.running && m.cursor > 0 {
			m.cursor--
			m.showingResult = false
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if !m.running && m.cursor < len(m.actions)-1 {
			m.cursor++
			m.showingResult = false
		}
		return m, nil

	case key.Matches(msg, keys.Toggle):
		if m.running || len(m.actions) == 0 {
			return m, nil
		}
		return m, m.toggleEnabled(m.actions[m.cursor])

	case key.Matches(msg, keys.Run):
		if m.running || len(m.actions) == 0 {
			return m, nil
		}
		return m, m.startRun(m.actions[m.cursor])
	}
	return m, nil
}

// startRun prebuilds the flat step list so progress shows a stable
// total, then executes the action off the update loop. Step events
// arrive through send; the final result comes back as runDoneMsg.
func (m *Model) startRun(action *schema.Action) tea.Cmd {
	m.running = true
	m.showingResult = false
	m.result = nil
	m.runErr = ""
	m.steps = runtime.NewTracker(action.Steps, nil).Steps()
	m.stepIndex = make(map[string]int, len(m.steps))
	for i, s := range m.steps {
		m.stepIndex[s.Path] = i
	}

	engine := m.cfg.Engine
	send := m.send
	run := func() tea.Msg {
		opts := runtime.RunOptions{}
		if send != nil {
			opts.OnStep = func(ev runtime.StepEvent) { send(stepEventMsg(ev)) }
		}
		result, err := engine.Execute(context.Background(), action, opts)
		return runDoneMsg{result: result, err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) toggleEnabled(action *schema.Action) tea.Cmd {
	actions := m.cfg.Actions
	return func() tea.Msg {
		enabled := !action.Enabled
		if _, err := actions.Update(action.ID, schema.ActionUpdate{Enabled: &enabled}); err != nil {
			return runDoneMsg{err: err}
		}
		refreshed, err := actions.List()
		if err != nil {
			return runDoneMsg{err: err}
		}
		return actionsReloadedMsg(refreshed)
	}
}

// --- View ---

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	header := headerStyle.Render("inkwell") + "  " +
		keyDescStyle.Render(fmt.Sprintf("%d actions", len(m.actions)))

	listWidth := m.width / 3
	if listWidth < 24 {
		listWidth = 24
	}
	detailWidth := m.width - listWidth - 6
	bodyHeight := m.height - 4

	left := panelBorder.Width(listWidth).Height(bodyHeight).
		Render(panelTitle.Render("Actions") + "\n" + m.viewList(listWidth-2, bodyHeight-2))
	right := panelBorder.Width(detailWidth).Height(bodyHeight).
		Render(m.viewDetail(detailWidth - 2))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	keyBar := keyBarStyle.Render(keyBarText(m.running, m.showingResult))
	return header + "\n" + body + "\n" + keyBar
}

func (m *Model) viewList(width, height int) string {
	var b strings.Builder
	for i, a := range m.actions {
		if i >= height {
			break
		}
		line := a.Name
		if !a.Enabled {
			line += " (off)"
		}
		line = runewidth.Truncate(line, width-2, "…")
		style := itemNormal
		if !a.Enabled {
			style = itemDisabled
		}
		if i == m.cursor {
			line = "▸ " + line
			style = itemSelected
		} else {
			line = "  " + line
		}
		b.WriteString(style.Render(line) + "\n")
	}
	if len(m.actions) == 0 {
		b.WriteString(itemDisabled.Render("  no actions installed"))
	}
	return b.String()
}

func (m *Model) viewDetail(width int) string {
	if m.running || m.showingResult {
		return m.viewProgress()
	}
	if len(m.actions) == 0 {
		return ""
	}
	a := m.actions[m.cursor]
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", a.Name)
	if a.Description != "" {
		fmt.Fprintf(&md, "%s\n\n", a.Description)
	}
	fmt.Fprintf(&md, "- category: %s\n", a.Category)
	for _, t := range a.Triggers {
		switch t.Type {
		case schema.TriggerAIChat:
			fmt.Fprintf(&md, "- chat keywords: %s\n", strings.Join(t.Keywords, ", "))
		case schema.TriggerScheduled:
			if t.Schedule != nil {
				fmt.Fprintf(&md, "- scheduled: %s at %s\n", t.Schedule.Type, t.Schedule.Time)
			}
		default:
			fmt.Fprintf(&md, "- trigger: %s\n", t.Type)
		}
	}
	fmt.Fprintf(&md, "- steps: %d\n", len(a.Steps))
	return renderMarkdown(md.String(), width)
}

func (m *Model) viewProgress() string {
	var b strings.Builder
	if m.running {
		b.WriteString(panelTitle.Render("Running") + " " + m.spinner.View() + "\n\n")
	} else {
		b.WriteString(panelTitle.Render("Result") + "\n\n")
	}
	for _, s := range m.steps {
		indent := strings.Repeat("  ", s.Depth)
		glyph, style := stepGlyph(s.Status)
		line := fmt.Sprintf("%s%s %s %s", indent, glyph, s.Path, s.Type)
		if s.Error != "" {
			line += ": " + s.Error
		}
		b.WriteString(style.Render(line) + "\n")
	}
	if m.runErr != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.runErr) + "\n")
	}
	if m.result != nil {
		b.WriteString("\n" + resultLine(m.result) + "\n")
		for _, e := range m.result.Errors {
			b.WriteString(errorStyle.Render("  ⚠ "+e) + "\n")
		}
	}
	return b.String()
}

func stepGlyph(status runtime.StepStatus) (string, lipgloss.Style) {
	switch status {
	case runtime.StepRunning:
		return GlyphRunning, stepRunning
	case runtime.StepSuccess:
		return GlyphPassed, stepPassed
	case runtime.StepFailed:
		return GlyphFailed, stepFailed
	case runtime.StepSkipped:
		return GlyphSkipped, stepSkipped
	default:
		return GlyphPending, stepPending
	}
}

func resultLine(r *runtime.Result) string {
	if r.Success {
		return statusPassedStyle.Render(fmt.Sprintf("✓ completed — %d/%d steps, %d page(s) created",
			r.StepsCompleted, r.StepsTotal, len(r.CreatedPages)))
	}
	return statusFailedStyle.Render(fmt.Sprintf("✗ failed — %d/%d steps", r.StepsCompleted, r.StepsTotal))
}
