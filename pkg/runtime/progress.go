package runtime

import (
	"fmt"
	"strings"

	"github.com/inkwell-notes/inkwell/pkg/schema"
)

// FlatStep is one entry in the flattened progress list. Path addresses the
// step within the tree: "0", "2.then.1", "3.process.0".
type FlatStep struct {
	Path   string
	Type   schema.StepType
	Depth  int
	Status StepStatus
	Error  string
}

// StepEvent is emitted whenever a step changes status.
type StepEvent struct {
	Path   string
	Type   schema.StepType
	Status StepStatus
	Error  string
}

// Tracker holds the flattened step list for one run. The whole tree is
// flattened up front so progress shows a stable total; branch steps that
// end up not taken are marked skipped rather than removed.
type Tracker struct {
	steps   []FlatStep
	index   map[string]int
	onEvent func(StepEvent)
}

// NewTracker flattens the step tree depth-first and returns a tracker with
// every step pending. onEvent may be nil.
func NewTracker(steps []schema.Step, onEvent func(StepEvent)) *Tracker {
	t := &Tracker{index: make(map[string]int), onEvent: onEvent}
	t.flatten(steps, "", 0)
	return t
}

func (t *Tracker) flatten(steps []schema.Step, prefix string, depth int) {
	for i, s := range steps {
		path := fmt.Sprintf("%d", i)
		if prefix != "" {
			path = fmt.Sprintf("%s.%d", prefix, i)
		}
		t.index[path] = len(t.steps)
		t.steps = append(t.steps, FlatStep{Path: path, Type: s.Type, Depth: depth, Status: StepPending})

		switch s.Type {
		case schema.StepConditional:
			t.flatten(s.ThenSteps, path+".then", depth+1)
			t.flatten(s.ElseSteps, path+".else", depth+1)
		case schema.StepSearchAndProcess:
			t.flatten(s.ProcessSteps, path+".process", depth+1)
		}
	}
}

// Len returns the number of flattened steps.
func (t *Tracker) Len() int { return len(t.steps) }

// Steps returns a copy of the progress list.
func (t *Tracker) Steps() []FlatStep {
	out := make([]FlatStep, len(t.steps))
	copy(out, t.steps)
	return out
}

// Mark sets the status of the step at path.
func (t *Tracker) Mark(path string, status StepStatus, errMsg string) {
	i, ok := t.index[path]
	if !ok {
		return
	}
	t.steps[i].Status = status
	t.steps[i].Error = errMsg
	if t.onEvent != nil {
		t.onEvent(StepEvent{Path: path, Type: t.steps[i].Type, Status: status, Error: errMsg})
	}
}

// SkipSubtree marks every pending step under the given branch prefix as
// skipped. Used for the untaken side of a conditional.
func (t *Tracker) SkipSubtree(prefix string) {
	for i := range t.steps {
		if !strings.HasPrefix(t.steps[i].Path, prefix+".") && t.steps[i].Path != prefix {
			continue
		}
		if t.steps[i].Status != StepPending {
			continue
		}
		t.steps[i].Status = StepSkipped
		if t.onEvent != nil {
			t.onEvent(StepEvent{Path: t.steps[i].Path, Type: t.steps[i].Type, Status: StepSkipped})
		}
	}
}

// SkipRemaining marks every still-pending step as skipped. Called after a
// failure stops the run.
func (t *Tracker) SkipRemaining() {
	for i := range t.steps {
		if t.steps[i].Status != StepPending {
			continue
		}
		t.steps[i].Status = StepSkipped
		if t.onEvent != nil {
			t.onEvent(StepEvent{Path: t.steps[i].Path, Type: t.steps[i].Type, Status: StepSkipped})
		}
	}
}

// Summary counts steps by status.
func (t *Tracker) Summary() StepsSummary {
	var s StepsSummary
	s.Total = len(t.steps)
	for _, step := range t.steps {
		switch step.Status {
		case StepSuccess:
			s.Passed++
		case StepFailed:
			s.Failed++
		case StepSkipped:
			s.Skipped++
		}
	}
	return s
}

// Completed counts successfully finished steps.
func (t *Tracker) Completed() int {
	n := 0
	for _, step := range t.steps {
		if step.Status == StepSuccess {
			n++
		}
	}
	return n
}
