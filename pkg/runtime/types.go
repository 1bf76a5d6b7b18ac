// Package runtime executes actions: it resolves variables, walks the step
// tree, tracks progress, and records what each run touched.
package runtime

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateRunID creates a run ID in format YYYYMMDDTHHmmss-xxxx.
func GenerateRunID() string {
	ts := time.Now().Format("20060102T150405")
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%x", ts, suffix)
}

// StepStatus is the execution state of one step in the progress list.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// Result records what a single action run did. It is returned to the
// caller and serialized into the run manifest.
type Result struct {
	RunID            string      `json:"runId"`
	ActionID         uuid.UUID   `json:"actionId"`
	ActionName       string      `json:"actionName"`
	StartedAt        time.Time   `json:"startedAt"`
	CompletedAt      time.Time   `json:"completedAt"`
	Success          bool        `json:"success"`
	StepsCompleted   int         `json:"stepsCompleted"`
	StepsTotal       int         `json:"stepsTotal"`
	CreatedPages     []uuid.UUID `json:"createdPages,omitempty"`
	CreatedNotebooks []uuid.UUID `json:"createdNotebooks,omitempty"`
	ModifiedPages    []uuid.UUID `json:"modifiedPages,omitempty"`
	Errors           []string    `json:"errors,omitempty"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) pageCreated(id uuid.UUID) {
	r.CreatedPages = append(r.CreatedPages, id)
}

func (r *Result) notebookCreated(id uuid.UUID) {
	r.CreatedNotebooks = append(r.CreatedNotebooks, id)
}

func (r *Result) pageModified(id uuid.UUID) {
	for _, existing := range r.ModifiedPages {
		if existing == id {
			return
		}
	}
	r.ModifiedPages = append(r.ModifiedPages, id)
}

// RunManifest is the run.yaml written to the run artifacts directory after
// an action run completes (or fails).
type RunManifest struct {
	RunID            string            `yaml:"run_id"`
	ActionID         string            `yaml:"action_id"`
	ActionName       string            `yaml:"action_name"`
	StartedAt        string            `yaml:"started_at"`
	EndedAt          string            `yaml:"ended_at"`
	Success          bool              `yaml:"success"`
	StepsSummary     StepsSummary      `yaml:"steps_summary"`
	VarsResolved     map[string]string `yaml:"vars_resolved,omitempty"`
	CreatedPages     []string          `yaml:"created_pages,omitempty"`
	CreatedNotebooks []string          `yaml:"created_notebooks,omitempty"`
	ModifiedPages    []string          `yaml:"modified_pages,omitempty"`
	Errors           []string          `yaml:"errors,omitempty"`
}

// StepsSummary counts step results by status.
type StepsSummary struct {
	Total   int `yaml:"total"`
	Passed  int `yaml:"passed"`
	Failed  int `yaml:"failed"`
	Skipped int `yaml:"skipped"`
}
