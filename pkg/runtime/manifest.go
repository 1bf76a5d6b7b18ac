package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inkwell-notes/inkwell/pkg/vars"
)

// buildManifest converts a run result into its run.yaml form.
func buildManifest(result *Result, vc vars.Context, summary StepsSummary) *RunManifest {
	m := &RunManifest{
		RunID:        result.RunID,
		ActionID:     result.ActionID.String(),
		ActionName:   result.ActionName,
		StartedAt:    result.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:      result.CompletedAt.UTC().Format(time.RFC3339),
		Success:      result.Success,
		StepsSummary: summary,
		VarsResolved: vc,
		Errors:       result.Errors,
	}
	for _, id := range result.CreatedPages {
		m.CreatedPages = append(m.CreatedPages, id.String())
	}
	for _, id := range result.CreatedNotebooks {
		m.CreatedNotebooks = append(m.CreatedNotebooks, id.String())
	}
	for _, id := range result.ModifiedPages {
		m.ModifiedPages = append(m.ModifiedPages, id.String())
	}
	return m
}

// writeManifest writes run.yaml under <BaseDir>/runs/<run_id>/.
func (e *Engine) writeManifest(result *Result, vc vars.Context, summary StepsSummary) error {
	dir := filepath.Join(e.BaseDir, "runs", result.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	data, err := yaml.Marshal(buildManifest(result, vc, summary))
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
