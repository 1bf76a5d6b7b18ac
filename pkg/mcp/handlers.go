package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/inkwell-notes/inkwell/pkg/runtime"
	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/trigger"
)

type handlers struct {
	deps Deps
}

// actionSummary is the compact listing shape returned to agents.
type actionSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Enabled     bool     `json:"enabled"`
	IsBuiltIn   bool     `json:"isBuiltIn"`
	Steps       int      `json:"steps"`
	Keywords    []string `json:"keywords,omitempty"`
}

func summarize(a *schema.Action) actionSummary {
	s := actionSummary{
		ID:          a.ID.String(),
		Name:        a.Name,
		Description: a.Description,
		Category:    string(a.Category),
		Enabled:     a.Enabled,
		IsBuiltIn:   a.IsBuiltIn,
		Steps:       len(a.Steps),
	}
	for _, t := range a.Triggers {
		if t.Type == schema.TriggerAIChat {
			s.Keywords = append(s.Keywords, t.Keywords...)
		}
	}
	return s
}

func (h *handlers) listActions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	category, _ := args["category"].(string)

	actions, err := h.deps.Actions.List()
	if err != nil {
		return errorResult(err.Error()), nil
	}

	var out []actionSummary
	for _, a := range actions {
		if category != "" && string(a.Category) != category {
			continue
		}
		out = append(out, summarize(a))
	}
	return jsonResult(out, false), nil
}

func (h *handlers) runAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, _ := args["action"].(string)
	if ref == "" {
		return errorResult("action argument is required"), nil
	}

	action, err := h.lookup(ref)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	opts := runtime.RunOptions{}
	if rawVars, ok := args["vars"].(map[string]any); ok {
		opts.UserInput = make(map[string]string, len(rawVars))
		for k, v := range rawVars {
			opts.UserInput[k] = fmt.Sprint(v)
		}
	}

	result, runErr := h.deps.Engine.Execute(ctx, action, opts)
	if runErr != nil && result == nil {
		return errorResult(runErr.Error()), nil
	}
	return jsonResult(result, !result.Success), nil
}

func (h *handlers) matchActions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	input, _ := args["input"].(string)
	if input == "" {
		return errorResult("input argument is required"), nil
	}

	actions, err := h.deps.Actions.List()
	if err != nil {
		return errorResult(err.Error()), nil
	}

	var out []actionSummary
	for _, m := range trigger.FromChat(actions, input) {
		out = append(out, summarize(m.Action))
	}
	return jsonResult(out, false), nil
}

func (h *handlers) validate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	action, errs := schema.ValidateFile(path)
	if hasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d steps)", action.Name, len(action.Steps))), nil
}

func (h *handlers) schema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// lookup resolves an action reference that is either a UUID or a name.
func (h *handlers) lookup(ref string) (*schema.Action, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return h.deps.Actions.Get(id)
	}
	return h.deps.Actions.FindByName(ref)
}

func hasErrors(errs []*schema.ValidationError) bool {
	for _, e := range errs {
		if e.Severity != "warning" {
			return true
		}
	}
	return false
}

func formatErrors(errs []*schema.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity != "warning" {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", e.Phase, e.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonResult(v any, isErr bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(msg)},
		IsError: true,
	}
}
