// Package mcp exposes the action engine to AI agents over the Model
// Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/inkwell-notes/inkwell/pkg/runtime"
	"github.com/inkwell-notes/inkwell/pkg/store"
)

// Deps are the application services the MCP tools operate on.
type Deps struct {
	Actions *store.ActionStore
	Engine  *runtime.Engine
}

// NewServer creates an MCP server with the inkwell tools registered.
func NewServer(version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"inkwell",
		version,
		server.WithToolCapabilities(true),
	)
	h := &handlers{deps: deps}

	s.AddTool(
		mcp.NewTool("inkwell/list_actions",
			mcp.WithDescription("List automation actions, optionally filtered by category"),
			mcp.WithString("category", mcp.Description("Filter by category: agileResults, dailyRoutines, weeklyReviews, organization, custom")),
		),
		h.listActions,
	)

	s.AddTool(
		mcp.NewTool("inkwell/run_action",
			mcp.WithDescription("Run an action by name or id and return the execution result"),
			mcp.WithString("action", mcp.Required(), mcp.Description("Action name or UUID")),
		),
		h.runAction,
	)

	s.AddTool(
		mcp.NewTool("inkwell/match_actions",
			mcp.WithDescription("Find enabled actions whose chat keywords match the given text"),
			mcp.WithString("input", mcp.Required(), mcp.Description("Chat text to match against action keywords")),
		),
		h.matchActions,
	)

	s.AddTool(
		mcp.NewTool("inkwell/validate",
			mcp.WithDescription("Validate an action definition JSON file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the action JSON file")),
		),
		h.validate,
	)

	s.AddTool(
		mcp.NewTool("inkwell/schema",
			mcp.WithDescription("Export the action definition JSON Schema"),
		),
		h.schema,
	)

	return s
}
