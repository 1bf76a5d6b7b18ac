// Package main provides the inkwell-mcp binary — MCP server for AI agents.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkwell-notes/inkwell/pkg/ai"
	imcp "github.com/inkwell-notes/inkwell/pkg/mcp"
	"github.com/inkwell-notes/inkwell/pkg/runtime"
	"github.com/inkwell-notes/inkwell/pkg/store"
	"github.com/mark3labs/mcp-go/server"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := os.Getenv("INKWELL_DATA")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".inkwell")
	}
	actions, err := store.NewActionStore(filepath.Join(dir, "actions"))
	if err != nil {
		return fmt.Errorf("open action store: %w", err)
	}
	if err := actions.EnsureBuiltIns(); err != nil {
		return fmt.Errorf("install built-in actions: %w", err)
	}
	pages, err := store.OpenFilePageStore(filepath.Join(dir, "pages.json"))
	if err != nil {
		return fmt.Errorf("open page store: %w", err)
	}

	var summarizer ai.Summarizer
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		summarizer, err = ai.NewAnthropicSummarizer(key, os.Getenv("INKWELL_MODEL"))
		if err != nil {
			return err
		}
	}
	engine := runtime.NewEngine(actions, pages, summarizer)
	engine.BaseDir = dir

	s := imcp.NewServer(version, imcp.Deps{Actions: actions, Engine: engine})
	return server.ServeStdio(s)
}
