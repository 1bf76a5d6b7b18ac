// Package main provides the inkwell-tui binary — Bubble Tea terminal UI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inkwell-notes/inkwell/pkg/ai"
	"github.com/inkwell-notes/inkwell/pkg/runtime"
	"github.com/inkwell-notes/inkwell/pkg/store"
	"github.com/inkwell-notes/inkwell/pkg/tui"
)

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
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--data" && i+1 < len(os.Args) {
			i++
			dir = os.Args[i]
		}
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

	model, err := tui.NewModel(tui.Config{Actions: actions, Engine: engine})
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetSend(p.Send)
	_, err = p.Run()
	return err
}
