package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Run    key.Binding
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Back   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Run: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "enable/disable"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// keyBarText renders the context-sensitive key hint string.
func keyBarText(running bool, showingResult bool) string {
	if running {
		return keyStyle.Render("q") + keyDescStyle.Render(":quit")
	}
	if showingResult {
		return keyStyle.Render("Esc") + keyDescStyle.Render(":back") + "  " +
			keyStyle.Render("enter") + keyDescStyle.Render(":run again") + "  " +
			keyStyle.Render("q") + keyDescStyle.Render(":quit")
	}
	return keyStyle.Render("enter") + keyDescStyle.Render(":run") + "  " +
		keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
		keyStyle.Render("e") + keyDescStyle.Render(":enable/disable") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit")
}
