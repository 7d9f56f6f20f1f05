// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Up and Down move the selection.
	Up   key.Binding
	Down key.Binding

	// Insert opens the editor for a new formula after the selected cell.
	Insert key.Binding

	// Edit opens the editor on the selected cell.
	Edit key.Binding

	// Delete removes the selected cell.
	Delete key.Binding

	// Tool uses the tool of the provider that owns the selected cell.
	Tool key.Binding

	// MoveUp and MoveDown reorder the selected top-level cell.
	MoveUp   key.Binding
	MoveDown key.Binding

	// Reload reads the notebook again.
	Reload key.Binding

	// Submit applies the editor content.
	Submit key.Binding

	// Cancel closes the editor.
	Cancel key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Insert: key.NewBinding(
			key.WithKeys("i", "a"),
			key.WithHelp("i", "insert"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Tool: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tool"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// BrowseHelp returns the bindings shown while browsing cells.
func (k *KeyMap) BrowseHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Insert, k.Edit, k.Delete, k.Tool, k.MoveUp, k.MoveDown, k.Quit}
}

// EditHelp returns the bindings shown while the editor is open.
func (k *KeyMap) EditHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
