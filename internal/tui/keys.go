package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit    key.Binding
	New     key.Binding
	Open    key.Binding
	Refresh key.Binding
	Back    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Submit  key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
}

// hintLine renders "key action · key action" for the given bindings.
func hintLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return hintStyle.Render(strings.Join(parts, " · "))
}
