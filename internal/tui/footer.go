package tui

import (
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ClearActiveCmdMsg clears the active command highlight in the footer.
type ClearActiveCmdMsg struct{}

// ShortcutEntry is one label in the footer. It lights up while the last
// key pressed is one of Keys.
type ShortcutEntry struct {
	Keys  []string
	Label string
}

// shortcut builds a footer entry from a binding's keys and help text.
func shortcut(b key.Binding) ShortcutEntry {
	h := b.Help()
	return ShortcutEntry{Keys: b.Keys(), Label: h.Key + " " + h.Desc}
}

// shortcuts builds footer entries for bindings, in order.
func shortcuts(bindings ...key.Binding) []ShortcutEntry {
	out := make([]ShortcutEntry, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, shortcut(b))
	}
	return out
}

// HighlightCmd returns a 500ms tick command to clear the active command highlight.
// Callers set activeCmd on the model before returning:
//
//	m.activeCmd = msg.String()
//	return m, HighlightCmd()
func HighlightCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return ClearActiveCmdMsg{}
	})
}

// RenderFooterBar renders the shortcut labels on one line. The entry whose
// keys contain activeCmd is highlighted; the others are dim.
func RenderFooterBar(entries []ShortcutEntry, activeCmd string) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	parts := make([]string, len(entries))
	for i, sc := range entries {
		if activeCmd != "" && slices.Contains(sc.Keys, activeCmd) {
			parts[i] = StyleHighlight.Render("[ " + sc.Label + " ]")
			continue
		}
		parts[i] = dim.Render(sc.Label)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, dim.Render(" • ")))
}

// RenderWithFooter wraps a page body in a border and appends the footer bar.
func RenderWithFooter(body string, entries []ShortcutEntry, activeCmd string) string {
	return StyleBorder.Render(body) + "\n" + RenderFooterBar(entries, activeCmd)
}
