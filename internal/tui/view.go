package tui

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/blackwell-systems/ebookmeta/internal/template"
	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m Model) View() string {
	var title, body string
	var footer []ShortcutEntry

	switch m.state.Page {
	case wizard.PageHome:
		title, body, footer = m.viewHome()
	case wizard.PageSeriesCount:
		title, body, footer = m.viewCount()
	case wizard.PageFileSelection:
		title, body, footer = m.viewFiles()
	case wizard.PageBookData:
		title, body, footer = m.viewBookData()
	case wizard.PageLoading:
		title, body, footer = m.viewLoading()
	default:
		return ""
	}

	content := StyleHeader.Render(title) + "\n\n" + body
	return RenderWithFooter(content, footer, m.activeCmd)
}

// bodyHeight is the number of list rows that fit between header and footer.
func (m Model) bodyHeight(reserved int) int {
	return max(3, m.height-reserved)
}

func (m Model) innerWidth() int {
	return max(20, m.width-6)
}

func (m Model) viewHome() (string, string, []ShortcutEntry) {
	body := strings.Join([]string{
		"Batch-edit the title, sort title and series of EPUB books.",
		"",
		"Group books into series, choose a title format such as",
		StyleSeries.Render("  ${series} (${position}) - ${title}"),
		"and every archive is rewritten in place.",
	}, "\n")
	return "📚 ebookmeta", body, []ShortcutEntry{
		{Keys: m.keys.Enter.Keys(), Label: "enter start"},
		shortcut(m.keys.Quit),
	}
}

func (m Model) viewCount() (string, string, []ShortcutEntry) {
	count := StyleHighlight.Render(fmt.Sprintf("‹ %d ›", m.state.Count))
	body := "How many series do you want to edit?\n\n    " + count
	change := ShortcutEntry{
		Keys:  slices.Concat(m.keys.Left.Keys(), m.keys.Right.Keys(), m.keys.Up.Keys(), m.keys.Down.Keys()),
		Label: "←/→ change",
	}
	return "Series", body, append([]ShortcutEntry{change},
		ShortcutEntry{Keys: m.keys.Enter.Keys(), Label: "enter next"},
		shortcut(m.keys.Back),
		shortcut(m.keys.Quit),
	)
}

func (m Model) viewFiles() (string, string, []ShortcutEntry) {
	se, _ := m.state.Active()
	title := fmt.Sprintf("Series %d of %d: select books", m.state.Current+1, m.state.Count)

	body := renderPicker(se, m.innerWidth(), m.bodyHeight(10))
	selected := fmt.Sprintf("\n%d selected", len(se.Books))
	if len(se.Books) == 0 {
		selected += StyleHelp.Render(" · select at least one book to continue")
	}
	body += selected

	return title, body, append(
		shortcuts(m.keys.Toggle),
		ShortcutEntry{Keys: m.keys.Enter.Keys(), Label: "enter open/toggle"},
		shortcut(m.keys.Parent),
		shortcut(m.keys.Hidden),
		ShortcutEntry{Keys: m.keys.Cycle.Keys(), Label: "tab next"},
		shortcut(m.keys.Back),
		shortcut(m.keys.Quit),
	)
}

func (m Model) viewBookData() (string, string, []ShortcutEntry) {
	se, _ := m.state.Active()
	title := fmt.Sprintf("Series %d of %d: book data", m.state.Current+1, m.state.Count)

	field := func(label string, f wizard.Field, view string) string {
		style := StyleBorder
		if m.state.Field == f {
			style = StyleFocused
		}
		return StyleHelp.Render(label) + "\n" + style.Width(m.innerWidth()-4).Render(view)
	}

	var b strings.Builder
	b.WriteString(field("Series", wizard.FieldSeries, m.series.View()))
	b.WriteString("\n")
	b.WriteString(field("Format", wizard.FieldFormat, m.format.View()))
	b.WriteString("\n")
	b.WriteString(m.viewPreview(se))
	b.WriteString("\n\n")
	b.WriteString(field("Order", wizard.FieldBookOrder, m.viewTable(se)))

	footer := shortcuts(m.keys.Cycle)
	switch {
	case m.state.Editing:
		footer = append(footer, ShortcutEntry{Keys: m.keys.Enter.Keys(), Label: "enter done"})
	case m.state.Field == wizard.FieldBookOrder:
		footer = append(footer,
			shortcut(m.keys.Edit),
			ShortcutEntry{Keys: slices.Concat(m.keys.SwapUp.Keys(), m.keys.SwapDown.Keys()), Label: "shift+↑/↓ move"},
			ShortcutEntry{Keys: strings.Split("0123456789", ""), Label: "0-9 jump"},
			shortcut(m.keys.Remove),
		)
	default:
		footer = append(footer, ShortcutEntry{Keys: m.keys.Enter.Keys(), Label: "enter next"})
	}
	footer = append(footer, shortcut(m.keys.Back), shortcut(m.keys.Abort))
	return title, b.String(), footer
}

// viewPreview shows what the first book will be titled, or why the
// format cannot be used.
func (m Model) viewPreview(se wizard.Series) string {
	if len(se.Books) == 0 {
		return ""
	}
	t := se.FieldTable()
	row := min(se.Row, len(se.Books)-1)
	resolved, err := t.Fields(row).Resolve()
	if err != nil {
		return StyleError.Render(err.Error())
	}
	out := StyleHelp.Render("→ ") + StyleSeries.Render(ansi.Truncate(resolved, m.innerWidth()-4, "…"))
	if len(se.Books) > 1 && !distinguishesBooks(se.Format) {
		out += "\n" + StyleHighlight.Render("! every book in this series gets the same title")
	}
	return out
}

// distinguishesBooks reports whether format yields a different value per
// book, which needs ${position} or ${title}.
func distinguishesBooks(format string) bool {
	for _, name := range template.Placeholders(format) {
		if name == template.KeyPosition || name == template.KeyTitle {
			return true
		}
	}
	return false
}

func (m Model) viewTable(se wizard.Series) string {
	width := m.innerWidth() - 8
	focused := m.state.Field == wizard.FieldBookOrder

	cell := lipgloss.NewStyle().Padding(0, 1)
	var rows []string
	start, end := visibleRange(se.Row, len(se.Books), m.bodyHeight(18))
	for i := start; i < end; i++ {
		b := se.Books[i]
		pos := cell.Width(6).Render(template.FormatPosition(i))

		var text string
		if focused && m.state.Editing && i == se.Row {
			text = m.title.View()
		} else {
			text = ansi.Truncate(b.Title, width-10, "…")
			if text == "" {
				text = StyleHelp.Render(filepath.Base(b.Path))
			}
		}
		titleCell := cell.Render(text)

		if focused && i == se.Row {
			if se.Col == wizard.ColPosition {
				pos = StyleHighlight.Inherit(cell).Width(6).Render(template.FormatPosition(i))
			} else if !m.state.Editing {
				titleCell = StyleHighlight.Inherit(cell).Render(text)
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, pos, titleCell))
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewLoading() (string, string, []ShortcutEntry) {
	body := renderLoading(m.state, m.bar, m.innerWidth(), m.bodyHeight(12))
	footer := shortcuts(m.keys.Quit)
	if j, ok := m.state.CurrentJob(); ok && j.Err != "" && !j.Processed() {
		footer = append(shortcuts(m.keys.Skip, m.keys.Retry), footer...)
	}
	return "Rewriting", body, footer
}
