package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// tickMsg drives the batch while the loading page is shown.
type tickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newProgressBar() progress.Model {
	return progress.New(progress.WithDefaultGradient())
}

// renderLoading draws the progress bar, the job under the cursor and the
// outcome of every job so far.
func renderLoading(s wizard.State, bar progress.Model, width, height int) string {
	done, total := s.Progress()
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}

	var b strings.Builder
	b.WriteString(bar.ViewAs(percent))
	b.WriteString(fmt.Sprintf("\n%d / %d books\n\n", done, total))

	if total == 0 {
		b.WriteString(StyleHelp.Render("Nothing to do."))
		b.WriteString("\n")
		return b.String()
	}

	start, end := visibleRange(s.Cursor, total, height)
	for i := start; i < end; i++ {
		j := s.Jobs[i]
		name := ansi.Truncate(filepath.Base(j.Path), width-6, "…")

		switch {
		case j.Done:
			line := StyleSelected.Render("✓ ") + name
			if j.NewPath != "" && j.NewPath != j.Path {
				line += StyleHelp.Render(" → " + filepath.Base(j.NewPath))
			}
			b.WriteString(line)
		case j.Skipped:
			b.WriteString(StyleHelp.Render("- " + name + " (skipped)"))
		case j.Err != "":
			b.WriteString(StyleError.Render("✗ " + name))
			b.WriteString("\n  ")
			b.WriteString(StyleError.Render(ansi.Truncate(j.Err, width-4, "…")))
		case i == s.Cursor:
			b.WriteString(StyleHighlight.Render("› " + name))
		default:
			b.WriteString(StyleHelp.Render("  " + name))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if j, ok := s.CurrentJob(); ok && j.Err != "" && !j.Processed() {
		b.WriteString(StyleError.Render("Rewrite failed. Press s to skip or r to retry."))
	} else if s.Finished() {
		b.WriteString(StyleSelected.Render("All books processed. Press enter to exit."))
	}
	b.WriteString("\n")
	return b.String()
}
