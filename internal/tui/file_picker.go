package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// FSLister lists directories and EPUB archives on the local file system.
type FSLister struct {
	// Extensions are the lower-case file extensions shown. Defaults to .epub.
	Extensions []string
}

func (l FSLister) accepts(name string) bool {
	exts := l.Extensions
	if len(exts) == 0 {
		exts = []string{".epub"}
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// List returns the subdirectories of dir followed by its archives, each
// group sorted by name. Hidden entries are skipped unless showHidden.
// Only regular files count as archives; pipes, devices and dangling links
// are left out.
func (l FSLister) List(dir string, showHidden bool) ([]wizard.Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs, files []wizard.Entry
	for _, entry := range entries {
		name := entry.Name()
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			// Follow links so linked library folders can be browsed.
			if st, err := os.Stat(fullPath); err == nil {
				isDir = st.IsDir()
				info = st
			}
		}

		item := wizard.Entry{Name: name, Path: fullPath, IsDir: isDir, Size: info.Size()}
		if isDir {
			dirs = append(dirs, item)
		} else if info.Mode().IsRegular() && l.accepts(name) {
			files = append(files, item)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return append(dirs, files...), nil
}

// renderPicker draws the listing of the active series with a scrolling
// window of at most height rows.
func renderPicker(se wizard.Series, width, height int) string {
	p := se.Picker
	var b strings.Builder

	b.WriteString(StyleHelp.Render(ansi.Truncate(p.Dir, width, "…")))
	b.WriteString("\n\n")

	if p.ListErr != "" {
		b.WriteString(StyleError.Render(ansi.Truncate("cannot list directory: "+p.ListErr, width, "…")))
		b.WriteString("\n")
		return b.String()
	}
	if len(p.Entries) == 0 {
		b.WriteString(StyleHelp.Render("  (no folders or .epub files here)"))
		b.WriteString("\n")
		return b.String()
	}

	start, end := visibleRange(p.Cursor, len(p.Entries), height)
	for i := start; i < end; i++ {
		e := p.Entries[i]

		var prefix, name, size string
		switch {
		case e.IsDir:
			prefix = "  "
			name = "📁 " + e.Name + "/"
		case se.Has(e.Path):
			prefix = StyleSelected.Render("✓ ")
			name = "📄 " + e.Name
			size = humanize.Bytes(uint64(e.Size))
		default:
			prefix = "  "
			name = "📄 " + e.Name
			size = humanize.Bytes(uint64(e.Size))
		}

		nameWidth := width - 4 - len(size) - 1
		if nameWidth < 8 {
			nameWidth = 8
		}
		line := ansi.Truncate(name, nameWidth, "…")
		line += strings.Repeat(" ", max(1, nameWidth-ansi.StringWidth(line)+1)) + StyleHelp.Render(size)

		if i == p.Cursor {
			b.WriteString(StyleHighlight.Render("› ") + prefix + StyleHighlight.Render(line))
		} else {
			b.WriteString("  " + prefix + StyleNormal.Render(line))
		}
		b.WriteString("\n")
	}
	if end-start < len(p.Entries) {
		b.WriteString(StyleHelp.Render(fmt.Sprintf("  %d/%d", p.Cursor+1, len(p.Entries))))
		b.WriteString("\n")
	}
	return b.String()
}

// visibleRange returns the window [start, end) of n rows that keeps cursor
// in view when at most height rows fit.
func visibleRange(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
