package epub

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tabula/epubdoc"
)

// Info is the display metadata declared by an archive.
type Info struct {
	Path    string
	Title   string
	Authors []string
	Size    int64
}

// ReadInfo reads the declared title and authors of the EPUB at path.
func ReadInfo(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, ioErr("stat", path, err)
	}

	r, err := epubdoc.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	md := r.Metadata()
	return Info{
		Path:    path,
		Title:   md.Title,
		Authors: md.Creator,
		Size:    st.Size(),
	}, nil
}

// DeclaredTitle returns the archive's own title, or the file name without
// extension when the archive cannot be read or declares none.
func DeclaredTitle(path string) string {
	if info, err := ReadInfo(path); err == nil && strings.TrimSpace(info.Title) != "" {
		return strings.TrimSpace(info.Title)
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
