// Package opf locates and rewrites the title and series fields of an EPUB
// package document (content.opf) without re-serialising it.
//
// The document is walked with an encoding/xml token stream to find the
// byte ranges of each target; only those ranges are spliced, so every
// other byte of the document is preserved exactly.
package opf

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/blackwell-systems/ebookmeta/internal/template"
)

// Calibre meta names rewritten alongside the title.
const (
	MetaTitleSort   = "calibre:title_sort"
	MetaSeries      = "calibre:series"
	MetaSeriesIndex = "calibre:series_index"
)

// Fields is the resolved field table for one book.
type Fields struct {
	Series   string `yaml:"series"`
	Format   string `yaml:"format,omitempty"`
	Title    string `yaml:"title"`
	Position int    `yaml:"position"` // 0-based order within the series
}

// Values returns the placeholder table for f.
func (f Fields) Values() map[string]string {
	return template.BookValues(f.Series, f.Title, f.Position)
}

// Resolve substitutes f's placeholders into its format.
func (f Fields) Resolve() (string, error) {
	return template.Substitute(f.Format, f.Values())
}

// Metadata is what Read finds in a package document.
type Metadata struct {
	Title       string
	TitleSort   string
	Series      string
	SeriesIndex string
	Creators    []string
}

// Report lists which rewrite targets exist in a document. A missing target
// is not an error; Patch leaves it alone.
type Report struct {
	Title       bool
	TitleSort   bool
	Series      bool
	SeriesIndex bool
}

// Missing returns the names of absent targets.
func (r Report) Missing() []string {
	var out []string
	if !r.Title {
		out = append(out, "dc:title")
	}
	if !r.TitleSort {
		out = append(out, MetaTitleSort)
	}
	if !r.Series {
		out = append(out, MetaSeries)
	}
	if !r.SeriesIndex {
		out = append(out, MetaSeriesIndex)
	}
	return out
}

type span struct {
	start, end int
	found      bool
	attr       byte // quote character when the span is an attribute value
}

type document struct {
	title       span
	titleSort   span
	series      span
	seriesIndex span
	meta        Metadata
}

var contentAttr = regexp.MustCompile(`\scontent\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// scan walks doc once. Syntax errors end the walk; whatever was located
// before the error is still reported.
func scan(doc []byte) document {
	var out document

	d := xml.NewDecoder(bytes.NewReader(doc))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	// Bytes pass through whatever the declared encoding, so InputOffset
	// stays aligned with doc. Every target tag is ASCII.
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	inMetadata := false
	for {
		before := int(d.InputOffset())
		tok, err := d.Token()
		if err != nil {
			return out
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := strings.ToLower(t.Name.Local)
			switch {
			case local == "metadata":
				inMetadata = true

			case inMetadata && local == "title":
				start := int(d.InputOffset())
				text, end, ok := readElement(d)
				if !ok {
					return out
				}
				if out.title.found || bytes.HasSuffix(doc[:start], []byte("/>")) {
					continue
				}
				out.title = span{start: start, end: end, found: true}
				out.meta.Title = strings.TrimSpace(text)

			case inMetadata && local == "creator":
				text, _, ok := readElement(d)
				if !ok {
					return out
				}
				if s := strings.TrimSpace(text); s != "" {
					out.meta.Creators = append(out.meta.Creators, s)
				}

			case inMetadata && local == "meta":
				var target *span
				var value *string
				switch attr(t, "name") {
				case MetaTitleSort:
					target, value = &out.titleSort, &out.meta.TitleSort
				case MetaSeries:
					target, value = &out.series, &out.meta.Series
				case MetaSeriesIndex:
					target, value = &out.seriesIndex, &out.meta.SeriesIndex
				}
				if target == nil || target.found {
					continue
				}
				raw := doc[before:d.InputOffset()]
				if s, ok := attrSpan(raw); ok {
					s.start += before
					s.end += before
					*target = s
					*value = attr(t, "content")
				}
			}

		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, "metadata") {
				inMetadata = false
			}
		}
	}
}

// readElement consumes tokens up to the end tag matching an already read
// start tag. It returns the element's character data and the offset at
// which the end tag begins.
func readElement(d *xml.Decoder) (string, int, bool) {
	var text strings.Builder
	depth := 1
	for {
		off := int(d.InputOffset())
		tok, err := d.Token()
		if err != nil {
			return "", 0, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return text.String(), off, true
			}
		case xml.CharData:
			text.Write(t)
		}
	}
}

func attrSpan(raw []byte) (span, bool) {
	m := contentAttr.FindSubmatchIndex(raw)
	if m == nil {
		return span{}, false
	}
	if m[2] >= 0 {
		return span{start: m[2], end: m[3], found: true, attr: '"'}, true
	}
	return span{start: m[4], end: m[5], found: true, attr: '\''}, true
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Inspect reports which rewrite targets doc contains.
func Inspect(doc []byte) Report {
	d := scan(doc)
	return Report{
		Title:       d.title.found,
		TitleSort:   d.titleSort.found,
		Series:      d.series.found,
		SeriesIndex: d.seriesIndex.found,
	}
}

// Read extracts title, sort title, series fields and creators from doc.
func Read(doc []byte) Metadata {
	return scan(doc).meta
}

var (
	textEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	dquoteEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
	squoteEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", "'", "&apos;")
)

func escape(s span, value string) string {
	switch s.attr {
	case '"':
		return dquoteEscaper.Replace(value)
	case '\'':
		return squoteEscaper.Replace(value)
	default:
		return textEscaper.Replace(value)
	}
}

type splice struct {
	span
	value string
}

// Patch rewrites the title and sort title of doc to the resolved format of
// f, and the series name and index when those metas exist. A Fields with
// no format leaves doc untouched. Template errors are returned as is.
func Patch(doc []byte, f Fields) ([]byte, error) {
	if f.Format == "" {
		return doc, nil
	}
	resolved, err := f.Resolve()
	if err != nil {
		return nil, err
	}

	d := scan(doc)
	edits := []splice{
		{d.title, resolved},
		{d.titleSort, resolved},
		{d.series, f.Series},
		{d.seriesIndex, strconv.Itoa(f.Position + 1)},
	}

	// Apply back to front so earlier offsets stay valid.
	out := doc
	for {
		idx := -1
		for i, e := range edits {
			if e.found && (idx < 0 || e.start > edits[idx].start) {
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		e := edits[idx]
		edits[idx].found = false

		var b bytes.Buffer
		b.Grow(len(out) + len(e.value))
		b.Write(out[:e.start])
		b.WriteString(escape(e.span, e.value))
		b.Write(out[e.end:])
		out = b.Bytes()
	}
	return out, nil
}
