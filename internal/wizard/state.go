package wizard

import "github.com/blackwell-systems/ebookmeta/internal/opf"

// Page identifies the screen the wizard is on.
type Page int

const (
	PageHome Page = iota
	PageSeriesCount
	PageFileSelection
	PageBookData
	PageLoading
	PageQuit
)

func (p Page) String() string {
	switch p {
	case PageHome:
		return "home"
	case PageSeriesCount:
		return "series-count"
	case PageFileSelection:
		return "file-selection"
	case PageBookData:
		return "book-data"
	case PageLoading:
		return "loading"
	case PageQuit:
		return "quit"
	}
	return "unknown"
}

// Field is the focused input on the book data page.
type Field int

const (
	FieldSeries Field = iota
	FieldFormat
	FieldBookOrder
)

// Next returns the field focused after f when cycling.
func (f Field) Next() Field {
	switch f {
	case FieldSeries:
		return FieldFormat
	case FieldFormat:
		return FieldBookOrder
	default:
		return FieldSeries
	}
}

func (f Field) String() string {
	switch f {
	case FieldSeries:
		return "series"
	case FieldFormat:
		return "format"
	case FieldBookOrder:
		return "order"
	}
	return "unknown"
}

// Order table columns.
const (
	ColPosition = 0
	ColTitle    = 1
)

// MinSeries and MaxSeries bound the number of series in one session.
const (
	MinSeries = 1
	MaxSeries = 127
)

// Book is one selected archive and the title it will be written with.
type Book struct {
	Path  string
	Title string
}

// Entry is one row of a directory listing.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

// Picker is the file browser state of one series.
type Picker struct {
	Dir        string
	Entries    []Entry
	Cursor     int
	ShowHidden bool
	ListErr    string
}

// Selected returns the entry under the cursor.
func (p Picker) Selected() (Entry, bool) {
	if p.Cursor < 0 || p.Cursor >= len(p.Entries) {
		return Entry{}, false
	}
	return p.Entries[p.Cursor], true
}

// Series is one batch of books sharing a name and a format.
type Series struct {
	Index        int
	Name         string
	Format       string
	Books        []Book
	Materialized bool

	// Order table cursor.
	Row int
	Col int

	Picker Picker
}

// Has reports whether path is selected in s.
func (s Series) Has(path string) bool {
	return s.indexOf(path) >= 0
}

func (s Series) indexOf(path string) int {
	for i, b := range s.Books {
		if b.Path == path {
			return i
		}
	}
	return -1
}

// FieldTable is the editable metadata of a series keyed by field kind.
// BookOrder and BookTitle always have the same length.
type FieldTable struct {
	Series    string
	Format    string
	BookOrder []string
	BookTitle []string
}

// FieldTable returns the field table view of s.
func (s Series) FieldTable() FieldTable {
	t := FieldTable{
		Series:    s.Name,
		Format:    s.Format,
		BookOrder: make([]string, len(s.Books)),
		BookTitle: make([]string, len(s.Books)),
	}
	for i, b := range s.Books {
		t.BookOrder[i] = b.Path
		t.BookTitle[i] = b.Title
	}
	return t
}

// Fields resolves the patch fields of the book at row.
func (t FieldTable) Fields(row int) opf.Fields {
	return opf.Fields{
		Series:   t.Series,
		Format:   t.Format,
		Title:    t.BookTitle[row],
		Position: row,
	}
}

// Job is one entry of the flattened work list.
type Job struct {
	Path   string
	Fields opf.Fields

	Done    bool
	NewPath string
	Err     string
	Skipped bool
}

// Processed reports whether the driver has nothing left to do for j.
func (j Job) Processed() bool {
	return j.Done || j.Skipped
}

// State is the whole wizard state. Values are never mutated in place by
// the machine; every transition works on a copy.
type State struct {
	Page    Page
	Current int
	Count   int
	Series  []Series

	Field   Field
	Editing bool

	Jobs   []Job
	Cursor int
}

// Active returns the series the current page operates on.
func (s State) Active() (Series, bool) {
	if s.Current < 0 || s.Current >= len(s.Series) {
		return Series{}, false
	}
	return s.Series[s.Current], true
}

// CurrentJob returns the job under the driver cursor.
func (s State) CurrentJob() (Job, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Jobs) {
		return Job{}, false
	}
	return s.Jobs[s.Cursor], true
}

// Progress returns the number of processed jobs and the total.
func (s State) Progress() (done, total int) {
	for _, j := range s.Jobs {
		if j.Processed() {
			done++
		}
	}
	return done, len(s.Jobs)
}

// Finished reports whether every job of the work list was processed.
func (s State) Finished() bool {
	if s.Page != PageLoading {
		return false
	}
	done, total := s.Progress()
	return done == total
}

// Completed returns the set of source paths rewritten successfully.
func (s State) Completed() map[string]bool {
	out := make(map[string]bool)
	for _, j := range s.Jobs {
		if j.Done {
			out[j.Path] = true
		}
	}
	return out
}

// Failed returns the error message of every job that failed and was not
// retried, keyed by source path.
func (s State) Failed() map[string]string {
	out := make(map[string]string)
	for _, j := range s.Jobs {
		if j.Err != "" {
			out[j.Path] = j.Err
		}
	}
	return out
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.Series != nil {
		out.Series = make([]Series, len(s.Series))
		for i, se := range s.Series {
			se.Books = append([]Book(nil), se.Books...)
			se.Picker.Entries = append([]Entry(nil), se.Picker.Entries...)
			out.Series[i] = se
		}
	}
	if s.Jobs != nil {
		out.Jobs = append([]Job(nil), s.Jobs...)
	}
	return out
}
