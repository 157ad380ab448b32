// Package wizard holds the page state machine of the metadata wizard and
// the driver that works through the resulting list of archives.
//
// Machine.Update is a pure reducer: it never mutates the state it is
// given and performs no I/O other than through its injected Lister and
// TitleReader.
package wizard

import (
	"fmt"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Lister lists the directories and archives under dir.
type Lister interface {
	List(dir string, showHidden bool) ([]Entry, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(dir string, showHidden bool) ([]Entry, error)

func (f ListerFunc) List(dir string, showHidden bool) ([]Entry, error) {
	return f(dir, showHidden)
}

// TitleReader returns the title an archive declares for itself.
type TitleReader interface {
	DeclaredTitle(path string) string
}

// TitleReaderFunc adapts a function to TitleReader.
type TitleReaderFunc func(path string) string

func (f TitleReaderFunc) DeclaredTitle(path string) string { return f(path) }

// Defaults seed new series.
type Defaults struct {
	Format      string
	SeriesName  string
	SeriesCount int
	StartDir    string
}

// Machine applies events to wizard states.
type Machine struct {
	Lister   Lister
	Titles   TitleReader
	Defaults Defaults
}

// New returns a machine using the given collaborators.
func New(l Lister, t TitleReader, d Defaults) *Machine {
	return &Machine{Lister: l, Titles: t, Defaults: d}
}

// Init returns the state the wizard starts in.
func (m *Machine) Init() State {
	return State{
		Page:  PageHome,
		Count: clampCount(m.Defaults.SeriesCount),
	}
}

// Update returns the state that results from applying ev to s.
func (m *Machine) Update(s State, ev Event) State {
	s = s.Clone()

	if _, ok := ev.(Quit); ok {
		s.Page = PageQuit
		s.Editing = false
		return s
	}

	switch s.Page {
	case PageHome:
		if _, ok := ev.(Next); ok {
			s.Page = PageSeriesCount
		}
	case PageSeriesCount:
		return m.seriesCount(s, ev)
	case PageFileSelection:
		if _, ok := s.Active(); ok {
			return m.fileSelection(s, ev)
		}
	case PageBookData:
		if _, ok := s.Active(); ok {
			return m.bookData(s, ev)
		}
	case PageLoading:
		return loading(s, ev)
	}
	return s
}

func (m *Machine) seriesCount(s State, ev Event) State {
	switch ev := ev.(type) {
	case AdjustCount:
		s.Count = clampCount(s.Count + ev.Delta)
	case Back:
		s.Page = PageHome
	case Next:
		for i := len(s.Series); i < s.Count; i++ {
			s.Series = append(s.Series, m.newSeries(i))
		}
		s.Current = 0
		s.Page = PageFileSelection
	}
	return s
}

func (m *Machine) newSeries(i int) Series {
	se := Series{Index: i, Col: ColTitle}
	se.Picker = m.list(Picker{Dir: m.Defaults.StartDir})
	return se
}

func (m *Machine) fileSelection(s State, ev Event) State {
	se := &s.Series[s.Current]
	p := &se.Picker

	switch ev := ev.(type) {
	case Back:
		if s.Current > 0 {
			s.Current--
		} else {
			s.Page = PageSeriesCount
		}
	case Next:
		if len(se.Books) == 0 {
			return s
		}
		m.materialize(se)
		if s.Current < s.Count-1 {
			s.Current++
		} else {
			s.Current = 0
			s.Field = FieldSeries
			s.Page = PageBookData
		}
	case PickerMove:
		p.Cursor = clamp(p.Cursor+ev.Delta, 0, len(p.Entries)-1)
	case PickerEnter:
		e, ok := p.Selected()
		if !ok {
			return s
		}
		if e.IsDir {
			*p = m.list(Picker{Dir: e.Path, ShowHidden: p.ShowHidden})
		} else {
			toggle(se, e.Path)
		}
	case PickerToggle:
		if e, ok := p.Selected(); ok && !e.IsDir {
			toggle(se, e.Path)
		}
	case PickerParent:
		parent := filepath.Dir(p.Dir)
		if parent == p.Dir {
			return s
		}
		prev := p.Dir
		*p = m.list(Picker{Dir: parent, ShowHidden: p.ShowHidden})
		for i, e := range p.Entries {
			if e.Path == prev {
				p.Cursor = i
				break
			}
		}
	case ToggleHidden:
		cursor := p.Cursor
		*p = m.list(Picker{Dir: p.Dir, ShowHidden: !p.ShowHidden})
		p.Cursor = clamp(cursor, 0, len(p.Entries)-1)
	}
	return s
}

// list fills the entries of p from the lister. A failed listing is
// reported on the picker and leaves it empty.
func (m *Machine) list(p Picker) Picker {
	p.Entries = nil
	p.Cursor = 0
	p.ListErr = ""
	if m.Lister == nil {
		return p
	}
	entries, err := m.Lister.List(p.Dir, p.ShowHidden)
	if err != nil {
		p.ListErr = err.Error()
		return p
	}
	p.Entries = entries
	return p
}

func toggle(se *Series, path string) {
	if i := se.indexOf(path); i >= 0 {
		se.Books = append(se.Books[:i], se.Books[i+1:]...)
		se.Row = clamp(se.Row, 0, len(se.Books)-1)
		return
	}
	se.Books = append(se.Books, Book{Path: path})
}

// materialize fills in the defaults of a series the first time it leaves
// file selection, and seeds the title of every book that has none.
func (m *Machine) materialize(se *Series) {
	if !se.Materialized {
		se.Name = m.Defaults.SeriesName
		if se.Name == "" {
			se.Name = fmt.Sprintf("Series %d", se.Index+1)
		}
		se.Format = m.Defaults.Format
		se.Materialized = true
	}
	for i := range se.Books {
		if se.Books[i].Title != "" {
			continue
		}
		if m.Titles != nil {
			se.Books[i].Title = norm.NFC.String(m.Titles.DeclaredTitle(se.Books[i].Path))
		}
		if se.Books[i].Title == "" {
			base := filepath.Base(se.Books[i].Path)
			se.Books[i].Title = base[:len(base)-len(filepath.Ext(base))]
		}
	}
}

func (m *Machine) bookData(s State, ev Event) State {
	se := &s.Series[s.Current]

	switch ev := ev.(type) {
	case Back:
		s.Editing = false
		if s.Current > 0 {
			s.Current--
		} else {
			s.Current = s.Count - 1
			s.Page = PageFileSelection
		}
	case Next:
		// Pages are grouped: every FileSelection, then every BookData.
		s.Editing = false
		if s.Current < s.Count-1 {
			s.Current++
			return s
		}
		s.Jobs = flatten(s)
		s.Cursor = 0
		s.Page = PageLoading
	case CycleField:
		s.Editing = false
		s.Field = s.Field.Next()
	case SetSeriesName:
		se.Name = norm.NFC.String(ev.Value)
	case SetFormat:
		se.Format = norm.NFC.String(ev.Value)
	case SetTitle:
		if ev.Row >= 0 && ev.Row < len(se.Books) {
			se.Books[ev.Row].Title = norm.NFC.String(ev.Value)
		}
	case BeginEdit:
		if s.Field == FieldBookOrder && se.Col == ColTitle && len(se.Books) > 0 {
			s.Editing = true
		}
	case EndEdit:
		s.Editing = false
	case MoveCursor:
		se.Row = clamp(se.Row+ev.DRow, 0, len(se.Books)-1)
		se.Col = clamp(se.Col+ev.DCol, ColPosition, ColTitle)
	case MoveRowTo:
		moveRow(se, se.Row, ev.Target)
	case SwapRow:
		to := se.Row + ev.Delta
		if ev.Delta == 1 || ev.Delta == -1 {
			moveRow(se, se.Row, to)
		}
	case RemoveBook:
		// A series past file selection keeps at least one book.
		if ev.Row < 0 || ev.Row >= len(se.Books) || len(se.Books) == 1 {
			return s
		}
		se.Books = append(se.Books[:ev.Row], se.Books[ev.Row+1:]...)
		se.Row = clamp(se.Row, 0, len(se.Books)-1)
	}
	return s
}

// moveRow moves the book at from to index to by adjacent swaps, so the
// rows strictly in between shift by one. The cursor follows the book.
func moveRow(se *Series, from, to int) {
	n := len(se.Books)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	for i := from; i < to; i++ {
		se.Books[i], se.Books[i+1] = se.Books[i+1], se.Books[i]
	}
	for i := from; i > to; i-- {
		se.Books[i], se.Books[i-1] = se.Books[i-1], se.Books[i]
	}
	se.Row = to
}

// flatten builds the work list in series order, then book order.
func flatten(s State) []Job {
	var jobs []Job
	for i := 0; i < s.Count && i < len(s.Series); i++ {
		t := s.Series[i].FieldTable()
		for row, path := range t.BookOrder {
			jobs = append(jobs, Job{Path: path, Fields: t.Fields(row)})
		}
	}
	return jobs
}

func loading(s State, ev Event) State {
	if s.Cursor < 0 || s.Cursor >= len(s.Jobs) {
		return s
	}
	j := &s.Jobs[s.Cursor]

	switch ev := ev.(type) {
	case BookDone:
		if ev.Path != j.Path || j.Processed() {
			return s
		}
		j.Done = true
		j.Err = ""
		j.NewPath = ev.NewPath
		if j.NewPath == "" {
			j.NewPath = j.Path
		}
		s.Cursor = min(s.Cursor+1, len(s.Jobs)-1)
	case BookFailed:
		if ev.Path != j.Path || j.Processed() {
			return s
		}
		j.Err = "unknown error"
		if ev.Err != nil {
			j.Err = ev.Err.Error()
		}
	case Skip:
		if j.Err == "" || j.Processed() {
			return s
		}
		j.Skipped = true
		s.Cursor = min(s.Cursor+1, len(s.Jobs)-1)
	case Retry:
		if !j.Processed() {
			j.Err = ""
		}
	}
	return s
}

func clampCount(n int) int {
	return clamp(n, MinSeries, MaxSeries)
}

// clamp limits v to [lo, hi]. When hi < lo the result is lo.
func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
