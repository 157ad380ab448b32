package wizard

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS map[string][]Entry

func (f fakeFS) List(dir string, showHidden bool) ([]Entry, error) {
	entries, ok := f[dir]
	if !ok {
		return nil, fmt.Errorf("open %s: no such directory", dir)
	}
	var out []Entry
	for _, e := range entries {
		if !showHidden && e.Name[0] == '.' {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func testFS() fakeFS {
	return fakeFS{
		"/books": {
			{Name: "sub", Path: "/books/sub", IsDir: true},
			{Name: ".hidden.epub", Path: "/books/.hidden.epub"},
			{Name: "a.epub", Path: "/books/a.epub"},
			{Name: "b.epub", Path: "/books/b.epub"},
		},
		"/books/sub": {
			{Name: "c.epub", Path: "/books/sub/c.epub"},
		},
		"/": {
			{Name: "books", Path: "/books", IsDir: true},
		},
	}
}

func titles(path string) string {
	return map[string]string{
		"/books/a.epub":     "Alpha",
		"/books/b.epub":     "Beta",
		"/books/sub/c.epub": "Gamma",
	}[path]
}

func newTestMachine() *Machine {
	return New(testFS(), TitleReaderFunc(titles), Defaults{
		Format:   "${series} (${position}) - ${title}",
		StartDir: "/books",
	})
}

func apply(m *Machine, s State, events ...Event) State {
	for _, ev := range events {
		s = m.Update(s, ev)
	}
	return s
}

// toFileSelection drives a fresh machine to the first file selection page
// with n series.
func toFileSelection(t *testing.T, m *Machine, n int) State {
	t.Helper()
	s := apply(m, m.Init(), Next{}, AdjustCount{Delta: n - 1}, Next{})
	require.Equal(t, PageFileSelection, s.Page)
	require.Equal(t, n, s.Count)
	return s
}

// bookDataWith returns a state on the book data page of a single series
// holding the given books.
func bookDataWith(paths ...string) State {
	se := Series{Name: "S", Format: "${title}", Materialized: true, Col: ColTitle}
	for _, p := range paths {
		se.Books = append(se.Books, Book{Path: p, Title: "t-" + filepath.Base(p)})
	}
	return State{Page: PageBookData, Count: 1, Series: []Series{se}, Field: FieldBookOrder}
}

func TestInit(t *testing.T) {
	m := newTestMachine()
	s := m.Init()
	assert.Equal(t, PageHome, s.Page)
	assert.Equal(t, 1, s.Count)

	m.Defaults.SeriesCount = 500
	assert.Equal(t, MaxSeries, m.Init().Count)
}

func TestQuitFromEveryPage(t *testing.T) {
	m := newTestMachine()
	for _, p := range []Page{PageHome, PageSeriesCount, PageFileSelection, PageBookData, PageLoading} {
		s := bookDataWith("/books/a.epub")
		s.Page = p
		s.Editing = true
		got := m.Update(s, Quit{})
		assert.Equal(t, PageQuit, got.Page, p.String())
		assert.False(t, got.Editing)
	}
}

func TestAdjustCount_Clamps(t *testing.T) {
	m := newTestMachine()
	s := apply(m, m.Init(), Next{})
	require.Equal(t, PageSeriesCount, s.Page)

	s = apply(m, s, AdjustCount{Delta: -1}, AdjustCount{Delta: -1})
	assert.Equal(t, MinSeries, s.Count)

	s = apply(m, s, AdjustCount{Delta: 200})
	assert.Equal(t, MaxSeries, s.Count)
}

func TestSeriesCountNext_CreatesSeriesWithListing(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 3)

	require.Len(t, s.Series, 3)
	for i, se := range s.Series {
		assert.Equal(t, i, se.Index)
		assert.Equal(t, "/books", se.Picker.Dir)
		assert.Len(t, se.Picker.Entries, 3, "hidden entry excluded")
	}
	assert.Equal(t, 0, s.Current)
}

func TestFileSelection_NextBlockedWithoutBooks(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 2)

	got := m.Update(s, Next{})
	assert.Equal(t, s, got)
	assert.Equal(t, PageFileSelection, got.Page)
	assert.Equal(t, 0, got.Current)
}

func TestFileSelection_PickerNavigation(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 1)

	// Cursor on "sub": enter opens the directory.
	s = m.Update(s, PickerEnter{})
	p := s.Series[0].Picker
	assert.Equal(t, "/books/sub", p.Dir)
	require.Len(t, p.Entries, 1)

	// Enter on a file toggles it.
	s = m.Update(s, PickerEnter{})
	assert.Equal(t, []Book{{Path: "/books/sub/c.epub"}}, s.Series[0].Books)

	// Parent lands the cursor on the directory we came from.
	s = m.Update(s, PickerParent{})
	assert.Equal(t, "/books", s.Series[0].Picker.Dir)
	assert.Equal(t, 0, s.Series[0].Picker.Cursor)

	s = apply(m, s, PickerMove{Delta: 10})
	assert.Equal(t, 2, s.Series[0].Picker.Cursor)
	s = apply(m, s, PickerMove{Delta: -10})
	assert.Equal(t, 0, s.Series[0].Picker.Cursor)
}

func TestFileSelection_ToggleAddsAndRemoves(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 1)

	s = apply(m, s, PickerToggle{}) // directory, ignored
	assert.Empty(t, s.Series[0].Books)

	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, PickerMove{Delta: 1}, PickerToggle{})
	assert.Equal(t, []Book{{Path: "/books/a.epub"}, {Path: "/books/b.epub"}}, s.Series[0].Books)

	s = apply(m, s, PickerMove{Delta: -1}, PickerToggle{})
	assert.Equal(t, []Book{{Path: "/books/b.epub"}}, s.Series[0].Books)

	s = apply(m, s, PickerToggle{}, PickerToggle{})
	assert.Equal(t, []Book{{Path: "/books/b.epub"}}, s.Series[0].Books, "toggling twice never duplicates")
}

func TestFileSelection_ToggleHidden(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 1)

	s = m.Update(s, ToggleHidden{})
	assert.True(t, s.Series[0].Picker.ShowHidden)
	assert.Len(t, s.Series[0].Picker.Entries, 4)

	s = m.Update(s, ToggleHidden{})
	assert.Len(t, s.Series[0].Picker.Entries, 3)
}

func TestFileSelection_ListingErrorIsNotFatal(t *testing.T) {
	m := newTestMachine()
	m.Defaults.StartDir = "/missing"
	s := toFileSelection(t, m, 1)

	p := s.Series[0].Picker
	assert.Empty(t, p.Entries)
	assert.Contains(t, p.ListErr, "/missing")

	s = apply(m, s, PickerEnter{}, PickerToggle{}, PickerMove{Delta: 1})
	assert.Equal(t, PageFileSelection, s.Page)
}

func TestFileSelection_MaterializesDefaults(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 2)

	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, Next{})
	require.Equal(t, 1, s.Current)
	se := s.Series[0]
	assert.True(t, se.Materialized)
	assert.Equal(t, "Series 1", se.Name)
	assert.Equal(t, "${series} (${position}) - ${title}", se.Format)
	assert.Equal(t, "Alpha", se.Books[0].Title)

	m.Defaults.SeriesName = "Dune"
	s = apply(m, s, PickerMove{Delta: 2}, PickerToggle{}, Next{})
	assert.Equal(t, "Dune", s.Series[1].Name)
	assert.Equal(t, "Beta", s.Series[1].Books[0].Title)
}

func TestMaterialize_KeepsEditsAndSeedsNewBooks(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 1)
	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, Next{})
	require.Equal(t, PageBookData, s.Page)

	s = apply(m, s, SetSeriesName{Value: "Custom"}, SetTitle{Row: 0, Value: "Edited"}, Back{})
	require.Equal(t, PageFileSelection, s.Page)

	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, Next{})
	se := s.Series[0]
	assert.Equal(t, "Custom", se.Name)
	assert.Equal(t, []Book{{Path: "/books/a.epub", Title: "Edited"}, {Path: "/books/b.epub", Title: "Beta"}}, se.Books)
}

func TestMaterialize_FallsBackToFileStem(t *testing.T) {
	m := New(testFS(), nil, Defaults{StartDir: "/books"})
	s := toFileSelection(t, m, 1)
	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, Next{})
	assert.Equal(t, "a", s.Series[0].Books[0].Title)
}

func TestNavigation_GroupedOrderAndBack(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 2)
	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, Next{})
	s = apply(m, s, PickerMove{Delta: 2}, PickerToggle{}, Next{})

	assert.Equal(t, PageBookData, s.Page)
	assert.Equal(t, 0, s.Current)

	s = m.Update(s, Next{})
	assert.Equal(t, PageBookData, s.Page)
	assert.Equal(t, 1, s.Current)

	steps := []struct {
		page    Page
		current int
	}{
		{PageBookData, 0},
		{PageFileSelection, 1},
		{PageFileSelection, 0},
		{PageSeriesCount, 0},
		{PageHome, 0},
		{PageHome, 0},
	}
	for _, want := range steps {
		s = m.Update(s, Back{})
		assert.Equal(t, want.page, s.Page)
		if want.page == PageFileSelection || want.page == PageBookData {
			assert.Equal(t, want.current, s.Current)
		}
	}
}

func TestReducingCountKeepsStaleSeries(t *testing.T) {
	m := newTestMachine()
	s := toFileSelection(t, m, 3)
	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, Next{})
	s = apply(m, s, PickerMove{Delta: 1}, PickerToggle{}, Next{})
	s = apply(m, s, PickerMove{Delta: 2}, PickerToggle{})
	require.Equal(t, 2, s.Current)

	s = apply(m, s, Back{}, Back{}, Back{}, AdjustCount{Delta: -2}, Next{})
	require.Equal(t, 1, s.Count)
	assert.Len(t, s.Series, 3, "stale series kept")

	s = apply(m, s, Next{}, Next{})
	require.Equal(t, PageLoading, s.Page)
	require.Len(t, s.Jobs, 1)
	assert.Equal(t, "/books/a.epub", s.Jobs[0].Path)

	s2 := apply(m, s, Quit{})
	assert.Equal(t, PageQuit, s2.Page)
}

func TestBookData_CycleField(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/a")
	s.Field = FieldSeries

	var got []Field
	for i := 0; i < 4; i++ {
		s = m.Update(s, CycleField{})
		got = append(got, s.Field)
	}
	assert.Equal(t, []Field{FieldFormat, FieldBookOrder, FieldSeries, FieldFormat}, got)
}

func TestBookData_MoveRowTo_InsertionShift(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1", "/2", "/3", "/4")
	s = apply(m, s, MoveCursor{DRow: 2})
	require.Equal(t, 2, s.Series[0].Row)

	s = m.Update(s, MoveRowTo{Target: 0})

	table := s.Series[0].FieldTable()
	assert.Equal(t, []string{"/2", "/0", "/1", "/3", "/4"}, table.BookOrder)
	assert.Equal(t, []string{"t-2", "t-0", "t-1", "t-3", "t-4"}, table.BookTitle)
	assert.Equal(t, 0, s.Series[0].Row, "cursor follows the moved row")

	s = m.Update(s, MoveRowTo{Target: 3})
	assert.Equal(t, []string{"/0", "/1", "/3", "/2", "/4"}, s.Series[0].FieldTable().BookOrder)
	assert.Equal(t, 3, s.Series[0].Row)
}

func TestBookData_MoveRowTo_OutOfRange(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1")
	got := m.Update(s, MoveRowTo{Target: 7})
	assert.Equal(t, s, got)
}

func TestBookData_SwapRow(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1", "/2")

	s = m.Update(s, SwapRow{Delta: 1})
	assert.Equal(t, []string{"/1", "/0", "/2"}, s.Series[0].FieldTable().BookOrder)
	assert.Equal(t, 1, s.Series[0].Row)

	s = m.Update(s, SwapRow{Delta: -1})
	assert.Equal(t, []string{"/0", "/1", "/2"}, s.Series[0].FieldTable().BookOrder)

	s = m.Update(s, SwapRow{Delta: -1})
	assert.Equal(t, 0, s.Series[0].Row, "no neighbour above the first row")
	assert.Equal(t, []string{"/0", "/1", "/2"}, s.Series[0].FieldTable().BookOrder)
}

func TestBookData_MoveCursorClamps(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1")
	s = apply(m, s, MoveCursor{DRow: 5, DCol: 3})
	assert.Equal(t, 1, s.Series[0].Row)
	assert.Equal(t, ColTitle, s.Series[0].Col)

	s = apply(m, s, MoveCursor{DRow: -9, DCol: -9})
	assert.Equal(t, 0, s.Series[0].Row)
	assert.Equal(t, ColPosition, s.Series[0].Col)
}

func TestBookData_EditTitle(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1")

	s = m.Update(s, BeginEdit{})
	assert.True(t, s.Editing)
	s = apply(m, s, SetTitle{Row: 1, Value: "Café"}, EndEdit{})
	assert.False(t, s.Editing)
	assert.Equal(t, "Café", s.Series[0].Books[1].Title, "normalized to NFC")

	s.Series[0].Col = ColPosition
	s = m.Update(s, BeginEdit{})
	assert.False(t, s.Editing, "position column is not editable")
}

func TestBookData_RemoveBook(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1")
	s.Series[0].Row = 1

	s = m.Update(s, RemoveBook{Row: 1})
	assert.Equal(t, []string{"/0"}, s.Series[0].FieldTable().BookOrder)
	assert.Equal(t, 0, s.Series[0].Row)

	s = m.Update(s, RemoveBook{Row: 0})
	assert.Len(t, s.Series[0].Books, 1, "last book kept")
}

func TestFlattenedListBuiltOnce(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1")

	s = m.Update(s, Next{})
	require.Equal(t, PageLoading, s.Page)
	require.Len(t, s.Jobs, 2)
	assert.Equal(t, 0, s.Jobs[0].Fields.Position)
	assert.Equal(t, 1, s.Jobs[1].Fields.Position)
	assert.Equal(t, "S", s.Jobs[1].Fields.Series)
	assert.Equal(t, "t-1", s.Jobs[1].Fields.Title)
	jobs := s.Jobs

	s = apply(m, s, Next{}, Back{}, SetTitle{Row: 0, Value: "x"}, MoveRowTo{Target: 1})
	assert.Equal(t, PageLoading, s.Page)
	assert.Equal(t, jobs, s.Jobs)
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	m := newTestMachine()
	s := bookDataWith("/0", "/1", "/2")
	before := s.Clone()

	_ = apply(m, s, MoveRowTo{Target: 2}, SetTitle{Row: 0, Value: "x"}, RemoveBook{Row: 1})
	m.Update(s, SetTitle{Row: 0, Value: "y"})
	m.Update(s, RemoveBook{Row: 0})
	assert.Equal(t, before, s)
}

func TestLoading_DriverEvents(t *testing.T) {
	m := newTestMachine()
	s := LoadingState([]Job{{Path: "/a"}, {Path: "/b"}})

	s = m.Update(s, BookDone{Path: "/other"})
	assert.False(t, s.Jobs[0].Done, "event for another job ignored")

	s = m.Update(s, BookFailed{Path: "/a", Err: errors.New("boom")})
	assert.Equal(t, "boom", s.Jobs[0].Err)
	assert.Equal(t, 0, s.Cursor, "failed job stays under the cursor")
	assert.Equal(t, map[string]string{"/a": "boom"}, s.Failed())

	s = m.Update(s, Retry{})
	assert.Empty(t, s.Jobs[0].Err)

	s = m.Update(s, Skip{})
	assert.False(t, s.Jobs[0].Skipped, "only failed jobs can be skipped")

	s = apply(m, s, BookFailed{Path: "/a", Err: errors.New("boom")}, Skip{})
	assert.True(t, s.Jobs[0].Skipped)
	assert.Equal(t, 1, s.Cursor)

	s = m.Update(s, BookDone{Path: "/b", NewPath: "/c"})
	assert.True(t, s.Jobs[1].Done)
	assert.Equal(t, "/c", s.Jobs[1].NewPath)
	assert.Equal(t, 1, s.Cursor, "cursor clamped to the last job")
	assert.True(t, s.Finished())
	assert.Equal(t, map[string]bool{"/b": true}, s.Completed())

	done, total := s.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)
}

func TestPageString(t *testing.T) {
	assert.Equal(t, "book-data", PageBookData.String())
	assert.Equal(t, "order", FieldBookOrder.String())
}
