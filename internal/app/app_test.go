package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/ebookmeta/internal/config"
	"github.com/blackwell-systems/ebookmeta/internal/epub"
	"github.com/blackwell-systems/ebookmeta/internal/epub/epubtest"
	"github.com/blackwell-systems/ebookmeta/internal/history"
	"github.com/blackwell-systems/ebookmeta/internal/logging"
	"github.com/blackwell-systems/ebookmeta/internal/opf"
	"github.com/blackwell-systems/ebookmeta/internal/plan"
	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config, log and history at a temp home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("EBOOKMETA_CONFIG", filepath.Join(home, "config.yml"))
	flagConfig, flagDir = "", ""
	return home
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(append(args, "--no-color"))
	return rootCmd.ExecuteContext(context.Background())
}

func TestApply_RewritesPlanAndRecordsHistory(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()
	a := epubtest.Write(t, dir, "a.epub", epubtest.Book{Title: "Dune"})
	b := epubtest.Write(t, dir, "b.epub", epubtest.Book{Title: "Dune Messiah"})

	p := plan.Plan{Series: []plan.Series{{
		Name:   "Dune",
		Format: "${series} (${position}) - ${title}",
		Books:  []plan.Book{{Path: "a.epub", Title: "Dune"}, {Path: "b.epub", Title: "Dune Messiah"}},
	}}}
	planPath := filepath.Join(dir, "plan.yml")
	require.NoError(t, plan.Save(planPath, p))

	require.NoError(t, run(t, "apply", planPath))

	for path, want := range map[string]string{a: "Dune (01) - Dune", b: "Dune (02) - Dune Messiah"} {
		info, err := epub.ReadInfo(path)
		require.NoError(t, err)
		assert.Equal(t, want, info.Title)
	}

	ledger, err := history.Open(filepath.Join(home, ".local", "share", "ebookmeta", "history.jsonl"))
	require.NoError(t, err)
	entries, err := ledger.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Dune (02) - Dune Messiah", entries[1].Title)
	assert.Equal(t, 2, entries[1].Position)
}

func TestApply_InvalidPlan(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yml")
	require.NoError(t, os.WriteFile(planPath, []byte("series:\n  - name: X\n    format: \"${author}\"\n    books:\n      - path: x.epub\n"), 0644))

	err := run(t, "apply", planPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid plan")
}

func TestPlan_WritesFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := epubtest.Write(t, dir, "a.epub", epubtest.Book{Title: "Foundation"})
	out := filepath.Join(dir, "out.yml")

	require.NoError(t, run(t, "plan", "--series", "Foundation", "-o", out, a))

	p, err := plan.Load(out)
	require.NoError(t, err)
	require.Len(t, p.Series, 1)
	assert.Equal(t, "Foundation", p.Series[0].Name)
	assert.Equal(t, []plan.Book{{Path: a, Title: "Foundation"}}, p.Series[0].Books)
}

func TestInit_WritesConfigOnce(t *testing.T) {
	home := isolate(t)
	require.NoError(t, run(t, "init", "--backup", "--format", "${title}"))

	data, err := os.ReadFile(filepath.Join(home, "config.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backup: true")
	assert.Contains(t, string(data), "${title}")

	assert.Error(t, run(t, "init"), "existing config kept without --force")
}

func TestReadInfos_KeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, title := range []string{"One", "Two", "Three"} {
		paths = append(paths, epubtest.Write(t, dir, title+".epub", epubtest.Book{Title: title}))
	}
	paths = append(paths, filepath.Join(dir, "missing.epub"))

	results, err := readInfos(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "One", results[0].info.Title)
	assert.Equal(t, "Three", results[2].info.Title)
	assert.ErrorIs(t, results[3].err, epub.ErrIO)
}

func TestHistoryEntry(t *testing.T) {
	j := wizard.Job{Path: "/b/a.epub", Fields: opf.Fields{Series: "S", Format: "${series} ${position}", Title: "A", Position: 4}}
	e := historyEntry(j, epub.Result{Path: "/b/S 05.epub", SHA256: "abc"})
	assert.Equal(t, "S 05", e.Title)
	assert.Equal(t, 5, e.Position)
	assert.Equal(t, "/b/S 05.epub", e.Dest)

	j.Fields.Format = ""
	assert.Equal(t, "A", historyEntry(j, epub.Result{}).Title)
}

func TestSummarize(t *testing.T) {
	assert.NoError(t, summarize(wizard.State{}))

	s := wizard.LoadingState([]wizard.Job{{Path: "/a"}, {Path: "/b"}})
	s.Jobs[0].Done = true
	s.Jobs[0].NewPath = "/a"
	s.Jobs[1].Err = "boom"
	err := summarize(s)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 book(s) failed", err.Error())
	assert.False(t, errors.Is(err, epub.ErrIO))
}

func TestSaveUnfinished(t *testing.T) {
	isolate(t)
	var err error
	cfg, err = config.LoadFile("")
	require.NoError(t, err)
	logger = logging.New(logging.Options{})

	dir := t.TempDir()
	emma := epubtest.Write(t, dir, "emma.epub", epubtest.Book{Title: "Emma"})
	s := wizard.State{
		Page:  wizard.PageQuit,
		Count: 2,
		Series: []wizard.Series{
			{Name: "Foo", Format: "${series} ${position}", Books: []wizard.Book{{Path: "/books/dune.epub", Title: "Dune"}}},
			{Books: []wizard.Book{{Path: emma}}},
		},
	}
	out := filepath.Join(dir, "state", "unfinished.yml")

	path, err := saveUnfinished(s, out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	p, err := plan.Load(out)
	require.NoError(t, err)
	require.Len(t, p.Series, 2)
	assert.Equal(t, "Foo", p.Series[0].Name)
	assert.Equal(t, "Series 2", p.Series[1].Name)
	assert.Equal(t, config.DefaultFormat, p.Series[1].Format)
	assert.Equal(t, "Emma", p.Series[1].Books[0].Title)

	// A batch that ran to the end leaves nothing behind.
	done := wizard.LoadingState([]wizard.Job{{Path: emma, Done: true}})
	done.Series, done.Count = s.Series, s.Count
	other := filepath.Join(dir, "other.yml")
	path, err = saveUnfinished(done, other)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, err = os.Stat(other)
	assert.True(t, os.IsNotExist(err))

	path, err = saveUnfinished(s, "")
	require.NoError(t, err)
	assert.Empty(t, path)
}
