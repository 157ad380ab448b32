package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/ebookmeta/internal/epub"
	"github.com/blackwell-systems/ebookmeta/internal/history"
	"github.com/blackwell-systems/ebookmeta/internal/plan"
	"github.com/blackwell-systems/ebookmeta/internal/tui"
	"github.com/blackwell-systems/ebookmeta/internal/wizard"
)

// runWizard shows the interactive wizard and reports the outcome once the
// terminal has been restored.
func runWizard(ctx context.Context) error {
	m := newMachine()
	d, err := newDriver(m)
	if err != nil {
		return err
	}

	state, err := tui.Run(ctx, m, d, tui.Options{Tick: cfg.UI.TickInterval(), Logger: logger})
	if err != nil {
		return err
	}
	if path, err := saveUnfinished(state, cfg.UI.ResumePlan); err != nil {
		warn("could not save the unfinished selection: %v", err)
	} else if path != "" {
		warn("Selection saved to %s; run 'ebookmeta apply %s' to finish", path, path)
	}
	return summarize(state)
}

// saveUnfinished writes the selection of a wizard that quit before every
// book was rewritten as a plan file at path. It returns the path written,
// or "" when there was nothing to save. Re-applying the plan is safe for
// books already done: titles come from the plan, not from the archive.
func saveUnfinished(s wizard.State, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if done, total := s.Progress(); total > 0 && done == total {
		return "", nil
	}
	p := plan.FromState(s)
	if p.Len() == 0 {
		return "", nil
	}
	// Series the user never reached the book data page for carry no
	// name, format or titles yet.
	for i := range p.Series {
		se := &p.Series[i]
		if se.Name == "" {
			se.Name = fmt.Sprintf("Series %d", i+1)
		}
		if se.Format == "" {
			se.Format = cfg.Defaults.Format
		}
		for j := range se.Books {
			if se.Books[j].Title == "" {
				se.Books[j].Title = epub.DeclaredTitle(se.Books[j].Path)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", err
	}
	if err := plan.Save(path, p); err != nil {
		return "", err
	}
	logger.Info("unfinished selection saved", "path", path, "books", p.Len())
	return path, nil
}

func newMachine() *wizard.Machine {
	home, _ := os.UserHomeDir()
	return wizard.New(tui.FSLister{}, wizard.TitleReaderFunc(epub.DeclaredTitle), wizard.Defaults{
		Format:      cfg.Defaults.Format,
		SeriesName:  cfg.Defaults.SeriesName,
		SeriesCount: cfg.Defaults.EffectiveSeriesCount(),
		StartDir:    cfg.Defaults.EffectiveStartDir(os.Getwd, home),
	})
}

// newDriver builds a driver that rewrites archives with the configured
// options and appends every success to the history ledger.
func newDriver(m *wizard.Machine) (wizard.Driver, error) {
	rw := wizard.ArchiveRewriter{
		Options: epub.Options{
			Backup: cfg.Archive.Backup,
			Rename: cfg.Archive.RenameFiles,
			Logger: logger,
		},
	}

	if !cfg.History.Disabled && cfg.History.Path != "" {
		ledger, err := history.Open(cfg.History.Path)
		if err != nil {
			return wizard.Driver{}, err
		}
		rw.Record = func(j wizard.Job, res epub.Result) {
			if err := ledger.Append(historyEntry(j, res)); err != nil {
				logger.Warn("recording history failed", "path", j.Path, "error", err)
			}
		}
	}

	return wizard.Driver{Rewriter: rw, Machine: m, Logger: logger}, nil
}

func historyEntry(j wizard.Job, res epub.Result) history.Entry {
	title := j.Fields.Title
	if j.Fields.Format != "" {
		if resolved, err := j.Fields.Resolve(); err == nil {
			title = resolved
		}
	}
	return history.Entry{
		Source:   j.Path,
		Dest:     res.Path,
		Title:    title,
		Series:   j.Fields.Series,
		Position: j.Fields.Position + 1,
		SHA256:   res.SHA256,
	}
}

// summarize prints what happened to every job and returns an error when
// some books could not be rewritten.
func summarize(s wizard.State) error {
	if len(s.Jobs) == 0 {
		return nil
	}

	var failed, pending int
	for _, j := range s.Jobs {
		switch {
		case j.Done && j.NewPath != j.Path:
			ok("%s → %s", filepath.Base(j.Path), filepath.Base(j.NewPath))
		case j.Done:
			ok("%s", filepath.Base(j.Path))
		case j.Skipped:
			failed++
			warn("%s: skipped after error: %s", filepath.Base(j.Path), j.Err)
		case j.Err != "":
			failed++
			fail("%s: %s", filepath.Base(j.Path), j.Err)
		default:
			pending++
		}
	}
	if pending > 0 {
		warn("%d book(s) not processed before exit", pending)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d book(s) failed", failed, len(s.Jobs))
	}
	return nil
}
