package wizard

import (
	"context"
	"log/slog"

	"github.com/blackwell-systems/ebookmeta/internal/epub"
)

// Rewriter rewrites the archive of one job and returns where it ended up.
type Rewriter interface {
	Rewrite(ctx context.Context, job Job) (string, error)
}

// RewriterFunc adapts a function to Rewriter.
type RewriterFunc func(ctx context.Context, job Job) (string, error)

func (f RewriterFunc) Rewrite(ctx context.Context, job Job) (string, error) {
	return f(ctx, job)
}

// ArchiveRewriter rewrites jobs with epub.Rewrite.
type ArchiveRewriter struct {
	Options epub.Options
	// Record, if set, is called after every successful rewrite.
	Record func(Job, epub.Result)
}

func (r ArchiveRewriter) Rewrite(ctx context.Context, job Job) (string, error) {
	res, err := epub.Rewrite(ctx, job.Path, job.Fields, r.Options)
	if err != nil {
		return "", err
	}
	if r.Record != nil {
		r.Record(job, res)
	}
	return res.Path, nil
}

// Driver works through the flattened job list one archive at a time.
type Driver struct {
	Rewriter Rewriter
	Machine  *Machine
	Logger   *slog.Logger
}

func (d Driver) machine() *Machine {
	if d.Machine != nil {
		return d.Machine
	}
	return &Machine{}
}

func (d Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Step rewrites the job under the cursor if it is still pending and folds
// the outcome into the state. It reports whether a rewrite was attempted.
// A failed job stays under the cursor until it is skipped or retried.
func (d Driver) Step(ctx context.Context, s State) (State, bool) {
	if s.Page != PageLoading {
		return s, false
	}
	j, ok := s.CurrentJob()
	if !ok || j.Processed() || j.Err != "" {
		return s, false
	}

	newPath, err := d.Rewriter.Rewrite(ctx, j)
	if err != nil {
		d.logger().Error("rewrite failed", "path", j.Path, "error", err)
		return d.machine().Update(s, BookFailed{Path: j.Path, Err: err}), true
	}
	d.logger().Debug("rewrite done", "path", j.Path, "dest", newPath)
	return d.machine().Update(s, BookDone{Path: j.Path, NewPath: newPath}), true
}

// Run drains the job list without user interaction. Failed jobs are
// skipped; they remain visible through State.Failed.
func (d Driver) Run(ctx context.Context, s State) (State, error) {
	for !s.Finished() {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		var worked bool
		s, worked = d.Step(ctx, s)
		if worked {
			continue
		}
		j, ok := s.CurrentJob()
		if !ok || j.Err == "" {
			break
		}
		s = d.machine().Update(s, Skip{})
	}
	return s, nil
}

// LoadingState returns a state that starts the driver on jobs directly,
// bypassing the interactive pages.
func LoadingState(jobs []Job) State {
	return State{Page: PageLoading, Jobs: append([]Job(nil), jobs...)}
}
