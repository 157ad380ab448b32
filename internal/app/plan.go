package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/ebookmeta/internal/epub"
	"github.com/blackwell-systems/ebookmeta/internal/history"
	"github.com/blackwell-systems/ebookmeta/internal/plan"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	var (
		seriesName string
		format     string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "plan <file.epub>...",
		Short: "Write a plan file for one series of books",
		Long: `Plan builds a YAML plan for the given books, in the order given, with
each title seeded from the archive's own metadata. Edit the plan and run
'ebookmeta apply' to rewrite the books.`,
		Example: `  ebookmeta plan --series "Foundation" f1.epub f2.epub f3.epub -o foundation.yml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = cfg.Defaults.Format
			}
			if seriesName == "" {
				seriesName = cfg.Defaults.SeriesName
			}
			if seriesName == "" {
				seriesName = "Series 1"
			}

			seen := previouslyRewritten()
			s := plan.Series{Name: seriesName, Format: format}
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				if seen(path) {
					warn("%s was already rewritten; its title may include an old series prefix", arg)
				}
				s.Books = append(s.Books, plan.Book{Path: path, Title: epub.DeclaredTitle(path)})
			}
			p := plan.Plan{Series: []plan.Series{s}}
			if err := p.Validate(); err != nil {
				return err
			}

			if output == "" {
				data, err := plan.Marshal(p)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := plan.Save(output, p); err != nil {
				return fmt.Errorf("writing plan: %w", err)
			}
			ok("Wrote plan for %d book(s) to %s", p.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&seriesName, "series", "", "Series name")
	cmd.Flags().StringVar(&format, "format", "", "Title format (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the plan to a file instead of stdout")
	return cmd
}

// previouslyRewritten returns a lookup into the history ledger. Without a
// readable ledger every path reports false.
func previouslyRewritten() func(string) bool {
	if cfg.History.Disabled || cfg.History.Path == "" {
		return func(string) bool { return false }
	}
	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Debug("history unavailable", "path", cfg.History.Path, "error", err)
		return func(string) bool { return false }
	}
	return func(path string) bool {
		found, err := ledger.Contains(path)
		if err != nil {
			logger.Debug("reading history failed", "path", ledger.Path(), "error", err)
		}
		return found
	}
}
