package app

import (
	"fmt"
	"path/filepath"

	"github.com/blackwell-systems/ebookmeta/internal/plan"
	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply <plan.yml>",
		Short: "Rewrite the books listed in a plan file without the wizard",
		Long: `Apply reads a plan file (see 'ebookmeta plan') and rewrites every book
in it, series by series, in the order listed. A book that fails is
reported and skipped; the rest of the plan still runs.`,
		Example: `  ebookmeta plan --series Dune *.epub > dune.yml
  ebookmeta apply dune.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.Load(args[0])
			if err != nil {
				return err
			}
			if err := p.Validate(); err != nil {
				return fmt.Errorf("invalid plan: %w", err)
			}
			jobs := p.Jobs()
			if len(jobs) == 0 {
				warn("plan %s lists no books", args[0])
				return nil
			}

			if dryRun {
				return printJobs(jobs)
			}

			m := newMachine()
			d, err := newDriver(m)
			if err != nil {
				return err
			}
			header("Rewriting %d book(s)", len(jobs))
			state, err := d.Run(cmd.Context(), wizard.LoadingState(jobs))
			if err != nil {
				return err
			}
			return summarize(state)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved titles without touching any file")
	return cmd
}

func printJobs(jobs []wizard.Job) error {
	for _, j := range jobs {
		resolved, err := j.Fields.Resolve()
		if err != nil {
			return fmt.Errorf("%s: %w", j.Path, err)
		}
		if j.Fields.Format == "" {
			resolved = color.YellowString("(unchanged)")
		}
		fmt.Printf("%s  %s\n", filepath.Base(j.Path), color.CyanString(resolved))
	}
	return nil
}
