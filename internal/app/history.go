package app

import (
	"fmt"

	"github.com/blackwell-systems/ebookmeta/internal/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously rewritten books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.History.Disabled {
				warn("history is disabled in %s", configPath())
				return nil
			}
			ledger, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			entries, err := ledger.Last(limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No books rewritten yet.")
				return nil
			}

			for _, e := range entries {
				when := color.HiBlackString(e.Timestamp.Local().Format("2006-01-02 15:04"))
				fmt.Printf("%s  %s\n", when, color.CyanString(e.Title))
				fmt.Printf("                  %s\n", e.Source)
				if e.Dest != "" {
					fmt.Printf("                → %s\n", e.Dest)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	return cmd
}
