package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/ebookmeta/internal/config"
	"github.com/blackwell-systems/ebookmeta/internal/logging"
	"github.com/blackwell-systems/ebookmeta/internal/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		format     string
		seriesName string
		startDir   string
		backup     bool
		rename     bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with your defaults",
		Example: `  ebookmeta init --format "${series} ${position} - ${title}" --backup
  ebookmeta init --start-dir ~/Books --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if cmd.Flags().Changed("format") {
				if err := template.Validate(format, template.KeyPosition, template.KeyTitle, template.KeySeries); err != nil {
					return fmt.Errorf("invalid format: %w", err)
				}
				cfg.Defaults.Format = format
			}
			if cmd.Flags().Changed("series") {
				cfg.Defaults.SeriesName = seriesName
			}
			if cmd.Flags().Changed("start-dir") {
				cfg.Defaults.StartDir = startDir
			}
			if cmd.Flags().Changed("backup") {
				cfg.Archive.Backup = backup
			}
			if cmd.Flags().Changed("rename") {
				cfg.Archive.RenameFiles = rename
			}
			if !logging.ValidFormat(cfg.Log.Format) {
				cfg.Log.Format = "text"
			}

			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			ok("Config written to %s", path)
			printField("format", cfg.Defaults.Format)
			printField("backup", fmt.Sprint(cfg.Archive.Backup))
			printField("rename", fmt.Sprint(cfg.Archive.RenameFiles))
			fmt.Println()
			fmt.Println("Run " + color.CyanString("ebookmeta") + " to start the wizard.")
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", config.DefaultFormat, "Default title format")
	cmd.Flags().StringVar(&seriesName, "series", "", "Default series name")
	cmd.Flags().StringVar(&startDir, "start-dir", "", "Directory the file picker starts in")
	cmd.Flags().BoolVar(&backup, "backup", false, "Keep a .bak copy of every rewritten book")
	cmd.Flags().BoolVar(&rename, "rename", false, "Rename rewritten books after their new title")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
