package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/blackwell-systems/ebookmeta/internal/config"
	"github.com/blackwell-systems/ebookmeta/internal/logging"
	"github.com/blackwell-systems/ebookmeta/internal/tui"
	"github.com/blackwell-systems/ebookmeta/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagDir           string
)

var rootCmd = &cobra.Command{
	Use:   "ebookmeta",
	Short: "Batch-edit the title and series metadata of EPUB books",
	Long: `ebookmeta rewrites the title, sort title and series fields inside EPUB
archives, numbering the books of each series with a format such as

  ${series} (${position}) - ${title}

Run 'ebookmeta' with no arguments to launch the interactive wizard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tui.ShouldUseTUI(cmd) {
			return runWizard(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Do not launch the interactive wizard")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/ebookmeta/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Directory the file picker starts in")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.LoadFile(configPath())
		if err != nil {
			// init must be able to replace a broken config.
			if cmd.Name() != "init" {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg, _ = config.LoadFile("")
		}
		if flagDir != "" {
			cfg.Defaults.StartDir = util.ExpandHome(flagDir)
		}

		logger, closeLog, err = logging.Setup(cfg.Log)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}
		logger.Debug("config loaded", "path", configPath(), "command", cmd.Name())
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	}

	// Register sub-commands.
	rootCmd.AddCommand(
		newApplyCmd(),
		newPlanCmd(),
		newInfoCmd(),
		newHistoryCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
}

func configPath() string {
	if flagConfig != "" {
		return util.ExpandHome(flagConfig)
	}
	return config.Path()
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// fail prints a red error line.
func fail(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString("✗"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

func printField(label, value string) {
	fmt.Printf("  %-14s %s\n", color.CyanString(label+":"), value)
}
