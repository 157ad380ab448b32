package tui

import (
	"github.com/blackwell-systems/ebookmeta/internal/util"
	"github.com/spf13/cobra"
)

// ShouldUseTUI returns true if the command should run the interactive wizard.
// The wizard runs when:
// - stdin and stdout are terminals (not piped or redirected)
// - --no-interactive flag is not set
func ShouldUseTUI(cmd *cobra.Command) bool {
	if !util.IsInteractive() {
		return false
	}

	noInteractive, _ := cmd.Flags().GetBool("no-interactive")
	return !noInteractive
}
