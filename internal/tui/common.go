package tui

import "github.com/charmbracelet/lipgloss"

// Color palette matching the fatih/color output of the CLI commands
var (
	// ColorGreen for success indicators and selected files
	ColorGreen = lipgloss.AdaptiveColor{Light: "#00AF00", Dark: "#00D700"}

	// ColorCyan for series names and metadata
	ColorCyan = lipgloss.AdaptiveColor{Light: "#00AFAF", Dark: "#00D7D7"}

	// ColorWhite for primary text
	ColorWhite = lipgloss.AdaptiveColor{Light: "#262626", Dark: "#FFFFFF"}

	// ColorGray for secondary text and help
	ColorGray = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#808080"}

	// ColorYellow for warnings and highlights
	ColorYellow = lipgloss.AdaptiveColor{Light: "#D7AF00", Dark: "#FFD700"}

	// ColorRed for errors
	ColorRed = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
)

// Reusable styles
var (
	// StyleNormal is the base style for regular text
	StyleNormal = lipgloss.NewStyle().Foreground(ColorWhite)

	// StyleHighlight is for the item under the cursor
	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	// StyleSelected marks files picked for the current series
	StyleSelected = lipgloss.NewStyle().Foreground(ColorGreen)

	// StyleSeries is for series names and resolved titles
	StyleSeries = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleHelp is for help text and hints
	StyleHelp = lipgloss.NewStyle().Foreground(ColorGray)

	// StyleError is for failures and listing errors
	StyleError = lipgloss.NewStyle().Foreground(ColorRed)

	// StyleHeader is for section headers
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	// StyleBorder is for borders and separators
	StyleBorder = lipgloss.NewStyle().
			Foreground(ColorGray).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	// StyleFocused borders the input that has focus
	StyleFocused = StyleBorder.BorderForeground(ColorCyan)
)
