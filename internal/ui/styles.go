// Package ui provides terminal styling for bridge CLI output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic status colors, adaptive for light/dark terminals.
var (
	ColorOK = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	OKStyle     = lipgloss.NewStyle().Foreground(ColorOK)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// PromptStyle renders the interactive chat prompt.
	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// Status icons.
const (
	IconOK   = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
)

// ColorEnabled reports whether the terminal supports color output, honoring
// NO_COLOR and dumb terminals.
func ColorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}
