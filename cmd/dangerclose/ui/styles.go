// Package ui provides the interactive catalog browser for the dangerclose CLI.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#1b1f14")
	LightPrimary    = lipgloss.Color("#3d4a26") // Olive drab
	LightAccent     = lipgloss.Color("#c8741a") // Signal orange
	LightMuted      = lipgloss.Color("#8a8f80")
	LightSelection  = lipgloss.Color("#e3e6d8")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#14170f")
	DarkForeground = lipgloss.Color("#eef0e6")
	DarkPrimary    = lipgloss.Color("#b5c98a")
	DarkAccent     = lipgloss.Color("#f0a040")
	DarkMuted      = lipgloss.Color("#6b7060")
	DarkSelection  = lipgloss.Color("#2a3020")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935") // RED rings, removal marks
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107") // MSD rings
	Info        = lipgloss.Color("#2196F3")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Selection  lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Selection:  LightSelection,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Selection:  DarkSelection,
		IsDark:     true,
	}
}

// DetectTheme picks the dark theme for dark terminal backgrounds or when
// DANGERCLOSE_DARK_MODE=1, the light theme otherwise.
func DetectTheme() Theme {
	// COLORFGBG is "foreground;background"
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}

	if os.Getenv("DANGERCLOSE_DARK_MODE") == "1" {
		return DarkTheme()
	}

	return LightTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header lipgloss.Style
	Footer lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style

	// Rows
	Row      lipgloss.Style
	Selected lipgloss.Style
	Category lipgloss.Style
	Active   lipgloss.Style
	Favorite lipgloss.Style
	Marked   lipgloss.Style

	// Badges
	RED  lipgloss.Style
	MSD  lipgloss.Style
	Mode lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Search
	Prompt lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#ffffff"))

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(theme.Background).
			Padding(0, 1).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			PaddingTop(1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Row: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2),

		Selected: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Selection).
			Bold(true).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent),

		Category: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Active: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Favorite: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Marked: lipgloss.NewStyle().
			Foreground(Destructive).
			Strikethrough(true),

		RED:  badge.Background(Destructive),
		MSD:  badge.Background(Warning).Foreground(lipgloss.Color("#000000")),
		Mode: badge.Background(Info),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
