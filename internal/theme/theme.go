package theme

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title and active tab.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// TabStyle renders an inactive tab label.
var TabStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DoneStyle strikes through completed task titles.
var DoneStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Strikethrough(true)

// ErrorStyle renders error feedback in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// tagPalette holds the packed ARGB colors assigned to new tags.
var tagPalette = []uint32{
	0xFFF44336, // red
	0xFFE91E63, // pink
	0xFF9C27B0, // purple
	0xFF2196F3, // blue
	0xFF00BCD4, // cyan
	0xFF4CAF50, // green
	0xFF8BC34A, // light green
	0xFFFF9800, // orange
}

// RandomTagColor picks one of the palette colors.
func RandomTagColor() uint32 {
	return tagPalette[rand.Intn(len(tagPalette))]
}

// TagColor converts a packed ARGB value to a lipgloss color, dropping
// the alpha channel.
func TagColor(argb uint32) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%06X", argb&0xFFFFFF))
}

// TagChipStyle renders a tag name in its own color.
func TagChipStyle(argb uint32) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(TagColor(argb))
}
