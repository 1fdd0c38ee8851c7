package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stewardapostol/clientele/internal/theme"
)

// Layout manages the terminal layout dimensions shared by all views.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar: the application title on the
// left, the tab strip in the middle and account info on the right.
func (l Layout) RenderHeader(title string, tabs []string, active int, account string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	var strip []string
	for i, name := range tabs {
		if i == active {
			strip = append(strip, theme.HeaderStyle.Render(name))
		} else {
			strip = append(strip, theme.TabStyle.Render(name))
		}
	}
	tabsRendered := strings.Join(strip, "")

	accountRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(account)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(tabsRendered) -
		lipgloss.Width(accountRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		tabsRendered,
		filler,
		accountRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints or
// transient feedback.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}
