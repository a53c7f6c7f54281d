package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders header and bar segments on one solid background. Each
// styled segment ends in an ANSI reset, so the spaces between segments must
// carry the background themselves or the bar shows gaps.
type BgStyle struct {
	bg    lipgloss.Color
	base  lipgloss.Style
	space string
}

// NewBgStyle returns a helper for the given background color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	base := lipgloss.NewStyle().Background(bg)
	return BgStyle{bg: bg, base: base, space: base.Render(" ")}
}

// Render applies style to every word of text and joins the words with
// background-colored spaces.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(b.bg)
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single background-colored space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n background-colored spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return b.base.Render(strings.Repeat(" ", n))
}

// Sep renders a separator on the background.
func (b BgStyle) Sep(sep string) string {
	return b.base.Render(sep)
}

// Join joins parts with a background-colored separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// Color returns the background color.
func (b BgStyle) Color() lipgloss.Color {
	return b.bg
}

// FillLine pads content with the background out to width.
func (b BgStyle) FillLine(content string, width int) string {
	return b.base.Width(width).Render(content)
}
