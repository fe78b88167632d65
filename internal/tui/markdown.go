package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer converts markdown answers to styled terminal output.
// The glamour renderer is cached and only rebuilt when the width changes.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdownRenderer(width int) *markdownRenderer {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// degrade to plain text
		return &markdownRenderer{width: width}
	}
	return &markdownRenderer{renderer: r, width: width}
}

// UpdateWidth rebuilds the renderer if the width actually changed.
func (m *markdownRenderer) UpdateWidth(width int) {
	if m == nil || width <= 0 || m.width == width {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	m.renderer = r
	m.width = width
}

// Render returns styled output, or the input unchanged when rendering is
// unavailable.
func (m *markdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil || markdown == "" {
		return markdown
	}
	out, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n") + "\n"
}
