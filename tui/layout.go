package tui

import (
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/floatchat/drag"
)

const (
	minPanelWidth  = 24
	minPanelHeight = 9

	// border, header, separator, separator, quick replies, input
	panelChromeRows = 7

	closeButton    = "[x]"
	minimizeButton = "[-]"
)

// Screen holds the terminal size. It is safe to read from any goroutine
// and serves as the drag controller's viewport source.
type Screen struct {
	width, height atomic.Int64
}

// NewScreen returns a screen with an initial size.
func NewScreen(width, height int) *Screen {
	s := &Screen{}
	s.Set(width, height)
	return s
}

// Set records a new terminal size.
func (s *Screen) Set(width, height int) {
	s.width.Store(int64(width))
	s.height.Store(int64(height))
}

// Extent returns the current terminal size.
func (s *Screen) Extent() drag.Extent {
	return drag.Extent{Width: int(s.width.Load()), Height: int(s.height.Load())}
}

// fitPanel shrinks the configured panel size to what the screen can hold.
func fitPanel(want, screen drag.Extent) drag.Extent {
	return drag.Extent{
		Width:  max(min(want.Width, screen.Width), minPanelWidth),
		Height: max(min(want.Height, screen.Height-1), minPanelHeight),
	}
}

// rect is a screen rectangle in cells.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// panelGeometry locates the interactive parts of the open panel.
type panelGeometry struct {
	box      rect
	header   rect
	close    rect
	minimize rect
}

func newPanelGeometry(pos drag.Coordinate, size drag.Extent) panelGeometry {
	innerRight := pos.X + size.Width - 1 // border column
	headerRow := pos.Y + 1
	closeX := innerRight - len(closeButton)
	return panelGeometry{
		box:      rect{x: pos.X, y: pos.Y, w: size.Width, h: size.Height},
		header:   rect{x: pos.X, y: pos.Y, w: size.Width, h: 2},
		close:    rect{x: closeX, y: headerRow, w: len(closeButton), h: 1},
		minimize: rect{x: closeX - 1 - len(minimizeButton), y: headerRow, w: len(minimizeButton), h: 1},
	}
}

// anchorRect places a one-line label of the given width at the
// bottom-right corner of the screen, shifted by offset and kept on screen.
func anchorRect(screen drag.Extent, width int, offset drag.Coordinate) rect {
	x := screen.Width - width - 2 + offset.X
	y := screen.Height - 3 + offset.Y
	x = min(max(x, 0), max(screen.Width-width, 0))
	y = min(max(y, 0), max(screen.Height-1, 0))
	return rect{x: x, y: y, w: width, h: 1}
}

// compose draws block at (x, y) on a blank screen and overlays the fixed
// lines (row index → content) wherever the block does not cover them.
func compose(screen drag.Extent, x, y int, block string, fixed map[int]string) string {
	rows := make([]string, max(screen.Height, 0))
	for i, line := range fixed {
		if i >= 0 && i < len(rows) {
			rows[i] = line
		}
	}
	if block != "" {
		pad := strings.Repeat(" ", max(x, 0))
		for i, line := range strings.Split(block, "\n") {
			row := y + i
			if row < 0 || row >= len(rows) {
				continue
			}
			rows[row] = pad + line
		}
	}
	for i, row := range rows {
		if lipgloss.Width(row) > screen.Width && screen.Width > 0 {
			rows[i] = lipgloss.NewStyle().MaxWidth(screen.Width).Render(row)
		}
	}
	return strings.Join(rows, "\n")
}
