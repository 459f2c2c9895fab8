package core

import (
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/rivo/uniseg"
)

// Every movement closes the open transaction so typing after a jump starts
// a new undo step.
func (e *Editor) moved() {
	e.history.Boundary()
	e.cursorMoved()
}

// MoveCursor moves by lines or characters. Horizontal moves wrap across
// line ends; vertical moves keep the goal column.
func (e *Editor) MoveCursor(deltaLine, deltaCol int) {
	if deltaLine != 0 {
		e.cursor.MoveLine(e.buffer, deltaLine)
	}
	if deltaCol != 0 {
		e.cursor.MoveChar(e.buffer, deltaCol)
	}
	e.moved()
	logger.DebugTagf("core", "MoveCursor: Delta(%d,%d) → %v", deltaLine, deltaCol, e.cursor.Position())
}

// MoveWord moves to the next or previous word start.
func (e *Editor) MoveWord(forward bool) {
	e.cursor.MoveWord(e.buffer, forward)
	e.moved()
}

// Home moves to the first non-blank character, then to column 0.
func (e *Editor) Home() {
	e.cursor.FirstNonBlank(e.buffer)
	e.moved()
}

// End moves past the last character of the line.
func (e *Editor) End() {
	e.cursor.LineEnd(e.buffer)
	e.moved()
}

// SetCursor jumps to pos, clamped.
func (e *Editor) SetCursor(pos types.Position) {
	e.cursor.Set(e.buffer, pos)
	e.moved()
}

// PageMove moves the cursor and viewport by whole pages.
func (e *Editor) PageMove(deltaPages int) {
	if e.viewHeight <= 0 {
		return
	}
	e.cursor.MoveLine(e.buffer, e.viewHeight*deltaPages)

	e.ViewportY += e.viewHeight * deltaPages
	maxViewportY := e.buffer.LineCount() - e.viewHeight
	if maxViewportY < 0 {
		maxViewportY = 0
	}
	if e.ViewportY > maxViewportY {
		e.ViewportY = maxViewportY
	}
	if e.ViewportY < 0 {
		e.ViewportY = 0
	}
	e.moved()
}

// VisualColumn returns the screen column of character index col in line,
// counting grapheme widths and expanding tabs.
func VisualColumn(line string, col, tabWidth int) int {
	width := 0
	at := 0
	gr := uniseg.NewGraphemes(line)
	for gr.Next() && at < col {
		if gr.Str() == "\t" {
			width += tabWidth - width%tabWidth
		} else {
			width += gr.Width()
		}
		at += len(gr.Runes())
	}
	return width
}

// ScrollToCursor adjusts the viewport so the cursor is visible with
// ScrollOff lines of context.
func (e *Editor) ScrollToCursor() {
	if e.viewHeight <= 0 || e.viewWidth <= 0 {
		return
	}
	pos := e.cursor.Position()

	if pos.Line < e.ViewportY+e.ScrollOff {
		e.ViewportY = pos.Line - e.ScrollOff
	} else if pos.Line >= e.ViewportY+e.viewHeight-e.ScrollOff {
		e.ViewportY = pos.Line - e.viewHeight + 1 + e.ScrollOff
	}

	visualCol := VisualColumn(e.buffer.LineText(pos.Line), pos.Col, e.tabWidth())
	if visualCol < e.ViewportX {
		e.ViewportX = visualCol
	} else if visualCol >= e.ViewportX+e.viewWidth {
		e.ViewportX = visualCol - e.viewWidth + 1
	}

	if e.ViewportY < 0 {
		e.ViewportY = 0
	}
	if e.ViewportX < 0 {
		e.ViewportX = 0
	}
}

func (e *Editor) tabWidth() int {
	if e.cfg.TabWidth > 0 {
		return e.cfg.TabWidth
	}
	return 4
}
