package core

import (
	"github.com/bethropolis/ebb/internal/core/cursor"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

// SelectionText returns the selected text, or "" when nothing is selected.
func (e *Editor) SelectionText() string {
	from, to, ok := e.selection.Get()
	if !ok {
		return ""
	}
	return e.buffer.TextRange(from, to)
}

// SelectWord selects the word under the cursor. Returns false when the
// cursor is not on a word.
func (e *Editor) SelectWord() bool {
	pos := e.cursor.Position()
	start, end, ok := cursor.WordAt(e.buffer.LineText(pos.Line), pos.Col)
	if !ok {
		return false
	}
	e.history.Boundary()
	e.selection.Collapse()
	e.selection.Extend(types.Position{Line: pos.Line, Col: start}, types.Position{Line: pos.Line, Col: end})
	e.cursor.Set(e.buffer, types.Position{Line: pos.Line, Col: end})
	e.ScrollToCursor()
	logger.DebugTagf("core", "SelectWord: %d..%d on line %d", start, end, pos.Line)
	return true
}

// WordUnderCursor returns the word under the cursor and its start.
func (e *Editor) WordUnderCursor() (string, types.Position, bool) {
	pos := e.cursor.Position()
	l := e.buffer.Line(pos.Line)
	start, end, ok := cursor.WordAt(l.Text(), pos.Col)
	if !ok {
		return "", pos, false
	}
	return l.Slice(start, end), types.Position{Line: pos.Line, Col: start}, true
}
