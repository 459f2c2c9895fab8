package core

import (
	"sort"
	"strings"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/core/cursor"
	"github.com/bethropolis/ebb/internal/core/history"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

// InsertRune types r at the cursor, replacing any selection. Consecutive
// single characters coalesce into one undo step.
func (e *Editor) InsertRune(r rune) {
	if r == '\n' {
		e.InsertNewLine()
		return
	}
	if e.HasSelection() {
		e.history.BeginGroup(history.ActorUser, e.cursor.Position())
		defer e.history.EndGroup()
		e.deleteSelection()
	}
	e.selection.Collapse()
	e.apply(buffer.Edit{Kind: buffer.EditInsertChar, Start: e.cursor.Position(), Inserted: string(r)}, history.ActorUser)
	e.ScrollToCursor()
}

// InsertNewLine splits the line at the cursor. With auto_indent the new line
// copies the leading whitespace of the current one; split and indent undo
// together.
func (e *Editor) InsertNewLine() {
	e.history.BeginGroup(history.ActorUser, e.cursor.Position())
	defer e.history.EndGroup()

	if e.HasSelection() {
		e.deleteSelection()
	}
	e.selection.Collapse()
	pos := e.cursor.Position()
	e.apply(buffer.Edit{Kind: buffer.EditSplit, Start: pos, Inserted: "\n"}, history.ActorUser)

	if e.cfg.AutoIndent {
		line := e.buffer.LineText(pos.Line)
		n := cursor.Indent(line)
		if n > pos.Col {
			n = pos.Col
		}
		if n > 0 {
			indent := e.buffer.Line(pos.Line).Slice(0, n)
			e.apply(buffer.Edit{Kind: buffer.EditInsertText, Start: e.cursor.Position(), Inserted: indent}, history.ActorUser)
		}
	}
	e.ScrollToCursor()
}

// InsertTab inserts a tab character.
func (e *Editor) InsertTab() { e.InsertRune('\t') }

// InsertText inserts text (possibly spanning lines) at the cursor as one
// undo step, replacing any selection.
func (e *Editor) InsertText(text string) {
	if text == "" {
		return
	}
	e.history.BeginGroup(history.ActorUser, e.cursor.Position())
	defer e.history.EndGroup()
	if e.HasSelection() {
		e.deleteSelection()
	}
	e.selection.Collapse()
	e.apply(buffer.Edit{Kind: buffer.EditInsertText, Start: e.cursor.Position(), Inserted: text}, history.ActorUser)
	e.ScrollToCursor()
}

// DeleteBackward deletes the selection, or the character before the cursor
// (joining with the previous line at column 0).
func (e *Editor) DeleteBackward() {
	if e.HasSelection() {
		e.DeleteSelection()
		return
	}
	e.selection.Collapse()
	pos := e.cursor.Position()
	var prev types.Position
	switch {
	case pos.Col > 0:
		prev = types.Position{Line: pos.Line, Col: pos.Col - 1}
	case pos.Line > 0:
		prev = types.Position{Line: pos.Line - 1, Col: e.buffer.LineLen(pos.Line - 1)}
	default:
		return
	}
	e.deleteCharAt(prev)
}

// DeleteForward deletes the selection, or the character under the cursor
// (joining the next line at a line end).
func (e *Editor) DeleteForward() {
	if e.HasSelection() {
		e.DeleteSelection()
		return
	}
	e.selection.Collapse()
	e.deleteCharAt(e.cursor.Position())
}

func (e *Editor) deleteCharAt(pos types.Position) {
	r, ok := e.buffer.CharAt(pos)
	if !ok {
		return
	}
	kind := buffer.EditDeleteChar
	if r == '\n' {
		kind = buffer.EditMerge
	}
	before := e.cursor.Position()
	e.cursor.Set(e.buffer, pos)
	inv := e.ApplyEdit(buffer.Edit{Kind: kind, Start: pos, Removed: string(r)})
	e.history.Record(inv, history.ActorUser, before, pos)
	e.cursor.Set(e.buffer, pos)
	e.ScrollToCursor()
}

// DeleteSelection removes the selected text. Returns false when nothing is
// selected.
func (e *Editor) DeleteSelection() bool {
	if !e.HasSelection() {
		return false
	}
	e.history.Boundary()
	e.deleteSelection()
	e.history.Boundary()
	e.ScrollToCursor()
	return true
}

func (e *Editor) deleteSelection() {
	from, to, ok := e.selection.Get()
	if !ok {
		return
	}
	e.selection.Collapse()
	e.cursor.Set(e.buffer, from)
	e.apply(buffer.Edit{Kind: buffer.EditDeleteRange, Start: from, Removed: e.buffer.TextRange(from, to)}, history.ActorUser)
}

// DeleteLine removes the cursor's line. The last remaining line is emptied
// instead.
func (e *Editor) DeleteLine() {
	line := e.cursor.Position().Line
	count := e.buffer.LineCount()
	var from, to types.Position
	switch {
	case line < count-1:
		from, to = types.Position{Line: line}, types.Position{Line: line + 1}
	case line > 0:
		from = types.Position{Line: line - 1, Col: e.buffer.LineLen(line - 1)}
		to = types.Position{Line: line, Col: e.buffer.LineLen(line)}
	default:
		from, to = types.Position{}, types.Position{Col: e.buffer.LineLen(0)}
	}
	e.history.Boundary()
	before := e.cursor.Position()
	inv := e.ApplyEdit(buffer.Edit{Kind: buffer.EditDeleteRange, Start: from, Removed: e.buffer.TextRange(from, to)})
	target := types.Position{Line: line, Col: before.Col}
	e.history.Record(inv, history.ActorUser, before, e.buffer.Clamp(target))
	e.history.Boundary()
	e.cursor.Set(e.buffer, target)
	e.cursorMoved()
}

// ApplyTextEdits applies a batch of non-overlapping replacements as one
// transaction attributed to the language server. Edits are applied from the
// end of the document backwards so earlier ranges stay valid.
func (e *Editor) ApplyTextEdits(edits []buffer.TextEdit) {
	e.applyTextEdits(edits, history.ActorServer)
}

// ReplaceRange replaces r with text as one user undo step.
func (e *Editor) ReplaceRange(r types.Range, text string) {
	e.applyTextEdits([]buffer.TextEdit{{Range: r, NewText: text}}, history.ActorUser)
}

func (e *Editor) applyTextEdits(edits []buffer.TextEdit, actor history.Actor) {
	if len(edits) == 0 {
		return
	}
	sorted := make([]buffer.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].Range.Start.Before(sorted[i].Range.Start)
	})

	pos := e.cursor.Position()
	e.history.BeginGroup(actor, pos)
	for _, te := range sorted {
		r := types.NewRange(e.buffer.Clamp(te.Range.Start), e.buffer.Clamp(te.Range.End))
		removed := e.buffer.TextRange(r.Start, r.End)
		inv := e.ApplyEdit(buffer.Edit{Kind: buffer.EditReplace, Start: r.Start, Removed: removed, Inserted: te.NewText})
		pos = shift(pos, r, te.NewText)
		e.history.Record(inv, actor, e.cursor.Position(), pos)
	}
	e.history.EndGroup()
	e.selection.Collapse()
	e.cursor.Set(e.buffer, pos)
	e.cursorMoved()
	logger.Debugf("Editor: applied %d text edit(s) as %s", len(sorted), actor)
}

// shift maps pos across the replacement of r by text.
func shift(pos types.Position, r types.Range, text string) types.Position {
	if pos.Before(r.Start) {
		return pos
	}
	newEnd := buffer.Advance(r.Start, text)
	if pos.Before(r.End) {
		return newEnd
	}
	if pos.Line == r.End.Line {
		return types.Position{Line: newEnd.Line, Col: newEnd.Col + pos.Col - r.End.Col}
	}
	return types.Position{Line: pos.Line + newEnd.Line - r.End.Line, Col: pos.Col}
}

// Yank copies the selection to the clipboard and clears it.
func (e *Editor) Yank() (bool, error) {
	text := e.SelectionText()
	if text == "" {
		return false, nil
	}
	e.selection.Collapse()
	err := e.clipboard.Copy(text)
	logger.Debugf("Editor: yanked %d bytes", len(text))
	return true, err
}

// Cut copies the selection and deletes it.
func (e *Editor) Cut() (bool, error) {
	text := e.SelectionText()
	if text == "" {
		return false, nil
	}
	err := e.clipboard.Copy(text)
	e.DeleteSelection()
	return true, err
}

// Paste inserts the clipboard text as one undo step.
func (e *Editor) Paste() (bool, error) {
	text, err := e.clipboard.Paste()
	if err != nil || text == "" {
		return false, err
	}
	e.InsertText(strings.ReplaceAll(text, "\r\n", "\n"))
	e.history.Boundary()
	return true, nil
}
