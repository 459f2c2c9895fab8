package core

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/core/history"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Load replaces the buffer with the file at path and drops all history.
func (e *Editor) Load(path string) error {
	if err := e.buffer.Load(path); err != nil {
		return err
	}
	e.history.Clear()
	e.selection.Collapse()
	e.cursor.Set(e.buffer, types.Position{})
	e.ViewportX, e.ViewportY = 0, 0
	e.events.Dispatch(event.TypeBufferLoaded, event.BufferLoadedData{Buffer: e.buffer, FilePath: path})
	return nil
}

// Reload brings the buffer in line with the file on disk. Only the lines
// that differ are edited, in one undoable transaction, so unchanged lines
// keep their diagnostics and tokens. Returns the number of edits applied.
func (e *Editor) Reload() (int, error) {
	disk, err := e.buffer.ReadFile()
	if err != nil {
		return 0, err
	}
	current := e.buffer.String()
	if disk == current {
		e.buffer.MarkClean()
		return 0, nil
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(current, disk)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	e.history.Boundary()
	e.history.BeginGroup(history.ActorExternal, e.cursor.Position())
	applied := 0
	pos := types.Position{}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos = buffer.Advance(pos, d.Text)
		case diffmatchpatch.DiffDelete:
			inv := e.ApplyEdit(buffer.Edit{Kind: buffer.EditDeleteRange, Start: pos, Removed: d.Text})
			e.history.Record(inv, history.ActorExternal, e.cursor.Position(), e.cursor.Position())
			applied++
		case diffmatchpatch.DiffInsert:
			inv := e.ApplyEdit(buffer.Edit{Kind: buffer.EditInsertText, Start: pos, Inserted: d.Text})
			e.history.Record(inv, history.ActorExternal, e.cursor.Position(), e.cursor.Position())
			pos = buffer.Advance(pos, d.Text)
			applied++
		}
	}
	e.history.EndGroup()
	e.history.Boundary()
	e.buffer.MarkClean()
	e.cursorMoved()
	logger.Infof("Editor: reloaded %s from disk (%d edit(s))", e.buffer.FilePath(), applied)
	return applied, nil
}
