// Package core ties a buffer to its cursor, selection, transaction log and
// viewport, and implements the editing commands the input layer invokes.
package core

import (
	"regexp"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/core/clipboard"
	"github.com/bethropolis/ebb/internal/core/cursor"
	"github.com/bethropolis/ebb/internal/core/history"
	"github.com/bethropolis/ebb/internal/core/selection"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

// Editor is the editing session for one buffer. All methods run on the main
// loop goroutine.
type Editor struct {
	buffer    *buffer.Buffer
	cursor    *cursor.Cursor
	selection selection.Selection
	history   *history.Manager
	clipboard *clipboard.Manager
	events    *event.Manager
	cfg       config.EditorConfig

	lastSearch *regexp.Regexp

	ViewportY  int // Top visible line index (0-based)
	ViewportX  int // Leftmost visible screen column
	viewWidth  int
	viewHeight int
	ScrollOff  int
}

// NewEditor creates an editor over buf. events may be nil.
func NewEditor(buf *buffer.Buffer, cfg config.EditorConfig, events *event.Manager) *Editor {
	if buf == nil {
		buf = buffer.New()
	}
	return &Editor{
		buffer:    buf,
		cursor:    cursor.New(),
		history:   history.NewManager(cfg.UndoLevels, cfg.CoalesceLimit),
		clipboard: clipboard.NewManager(cfg.SystemClipboard),
		events:    events,
		cfg:       cfg,
		ScrollOff: cfg.ScrollOff,
	}
}

// Buffer returns the edited buffer. The renderer reads it; only the editor
// mutates it.
func (e *Editor) Buffer() *buffer.Buffer { return e.buffer }

// Cursor returns the caret position.
func (e *Editor) Cursor() types.Position { return e.cursor.Position() }

// History exposes the transaction log.
func (e *Editor) History() *history.Manager { return e.history }

// Clipboard exposes the clipboard manager.
func (e *Editor) Clipboard() *clipboard.Manager { return e.clipboard }

// Config returns the editor settings.
func (e *Editor) Config() config.EditorConfig { return e.cfg }

// Selection returns the normalized selected range, if any.
func (e *Editor) Selection() (from, to types.Position, ok bool) {
	return e.selection.Get()
}

// HasSelection reports a non-empty selection.
func (e *Editor) HasSelection() bool {
	_, _, ok := e.selection.Get()
	return ok
}

// SelectionActive reports whether selecting is in progress, even if empty.
func (e *Editor) SelectionActive() bool { return e.selection.Active() }

// ClearSelection collapses the selection.
func (e *Editor) ClearSelection() { e.selection.Collapse() }

// StartSelection anchors a selection at the cursor if none is active.
func (e *Editor) StartSelection() { e.selection.Start(e.cursor.Position()) }

// SetViewSize updates the cached view dimensions. Called on resize.
func (e *Editor) SetViewSize(width, height int) {
	e.viewWidth = width
	if height > config.StatusBarHeight {
		e.viewHeight = height - config.StatusBarHeight
	} else {
		e.viewHeight = 0
	}
	e.ScrollOff = e.cfg.ScrollOff
	if e.ScrollOff*2 >= e.viewHeight {
		e.ScrollOff = 0
		if e.viewHeight > 0 {
			e.ScrollOff = (e.viewHeight - 1) / 2
		}
	}
	e.ScrollToCursor()
}

// ViewSize returns the text area dimensions.
func (e *Editor) ViewSize() (int, int) { return e.viewWidth, e.viewHeight }

// ApplyEdit applies one edit, publishes it, keeps cursor and selection valid
// and returns the inverse. It is the history.Applier used by undo and redo;
// it does not record anything itself.
func (e *Editor) ApplyEdit(ed buffer.Edit) buffer.Edit {
	inv := e.buffer.Apply(ed)
	if !inv.IsEmpty() {
		e.events.Dispatch(event.TypeBufferModified, event.BufferModifiedData{
			Buffer: e.buffer,
			Change: buffer.Change{Edit: inv.Invert(), Version: e.buffer.Version()},
		})
	}
	e.cursor.Clamp(e.buffer)
	e.selection.Clamp(e.buffer)
	return inv
}

// apply performs ed as actor, records it, and leaves the cursor at the end
// of the inserted text.
func (e *Editor) apply(ed buffer.Edit, actor history.Actor) buffer.Edit {
	before := e.cursor.Position()
	inv := e.ApplyEdit(ed)
	after := inv.Invert().NewEnd()
	e.history.Record(inv, actor, before, after)
	e.cursor.Set(e.buffer, after)
	return inv
}

// Undo reverts the latest transaction. Returns false when there is nothing
// to undo.
func (e *Editor) Undo() bool {
	e.selection.Collapse()
	pos, ok := e.history.Undo(e)
	if !ok {
		return false
	}
	e.cursor.Set(e.buffer, pos)
	e.cursorMoved()
	return true
}

// Redo reapplies the latest undone transaction.
func (e *Editor) Redo() bool {
	e.selection.Collapse()
	pos, ok := e.history.Redo(e)
	if !ok {
		return false
	}
	e.cursor.Set(e.buffer, pos)
	e.cursorMoved()
	return true
}

// Save writes the buffer to path, or its own path when path is empty.
func (e *Editor) Save(path string) error {
	e.history.Boundary()
	if err := e.buffer.Save(path); err != nil {
		return err
	}
	logger.Infof("Editor: saved %s", e.buffer.FilePath())
	e.events.Dispatch(event.TypeBufferSaved, event.BufferSavedData{Buffer: e.buffer, FilePath: e.buffer.FilePath()})
	return nil
}

func (e *Editor) cursorMoved() {
	if e.selection.Active() {
		e.selection.Extend(e.cursor.Position(), e.cursor.Position())
	}
	e.ScrollToCursor()
	e.events.Dispatch(event.TypeCursorMoved, event.CursorMovedData{NewPosition: e.cursor.Position()})
}
