package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testConfig() config.EditorConfig {
	cfg := config.NewDefaultConfig().Editor
	cfg.SystemClipboard = false
	return cfg
}

func newTestEditor(text string) *Editor {
	return NewEditor(buffer.NewFromString(text), testConfig(), event.NewManager())
}

func pos(line, col int) types.Position { return types.Position{Line: line, Col: col} }

func TestThreeInsertsUndoAsOne(t *testing.T) {
	e := newTestEditor("")
	e.InsertRune('a')
	e.InsertRune('b')
	e.InsertRune('c')
	require.Equal(t, "abc", e.Buffer().String())
	assert.Equal(t, 1, e.History().UndoDepth())

	require.True(t, e.Undo())
	assert.Equal(t, "", e.Buffer().String())
	assert.Equal(t, pos(0, 0), e.Cursor())
}

func TestMovementBreaksCoalescing(t *testing.T) {
	e := newTestEditor("")
	e.InsertRune('a')
	e.MoveCursor(0, -1)
	e.MoveCursor(0, 1)
	e.InsertRune('b')
	assert.Equal(t, 2, e.History().UndoDepth())
}

func TestBackspaceRunUndoesTogether(t *testing.T) {
	e := newTestEditor("hello")
	e.End()
	e.DeleteBackward()
	e.DeleteBackward()
	e.DeleteBackward()
	require.Equal(t, "he", e.Buffer().String())

	require.True(t, e.Undo())
	assert.Equal(t, "hello", e.Buffer().String())
	assert.Equal(t, pos(0, 5), e.Cursor())
}

func TestRedoClearedByNewEdit(t *testing.T) {
	e := newTestEditor("")
	e.InsertRune('x')
	e.Undo()
	require.True(t, e.History().CanRedo())
	e.InsertRune('y')
	assert.False(t, e.History().CanRedo())
	assert.False(t, e.Redo())
	assert.Equal(t, "y", e.Buffer().String())
}

func TestUndoRedoUnderflowIsNoop(t *testing.T) {
	e := newTestEditor("abc")
	assert.False(t, e.Undo())
	assert.False(t, e.Redo())
	assert.Equal(t, "abc", e.Buffer().String())
}

func TestEditsThenUndosRestoreContentAndCursor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.SampledFrom([]string{"", "abc", "héllo\nwörld", "a𝄞b\n\tx\n"}).Draw(t, "initial")
		e := newTestEditor(initial)
		start := e.Buffer().Clamp(pos(rapid.IntRange(0, 3).Draw(t, "line"), rapid.IntRange(0, 5).Draw(t, "col")))
		e.SetCursor(start)

		n := rapid.IntRange(1, 40).Draw(t, "n")
		for i := 0; i < n; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				e.InsertRune(rapid.SampledFrom([]rune{'a', 'é', '𝄞', ' ', '\t'}).Draw(t, "r"))
			case 1:
				e.InsertNewLine()
			case 2:
				e.DeleteBackward()
			case 3:
				e.DeleteForward()
			case 4:
				e.InsertText(rapid.SampledFrom([]string{"x\ny", "ü", "\n\n"}).Draw(t, "text"))
			}
		}
		for i := 0; i < n; i++ {
			e.Undo()
		}
		if got := e.Buffer().String(); got != initial {
			t.Fatalf("content after undo = %q, want %q", got, initial)
		}
		if e.Cursor() != start {
			t.Fatalf("cursor after undo = %v, want %v", e.Cursor(), start)
		}
	})
}

func TestAutoIndentUndoesWithNewline(t *testing.T) {
	e := newTestEditor("\tfoo")
	e.End()
	e.InsertNewLine()
	require.Equal(t, "\tfoo\n\t", e.Buffer().String())
	assert.Equal(t, pos(1, 1), e.Cursor())

	require.True(t, e.Undo())
	assert.Equal(t, "\tfoo", e.Buffer().String())
	assert.Equal(t, pos(0, 4), e.Cursor())
}

func TestTypingReplacesSelection(t *testing.T) {
	e := newTestEditor("hello world")
	e.StartSelection()
	e.MoveCursor(0, 5)
	require.Equal(t, "hello", e.SelectionText())

	e.InsertRune('J')
	assert.Equal(t, "J world", e.Buffer().String())
	assert.False(t, e.HasSelection())

	require.True(t, e.Undo())
	assert.Equal(t, "hello world", e.Buffer().String())
}

func TestDeleteLineUnderSelectionClamps(t *testing.T) {
	e := newTestEditor("one\ntwo\nthree")
	e.SetCursor(pos(2, 1))
	e.StartSelection()
	e.MoveCursor(0, 3)
	require.True(t, e.HasSelection())

	e.DeleteLine()
	assert.Equal(t, "one\ntwo", e.Buffer().String())
	assert.True(t, e.Buffer().Valid(e.selection.Anchor()), "anchor %v", e.selection.Anchor())
	assert.True(t, e.Buffer().Valid(e.selection.Head()), "head %v", e.selection.Head())
	assert.True(t, e.Buffer().Valid(e.Cursor()))
}

func TestDeleteOnlyLineEmptiesIt(t *testing.T) {
	e := newTestEditor("solo")
	e.DeleteLine()
	assert.Equal(t, "", e.Buffer().String())
	assert.Equal(t, 1, e.Buffer().LineCount())
}

func TestYankAndPasteOverSelection(t *testing.T) {
	e := newTestEditor("abc def")
	e.StartSelection()
	e.MoveCursor(0, 3)
	ok, err := e.Yank()
	require.NoError(t, err)
	require.True(t, ok)

	e.SetCursor(pos(0, 4))
	e.StartSelection()
	e.End()
	ok, err = e.Paste()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc abc", e.Buffer().String())

	require.True(t, e.Undo())
	assert.Equal(t, "abc def", e.Buffer().String())
}

func TestApplyTextEditsIsOneTransaction(t *testing.T) {
	e := newTestEditor("foo := 1\nprint(foo)")
	e.SetCursor(pos(1, 8))
	e.ApplyTextEdits([]buffer.TextEdit{
		{Range: types.Range{Start: pos(0, 0), End: pos(0, 3)}, NewText: "counter"},
		{Range: types.Range{Start: pos(1, 6), End: pos(1, 9)}, NewText: "counter"},
	})
	require.Equal(t, "counter := 1\nprint(counter)", e.Buffer().String())
	assert.Equal(t, pos(1, 13), e.Cursor(), "cursor inside a replaced range moves to its end")

	require.True(t, e.Undo())
	assert.Equal(t, "foo := 1\nprint(foo)", e.Buffer().String())
	assert.False(t, e.History().CanUndo())
}

func TestModifiedEventsCarryForwardEdits(t *testing.T) {
	events := event.NewManager()
	var changes []buffer.Change
	events.Subscribe(event.TypeBufferModified, func(ev event.Event) bool {
		changes = append(changes, ev.Data.(event.BufferModifiedData).Change)
		return false
	})
	e := NewEditor(buffer.NewFromString("ab"), testConfig(), events)
	e.SetCursor(pos(0, 1))
	e.InsertRune('é')
	e.DeleteForward()

	require.Len(t, changes, 2)
	assert.Equal(t, buffer.Edit{Kind: buffer.EditInsertChar, Start: pos(0, 1), Inserted: "é"}, changes[0].Edit)
	assert.Equal(t, buffer.Edit{Kind: buffer.EditDeleteChar, Start: pos(0, 2), Removed: "b"}, changes[1].Edit)
	assert.Less(t, changes[0].Version, changes[1].Version)

	e.Undo()
	require.Len(t, changes, 3, "undo publishes its edits too")
	assert.Equal(t, buffer.Edit{Kind: buffer.EditInsertChar, Start: pos(0, 2), Inserted: "b"}, changes[2].Edit)
}

func TestReloadDiffsAgainstDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc"), 0644))

	e := newTestEditor("")
	require.NoError(t, e.Load(path))
	e.Buffer().SetDiagnostics("gopls", []buffer.Diagnostic{{Range: types.Range{Start: pos(0, 0), End: pos(0, 1)}, Message: "keep me"}})

	require.NoError(t, os.WriteFile(path, []byte("a\nB\nc\nd"), 0644))
	n, err := e.Reload()
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, "a\nB\nc\nd", e.Buffer().String())
	assert.False(t, e.Buffer().IsModified())
	require.Len(t, e.Buffer().Diagnostics(0), 1, "untouched line keeps its diagnostics")

	require.True(t, e.Undo())
	assert.Equal(t, "a\nb\nc", e.Buffer().String())

	n, err = e.Reload()
	require.NoError(t, err)
	assert.Positive(t, n)
	n, err = e.Reload()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVisualColumn(t *testing.T) {
	assert.Equal(t, 0, VisualColumn("abc", 0, 4))
	assert.Equal(t, 4, VisualColumn("\tx", 1, 4))
	assert.Equal(t, 4, VisualColumn("日本", 2, 4))
}
