package modehandler

import (
	"unicode"

	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/input"
	"github.com/bethropolis/ebb/internal/types"
)

// onCompletion opens the completion menu for results that still match the
// cursor.
func (mh *ModeHandler) onCompletion(e event.Event) bool {
	d, ok := e.Data.(event.CompletionData)
	if !ok || mh.Current().Kind != KindNormal {
		return false
	}
	if d.FilePath != mh.editor.Buffer().FilePath() || d.Position != mh.editor.Cursor() {
		return false
	}
	if len(d.Items) == 0 {
		mh.statusBar.SetTemporaryMessage("No completions")
		return false
	}
	mh.push(Mode{Kind: KindCompletion, Anchor: d.Position, Items: d.Items})
	return false
}

// handleCompletion drives the completion menu. Keys the menu does not use
// close it and are handled in normal mode.
func (mh *ModeHandler) handleCompletion(ae input.ActionEvent) bool {
	m := mh.Current()
	switch ae.Action {
	case input.ActionMoveDown:
		m.Selected = (m.Selected + 1) % len(m.Items)
		mh.replace(m)
	case input.ActionMoveUp:
		m.Selected = (m.Selected - 1 + len(m.Items)) % len(m.Items)
		mh.replace(m)
	case input.ActionInsertNewLine, input.ActionInsertTab:
		mh.pop()
		mh.acceptCompletion(m.Items[m.Selected])
	case input.ActionQuit:
		mh.pop()
	default:
		mh.pop()
		return mh.handleNormal(ae)
	}
	return true
}

// acceptCompletion applies an item: its own edit when the server sent one,
// otherwise a replacement of the identifier prefix before the cursor.
func (mh *ModeHandler) acceptCompletion(item event.CompletionItem) {
	text := item.InsertText
	if text == "" {
		text = item.Label
	}
	if item.HasEdit {
		mh.editor.ReplaceRange(item.Range, text)
		return
	}
	pos := mh.editor.Cursor()
	start := types.Position{Line: pos.Line, Col: identStart(mh.editor.Buffer().LineText(pos.Line), pos.Col)}
	mh.editor.ReplaceRange(types.Range{Start: start, End: pos}, text)
}

// identStart returns the column where the identifier ending at col begins.
func identStart(line string, col int) int {
	runes := []rune(line)
	col = min(col, len(runes))
	start := col
	for start > 0 {
		r := runes[start-1]
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		start--
	}
	return start
}
