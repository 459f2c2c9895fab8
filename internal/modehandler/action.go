package modehandler

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/input"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/lsp"
	"github.com/bethropolis/ebb/internal/types"
)

// handleNormal executes an action in normal mode.
func (mh *ModeHandler) handleNormal(ae input.ActionEvent) bool {
	actionProcessed := true

	if ae.Action.IsMovement() {
		if ae.Shift {
			if !mh.editor.SelectionActive() {
				mh.editor.StartSelection()
			}
		} else {
			mh.editor.ClearSelection()
		}
	}

	switch ae.Action {
	case input.ActionEnterCommandMode:
		mh.editor.ClearSelection()
		mh.push(Mode{Kind: KindCommand})

	case input.ActionQuit: // Esc
		switch {
		case mh.editor.SelectionActive():
			mh.editor.ClearSelection()
		case mh.editor.Buffer().IsModified() && !mh.forceQuitPending:
			mh.statusBar.SetMessage(event.MessageWarning, "Unsaved changes! Press ESC again or Ctrl+Q to force quit.")
			mh.forceQuitPending = true
			return true
		default:
			mh.quit()
			return false
		}
	case input.ActionForceQuit:
		mh.quit()
		return false

	case input.ActionSave:
		mh.editor.ClearSelection()
		if err := mh.editor.Save(""); err != nil {
			mh.statusBar.SetMessage(event.MessageError, "Save FAILED: %v", err)
		} else {
			mh.statusBar.SetTemporaryMessage("Buffer saved to %s", mh.editor.Buffer().FilePath())
		}

	case input.ActionMoveUp:
		mh.editor.MoveCursor(-1, 0)
	case input.ActionMoveDown:
		mh.editor.MoveCursor(1, 0)
	case input.ActionMoveLeft:
		mh.editor.MoveCursor(0, -1)
	case input.ActionMoveRight:
		mh.editor.MoveCursor(0, 1)
	case input.ActionMoveWordLeft:
		mh.editor.MoveWord(false)
	case input.ActionMoveWordRight:
		mh.editor.MoveWord(true)
	case input.ActionMovePageUp:
		mh.editor.PageMove(-1)
	case input.ActionMovePageDown:
		mh.editor.PageMove(1)
	case input.ActionMoveHome:
		mh.editor.Home()
	case input.ActionMoveEnd:
		mh.editor.End()

	case input.ActionInsertRune:
		mh.editor.InsertRune(ae.Rune)
		if ae.Rune == '(' || ae.Rune == ',' {
			mh.signatureHelpQuietly()
		}
	case input.ActionInsertNewLine:
		mh.editor.InsertNewLine()
	case input.ActionInsertTab:
		mh.editor.InsertTab()
	case input.ActionDeleteCharBackward:
		mh.editor.DeleteBackward()
	case input.ActionDeleteCharForward:
		mh.editor.DeleteForward()
	case input.ActionDeleteLine:
		mh.editor.DeleteLine()
	case input.ActionSelectWord:
		if !mh.editor.SelectWord() {
			actionProcessed = false
		}

	case input.ActionYank:
		copied, err := mh.editor.Yank()
		switch {
		case err != nil:
			mh.statusBar.SetMessage(event.MessageError, "Yank failed: %v", err)
		case copied:
			mh.statusBar.SetTemporaryMessage("Text copied to clipboard")
		default:
			mh.statusBar.SetTemporaryMessage("Nothing selected to copy")
		}
	case input.ActionCut:
		cut, err := mh.editor.Cut()
		if err != nil {
			mh.statusBar.SetMessage(event.MessageError, "Cut failed: %v", err)
		} else if !cut {
			mh.statusBar.SetTemporaryMessage("Nothing selected to cut")
		}
	case input.ActionPaste:
		pasted, err := mh.editor.Paste()
		if err != nil {
			mh.statusBar.SetMessage(event.MessageError, "Paste failed: %v", err)
		} else if !pasted {
			mh.statusBar.SetTemporaryMessage("Clipboard empty - nothing to paste")
		}

	case input.ActionUndo:
		if !mh.editor.Undo() {
			mh.statusBar.SetTemporaryMessage("Nothing to undo")
		}
	case input.ActionRedo:
		if !mh.editor.Redo() {
			mh.statusBar.SetTemporaryMessage("Nothing to redo")
		}

	case input.ActionHover:
		mh.requestFeature("Hover", Features.Hover)
	case input.ActionCompletion:
		mh.requestFeature("Completion", Features.Completion)
	case input.ActionSignatureHelp:
		mh.requestFeature("Signature help", Features.SignatureHelp)
	case input.ActionDefinition:
		mh.requestFeature("Definition", Features.Definition)
	case input.ActionReferences:
		mh.requestFeature("References", Features.References)
	case input.ActionRename:
		mh.startRename()

	default:
		actionProcessed = false
	}

	if ae.Action != input.ActionQuit && actionProcessed {
		mh.forceQuitPending = false
	}
	return actionProcessed
}

// signatureHelpQuietly asks for signature help after typing a trigger
// character; failures are only logged.
func (mh *ModeHandler) signatureHelpQuietly() {
	if mh.features == nil {
		return
	}
	if err := mh.features.SignatureHelp(mh.editor.Buffer(), mh.editor.Cursor()); err != nil {
		logger.DebugTagf("mode", "ModeHandler: signature help: %v", err)
	}
}

// startRename opens the rename prompt prefilled with the word under the
// cursor.
func (mh *ModeHandler) startRename() {
	word, start, ok := mh.editor.WordUnderCursor()
	if !ok {
		mh.statusBar.SetMessage(event.MessageWarning, "No identifier under cursor")
		return
	}
	mh.editor.ClearSelection()
	mh.push(Mode{Kind: KindRename, Input: []rune(word), Anchor: start})
}

// Rename asks the server to rename the symbol under the cursor.
func (mh *ModeHandler) Rename(newName string) error {
	if mh.features == nil {
		return lsp.ErrNoServer
	}
	return mh.features.Rename(mh.editor.Buffer(), mh.editor.Cursor(), newName)
}

// RequestAtCursor runs a position-based feature at the cursor, for the
// command line.
func (mh *ModeHandler) RequestAtCursor(call func(Features, *buffer.Buffer, types.Position) error) error {
	if mh.features == nil {
		return lsp.ErrNoServer
	}
	return call(mh.features, mh.editor.Buffer(), mh.editor.Cursor())
}
