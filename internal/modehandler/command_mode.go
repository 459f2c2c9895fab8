package modehandler

import (
	"strings"

	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/input"
	"github.com/bethropolis/ebb/internal/logger"
)

// handlePrompt edits the command line or rename prompt.
func (mh *ModeHandler) handlePrompt(ae input.ActionEvent) bool {
	m := mh.Current()

	switch ae.Action {
	case input.ActionInsertRune:
		m.Input = append(append([]rune(nil), m.Input...), ae.Rune)
		mh.replace(m)

	case input.ActionDeleteCharBackward:
		if len(m.Input) == 0 {
			mh.pop()
			logger.Debugf("ModeHandler: Leaving %s mode via Backspace", m.Kind)
			return true
		}
		m.Input = append([]rune(nil), m.Input[:len(m.Input)-1]...)
		mh.replace(m)

	case input.ActionInsertNewLine:
		mh.pop()
		text := strings.TrimSpace(string(m.Input))
		if m.Kind == KindCommand {
			mh.executeCommand(text)
		} else {
			mh.submitRename(m, text)
		}

	case input.ActionQuit:
		mh.pop()
		logger.Debugf("ModeHandler: Canceled %s mode via Escape", m.Kind)

	default:
		return false
	}
	return true
}

// executeCommand runs a command line.
func (mh *ModeHandler) executeCommand(line string) {
	if line == "" {
		return
	}
	if err := mh.commands.Execute(line); err != nil {
		mh.statusBar.SetMessage(event.MessageError, "%v", err)
	}
}

func (mh *ModeHandler) submitRename(m Mode, newName string) {
	word, _, _ := mh.editor.WordUnderCursor()
	if newName == "" || newName == word {
		return
	}
	if mh.editor.Cursor().Line != m.Anchor.Line {
		mh.statusBar.SetMessage(event.MessageWarning, "Cursor moved; rename cancelled")
		return
	}
	mh.featureError("Rename", mh.Rename(newName))
}
