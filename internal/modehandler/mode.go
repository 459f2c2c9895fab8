package modehandler

import (
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/types"
)

// Kind names an input mode.
type Kind int

const (
	KindNormal Kind = iota
	KindCommand
	KindRename
	KindCompletion
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "COMMAND"
	case KindRename:
		return "RENAME"
	case KindCompletion:
		return "COMPLETION"
	}
	return "NORMAL"
}

// Mode is one entry of the mode stack. Modes are plain values; entering a
// mode pushes a copy and leaving it pops back to the previous one.
type Mode struct {
	Kind Kind

	// Input is the prompt text of the command line and rename prompt.
	Input []rune

	// Anchor is where a rename or completion was requested.
	Anchor types.Position

	Items    []event.CompletionItem
	Selected int
}

// Prompt is the status line text shown while the mode is active.
func (m Mode) Prompt() string {
	switch m.Kind {
	case KindCommand:
		return ":" + string(m.Input)
	case KindRename:
		return "Rename to: " + string(m.Input)
	}
	return ""
}
