package buffer

import (
	"strings"

	"github.com/bethropolis/ebb/internal/types"
)

// EditKind names the operation an Edit performs.
type EditKind int

const (
	EditInsertChar EditKind = iota
	EditDeleteChar
	EditInsertText
	EditDeleteRange
	EditSplit
	EditMerge
	EditReplace
)

func (k EditKind) String() string {
	switch k {
	case EditInsertChar:
		return "insert-char"
	case EditDeleteChar:
		return "delete-char"
	case EditInsertText:
		return "insert-text"
	case EditDeleteRange:
		return "delete-range"
	case EditSplit:
		return "split"
	case EditMerge:
		return "merge"
	default:
		return "replace"
	}
}

func (k EditKind) inverse() EditKind {
	switch k {
	case EditInsertChar:
		return EditDeleteChar
	case EditDeleteChar:
		return EditInsertChar
	case EditInsertText:
		return EditDeleteRange
	case EditDeleteRange:
		return EditInsertText
	case EditSplit:
		return EditMerge
	case EditMerge:
		return EditSplit
	}
	return EditReplace
}

// Edit is one atomic content change: the text Removed starting at Start is
// replaced by Inserted. Both strings may span lines ("\n" separated).
type Edit struct {
	Kind     EditKind
	Start    types.Position
	Removed  string
	Inserted string
}

// Invert returns the edit that undoes e once e has been applied.
func (e Edit) Invert() Edit {
	return Edit{
		Kind:     e.Kind.inverse(),
		Start:    e.Start,
		Removed:  e.Inserted,
		Inserted: e.Removed,
	}
}

// IsEmpty reports whether applying e would change nothing.
func (e Edit) IsEmpty() bool { return e.Removed == "" && e.Inserted == "" }

// OldEnd is the end of the replaced text in pre-edit coordinates.
func (e Edit) OldEnd() types.Position { return Advance(e.Start, e.Removed) }

// NewEnd is the end of the inserted text in post-edit coordinates.
func (e Edit) NewEnd() types.Position { return Advance(e.Start, e.Inserted) }

// Advance returns the position reached by writing text at pos.
func Advance(pos types.Position, text string) types.Position {
	nl := strings.Count(text, "\n")
	if nl == 0 {
		return types.Position{Line: pos.Line, Col: pos.Col + runeCount(text)}
	}
	last := text[strings.LastIndexByte(text, '\n')+1:]
	return types.Position{Line: pos.Line + nl, Col: runeCount(last)}
}

// Change describes an applied edit for listeners such as the language client.
// The start line's text before Edit.Start is identical before and after the edit.
type Change struct {
	Edit    Edit
	Version uint64
}

// TextEdit replaces a character range with new text. Language server edits
// are converted to this form before they reach the editor.
type TextEdit struct {
	Range   types.Range
	NewText string
}
