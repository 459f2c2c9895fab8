package input

// Action represents a command or operation to be performed by the editor.
type Action int

const (
	ActionUnknown Action = iota
	ActionQuit           // Esc: cancel, then quit when clean
	ActionForceQuit
	ActionSave

	// Cursor movement; Shift extends the selection
	ActionMoveUp
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionMoveWordLeft
	ActionMoveWordRight
	ActionMovePageUp
	ActionMovePageDown
	ActionMoveHome
	ActionMoveEnd

	// Text manipulation
	ActionInsertRune
	ActionInsertNewLine
	ActionInsertTab
	ActionDeleteCharForward
	ActionDeleteCharBackward
	ActionDeleteLine
	ActionSelectWord
	ActionYank
	ActionCut
	ActionPaste
	ActionUndo
	ActionRedo

	// Language features
	ActionHover
	ActionCompletion
	ActionSignatureHelp
	ActionRename
	ActionDefinition
	ActionReferences

	ActionEnterCommandMode
)

// ActionEvent is a decoded key press.
type ActionEvent struct {
	Action Action
	Rune   rune // Used for ActionInsertRune
	Shift  bool // selection-extending movement
}

// IsMovement reports whether a is a cursor movement.
func (a Action) IsMovement() bool {
	return a >= ActionMoveUp && a <= ActionMoveEnd
}
