package input

import (
	"github.com/gdamore/tcell/v2"
)

// Keymap maps specific key events to editor actions.
type Keymap map[tcell.Key]Action        // For special keys (Enter, Arrows, etc.)
type RuneKeymap map[rune]Action         // For rune bindings under a modifier
type ModKeymap map[tcell.ModMask]Keymap // For keys combined with modifiers (Ctrl, Alt, Shift)

// InputProcessor translates tcell events into ActionEvents. Mode-specific
// interpretation is left to the mode handler.
type InputProcessor struct {
	keymap    Keymap
	altRunes  RuneKeymap
	modKeymap ModKeymap
}

// NewInputProcessor creates a processor with default keybindings.
func NewInputProcessor() *InputProcessor {
	p := &InputProcessor{
		keymap:    make(Keymap),
		altRunes:  make(RuneKeymap),
		modKeymap: make(ModKeymap),
	}
	p.loadDefaultBindings()
	return p
}

func (p *InputProcessor) loadDefaultBindings() {
	p.keymap[tcell.KeyUp] = ActionMoveUp
	p.keymap[tcell.KeyDown] = ActionMoveDown
	p.keymap[tcell.KeyLeft] = ActionMoveLeft
	p.keymap[tcell.KeyRight] = ActionMoveRight
	p.keymap[tcell.KeyPgUp] = ActionMovePageUp
	p.keymap[tcell.KeyPgDn] = ActionMovePageDown
	p.keymap[tcell.KeyHome] = ActionMoveHome
	p.keymap[tcell.KeyEnd] = ActionMoveEnd
	p.keymap[tcell.KeyEnter] = ActionInsertNewLine
	p.keymap[tcell.KeyTab] = ActionInsertTab
	p.keymap[tcell.KeyBackspace] = ActionDeleteCharBackward
	p.keymap[tcell.KeyBackspace2] = ActionDeleteCharBackward
	p.keymap[tcell.KeyDelete] = ActionDeleteCharForward
	p.keymap[tcell.KeyEscape] = ActionQuit
	p.keymap[tcell.KeyF2] = ActionRename
	p.keymap[tcell.KeyF12] = ActionDefinition

	// Control keys arrive as their own tcell.Key codes.
	p.keymap[tcell.KeyCtrlS] = ActionSave
	p.keymap[tcell.KeyCtrlQ] = ActionForceQuit
	p.keymap[tcell.KeyCtrlZ] = ActionUndo
	p.keymap[tcell.KeyCtrlY] = ActionRedo
	p.keymap[tcell.KeyCtrlC] = ActionYank
	p.keymap[tcell.KeyCtrlX] = ActionCut
	p.keymap[tcell.KeyCtrlV] = ActionPaste
	p.keymap[tcell.KeyCtrlK] = ActionDeleteLine
	p.keymap[tcell.KeyCtrlW] = ActionSelectWord
	p.keymap[tcell.KeyCtrlE] = ActionEnterCommandMode
	p.keymap[tcell.KeyCtrlT] = ActionHover
	p.keymap[tcell.KeyCtrlSpace] = ActionCompletion
	p.keymap[tcell.KeyCtrlP] = ActionSignatureHelp

	ctrlMap := make(Keymap)
	ctrlMap[tcell.KeyLeft] = ActionMoveWordLeft
	ctrlMap[tcell.KeyRight] = ActionMoveWordRight
	p.modKeymap[tcell.ModCtrl] = ctrlMap
	p.modKeymap[tcell.ModCtrl|tcell.ModShift] = ctrlMap

	shiftMap := make(Keymap)
	shiftMap[tcell.KeyF12] = ActionReferences
	p.modKeymap[tcell.ModShift] = shiftMap

	p.altRunes['r'] = ActionReferences
	p.altRunes['d'] = ActionDefinition
	p.altRunes['h'] = ActionHover
}

// ProcessEvent takes a tcell key event and returns the corresponding ActionEvent.
func (p *InputProcessor) ProcessEvent(ev *tcell.EventKey) ActionEvent {
	key := ev.Key()
	mod := ev.Modifiers()
	shift := mod&tcell.ModShift != 0

	if modKeyMap, ok := p.modKeymap[mod]; ok {
		if action, ok := modKeyMap[key]; ok {
			return ActionEvent{Action: action, Shift: shift}
		}
	}
	if key == tcell.KeyRune {
		if mod&tcell.ModAlt != 0 {
			if action, ok := p.altRunes[ev.Rune()]; ok {
				return ActionEvent{Action: action}
			}
			return ActionEvent{Action: ActionUnknown}
		}
		return ActionEvent{Action: ActionInsertRune, Rune: ev.Rune()}
	}
	if action, ok := p.keymap[key]; ok {
		return ActionEvent{Action: action, Shift: shift}
	}
	return ActionEvent{Action: ActionUnknown}
}
