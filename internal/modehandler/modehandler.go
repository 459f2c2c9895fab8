// Package modehandler turns key events into editor operations according to
// the active input mode.
package modehandler

import (
	"errors"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/commands"
	"github.com/bethropolis/ebb/internal/core"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/input"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/lsp"
	"github.com/bethropolis/ebb/internal/statusbar"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/gdamore/tcell/v2"
)

// Features is the language server surface driven by key bindings.
type Features interface {
	Hover(buf *buffer.Buffer, pos types.Position) error
	Completion(buf *buffer.Buffer, pos types.Position) error
	SignatureHelp(buf *buffer.Buffer, pos types.Position) error
	Rename(buf *buffer.Buffer, pos types.Position, newName string) error
	Definition(buf *buffer.Buffer, pos types.Position) error
	References(buf *buffer.Buffer, pos types.Position) error
}

// ModeHandler manages input modes, command execution, and related state.
type ModeHandler struct {
	editor         *core.Editor
	inputProcessor *input.InputProcessor
	eventManager   *event.Manager
	statusBar      *statusbar.StatusBar
	commands       *commands.Registry
	features       Features
	quit           func()

	stack            []Mode // never empty; stack[0] is normal mode
	forceQuitPending bool
}

// Config holds dependencies for the ModeHandler.
type Config struct {
	Editor         *core.Editor
	InputProcessor *input.InputProcessor
	EventManager   *event.Manager
	StatusBar      *statusbar.StatusBar
	Commands       *commands.Registry
	Features       Features // nil without language servers
	Quit           func()
}

// New creates a new ModeHandler and subscribes it to completion results.
func New(cfg Config) *ModeHandler {
	if cfg.Editor == nil || cfg.InputProcessor == nil || cfg.EventManager == nil || cfg.StatusBar == nil || cfg.Commands == nil || cfg.Quit == nil {
		panic("modehandler.New: Missing required dependencies in Config")
	}
	mh := &ModeHandler{
		editor:         cfg.Editor,
		inputProcessor: cfg.InputProcessor,
		eventManager:   cfg.EventManager,
		statusBar:      cfg.StatusBar,
		commands:       cfg.Commands,
		features:       cfg.Features,
		quit:           cfg.Quit,
		stack:          []Mode{{Kind: KindNormal}},
	}
	mh.eventManager.Subscribe(event.TypeCompletion, mh.onCompletion)
	return mh
}

// Current returns a copy of the active mode.
func (mh *ModeHandler) Current() Mode { return mh.stack[len(mh.stack)-1] }

// Depth is the number of stacked modes, 1 in normal mode.
func (mh *ModeHandler) Depth() int { return len(mh.stack) }

func (mh *ModeHandler) replace(m Mode) {
	mh.stack[len(mh.stack)-1] = m
	mh.statusBar.SetPrompt(m.Prompt())
}

func (mh *ModeHandler) push(m Mode) {
	mh.stack = append(mh.stack, m)
	mh.modeChanged()
}

func (mh *ModeHandler) pop() {
	if len(mh.stack) == 1 {
		return
	}
	mh.stack = mh.stack[:len(mh.stack)-1]
	mh.modeChanged()
}

func (mh *ModeHandler) modeChanged() {
	m := mh.Current()
	mh.statusBar.SetPrompt(m.Prompt())
	logger.DebugTagf("mode", "ModeHandler: mode %s (depth %d)", m.Kind, len(mh.stack))
	mh.eventManager.Dispatch(event.TypeModeChanged, event.ModeChangedData{Mode: m.Kind.String()})
}

// HandleKeyEvent decides what to do based on current mode and key event.
// Returns true if the event resulted in an action requiring redraw.
func (mh *ModeHandler) HandleKeyEvent(ev *tcell.EventKey) bool {
	return mh.HandleAction(mh.inputProcessor.ProcessEvent(ev))
}

// HandleAction runs a decoded action in the active mode.
func (mh *ModeHandler) HandleAction(ae input.ActionEvent) bool {
	switch mh.Current().Kind {
	case KindCommand, KindRename:
		return mh.handlePrompt(ae)
	case KindCompletion:
		return mh.handleCompletion(ae)
	default:
		return mh.handleNormal(ae)
	}
}

// featureError turns a language feature failure into a status message.
func (mh *ModeHandler) featureError(what string, err error) {
	if err == nil {
		return
	}
	var msg string
	switch {
	case errors.Is(err, lsp.ErrNoServer), errors.Is(err, lsp.ErrNotOpen):
		msg = "No language server for this file"
	case errors.Is(err, lsp.ErrNotReady):
		msg = "Language server is starting"
	case errors.Is(err, lsp.ErrUnsupported):
		msg = what + " is not supported by the language server"
	case errors.Is(err, lsp.ErrServerDead):
		msg = "Language server is not running"
	default:
		msg = what + " failed: " + err.Error()
	}
	logger.Debugf("ModeHandler: %s: %v", what, err)
	mh.statusBar.SetMessage(event.MessageWarning, "%s", msg)
}

func (mh *ModeHandler) requestFeature(what string, call func(Features, *buffer.Buffer, types.Position) error) {
	if mh.features == nil {
		mh.featureError(what, lsp.ErrNoServer)
		return
	}
	mh.featureError(what, call(mh.features, mh.editor.Buffer(), mh.editor.Cursor()))
}
