package modehandler

import (
	"testing"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/commands"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/core"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/input"
	"github.com/bethropolis/ebb/internal/lsp"
	"github.com/bethropolis/ebb/internal/statusbar"
	"github.com/bethropolis/ebb/internal/theme"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name    string
	pos     types.Position
	newName string
}

type fakeFeatures struct {
	calls []call
	err   error
}

func (f *fakeFeatures) record(name string, pos types.Position) error {
	f.calls = append(f.calls, call{name: name, pos: pos})
	return f.err
}

func (f *fakeFeatures) Hover(_ *buffer.Buffer, pos types.Position) error {
	return f.record("hover", pos)
}
func (f *fakeFeatures) Completion(_ *buffer.Buffer, pos types.Position) error {
	return f.record("completion", pos)
}
func (f *fakeFeatures) SignatureHelp(_ *buffer.Buffer, pos types.Position) error {
	return f.record("signature", pos)
}
func (f *fakeFeatures) Definition(_ *buffer.Buffer, pos types.Position) error {
	return f.record("definition", pos)
}
func (f *fakeFeatures) References(_ *buffer.Buffer, pos types.Position) error {
	return f.record("references", pos)
}
func (f *fakeFeatures) Rename(_ *buffer.Buffer, pos types.Position, newName string) error {
	f.calls = append(f.calls, call{name: "rename", pos: pos, newName: newName})
	return f.err
}

type harness struct {
	mh       *ModeHandler
	editor   *core.Editor
	events   *event.Manager
	sb       *statusbar.StatusBar
	cmds     *commands.Registry
	features *fakeFeatures
	quits    int
}

func newHarness(t *testing.T, text string, withFeatures bool) *harness {
	t.Helper()
	cfg := config.NewDefaultConfig().Editor
	cfg.SystemClipboard = false
	h := &harness{events: event.NewManager(), cmds: commands.NewRegistry()}
	h.editor = core.NewEditor(buffer.NewFromString(text), cfg, h.events)
	h.sb = statusbar.New(statusbar.ConfigFromTheme(theme.DevComfortDark()))
	mhCfg := Config{
		Editor:         h.editor,
		InputProcessor: input.NewInputProcessor(),
		EventManager:   h.events,
		StatusBar:      h.sb,
		Commands:       h.cmds,
		Quit:           func() { h.quits++ },
	}
	if withFeatures {
		h.features = &fakeFeatures{}
		mhCfg.Features = h.features
	}
	h.mh = New(mhCfg)
	return h
}

func (h *harness) act(a input.Action) { h.mh.HandleAction(input.ActionEvent{Action: a}) }

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.mh.HandleAction(input.ActionEvent{Action: input.ActionInsertRune, Rune: r})
	}
}

func TestCommandModeExecutes(t *testing.T) {
	h := newHarness(t, "", false)
	var got []string
	require.NoError(t, h.cmds.Register("echo", func(args []string) error {
		got = args
		return nil
	}))

	h.act(input.ActionEnterCommandMode)
	assert.Equal(t, KindCommand, h.mh.Current().Kind)
	h.typeText("echo hé")
	assert.Equal(t, ":echo hé", h.mh.Current().Prompt())

	h.act(input.ActionDeleteCharBackward)
	assert.Equal(t, ":echo h", h.mh.Current().Prompt(), "backspace removes a whole character")

	h.act(input.ActionInsertNewLine)
	assert.Equal(t, []string{"h"}, got)
	assert.Equal(t, 1, h.mh.Depth())
	assert.Equal(t, "", h.editor.Buffer().String(), "command text never reaches the buffer")
}

func TestCommandErrorShown(t *testing.T) {
	h := newHarness(t, "", false)
	h.act(input.ActionEnterCommandMode)
	h.typeText("nope")
	h.act(input.ActionInsertNewLine)
	assert.Contains(t, h.sb.Message(), "unknown command")
}

func TestBackspaceOnEmptyPromptLeaves(t *testing.T) {
	h := newHarness(t, "", false)
	h.act(input.ActionEnterCommandMode)
	h.act(input.ActionDeleteCharBackward)
	assert.Equal(t, KindNormal, h.mh.Current().Kind)
}

func TestModeChangedDispatched(t *testing.T) {
	h := newHarness(t, "", false)
	var modes []string
	h.events.Subscribe(event.TypeModeChanged, func(e event.Event) bool {
		modes = append(modes, e.Data.(event.ModeChangedData).Mode)
		return false
	})
	h.act(input.ActionEnterCommandMode)
	h.act(input.ActionQuit)
	assert.Equal(t, []string{"COMMAND", "NORMAL"}, modes)
}

func TestRenamePrompt(t *testing.T) {
	h := newHarness(t, "foo := 1\n", true)
	h.act(input.ActionRename)
	m := h.mh.Current()
	require.Equal(t, KindRename, m.Kind)
	assert.Equal(t, "Rename to: foo", m.Prompt())

	for range "foo" {
		h.act(input.ActionDeleteCharBackward)
	}
	h.typeText("bar")
	h.act(input.ActionInsertNewLine)

	require.Len(t, h.features.calls, 1)
	assert.Equal(t, call{name: "rename", pos: types.Position{}, newName: "bar"}, h.features.calls[0])
	assert.Equal(t, 1, h.mh.Depth())
}

func TestRenameUnchangedNameIsNoop(t *testing.T) {
	h := newHarness(t, "foo\n", true)
	h.act(input.ActionRename)
	h.act(input.ActionInsertNewLine)
	assert.Empty(t, h.features.calls)
}

func TestRenameWithoutIdentifier(t *testing.T) {
	h := newHarness(t, "  \n", true)
	h.act(input.ActionRename)
	assert.Equal(t, KindNormal, h.mh.Current().Kind)
	assert.Equal(t, "No identifier under cursor", h.sb.Message())
}

func completionAt(h *harness, pos types.Position, labels ...string) {
	items := make([]event.CompletionItem, len(labels))
	for i, l := range labels {
		items[i] = event.CompletionItem{Label: l, InsertText: l}
	}
	h.events.Dispatch(event.TypeCompletion, event.CompletionData{
		FilePath: h.editor.Buffer().FilePath(),
		Position: pos,
		Items:    items,
	})
}

func TestCompletionMenuAccept(t *testing.T) {
	h := newHarness(t, "fmt.Pr", true)
	h.act(input.ActionMoveEnd)
	end := h.editor.Cursor()
	require.Equal(t, types.Position{Line: 0, Col: 6}, end)

	completionAt(h, end, "Print", "Println")
	require.Equal(t, KindCompletion, h.mh.Current().Kind)

	h.act(input.ActionMoveDown)
	assert.Equal(t, 1, h.mh.Current().Selected)
	h.act(input.ActionInsertNewLine)

	assert.Equal(t, "fmt.Println", h.editor.Buffer().String())
	assert.Equal(t, types.Position{Line: 0, Col: 11}, h.editor.Cursor())
	assert.Equal(t, KindNormal, h.mh.Current().Kind)

	require.True(t, h.editor.Undo())
	assert.Equal(t, "fmt.Pr", h.editor.Buffer().String())
}

func TestCompletionWithServerEdit(t *testing.T) {
	h := newHarness(t, "x.lenn", true)
	h.act(input.ActionMoveEnd)
	h.events.Dispatch(event.TypeCompletion, event.CompletionData{
		Position: h.editor.Cursor(),
		Items: []event.CompletionItem{{
			Label: "len", InsertText: "Len()", HasEdit: true,
			Range: types.Range{Start: types.Position{Col: 2}, End: types.Position{Col: 6}},
		}},
	})
	h.act(input.ActionInsertTab)
	assert.Equal(t, "x.Len()", h.editor.Buffer().String())
}

func TestCompletionSelectionWraps(t *testing.T) {
	h := newHarness(t, "", true)
	completionAt(h, types.Position{}, "a", "b", "c")
	h.act(input.ActionMoveUp)
	assert.Equal(t, 2, h.mh.Current().Selected)
}

func TestTypingClosesCompletionAndInserts(t *testing.T) {
	h := newHarness(t, "", true)
	completionAt(h, types.Position{}, "alpha")
	h.typeText("z")
	assert.Equal(t, KindNormal, h.mh.Current().Kind)
	assert.Equal(t, "z", h.editor.Buffer().String())
}

func TestCompletionForMovedCursorIgnored(t *testing.T) {
	h := newHarness(t, "abc", true)
	completionAt(h, types.Position{Line: 0, Col: 2}, "x")
	assert.Equal(t, KindNormal, h.mh.Current().Kind)
}

func TestEmptyCompletionMessage(t *testing.T) {
	h := newHarness(t, "", true)
	completionAt(h, types.Position{})
	assert.Equal(t, KindNormal, h.mh.Current().Kind)
	assert.Equal(t, "No completions", h.sb.Message())
}

func TestEscapeQuitConfirmsUnsaved(t *testing.T) {
	h := newHarness(t, "", false)
	h.typeText("a")
	h.act(input.ActionQuit)
	assert.Zero(t, h.quits)
	assert.Contains(t, h.sb.Message(), "Unsaved changes")

	h.act(input.ActionQuit)
	assert.Equal(t, 1, h.quits)
}

func TestEscapeClearsSelectionFirst(t *testing.T) {
	h := newHarness(t, "hello", false)
	h.mh.HandleAction(input.ActionEvent{Action: input.ActionMoveRight, Shift: true})
	require.True(t, h.editor.SelectionActive())
	h.act(input.ActionQuit)
	assert.False(t, h.editor.SelectionActive())
	assert.Zero(t, h.quits)
}

func TestShiftMovementSelects(t *testing.T) {
	h := newHarness(t, "hello", false)
	h.mh.HandleAction(input.ActionEvent{Action: input.ActionMoveRight, Shift: true})
	h.mh.HandleAction(input.ActionEvent{Action: input.ActionMoveRight, Shift: true})
	from, to, ok := h.editor.Selection()
	require.True(t, ok)
	assert.Equal(t, types.Position{}, from)
	assert.Equal(t, types.Position{Col: 2}, to)

	h.act(input.ActionMoveRight)
	assert.False(t, h.editor.SelectionActive())
}

func TestFeatureKeys(t *testing.T) {
	h := newHarness(t, "f", true)
	h.act(input.ActionHover)
	h.act(input.ActionDefinition)
	h.act(input.ActionReferences)
	h.act(input.ActionCompletion)
	names := make([]string, len(h.features.calls))
	for i, c := range h.features.calls {
		names[i] = c.name
	}
	assert.Equal(t, []string{"hover", "definition", "references", "completion"}, names)
}

func TestOpenParenRequestsSignatureHelp(t *testing.T) {
	h := newHarness(t, "f", true)
	h.act(input.ActionMoveEnd)
	h.typeText("(")
	require.Len(t, h.features.calls, 1)
	assert.Equal(t, call{name: "signature", pos: types.Position{Col: 2}}, h.features.calls[0])
}

func TestFeatureErrorsBecomeMessages(t *testing.T) {
	h := newHarness(t, "f", false)
	h.act(input.ActionHover)
	assert.Equal(t, "No language server for this file", h.sb.Message())

	h = newHarness(t, "f", true)
	h.features.err = lsp.ErrUnsupported
	h.act(input.ActionHover)
	assert.Equal(t, "Hover is not supported by the language server", h.sb.Message())

	h.features.err = lsp.ErrNotReady
	h.act(input.ActionDefinition)
	assert.Equal(t, "Language server is starting", h.sb.Message())
}
