package app

import (
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/modehandler"
	"github.com/bethropolis/ebb/internal/tui"
)

// resize recomputes the text area after the terminal size changed.
func (a *App) resize() {
	width, height := a.tuiManager.Size()
	gutter := tui.GutterWidth(a.editor.Buffer().LineCount(), width)
	a.editor.SetViewSize(width-gutter, height)
}

// draw clears the screen and redraws all components.
func (a *App) draw() {
	a.updateStatusBarContent()

	th := a.themes.Current()
	width, height := a.tuiManager.Size()

	a.tuiManager.Clear()
	tui.DrawBuffer(a.tuiManager, a.editor, th)
	if mode := a.modeHandler.Current(); mode.Kind == modehandler.KindCompletion {
		tui.DrawCompletionMenu(a.tuiManager, a.editor, th, mode.Items, mode.Selected)
	}
	a.statusBar.Draw(a.tuiManager.Screen(), width, height)
	tui.DrawCursor(a.tuiManager, a.editor)
	a.tuiManager.Show()
}

// updateStatusBarContent pushes current editor state to the status bar.
func (a *App) updateStatusBarContent() {
	buf := a.editor.Buffer()
	a.statusBar.SetFileInfo(buf.FilePath(), buf.IsModified())
	a.statusBar.SetCursorInfo(a.editor.Cursor())
	a.statusBar.SetEditorMode(a.modeHandler.Current().Kind.String())
	a.statusBar.SetDiagnostics(buf.DiagnosticCounts())

	if status, ok := a.client.Status(buf); ok {
		a.statusBar.SetServerName(status.Name)
		a.statusBar.SetServerStatus(event.ServerStatusData{Server: status.Name, State: status.State, Encoding: status.Encoding})
	} else {
		a.statusBar.SetServerName("")
	}
}
