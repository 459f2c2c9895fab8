package app

import (
	"errors"
	"fmt"

	"github.com/bethropolis/ebb/internal/commands"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/lsp"
	"github.com/bethropolis/ebb/internal/modehandler"
	"github.com/bethropolis/ebb/internal/statusbar"
)

var _ commands.API = (*App)(nil)

// Save writes the buffer to path, or to its own file when path is empty.
func (a *App) Save(path string) error {
	buf := a.editor.Buffer()
	if path == "" && buf.FilePath() == "" {
		return errors.New("no file name")
	}
	if err := a.editor.Save(path); err != nil {
		return err
	}
	if err := a.client.Open(buf, a.editor); err != nil && !errors.Is(err, lsp.ErrNoServer) {
		a.Message(event.MessageWarning, "Language server: %v", err)
	}
	a.watch(buf.FilePath())
	return nil
}

// Modified reports unsaved changes.
func (a *App) Modified() bool { return a.editor.Buffer().IsModified() }

// Undo reverts the last transaction.
func (a *App) Undo() bool { return a.editor.Undo() }

// Redo reapplies the last undone transaction.
func (a *App) Redo() bool { return a.editor.Redo() }

// Rename asks the language server to rename the symbol at the cursor.
func (a *App) Rename(newName string) error { return a.modeHandler.Rename(newName) }

// Hover requests hover information at the cursor.
func (a *App) Hover() error { return a.modeHandler.RequestAtCursor(modehandler.Features.Hover) }

// Definition requests the definition of the symbol at the cursor.
func (a *App) Definition() error {
	return a.modeHandler.RequestAtCursor(modehandler.Features.Definition)
}

// References requests every reference to the symbol at the cursor.
func (a *App) References() error {
	return a.modeHandler.RequestAtCursor(modehandler.Features.References)
}

// RestartServers restarts every language server.
func (a *App) RestartServers() int { return a.client.RestartAll() }

// Reload merges the file on disk into the buffer.
func (a *App) Reload() error {
	n, err := a.editor.Reload()
	if err != nil {
		return err
	}
	a.Message(event.MessageInfo, "Reloaded (%d change(s))", n)
	return nil
}

// Find selects the next match of pattern from the cursor.
func (a *App) Find(pattern string) (bool, bool, error) { return a.editor.Find(pattern) }

// FindNext repeats the last search.
func (a *App) FindNext(forward bool) (bool, bool, error) { return a.editor.FindNext(forward) }

// Substitute runs a /pattern/replacement/[g] replacement.
func (a *App) Substitute(expr string) (int, error) { return a.editor.Substitute(expr) }

// SetTheme switches the active theme and restyles the screen.
func (a *App) SetTheme(name string) error {
	if err := a.themes.SetTheme(name); err != nil {
		return err
	}
	th := a.themes.Current()
	a.tuiManager.SetTheme(th)
	a.statusBar.SetConfig(statusbar.ConfigFromTheme(th))
	return nil
}

// ThemeName returns the active theme's name.
func (a *App) ThemeName() string { return a.themes.Current().Name }

// ListThemes returns the available theme names.
func (a *App) ListThemes() []string { return a.themes.ListThemes() }

// Message shows a transient status bar message.
func (a *App) Message(level event.MessageLevel, format string, args ...interface{}) {
	a.events.Dispatch(event.TypeMessage, event.MessageData{Level: level, Text: fmt.Sprintf(format, args...)})
}
