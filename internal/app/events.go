package app

import (
	"path/filepath"

	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/highlight"
	"github.com/bethropolis/ebb/internal/highlighter"
	"github.com/bethropolis/ebb/internal/logger"
)

// markHighlightDirty notes that the buffer needs local highlighting. The
// snapshot is taken once per loop iteration, not once per edit.
func (a *App) markHighlightDirty(e event.Event) bool {
	a.highlightDirty = true
	return false
}

// scheduleHighlight hands a snapshot to the background highlighter unless a
// language server supplies semantic tokens for the buffer.
func (a *App) scheduleHighlight() {
	if !a.highlightDirty {
		return
	}
	a.highlightDirty = false
	buf := a.editor.Buffer()
	path := buf.FilePath()
	if !a.highlights.Supports(path) || a.client.ProvidesTokens(buf) {
		return
	}
	a.highlights.Schedule(path, buf.String(), buf.Version())
}

// applyHighlights stores a finished highlight when it still describes the
// buffer; anything older is discarded.
func (a *App) applyHighlights(up highlight.Update) {
	buf := a.editor.Buffer()
	if up.Err != nil || up.Path != buf.FilePath() || up.Version != buf.Version() {
		logger.DebugTagf("highlight", "App: dropping highlight for %s v%d (buffer v%d)", up.Path, up.Version, buf.Version())
		return
	}
	if a.client.ProvidesTokens(buf) {
		return
	}
	buf.SetTokens(highlighter.SourceLocal, up.Spans)
}

// handleLocations jumps to the first result in the open file.
func (a *App) handleLocations(e event.Event) bool {
	data, ok := e.Data.(event.LocationsData)
	if !ok || len(data.Locations) == 0 {
		return false
	}
	current := absPath(a.editor.Buffer().FilePath())
	for _, loc := range data.Locations {
		if absPath(loc.FilePath) == current {
			a.editor.ClearSelection()
			a.editor.SetCursor(loc.Range.Start)
			if len(data.Locations) > 1 {
				a.Message(event.MessageInfo, "%d %s", len(data.Locations), data.Kind)
			}
			return true
		}
	}
	first := data.Locations[0]
	a.Message(event.MessageInfo, "%s in %s:%d", data.Kind, first.FilePath, first.Range.Start.Line+1)
	return true
}

// reloadFromDisk merges an external change into the buffer.
func (a *App) reloadFromDisk() {
	n, err := a.editor.Reload()
	switch {
	case err != nil:
		logger.Warnf("App: reload failed: %v", err)
		a.Message(event.MessageWarning, "Reload failed: %v", err)
	case n > 0:
		a.Message(event.MessageInfo, "File changed on disk, reloaded")
	}
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
