package core

import (
	"errors"

	"github.com/bethropolis/ebb/internal/core/find"
	"github.com/bethropolis/ebb/internal/core/history"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

// ErrNoSearch is returned by FindNext before any search was made.
var ErrNoSearch = errors.New("no previous search")

// Find searches forward from the cursor for pattern and selects the match.
// ok is false when nothing matches.
func (e *Editor) Find(pattern string) (ok, wrapped bool, err error) {
	re, err := find.Compile(pattern)
	if err != nil {
		return false, false, err
	}
	e.lastSearch = re
	return e.findFrom(e.cursor.Position(), true)
}

// FindNext repeats the last search in either direction.
func (e *Editor) FindNext(forward bool) (ok, wrapped bool, err error) {
	if e.lastSearch == nil {
		return false, false, ErrNoSearch
	}
	from := e.cursor.Position()
	if start, _, sel := e.selection.Get(); sel {
		from = start
		if forward {
			from.Col++
		}
	}
	return e.findFrom(from, forward)
}

func (e *Editor) findFrom(from types.Position, forward bool) (bool, bool, error) {
	match, wrapped, ok := find.Next(e.buffer, e.lastSearch, from, forward)
	if !ok {
		return false, false, nil
	}
	e.history.Boundary()
	e.selection.Collapse()
	e.selection.Extend(match.Start, match.End)
	e.cursor.Set(e.buffer, match.End)
	e.ScrollToCursor()
	logger.DebugTagf("core", "Find: %q matched %v", e.lastSearch.String(), match)
	return true, wrapped, nil
}

// Substitute applies a /pattern/replacement/[g] command to the cursor line,
// or the whole buffer with g, as one undo step. Returns the number of
// replacements.
func (e *Editor) Substitute(cmd string) (int, error) {
	sub, err := find.ParseSubstitute(cmd)
	if err != nil {
		return 0, err
	}
	edits := sub.Edits(e.buffer, e.cursor.Position().Line)
	if len(edits) == 0 {
		return 0, nil
	}
	e.history.Boundary()
	e.applyTextEdits(edits, history.ActorUser)
	e.history.Boundary()
	e.lastSearch = sub.Pattern
	return len(edits), nil
}
