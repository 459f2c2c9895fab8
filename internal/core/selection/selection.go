// Package selection holds the optional selected range over the buffer.
package selection

import (
	"github.com/bethropolis/ebb/internal/core/cursor"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

// Selection is an anchor fixed where selecting began and a head that follows
// the cursor. The two may be in either document order.
type Selection struct {
	active bool
	anchor types.Position
	head   types.Position
}

// Active reports whether a selection is in progress (possibly empty).
func (s *Selection) Active() bool { return s.active }

// Start anchors a new selection at pos unless one is already active.
func (s *Selection) Start(pos types.Position) {
	if s.active {
		return
	}
	s.active = true
	s.anchor = pos
	s.head = pos
	logger.DebugTagf("core", "Selection: started at %v", pos)
}

// Extend moves the head to pos, starting a selection at from when none is
// active.
func (s *Selection) Extend(from, pos types.Position) {
	s.Start(from)
	s.head = pos
}

// Collapse clears the selection.
func (s *Selection) Collapse() {
	if s.active {
		logger.DebugTagf("core", "Selection: cleared")
	}
	*s = Selection{}
}

// Get returns the normalized half-open range [from, to). ok is false when
// nothing is selected or the range is empty.
func (s *Selection) Get() (from, to types.Position, ok bool) {
	if !s.active || s.anchor == s.head {
		return types.Position{}, types.Position{}, false
	}
	r := types.NewRange(s.anchor, s.head)
	return r.Start, r.End, true
}

// Anchor returns the fixed end of the selection.
func (s *Selection) Anchor() types.Position { return s.anchor }

// Head returns the moving end of the selection.
func (s *Selection) Head() types.Position { return s.head }

// Clamp pulls both ends onto valid positions after a content mutation.
func (s *Selection) Clamp(text cursor.Text) {
	if !s.active {
		return
	}
	s.anchor = cursor.Clamp(text, s.anchor)
	s.head = cursor.Clamp(text, s.head)
}
