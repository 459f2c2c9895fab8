package history

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

const (
	DefaultMaxHistory    = 100
	DefaultCoalesceLimit = 64
)

// Manager is the transaction log. It is owned by the editor main loop.
//
// State machine: Idle --edit--> Open --Boundary--> Idle. While Open, an edit
// joins the top transaction when an explicit group is open, or when it is a
// single-character insert/delete by the same actor, of the same kind as the
// previous edit, contiguous with it, and the run is below the coalesce limit.
type Manager struct {
	undo []Transaction
	redo []Transaction

	open       bool // top of undo is still accepting edits
	groupDepth int
	run        int         // edits coalesced into the open transaction
	last       buffer.Edit // forward form of the latest recorded edit

	maxHistory    int
	coalesceLimit int
}

// NewManager creates a transaction log. Non-positive limits use defaults;
// a coalesceLimit of 1 disables coalescing.
func NewManager(maxHistory, coalesceLimit int) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if coalesceLimit <= 0 {
		coalesceLimit = DefaultCoalesceLimit
	}
	return &Manager{maxHistory: maxHistory, coalesceLimit: coalesceLimit}
}

// Record logs an applied edit given its inverse. Any new edit discards the
// redo stack.
func (m *Manager) Record(inverse buffer.Edit, actor Actor, before, after types.Position) {
	if inverse.IsEmpty() {
		return
	}
	fwd := inverse.Invert()
	if len(m.redo) > 0 {
		logger.Debugf("History: new edit discards %d redo transaction(s)", len(m.redo))
		m.redo = nil
	}

	if m.open && m.joins(fwd, actor) {
		top := &m.undo[len(m.undo)-1]
		top.Actions = append(top.Actions, inverse)
		top.CursorAfter = after
		m.run++
		m.last = fwd
		return
	}

	m.undo = append(m.undo, Transaction{
		Actions:      []buffer.Edit{inverse},
		CursorBefore: before,
		CursorAfter:  after,
		Actor:        actor,
	})
	m.open = true
	m.run = 1
	m.last = fwd
	m.trim()
	logger.Debugf("History: opened transaction %d (%s by %s)", len(m.undo), fwd.Kind, actor)
}

func (m *Manager) joins(fwd buffer.Edit, actor Actor) bool {
	if m.groupDepth > 0 {
		return true
	}
	top := m.undo[len(m.undo)-1]
	if top.Actor != actor || m.run >= m.coalesceLimit || fwd.Kind != m.last.Kind {
		return false
	}
	prev := m.last
	switch fwd.Kind {
	case buffer.EditInsertChar:
		return fwd.Start == prev.NewEnd()
	case buffer.EditDeleteChar:
		if fwd.Start == prev.Start {
			return true // delete forward
		}
		return fwd.Start.Line == prev.Start.Line && fwd.Start.Col == prev.Start.Col-1 // backspace
	}
	return false
}

// Boundary closes the open transaction. Cursor jumps, saves, reloads, undo
// and redo all call it.
func (m *Manager) Boundary() {
	if m.groupDepth > 0 {
		return
	}
	m.open = false
	m.run = 0
}

// BeginGroup starts an explicit group: every edit until the matching
// EndGroup lands in one transaction. Groups nest.
func (m *Manager) BeginGroup(actor Actor, before types.Position) {
	if m.groupDepth == 0 {
		m.Boundary()
		m.undo = append(m.undo, Transaction{CursorBefore: before, CursorAfter: before, Actor: actor})
		m.open = true
	}
	m.groupDepth++
}

// EndGroup closes the innermost group. An outermost group that recorded
// nothing leaves no transaction behind.
func (m *Manager) EndGroup() {
	if m.groupDepth == 0 {
		return
	}
	m.groupDepth--
	if m.groupDepth > 0 {
		return
	}
	if n := len(m.undo); n > 0 && len(m.undo[n-1].Actions) == 0 {
		m.undo = m.undo[:n-1]
	}
	m.Boundary()
	m.trim()
}

// Undo reverts the latest transaction and returns the cursor position from
// before it. An empty stack is a no-op.
func (m *Manager) Undo(a Applier) (types.Position, bool) {
	m.groupDepth = 0
	m.Boundary()
	if len(m.undo) == 0 {
		logger.Debugf("History: Nothing to undo.")
		return types.Position{}, false
	}
	t := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]

	fwd := make([]buffer.Edit, len(t.Actions))
	for i := len(t.Actions) - 1; i >= 0; i-- {
		fwd[i] = a.ApplyEdit(t.Actions[i])
	}
	m.redo = append(m.redo, Transaction{Actions: fwd, CursorBefore: t.CursorBefore, CursorAfter: t.CursorAfter, Actor: t.Actor})
	logger.Debugf("History: Undid %d edit(s). Undo: %d, Redo: %d", len(fwd), len(m.undo), len(m.redo))
	return t.CursorBefore, true
}

// Redo reapplies the latest undone transaction and returns the cursor
// position from after it. An empty stack is a no-op.
func (m *Manager) Redo(a Applier) (types.Position, bool) {
	m.groupDepth = 0
	m.Boundary()
	if len(m.redo) == 0 {
		logger.Debugf("History: Nothing to redo.")
		return types.Position{}, false
	}
	t := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]

	inv := make([]buffer.Edit, len(t.Actions))
	for i, e := range t.Actions {
		inv[i] = a.ApplyEdit(e)
	}
	m.undo = append(m.undo, Transaction{Actions: inv, CursorBefore: t.CursorBefore, CursorAfter: t.CursorAfter, Actor: t.Actor})
	logger.Debugf("History: Redid %d edit(s). Undo: %d, Redo: %d", len(inv), len(m.undo), len(m.redo))
	return t.CursorAfter, true
}

// Clear drops all history. Call this when a different file is loaded.
func (m *Manager) Clear() {
	m.undo = nil
	m.redo = nil
	m.open = false
	m.groupDepth = 0
	m.run = 0
	logger.Debugf("History: Cleared.")
}

// CanUndo reports whether there is a transaction to undo.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether there is a transaction to redo.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// UndoDepth returns the number of closed or open transactions on the undo stack.
func (m *Manager) UndoDepth() int { return len(m.undo) }

func (m *Manager) trim() {
	if len(m.undo) > m.maxHistory && m.groupDepth == 0 {
		m.undo = m.undo[len(m.undo)-m.maxHistory:]
	}
}
