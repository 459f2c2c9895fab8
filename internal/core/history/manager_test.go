package history

import (
	"testing"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufApplier struct{ b *buffer.Buffer }

func (a bufApplier) ApplyEdit(e buffer.Edit) buffer.Edit { return a.b.Apply(e) }

func at(line, col int) types.Position { return types.Position{Line: line, Col: col} }

func typeString(m *Manager, b *buffer.Buffer, p types.Position, s string) types.Position {
	for _, r := range s {
		inv := b.InsertChar(p, r)
		next := at(p.Line, p.Col+1)
		m.Record(inv, ActorUser, p, next)
		p = next
	}
	return p
}

func TestThreeInsertsCoalesce(t *testing.T) {
	b := buffer.New()
	m := NewManager(0, 0)
	typeString(m, b, at(0, 0), "abc")
	require.Equal(t, "abc", b.String())
	assert.Equal(t, 1, m.UndoDepth())

	cur, ok := m.Undo(bufApplier{b})
	require.True(t, ok)
	assert.Equal(t, "", b.String())
	assert.Equal(t, at(0, 0), cur)
	assert.False(t, m.CanUndo())
}

func TestNonContiguousInsertOpensTransaction(t *testing.T) {
	b := buffer.NewFromString("xy")
	m := NewManager(0, 0)
	m.Record(b.InsertChar(at(0, 0), 'a'), ActorUser, at(0, 0), at(0, 1))
	m.Record(b.InsertChar(at(0, 3), 'b'), ActorUser, at(0, 3), at(0, 4))
	assert.Equal(t, 2, m.UndoDepth())
}

func TestBoundaryClosesTransaction(t *testing.T) {
	b := buffer.New()
	m := NewManager(0, 0)
	p := typeString(m, b, at(0, 0), "ab")
	m.Boundary()
	typeString(m, b, p, "cd")
	assert.Equal(t, 2, m.UndoDepth())

	m.Undo(bufApplier{b})
	assert.Equal(t, "ab", b.String())
}

func TestDifferentActorsDoNotCoalesce(t *testing.T) {
	b := buffer.New()
	m := NewManager(0, 0)
	m.Record(b.InsertChar(at(0, 0), 'a'), ActorUser, at(0, 0), at(0, 1))
	m.Record(b.InsertChar(at(0, 1), 'b'), ActorServer, at(0, 1), at(0, 2))
	assert.Equal(t, 2, m.UndoDepth())
}

func TestCoalesceLimit(t *testing.T) {
	b := buffer.New()
	m := NewManager(0, 2)
	typeString(m, b, at(0, 0), "abcde")
	assert.Equal(t, 3, m.UndoDepth())
}

func TestBackspaceRunCoalesces(t *testing.T) {
	b := buffer.NewFromString("hello")
	m := NewManager(0, 0)
	for col := 5; col > 2; col-- {
		m.Record(b.DeleteChar(at(0, col-1)), ActorUser, at(0, col), at(0, col-1))
	}
	require.Equal(t, "he", b.String())
	assert.Equal(t, 1, m.UndoDepth())

	cur, _ := m.Undo(bufApplier{b})
	assert.Equal(t, "hello", b.String())
	assert.Equal(t, at(0, 5), cur)
}

func TestInsertThenDeleteDoNotCoalesce(t *testing.T) {
	b := buffer.New()
	m := NewManager(0, 0)
	typeString(m, b, at(0, 0), "ab")
	m.Record(b.DeleteChar(at(0, 1)), ActorUser, at(0, 2), at(0, 1))
	assert.Equal(t, 2, m.UndoDepth())
}

func TestRedoClearedByNewEdit(t *testing.T) {
	b := buffer.New()
	m := NewManager(0, 0)
	p := typeString(m, b, at(0, 0), "ab")
	m.Boundary()
	typeString(m, b, p, "cd")

	m.Undo(bufApplier{b})
	m.Undo(bufApplier{b})
	require.True(t, m.CanRedo())

	typeString(m, b, at(0, 0), "z")
	assert.False(t, m.CanRedo())
	_, ok := m.Redo(bufApplier{b})
	assert.False(t, ok)
	assert.Equal(t, "z", b.String())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	b := buffer.NewFromString("base")
	m := NewManager(0, 0)
	typeString(m, b, at(0, 4), " one")
	m.Boundary()
	m.Record(b.Split(at(0, 4)), ActorUser, at(0, 4), at(1, 0))

	m.Undo(bufApplier{b})
	m.Undo(bufApplier{b})
	assert.Equal(t, "base", b.String())

	cur, ok := m.Redo(bufApplier{b})
	require.True(t, ok)
	assert.Equal(t, "base one", b.String())
	assert.Equal(t, at(0, 8), cur)
	m.Redo(bufApplier{b})
	assert.Equal(t, "base\n one", b.String())
	assert.False(t, m.CanRedo())

	m.Undo(bufApplier{b})
	assert.Equal(t, "base one", b.String())
}

func TestUnderflowIsNoop(t *testing.T) {
	b := buffer.NewFromString("keep")
	m := NewManager(0, 0)
	_, ok := m.Undo(bufApplier{b})
	assert.False(t, ok)
	_, ok = m.Redo(bufApplier{b})
	assert.False(t, ok)
	assert.Equal(t, "keep", b.String())
	assert.Equal(t, uint64(0), b.Version())
}

func TestGroupUndoesAsOne(t *testing.T) {
	b := buffer.NewFromString("\tfoo")
	m := NewManager(0, 0)
	m.BeginGroup(ActorUser, at(0, 4))
	m.Record(b.Split(at(0, 4)), ActorUser, at(0, 4), at(1, 0))
	m.Record(b.InsertString(at(1, 0), "\t"), ActorUser, at(1, 0), at(1, 1))
	m.EndGroup()
	require.Equal(t, "\tfoo\n\t", b.String())
	assert.Equal(t, 1, m.UndoDepth())

	// A character typed right after the group starts a new transaction.
	m.Record(b.InsertChar(at(1, 1), 'x'), ActorUser, at(1, 1), at(1, 2))
	assert.Equal(t, 2, m.UndoDepth())

	m.Undo(bufApplier{b})
	cur, _ := m.Undo(bufApplier{b})
	assert.Equal(t, "\tfoo", b.String())
	assert.Equal(t, at(0, 4), cur)
}

func TestEmptyGroupLeavesNothing(t *testing.T) {
	m := NewManager(0, 0)
	m.BeginGroup(ActorUser, at(0, 0))
	m.EndGroup()
	assert.False(t, m.CanUndo())
}

func TestMaxHistoryTrimsOldest(t *testing.T) {
	b := buffer.New()
	m := NewManager(3, 1)
	typeString(m, b, at(0, 0), "abcde")
	assert.Equal(t, 3, m.UndoDepth())
	for m.CanUndo() {
		m.Undo(bufApplier{b})
	}
	assert.Equal(t, "ab", b.String())
}
