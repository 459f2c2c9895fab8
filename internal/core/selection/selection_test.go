package selection

import (
	"testing"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func posGen() *rapid.Generator[types.Position] {
	return rapid.Custom(func(t *rapid.T) types.Position {
		return types.Position{
			Line: rapid.IntRange(0, 20).Draw(t, "line"),
			Col:  rapid.IntRange(0, 20).Draw(t, "col"),
		}
	})
}

func TestBackwardNormalizesLikeForward(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := posGen().Draw(t, "a")
		b := posGen().Draw(t, "b")

		var fwd, bwd Selection
		fwd.Extend(a, b)
		bwd.Extend(b, a)

		f1, f2, fok := fwd.Get()
		b1, b2, bok := bwd.Get()
		require.Equal(t, fok, bok)
		require.Equal(t, f1, b1)
		require.Equal(t, f2, b2)
		if fok {
			require.False(t, f2.Before(f1))
		}
	})
}

func TestEmptySelectionIsNone(t *testing.T) {
	var s Selection
	s.Start(types.Position{Line: 1, Col: 1})
	assert.True(t, s.Active())
	_, _, ok := s.Get()
	assert.False(t, ok)

	s.Collapse()
	assert.False(t, s.Active())
}

func TestStartKeepsAnchor(t *testing.T) {
	var s Selection
	s.Extend(types.Position{Line: 0, Col: 2}, types.Position{Line: 0, Col: 4})
	s.Extend(types.Position{Line: 9, Col: 9}, types.Position{Line: 0, Col: 0})
	from, to, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, types.Position{Line: 0, Col: 0}, from)
	assert.Equal(t, types.Position{Line: 0, Col: 2}, to)
}

func TestDeletedLineClampsSelection(t *testing.T) {
	b := buffer.NewFromString("first\nsecond\nthird")
	var s Selection
	s.Extend(types.Position{Line: 2, Col: 1}, types.Position{Line: 2, Col: 4})

	// Remove the last line together with its preceding newline.
	b.DeleteRange(types.Position{Line: 1, Col: 6}, b.End())
	s.Clamp(b)

	_, _, ok := s.Get()
	assert.False(t, ok, "both ends collapse onto the same valid position")
	assert.True(t, b.Valid(s.Anchor()))
	assert.True(t, b.Valid(s.Head()))
	assert.Equal(t, types.Position{Line: 1, Col: 6}, s.Anchor())
	assert.Equal(t, types.Position{Line: 1, Col: 6}, s.Head())
}
