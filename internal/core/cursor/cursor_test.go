package cursor

import (
	"testing"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/stretchr/testify/assert"
)

func at(line, col int) types.Position { return types.Position{Line: line, Col: col} }

func TestMoveCharWraps(t *testing.T) {
	b := buffer.NewFromString("ab\ncd")
	c := New()
	c.Set(b, at(0, 2))
	c.MoveChar(b, 1)
	assert.Equal(t, at(1, 0), c.Position())
	c.MoveChar(b, -1)
	assert.Equal(t, at(0, 2), c.Position())
	c.MoveChar(b, -10)
	assert.Equal(t, at(0, 0), c.Position())
	c.MoveChar(b, 100)
	assert.Equal(t, at(1, 2), c.Position())
}

func TestMoveLineKeepsGoalColumn(t *testing.T) {
	b := buffer.NewFromString("long line\nx\nanother long")
	c := New()
	c.Set(b, at(0, 7))
	c.MoveLine(b, 1)
	assert.Equal(t, at(1, 1), c.Position())
	c.MoveLine(b, 1)
	assert.Equal(t, at(2, 7), c.Position())
	c.MoveLine(b, 5)
	assert.Equal(t, at(2, 7), c.Position())
}

func TestMoveWord(t *testing.T) {
	b := buffer.NewFromString("hello world(foo_bar\nnext")
	c := New()
	c.Set(b, at(0, 0))
	c.MoveWord(b, true)
	assert.Equal(t, at(0, 6), c.Position())
	c.MoveWord(b, true)
	assert.Equal(t, at(0, 12), c.Position(), "punctuation is not a word start")
	c.MoveWord(b, true)
	assert.Equal(t, at(0, 19), c.Position(), "underscore joins a word")
	c.MoveWord(b, true)
	assert.Equal(t, at(1, 0), c.Position())

	c.MoveWord(b, false)
	assert.Equal(t, at(0, 19), c.Position())
	c.MoveWord(b, false)
	assert.Equal(t, at(0, 12), c.Position())
	c.MoveWord(b, false)
	assert.Equal(t, at(0, 6), c.Position())
}

func TestMoveWordMultibyte(t *testing.T) {
	b := buffer.NewFromString("café au lait")
	c := New()
	c.MoveWord(b, true)
	assert.Equal(t, at(0, 5), c.Position())
}

func TestClampAfterLineRemoval(t *testing.T) {
	b := buffer.NewFromString("one\ntwo\nthree")
	c := New()
	c.Set(b, at(2, 5))
	b.DeleteRange(at(1, 3), b.End())
	c.Clamp(b)
	assert.Equal(t, at(1, 3), c.Position())
}

func TestFirstNonBlankToggles(t *testing.T) {
	b := buffer.NewFromString("\t  code")
	c := New()
	c.Set(b, at(0, 6))
	c.FirstNonBlank(b)
	assert.Equal(t, at(0, 3), c.Position())
	c.FirstNonBlank(b)
	assert.Equal(t, at(0, 0), c.Position())
}

func TestWordAt(t *testing.T) {
	s, e, ok := WordAt("call foo_bar(x)", 7)
	assert.True(t, ok)
	assert.Equal(t, 5, s)
	assert.Equal(t, 12, e)

	_, _, ok = WordAt("   ", 1)
	assert.False(t, ok)
}
