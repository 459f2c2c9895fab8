package lsp

import (
	"testing"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/encoding"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(line, col int) types.Position { return types.Position{Line: line, Col: col} }

// applyForward applies ed and returns the forward edit as listeners see it.
func applyForward(b *buffer.Buffer, ed buffer.Edit) buffer.Edit {
	return b.Apply(ed).Invert()
}

func TestEncodeChangeInsertAfterMultibyte(t *testing.T) {
	tests := []struct {
		kind encoding.Kind
		want int
	}{
		{encoding.UTF8, 2},
		{encoding.UTF16, 1},
		{encoding.UTF32, 1},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			b := buffer.NewFromString("é = 1")
			fwd := applyForward(b, buffer.Edit{Kind: buffer.EditInsertChar, Start: pos(0, 1), Inserted: "x"})

			ev := encodeChange(b, fwd, tt.kind)
			require.NotNil(t, ev.Range)
			assert.Equal(t, Position{Line: 0, Character: tt.want}, ev.Range.Start)
			assert.Equal(t, ev.Range.Start, ev.Range.End)
			assert.Equal(t, "x", ev.Text)
		})
	}
}

func TestEncodeChangeDeleteAstral(t *testing.T) {
	b := buffer.NewFromString("a😀b")
	fwd := applyForward(b, buffer.Edit{Kind: buffer.EditDeleteChar, Start: pos(0, 1), Removed: "😀"})

	ev := encodeChange(b, fwd, encoding.UTF16)
	assert.Equal(t, Position{Line: 0, Character: 1}, ev.Range.Start)
	assert.Equal(t, Position{Line: 0, Character: 3}, ev.Range.End)
	assert.Equal(t, "", ev.Text)

	b = buffer.NewFromString("a😀b")
	fwd = applyForward(b, buffer.Edit{Kind: buffer.EditDeleteChar, Start: pos(0, 1), Removed: "😀"})
	ev = encodeChange(b, fwd, encoding.UTF8)
	assert.Equal(t, 5, ev.Range.End.Character)
}

func TestEncodeChangeMultiline(t *testing.T) {
	b := buffer.NewFromString("ab\nçd\nef")
	fwd := applyForward(b, buffer.Edit{Kind: buffer.EditDeleteRange, Start: pos(0, 1), Removed: "b\nçd\ne"})

	ev := encodeChange(b, fwd, encoding.UTF8)
	assert.Equal(t, Position{Line: 0, Character: 1}, ev.Range.Start)
	assert.Equal(t, Position{Line: 2, Character: 1}, ev.Range.End)
	assert.Equal(t, "af", b.String())

	b = buffer.NewFromString("ab")
	fwd = applyForward(b, buffer.Edit{Kind: buffer.EditSplit, Start: pos(0, 1), Inserted: "\n"})
	ev = encodeChange(b, fwd, encoding.UTF16)
	assert.Equal(t, Position{Line: 0, Character: 1}, ev.Range.End)
	assert.Equal(t, "\n", ev.Text)
}

func TestFromWireClamps(t *testing.T) {
	b := buffer.NewFromString("é😀\nxy")

	assert.Equal(t, pos(0, 2), fromWire(b, Position{Line: 0, Character: 3}, encoding.UTF16))
	assert.Equal(t, pos(0, 1), fromWire(b, Position{Line: 0, Character: 2}, encoding.UTF16), "inside a surrogate pair snaps back")
	assert.Equal(t, pos(0, 2), fromWire(b, Position{Line: 0, Character: 99}, encoding.UTF8))
	assert.Equal(t, pos(1, 2), fromWire(b, Position{Line: 7, Character: 0}, encoding.UTF8))
	assert.Equal(t, pos(0, 0), fromWire(b, Position{Line: -1, Character: 4}, encoding.UTF8))

	assert.Equal(t, Position{Line: 0, Character: 3}, toWire(b, pos(0, 2), encoding.UTF16))
	assert.Equal(t, Position{Line: 0, Character: 6}, toWire(b, pos(0, 2), encoding.UTF8))
}

func TestDecodeTokens(t *testing.T) {
	b := buffer.NewFromString("func 😀x() {}\nvar y\n")
	legend := SemanticTokensLegend{TokenTypes: []string{"keyword", "function", "variable"}, TokenModifiers: []string{"declaration", "readonly"}}
	data := []uint32{
		0, 0, 4, 0, 0, // "func"
		0, 5, 3, 1, 1, // "😀x" in utf-16 units
		1, 4, 50, 2, 3, // "y", clipped at the line end
		0, 0, 1, 9, 0, // unknown type
		5, 0, 1, 0, 0, // past the last line
	}
	spans := decodeTokens(b, data, legend, encoding.UTF16)

	require.Len(t, spans[0], 2)
	assert.Equal(t, buffer.TokenSpan{Start: 0, End: 4, Type: "keyword"}, spans[0][0])
	assert.Equal(t, 5, spans[0][1].Start)
	assert.Equal(t, 7, spans[0][1].End)
	assert.Equal(t, []string{"declaration"}, spans[0][1].Modifiers)

	require.Len(t, spans[1], 1)
	assert.Equal(t, 4, spans[1][0].Start)
	assert.Equal(t, 5, spans[1][0].End)
	assert.Equal(t, []string{"declaration", "readonly"}, spans[1][0].Modifiers)
	assert.NotContains(t, spans, 6)
}
