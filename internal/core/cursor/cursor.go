// Package cursor tracks the caret and implements movement over buffer text.
package cursor

import (
	"unicode"
	"unicode/utf8"

	"github.com/bethropolis/ebb/internal/types"
	"github.com/rivo/uniseg"
)

// Text is the read-only view of the buffer cursor movement needs.
type Text interface {
	LineCount() int
	LineLen(line int) int
	LineText(line int) string
}

// Cursor is a caret position plus the column vertical movement aims for.
type Cursor struct {
	pos  types.Position
	goal int // preferred column for line moves, -1 when unset
}

// New returns a cursor at the start of the document.
func New() *Cursor {
	return &Cursor{goal: -1}
}

// Position returns the caret position.
func (c *Cursor) Position() types.Position { return c.pos }

// Set places the caret, clamped to text, and forgets the goal column.
func (c *Cursor) Set(text Text, pos types.Position) {
	c.pos = Clamp(text, pos)
	c.goal = -1
}

// Clamp moves the caret to the nearest valid position. Called after every
// content mutation; a removed or shortened line never leaves it dangling.
func (c *Cursor) Clamp(text Text) {
	c.pos = Clamp(text, c.pos)
}

// MoveChar moves by delta characters, wrapping across line ends.
func (c *Cursor) MoveChar(text Text, delta int) {
	p := c.pos
	for ; delta > 0; delta-- {
		if p.Col < text.LineLen(p.Line) {
			p.Col++
		} else if p.Line < text.LineCount()-1 {
			p = types.Position{Line: p.Line + 1}
		}
	}
	for ; delta < 0; delta++ {
		if p.Col > 0 {
			p.Col--
		} else if p.Line > 0 {
			p = types.Position{Line: p.Line - 1, Col: text.LineLen(p.Line - 1)}
		}
	}
	c.Set(text, p)
}

// MoveLine moves by delta lines, keeping the goal column.
func (c *Cursor) MoveLine(text Text, delta int) {
	if c.goal < 0 {
		c.goal = c.pos.Col
	}
	goal := c.goal
	line := c.pos.Line + delta
	if line < 0 {
		line = 0
	}
	if line > text.LineCount()-1 {
		line = text.LineCount() - 1
	}
	c.pos = Clamp(text, types.Position{Line: line, Col: goal})
	c.goal = goal
}

// LineStart moves to column 0.
func (c *Cursor) LineStart(text Text) {
	c.Set(text, types.Position{Line: c.pos.Line})
}

// LineEnd moves past the last character of the line.
func (c *Cursor) LineEnd(text Text) {
	c.Set(text, types.Position{Line: c.pos.Line, Col: text.LineLen(c.pos.Line)})
}

// FirstNonBlank moves to the first non-whitespace character, toggling back
// to column 0 when already there.
func (c *Cursor) FirstNonBlank(text Text) {
	col := Indent(text.LineText(c.pos.Line))
	if c.pos.Col == col {
		col = 0
	}
	c.Set(text, types.Position{Line: c.pos.Line, Col: col})
}

// MoveWord moves to the start of the next (forward) or previous word.
// At a line boundary it steps onto the adjacent line.
func (c *Cursor) MoveWord(text Text, forward bool) {
	p := c.pos
	starts := wordStarts(text.LineText(p.Line))
	if forward {
		for _, s := range starts {
			if s > p.Col {
				c.Set(text, types.Position{Line: p.Line, Col: s})
				return
			}
		}
		if n := text.LineLen(p.Line); p.Col < n {
			c.Set(text, types.Position{Line: p.Line, Col: n})
		} else if p.Line < text.LineCount()-1 {
			c.Set(text, types.Position{Line: p.Line + 1})
		}
		return
	}
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] < p.Col {
			c.Set(text, types.Position{Line: p.Line, Col: starts[i]})
			return
		}
	}
	if p.Col > 0 {
		c.Set(text, types.Position{Line: p.Line})
	} else if p.Line > 0 {
		c.Set(text, types.Position{Line: p.Line - 1, Col: text.LineLen(p.Line - 1)})
	}
}

// WordAt returns the bounds [start, end) of the word containing or touching
// col, and false when there is none.
func WordAt(line string, col int) (int, int, bool) {
	at := 0
	state := -1
	rest := line
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		n := utf8.RuneCountInString(word)
		if isWord(word) && col >= at && col <= at+n {
			return at, at + n, true
		}
		at += n
	}
	return 0, 0, false
}

// wordStarts returns the character index of every word segment that starts
// with a letter, digit or underscore.
func wordStarts(line string) []int {
	var starts []int
	at := 0
	state := -1
	rest := line
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if isWord(word) {
			starts = append(starts, at)
		}
		at += utf8.RuneCountInString(word)
	}
	return starts
}

func isWord(segment string) bool {
	r, _ := utf8.DecodeRuneInString(segment)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Indent returns the number of leading space/tab characters.
func Indent(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

// Clamp returns the nearest valid position to pos within text.
func Clamp(text Text, pos types.Position) types.Position {
	last := text.LineCount() - 1
	if pos.Line < 0 {
		return types.Position{}
	}
	if pos.Line > last {
		return types.Position{Line: last, Col: text.LineLen(last)}
	}
	if pos.Col < 0 {
		pos.Col = 0
	}
	if n := text.LineLen(pos.Line); pos.Col > n {
		pos.Col = n
	}
	return pos
}
