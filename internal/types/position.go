// internal/types/position.go
package types

import "fmt"

// Position represents a cursor or text position within the buffer.
// Line is the 0-based line index.
// Col is the 0-based character (rune) index within the line, never a byte offset.
type Position struct {
	Line int
	Col  int
}

// Compare orders positions in document order: -1, 0 or 1.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Col < o.Col:
		return -1
	case p.Col > o.Col:
		return 1
	}
	return 0
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool { return p.Compare(o) < 0 }

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Range is a half-open document range [Start, End).
type Range struct {
	Start Position
	End   Position
}

// NewRange builds a normalized range from two positions given in any order.
func NewRange(a, b Position) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// Empty reports whether the range covers no characters.
func (r Range) Empty() bool { return r.Start == r.End }

// Contains reports whether pos lies inside [Start, End).
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && pos.Before(r.End)
}
