// Package buffer holds the editable text: an ordered sequence of lines, the
// buffer version, and the per-line diagnostic and token side tables.
package buffer

import (
	"strings"
	"unicode/utf8"

	"github.com/bethropolis/ebb/internal/invariant"
	"github.com/bethropolis/ebb/internal/types"
)

// Buffer is the in-memory document. It always holds at least one line.
// It is owned by the editor main loop and is not safe for concurrent use.
type Buffer struct {
	lines      []*Line
	filePath   string
	lineEnding string
	modified   bool
	version    uint64 // bumped on every content mutation
}

// New returns an empty buffer: one empty line.
func New() *Buffer {
	return &Buffer{lines: []*Line{newLine("")}, lineEnding: "\n"}
}

// NewFromString builds a buffer holding text.
func NewFromString(text string) *Buffer {
	b := New()
	b.setContent(text)
	return b
}

func (b *Buffer) setContent(text string) {
	b.lineEnding = "\n"
	if strings.Contains(text, "\r\n") {
		b.lineEnding = "\r\n"
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	parts := strings.Split(text, "\n")
	b.lines = make([]*Line, len(parts))
	for i, p := range parts {
		b.lines[i] = newLine(p)
	}
}

// Version returns the current buffer version.
func (b *Buffer) Version() uint64 { return b.version }

// FilePath returns the path the buffer is bound to ("" when unnamed).
func (b *Buffer) FilePath() string { return b.filePath }

// SetFilePath binds the buffer to a path.
func (b *Buffer) SetFilePath(path string) { b.filePath = path }

// IsModified reports unsaved changes.
func (b *Buffer) IsModified() bool { return b.modified }

// MarkClean clears the modified flag; used after a reload from disk.
func (b *Buffer) MarkClean() { b.modified = false }

// LineCount returns the number of lines (at least 1).
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns line i, or nil when out of range. Callers must not mutate it.
func (b *Buffer) Line(i int) *Line {
	if i < 0 || i >= len(b.lines) {
		return nil
	}
	return b.lines[i]
}

// LineText returns the text of line i ("" when out of range).
func (b *Buffer) LineText(i int) string {
	if l := b.Line(i); l != nil {
		return l.text
	}
	return ""
}

// LineLen returns the character length of line i (0 when out of range).
func (b *Buffer) LineLen(i int) int {
	if l := b.Line(i); l != nil {
		return l.chars
	}
	return 0
}

// String returns the whole content joined with "\n".
func (b *Buffer) String() string {
	var sb strings.Builder
	for i, l := range b.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.text)
	}
	return sb.String()
}

// End returns the position after the last character.
func (b *Buffer) End() types.Position {
	last := len(b.lines) - 1
	return types.Position{Line: last, Col: b.lines[last].chars}
}

// Valid reports whether pos addresses an existing character boundary.
func (b *Buffer) Valid(pos types.Position) bool {
	return pos.Line >= 0 && pos.Line < len(b.lines) && pos.Col >= 0 && pos.Col <= b.lines[pos.Line].chars
}

// Clamp returns the nearest valid position to pos.
func (b *Buffer) Clamp(pos types.Position) types.Position {
	if pos.Line < 0 {
		return types.Position{}
	}
	if pos.Line >= len(b.lines) {
		return b.End()
	}
	pos.Col = clamp(pos.Col, 0, b.lines[pos.Line].chars)
	return pos
}

// TextRange returns the text between two positions given in any order.
func (b *Buffer) TextRange(from, to types.Position) string {
	r := types.NewRange(b.Clamp(from), b.Clamp(to))
	if r.Start.Line == r.End.Line {
		return b.lines[r.Start.Line].Slice(r.Start.Col, r.End.Col)
	}
	var sb strings.Builder
	first := b.lines[r.Start.Line]
	sb.WriteString(first.Slice(r.Start.Col, first.chars))
	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		sb.WriteByte('\n')
		sb.WriteString(b.lines[i].text)
	}
	sb.WriteByte('\n')
	sb.WriteString(b.lines[r.End.Line].Slice(0, r.End.Col))
	return sb.String()
}

// CharAt returns the character at pos, '\n' at a line end that has a
// successor, and false at the end of the buffer.
func (b *Buffer) CharAt(pos types.Position) (rune, bool) {
	if !b.Valid(pos) {
		return 0, false
	}
	l := b.lines[pos.Line]
	if pos.Col == l.chars {
		if pos.Line == len(b.lines)-1 {
			return 0, false
		}
		return '\n', true
	}
	r, _ := utf8.DecodeRuneInString(l.text[l.byteOffset(pos.Col):])
	return r, true
}

// --- Edit operations. Each returns the inverse edit. ---

// InsertChar inserts a single character at pos.
func (b *Buffer) InsertChar(pos types.Position, r rune) Edit {
	kind := EditInsertChar
	if r == '\n' {
		kind = EditSplit
	}
	return b.Apply(Edit{Kind: kind, Start: pos, Inserted: string(r)})
}

// InsertString inserts text (possibly spanning lines) at pos.
func (b *Buffer) InsertString(pos types.Position, text string) Edit {
	return b.Apply(Edit{Kind: EditInsertText, Start: pos, Inserted: text})
}

// DeleteChar deletes the character at pos. At the end of a line it merges
// the next line into this one.
func (b *Buffer) DeleteChar(pos types.Position) Edit {
	r, ok := b.CharAt(pos)
	if !invariant.Check(ok, "delete past buffer end at %v", pos) {
		return Edit{Kind: EditInsertChar, Start: b.Clamp(pos)}
	}
	if r == '\n' {
		return b.Apply(Edit{Kind: EditMerge, Start: pos, Removed: "\n"})
	}
	return b.Apply(Edit{Kind: EditDeleteChar, Start: pos, Removed: string(r)})
}

// DeleteRange deletes the text between two positions given in any order.
func (b *Buffer) DeleteRange(from, to types.Position) Edit {
	r := types.NewRange(from, to)
	return b.Apply(Edit{Kind: EditDeleteRange, Start: r.Start, Removed: b.TextRange(r.Start, r.End)})
}

// Split breaks the line at pos in two.
func (b *Buffer) Split(pos types.Position) Edit {
	return b.Apply(Edit{Kind: EditSplit, Start: pos, Inserted: "\n"})
}

// MergeNext joins line i with the line after it.
func (b *Buffer) MergeNext(i int) Edit {
	if !invariant.Check(i >= 0 && i < len(b.lines)-1, "merge of line %d with %d lines", i, len(b.lines)) {
		return Edit{Kind: EditSplit, Start: b.Clamp(types.Position{Line: i})}
	}
	return b.Apply(Edit{Kind: EditMerge, Start: types.Position{Line: i, Col: b.lines[i].chars}, Removed: "\n"})
}

// Apply performs e and returns its inverse. The removed extent is derived
// from len(e.Removed); the returned inverse carries the text actually
// removed. Out-of-range starts are clamped.
func (b *Buffer) Apply(e Edit) Edit {
	start := e.Start
	if !invariant.Check(b.Valid(start), "edit start %v outside buffer", start) {
		start = b.Clamp(start)
	}
	end := Advance(start, e.Removed)
	if !invariant.Check(b.Valid(end), "edit end %v outside buffer", end) {
		end = b.Clamp(end)
	}
	removed := b.TextRange(start, end)
	if removed == "" && e.Inserted == "" {
		return Edit{Kind: e.Kind.inverse(), Start: start}
	}
	b.replace(start, end, e.Inserted)
	b.version++
	b.modified = true
	return Edit{Kind: e.Kind.inverse(), Start: start, Removed: e.Inserted, Inserted: removed}
}

// replace swaps [start, end) for text and rebases the diagnostics of every
// line whose index or content may have changed.
func (b *Buffer) replace(start, end types.Position, text string) {
	b.splice(start, end, text)
	to := start.Line + 1
	if end.Line != start.Line || strings.Contains(text, "\n") {
		to = len(b.lines)
	}
	b.rebaseDiagnostics(start.Line, to)
}

// splice swaps [start, end) for text. Line objects whose text survives whole
// are kept, so their side tables stay attached to that text.
func (b *Buffer) splice(start, end types.Position, text string) {
	first := b.lines[start.Line]
	parts := strings.Split(text, "\n")

	if len(parts) == 1 {
		if start.Line == end.Line {
			first.replace(start.Col, end.Col, text)
			return
		}
		if start.Col == 0 && end.Col == 0 && text == "" {
			// Whole lines removed: the line after them is untouched.
			b.lines = append(b.lines[:start.Line], b.lines[end.Line:]...)
			return
		}
		last := b.lines[end.Line]
		tail := last.Slice(end.Col, last.chars)
		first.replace(start.Col, first.chars, text+tail)
		b.lines = append(b.lines[:start.Line+1], b.lines[end.Line+1:]...)
		return
	}

	if start.Line == end.Line && start.Col == 0 && parts[0] == "" {
		// The line is pushed down whole; its object moves with the text.
		above := make([]*Line, 0, len(parts)-1)
		for _, p := range parts[:len(parts)-1] {
			above = append(above, newLine(p))
		}
		if lead := parts[len(parts)-1]; lead != "" {
			first.replace(0, 0, lead)
		}
		lines := make([]*Line, 0, len(b.lines)+len(above))
		lines = append(lines, b.lines[:start.Line]...)
		lines = append(lines, above...)
		lines = append(lines, b.lines[start.Line:]...)
		b.lines = lines
		return
	}

	last := b.lines[end.Line]
	tail := last.Slice(end.Col, last.chars)
	first.replace(start.Col, first.chars, parts[0])

	added := make([]*Line, 0, len(parts)-1)
	for _, p := range parts[1 : len(parts)-1] {
		added = append(added, newLine(p))
	}
	lastNew := newLine(parts[len(parts)-1] + tail)
	if end.Line > start.Line && end.Col == 0 && parts[len(parts)-1] == "" {
		// The old last line is kept whole; keep its object and side tables.
		lastNew = last
	}
	added = append(added, lastNew)

	rest := b.lines[end.Line+1:]
	lines := make([]*Line, 0, start.Line+1+len(added)+len(rest))
	lines = append(lines, b.lines[:start.Line+1]...)
	lines = append(lines, added...)
	lines = append(lines, rest...)
	b.lines = lines
}

func runeCount(s string) int { return utf8.RuneCountInString(s) }
