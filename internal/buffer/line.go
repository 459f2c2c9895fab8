package buffer

import (
	"unicode/utf8"

	"github.com/bethropolis/ebb/internal/encoding"
)

type asciiState uint8

const (
	asciiUnknown asciiState = iota
	asciiYes
	asciiNo
)

// Line is a single line of buffer text (without its terminator) together
// with the side tables the language client attaches to it.
type Line struct {
	text  string
	chars int // cached character count
	ascii asciiState

	diagnostics []Diagnostic
	tokens      []TokenSpan
}

func newLine(text string) *Line {
	return &Line{text: text, chars: utf8.RuneCountInString(text)}
}

// Text returns the line content.
func (l *Line) Text() string { return l.text }

// Len returns the line length in characters.
func (l *Line) Len() int { return l.chars }

// IsASCII reports whether the line is pure ASCII, computing the flag lazily.
func (l *Line) IsASCII() bool {
	if l.ascii == asciiUnknown {
		if encoding.IsASCII(l.text) {
			l.ascii = asciiYes
		} else {
			l.ascii = asciiNo
		}
	}
	return l.ascii == asciiYes
}

// Encode converts a character index into an offset in units of k.
func (l *Line) Encode(k encoding.Kind, char int) int {
	if l.IsASCII() {
		return clamp(char, 0, l.chars)
	}
	return encoding.Encode(k, l.text, char)
}

// Decode converts an offset in units of k into a character index.
func (l *Line) Decode(k encoding.Kind, offset int) int {
	if l.IsASCII() {
		return clamp(offset, 0, l.chars)
	}
	return encoding.Decode(k, l.text, offset)
}

// Slice returns the characters in [from, to).
func (l *Line) Slice(from, to int) string {
	return l.text[l.byteOffset(from):l.byteOffset(to)]
}

// Diagnostics returns the diagnostics anchored on this line.
func (l *Line) Diagnostics() []Diagnostic { return l.diagnostics }

// Tokens returns the semantic token spans of this line.
func (l *Line) Tokens() []TokenSpan { return l.tokens }

func (l *Line) byteOffset(char int) int {
	if l.IsASCII() {
		return clamp(char, 0, len(l.text))
	}
	return encoding.CharToUTF8(l.text, char)
}

// replace swaps the characters in [from, to) for ins.
func (l *Line) replace(from, to int, ins string) {
	head := l.text[:l.byteOffset(from)]
	tail := l.text[l.byteOffset(to):]
	insASCII := encoding.IsASCII(ins)
	switch {
	case !insASCII:
		l.ascii = asciiNo
	case l.ascii == asciiNo && to > from:
		l.ascii = asciiUnknown // a deletion may have removed the last wide character
	}
	l.text = head + ins + tail
	l.chars += utf8.RuneCountInString(ins) - (to - from)
	l.tokens = nil
}

func (l *Line) setText(text string) {
	l.text = text
	l.chars = utf8.RuneCountInString(text)
	l.ascii = asciiUnknown
	l.tokens = nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
