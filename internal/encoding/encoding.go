// Package encoding converts positions within a line between character
// indices and the offsets language servers use: UTF-8 bytes, UTF-16 code
// units, or characters (UTF-32).
package encoding

import (
	"unicode/utf8"

	"github.com/bethropolis/ebb/internal/invariant"
)

// Kind is a position encoding a server can negotiate.
type Kind int

const (
	UTF16 Kind = iota // LSP default when a server does not say otherwise
	UTF8
	UTF32
)

// String returns the protocol name of the encoding.
func (k Kind) String() string {
	switch k {
	case UTF8:
		return "utf-8"
	case UTF32:
		return "utf-32"
	default:
		return "utf-16"
	}
}

// ParseKind maps a protocol name ("utf-8", "utf-16", "utf-32") to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "utf-8":
		return UTF8, true
	case "utf-16":
		return UTF16, true
	case "utf-32":
		return UTF32, true
	}
	return UTF16, false
}

// IsASCII reports whether s holds only 7-bit characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Len returns the length of s measured in units of k.
func Len(k Kind, s string) int {
	switch k {
	case UTF8:
		return len(s)
	case UTF32:
		return utf8.RuneCountInString(s)
	}
	n := 0
	for _, r := range s {
		n += units16(r)
	}
	return n
}

// Encode converts a character index into an offset in units of k.
func Encode(k Kind, line string, char int) int {
	switch k {
	case UTF8:
		return CharToUTF8(line, char)
	case UTF32:
		return clampChar(line, char)
	}
	return CharToUTF16(line, char)
}

// Decode converts an offset in units of k back into a character index.
func Decode(k Kind, line string, offset int) int {
	switch k {
	case UTF8:
		return UTF8ToChar(line, offset)
	case UTF32:
		return clampChar(line, offset)
	}
	return UTF16ToChar(line, offset)
}

// CharToUTF8 returns the byte offset of character index char.
func CharToUTF8(line string, char int) int {
	if !invariant.Check(char >= 0, "negative char index %d", char) {
		return 0
	}
	n := 0
	for i := range line {
		if n == char {
			return i
		}
		n++
	}
	invariant.Check(char == n, "char index %d past line length %d", char, n)
	return len(line)
}

// UTF8ToChar returns the character index at byte offset off.
// An offset inside a multi-byte character maps to that character.
func UTF8ToChar(line string, off int) int {
	if !invariant.Check(off >= 0, "negative utf-8 offset %d", off) {
		return 0
	}
	invariant.Check(off <= len(line), "utf-8 offset %d past line length %d", off, len(line))
	n, i := 0, 0
	for i < len(line) {
		_, size := utf8.DecodeRuneInString(line[i:])
		if i+size > off {
			break
		}
		i += size
		n++
	}
	return n
}

// CharToUTF16 returns the UTF-16 code-unit offset of character index char.
func CharToUTF16(line string, char int) int {
	if !invariant.Check(char >= 0, "negative char index %d", char) {
		return 0
	}
	n, units := 0, 0
	for _, r := range line {
		if n == char {
			return units
		}
		units += units16(r)
		n++
	}
	invariant.Check(char == n, "char index %d past line length %d", char, n)
	return units
}

// UTF16ToChar returns the character index at UTF-16 offset off.
// An offset between the halves of a surrogate pair maps to that character.
func UTF16ToChar(line string, off int) int {
	if !invariant.Check(off >= 0, "negative utf-16 offset %d", off) {
		return 0
	}
	n, units := 0, 0
	for _, r := range line {
		w := units16(r)
		if units+w > off {
			return n
		}
		units += w
		n++
	}
	invariant.Check(off == units, "utf-16 offset %d past line length %d", off, units)
	return n
}

func clampChar(line string, char int) int {
	if !invariant.Check(char >= 0, "negative char index %d", char) {
		return 0
	}
	n := utf8.RuneCountInString(line)
	if !invariant.Check(char <= n, "char index %d past line length %d", char, n) {
		return n
	}
	return char
}

// units16 is the number of UTF-16 code units r encodes to.
func units16(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
