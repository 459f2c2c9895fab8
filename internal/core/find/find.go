// Package find searches buffer lines with regular expressions. Matches never
// span lines.
package find

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/encoding"
	"github.com/bethropolis/ebb/internal/types"
)

// ErrEmptyPattern is returned for an empty search pattern.
var ErrEmptyPattern = errors.New("search pattern cannot be empty")

// Compile parses a search pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern: %w", err)
	}
	return re, nil
}

// lineMatches returns the character ranges of every non-empty match on one
// line.
func lineMatches(re *regexp.Regexp, line string) [][2]int {
	var out [][2]int
	for _, loc := range re.FindAllStringIndex(line, -1) {
		if loc[0] == loc[1] {
			continue
		}
		out = append(out, [2]int{encoding.UTF8ToChar(line, loc[0]), encoding.UTF8ToChar(line, loc[1])})
	}
	return out
}

// Next finds the nearest match starting at or after from (or strictly before
// it when forward is false), wrapping around the buffer once. wrapped reports
// that the search went past the end (or start).
func Next(buf *buffer.Buffer, re *regexp.Regexp, from types.Position, forward bool) (match types.Range, wrapped, ok bool) {
	lineCount := buf.LineCount()
	for i := 0; i <= lineCount; i++ {
		lineIdx := from.Line + i
		if !forward {
			lineIdx = from.Line - i
		}
		if lineIdx < 0 || lineIdx >= lineCount {
			wrapped = true
			lineIdx = ((lineIdx % lineCount) + lineCount) % lineCount
		}

		matches := lineMatches(re, buf.LineText(lineIdx))
		if forward {
			for _, m := range matches {
				if i == 0 && m[0] < from.Col {
					continue
				}
				if i == lineCount && m[0] >= from.Col {
					break
				}
				return charRange(lineIdx, m), wrapped, true
			}
			continue
		}
		for j := len(matches) - 1; j >= 0; j-- {
			m := matches[j]
			if i == 0 && m[0] >= from.Col {
				continue
			}
			if i == lineCount && m[0] < from.Col {
				break
			}
			return charRange(lineIdx, m), wrapped, true
		}
	}
	return types.Range{}, false, false
}

// All returns every match in the buffer in document order.
func All(buf *buffer.Buffer, re *regexp.Regexp) []types.Range {
	var out []types.Range
	for lineIdx := 0; lineIdx < buf.LineCount(); lineIdx++ {
		for _, m := range lineMatches(re, buf.LineText(lineIdx)) {
			out = append(out, charRange(lineIdx, m))
		}
	}
	return out
}

func charRange(line int, m [2]int) types.Range {
	return types.Range{Start: types.Position{Line: line, Col: m[0]}, End: types.Position{Line: line, Col: m[1]}}
}

// Substitution is a parsed /pattern/replacement/[g] command.
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement string
	Global      bool // every line instead of the current one
}

// ParseSubstitute parses "/pattern/replacement/[g]". Delimiters cannot be
// escaped.
func ParseSubstitute(cmdStr string) (Substitution, error) {
	parts := strings.SplitN(cmdStr, "/", 4)
	if len(parts) < 3 || parts[0] != "" {
		return Substitution{}, errors.New("invalid format: use /pattern/replacement/[g]")
	}
	re, err := Compile(parts[1])
	if err != nil {
		return Substitution{}, err
	}
	sub := Substitution{Pattern: re, Replacement: parts[2]}
	if len(parts) > 3 {
		sub.Global = strings.Contains(parts[3], "g")
	}
	return sub, nil
}

// Edits returns the replacements sub makes on line, or on every line when
// Global is set. Replacement text may reference groups as $1.
func (sub Substitution) Edits(buf *buffer.Buffer, line int) []buffer.TextEdit {
	first, last := line, line
	if sub.Global {
		first, last = 0, buf.LineCount()-1
	}
	var edits []buffer.TextEdit
	for lineIdx := first; lineIdx <= last; lineIdx++ {
		text := buf.LineText(lineIdx)
		for _, loc := range sub.Pattern.FindAllStringSubmatchIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			repl := sub.Pattern.ExpandString(nil, sub.Replacement, text, loc)
			edits = append(edits, buffer.TextEdit{
				Range:   charRange(lineIdx, [2]int{encoding.UTF8ToChar(text, loc[0]), encoding.UTF8ToChar(text, loc[1])}),
				NewText: string(repl),
			})
		}
	}
	return edits
}
