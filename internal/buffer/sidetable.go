package buffer

import "github.com/bethropolis/ebb/internal/types"

// Severity follows the protocol numbering.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// Diagnostic is a server finding anchored at Range.Start.Line.
type Diagnostic struct {
	Range    types.Range // character positions
	Severity Severity
	Message  string
	Code     string
	Source   string // producer: server name
	Version  uint64 // buffer version the range was validated against
}

// TokenSpan classifies the characters [Start, End) of one line.
type TokenSpan struct {
	Start     int
	End       int
	Type      string
	Modifiers []string
	Source    string
	Version   uint64
}

// SetDiagnostics replaces every diagnostic from source. Diagnostics whose
// start line no longer exists are dropped; columns are clamped to the line.
// It returns how many were attached.
func (b *Buffer) SetDiagnostics(source string, diags []Diagnostic) int {
	b.ClearDiagnostics(source)
	attached := 0
	for _, d := range diags {
		if d.Range.Start.Line < 0 || d.Range.Start.Line >= len(b.lines) {
			continue
		}
		d.Range.Start = b.Clamp(d.Range.Start)
		d.Range.End = b.Clamp(d.Range.End)
		if d.Range.End.Before(d.Range.Start) {
			d.Range.End = d.Range.Start
		}
		d.Source = source
		d.Version = b.version
		line := b.lines[d.Range.Start.Line]
		line.diagnostics = append(line.diagnostics, d)
		attached++
	}
	return attached
}

// rebaseDiagnostics re-anchors the diagnostics of lines [from, to) on their
// current line index and clamps their columns to the text.
func (b *Buffer) rebaseDiagnostics(from, to int) {
	for i := from; i < to && i < len(b.lines); i++ {
		l := b.lines[i]
		for j := range l.diagnostics {
			r := &l.diagnostics[j].Range
			span := r.End.Line - r.Start.Line
			r.Start = b.Clamp(types.Position{Line: i, Col: r.Start.Col})
			r.End = b.Clamp(types.Position{Line: i + span, Col: r.End.Col})
			if r.End.Before(r.Start) {
				r.End = r.Start
			}
		}
	}
}

// ClearDiagnostics removes the diagnostics produced by source.
func (b *Buffer) ClearDiagnostics(source string) {
	for _, l := range b.lines {
		if len(l.diagnostics) == 0 {
			continue
		}
		kept := l.diagnostics[:0]
		for _, d := range l.diagnostics {
			if d.Source != source {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		l.diagnostics = kept
	}
}

// Diagnostics returns the diagnostics of a line, or nil when out of range.
func (b *Buffer) Diagnostics(line int) []Diagnostic {
	if line < 0 || line >= len(b.lines) {
		return nil
	}
	return b.lines[line].diagnostics
}

// DiagnosticCounts tallies diagnostics by severity across the buffer.
func (b *Buffer) DiagnosticCounts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, l := range b.lines {
		for _, d := range l.diagnostics {
			counts[d.Severity]++
		}
	}
	return counts
}

// SetTokens replaces the token spans of every line with spans[line]; lines
// missing from spans are cleared. Spans are clipped to the line.
func (b *Buffer) SetTokens(source string, spans map[int][]TokenSpan) {
	for i, l := range b.lines {
		row := spans[i]
		if len(row) == 0 {
			l.tokens = nil
			continue
		}
		kept := make([]TokenSpan, 0, len(row))
		for _, s := range row {
			s.Start = clamp(s.Start, 0, l.chars)
			s.End = clamp(s.End, s.Start, l.chars)
			if s.End == s.Start {
				continue
			}
			s.Source = source
			s.Version = b.version
			kept = append(kept, s)
		}
		l.tokens = kept
	}
}

// ClearTokens removes the token spans produced by source.
func (b *Buffer) ClearTokens(source string) {
	for _, l := range b.lines {
		if len(l.tokens) > 0 && l.tokens[0].Source == source {
			l.tokens = nil
		}
	}
}

// Tokens returns the token spans of a line, or nil when out of range.
func (b *Buffer) Tokens(line int) []TokenSpan {
	if line < 0 || line >= len(b.lines) {
		return nil
	}
	return b.lines[line].tokens
}
