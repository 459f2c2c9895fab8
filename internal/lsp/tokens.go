package lsp

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/encoding"
	"github.com/bethropolis/ebb/internal/logger"
)

// Token types and modifiers the client can render.
var (
	semanticTokenTypes = []string{
		"namespace", "type", "class", "enum", "interface", "struct",
		"typeParameter", "parameter", "variable", "property", "enumMember",
		"event", "function", "method", "macro", "keyword", "modifier",
		"comment", "string", "number", "regexp", "operator", "decorator",
	}
	semanticTokenModifiers = []string{
		"declaration", "definition", "readonly", "static", "deprecated",
		"abstract", "async", "modification", "documentation", "defaultLibrary",
	}
)

// decodeTokens turns relative 5-tuples into per-line spans in character
// positions. Tokens past the end of a line are clipped; tokens on lines the
// buffer does not have are dropped.
func decodeTokens(buf *buffer.Buffer, data []uint32, legend SemanticTokensLegend, k encoding.Kind) map[int][]buffer.TokenSpan {
	if len(data)%5 != 0 {
		logger.Warnf("LSP: semantic token data length %d is not a multiple of 5", len(data))
	}
	spans := make(map[int][]buffer.TokenSpan)
	line, start := 0, 0
	for i := 0; i+4 < len(data); i += 5 {
		deltaLine, deltaStart := int(data[i]), int(data[i+1])
		length, typ, mods := int(data[i+2]), int(data[i+3]), data[i+4]
		if deltaLine > 0 {
			line += deltaLine
			start = deltaStart
		} else {
			start += deltaStart
		}
		if line >= buf.LineCount() {
			break
		}
		if typ >= len(legend.TokenTypes) {
			continue
		}
		l := buf.Line(line)
		n := encoding.Len(k, l.Text())
		from, to := min(start, n), min(start+length, n)
		if to <= from {
			continue
		}
		cs, ce := l.Decode(k, from), l.Decode(k, to)
		if ce <= cs {
			continue
		}
		spans[line] = append(spans[line], buffer.TokenSpan{
			Start:     cs,
			End:       ce,
			Type:      legend.TokenTypes[typ],
			Modifiers: modifierNames(mods, legend.TokenModifiers),
		})
	}
	return spans
}

func modifierNames(bits uint32, names []string) []string {
	if bits == 0 {
		return nil
	}
	var out []string
	for i, name := range names {
		if i >= 32 {
			break
		}
		if bits&(1<<uint(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}

func (c *Client) applyTokens(doc *document, res Resolved, r SemanticTokensResult) {
	srv := doc.srv
	spans := decodeTokens(doc.buf, r.Tokens.Data, srv.legend, srv.encoding)
	if r.Kind() == KindSemanticTokensRange {
		// Keep what an earlier response said about lines outside the range.
		for i := 0; i < doc.buf.LineCount(); i++ {
			if i >= res.Range.Start.Line && i <= res.Range.End.Line {
				continue
			}
			if old := doc.buf.Tokens(i); len(old) > 0 && old[0].Source == srv.name {
				spans[i] = old
			}
		}
	}
	doc.buf.SetTokens(srv.name, spans)
	logger.DebugTagf("lsp", "LSP: %d token line(s) for %s v%d", len(spans), doc.uri, res.Version)
}
