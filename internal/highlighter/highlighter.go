// Package highlighter produces token spans with tree-sitter. The spans are
// the local fallback used when no language server supplies semantic tokens.
package highlighter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/encoding"
	"github.com/bethropolis/ebb/internal/highlighter/lang"
	"github.com/bethropolis/ebb/internal/logger"
	sitter "github.com/smacker/go-tree-sitter"
)

// SourceLocal tags token spans produced by this package.
const SourceLocal = "local"

// ErrNoLanguage is returned for files no grammar is registered for.
var ErrNoLanguage = errors.New("no grammar for file type")

// Result maps line number to the spans on that line, in character columns.
type Result map[int][]buffer.TokenSpan

// Highlighter parses text and runs highlight queries. It is safe for use by
// one goroutine at a time per parse; calls are serialized.
type Highlighter struct {
	mu        sync.Mutex
	parser    *sitter.Parser
	languages *lang.Registry
}

// NewHighlighter creates a highlighter over the given languages.
func NewHighlighter(languages *lang.Registry) *Highlighter {
	if languages == nil {
		languages = DefaultLanguages()
	}
	return &Highlighter{parser: sitter.NewParser(), languages: languages}
}

// Supports reports whether a grammar exists for filePath.
func (h *Highlighter) Supports(filePath string) bool {
	return h.languages.ForFile(filePath) != nil
}

// Highlight parses text as the language of filePath and returns its spans.
func (h *Highlighter) Highlight(ctx context.Context, filePath, text string) (Result, error) {
	l := h.languages.ForFile(filePath)
	if l == nil {
		return nil, ErrNoLanguage
	}
	query, err := l.CompiledQuery()
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.parser.SetLanguage(l.TreeSitterLang)
	tree, err := h.parser.ParseCtx(ctx, nil, []byte(text))
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}
	defer tree.Close()

	lines := strings.Split(text, "\n")
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	// Later patterns win for the same node, so keep the last capture per range.
	type key struct{ line, start, end int }
	found := make(map[key]string)
	var order []key
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			tokenType := captureType(query.CaptureNameForId(capture.Index))
			node := capture.Node
			start, end := node.StartPoint(), node.EndPoint()
			for line := int(start.Row); line <= int(end.Row) && line < len(lines); line++ {
				text := lines[line]
				from, to := 0, len(text)
				if line == int(start.Row) {
					from = int(start.Column)
				}
				if line == int(end.Row) {
					to = int(end.Column)
				}
				from, to = min(from, len(text)), min(to, len(text))
				k := key{line, encoding.UTF8ToChar(text, from), encoding.UTF8ToChar(text, to)}
				if k.end <= k.start {
					continue
				}
				if _, seen := found[k]; !seen {
					order = append(order, k)
				}
				found[k] = tokenType
			}
		}
	}

	result := make(Result)
	for _, k := range order {
		result[k.line] = append(result[k.line], buffer.TokenSpan{Start: k.start, End: k.end, Type: found[k]})
	}
	for line := range result {
		spans := result[line]
		sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	}
	logger.DebugTagf("highlight", "Highlighter: %s: %d highlighted line(s)", l.Name, len(result))
	return result, nil
}

// captureType maps a capture name such as "keyword.control" to its token
// type, "keyword".
func captureType(name string) string {
	name = strings.TrimPrefix(name, "@")
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
