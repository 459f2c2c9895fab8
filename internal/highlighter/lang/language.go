// Package lang describes the languages the local highlighter can parse.
package lang

import (
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language pairs a tree-sitter grammar with its highlight query.
type Language struct {
	// Name is the display name of the language
	Name string

	// TreeSitterLang is the tree-sitter language instance
	TreeSitterLang *sitter.Language

	// Extensions maps file extensions to this language
	Extensions []string

	// Query is the highlight query source; capture names are token types.
	Query string

	once     sync.Once
	compiled *sitter.Query
	err      error
}

// CompiledQuery compiles the highlight query once and caches the result.
func (l *Language) CompiledQuery() (*sitter.Query, error) {
	l.once.Do(func() {
		if l.Query == "" {
			l.err = fmt.Errorf("no highlight query for %s", l.Name)
			return
		}
		l.compiled, l.err = sitter.NewQuery([]byte(l.Query), l.TreeSitterLang)
		if l.err != nil {
			l.err = fmt.Errorf("compile %s highlight query: %w", l.Name, l.err)
		}
	})
	return l.compiled, l.err
}
