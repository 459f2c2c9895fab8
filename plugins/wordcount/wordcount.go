// Package wordcount adds the :wc command.
package wordcount

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/plugin"
)

var _ plugin.Plugin = (*WordCount)(nil)

// WordCount counts lines, words, and characters of the buffer, or of the
// selection when one is given.
type WordCount struct {
	api plugin.API
}

// New creates a new instance of the WordCount plugin.
func New() *WordCount {
	return &WordCount{}
}

// Name returns the unique name of the plugin.
func (p *WordCount) Name() string {
	return "wordcount"
}

// Initialize registers the :wc command.
func (p *WordCount) Initialize(api plugin.API) error {
	p.api = api
	if err := api.RegisterCommand("wc", p.executeWordCount); err != nil {
		return fmt.Errorf("failed to register 'wc' command: %w", err)
	}
	return nil
}

// Shutdown performs cleanup (nothing needed for this simple plugin).
func (p *WordCount) Shutdown() error {
	return nil
}

func (p *WordCount) executeWordCount(args []string) error {
	if p.api == nil {
		return fmt.Errorf("wordcount plugin not initialized with API")
	}
	buf := p.api.Buffer()
	text := buf.String()
	p.api.Message(event.MessageInfo, "Lines: %d, Words: %d, Chars: %d",
		buf.LineCount(), len(strings.Fields(text)), utf8.RuneCountInString(text))
	return nil
}
