package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/encoding"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

// document is a buffer open with a server.
type document struct {
	uri     DocumentURI
	buf     *buffer.Buffer
	applier EditApplier
	srv     *server

	// opened is set once didOpen went to the current incarnation.
	opened  bool
	pending []TextDocumentContentChangeEvent
	// fullSync replaces pending with the whole text on the next flush.
	fullSync bool
}

func (d *document) reset() {
	d.opened = false
	d.pending = nil
	d.fullSync = false
}

func (d *document) dirty() bool {
	return d.fullSync || len(d.pending) > 0
}

func sortedDocs(docs map[DocumentURI]*document) []*document {
	out := make([]*document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].uri < out[j].uri })
	return out
}

func (c *Client) subscribe() {
	c.events.Subscribe(event.TypeBufferModified, func(e event.Event) bool {
		if data, ok := e.Data.(event.BufferModifiedData); ok {
			c.bufferChanged(data.Buffer, data.Change)
		}
		return false
	})
	c.events.Subscribe(event.TypeBufferLoaded, func(e event.Event) bool {
		if data, ok := e.Data.(event.BufferLoadedData); ok {
			c.bufferLoaded(data.Buffer)
		}
		return false
	})
	c.events.Subscribe(event.TypeBufferSaved, func(e event.Event) bool {
		if data, ok := e.Data.(event.BufferSavedData); ok {
			c.bufferSaved(data.Buffer)
		}
		return false
	})
	c.events.Subscribe(event.TypeBufferClosed, func(e event.Event) bool {
		if data, ok := e.Data.(event.BufferClosedData); ok {
			c.Close(data.Buffer)
		}
		return false
	})
}

// Open attaches buf to the server configured for its file type, starting
// the server if needed. didOpen is sent once the handshake is done.
func (c *Client) Open(buf *buffer.Buffer, applier EditApplier) error {
	if _, ok := c.byBuffer[buf]; ok {
		return nil
	}
	path := buf.FilePath()
	if _, ok := c.cfg.ServerFor(path); !ok {
		return ErrNoServer
	}
	uri := FilePathToURI(path)
	if _, taken := c.docs[uri]; taken {
		return fmt.Errorf("%s is already open", path)
	}

	srv, err := c.serverFor(path)
	if srv == nil {
		return err
	}
	doc := &document{uri: uri, buf: buf, applier: applier, srv: srv}
	c.docs[uri] = doc
	c.byBuffer[buf] = doc
	srv.docs[uri] = doc
	if srv.state == stateReady {
		c.didOpen(doc)
	}
	return err
}

// Close detaches buf and sends didClose.
func (c *Client) Close(buf *buffer.Buffer) {
	doc, ok := c.byBuffer[buf]
	if !ok {
		return
	}
	if doc.opened && doc.srv.live() {
		_ = doc.srv.proc.Notify(MethodDidClose, DidCloseTextDocumentParams{TextDocument: TextDocumentIdentifier{URI: doc.uri}})
	}
	doc.buf.ClearDiagnostics(doc.srv.name)
	doc.buf.ClearTokens(doc.srv.name)
	delete(doc.srv.docs, doc.uri)
	delete(c.docs, doc.uri)
	delete(c.byBuffer, buf)
}

func (c *Client) didOpen(doc *document) {
	srv := doc.srv
	if !srv.live() {
		return
	}
	params := DidOpenTextDocumentParams{TextDocument: TextDocumentItem{
		URI:        doc.uri,
		LanguageID: srv.key.languageID,
		Version:    int(doc.buf.Version()),
		Text:       doc.buf.String(),
	}}
	if err := srv.proc.Notify(MethodDidOpen, params); err != nil {
		return
	}
	doc.reset()
	doc.opened = true
	c.requestTokens(doc)
}

// bufferChanged encodes one applied edit right away, while the start line
// prefix still matches what the server has.
func (c *Client) bufferChanged(buf *buffer.Buffer, change buffer.Change) {
	doc, ok := c.byBuffer[buf]
	if !ok || !doc.opened {
		return
	}
	switch doc.srv.caps.SyncKind() {
	case SyncNone:
		return
	case SyncFull:
		doc.fullSync = true
		doc.pending = nil
		return
	}
	if doc.fullSync {
		return
	}
	doc.pending = append(doc.pending, encodeChange(buf, change.Edit, doc.srv.encoding))
}

// encodeChange converts an applied edit into an incremental change event in
// units of k. The text before Start on the start line is the same before
// and after the edit, so the start offset is taken from the current line.
func encodeChange(buf *buffer.Buffer, ed buffer.Edit, k encoding.Kind) TextDocumentContentChangeEvent {
	startChar := buf.Line(ed.Start.Line).Encode(k, ed.Start.Col)
	start := Position{Line: ed.Start.Line, Character: startChar}

	var end Position
	if nl := strings.Count(ed.Removed, "\n"); nl == 0 {
		end = Position{Line: ed.Start.Line, Character: startChar + encoding.Len(k, ed.Removed)}
	} else {
		last := ed.Removed[strings.LastIndexByte(ed.Removed, '\n')+1:]
		end = Position{Line: ed.Start.Line + nl, Character: encoding.Len(k, last)}
	}
	return TextDocumentContentChangeEvent{Range: &Range{Start: start, End: end}, Text: ed.Inserted}
}

func (c *Client) bufferLoaded(buf *buffer.Buffer) {
	doc, ok := c.byBuffer[buf]
	if !ok {
		return
	}
	if FilePathToURI(buf.FilePath()) != doc.uri {
		applier := doc.applier
		c.Close(buf)
		if err := c.Open(buf, applier); err != nil {
			logger.Debugf("LSP: reopen %s: %v", buf.FilePath(), err)
		}
		return
	}
	if doc.opened {
		doc.pending = nil
		doc.fullSync = true
	}
}

func (c *Client) bufferSaved(buf *buffer.Buffer) {
	doc, ok := c.byBuffer[buf]
	if !ok {
		if buf.FilePath() != "" {
			_ = c.Open(buf, nil)
		}
		return
	}
	if FilePathToURI(buf.FilePath()) != doc.uri {
		c.bufferLoaded(buf)
		return
	}
	if !doc.opened || !doc.srv.live() {
		return
	}
	c.flushDoc(doc)
	_ = doc.srv.proc.Notify(MethodDidSave, DidSaveTextDocumentParams{TextDocument: TextDocumentIdentifier{URI: doc.uri}})
}

// Flush sends one didChange per changed document, in edit order, and asks
// for fresh semantic tokens.
func (c *Client) Flush() {
	for _, uri := range c.sortedURIs() {
		doc := c.docs[uri]
		if doc.dirty() && c.flushDoc(doc) {
			c.requestTokens(doc)
		}
	}
}

func (c *Client) flushDoc(doc *document) bool {
	if !doc.opened || !doc.dirty() || !doc.srv.live() {
		return false
	}
	changes := doc.pending
	if doc.fullSync {
		changes = []TextDocumentContentChangeEvent{{Text: doc.buf.String()}}
	}
	params := DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: doc.uri, Version: int(doc.buf.Version())},
		ContentChanges: changes,
	}
	doc.pending = nil
	doc.fullSync = false
	if err := doc.srv.proc.Notify(MethodDidChange, params); err != nil {
		return false
	}
	logger.DebugTagf("lsp", "LSP: didChange %s v%d (%d change(s))", doc.uri, doc.buf.Version(), len(changes))
	return true
}

func (c *Client) sortedURIs() []DocumentURI {
	out := make([]DocumentURI, 0, len(c.docs))
	for uri := range c.docs {
		out = append(out, uri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// toWire converts a character position to the server's units.
func toWire(buf *buffer.Buffer, pos types.Position, k encoding.Kind) Position {
	pos = buf.Clamp(pos)
	return Position{Line: pos.Line, Character: buf.Line(pos.Line).Encode(k, pos.Col)}
}

// fromWire converts a server position to a character position, clamping
// anything the buffer no longer has.
func fromWire(buf *buffer.Buffer, p Position, k encoding.Kind) types.Position {
	if p.Line < 0 {
		return types.Position{}
	}
	if p.Line >= buf.LineCount() {
		return buf.End()
	}
	line := buf.Line(p.Line)
	off := p.Character
	if off < 0 {
		off = 0
	}
	if n := encoding.Len(k, line.Text()); off > n {
		off = n
	}
	return types.Position{Line: p.Line, Col: line.Decode(k, off)}
}

func rangeFromWire(buf *buffer.Buffer, r Range, k encoding.Kind) types.Range {
	return types.NewRange(fromWire(buf, r.Start, k), fromWire(buf, r.End, k))
}

func rangeToWire(buf *buffer.Buffer, r types.Range, k encoding.Kind) Range {
	return Range{Start: toWire(buf, r.Start, k), End: toWire(buf, r.End, k)}
}
