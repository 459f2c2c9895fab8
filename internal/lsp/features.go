package lsp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
)

// send flushes doc, supersedes older requests of the same kind when asked,
// and registers the new one. A flush here also asks for fresh tokens, since
// the edited lines dropped theirs and Flush will find the document clean.
func (c *Client) send(doc *document, rec Record, params interface{}, supersede bool) error {
	srv := doc.srv
	if c.flushDoc(doc) && rec.Kind != KindSemanticTokensFull && rec.Kind != KindSemanticTokensRange {
		c.requestTokens(doc)
	}
	if supersede {
		for _, old := range c.registry.Supersede(doc.uri, rec.Kind) {
			_ = srv.proc.Notify(MethodCancelRequest, CancelParams{ID: old.ID})
		}
	}
	rec.ID = c.newID()
	rec.URI = doc.uri
	rec.Version = doc.buf.Version()
	rec.Server = srv.name
	rec.Incarnation = srv.proc.Incarnation()
	if err := srv.proc.Request(rec.ID, rec.Kind.Method(), params); err != nil {
		return err
	}
	c.registry.Register(rec)
	return nil
}

func (c *Client) positionParams(doc *document, pos types.Position) TextDocumentPositionParams {
	return TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: doc.uri},
		Position:     toWire(doc.buf, pos, doc.srv.encoding),
	}
}

func hoverKey(uri DocumentURI, version uint64, pos types.Position) string {
	return fmt.Sprintf("%s@%d:%d:%d", uri, version, pos.Line, pos.Col)
}

// Hover asks for hover text at pos. Answers are cached per document version
// and position; a cached answer is published immediately.
func (c *Client) Hover(buf *buffer.Buffer, pos types.Position) error {
	doc, srv, err := c.requireServer(buf)
	if err != nil {
		return err
	}
	if !srv.caps.HasHover() {
		return ErrUnsupported
	}
	pos = buf.Clamp(pos)
	if text, ok := c.hovers.Get(hoverKey(doc.uri, buf.Version(), pos)); ok {
		c.dispatch(event.TypeHover, event.HoverData{FilePath: buf.FilePath(), Position: pos, Text: text.(string)})
		return nil
	}
	return c.send(doc, Record{Kind: KindHover, Position: pos}, c.positionParams(doc, pos), true)
}

// Completion asks for completion candidates at pos.
func (c *Client) Completion(buf *buffer.Buffer, pos types.Position) error {
	doc, srv, err := c.requireServer(buf)
	if err != nil {
		return err
	}
	if srv.caps.CompletionProvider == nil {
		return ErrUnsupported
	}
	pos = buf.Clamp(pos)
	return c.send(doc, Record{Kind: KindCompletion, Position: pos}, CompletionParams{c.positionParams(doc, pos)}, true)
}

// SignatureHelp asks for the signature of the call around pos.
func (c *Client) SignatureHelp(buf *buffer.Buffer, pos types.Position) error {
	doc, srv, err := c.requireServer(buf)
	if err != nil {
		return err
	}
	if srv.caps.SignatureHelpProvider == nil {
		return ErrUnsupported
	}
	pos = buf.Clamp(pos)
	return c.send(doc, Record{Kind: KindSignatureHelp, Position: pos}, c.positionParams(doc, pos), true)
}

// Rename asks the server to rename the symbol at pos.
func (c *Client) Rename(buf *buffer.Buffer, pos types.Position, newName string) error {
	doc, srv, err := c.requireServer(buf)
	if err != nil {
		return err
	}
	if !srv.caps.HasRename() {
		return ErrUnsupported
	}
	pos = buf.Clamp(pos)
	params := RenameParams{TextDocumentPositionParams: c.positionParams(doc, pos), NewName: newName}
	return c.send(doc, Record{Kind: KindRename, Position: pos, NewName: newName}, params, true)
}

// Definition asks where the symbol at pos is defined.
func (c *Client) Definition(buf *buffer.Buffer, pos types.Position) error {
	return c.locate(buf, pos, KindDefinition)
}

// Declaration asks where the symbol at pos is declared.
func (c *Client) Declaration(buf *buffer.Buffer, pos types.Position) error {
	return c.locate(buf, pos, KindDeclaration)
}

// References asks for every use of the symbol at pos.
func (c *Client) References(buf *buffer.Buffer, pos types.Position) error {
	return c.locate(buf, pos, KindReferences)
}

func (c *Client) locate(buf *buffer.Buffer, pos types.Position, kind Kind) error {
	doc, srv, err := c.requireServer(buf)
	if err != nil {
		return err
	}
	supported := map[Kind]bool{
		KindDefinition:  srv.caps.HasDefinition(),
		KindDeclaration: srv.caps.HasDeclaration(),
		KindReferences:  srv.caps.HasReferences(),
	}
	if !supported[kind] {
		return ErrUnsupported
	}
	pos = buf.Clamp(pos)
	var params interface{} = c.positionParams(doc, pos)
	if kind == KindReferences {
		rp := ReferenceParams{TextDocumentPositionParams: c.positionParams(doc, pos)}
		rp.Context.IncludeDeclaration = true
		params = rp
	}
	return c.send(doc, Record{Kind: kind, Position: pos}, params, true)
}

// SemanticTokens requests tokens for the whole document.
func (c *Client) SemanticTokens(buf *buffer.Buffer) error {
	doc, srv, err := c.requireServer(buf)
	if err != nil {
		return err
	}
	if !srv.caps.HasSemanticTokensFull() {
		return ErrUnsupported
	}
	params := SemanticTokensParams{TextDocument: TextDocumentIdentifier{URI: doc.uri}}
	return c.send(doc, Record{Kind: KindSemanticTokensFull}, params, true)
}

// SemanticTokensRange requests tokens for the lines r covers.
func (c *Client) SemanticTokensRange(buf *buffer.Buffer, r types.Range) error {
	doc, srv, err := c.requireServer(buf)
	if err != nil {
		return err
	}
	if !srv.caps.HasSemanticTokensRange() {
		return ErrUnsupported
	}
	r = types.NewRange(buf.Clamp(r.Start), buf.Clamp(r.End))
	params := SemanticTokensRangeParams{
		TextDocument: TextDocumentIdentifier{URI: doc.uri},
		Range:        rangeToWire(buf, r, srv.encoding),
	}
	return c.send(doc, Record{Kind: KindSemanticTokensRange, Range: r}, params, true)
}

// requestTokens refreshes tokens after an open or a change, when the server
// offers them.
func (c *Client) requestTokens(doc *document) {
	if !doc.srv.caps.HasSemanticTokensFull() {
		return
	}
	if err := c.SemanticTokens(doc.buf); err != nil {
		logger.DebugTagf("lsp", "LSP: semantic tokens for %s: %v", doc.uri, err)
	}
}

// applyResult routes a resolved response. Stale results are handled per
// kind: tokens, completions and renames are dropped, the rest is shown.
func (c *Client) applyResult(srv *server, res Resolved) {
	switch res.Kind {
	case KindInitialize:
		c.handleInitialized(srv, res)
		return
	case KindShutdown:
		return
	}

	doc, ok := c.docs[res.URI]
	if !ok {
		return
	}
	if res.Err != nil {
		c.resultError(res)
		return
	}

	switch r := res.Result.(type) {
	case HoverResult:
		c.applyHover(doc, res, r)
	case CompletionResult:
		if res.Stale {
			logger.DebugTagf("lsp", "LSP: stale completion for %s dropped", doc.uri)
			return
		}
		c.applyCompletion(doc, res, r)
	case SignatureHelpResult:
		c.applySignature(doc, r)
	case RenameResult:
		if res.Stale {
			c.notify(event.MessageWarning, "rename to %q dropped: the file changed while the server worked", res.NewName)
			return
		}
		c.applyRename(r)
	case LocationsResult:
		c.applyLocations(r)
	case SemanticTokensResult:
		if res.Stale {
			logger.DebugTagf("lsp", "LSP: stale tokens for %s (v%d, now v%d) discarded", doc.uri, res.Version, doc.buf.Version())
			return
		}
		c.applyTokens(doc, res, r)
	}
}

func (c *Client) resultError(res Resolved) {
	var rpcErr *RPCError
	switch {
	case !errors.As(res.Err, &rpcErr):
		logger.Warnf("LSP: %s failed: %v", res.Kind, res.Err)
	case rpcErr.Code == CodeRequestCancelled || rpcErr.Code == CodeContentModified:
		logger.DebugTagf("lsp", "LSP: %s %s: %s", res.Kind, res.ID, rpcErr.Message)
	default:
		logger.Warnf("LSP: %s failed: %v", res.Kind, res.Err)
		c.notify(event.MessageError, "%s: %s", res.Kind, rpcErr.Message)
	}
}

func (c *Client) applyHover(doc *document, res Resolved, r HoverResult) {
	text := ""
	if r.Hover != nil {
		text = markupText(r.Hover.Contents)
	}
	if !res.Stale {
		c.hovers.SetDefault(hoverKey(doc.uri, res.Version, res.Position), text)
	}
	if text == "" {
		c.notify(event.MessageInfo, "no hover information")
		return
	}
	c.dispatch(event.TypeHover, event.HoverData{FilePath: doc.buf.FilePath(), Position: res.Position, Text: text})
}

func (c *Client) applyCompletion(doc *document, res Resolved, r CompletionResult) {
	items := make([]event.CompletionItem, 0, len(r.List.Items))
	for _, it := range r.List.Items {
		item := event.CompletionItem{Label: it.Label, Detail: it.Detail, InsertText: it.InsertText}
		if item.InsertText == "" {
			item.InsertText = it.Label
		}
		if it.TextEdit != nil {
			if rng, ok := it.TextEdit.Target(); ok {
				item.Range = rangeFromWire(doc.buf, rng, doc.srv.encoding)
				item.InsertText = it.TextEdit.NewText
				item.HasEdit = true
			}
		}
		items = append(items, item)
	}
	c.dispatch(event.TypeCompletion, event.CompletionData{FilePath: doc.buf.FilePath(), Position: res.Position, Items: items})
}

func (c *Client) applySignature(doc *document, r SignatureHelpResult) {
	if r.Help == nil || len(r.Help.Signatures) == 0 {
		return
	}
	active := r.Help.ActiveSignature
	if active < 0 || active >= len(r.Help.Signatures) {
		active = 0
	}
	sig := r.Help.Signatures[active]
	c.dispatch(event.TypeSignatureHelp, event.SignatureHelpData{
		FilePath:        doc.buf.FilePath(),
		Label:           sig.Label,
		Documentation:   markupText(sig.Documentation),
		ActiveParameter: r.Help.ActiveParameter,
	})
}

// applyRename applies the edits for every open document, each as one
// transaction. Files that are not open are reported, not touched.
func (c *Client) applyRename(r RenameResult) {
	if r.Edit == nil {
		c.notify(event.MessageInfo, "nothing to rename")
		return
	}
	byURI := make(map[DocumentURI][]TextEdit)
	for uri, edits := range r.Edit.Changes {
		byURI[uri] = append(byURI[uri], edits...)
	}
	for _, raw := range r.Edit.DocumentChanges {
		var probe struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.Kind != "" {
			continue // file create, rename or delete
		}
		var tde TextDocumentEdit
		if err := json.Unmarshal(raw, &tde); err != nil {
			logger.Warnf("LSP: bad document change in rename: %v", err)
			continue
		}
		byURI[tde.TextDocument.URI] = append(byURI[tde.TextDocument.URI], tde.Edits...)
	}

	applied, skipped := 0, 0
	for uri, edits := range byURI {
		doc, ok := c.docs[uri]
		if !ok || doc.applier == nil {
			skipped++
			continue
		}
		converted := make([]buffer.TextEdit, 0, len(edits))
		for _, e := range edits {
			converted = append(converted, buffer.TextEdit{
				Range:   rangeFromWire(doc.buf, e.Range, doc.srv.encoding),
				NewText: e.NewText,
			})
		}
		doc.applier.ApplyTextEdits(converted)
		applied += len(converted)
	}
	if skipped > 0 {
		c.notify(event.MessageWarning, "renamed %d occurrence(s); %d file(s) not open were skipped", applied, skipped)
		return
	}
	c.notify(event.MessageInfo, "renamed %d occurrence(s)", applied)
}

func (c *Client) applyLocations(r LocationsResult) {
	locs := make([]event.Location, 0, len(r.Locations))
	for _, l := range r.Locations {
		loc := event.Location{FilePath: URIToFilePath(l.URI)}
		if doc, ok := c.docs[l.URI]; ok {
			loc.Range = rangeFromWire(doc.buf, l.Range, doc.srv.encoding)
		} else {
			loc.Range = types.Range{
				Start: types.Position{Line: l.Range.Start.Line, Col: l.Range.Start.Character},
				End:   types.Position{Line: l.Range.End.Line, Col: l.Range.End.Character},
			}
		}
		locs = append(locs, loc)
	}
	if len(locs) == 0 {
		c.notify(event.MessageInfo, "no %s found", locationNoun(r.Kind()))
		return
	}
	c.dispatch(event.TypeLocations, event.LocationsData{Kind: locationNoun(r.Kind()), Locations: locs})
}

func locationNoun(k Kind) string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindDeclaration:
		return "declaration"
	}
	return "references"
}
