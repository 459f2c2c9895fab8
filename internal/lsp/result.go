package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind is the kind of an outstanding request. It selects the schema a
// response is decoded with.
type Kind int

const (
	KindInitialize Kind = iota + 1
	KindShutdown
	KindHover
	KindCompletion
	KindSignatureHelp
	KindRename
	KindDefinition
	KindDeclaration
	KindReferences
	KindSemanticTokensFull
	KindSemanticTokensRange
)

var kindMethods = map[Kind]string{
	KindInitialize:          MethodInitialize,
	KindShutdown:            MethodShutdown,
	KindHover:               MethodHover,
	KindCompletion:          MethodCompletion,
	KindSignatureHelp:       MethodSignatureHelp,
	KindRename:              MethodRename,
	KindDefinition:          MethodDefinition,
	KindDeclaration:         MethodDeclaration,
	KindReferences:          MethodReferences,
	KindSemanticTokensFull:  MethodSemanticTokensFull,
	KindSemanticTokensRange: MethodSemanticTokensRange,
}

// Method returns the protocol method of the request kind.
func (k Kind) Method() string { return kindMethods[k] }

func (k Kind) String() string {
	if m, ok := kindMethods[k]; ok {
		return m
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// documentScoped reports whether results of this kind depend on document
// content and so can go stale.
func (k Kind) documentScoped() bool {
	return k != KindInitialize && k != KindShutdown
}

// Result is a decoded response payload. The concrete type is fixed by the
// request Kind.
type Result interface {
	Kind() Kind
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

type ShutdownResult struct{}

// HoverResult holds nil when the server had nothing to show.
type HoverResult struct{ Hover *Hover }

type CompletionResult struct{ List CompletionList }

type SignatureHelpResult struct{ Help *SignatureHelp }

type RenameResult struct{ Edit *WorkspaceEdit }

// LocationsResult serves definition, declaration and references.
type LocationsResult struct {
	kind      Kind
	Locations []Location
}

// SemanticTokensResult serves full and range token requests.
type SemanticTokensResult struct {
	kind   Kind
	Tokens SemanticTokens
}

func (InitializeResult) Kind() Kind       { return KindInitialize }
func (ShutdownResult) Kind() Kind         { return KindShutdown }
func (HoverResult) Kind() Kind            { return KindHover }
func (CompletionResult) Kind() Kind       { return KindCompletion }
func (SignatureHelpResult) Kind() Kind    { return KindSignatureHelp }
func (RenameResult) Kind() Kind           { return KindRename }
func (r LocationsResult) Kind() Kind      { return r.kind }
func (r SemanticTokensResult) Kind() Kind { return r.kind }

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeResult decodes raw with the schema of kind.
func decodeResult(kind Kind, raw json.RawMessage) (Result, error) {
	switch kind {
	case KindInitialize:
		var r InitializeResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil

	case KindShutdown:
		return ShutdownResult{}, nil

	case KindHover:
		if isNull(raw) {
			return HoverResult{}, nil
		}
		var h Hover
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, err
		}
		return HoverResult{Hover: &h}, nil

	case KindCompletion:
		return decodeCompletion(raw)

	case KindSignatureHelp:
		if isNull(raw) {
			return SignatureHelpResult{}, nil
		}
		var h SignatureHelp
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, err
		}
		return SignatureHelpResult{Help: &h}, nil

	case KindRename:
		if isNull(raw) {
			return RenameResult{}, nil
		}
		var e WorkspaceEdit
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return RenameResult{Edit: &e}, nil

	case KindDefinition, KindDeclaration, KindReferences:
		locs, err := decodeLocations(raw)
		if err != nil {
			return nil, err
		}
		return LocationsResult{kind: kind, Locations: locs}, nil

	case KindSemanticTokensFull, KindSemanticTokensRange:
		var t SemanticTokens
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, err
			}
		}
		return SemanticTokensResult{kind: kind, Tokens: t}, nil
	}
	return nil, fmt.Errorf("no schema for request kind %s", kind)
}

// decodeCompletion accepts a CompletionList, an item array, or null.
func decodeCompletion(raw json.RawMessage) (Result, error) {
	if isNull(raw) {
		return CompletionResult{}, nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] == '[' {
		var items []CompletionItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return CompletionResult{List: CompletionList{Items: items}}, nil
	}
	var list CompletionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return CompletionResult{List: list}, nil
}

// decodeLocations accepts a Location, a Location array, a LocationLink
// array, or null.
func decodeLocations(raw json.RawMessage) ([]Location, error) {
	if isNull(raw) {
		return nil, nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] == '{' {
		var loc Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, err
		}
		return []Location{loc}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	locs := make([]Location, 0, len(items))
	for _, item := range items {
		var probe struct {
			URI       DocumentURI `json:"uri"`
			TargetURI DocumentURI `json:"targetUri"`
		}
		if err := json.Unmarshal(item, &probe); err != nil {
			return nil, err
		}
		if probe.TargetURI != "" {
			var link LocationLink
			if err := json.Unmarshal(item, &link); err != nil {
				return nil, err
			}
			locs = append(locs, Location{URI: link.TargetURI, Range: link.TargetSelectionRange})
			continue
		}
		var loc Location
		if err := json.Unmarshal(item, &loc); err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}
