package lsp

import (
	"bytes"
	"encoding/json"
	"net/url"
	"path/filepath"
	"runtime"

	"github.com/sourcegraph/jsonrpc2"
)

// Protocol methods used by the client.
const (
	MethodInitialize          = "initialize"
	MethodInitialized         = "initialized"
	MethodShutdown            = "shutdown"
	MethodExit                = "exit"
	MethodCancelRequest       = "$/cancelRequest"
	MethodDidOpen             = "textDocument/didOpen"
	MethodDidChange           = "textDocument/didChange"
	MethodDidSave             = "textDocument/didSave"
	MethodDidClose            = "textDocument/didClose"
	MethodHover               = "textDocument/hover"
	MethodCompletion          = "textDocument/completion"
	MethodSignatureHelp       = "textDocument/signatureHelp"
	MethodRename              = "textDocument/rename"
	MethodDefinition          = "textDocument/definition"
	MethodDeclaration         = "textDocument/declaration"
	MethodReferences          = "textDocument/references"
	MethodSemanticTokensFull  = "textDocument/semanticTokens/full"
	MethodSemanticTokensRange = "textDocument/semanticTokens/range"
	MethodPublishDiagnostics  = "textDocument/publishDiagnostics"
	MethodLogMessage          = "window/logMessage"
	MethodShowMessage         = "window/showMessage"
	MethodShowMessageRequest  = "window/showMessageRequest"
	MethodWorkDoneCreate      = "window/workDoneProgress/create"
	MethodRegisterCapability  = "client/registerCapability"
	MethodUnregisterCap       = "client/unregisterCapability"
	MethodConfiguration       = "workspace/configuration"
	MethodProgress            = "$/progress"
)

// DocumentURI is a file URI.
type DocumentURI string

// Position is a zero-based line and an offset in the negotiated encoding.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open range in wire units.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Location struct {
	URI   DocumentURI `json:"uri"`
	Range Range       `json:"range"`
}

type LocationLink struct {
	TargetURI            DocumentURI `json:"targetUri"`
	TargetRange          Range       `json:"targetRange"`
	TargetSelectionRange Range       `json:"targetSelectionRange"`
}

type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

type VersionedTextDocumentIdentifier struct {
	URI     DocumentURI `json:"uri"`
	Version int         `json:"version"`
}

// OptionalVersionedTextDocumentIdentifier is used by workspace edits; a
// null version means "whatever is current".
type OptionalVersionedTextDocumentIdentifier struct {
	URI     DocumentURI `json:"uri"`
	Version *int        `json:"version"`
}

type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`
}

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// TextDocumentContentChangeEvent is an incremental change when Range is
// set and a full replacement otherwise.
type TextDocumentContentChangeEvent struct {
	Range *Range `json:"range,omitempty"`
	Text  string `json:"text"`
}

// --- Initialization ---

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type WorkspaceFolder struct {
	URI  DocumentURI `json:"uri"`
	Name string      `json:"name"`
}

type InitializeParams struct {
	ProcessID        int                `json:"processId"`
	ClientInfo       ClientInfo         `json:"clientInfo"`
	RootURI          DocumentURI        `json:"rootUri"`
	RootPath         string             `json:"rootPath,omitempty"`
	WorkspaceFolders []WorkspaceFolder  `json:"workspaceFolders"`
	Capabilities     ClientCapabilities `json:"capabilities"`
}

type ClientCapabilities struct {
	General      GeneralClientCapabilities      `json:"general"`
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
	Window       WindowClientCapabilities       `json:"window"`
}

type GeneralClientCapabilities struct {
	PositionEncodings []string `json:"positionEncodings"`
}

type WindowClientCapabilities struct {
	WorkDoneProgress bool `json:"workDoneProgress"`
}

type TextDocumentClientCapabilities struct {
	Synchronization    SynchronizationCapabilities    `json:"synchronization"`
	Hover              HoverCapabilities              `json:"hover"`
	Completion         CompletionCapabilities         `json:"completion"`
	SignatureHelp      SignatureHelpCapabilities      `json:"signatureHelp"`
	Rename             RenameCapabilities             `json:"rename"`
	Definition         LinkCapabilities               `json:"definition"`
	Declaration        LinkCapabilities               `json:"declaration"`
	References         struct{}                       `json:"references"`
	PublishDiagnostics PublishDiagnosticsCapabilities `json:"publishDiagnostics"`
	SemanticTokens     SemanticTokensCapabilities     `json:"semanticTokens"`
}

type SynchronizationCapabilities struct {
	DidSave bool `json:"didSave"`
}

type HoverCapabilities struct {
	ContentFormat []string `json:"contentFormat"`
}

type CompletionCapabilities struct {
	CompletionItem struct {
		SnippetSupport bool `json:"snippetSupport"`
	} `json:"completionItem"`
}

type SignatureHelpCapabilities struct {
	SignatureInformation struct {
		DocumentationFormat []string `json:"documentationFormat"`
	} `json:"signatureInformation"`
}

type RenameCapabilities struct {
	PrepareSupport bool `json:"prepareSupport"`
}

type LinkCapabilities struct {
	LinkSupport bool `json:"linkSupport"`
}

type PublishDiagnosticsCapabilities struct {
	VersionSupport bool `json:"versionSupport"`
}

type SemanticTokensCapabilities struct {
	Requests struct {
		Range bool `json:"range"`
		Full  bool `json:"full"`
	} `json:"requests"`
	TokenTypes              []string `json:"tokenTypes"`
	TokenModifiers          []string `json:"tokenModifiers"`
	Formats                 []string `json:"formats"`
	MultilineTokenSupport   bool     `json:"multilineTokenSupport"`
	OverlappingTokenSupport bool     `json:"overlappingTokenSupport"`
}

// ServerCapabilities lists what a server provides. Providers that may be a
// bool or an options object are kept raw and tested with provides.
type ServerCapabilities struct {
	PositionEncoding       string                 `json:"positionEncoding,omitempty"`
	TextDocumentSync       json.RawMessage        `json:"textDocumentSync,omitempty"`
	HoverProvider          json.RawMessage        `json:"hoverProvider,omitempty"`
	CompletionProvider     *CompletionOptions     `json:"completionProvider,omitempty"`
	SignatureHelpProvider  *SignatureHelpOptions  `json:"signatureHelpProvider,omitempty"`
	DefinitionProvider     json.RawMessage        `json:"definitionProvider,omitempty"`
	DeclarationProvider    json.RawMessage        `json:"declarationProvider,omitempty"`
	ReferencesProvider     json.RawMessage        `json:"referencesProvider,omitempty"`
	RenameProvider         json.RawMessage        `json:"renameProvider,omitempty"`
	SemanticTokensProvider *SemanticTokensOptions `json:"semanticTokensProvider,omitempty"`
}

type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

type SignatureHelpOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

type SemanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

type SemanticTokensOptions struct {
	Legend SemanticTokensLegend `json:"legend"`
	Range  json.RawMessage      `json:"range,omitempty"`
	Full   json.RawMessage      `json:"full,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// TextDocumentSyncKind defines how the server wants to sync.
type TextDocumentSyncKind int

const (
	SyncNone        TextDocumentSyncKind = 0
	SyncFull        TextDocumentSyncKind = 1
	SyncIncremental TextDocumentSyncKind = 2
)

func (k TextDocumentSyncKind) String() string {
	switch k {
	case SyncFull:
		return "full"
	case SyncIncremental:
		return "incremental"
	}
	return "none"
}

// SyncKind extracts the sync kind, which may be a number or an object.
func (c ServerCapabilities) SyncKind() TextDocumentSyncKind {
	raw := bytes.TrimSpace(c.TextDocumentSync)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return SyncNone
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return TextDocumentSyncKind(n)
	}
	var opts struct {
		Change *int `json:"change"`
	}
	if err := json.Unmarshal(raw, &opts); err == nil && opts.Change != nil {
		return TextDocumentSyncKind(*opts.Change)
	}
	return SyncFull
}

// provides reports whether a bool-or-options provider is enabled.
func provides(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return false
	}
	return true
}

func (c ServerCapabilities) HasHover() bool       { return provides(c.HoverProvider) }
func (c ServerCapabilities) HasDefinition() bool  { return provides(c.DefinitionProvider) }
func (c ServerCapabilities) HasDeclaration() bool { return provides(c.DeclarationProvider) }
func (c ServerCapabilities) HasReferences() bool  { return provides(c.ReferencesProvider) }
func (c ServerCapabilities) HasRename() bool      { return provides(c.RenameProvider) }

func (c ServerCapabilities) HasSemanticTokensFull() bool {
	return c.SemanticTokensProvider != nil && provides(c.SemanticTokensProvider.Full)
}

func (c ServerCapabilities) HasSemanticTokensRange() bool {
	return c.SemanticTokensProvider != nil && provides(c.SemanticTokensProvider.Range)
}

// --- Document sync ---

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// --- Features ---

type CompletionParams struct {
	TextDocumentPositionParams
}

type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

type CompletionItem struct {
	Label      string              `json:"label"`
	Kind       int                 `json:"kind,omitempty"`
	Detail     string              `json:"detail,omitempty"`
	InsertText string              `json:"insertText,omitempty"`
	TextEdit   *CompletionTextEdit `json:"textEdit,omitempty"`
}

// CompletionTextEdit is either a TextEdit or an InsertReplaceEdit.
type CompletionTextEdit struct {
	Range   *Range `json:"range,omitempty"`
	Insert  *Range `json:"insert,omitempty"`
	NewText string `json:"newText"`
}

// Target returns the range the edit replaces.
func (e CompletionTextEdit) Target() (Range, bool) {
	if e.Range != nil {
		return *e.Range, true
	}
	if e.Insert != nil {
		return *e.Insert, true
	}
	return Range{}, false
}

type Hover struct {
	Contents json.RawMessage `json:"contents"`
	Range    *Range          `json:"range,omitempty"`
}

type SignatureHelp struct {
	Signatures      []SignatureInformation `json:"signatures"`
	ActiveSignature int                    `json:"activeSignature,omitempty"`
	ActiveParameter int                    `json:"activeParameter,omitempty"`
}

type SignatureInformation struct {
	Label         string          `json:"label"`
	Documentation json.RawMessage `json:"documentation,omitempty"`
}

type RenameParams struct {
	TextDocumentPositionParams
	NewName string `json:"newName"`
}

type WorkspaceEdit struct {
	Changes         map[DocumentURI][]TextEdit `json:"changes,omitempty"`
	DocumentChanges []json.RawMessage          `json:"documentChanges,omitempty"`
}

type TextDocumentEdit struct {
	TextDocument OptionalVersionedTextDocumentIdentifier `json:"textDocument"`
	Edits        []TextEdit                              `json:"edits"`
}

type ReferenceParams struct {
	TextDocumentPositionParams
	Context struct {
		IncludeDeclaration bool `json:"includeDeclaration"`
	} `json:"context"`
}

type SemanticTokensParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type SemanticTokensRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
}

type SemanticTokens struct {
	ResultID string   `json:"resultId,omitempty"`
	Data     []uint32 `json:"data"`
}

type CancelParams struct {
	ID jsonrpc2.ID `json:"id"`
}

// --- Server notifications ---

type PublishDiagnosticsParams struct {
	URI         DocumentURI  `json:"uri"`
	Version     *int         `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type Diagnostic struct {
	Range    Range           `json:"range"`
	Severity int             `json:"severity,omitempty"`
	Code     json.RawMessage `json:"code,omitempty"`
	Source   string          `json:"source,omitempty"`
	Message  string          `json:"message"`
}

// MessageType is the severity of window/logMessage and window/showMessage.
type MessageType int

const (
	MessageTypeError MessageType = iota + 1
	MessageTypeWarning
	MessageTypeInfo
	MessageTypeLog
)

type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type ConfigurationParams struct {
	Items []json.RawMessage `json:"items"`
}

// --- Utility functions ---

// FilePathToURI converts a file path to a DocumentURI.
func FilePathToURI(path string) DocumentURI {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	path = filepath.ToSlash(path)
	if runtime.GOOS == "windows" && len(path) >= 2 && path[1] == ':' {
		path = "/" + path
	}
	u := &url.URL{Scheme: "file", Path: path}
	return DocumentURI(u.String())
}

// URIToFilePath converts a DocumentURI to a file path.
func URIToFilePath(uri DocumentURI) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	path := u.Path
	if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// markupText flattens hover or documentation content: MarkupContent, a
// MarkedString, or an array of MarkedStrings.
func markupText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var mc struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &mc); err == nil && mc.Value != "" {
		return mc.Value
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err == nil {
		var buf bytes.Buffer
		for _, p := range parts {
			if t := markupText(p); t != "" {
				if buf.Len() > 0 {
					buf.WriteString("\n\n")
				}
				buf.WriteString(t)
			}
		}
		return buf.String()
	}
	return ""
}
