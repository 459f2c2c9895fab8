// internal/event/events.go
package event

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/types"
)

// Type identifies the kind of event.
type Type int

const (
	TypeUnknown Type = iota

	// Core editor events
	TypeBufferModified // content changed; fired synchronously for every applied edit
	TypeBufferLoaded   // a file was loaded into a buffer
	TypeBufferSaved    // a buffer was written to disk
	TypeBufferClosed   // a buffer is being discarded
	TypeCursorMoved
	TypeModeChanged

	// Language server events
	TypeServerStatus       // a server started, became ready, died or gave up
	TypeDiagnosticsChanged // diagnostics for a document were replaced
	TypeHover
	TypeCompletion
	TypeSignatureHelp
	TypeLocations // definition, declaration or references results

	// Application lifecycle
	TypeMessage // transient text for the status bar
	TypeAppReady
	TypeAppQuit
)

var typeNames = map[Type]string{
	TypeBufferModified:     "buffer-modified",
	TypeBufferLoaded:       "buffer-loaded",
	TypeBufferSaved:        "buffer-saved",
	TypeBufferClosed:       "buffer-closed",
	TypeCursorMoved:        "cursor-moved",
	TypeModeChanged:        "mode-changed",
	TypeServerStatus:       "server-status",
	TypeDiagnosticsChanged: "diagnostics-changed",
	TypeHover:              "hover",
	TypeCompletion:         "completion",
	TypeSignatureHelp:      "signature-help",
	TypeLocations:          "locations",
	TypeMessage:            "message",
	TypeAppReady:           "app-ready",
	TypeAppQuit:            "app-quit",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data interface{}
}

// BufferModifiedData carries one applied edit. Change.Edit is the forward
// edit with the text that was actually removed.
type BufferModifiedData struct {
	Buffer *buffer.Buffer
	Change buffer.Change
}

// BufferLoadedData contains info about the loaded buffer.
type BufferLoadedData struct {
	Buffer   *buffer.Buffer
	FilePath string
}

// BufferSavedData contains info about the saved buffer.
type BufferSavedData struct {
	Buffer   *buffer.Buffer
	FilePath string
}

// BufferClosedData names the buffer being discarded.
type BufferClosedData struct {
	Buffer   *buffer.Buffer
	FilePath string
}

// CursorMovedData contains the new cursor position.
type CursorMovedData struct {
	NewPosition types.Position
}

// ModeChangedData names the mode now on top of the mode stack.
type ModeChangedData struct {
	Mode string
}

// ServerState is the lifecycle state reported for a language server.
type ServerState string

const (
	ServerStarting ServerState = "starting"
	ServerReady    ServerState = "ready"
	ServerDead     ServerState = "dead"     // will be restarted on the next tick
	ServerGaveUp   ServerState = "degraded" // restart limit reached
	ServerStopped  ServerState = "stopped"
)

// ServerStatusData reports a server lifecycle change.
type ServerStatusData struct {
	Server   string
	State    ServerState
	Encoding string
	Message  string
}

// DiagnosticsChangedData reports replaced diagnostics for a document.
type DiagnosticsChangedData struct {
	FilePath string
	Server   string
	Count    int
	Stale    bool
}

// HoverData is hover text for a position.
type HoverData struct {
	FilePath string
	Position types.Position
	Text     string
}

// CompletionItem is one completion candidate converted to buffer positions.
type CompletionItem struct {
	Label      string
	Detail     string
	InsertText string
	// Edit replaces Range with InsertText when HasEdit is set.
	Range   types.Range
	HasEdit bool
}

// CompletionData is a completion list for a position.
type CompletionData struct {
	FilePath string
	Position types.Position
	Items    []CompletionItem
}

// SignatureHelpData carries the active signature.
type SignatureHelpData struct {
	FilePath        string
	Label           string
	Documentation   string
	ActiveParameter int
}

// Location is a range within a file, in character positions when the file is
// open and in server units otherwise.
type Location struct {
	FilePath string
	Range    types.Range
}

// LocationsData carries definition, declaration or references results.
type LocationsData struct {
	Kind      string
	Locations []Location
}

// MessageLevel orders transient messages by urgency.
type MessageLevel int

const (
	MessageInfo MessageLevel = iota
	MessageWarning
	MessageError
)

// MessageData is a transient status bar message.
type MessageData struct {
	Text  string
	Level MessageLevel
}

// AppQuitData could contain exit code or reason later.
type AppQuitData struct{}

// AppReadyData could contain initial config or state later.
type AppReadyData struct{}
