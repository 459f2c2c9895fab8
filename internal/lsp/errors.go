package lsp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
)

// Sentinel errors returned by the client. Match with errors.Is.
var (
	// ErrNoServer indicates no server is configured for the document.
	ErrNoServer = errors.New("no language server configured")

	// ErrServerDead indicates the server process has exited.
	ErrServerDead = errors.New("language server is not running")

	// ErrNotReady indicates the server has not finished the handshake.
	ErrNotReady = errors.New("language server not initialized")

	// ErrUnsupported indicates the server did not advertise the feature.
	ErrUnsupported = errors.New("feature not supported by server")

	// ErrNotOpen indicates the buffer was never opened with the client.
	ErrNotOpen = errors.New("document not open")
)

// LSP-specific error codes; the JSON-RPC ones come from jsonrpc2.
const (
	CodeServerNotInitialized = -32002
	CodeRequestCancelled     = -32800
	CodeContentModified      = -32801
)

// RPCError is an error response from a server. Match with errors.As.
type RPCError struct {
	Code    int64
	Message string
	Data    json.RawMessage
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (data: %s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func newRPCError(e *jsonrpc2.Error) *RPCError {
	r := &RPCError{Code: e.Code, Message: e.Message}
	if e.Data != nil {
		r.Data = *e.Data
	}
	return r
}

// frameError is a framing or payload problem confined to one message; the
// stream stays usable.
type frameError struct {
	err error
}

func (e *frameError) Error() string { return "malformed frame: " + e.err.Error() }
func (e *frameError) Unwrap() error { return e.err }
