package lsp

import (
	"encoding/json"
	"strings"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/sourcegraph/jsonrpc2"
)

func (c *Client) handleNotification(srv *server, msg Message) {
	switch msg.Method {
	case MethodPublishDiagnostics:
		var p PublishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			logger.Warnf("LSP: %s sent bad diagnostics: %v", srv.name, err)
			return
		}
		c.publishDiagnostics(srv, p)

	case MethodLogMessage:
		var p LogMessageParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return
		}
		switch p.Type {
		case MessageTypeError:
			logger.Errorf("[%s] %s", srv.name, p.Message)
		case MessageTypeWarning:
			logger.Warnf("[%s] %s", srv.name, p.Message)
		default:
			logger.DebugTagf("lsp", "[%s] %s", srv.name, p.Message)
		}

	case MethodShowMessage:
		var p LogMessageParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return
		}
		c.showMessage(srv, p)

	default:
		logger.DebugTagf("lsp", "LSP: ignored %s from %s", msg.Method, srv.name)
	}
}

func (c *Client) showMessage(srv *server, p LogMessageParams) {
	level := event.MessageInfo
	switch p.Type {
	case MessageTypeError:
		level = event.MessageError
	case MessageTypeWarning:
		level = event.MessageWarning
	}
	c.notify(level, "%s: %s", srv.name, p.Message)
}

// publishDiagnostics attaches diagnostics even when they describe an older
// version; ranges are clamped to the current lines.
func (c *Client) publishDiagnostics(srv *server, p PublishDiagnosticsParams) {
	doc, ok := c.docs[p.URI]
	if !ok || doc.srv != srv {
		return
	}
	stale := p.Version != nil && uint64(*p.Version) != doc.buf.Version()
	diags := make([]buffer.Diagnostic, 0, len(p.Diagnostics))
	for _, d := range p.Diagnostics {
		if d.Range.Start.Line < 0 || d.Range.Start.Line >= doc.buf.LineCount() {
			continue
		}
		sev := buffer.Severity(d.Severity)
		if sev < buffer.SeverityError || sev > buffer.SeverityHint {
			sev = buffer.SeverityError
		}
		diags = append(diags, buffer.Diagnostic{
			Range:    rangeFromWire(doc.buf, d.Range, srv.encoding),
			Severity: sev,
			Message:  d.Message,
			Code:     diagnosticCode(d.Code),
		})
	}
	n := doc.buf.SetDiagnostics(srv.name, diags)
	c.dispatch(event.TypeDiagnosticsChanged, event.DiagnosticsChangedData{
		FilePath: doc.buf.FilePath(),
		Server:   srv.name,
		Count:    n,
		Stale:    stale,
	})
}

func diagnosticCode(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// handleServerRequest answers requests the server sends us. Known methods
// get a null result; anything else gets MethodNotFound.
func (c *Client) handleServerRequest(srv *server, msg Message) {
	var result interface{}
	switch msg.Method {
	case MethodConfiguration:
		var p ConfigurationParams
		_ = json.Unmarshal(msg.Params, &p)
		result = make([]interface{}, len(p.Items))
	case MethodRegisterCapability, MethodUnregisterCap, MethodWorkDoneCreate:
	case MethodShowMessageRequest:
		var p LogMessageParams
		if err := json.Unmarshal(msg.Params, &p); err == nil {
			c.showMessage(srv, p)
		}
	default:
		logger.DebugTagf("lsp", "LSP: %s asked for unsupported %s", srv.name, msg.Method)
		_ = srv.proc.Reply(msg.ID, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not supported: " + msg.Method,
		})
		return
	}
	_ = srv.proc.Reply(msg.ID, result, nil)
}
