package lsp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/encoding"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sourcegraph/jsonrpc2"
)

const (
	inboxSize            = 256
	DefaultShutdownGrace = 2 * time.Second
	hoverCacheTTL        = 2 * time.Minute
)

// EditApplier applies server-provided edits to a buffer as one transaction.
type EditApplier interface {
	ApplyTextEdits(edits []buffer.TextEdit)
}

// Options configures a Client.
type Options struct {
	Config  *config.Config
	Spawner Spawner // ShellSpawner when nil
	Events  *event.Manager
}

type serverState int

const (
	stateStarting serverState = iota
	stateReady
	stateDead
	stateGaveUp
	stateStopped
)

func (s serverState) event() event.ServerState {
	switch s {
	case stateStarting:
		return event.ServerStarting
	case stateReady:
		return event.ServerReady
	case stateDead:
		return event.ServerDead
	case stateGaveUp:
		return event.ServerGaveUp
	}
	return event.ServerStopped
}

type serverKey struct {
	languageID string
	root       string
}

// server is one configured language server and its current incarnation.
type server struct {
	key      serverKey
	name     string
	command  string
	proc     *ServerProcess
	state    serverState
	restarts int

	caps     ServerCapabilities
	encoding encoding.Kind
	legend   SemanticTokensLegend
	docs     map[DocumentURI]*document
}

func (s *server) live() bool {
	return s.proc != nil && !s.proc.Dead()
}

// ServerStatus describes the server attached to a buffer.
type ServerStatus struct {
	Name     string
	State    event.ServerState
	Encoding string
}

// Client owns the language servers, the documents open with them and every
// outstanding request. All methods must be called from the main loop; only
// the inbox channel is shared with server goroutines.
type Client struct {
	cfg     *config.Config
	spawner Spawner
	events  *event.Manager

	inbox chan Message
	stop  chan struct{}

	registry      *Registry
	servers       map[serverKey]*server
	byIncarnation map[uuid.UUID]*server
	docs          map[DocumentURI]*document
	byBuffer      map[*buffer.Buffer]*document
	nextID        uint64

	hovers *cache.Cache
}

// NewClient creates a client and subscribes it to buffer events.
func NewClient(opts Options) *Client {
	if opts.Config == nil {
		opts.Config = config.NewDefaultConfig()
	}
	if opts.Spawner == nil {
		opts.Spawner = ShellSpawner{}
	}
	c := &Client{
		cfg:           opts.Config,
		spawner:       opts.Spawner,
		events:        opts.Events,
		inbox:         make(chan Message, inboxSize),
		stop:          make(chan struct{}),
		servers:       make(map[serverKey]*server),
		byIncarnation: make(map[uuid.UUID]*server),
		docs:          make(map[DocumentURI]*document),
		byBuffer:      make(map[*buffer.Buffer]*document),
		hovers:        cache.New(hoverCacheTTL, 2*hoverCacheTTL),
	}
	c.registry = NewRegistry(c)
	if c.events != nil {
		c.subscribe()
	}
	return c
}

// Inbox delivers messages from every server. The main loop passes each one
// to HandleMessage.
func (c *Client) Inbox() <-chan Message { return c.inbox }

// Registry exposes the outstanding requests.
func (c *Client) Registry() *Registry { return c.registry }

// DocumentVersion reports the buffer version of an open document.
func (c *Client) DocumentVersion(uri DocumentURI) (uint64, bool) {
	doc, ok := c.docs[uri]
	if !ok {
		return 0, false
	}
	return doc.buf.Version(), true
}

func (c *Client) newID() jsonrpc2.ID {
	c.nextID++
	return jsonrpc2.ID{Num: c.nextID}
}

func (c *Client) dispatch(t event.Type, data interface{}) {
	c.events.Dispatch(t, data)
}

func (c *Client) notify(level event.MessageLevel, format string, args ...interface{}) {
	c.dispatch(event.TypeMessage, event.MessageData{Text: fmt.Sprintf(format, args...), Level: level})
}

func (c *Client) reportStatus(srv *server, message string) {
	c.dispatch(event.TypeServerStatus, event.ServerStatusData{
		Server:   srv.name,
		State:    srv.state.event(),
		Encoding: srv.encoding.String(),
		Message:  message,
	})
}

// serverFor finds or creates the server for a file. It returns nil when no
// server is configured for the file type.
func (c *Client) serverFor(path string) (*server, error) {
	scfg, ok := c.cfg.ServerFor(path)
	if !ok {
		return nil, ErrNoServer
	}
	key := serverKey{languageID: scfg.LanguageID, root: config.WorkspaceRoot(path, scfg.RootMarkers)}
	if srv, ok := c.servers[key]; ok {
		return srv, nil
	}
	srv := &server{
		key:     key,
		name:    scfg.LanguageID,
		command: c.cfg.ResolveCommand(scfg.Command),
		docs:    make(map[DocumentURI]*document),
	}
	c.servers[key] = srv
	return srv, c.start(srv)
}

// start spawns a new incarnation and sends initialize.
func (c *Client) start(srv *server) error {
	srv.state = stateStarting
	srv.caps = ServerCapabilities{}
	srv.encoding = encoding.UTF16
	srv.legend = SemanticTokensLegend{}

	proc, err := StartProcess(srv.name, srv.command, srv.key.root, c.spawner, c.inbox, c.stop)
	if err != nil {
		srv.proc = nil
		c.markDead(srv, err.Error())
		return err
	}
	srv.proc = proc
	c.byIncarnation[proc.Incarnation()] = srv
	c.reportStatus(srv, "")

	id := c.newID()
	if err := proc.Request(id, MethodInitialize, c.initializeParams(srv)); err != nil {
		return err
	}
	c.registry.Register(Record{ID: id, Kind: KindInitialize, Server: srv.name, Incarnation: proc.Incarnation()})
	return nil
}

func (c *Client) initializeParams(srv *server) InitializeParams {
	rootURI := FilePathToURI(srv.key.root)
	params := InitializeParams{
		ProcessID:  os.Getpid(),
		ClientInfo: ClientInfo{Name: config.AppName, Version: config.Version},
		RootURI:    rootURI,
		RootPath:   srv.key.root,
		WorkspaceFolders: []WorkspaceFolder{
			{URI: rootURI, Name: filepath.Base(srv.key.root)},
		},
	}
	caps := &params.Capabilities
	caps.General.PositionEncodings = []string{
		encoding.UTF32.String(), encoding.UTF8.String(), encoding.UTF16.String(),
	}
	td := &caps.TextDocument
	td.Synchronization.DidSave = true
	td.Hover.ContentFormat = []string{"markdown", "plaintext"}
	td.SignatureHelp.SignatureInformation.DocumentationFormat = []string{"markdown", "plaintext"}
	td.PublishDiagnostics.VersionSupport = true
	td.SemanticTokens.Requests.Full = true
	td.SemanticTokens.Requests.Range = true
	td.SemanticTokens.TokenTypes = semanticTokenTypes
	td.SemanticTokens.TokenModifiers = semanticTokenModifiers
	td.SemanticTokens.Formats = []string{"relative"}
	return params
}

// handleInitialized fixes the negotiated settings for this incarnation and
// opens the documents waiting on it.
func (c *Client) handleInitialized(srv *server, res Resolved) {
	if res.Err != nil {
		logger.Errorf("LSP: %s failed to initialize: %v", srv.name, res.Err)
		srv.proc.Kill()
		return
	}
	result := res.Result.(InitializeResult)
	srv.caps = result.Capabilities
	srv.encoding = encoding.UTF16
	if name := result.Capabilities.PositionEncoding; name != "" {
		if k, ok := encoding.ParseKind(name); ok {
			srv.encoding = k
		} else {
			logger.Warnf("LSP: %s chose unknown position encoding %q, using utf-16", srv.name, name)
		}
	}
	if tp := result.Capabilities.SemanticTokensProvider; tp != nil {
		srv.legend = tp.Legend
	}
	if err := srv.proc.Notify(MethodInitialized, struct{}{}); err != nil {
		return
	}
	srv.state = stateReady
	info := ""
	if result.ServerInfo != nil {
		info = strings.TrimSpace(result.ServerInfo.Name + " " + result.ServerInfo.Version)
	}
	logger.Infof("LSP: %s ready (%s) encoding=%s sync=%s", srv.name, info, srv.encoding, srv.caps.SyncKind())
	c.reportStatus(srv, info)

	for _, doc := range sortedDocs(srv.docs) {
		c.didOpen(doc)
	}
}

// handleExit runs when a server incarnation is gone, whatever the cause.
func (c *Client) handleExit(msg Message) {
	srv, ok := c.byIncarnation[msg.Incarnation]
	if !ok {
		return
	}
	delete(c.byIncarnation, msg.Incarnation)
	c.detach(srv, msg.Incarnation)
	if srv.state == stateStopped {
		return
	}
	reason := "exited"
	if msg.Err != nil {
		reason = msg.Err.Error()
	}
	if tail := lastLine(msg.Stderr); tail != "" {
		reason += ": " + tail
	}
	c.markDead(srv, reason)
}

// detach drops everything tied to one incarnation of srv.
func (c *Client) detach(srv *server, incarnation uuid.UUID) {
	purged := c.registry.PurgeServer(incarnation)
	if len(purged) > 0 {
		logger.Debugf("LSP: purged %d pending request(s) of %s", len(purged), srv.name)
	}
	for _, doc := range sortedDocs(srv.docs) {
		doc.reset()
		doc.buf.ClearTokens(srv.name)
		doc.buf.ClearDiagnostics(srv.name)
		c.dispatch(event.TypeDiagnosticsChanged, event.DiagnosticsChangedData{FilePath: doc.buf.FilePath(), Server: srv.name})
	}
	srv.proc = nil
}

func (c *Client) markDead(srv *server, reason string) {
	if srv.restarts >= c.cfg.LSP.RestartLimit {
		srv.state = stateGaveUp
		c.reportStatus(srv, reason)
		c.notify(event.MessageError, "%s gave up after %d restarts: %s", srv.name, srv.restarts, reason)
		return
	}
	srv.state = stateDead
	c.reportStatus(srv, reason)
	c.notify(event.MessageWarning, "%s stopped: %s", srv.name, reason)
}

// Tick restarts dead servers and flushes pending document changes. The
// main loop calls it once per iteration.
func (c *Client) Tick() {
	c.restartDead()
	c.Flush()
}

func (c *Client) restartDead() {
	for _, srv := range c.sortedServers() {
		if srv.state != stateDead {
			continue
		}
		srv.restarts++
		logger.Infof("LSP: restarting %s (attempt %d of %d)", srv.name, srv.restarts, c.cfg.LSP.RestartLimit)
		_ = c.start(srv)
	}
}

// RestartAll replaces every server with a fresh incarnation and resets the
// restart budget.
func (c *Client) RestartAll() int {
	n := 0
	for _, srv := range c.sortedServers() {
		if srv.proc != nil {
			inc := srv.proc.Incarnation()
			delete(c.byIncarnation, inc)
			srv.proc.Kill()
			c.detach(srv, inc)
		}
		srv.restarts = 0
		if err := c.start(srv); err == nil {
			n++
		}
	}
	return n
}

// HandleMessage processes one inbound message on the main loop.
func (c *Client) HandleMessage(msg Message) {
	srv, ok := c.byIncarnation[msg.Incarnation]
	if !ok {
		logger.DebugTagf("lsp", "LSP: dropped %s from retired incarnation of %s", msg.Kind, msg.Server)
		return
	}
	switch msg.Kind {
	case MessageExited:
		c.handleExit(msg)
	case MessageResponse:
		res, ok := c.registry.Resolve(msg)
		if !ok {
			return
		}
		c.applyResult(srv, res)
	case MessageNotification:
		c.handleNotification(srv, msg)
	case MessageRequest:
		c.handleServerRequest(srv, msg)
	}
}

// Drain handles every message already waiting in the inbox without blocking.
func (c *Client) Drain() int {
	n := 0
	for {
		select {
		case msg := <-c.inbox:
			c.HandleMessage(msg)
			n++
		default:
			return n
		}
	}
}

// Status reports the server attached to buf.
func (c *Client) Status(buf *buffer.Buffer) (ServerStatus, bool) {
	doc, ok := c.byBuffer[buf]
	if !ok || doc.srv == nil {
		return ServerStatus{}, false
	}
	return ServerStatus{Name: doc.srv.name, State: doc.srv.state.event(), Encoding: doc.srv.encoding.String()}, true
}

// ProvidesTokens reports whether buf receives semantic tokens from a server.
func (c *Client) ProvidesTokens(buf *buffer.Buffer) bool {
	doc, ok := c.byBuffer[buf]
	return ok && doc.srv != nil && doc.srv.state == stateReady && doc.srv.caps.HasSemanticTokensFull()
}

// Shutdown stops every server in order: shutdown request, exit notification,
// then a kill once grace has passed. It blocks the caller.
func (c *Client) Shutdown(grace time.Duration) {
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	waiting := make(map[uuid.UUID]*server)
	for _, srv := range c.sortedServers() {
		live := srv.live()
		ready := srv.state == stateReady
		srv.state = stateStopped
		if !live {
			continue
		}
		if !ready {
			srv.proc.Kill()
			continue
		}
		id := c.newID()
		if err := srv.proc.Request(id, MethodShutdown, nil); err != nil {
			continue
		}
		c.registry.Register(Record{ID: id, Kind: KindShutdown, Server: srv.name, Incarnation: srv.proc.Incarnation()})
		waiting[srv.proc.Incarnation()] = srv
	}

	deadline := time.After(grace)
	for len(waiting) > 0 {
		select {
		case msg := <-c.inbox:
			srv, ok := waiting[msg.Incarnation]
			if !ok {
				continue
			}
			switch msg.Kind {
			case MessageResponse:
				if res, ok := c.registry.Resolve(msg); ok && res.Kind == KindShutdown {
					_ = srv.proc.Notify(MethodExit, nil)
					delete(waiting, msg.Incarnation)
				}
			case MessageExited:
				delete(waiting, msg.Incarnation)
			}
		case <-deadline:
			logger.Warnf("LSP: %d server(s) did not answer shutdown in %s", len(waiting), grace)
			waiting = nil
		}
	}

	for _, srv := range c.sortedServers() {
		if srv.proc == nil {
			continue
		}
		select {
		case <-srv.proc.Done():
		case <-time.After(grace / 4):
		}
		srv.proc.Kill()
		logger.Infof("LSP: %s stopped", srv.name)
	}
	close(c.stop)
}

func (c *Client) sortedServers() []*server {
	out := make([]*server, 0, len(c.servers))
	for _, srv := range c.servers {
		out = append(out, srv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key.languageID != out[j].key.languageID {
			return out[i].key.languageID < out[j].key.languageID
		}
		return out[i].key.root < out[j].key.root
	})
	return out
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// requireServer returns the ready server of an open document.
func (c *Client) requireServer(buf *buffer.Buffer) (*document, *server, error) {
	doc, ok := c.byBuffer[buf]
	if !ok {
		if _, configured := c.cfg.ServerFor(buf.FilePath()); !configured {
			return nil, nil, ErrNoServer
		}
		return nil, nil, ErrNotOpen
	}
	srv := doc.srv
	switch {
	case srv.state == stateDead || srv.state == stateGaveUp || srv.state == stateStopped:
		return nil, nil, fmt.Errorf("%s: %w", srv.name, ErrServerDead)
	case srv.state != stateReady || !doc.opened:
		return nil, nil, fmt.Errorf("%s: %w", srv.name, ErrNotReady)
	}
	return doc, srv, nil
}
