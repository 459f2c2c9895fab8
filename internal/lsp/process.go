package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bethropolis/ebb/internal/logger"
	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"
)

// stderrTailLines is how many lines of server stderr are kept for crash
// reports.
const stderrTailLines = 20

// Conn is a spawned server: its stdio and a way to wait for and kill it.
type Conn struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser // may be nil

	// Wait blocks until the process exits.
	Wait func() error
	// Kill terminates the process.
	Kill func() error
}

// Spawner starts a server from an already resolved shell command string.
type Spawner interface {
	Spawn(command, dir string) (*Conn, error)
}

// ShellSpawner runs commands through "sh -c".
type ShellSpawner struct{}

func (ShellSpawner) Spawn(command, dir string) (*Conn, error) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", command, err)
	}
	return &Conn{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Wait:   cmd.Wait,
		Kill: func() error {
			if cmd.Process == nil {
				return nil
			}
			return cmd.Process.Kill()
		},
	}, nil
}

// MessageKind classifies an inbound message.
type MessageKind int

const (
	MessageResponse MessageKind = iota
	MessageNotification
	MessageRequest
	MessageExited // the process is dead; Err holds the reason
)

func (k MessageKind) String() string {
	switch k {
	case MessageResponse:
		return "response"
	case MessageNotification:
		return "notification"
	case MessageRequest:
		return "request"
	}
	return "exited"
}

// Message is one decoded inbound message, stamped with the server it came
// from and that server's incarnation.
type Message struct {
	Server      string
	Incarnation uuid.UUID
	Kind        MessageKind

	ID     jsonrpc2.ID
	Method string
	Params json.RawMessage
	Result json.RawMessage
	Error  *jsonrpc2.Error

	Err    error  // exit reason
	Stderr string // stderr tail at exit
}

// ServerProcess owns one server subprocess. Sends never block: they are
// queued and drained by a single writer goroutine. A single reader goroutine
// decodes frames into the inbox. Once dead, a process stays dead.
type ServerProcess struct {
	name        string
	incarnation uuid.UUID
	conn        *Conn
	stream      jsonrpc2.ObjectStream
	inbox       chan<- Message
	stop        <-chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	outbox []interface{}
	closed bool

	dead     atomic.Bool
	deadOnce sync.Once
	done     chan struct{}

	readDone   chan struct{} // closed when readLoop stops reading stdout
	stderrDone chan struct{} // closed when captureStderr hits EOF

	tailMu sync.Mutex
	tail   []string
}

// StartProcess spawns command in dir and starts its reader and writer. Each
// call is a new incarnation with a fresh UUID. Messages go to inbox until
// stop is closed.
func StartProcess(name, command, dir string, spawner Spawner, inbox chan<- Message, stop <-chan struct{}) (*ServerProcess, error) {
	if spawner == nil {
		spawner = ShellSpawner{}
	}
	conn, err := spawner.Spawn(command, dir)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	p := &ServerProcess{
		name:        name,
		incarnation: uuid.New(),
		conn:        conn,
		stream:      jsonrpc2.NewBufferedStream(pipeConn{r: conn.Stdout, w: conn.Stdin}, frameCodec{}),
		inbox:       inbox,
		stop:        stop,
		done:        make(chan struct{}),
		readDone:    make(chan struct{}),
		stderrDone:  make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	go p.writeLoop()
	go p.readLoop()
	if conn.Stderr != nil {
		go p.captureStderr()
	} else {
		close(p.stderrDone)
	}
	if conn.Wait != nil {
		go func() {
			// Wait closes the pipes, so it must not run before the readers
			// are finished with them.
			<-p.readDone
			<-p.stderrDone
			if err := conn.Wait(); err != nil {
				p.die(fmt.Errorf("process exited: %w", err))
				return
			}
			p.die(errors.New("process exited"))
		}()
	}
	logger.Infof("LSP: started %s (%s) incarnation %s", name, command, p.incarnation)
	return p, nil
}

// Name returns the server name.
func (p *ServerProcess) Name() string { return p.name }

// Incarnation identifies this run of the server.
func (p *ServerProcess) Incarnation() uuid.UUID { return p.incarnation }

// Dead reports whether the process reached its terminal state.
func (p *ServerProcess) Dead() bool { return p.dead.Load() }

// Done is closed when the process dies.
func (p *ServerProcess) Done() <-chan struct{} { return p.done }

// Request queues a request.
func (p *ServerProcess) Request(id jsonrpc2.ID, method string, params interface{}) error {
	req := &jsonrpc2.Request{Method: method, ID: id}
	if err := req.SetParams(params); err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	return p.enqueue(req)
}

// Notify queues a notification.
func (p *ServerProcess) Notify(method string, params interface{}) error {
	req := &jsonrpc2.Request{Method: method, Notif: true}
	if params != nil {
		if err := req.SetParams(params); err != nil {
			return fmt.Errorf("encode %s params: %w", method, err)
		}
	}
	return p.enqueue(req)
}

// Reply queues a response to a server-initiated request. rpcErr, when set,
// replaces the result.
func (p *ServerProcess) Reply(id jsonrpc2.ID, result interface{}, rpcErr *jsonrpc2.Error) error {
	resp := &jsonrpc2.Response{ID: id}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else if err := resp.SetResult(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return p.enqueue(resp)
}

func (p *ServerProcess) enqueue(obj interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.dead.Load() {
		return fmt.Errorf("%s: %w", p.name, ErrServerDead)
	}
	p.outbox = append(p.outbox, obj)
	p.cond.Signal()
	return nil
}

func (p *ServerProcess) writeLoop() {
	for {
		p.mu.Lock()
		for len(p.outbox) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		obj := p.outbox[0]
		p.outbox[0] = nil
		p.outbox = p.outbox[1:]
		p.mu.Unlock()

		if err := p.stream.WriteObject(obj); err != nil {
			p.die(fmt.Errorf("write failed: %w", err))
			return
		}
	}
}

func (p *ServerProcess) readLoop() {
	defer close(p.readDone)
	for {
		var raw json.RawMessage
		err := p.stream.ReadObject(&raw)
		if err != nil {
			var fe *frameError
			if errors.As(err, &fe) {
				logger.Warnf("LSP: %s sent a malformed frame, dropped: %v", p.name, err)
				continue
			}
			if errors.Is(err, io.EOF) {
				err = errors.New("server closed its output")
			}
			p.die(fmt.Errorf("read failed: %w", err))
			return
		}
		msg, ok := p.decode(raw)
		if !ok {
			continue
		}
		if !p.deliver(msg) {
			return
		}
	}
}

// decode classifies one payload. Anything that is not a JSON-RPC object is
// dropped.
func (p *ServerProcess) decode(raw json.RawMessage) (Message, bool) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		logger.Warnf("LSP: %s sent a non-object payload, dropped: %v", p.name, err)
		return Message{}, false
	}
	msg := Message{Server: p.name, Incarnation: p.incarnation, Method: w.Method, Params: w.Params}
	switch {
	case w.Method != "" && w.ID != nil:
		msg.Kind = MessageRequest
		msg.ID = *w.ID
	case w.Method != "":
		msg.Kind = MessageNotification
	case w.ID != nil:
		msg.Kind = MessageResponse
		msg.ID = *w.ID
		msg.Result = w.Result
		msg.Error = w.Error
	default:
		logger.Warnf("LSP: %s sent a message with neither id nor method, dropped", p.name)
		return Message{}, false
	}
	logger.DebugTagf("lsp", "LSP: %s <- %s %s %s", p.name, msg.Kind, msg.Method, msg.ID)
	return msg, true
}

func (p *ServerProcess) deliver(msg Message) bool {
	select {
	case p.inbox <- msg:
		return true
	case <-p.stop:
		return false
	}
}

// die moves the process to the Dead state exactly once and reports it.
func (p *ServerProcess) die(reason error) {
	p.deadOnce.Do(func() {
		p.dead.Store(true)
		p.mu.Lock()
		p.closed = true
		p.outbox = nil
		p.cond.Broadcast()
		p.mu.Unlock()
		close(p.done)

		_ = p.stream.Close()
		if p.conn.Kill != nil {
			_ = p.conn.Kill()
		}
		stderr := p.StderrTail()
		logger.Warnf("LSP: %s (%s) is dead: %v", p.name, p.incarnation, reason)
		go p.deliver(Message{Server: p.name, Incarnation: p.incarnation, Kind: MessageExited, Err: reason, Stderr: stderr})
	})
}

// Kill terminates the process; it ends up Dead like any other exit.
func (p *ServerProcess) Kill() {
	p.die(errors.New("killed"))
}

func (p *ServerProcess) captureStderr() {
	defer close(p.stderrDone)
	scanner := bufio.NewScanner(p.conn.Stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		logger.DebugTagf("lsp-stderr", "[%s] %s", p.name, line)
		p.tailMu.Lock()
		p.tail = append(p.tail, line)
		if len(p.tail) > stderrTailLines {
			p.tail = p.tail[len(p.tail)-stderrTailLines:]
		}
		p.tailMu.Unlock()
	}
}

// StderrTail returns the last lines the server wrote to stderr.
func (p *ServerProcess) StderrTail() string {
	p.tailMu.Lock()
	defer p.tailMu.Unlock()
	return strings.Join(p.tail, "\n")
}
