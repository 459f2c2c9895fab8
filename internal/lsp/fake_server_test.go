package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// fakeServer is the far end of a spawned server: it reads what the client
// writes and writes framed replies, over io.Pipe.
type fakeServer struct {
	stdinR  *io.PipeReader
	stdoutW *io.PipeWriter
	stderrW *io.PipeWriter

	writeMu sync.Mutex
	recv    chan wireMessage

	killOnce sync.Once
	exited   chan struct{}
}

type fakeSpawner struct {
	spawned chan *fakeServer
	err     error
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{spawned: make(chan *fakeServer, 8)}
}

func (s *fakeSpawner) Spawn(command, dir string) (*Conn, error) {
	if s.err != nil {
		return nil, s.err
	}
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	f := &fakeServer{
		stdinR:  stdinR,
		stdoutW: stdoutW,
		stderrW: stderrW,
		recv:    make(chan wireMessage, 64),
		exited:  make(chan struct{}),
	}
	go f.readLoop()
	s.spawned <- f
	return &Conn{
		Stdin:  stdinW,
		Stdout: stdoutR,
		Stderr: stderrR,
		Wait: func() error {
			<-f.exited
			return errors.New("signal: killed")
		},
		Kill: func() error {
			f.kill()
			return nil
		},
	}, nil
}

func (s *fakeSpawner) next(t *testing.T) *fakeServer {
	t.Helper()
	select {
	case f := <-s.spawned:
		return f
	case <-time.After(waitTimeout):
		t.Fatal("no server was spawned")
		return nil
	}
}

func (f *fakeServer) readLoop() {
	r := bufio.NewReader(f.stdinR)
	for {
		var m wireMessage
		if err := (frameCodec{}).ReadObject(r, &m); err != nil {
			var fe *frameError
			if errors.As(err, &fe) {
				continue
			}
			close(f.recv)
			return
		}
		f.recv <- m
	}
}

func (f *fakeServer) kill() {
	f.killOnce.Do(func() {
		_, _ = f.stderrW.Write([]byte("panic: fake server crashed\n"))
		_ = f.stdoutW.Close()
		_ = f.stderrW.Close()
		_ = f.stdinR.Close()
		close(f.exited)
	})
}

func (f *fakeServer) write(t *testing.T, obj interface{}) {
	t.Helper()
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	require.NoError(t, (frameCodec{}).WriteObject(f.stdoutW, obj))
}

func (f *fakeServer) writeRaw(t *testing.T, raw string) {
	t.Helper()
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, err := f.stdoutW.Write([]byte(raw))
	require.NoError(t, err)
}

type fakeEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *jsonrpc2.ID    `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc2.Error `json:"error,omitempty"`
}

func (f *fakeServer) reply(t *testing.T, id jsonrpc2.ID, result string) {
	t.Helper()
	f.write(t, fakeEnvelope{JSONRPC: "2.0", ID: &id, Result: json.RawMessage(result)})
}

func (f *fakeServer) replyError(t *testing.T, id jsonrpc2.ID, code int64, message string) {
	t.Helper()
	f.write(t, fakeEnvelope{JSONRPC: "2.0", ID: &id, Error: &jsonrpc2.Error{Code: code, Message: message}})
}

func (f *fakeServer) notify(t *testing.T, method, params string) {
	t.Helper()
	f.write(t, fakeEnvelope{JSONRPC: "2.0", Method: method, Params: json.RawMessage(params)})
}

func (f *fakeServer) request(t *testing.T, id jsonrpc2.ID, method, params string) {
	t.Helper()
	f.write(t, fakeEnvelope{JSONRPC: "2.0", ID: &id, Method: method, Params: json.RawMessage(params)})
}

// expect returns the next message with the given method, skipping others.
func (f *fakeServer) expect(t *testing.T, method string) wireMessage {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case m, ok := <-f.recv:
			require.True(t, ok, "stream closed while waiting for %s", method)
			if m.Method == method {
				return m
			}
		case <-deadline:
			t.Fatalf("server never received %s", method)
		}
	}
}

func decodeParams(t *testing.T, m wireMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(m.Params, v))
}
