package lsp

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startFakeProcess(t *testing.T) (*ServerProcess, *fakeServer, chan Message) {
	t.Helper()
	sp := newFakeSpawner()
	inbox := make(chan Message, 16)
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })

	p, err := StartProcess("fake", "fake-server", t.TempDir(), sp, inbox, stop)
	require.NoError(t, err)
	f := sp.next(t)
	t.Cleanup(p.Kill)
	return p, f, inbox
}

func receive(t *testing.T, inbox chan Message) Message {
	t.Helper()
	select {
	case m := <-inbox:
		return m
	case <-time.After(waitTimeout):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func TestProcessSurvivesMalformedFrames(t *testing.T) {
	p, f, inbox := startFakeProcess(t)

	f.writeRaw(t, "Content-Length: 4\r\n\r\nnope")
	f.writeRaw(t, "Content-Length: 3\r\n\r\n[1]")
	f.writeRaw(t, "Content-Length: 2\r\n\r\n{}")
	f.notify(t, MethodLogMessage, `{"type":3,"message":"hi"}`)

	m := receive(t, inbox)
	assert.Equal(t, MessageNotification, m.Kind)
	assert.Equal(t, MethodLogMessage, m.Method)
	assert.Equal(t, "fake", m.Server)
	assert.Equal(t, p.Incarnation(), m.Incarnation)
	assert.False(t, p.Dead())
}

func TestProcessClassifiesMessages(t *testing.T) {
	_, f, inbox := startFakeProcess(t)

	f.request(t, jsonrpc2.ID{Str: "abc", IsString: true}, MethodConfiguration, `{"items":[]}`)
	f.reply(t, jsonrpc2.ID{Num: 7}, `{"contents":"x"}`)
	f.replyError(t, jsonrpc2.ID{Num: 8}, jsonrpc2.CodeInternalError, "boom")

	req := receive(t, inbox)
	assert.Equal(t, MessageRequest, req.Kind)
	assert.Equal(t, "abc", req.ID.Str)

	resp := receive(t, inbox)
	assert.Equal(t, MessageResponse, resp.Kind)
	assert.Equal(t, uint64(7), resp.ID.Num)
	assert.JSONEq(t, `{"contents":"x"}`, string(resp.Result))

	failed := receive(t, inbox)
	assert.Equal(t, MessageResponse, failed.Kind)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "boom", failed.Error.Message)
}

func TestProcessWritesFramedRequests(t *testing.T) {
	p, f, _ := startFakeProcess(t)

	require.NoError(t, p.Request(jsonrpc2.ID{Num: 1}, MethodHover, TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///a.go"},
		Position:     Position{Line: 2, Character: 5},
	}))
	require.NoError(t, p.Notify(MethodInitialized, struct{}{}))

	m := f.expect(t, MethodHover)
	require.NotNil(t, m.ID)
	assert.Equal(t, uint64(1), m.ID.Num)
	var params TextDocumentPositionParams
	decodeParams(t, m, &params)
	assert.Equal(t, Position{Line: 2, Character: 5}, params.Position)

	n := f.expect(t, MethodInitialized)
	assert.Nil(t, n.ID)
}

func TestProcessDiesOnce(t *testing.T) {
	p, f, inbox := startFakeProcess(t)

	f.kill()
	m := receive(t, inbox)
	assert.Equal(t, MessageExited, m.Kind)
	assert.Error(t, m.Err)
	assert.True(t, p.Dead())

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel not closed")
	}

	p.Kill()
	select {
	case extra := <-inbox:
		t.Fatalf("second exit delivered: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}

	err := p.Notify(MethodDidSave, nil)
	assert.True(t, errors.Is(err, ErrServerDead))
}

type connSpawner struct{ conn *Conn }

func (s connSpawner) Spawn(command, dir string) (*Conn, error) { return s.conn, nil }

func TestProcessReapsAfterReaderFinishes(t *testing.T) {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	go func() { _, _ = io.Copy(io.Discard, stdinR) }()

	var p *ServerProcess
	stillReading := make(chan bool, 1)
	conn := &Conn{
		Stdin:  stdinW,
		Stdout: stdoutR,
		Wait: func() error {
			select {
			case <-p.readDone:
				stillReading <- false
			default:
				stillReading <- true
			}
			return nil
		},
		Kill: func() error { return stdoutW.Close() },
	}
	inbox := make(chan Message, 4)
	stop := make(chan struct{})
	defer close(stop)

	var err error
	p, err = StartProcess("fake", "fake-server", "", connSpawner{conn: conn}, inbox, stop)
	require.NoError(t, err)
	require.NoError(t, stdoutW.Close())

	select {
	case reading := <-stillReading:
		assert.False(t, reading, "Wait ran while stdout was still being read")
	case <-time.After(waitTimeout):
		t.Fatal("process was never reaped")
	}
	assert.Equal(t, MessageExited, receive(t, inbox).Kind)
}

func TestStartProcessSpawnFailure(t *testing.T) {
	sp := newFakeSpawner()
	sp.err = errors.New("no such file")
	_, err := StartProcess("fake", "missing", "", sp, make(chan Message), make(chan struct{}))
	assert.ErrorContains(t, err, "no such file")
}
