package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
)

// maxFrameSize bounds a single message body.
const maxFrameSize = 64 << 20

// frameCodec is the base protocol framing: "Content-Length: N\r\n\r\n"
// followed by exactly N bytes of JSON. Writes go through jsonrpc2's VS Code
// codec. Reads always consume the whole body before decoding it, so a body
// that is not valid JSON costs only that message. When the length itself is
// unreadable the body stays in the stream, and the reader realigns on the
// next Content-Length header.
type frameCodec struct{}

func (frameCodec) WriteObject(stream io.Writer, obj interface{}) error {
	return jsonrpc2.VSCodeObjectCodec{}.WriteObject(stream, obj)
}

func (frameCodec) ReadObject(stream *bufio.Reader, v interface{}) error {
	length := -1
	sawHeader := false
	var headerErr error
	for {
		line, err := stream.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && line != "" {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if !sawHeader {
				continue // stray blank line between frames
			}
			break
		}
		sawHeader = true
		if i := headerIndex(line, contentLength); i > 0 {
			// The body of a frame whose length could not be read ran into
			// this header. Resynchronize on it.
			line = line[i:]
			length, headerErr = -1, nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			headerErr = fmt.Errorf("bad header line %q", line)
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name)+":", contentLength) {
			continue // Content-Type and friends
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 || n > maxFrameSize {
			headerErr = fmt.Errorf("bad Content-Length %q", value)
			continue
		}
		length = n
	}
	if length < 0 {
		if headerErr == nil {
			headerErr = errors.New("missing Content-Length header")
		}
		return &frameError{err: headerErr}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(stream, body); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &frameError{err: fmt.Errorf("invalid JSON body: %w", err)}
	}
	return nil
}

const contentLength = "Content-Length:"

// headerIndex returns the byte index of the first case-insensitive
// occurrence of header in line, or -1.
func headerIndex(line, header string) int {
	for i := 0; i+len(header) <= len(line); i++ {
		if strings.EqualFold(line[i:i+len(header)], header) {
			return i
		}
	}
	return -1
}

// pipeConn joins a process's stdout and stdin into the ReadWriteCloser
// jsonrpc2 streams want.
type pipeConn struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (c pipeConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c pipeConn) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c pipeConn) Close() error {
	werr := c.w.Close()
	rerr := c.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// wireMessage is the shape shared by requests, notifications and responses,
// used to classify an incoming payload.
type wireMessage struct {
	ID     *jsonrpc2.ID    `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *jsonrpc2.Error `json:"error"`
}
