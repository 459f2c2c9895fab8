package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func readFrames(input string, n int) ([]map[string]interface{}, []error) {
	r := bufio.NewReader(strings.NewReader(input))
	var out []map[string]interface{}
	var errs []error
	for i := 0; i < n; i++ {
		var v map[string]interface{}
		err := (frameCodec{}).ReadObject(r, &v)
		errs = append(errs, err)
		out = append(out, v)
	}
	return out, errs
}

func TestFrameCodecWriteIsExact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (frameCodec{}).WriteObject(&buf, map[string]string{"a": "é"}))

	body := `{"a":"é"}`
	assert.Equal(t, "Content-Length: 10\r\n\r\n"+body, buf.String())
	assert.Len(t, body, 10)
}

func TestFrameCodecHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain", "Content-Length: 8\r\n\r\n{\"x\":1}\n"},
		{"case insensitive", "content-length: 8\r\n\r\n{\"x\":1}\n"},
		{"extra header", "Content-Length: 8\r\nContent-Type: application/vscode-jsonrpc; charset=utf-8\r\n\r\n{\"x\":1}\n"},
		{"stray blank line", "\r\nContent-Length: 8\r\n\r\n{\"x\":1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errs := readFrames(tt.input, 1)
			require.NoError(t, errs[0])
			assert.Equal(t, float64(1), out[0]["x"])
		})
	}
}

func TestFrameCodecMalformedFrameIsConfined(t *testing.T) {
	input := "Content-Type: text/plain\r\n\r\n" +
		"Content-Length: 3\r\n\r\n{x}" +
		"Content-Length: 7\r\n\r\n{\"y\":2}"
	out, errs := readFrames(input, 3)

	var fe *frameError
	assert.True(t, errors.As(errs[0], &fe), "missing length: %v", errs[0])
	assert.True(t, errors.As(errs[1], &fe), "bad json: %v", errs[1])
	require.NoError(t, errs[2])
	assert.Equal(t, float64(2), out[2]["y"])
}

func TestFrameCodecRealignsAfterBadLength(t *testing.T) {
	good := "Content-Length: 8\r\n\r\n{\"n\":10}"
	input := "Content-Length: abc\r\n\r\n{\"bad\":1}" + good + good + good
	out, errs := readFrames(input, 4)

	var fe *frameError
	assert.True(t, errors.As(errs[0], &fe), "bad length: %v", errs[0])
	for i := 1; i < 4; i++ {
		require.NoError(t, errs[i], "frame %d", i)
		assert.Equal(t, float64(10), out[i]["n"])
	}
}

func TestFrameCodecTruncatedBody(t *testing.T) {
	_, errs := readFrames("Content-Length: 20\r\n\r\n{\"a\":", 1)
	assert.ErrorIs(t, errs[0], io.ErrUnexpectedEOF)

	_, errs = readFrames("", 1)
	assert.ErrorIs(t, errs[0], io.EOF)
}

func TestFrameCodecRoundTripsAnyText(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		var buf bytes.Buffer
		if err := (frameCodec{}).WriteObject(&buf, map[string]string{"text": text}); err != nil {
			t.Fatalf("write: %v", err)
		}
		var got map[string]string
		if err := (frameCodec{}).ReadObject(bufio.NewReader(&buf), &got); err != nil {
			t.Fatalf("read: %v", err)
		}
		want, _ := json.Marshal(text)
		have, _ := json.Marshal(got["text"])
		if !bytes.Equal(want, have) {
			t.Fatalf("got %q, want %q", got["text"], text)
		}
	})
}
