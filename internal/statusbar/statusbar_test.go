package statusbar

import (
	"strings"
	"testing"
	"time"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/theme"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func row(s tcell.Screen, y, w int) string {
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestDrawShowsFileCursorAndMode(t *testing.T) {
	s := newScreen(t, 60, 3)
	sb := New(ConfigFromTheme(theme.DevComfortDark()))
	sb.SetFileInfo("main.go", true)
	sb.SetCursorInfo(types.Position{Line: 4, Col: 2})
	sb.SetEditorMode("COMMAND")
	sb.Draw(s, 60, 3)

	line := row(s, 2, 60)
	assert.Contains(t, line, "main.go [+] Ln 5, Col 3 -- COMMAND")
}

func TestDrawRightAlignsDiagnosticsAndServer(t *testing.T) {
	s := newScreen(t, 60, 1)
	sb := New(ConfigFromTheme(theme.DevComfortDark()))
	sb.SetDiagnostics(map[buffer.Severity]int{buffer.SeverityError: 2, buffer.SeverityWarning: 1})
	sb.SetServerName("go")
	sb.SetServerStatus(event.ServerStatusData{Server: "go", State: event.ServerReady, Encoding: "utf-16"})
	sb.SetServerStatus(event.ServerStatusData{Server: "python", State: event.ServerGaveUp})
	sb.Draw(s, 60, 1)

	line := row(s, 0, 60)
	assert.True(t, strings.HasSuffix(line, "E:2 W:1 go utf-16 "), "got %q", line)
	assert.Contains(t, line, "[No Name]")
}

func TestDegradedNotice(t *testing.T) {
	s := newScreen(t, 60, 1)
	sb := New(ConfigFromTheme(theme.DevComfortDark()))
	sb.SetServerName("go")
	sb.SetServerStatus(event.ServerStatusData{Server: "go", State: event.ServerGaveUp})
	sb.Draw(s, 60, 1)
	assert.Contains(t, row(s, 0, 60), "go: degraded")
}

func TestMessageExpires(t *testing.T) {
	s := newScreen(t, 40, 1)
	now := time.Unix(100, 0)
	sb := New(ConfigFromTheme(theme.DevComfortDark()))
	sb.now = func() time.Time { return now }

	sb.SetMessage(event.MessageError, "boom %d", 1)
	sb.Draw(s, 40, 1)
	assert.Contains(t, row(s, 0, 40), "boom 1")
	_, _, style, _ := s.GetContent(1, 0)
	assert.Equal(t, sb.config.StyleError, style)

	now = now.Add(sb.config.MessageTimeout + time.Second)
	sb.Draw(s, 40, 1)
	assert.NotContains(t, row(s, 0, 40), "boom")
	assert.Equal(t, "", sb.Message())
}

func TestPromptReplacesLine(t *testing.T) {
	s := newScreen(t, 30, 1)
	sb := New(ConfigFromTheme(theme.DevComfortDark()))
	sb.SetFileInfo("a.go", false)
	sb.SetPrompt(":wq")
	sb.Draw(s, 30, 1)
	line := row(s, 0, 30)
	assert.True(t, strings.HasPrefix(line, ":wq"))
	assert.NotContains(t, line, "a.go")
}

func TestSubscribeShowsHoverFirstLine(t *testing.T) {
	events := event.NewManager()
	sb := New(ConfigFromTheme(theme.DevComfortDark()))
	sb.Subscribe(events)
	events.Dispatch(event.TypeHover, event.HoverData{Text: "func f()\n\nmore"})
	assert.Equal(t, "func f()", sb.Message())
}

func TestWideCharactersTruncate(t *testing.T) {
	s := newScreen(t, 6, 1)
	sb := New(ConfigFromTheme(theme.DevComfortDark()))
	sb.SetPrompt("日本語日本")
	sb.Draw(s, 6, 1)
	r, _, _, _ := s.GetContent(4, 0)
	assert.Equal(t, '語', r)
}
