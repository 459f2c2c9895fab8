// Package statusbar draws the bottom line of the editor.
package statusbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/theme"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Config defines the appearance and behavior of the status bar.
type Config struct {
	StyleDefault   tcell.Style // Default background/foreground
	StyleModified  tcell.Style // Style for the modified indicator
	StyleMessage   tcell.Style // Style for temporary messages
	StyleWarning   tcell.Style
	StyleError     tcell.Style
	StylePrompt    tcell.Style // command line and rename prompt
	MessageTimeout time.Duration
}

// ConfigFromTheme takes the status bar styles from th.
func ConfigFromTheme(th *theme.Theme) Config {
	return Config{
		StyleDefault:   th.Style("StatusBar"),
		StyleModified:  th.Style("StatusBarModified"),
		StyleMessage:   th.Style("StatusBarMessage"),
		StyleWarning:   th.Style("StatusBarWarning"),
		StyleError:     th.Style("StatusBarError"),
		StylePrompt:    th.Style("StatusBarMode"),
		MessageTimeout: config.MessageTimeout,
	}
}

// StatusBar represents the UI component for the status line. It is owned by
// the main loop.
type StatusBar struct {
	config Config
	now    func() time.Time

	filePath    string
	cursorPos   types.Position
	isModified  bool
	editorMode  string
	diagnostics map[buffer.Severity]int

	serverName string
	server     event.ServerStatusData

	prompt string // replaces the whole line while set

	tempMessage     string
	tempLevel       event.MessageLevel
	tempMessageTime time.Time
}

// New creates a new StatusBar with the given configuration.
func New(config Config) *StatusBar {
	return &StatusBar{config: config, now: time.Now}
}

// SetConfig swaps styles, e.g. after a theme change.
func (sb *StatusBar) SetConfig(config Config) { sb.config = config }

// Subscribe shows messages, server status changes, hover text and
// signature help as they are dispatched.
func (sb *StatusBar) Subscribe(events *event.Manager) {
	events.Subscribe(event.TypeMessage, func(e event.Event) bool {
		if d, ok := e.Data.(event.MessageData); ok {
			sb.SetMessage(d.Level, "%s", d.Text)
		}
		return false
	})
	events.Subscribe(event.TypeServerStatus, func(e event.Event) bool {
		if d, ok := e.Data.(event.ServerStatusData); ok {
			sb.SetServerStatus(d)
		}
		return false
	})
	events.Subscribe(event.TypeHover, func(e event.Event) bool {
		if d, ok := e.Data.(event.HoverData); ok {
			sb.SetMessage(event.MessageInfo, "%s", firstLine(d.Text))
		}
		return false
	})
	events.Subscribe(event.TypeSignatureHelp, func(e event.Event) bool {
		if d, ok := e.Data.(event.SignatureHelpData); ok {
			sb.SetMessage(event.MessageInfo, "%s", d.Label)
		}
		return false
	})
}

// SetFileInfo updates the file path shown in the status bar.
func (sb *StatusBar) SetFileInfo(path string, modified bool) {
	sb.filePath = path
	sb.isModified = modified
}

// SetCursorInfo updates the cursor position shown.
func (sb *StatusBar) SetCursorInfo(pos types.Position) { sb.cursorPos = pos }

// SetEditorMode updates the displayed editor mode.
func (sb *StatusBar) SetEditorMode(mode string) { sb.editorMode = mode }

// SetDiagnostics updates the per-severity counts.
func (sb *StatusBar) SetDiagnostics(counts map[buffer.Severity]int) { sb.diagnostics = counts }

// SetServerName selects which server's status is shown; "" hides it.
func (sb *StatusBar) SetServerName(name string) {
	if name != sb.serverName {
		sb.serverName = name
		sb.server = event.ServerStatusData{}
	}
}

// SetServerStatus records a status change for the shown server.
func (sb *StatusBar) SetServerStatus(d event.ServerStatusData) {
	if d.Server == sb.serverName {
		sb.server = d
	}
}

// SetPrompt shows text in place of the status line; "" restores it.
func (sb *StatusBar) SetPrompt(text string) { sb.prompt = text }

// SetMessage displays a message for the configured duration.
func (sb *StatusBar) SetMessage(level event.MessageLevel, format string, args ...interface{}) {
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempLevel = level
	sb.tempMessageTime = sb.now()
}

// SetTemporaryMessage displays an informational message.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.SetMessage(event.MessageInfo, format, args...)
}

// ResetTemporaryMessage clears any temporary message being displayed
func (sb *StatusBar) ResetTemporaryMessage() {
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}
}

// Message returns the active temporary message, or "".
func (sb *StatusBar) Message() string {
	if sb.tempMessageTime.IsZero() || sb.now().Sub(sb.tempMessageTime) > sb.config.MessageTimeout {
		return ""
	}
	return sb.tempMessage
}

type segment struct {
	text  string
	style tcell.Style
}

// left builds file, modified flag, cursor and mode.
func (sb *StatusBar) left() []segment {
	fPath := sb.filePath
	if fPath == "" {
		fPath = "[No Name]"
	}
	segs := []segment{{" " + fPath, sb.config.StyleDefault}}
	if sb.isModified {
		segs = append(segs, segment{" [+]", sb.config.StyleModified})
	}
	text := fmt.Sprintf(" Ln %d, Col %d", sb.cursorPos.Line+1, sb.cursorPos.Col+1)
	if sb.editorMode != "" {
		text += " -- " + sb.editorMode
	}
	return append(segs, segment{text, sb.config.StyleDefault})
}

// right builds diagnostic counts and the server state.
func (sb *StatusBar) right() []segment {
	var segs []segment
	if n := sb.diagnostics[buffer.SeverityError]; n > 0 {
		segs = append(segs, segment{fmt.Sprintf("E:%d ", n), sb.config.StyleError})
	}
	if n := sb.diagnostics[buffer.SeverityWarning]; n > 0 {
		segs = append(segs, segment{fmt.Sprintf("W:%d ", n), sb.config.StyleWarning})
	}
	if n := sb.diagnostics[buffer.SeverityInformation] + sb.diagnostics[buffer.SeverityHint]; n > 0 {
		segs = append(segs, segment{fmt.Sprintf("I:%d ", n), sb.config.StyleDefault})
	}
	if sb.serverName == "" || sb.server.State == "" {
		return segs
	}
	switch sb.server.State {
	case event.ServerGaveUp:
		segs = append(segs, segment{fmt.Sprintf("%s: degraded ", sb.serverName), sb.config.StyleError})
	case event.ServerDead:
		segs = append(segs, segment{fmt.Sprintf("%s: restarting ", sb.serverName), sb.config.StyleWarning})
	case event.ServerReady:
		segs = append(segs, segment{fmt.Sprintf("%s %s ", sb.serverName, sb.server.Encoding), sb.config.StyleDefault})
	default:
		segs = append(segs, segment{fmt.Sprintf("%s: %s ", sb.serverName, sb.server.State), sb.config.StyleDefault})
	}
	return segs
}

func (sb *StatusBar) messageStyle() tcell.Style {
	switch sb.tempLevel {
	case event.MessageError:
		return sb.config.StyleError
	case event.MessageWarning:
		return sb.config.StyleWarning
	}
	return sb.config.StyleMessage
}

// Draw renders the status bar onto the last screen row.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1

	if msg := sb.Message(); msg == "" && !sb.tempMessageTime.IsZero() {
		sb.ResetTemporaryMessage()
	}

	base := sb.config.StyleDefault
	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, base)
	}

	if sb.prompt != "" {
		drawText(screen, 0, y, width, sb.prompt, sb.config.StylePrompt)
		return
	}

	right := sb.right()
	rightWidth := 0
	for _, s := range right {
		rightWidth += uniseg.StringWidth(s.text)
	}

	var left []segment
	if msg := sb.Message(); msg != "" {
		left = []segment{{" " + msg, sb.messageStyle()}}
	} else {
		left = sb.left()
	}

	x := 0
	limit := width
	if rightWidth < width {
		limit = width - rightWidth
	}
	for _, s := range left {
		x = drawText(screen, x, y, limit, s.text, s.style)
	}
	if rightWidth >= width {
		return
	}
	x = max(x, width-rightWidth)
	for _, s := range right {
		x = drawText(screen, x, y, width, s.text, s.style)
	}
}

// drawText draws text from x up to limit and returns the next free column.
func drawText(screen tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusterWidth := gr.Width()
		if x+clusterWidth > limit {
			break
		}
		runes := gr.Runes()
		if len(runes) > 0 {
			screen.SetContent(x, y, runes[0], runes[1:], style)
		}
		x += clusterWidth
	}
	return x
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
