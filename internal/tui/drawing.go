package tui

import (
	"fmt"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/core"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/theme"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

const lineNumberPadding = 1 // Space between number and text

// GutterWidth returns the line number column width for lineCount lines on a
// screen width columns wide; 0 when the screen is too narrow.
func GutterWidth(lineCount, width int) int {
	maxDigits := len(fmt.Sprint(max(lineCount, 1)))
	gutterWidth := maxDigits + lineNumberPadding
	if gutterWidth >= width {
		return 0
	}
	return gutterWidth
}

// isPositionWithin checks if pos is within the range [start, end).
func isPositionWithin(pos, start, end types.Position) bool {
	if pos.Line < start.Line || pos.Line > end.Line {
		return false
	}
	if pos.Line == start.Line && pos.Col < start.Col {
		return false
	}
	if pos.Line == end.Line && pos.Col >= end.Col {
		return false
	}
	return true
}

// styleAt layers token, diagnostic and selection styles for one character.
func styleAt(th *theme.Theme, base tcell.Style, tokens []buffer.TokenSpan, diags []buffer.Diagnostic, pos types.Position) tcell.Style {
	style := base
	for _, span := range tokens {
		if pos.Col >= span.Start && pos.Col < span.End {
			style = th.TokenStyle(span)
			break
		}
	}
	for _, d := range diags {
		r := d.Range
		if r.Empty() {
			// Zero-width diagnostics mark the character they start on.
			r.End.Col = r.Start.Col + 1
		}
		if isPositionWithin(pos, r.Start, r.End) {
			style = th.DiagnosticStyle(style, d.Severity)
			break
		}
	}
	return style
}

// worstSeverity returns the most severe diagnostic on a line, 0 if none.
func worstSeverity(diags []buffer.Diagnostic) buffer.Severity {
	var worst buffer.Severity
	for _, d := range diags {
		if worst == 0 || d.Severity < worst {
			worst = d.Severity
		}
	}
	return worst
}

// DrawBuffer draws the visible portion of the editor's buffer.
func DrawBuffer(t *TUI, editor *core.Editor, th *theme.Theme) {
	defaultStyle := th.Style("Default")
	lineNumberStyle := th.Style("LineNumber")
	selectionStyle := th.Style("Selection")

	width, height := t.Size()
	viewHeight := height - config.StatusBarHeight
	if viewHeight <= 0 || width <= 0 {
		return
	}

	buf := editor.Buffer()
	viewY, viewX := editor.ViewportY, editor.ViewportX
	selStart, selEnd, selectionActive := editor.Selection()
	tabWidth := editor.Config().TabWidth
	if tabWidth <= 0 {
		tabWidth = config.DefaultTabWidth
	}

	lineCount := buf.LineCount()
	gutterWidth := GutterWidth(lineCount, width)
	maxDigits := gutterWidth - lineNumberPadding
	textAreaWidth := width - gutterWidth

	for screenY := 0; screenY < viewHeight; screenY++ {
		bufferLineIdx := screenY + viewY

		for fillX := 0; fillX < width; fillX++ {
			t.screen.SetContent(fillX, screenY, ' ', nil, defaultStyle)
		}
		if bufferLineIdx >= lineCount {
			continue
		}

		diags := buf.Diagnostics(bufferLineIdx)
		if gutterWidth > 0 {
			numStyle := lineNumberStyle
			if editor.Cursor().Line == bufferLineIdx {
				numStyle = numStyle.Bold(true)
			}
			if sev := worstSeverity(diags); sev != 0 {
				fg, _, _ := th.Style("Diagnostic." + sev.String()).Decompose()
				numStyle = numStyle.Foreground(fg)
			}
			for i, r := range fmt.Sprintf("%*d", maxDigits, bufferLineIdx+1) {
				t.screen.SetContent(i, screenY, r, nil, numStyle)
			}
		}

		tokens := buf.Tokens(bufferLineIdx)
		gr := uniseg.NewGraphemes(buf.LineText(bufferLineIdx))
		currentVisualX := 0
		currentRuneIndex := 0
		for gr.Next() {
			clusterRunes := gr.Runes()
			clusterWidth := gr.Width()
			isTab := gr.Str() == "\t"
			if isTab {
				clusterWidth = tabWidth - currentVisualX%tabWidth
			}
			clusterVisualEnd := currentVisualX + clusterWidth

			if clusterVisualEnd > viewX && currentVisualX < viewX+textAreaWidth {
				pos := types.Position{Line: bufferLineIdx, Col: currentRuneIndex}
				style := styleAt(th, defaultStyle, tokens, diags, pos)
				if selectionActive && isPositionWithin(pos, selStart, selEnd) {
					style = selectionStyle
				}

				screenX := currentVisualX - viewX + gutterWidth
				switch {
				case isTab:
					for i := 0; i < clusterWidth; i++ {
						if x := screenX + i; x >= gutterWidth && x < width {
							t.screen.SetContent(x, screenY, ' ', nil, style)
						}
					}
				case screenX >= gutterWidth && screenX+clusterWidth <= width:
					t.screen.SetContent(screenX, screenY, clusterRunes[0], clusterRunes[1:], style)
				}
			}

			currentVisualX = clusterVisualEnd
			currentRuneIndex += len(clusterRunes)
			if currentVisualX >= viewX+textAreaWidth {
				break
			}
		}

		// Diagnostics past the end of the line get a marker cell.
		if chars := buf.Line(bufferLineIdx).Len(); len(diags) > 0 {
			for _, d := range diags {
				if d.Range.Start.Col >= chars {
					x := currentVisualX - viewX + gutterWidth
					if x >= gutterWidth && x < width {
						t.screen.SetContent(x, screenY, ' ', nil, th.DiagnosticStyle(defaultStyle, d.Severity))
					}
					break
				}
			}
		}
	}
}

// CursorScreenPos returns where the cursor is drawn, ok false when it is
// scrolled out of view.
func CursorScreenPos(t *TUI, editor *core.Editor) (x, y int, ok bool) {
	pos := editor.Cursor()
	width, height := t.Size()
	viewHeight := height - config.StatusBarHeight
	gutterWidth := GutterWidth(editor.Buffer().LineCount(), width)

	tabWidth := editor.Config().TabWidth
	if tabWidth <= 0 {
		tabWidth = config.DefaultTabWidth
	}
	visualCol := core.VisualColumn(editor.Buffer().LineText(pos.Line), pos.Col, tabWidth)
	x = visualCol - editor.ViewportX + gutterWidth
	y = pos.Line - editor.ViewportY
	if x < gutterWidth || x >= width || y < 0 || y >= viewHeight {
		return 0, 0, false
	}
	return x, y, true
}

// DrawCursor positions the terminal cursor.
func DrawCursor(t *TUI, editor *core.Editor) {
	if x, y, ok := CursorScreenPos(t, editor); ok {
		t.screen.ShowCursor(x, y)
	} else {
		t.screen.HideCursor()
	}
}

// maxMenuItems bounds the completion menu height.
const maxMenuItems = 10

// DrawCompletionMenu draws items below the cursor (above it when there is
// no room), scrolled so selected is visible.
func DrawCompletionMenu(t *TUI, editor *core.Editor, th *theme.Theme, items []event.CompletionItem, selected int) {
	cx, cy, ok := CursorScreenPos(t, editor)
	if !ok || len(items) == 0 {
		return
	}
	width, height := t.Size()
	viewHeight := height - config.StatusBarHeight

	rows := min(len(items), maxMenuItems)
	first := 0
	if selected >= rows {
		first = selected - rows + 1
	}

	menuWidth := 0
	for _, it := range items[first : first+rows] {
		menuWidth = max(menuWidth, uniseg.StringWidth(menuLabel(it)))
	}
	menuWidth = min(menuWidth+2, width)

	top := cy + 1
	if top+rows > viewHeight {
		top = max(cy-rows, 0)
	}
	left := cx
	if left+menuWidth > width {
		left = max(width-menuWidth, 0)
	}

	normal, current := th.Style("Menu"), th.Style("MenuSelected")
	for i := 0; i < rows && top+i < viewHeight; i++ {
		idx := first + i
		style := normal
		if idx == selected {
			style = current
		}
		y := top + i
		for x := left; x < left+menuWidth; x++ {
			t.screen.SetContent(x, y, ' ', nil, style)
		}
		x := left + 1
		gr := uniseg.NewGraphemes(menuLabel(items[idx]))
		for gr.Next() {
			w := gr.Width()
			if x+w > left+menuWidth-1 {
				break
			}
			runes := gr.Runes()
			t.screen.SetContent(x, y, runes[0], runes[1:], style)
			x += w
		}
	}
}

func menuLabel(it event.CompletionItem) string {
	if it.Detail == "" {
		return it.Label
	}
	return it.Label + "  " + it.Detail
}
