// Package theme maps UI element and token type names to terminal styles.
package theme

import (
	"strings"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/gdamore/tcell/v2"
)

// Theme is a named set of styles. Token types from servers and from the
// local highlighter share the style namespace.
type Theme struct {
	Name   string
	IsDark bool
	Styles map[string]tcell.Style
}

// Style returns the style for name, falling back to the part before the
// first dot, then to "Default".
func (t *Theme) Style(name string) tcell.Style {
	if style, ok := t.Styles[name]; ok {
		return style
	}
	if dotIndex := strings.Index(name, "."); dotIndex != -1 {
		if style, ok := t.Styles[name[:dotIndex]]; ok {
			return style
		}
	}
	if defStyle, ok := t.Styles["Default"]; ok {
		return defStyle
	}
	logger.Warnf("Theme '%s': Style '%s' and 'Default' style not found, using tcell default.", t.Name, name)
	return tcell.StyleDefault
}

// TokenStyle styles a token span; a "deprecated" modifier strikes it through.
func (t *Theme) TokenStyle(span buffer.TokenSpan) tcell.Style {
	style := t.Style(span.Type)
	for _, m := range span.Modifiers {
		if m == "deprecated" {
			style = style.StrikeThrough(true)
		}
	}
	return style
}

// DiagnosticStyle returns the underline style layered on text carrying a
// diagnostic of severity s.
func (t *Theme) DiagnosticStyle(base tcell.Style, s buffer.Severity) tcell.Style {
	fg, _, _ := t.Style("Diagnostic." + s.String()).Decompose()
	return base.Underline(tcell.UnderlineStyleCurly, fg)
}

// DevComfortDark returns the built-in theme.
func DevComfortDark() *Theme {
	dcBackground := tcell.NewHexColor(0x2a2f38) // Slightly muted dark blue/grey (StatusBar BG)
	dcForeground := tcell.NewHexColor(0xc5cdd9) // Soft off-white (Default Text)
	dcComment := tcell.NewHexColor(0x5c6370)    // Muted Grey (Comments, Punctuation)
	dcOrange := tcell.NewHexColor(0xd19a66)
	dcYellow := tcell.NewHexColor(0xe5c07b)
	dcGreen := tcell.NewHexColor(0x98c379)
	dcCyan := tcell.NewHexColor(0x56b6c2)
	dcBlue := tcell.NewHexColor(0x61afef)
	dcMagenta := tcell.NewHexColor(0xc678dd)
	dcRed := tcell.NewHexColor(0xe06c75)

	// Use terminal background, DevComfort foreground
	baseStyle := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(dcForeground)
	bar := tcell.StyleDefault.Background(dcBackground).Foreground(dcForeground)

	return &Theme{
		Name:   "DevComfort Dark",
		IsDark: true,
		Styles: map[string]tcell.Style{
			"Default":    baseStyle,
			"LineNumber": baseStyle.Foreground(dcComment),
			"Selection":  baseStyle.Reverse(true),

			"StatusBar":         bar,
			"StatusBarModified": bar.Foreground(dcYellow),
			"StatusBarMessage":  bar.Bold(true),
			"StatusBarWarning":  bar.Foreground(dcOrange).Bold(true),
			"StatusBarError":    bar.Foreground(dcRed).Bold(true),
			"StatusBarMode":     bar.Foreground(dcGreen).Bold(true),

			"Menu":         bar,
			"MenuSelected": bar.Reverse(true),

			"Diagnostic.error":   baseStyle.Foreground(dcRed),
			"Diagnostic.warning": baseStyle.Foreground(dcOrange),
			"Diagnostic.info":    baseStyle.Foreground(dcBlue),
			"Diagnostic.hint":    baseStyle.Foreground(dcComment),

			// Token types
			"keyword":       baseStyle.Foreground(dcBlue).Bold(true),
			"modifier":      baseStyle.Foreground(dcBlue),
			"string":        baseStyle.Foreground(dcGreen),
			"regexp":        baseStyle.Foreground(dcMagenta),
			"comment":       baseStyle.Foreground(dcComment).Italic(true),
			"number":        baseStyle.Foreground(dcOrange),
			"constant":      baseStyle.Foreground(dcOrange),
			"enumMember":    baseStyle.Foreground(dcOrange),
			"type":          baseStyle.Foreground(dcCyan),
			"class":         baseStyle.Foreground(dcCyan),
			"struct":        baseStyle.Foreground(dcCyan),
			"interface":     baseStyle.Foreground(dcCyan).Italic(true),
			"enum":          baseStyle.Foreground(dcCyan),
			"typeParameter": baseStyle.Foreground(dcCyan).Italic(true),
			"namespace":     baseStyle.Foreground(dcCyan),
			"function":      baseStyle.Foreground(dcYellow),
			"method":        baseStyle.Foreground(dcYellow),
			"macro":         baseStyle.Foreground(dcMagenta),
			"decorator":     baseStyle.Foreground(dcMagenta),
			"variable":      baseStyle.Foreground(dcForeground),
			"parameter":     baseStyle.Foreground(dcForeground).Italic(true),
			"property":      baseStyle.Foreground(dcForeground),
			"event":         baseStyle.Foreground(dcYellow),
			"operator":      baseStyle.Foreground(dcForeground),
			"label":         baseStyle.Foreground(dcForeground),
		},
	}
}
