// Package tui owns the tcell screen and draws the editor onto it.
package tui

import (
	"fmt"

	"github.com/bethropolis/ebb/internal/theme"
	"github.com/gdamore/tcell/v2"
)

// TUI manages the terminal screen using tcell.
type TUI struct {
	screen tcell.Screen
}

// New creates and initializes a terminal screen.
func New(th *theme.Theme) (*TUI, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create tcell screen: %w", err)
	}
	return NewWithScreen(s, th)
}

// NewWithScreen initializes s, e.g. a tcell.SimulationScreen in tests.
func NewWithScreen(s tcell.Screen, th *theme.Theme) (*TUI, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize tcell screen: %w", err)
	}
	t := &TUI{screen: s}
	t.SetTheme(th)
	return t, nil
}

// SetTheme applies the theme's default style to the screen background.
func (t *TUI) SetTheme(th *theme.Theme) {
	t.screen.SetStyle(th.Style("Default"))
}

// Close finalizes the tcell screen.
func (t *TUI) Close() {
	if t.screen != nil {
		t.screen.Fini()
	}
}

// Events forwards screen events to a channel from its own goroutine. The
// channel is closed when quit is closed or the screen is finalized.
func (t *TUI) Events(quit <-chan struct{}) <-chan tcell.Event {
	ch := make(chan tcell.Event, 16)
	go t.screen.ChannelEvents(ch, quit)
	return ch
}

// Clear clears the entire screen.
func (t *TUI) Clear() { t.screen.Clear() }

// Show makes the changes visible.
func (t *TUI) Show() { t.screen.Show() }

// Sync redraws the whole terminal, after a resize.
func (t *TUI) Sync() { t.screen.Sync() }

// Size returns the width and height of the terminal screen.
func (t *TUI) Size() (int, int) { return t.screen.Size() }

// Screen provides direct access for components that draw themselves.
func (t *TUI) Screen() tcell.Screen { return t.screen }
