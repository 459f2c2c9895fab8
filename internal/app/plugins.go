package app

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/commands"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/plugin"
	"github.com/gdamore/tcell/v2"
)

var _ plugin.API = (*App)(nil)

// Buffer returns the buffer being edited.
func (a *App) Buffer() *buffer.Buffer { return a.editor.Buffer() }

// SaveBuffer saves the buffer to its own file.
func (a *App) SaveBuffer() error { return a.Save("") }

// RegisterCommand adds a command-mode command.
func (a *App) RegisterCommand(name string, fn commands.CommandFunc) error {
	return a.commands.Register(name, fn)
}

// SubscribeEvent registers an event handler.
func (a *App) SubscribeEvent(eventType event.Type, handler event.Handler) {
	a.events.Subscribe(eventType, handler)
}

// ConfigValue reads a [plugins.<name>] setting.
func (a *App) ConfigValue(name, key string) (interface{}, bool) {
	return a.cfg.PluginValue(name, key)
}

// Post queues fn for the main loop as a screen interrupt event.
func (a *App) Post(fn func()) {
	if err := a.tuiManager.Screen().PostEvent(tcell.NewEventInterrupt(fn)); err != nil {
		logger.DebugTagf("app", "App: dropped posted call: %v", err)
	}
}
