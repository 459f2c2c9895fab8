// Package plugin runs built-in extensions against a narrow editor API.
package plugin

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/commands"
	"github.com/bethropolis/ebb/internal/event"
)

// API is what plugins may use. Every method except Post must be called on
// the main loop: from Initialize, a command, an event handler or a function
// passed to Post.
type API interface {
	Buffer() *buffer.Buffer
	SaveBuffer() error

	RegisterCommand(name string, fn commands.CommandFunc) error
	SubscribeEvent(eventType event.Type, handler event.Handler)
	Message(level event.MessageLevel, format string, args ...interface{})

	// ConfigValue reads the plugin's [plugins.<name>] config table.
	ConfigValue(plugin, key string) (interface{}, bool)

	// Post queues fn to run on the main loop. Safe from any goroutine.
	Post(fn func())
}

// Plugin is implemented by every plugin.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Initialize is called once when the editor starts, to subscribe to
	// events and register commands.
	Initialize(api API) error

	// Shutdown is called once when the editor is closing.
	Shutdown() error
}
