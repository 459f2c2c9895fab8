// Package plugintest provides an in-memory plugin.API for plugin tests.
package plugintest

import (
	"fmt"
	"sync"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/commands"
	"github.com/bethropolis/ebb/internal/event"
)

// API records what a plugin does. Post runs the function immediately, under
// the same lock as every other method, so plugins with goroutines are safe.
type API struct {
	mu       sync.Mutex
	buf      *buffer.Buffer
	saves    int
	SaveErr  error
	Config   map[string]map[string]interface{}
	Commands *commands.Registry
	Events   *event.Manager
	messages []string
}

// New returns an API over a buffer holding text.
func New(text string) *API {
	return &API{
		buf:      buffer.NewFromString(text),
		Commands: commands.NewRegistry(),
		Events:   event.NewManager(),
	}
}

func (a *API) Buffer() *buffer.Buffer { return a.buf }

func (a *API) SaveBuffer() error {
	if a.SaveErr != nil {
		return a.SaveErr
	}
	a.saves++
	a.buf.MarkClean()
	return nil
}

func (a *API) RegisterCommand(name string, fn commands.CommandFunc) error {
	return a.Commands.Register(name, fn)
}

func (a *API) SubscribeEvent(eventType event.Type, handler event.Handler) {
	a.Events.Subscribe(eventType, handler)
}

func (a *API) Message(level event.MessageLevel, format string, args ...interface{}) {
	a.messages = append(a.messages, fmt.Sprintf(format, args...))
}

func (a *API) ConfigValue(plugin, key string) (interface{}, bool) {
	v, ok := a.Config[plugin][key]
	return v, ok
}

func (a *API) Post(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

// Do runs fn under the lock Post uses, for touching the buffer from a test
// while a plugin goroutine is running.
func (a *API) Do(fn func()) { a.Post(fn) }

// Saves returns how many times SaveBuffer succeeded.
func (a *API) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

// Messages returns the status messages shown so far.
func (a *API) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}
