// Package commands holds the command-line (":") command registry and the
// built-in commands.
package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bethropolis/ebb/internal/logger"
)

// ErrUnknownCommand is returned by Execute for unregistered names.
var ErrUnknownCommand = errors.New("unknown command")

// CommandFunc runs a command with its whitespace-separated arguments.
type CommandFunc func(args []string) error

// Registry maps command names to functions.
type Registry struct {
	commands map[string]CommandFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]CommandFunc)}
}

// Register adds a command.
func (r *Registry) Register(name string, fn CommandFunc) error {
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command '%s' already registered", name)
	}
	r.commands[name] = fn
	logger.DebugTagf("commands", "Registered command ':%s'", name)
	return nil
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute parses and runs a command line such as "rename newName". A
// leading ':' is ignored; an empty line is a no-op.
func (r *Registry) Execute(line string) error {
	parts := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if len(parts) == 0 {
		return nil
	}
	cmdName, args := parts[0], parts[1:]
	fn, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmdName)
	}
	logger.DebugTagf("commands", "Executing command ':%s' with args %v", cmdName, args)
	if err := fn(args); err != nil {
		return fmt.Errorf("%s: %w", cmdName, err)
	}
	return nil
}
