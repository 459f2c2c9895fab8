package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/logger"
)

// ErrUnsaved is returned by :q when the buffer has unsaved changes.
var ErrUnsaved = errors.New("unsaved changes (add ! to override)")

// API is the editor surface the built-in commands drive.
type API interface {
	Save(path string) error
	Modified() bool
	Quit()
	Undo() bool
	Redo() bool
	Rename(newName string) error
	Hover() error
	Definition() error
	References() error
	RestartServers() int
	Reload() error
	Find(pattern string) (found, wrapped bool, err error)
	FindNext(forward bool) (found, wrapped bool, err error)
	Substitute(expr string) (int, error)
	SetTheme(name string) error
	ThemeName() string
	ListThemes() []string
	Message(level event.MessageLevel, format string, args ...interface{})
}

// RegisterBuiltins registers the built-in commands against api.
func RegisterBuiltins(r *Registry, api API) {
	builtins := map[string]CommandFunc{
		"w": func(args []string) error {
			path := strings.Join(args, " ")
			if err := api.Save(path); err != nil {
				return err
			}
			api.Message(event.MessageInfo, "Written")
			return nil
		},
		"q": func(args []string) error {
			if api.Modified() {
				return ErrUnsaved
			}
			api.Quit()
			return nil
		},
		"q!": func(args []string) error {
			api.Quit()
			return nil
		},
		"wq": func(args []string) error {
			if err := api.Save(strings.Join(args, " ")); err != nil {
				return err
			}
			api.Quit()
			return nil
		},
		"undo": func(args []string) error {
			if !api.Undo() {
				api.Message(event.MessageInfo, "Nothing to undo")
			}
			return nil
		},
		"redo": func(args []string) error {
			if !api.Redo() {
				api.Message(event.MessageInfo, "Nothing to redo")
			}
			return nil
		},
		"rename": func(args []string) error {
			if len(args) != 1 {
				return errors.New("usage: rename <new name>")
			}
			return api.Rename(args[0])
		},
		"hover": func(args []string) error { return api.Hover() },
		"def":   func(args []string) error { return api.Definition() },
		"refs":  func(args []string) error { return api.References() },
		"lsp-restart": func(args []string) error {
			n := api.RestartServers()
			api.Message(event.MessageInfo, "Restarted %d language server(s)", n)
			return nil
		},
		"reload": func(args []string) error { return api.Reload() },
		"find": func(args []string) error {
			if len(args) == 0 {
				return errors.New("usage: find <pattern>")
			}
			found, wrapped, err := api.Find(strings.Join(args, " "))
			return reportFind(api, found, wrapped, err)
		},
		"next": func(args []string) error {
			found, wrapped, err := api.FindNext(true)
			return reportFind(api, found, wrapped, err)
		},
		"prev": func(args []string) error {
			found, wrapped, err := api.FindNext(false)
			return reportFind(api, found, wrapped, err)
		},
		"replace": func(args []string) error {
			n, err := api.Substitute(strings.Join(args, " "))
			if err != nil {
				return err
			}
			api.Message(event.MessageInfo, "Replaced %d occurrence(s)", n)
			return nil
		},
		"theme": func(args []string) error {
			if len(args) == 0 {
				api.Message(event.MessageInfo, "Current theme: %s", api.ThemeName())
				return nil
			}
			themeName := strings.Join(args, " ") // Allow theme names with spaces
			if err := api.SetTheme(themeName); err != nil {
				return fmt.Errorf("%w. Available: %s", err, strings.Join(api.ListThemes(), ", "))
			}
			api.Message(event.MessageInfo, "Theme set to: %s", themeName)
			return nil
		},
		"themes": func(args []string) error {
			api.Message(event.MessageInfo, "Available themes: %s", strings.Join(api.ListThemes(), ", "))
			return nil
		},
	}
	for name, fn := range builtins {
		if err := r.Register(name, fn); err != nil {
			logger.Warnf("Failed to register ':%s' command: %v", name, err)
		}
	}
}

func reportFind(api API, found, wrapped bool, err error) error {
	switch {
	case err != nil:
		return err
	case !found:
		api.Message(event.MessageWarning, "Pattern not found")
	case wrapped:
		api.Message(event.MessageInfo, "Search wrapped")
	}
	return nil
}
