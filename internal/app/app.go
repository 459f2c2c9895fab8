// Package app wires the editor components together and runs the main loop.
package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/commands"
	"github.com/bethropolis/ebb/internal/config"
	"github.com/bethropolis/ebb/internal/core"
	"github.com/bethropolis/ebb/internal/event"
	"github.com/bethropolis/ebb/internal/highlight"
	"github.com/bethropolis/ebb/internal/highlighter"
	"github.com/bethropolis/ebb/internal/input"
	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/lsp"
	"github.com/bethropolis/ebb/internal/modehandler"
	"github.com/bethropolis/ebb/internal/plugin"
	"github.com/bethropolis/ebb/internal/statusbar"
	"github.com/bethropolis/ebb/internal/theme"
	"github.com/bethropolis/ebb/internal/tui"
	"github.com/bethropolis/ebb/internal/watcher"
	"github.com/bethropolis/ebb/plugins/autosave"
	"github.com/bethropolis/ebb/plugins/wordcount"
	"github.com/gdamore/tcell/v2"
)

// tickInterval bounds how long the loop sleeps without input, so dead
// servers are restarted and status messages expire on time.
const tickInterval = 250 * time.Millisecond

// Options configures a new App.
type Options struct {
	Config   *config.Config
	FilePath string
	Screen   tcell.Screen // the real terminal when nil
	Spawner  lsp.Spawner  // lsp.ShellSpawner when nil
}

// App encapsulates the core components and main loop of the editor.
type App struct {
	cfg         *config.Config
	tuiManager  *tui.TUI
	editor      *core.Editor
	events      *event.Manager
	client      *lsp.Client
	themes      *theme.Manager
	statusBar   *statusbar.StatusBar
	modeHandler *modehandler.ModeHandler
	commands    *commands.Registry
	highlights  *highlight.Manager
	plugins     *plugin.Manager

	watcher     *watcher.Watcher
	fileChanges <-chan struct{} // nil while nothing is watched

	highlightDirty bool

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates and initializes a new application instance.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	themesDir := ""
	if cfg.Dir != "" {
		themesDir = filepath.Join(cfg.Dir, "themes")
	}
	themes := theme.NewManager(themesDir, cfg.Editor.Theme)

	var tuiManager *tui.TUI
	var err error
	if opts.Screen != nil {
		tuiManager, err = tui.NewWithScreen(opts.Screen, themes.Current())
	} else {
		tuiManager, err = tui.New(themes.Current())
	}
	if err != nil {
		return nil, fmt.Errorf("TUI initialization failed: %w", err)
	}

	events := event.NewManager()
	editor := core.NewEditor(buffer.New(), cfg.Editor, events)
	statusBar := statusbar.New(statusbar.ConfigFromTheme(themes.Current()))
	statusBar.Subscribe(events)

	a := &App{
		cfg:        cfg,
		tuiManager: tuiManager,
		editor:     editor,
		events:     events,
		themes:     themes,
		statusBar:  statusBar,
		commands:   commands.NewRegistry(),
		highlights: highlight.NewManager(highlighter.NewHighlighter(nil), highlight.DebounceHighlightDuration),
		plugins:    plugin.NewManager(),
		quit:       make(chan struct{}),
	}
	a.client = lsp.NewClient(lsp.Options{Config: cfg, Spawner: opts.Spawner, Events: events})
	commands.RegisterBuiltins(a.commands, a)

	a.modeHandler = modehandler.New(modehandler.Config{
		Editor:         editor,
		InputProcessor: input.NewInputProcessor(),
		EventManager:   events,
		StatusBar:      statusBar,
		Commands:       a.commands,
		Features:       a.client,
		Quit:           a.Quit,
	})

	events.Subscribe(event.TypeBufferModified, a.markHighlightDirty)
	events.Subscribe(event.TypeBufferLoaded, a.markHighlightDirty)
	events.Subscribe(event.TypeLocations, a.handleLocations)

	if err := a.open(opts.FilePath); err != nil {
		tuiManager.Close()
		return nil, err
	}

	for _, p := range []plugin.Plugin{wordcount.New(), autosave.New()} {
		if err := a.plugins.Register(p); err != nil {
			logger.Warnf("App: %v", err)
		}
	}
	a.plugins.InitializePlugins(a)
	return a, nil
}

// open loads path into the editor and attaches it to its language server
// and the file watcher.
func (a *App) open(path string) error {
	if path == "" {
		a.statusBar.SetTemporaryMessage("%s %s - Ctrl+S Save | Ctrl+E Command | Esc Quit", config.AppName, config.Version)
		return nil
	}
	if err := a.editor.Load(path); err != nil {
		return err
	}
	if err := a.client.Open(a.editor.Buffer(), a.editor); err != nil && !errors.Is(err, lsp.ErrNoServer) {
		logger.Warnf("App: language server for %s: %v", path, err)
		a.statusBar.SetMessage(event.MessageWarning, "Language server: %v", err)
	}
	a.watch(path)
	return nil
}

// watch starts watching path, replacing any watcher on another file.
func (a *App) watch(path string) {
	if !a.cfg.Editor.WatchFiles || path == "" {
		return
	}
	if a.watcher != nil {
		if abs, err := filepath.Abs(path); err == nil && abs == a.watcher.Path() {
			return
		}
		_ = a.watcher.Stop()
		a.watcher, a.fileChanges = nil, nil
	}
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		logger.Warnf("App: cannot watch %s: %v", path, err)
		return
	}
	changes, err := w.Start()
	if err != nil {
		logger.Warnf("App: cannot watch %s: %v", path, err)
		_ = w.Stop()
		return
	}
	a.watcher, a.fileChanges = w, changes
}

// Run starts the main loop and blocks until the editor quits. Every
// component is driven from this goroutine; background work only reaches it
// through the channels selected on here.
func (a *App) Run() error {
	defer a.shutdown()

	screenEvents := a.tuiManager.Events(a.quit)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	a.events.Dispatch(event.TypeAppReady, event.AppReadyData{})
	a.resize()
	a.draw()

	for {
		select {
		case <-a.quit:
			return nil
		case ev, ok := <-screenEvents:
			if !ok {
				return nil
			}
			a.handleScreenEvent(ev)
		case msg := <-a.client.Inbox():
			a.client.HandleMessage(msg)
		case <-a.fileChanges:
			a.reloadFromDisk()
		case up := <-a.highlights.Updates():
			a.applyHighlights(up)
		case <-ticker.C:
		}
		a.step()
	}
}

// step runs the per-iteration housekeeping and redraws.
func (a *App) step() {
	a.client.Drain()
	a.client.Tick()
	a.scheduleHighlight()
	a.draw()
}

func (a *App) handleScreenEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.tuiManager.Sync()
		a.resize()
	case *tcell.EventKey:
		a.modeHandler.HandleKeyEvent(ev)
	case *tcell.EventInterrupt:
		if fn, ok := ev.Data().(func()); ok {
			fn()
		}
	}
}

// Quit stops the main loop. Safe to call more than once.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

func (a *App) shutdown() {
	a.events.Dispatch(event.TypeAppQuit, event.AppQuitData{})
	a.plugins.ShutdownPlugins()
	if a.editor.Buffer().IsModified() {
		logger.Warnf("App: exited with unsaved changes")
	}
	a.client.Shutdown(lsp.DefaultShutdownGrace)
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	a.highlights.Shutdown()
	a.tuiManager.Close()
	logger.Infof("App: exiting")
}
