package plugin

import (
	"fmt"

	"github.com/bethropolis/ebb/internal/logger"
)

// Manager handles the registration, initialization, and lifecycle of plugins.
// Plugins are initialized in registration order and shut down in reverse.
type Manager struct {
	plugins map[string]Plugin
	order   []string
}

// NewManager creates a new plugin manager.
func NewManager() *Manager {
	return &Manager{plugins: make(map[string]Plugin)}
}

// Register adds a plugin. Call before InitializePlugins.
func (m *Manager) Register(plugin Plugin) error {
	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("plugin registration failed: plugin name cannot be empty")
	}
	if _, exists := m.plugins[name]; exists {
		return fmt.Errorf("plugin registration failed: plugin named '%s' already registered", name)
	}
	m.plugins[name] = plugin
	m.order = append(m.order, name)
	logger.Debugf("Plugin Manager: Registered plugin '%s'", name)
	return nil
}

// InitializePlugins initializes every plugin. A failing plugin is logged and
// skipped; the rest still load. Returns the number initialized.
func (m *Manager) InitializePlugins(api API) int {
	n := 0
	for _, name := range m.order {
		if err := m.plugins[name].Initialize(api); err != nil {
			logger.Warnf("Plugin Manager: ERROR initializing plugin '%s': %v", name, err)
			continue
		}
		n++
	}
	logger.Infof("Plugin Manager: initialized %d of %d plugin(s)", n, len(m.order))
	return n
}

// ShutdownPlugins calls Shutdown on every plugin.
func (m *Manager) ShutdownPlugins() {
	for i := len(m.order) - 1; i >= 0; i-- {
		name := m.order[i]
		if err := m.plugins[name].Shutdown(); err != nil {
			logger.Warnf("Plugin Manager: ERROR shutting down plugin '%s': %v", name, err)
		}
	}
}

// GetPlugin returns a registered plugin by name.
func (m *Manager) GetPlugin(name string) (Plugin, bool) {
	p, exists := m.plugins[name]
	return p, exists
}
