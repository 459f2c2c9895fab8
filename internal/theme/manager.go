package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bethropolis/ebb/internal/logger"
)

// Manager holds the built-in theme plus any loaded from a themes directory.
type Manager struct {
	themes map[string]*Theme // lowercase name -> theme
	active *Theme
}

// NewManager loads themes from themesDir (may be empty or missing) and
// activates name, falling back to the built-in theme.
func NewManager(themesDir, name string) *Manager {
	builtin := DevComfortDark()
	m := &Manager{
		themes: map[string]*Theme{strings.ToLower(builtin.Name): builtin},
		active: builtin,
	}
	if themesDir != "" {
		if err := m.loadDir(themesDir); err != nil {
			logger.Errorf("Error loading themes from '%s': %v", themesDir, err)
		}
	}
	if name != "" {
		if err := m.SetTheme(name); err != nil {
			logger.Warnf("%v, using %s", err, builtin.Name)
		}
	}
	return m
}

// loadDir loads every .toml file in dir. A missing dir is not an error.
func (m *Manager) loadDir(dir string) error {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read theme directory '%s': %w", dir, err)
	}

	loadedCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".toml") {
			continue
		}
		filePath := filepath.Join(dir, file.Name())
		theme, err := LoadThemeFromFile(filePath)
		if err != nil {
			logger.Warnf("Failed to load theme from '%s': %v", filePath, err)
			continue
		}
		key := strings.ToLower(theme.Name)
		if existing, ok := m.themes[key]; ok {
			logger.Warnf("Theme '%s' from '%s' overrides existing theme '%s'", theme.Name, filePath, existing.Name)
		}
		m.themes[key] = theme
		loadedCount++
	}
	logger.Infof("Loaded %d custom themes.", loadedCount)
	return nil
}

// Current returns the active theme.
func (m *Manager) Current() *Theme { return m.active }

// SetTheme activates a theme by name (case-insensitive).
func (m *Manager) SetTheme(name string) error {
	theme, ok := m.themes[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("theme '%s' not found", name)
	}
	if m.active != theme {
		m.active = theme
		logger.Infof("Active theme set to: %s", theme.Name)
	}
	return nil
}

// ListThemes returns the names of all loaded themes, sorted.
func (m *Manager) ListThemes() []string {
	names := make([]string, 0, len(m.themes))
	for _, theme := range m.themes {
		names = append(names, theme.Name)
	}
	sort.Strings(names)
	return names
}
