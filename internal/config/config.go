// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/ebb/internal/logger"
)

// Config holds the application's combined configuration. It is loaded once
// in main and passed explicitly to the components that need it.
type Config struct {
	Logger logger.Config `toml:"logger"`
	Editor EditorConfig  `toml:"editor"`
	LSP    LSPConfig     `toml:"lsp"`

	// Plugins holds per-plugin settings, e.g. [plugins.autosave].
	Plugins map[string]map[string]interface{} `toml:"plugins"`

	// Dir is the directory the config file lives in; not read from TOML.
	Dir string `toml:"-"`
}

// EditorConfig holds editor-specific settings.
type EditorConfig struct {
	TabWidth        int    `toml:"tab_width"`
	ScrollOff       int    `toml:"scroll_off"`
	SystemClipboard bool   `toml:"system_clipboard"`
	UndoLevels      int    `toml:"undo_levels"`
	CoalesceLimit   int    `toml:"coalesce_limit"` // max single-char edits merged into one undo step
	WatchFiles      bool   `toml:"watch_files"`
	AutoIndent      bool   `toml:"auto_indent"`
	Theme           string `toml:"theme"` // built-in name or a file under <config dir>/themes
}

// LSPConfig configures language servers.
type LSPConfig struct {
	Enabled      bool                    `toml:"enabled"`
	RestartLimit int                     `toml:"restart_limit"`
	Servers      map[string]ServerConfig `toml:"servers"` // keyed by file type
}

// ServerConfig describes how to launch the server for one file type.
type ServerConfig struct {
	Command     string   `toml:"command"`
	LanguageID  string   `toml:"language_id"`
	Extensions  []string `toml:"extensions"`
	RootMarkers []string `toml:"root_markers"`
}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.Config{LogLevel: "info"},
		Editor: EditorConfig{
			TabWidth:        DefaultTabWidth,
			ScrollOff:       DefaultScrollOff,
			SystemClipboard: true,
			UndoLevels:      DefaultUndoLevels,
			CoalesceLimit:   DefaultCoalesceLimit,
			WatchFiles:      true,
			AutoIndent:      true,
			Theme:           DefaultThemeName,
		},
		LSP: LSPConfig{
			Enabled:      true,
			RestartLimit: DefaultRestartLimit,
			Servers: map[string]ServerConfig{
				"go":         {Command: "gopls", LanguageID: "go", Extensions: []string{".go"}, RootMarkers: []string{"go.mod", ".git"}},
				"rust":       {Command: "rust-analyzer", LanguageID: "rust", Extensions: []string{".rs"}, RootMarkers: []string{"Cargo.toml", ".git"}},
				"python":     {Command: "pylsp", LanguageID: "python", Extensions: []string{".py"}, RootMarkers: []string{"pyproject.toml", "setup.py", ".git"}},
				"c":          {Command: "clangd", LanguageID: "c", Extensions: []string{".c", ".h"}, RootMarkers: []string{"compile_commands.json", ".git"}},
				"cpp":        {Command: "clangd", LanguageID: "cpp", Extensions: []string{".cpp", ".cc", ".hpp"}, RootMarkers: []string{"compile_commands.json", ".git"}},
				"typescript": {Command: "typescript-language-server --stdio", LanguageID: "typescript", Extensions: []string{".ts", ".tsx"}, RootMarkers: []string{"package.json", ".git"}},
				"javascript": {Command: "typescript-language-server --stdio", LanguageID: "javascript", Extensions: []string{".js", ".jsx"}, RootMarkers: []string{"package.json", ".git"}},
			},
		},
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName), nil
}

// loadFromFile decodes filePath over cfg. A missing file is not an error.
func loadFromFile(filePath string, cfg *Config) error {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}
	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, undecoded)
	}
	return nil
}

// validate resets invalid values to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()
	if c.Editor.TabWidth <= 0 {
		c.Editor.TabWidth = defaults.Editor.TabWidth
	}
	if c.Editor.ScrollOff < 0 {
		c.Editor.ScrollOff = defaults.Editor.ScrollOff
	}
	if c.Editor.UndoLevels <= 0 {
		c.Editor.UndoLevels = defaults.Editor.UndoLevels
	}
	if c.Editor.CoalesceLimit <= 0 {
		c.Editor.CoalesceLimit = defaults.Editor.CoalesceLimit
	}
	if c.LSP.RestartLimit < 0 {
		c.LSP.RestartLimit = defaults.LSP.RestartLimit
	}
	if strings.TrimSpace(c.Editor.Theme) == "" {
		c.Editor.Theme = defaults.Editor.Theme
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	for name, s := range c.LSP.Servers {
		if strings.TrimSpace(s.Command) == "" {
			delete(c.LSP.Servers, name)
			continue
		}
		if d, ok := defaults.LSP.Servers[name]; ok {
			if len(s.Extensions) == 0 {
				s.Extensions = d.Extensions
			}
			if len(s.RootMarkers) == 0 {
				s.RootMarkers = d.RootMarkers
			}
		}
		if s.LanguageID == "" {
			s.LanguageID = name
		}
		c.LSP.Servers[name] = s
	}
}

// LoadConfig builds the effective configuration: defaults, then the TOML
// file (configFilePath, or the default location when empty), then flag
// overrides, then validation. The returned config is always usable; the
// error reports a file that could not be read.
func LoadConfig(configFilePath string, flags *Flags) (*Config, error) {
	cfg := NewDefaultConfig()

	path := configFilePath
	if path == "" {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	var loadErr error
	if path != "" {
		cfg.Dir = filepath.Dir(path)
		if err := loadFromFile(path, cfg); err != nil {
			loadErr = err
			cfg = NewDefaultConfig()
			cfg.Dir = filepath.Dir(path)
		}
	}
	if flags != nil {
		flags.ApplyOverrides(cfg)
	}
	cfg.validate()
	return cfg, loadErr
}

// ServerFor returns the server configuration for a file by extension.
func (c *Config) ServerFor(filePath string) (ServerConfig, bool) {
	if !c.LSP.Enabled || filePath == "" {
		return ServerConfig{}, false
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	names := make([]string, 0, len(c.LSP.Servers))
	for name := range c.LSP.Servers {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic when extensions overlap
	for _, name := range names {
		s := c.LSP.Servers[name]
		for _, e := range s.Extensions {
			if strings.ToLower(e) == ext {
				return s, true
			}
		}
	}
	return ServerConfig{}, false
}

// ResolveCommand substitutes ${cfg_dir} in a server command.
func (c *Config) ResolveCommand(command string) string {
	if !strings.Contains(command, ConfigDirPlaceholder) {
		return command
	}
	return strings.ReplaceAll(command, ConfigDirPlaceholder, c.Dir)
}

// WorkspaceRoot walks up from filePath looking for one of the markers and
// falls back to the file's directory.
func WorkspaceRoot(filePath string, markers []string) string {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return filepath.Dir(filePath)
	}
	start := filepath.Dir(abs)
	for dir := start; ; dir = filepath.Dir(dir) {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}
	return start
}

// PluginValue returns one setting from the [plugins.<name>] table.
func (c *Config) PluginValue(plugin, key string) (interface{}, bool) {
	v, ok := c.Plugins[plugin][key]
	return v, ok
}
