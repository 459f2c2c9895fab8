// internal/config/flags.go
package config

import (
	"fmt"
	"strings"

	"github.com/bethropolis/ebb/internal/logger"
	"github.com/spf13/pflag"
)

// Flags holds values parsed from command-line flags. Only flags the user
// actually set override the config file.
type Flags struct {
	set *pflag.FlagSet

	ConfigFilePath  string
	Version         bool
	LogLevel        string
	LogFilePath     string
	TabWidth        int
	ScrollOff       int
	SystemClipboard bool
	NoLSP           bool
	Theme           string
	EnableTags      string
	DisableTags     string
	EnablePkgs      string
	DisablePkgs     string
}

// Register defines the flags on fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	f.set = fs
	fs.StringVar(&f.ConfigFilePath, "config", "", fmt.Sprintf("Path to TOML configuration file (default <config dir>/%s/%s)", AppName, DefaultConfigFileName))
	fs.BoolVar(&f.Version, "version", false, "Show version information and exit")
	fs.StringVar(&f.LogLevel, "loglevel", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFilePath, "logfile", "", "Path to write log file (use '-' for stderr)")
	fs.IntVar(&f.TabWidth, "tabwidth", 0, "Number of spaces per tab")
	fs.IntVar(&f.ScrollOff, "scrolloff", -1, "Lines of context above/below cursor")
	fs.BoolVar(&f.SystemClipboard, "system-clipboard", false, "Use the system clipboard instead of the internal register")
	fs.BoolVar(&f.NoLSP, "no-lsp", false, "Do not start language servers")
	fs.StringVar(&f.Theme, "theme", "", "Color theme name")
	fs.StringVar(&f.EnableTags, "log-tags", "", "Comma-separated list of log tags to enable")
	fs.StringVar(&f.DisableTags, "log-disable-tags", "", "Comma-separated list of log tags to disable")
	fs.StringVar(&f.EnablePkgs, "log-packages", "", "Comma-separated list of packages to enable in the log")
	fs.StringVar(&f.DisablePkgs, "log-disable-packages", "", "Comma-separated list of packages to disable in the log")
}

func (f *Flags) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}

// ApplyOverrides updates cfg with every flag that was set.
func (f *Flags) ApplyOverrides(cfg *Config) {
	if f.changed("loglevel") && f.LogLevel != "" {
		cfg.Logger.LogLevel = f.LogLevel
	}
	if f.changed("logfile") {
		cfg.Logger.LogFilePath = f.LogFilePath
	}
	if f.changed("tabwidth") && f.TabWidth > 0 {
		cfg.Editor.TabWidth = f.TabWidth
	}
	if f.changed("scrolloff") && f.ScrollOff >= 0 {
		cfg.Editor.ScrollOff = f.ScrollOff
	}
	if f.changed("system-clipboard") {
		cfg.Editor.SystemClipboard = f.SystemClipboard
	}
	if f.changed("no-lsp") && f.NoLSP {
		cfg.LSP.Enabled = false
	}
	if f.changed("theme") && f.Theme != "" {
		cfg.Editor.Theme = f.Theme
	}
	if f.changed("log-tags") {
		cfg.Logger.EnabledTags = splitCommaList(f.EnableTags)
	}
	if f.changed("log-disable-tags") {
		cfg.Logger.DisabledTags = splitCommaList(f.DisableTags)
	}
	if f.changed("log-packages") {
		cfg.Logger.EnabledPackages = splitCommaList(f.EnablePkgs)
	}
	if f.changed("log-disable-packages") {
		cfg.Logger.DisabledPackages = splitCommaList(f.DisablePkgs)
	}
	logger.DebugTagf("config", "Applied command-line overrides")
}

// splitCommaList splits "a, b,,c" into [a b c].
func splitCommaList(list string) []string {
	if list == "" {
		return nil
	}
	items := strings.Split(list, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
