// Package logger provides configurable, filterable logging on top of log/slog.
package logger

import (
	"log/slog"
	"strings"
)

// Config holds all settings for the logger.
type Config struct {
	// LogLevel is the minimum level to log ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`

	// LogFilePath is the output file. "-" means stderr; empty means the
	// default file under the user cache directory.
	LogFilePath string `toml:"log_file"`

	// EnabledTags only logs tagged messages with these tags (if non-empty).
	EnabledTags []string `toml:"enabled_tags"`
	// DisabledTags drops messages with these tags. Overrides EnabledTags.
	DisabledTags []string `toml:"disabled_tags"`

	// EnabledPackages only logs messages from these packages (if non-empty).
	// A package is the immediate directory name, e.g. "lsp" or "core".
	EnabledPackages []string `toml:"enabled_packages"`
	// DisabledPackages drops messages from these packages.
	DisabledPackages []string `toml:"disabled_packages"`

	// EnabledFiles only logs messages from these file base names (if non-empty).
	EnabledFiles []string `toml:"enabled_files"`
	// DisabledFiles drops messages from these file base names.
	DisabledFiles []string `toml:"disabled_files"`
}

// filters is the processed, lookup-friendly form of the Config lists.
type filters struct {
	enabledTags      map[string]struct{}
	disabledTags     map[string]struct{}
	enabledPackages  map[string]struct{}
	disabledPackages map[string]struct{}
	enabledFiles     map[string]struct{}
	disabledFiles    map[string]struct{}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (c Config) filters() *filters {
	return &filters{
		enabledTags:      sliceToSet(c.EnabledTags),
		disabledTags:     sliceToSet(c.DisabledTags),
		enabledPackages:  sliceToSet(c.EnabledPackages),
		disabledPackages: sliceToSet(c.DisabledPackages),
		enabledFiles:     sliceToSet(c.EnabledFiles),
		disabledFiles:    sliceToSet(c.DisabledFiles),
	}
}

// sliceToSet lowercases items into a set; nil when there is nothing to filter on.
func sliceToSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item != "" {
			set[strings.ToLower(item)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
