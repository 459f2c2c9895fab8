package config

import "time"

// Base application details
const AppName = "ebb"
const Version = "0.3.0"
const DefaultConfigFileName = "config.toml"

// ConfigDirPlaceholder is replaced by the config directory in server commands.
const ConfigDirPlaceholder = "${cfg_dir}"

// UI Layout
const StatusBarHeight = 1

// Status Bar
const MessageTimeout = 4 * time.Second

// Editor defaults
const DefaultTabWidth = 4
const DefaultScrollOff = 3
const DefaultUndoLevels = 100
const DefaultThemeName = "DevComfort Dark"
const DefaultCoalesceLimit = 64

// Language server defaults
const DefaultRestartLimit = 5
