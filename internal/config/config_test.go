package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[editor]
tab_width = 8
coalesce_limit = 0

[lsp]
restart_limit = 2

[lsp.servers.go]
command = "${cfg_dir}/bin/gopls -rpc.trace"

[lsp.servers.zig]
command = "zls"
extensions = [".zig"]
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Editor.TabWidth)
	assert.Equal(t, DefaultScrollOff, cfg.Editor.ScrollOff)
	assert.Equal(t, DefaultCoalesceLimit, cfg.Editor.CoalesceLimit, "invalid values reset to defaults")
	assert.Equal(t, 2, cfg.LSP.RestartLimit)

	goServer, ok := cfg.ServerFor("/src/main.go")
	require.True(t, ok)
	assert.Equal(t, "go", goServer.LanguageID)
	assert.Equal(t, []string{".go"}, goServer.Extensions, "missing fields fall back to the built-in entry")
	assert.Equal(t, filepath.Dir(path)+"/bin/gopls -rpc.trace", cfg.ResolveCommand(goServer.Command))

	zig, ok := cfg.ServerFor("build.ZIG")
	require.True(t, ok)
	assert.Equal(t, "zig", zig.LanguageID)

	_, ok = cfg.ServerFor("notes.txt")
	assert.False(t, ok)
}

func TestLoadConfigBadFileFallsBackToDefaults(t *testing.T) {
	path := writeConfig(t, "[editor\ntab_width = ")
	cfg, err := LoadConfig(path, nil)
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultTabWidth, cfg.Editor.TabWidth)
}

func TestMissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), nil)
	require.NoError(t, err)
	assert.True(t, cfg.LSP.Enabled)
}

func TestFlagOverrides(t *testing.T) {
	var f Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"--tabwidth=2", "--no-lsp", "--log-tags=lsp, core", "--logfile=-"}))

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), &f)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Editor.TabWidth)
	assert.False(t, cfg.LSP.Enabled)
	assert.Equal(t, []string{"lsp", "core"}, cfg.Logger.EnabledTags)
	assert.Equal(t, "-", cfg.Logger.LogFilePath)
	assert.Equal(t, DefaultScrollOff, cfg.Editor.ScrollOff, "unset flags leave values alone")

	_, ok := cfg.ServerFor("main.go")
	assert.False(t, ok)
}

func TestWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))
	sub := filepath.Join(root, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0755))

	assert.Equal(t, root, WorkspaceRoot(filepath.Join(sub, "a.go"), []string{"go.mod"}))
	assert.Equal(t, sub, WorkspaceRoot(filepath.Join(sub, "a.go"), []string{"nothing-here"}))
}

func TestPluginValues(t *testing.T) {
	path := writeConfig(t, `
[plugins.autosave]
enabled = true
interval = "30s"
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	v, ok := cfg.PluginValue("autosave", "enabled")
	require.True(t, ok)
	assert.Equal(t, true, v)
	v, ok = cfg.PluginValue("autosave", "interval")
	require.True(t, ok)
	assert.Equal(t, "30s", v)

	_, ok = cfg.PluginValue("wordcount", "enabled")
	assert.False(t, ok)
}
