package globalconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowrydr/tapline/internal/config"
)

func setTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	setTestHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRepo, cfg.Repo)
	assert.Equal(t, config.DefaultBinary, cfg.Binary)
	assert.Equal(t, config.DefaultKeep, cfg.KeepVersions)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	setTestHome(t)

	cfg := &PersistentConfig{
		Repo:         "acme/tool",
		Binary:       "tool",
		KeepVersions: 5,
	}
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "acme/tool", loaded.Repo)
	assert.Equal(t, "tool", loaded.Binary)
	assert.Equal(t, 5, loaded.KeepVersions)
}

func TestLoadFillsMissingFields(t *testing.T) {
	home := setTestHome(t)

	dir := filepath.Join(home, ".config", "tapline")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("repo: acme/tool\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "acme/tool", cfg.Repo)
	assert.Equal(t, config.DefaultBinary, cfg.Binary, "absent fields fall back to defaults")
	assert.Equal(t, config.DefaultKeep, cfg.KeepVersions)
}

func TestRuntimeMerge(t *testing.T) {
	pc := &PersistentConfig{
		Repo:         "acme/tool",
		Binary:       "tool",
		KeepVersions: 4,
	}

	rc := pc.Runtime()
	assert.Equal(t, "acme/tool", rc.Repo)
	assert.Equal(t, "tool", rc.Binary)
	assert.Equal(t, "/usr/bin/tool", rc.InstallPath, "install path follows the binary name")
	assert.Equal(t, 4, rc.KeepVersions)
	assert.Equal(t, config.DefaultCacheTTL, rc.CacheTTL, "unset values keep compiled-in defaults")
}

func TestRuntimeExplicitInstallPathWins(t *testing.T) {
	pc := &PersistentConfig{Binary: "tool", InstallPath: "/opt/bin/tool"}
	rc := pc.Runtime()
	assert.Equal(t, "/opt/bin/tool", rc.InstallPath)
}
