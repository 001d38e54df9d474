package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDurations(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 2*time.Second, cfg.StartupDelayDuration())
	assert.Equal(t, 30*time.Second, cfg.StepTimeoutDuration())
	assert.Equal(t, 720*time.Hour, cfg.HistoryKeepDuration())
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "/home/jules/verification", cfg.Output.Dir)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Server.StartupDelay = "soon"
	cfg.Browser.StepTimeout = "-5s"

	assert.Equal(t, defaultStartupDelay, cfg.StartupDelayDuration())
	assert.Equal(t, defaultStepTimeout, cfg.StepTimeoutDuration())

	cfg.History.Keep = "0s"
	assert.Zero(t, cfg.HistoryKeepDuration())
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Server.Root = "/srv/menu"
	cfg.Output.Dir = "/tmp/shots"
	cfg.Watch.Scenarios = []string{"click", "sets"}
	require.NoError(t, cfg.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nroot = \"site\"\n"), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "site", cfg.Server.Root)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadFileRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nroot ="), 0600))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}
